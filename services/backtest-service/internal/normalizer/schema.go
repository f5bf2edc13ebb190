package normalizer

import (
	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/model"
)

// Schema identifies the layout of a stored backtest document
type Schema string

const (
	// SchemaNew nests config under "metadata" and aggregates under "statistics"
	SchemaNew Schema = "new"
	// SchemaLegacy keeps config, stats and buckets at the top level
	SchemaLegacy Schema = "legacy"
)

// runIDField selects the new schema when present at the top level
const runIDField = "backtest_id"

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
	kindString
)

type requiredField struct {
	path []string
	kind containerKind
}

var newSchemaFields = []requiredField{
	{[]string{"backtest_id"}, kindString},
	{[]string{"metadata"}, kindObject},
	{[]string{"metadata", "config"}, kindObject},
	{[]string{"metadata", "strategy_config"}, kindObject},
	{[]string{"statistics"}, kindObject},
	{[]string{"statistics", "global"}, kindObject},
	{[]string{"statistics", "daily"}, kindObject},
	{[]string{"statistics", "hourly"}, kindObject},
	{[]string{"statistics", "monthly"}, kindObject},
	{[]string{"trades"}, kindArray},
}

var legacySchemaFields = []requiredField{
	{[]string{"config"}, kindObject},
	{[]string{"strategy_config"}, kindObject},
	{[]string{"stats"}, kindObject},
	{[]string{"day_stats"}, kindObject},
	{[]string{"hour_stats"}, kindObject},
	{[]string{"monthly_stats"}, kindObject},
	{[]string{"trades"}, kindArray},
}

type newDocument struct {
	BacktestID string `json:"backtest_id"`
	Metadata   struct {
		Timestamp      string               `json:"timestamp,omitempty"`
		Config         model.BacktestConfig `json:"config"`
		StrategyConfig model.StrategyConfig `json:"strategy_config"`
	} `json:"metadata"`
	Statistics struct {
		Global  model.GlobalStats            `json:"global"`
		Daily   map[string]model.BucketStats `json:"daily"`
		Hourly  map[string]model.BucketStats `json:"hourly"`
		Monthly model.MonthlyStats           `json:"monthly"`
	} `json:"statistics"`
	Trades []model.Trade `json:"trades"`
}

func (d *newDocument) canonical() *model.Backtest {
	return &model.Backtest{
		Config:         d.Metadata.Config,
		StrategyConfig: d.Metadata.StrategyConfig,
		Stats:          d.Statistics.Global,
		DayStats:       d.Statistics.Daily,
		HourStats:      d.Statistics.Hourly,
		MonthlyStats:   d.Statistics.Monthly,
		Trades:         nonNilTrades(d.Trades),
	}
}

func newDocumentFrom(b *model.Backtest, src Source) *newDocument {
	d := &newDocument{BacktestID: src.RunID, Trades: b.Trades}
	d.Metadata.Timestamp = src.Timestamp
	d.Metadata.Config = b.Config
	d.Metadata.StrategyConfig = b.StrategyConfig
	d.Statistics.Global = b.Stats
	d.Statistics.Daily = b.DayStats
	d.Statistics.Hourly = b.HourStats
	d.Statistics.Monthly = b.MonthlyStats
	return d
}

// legacyDocument has the same layout as the canonical structure
type legacyDocument model.Backtest

func (d *legacyDocument) canonical() *model.Backtest {
	b := model.Backtest(*d)
	b.Trades = nonNilTrades(b.Trades)
	return &b
}

func nonNilTrades(trades []model.Trade) []model.Trade {
	if trades == nil {
		return []model.Trade{}
	}
	return trades
}
