package stats

import (
	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/model"
)

// Coverage separates the number of supplied trades from those that took part
// in the computed aggregates.
type Coverage struct {
	Reported int         `json:"reported"`
	Valid    int         `json:"valid"`
	Excluded []Exclusion `json:"excluded"`
}

// Report holds every derived view of a backtest, computed in a single pass so
// that all consumers see the same numbers.
type Report struct {
	Coverage       Coverage                     `json:"coverage"`
	Global         model.GlobalStats            `json:"global"`
	Daily          map[string]model.BucketStats `json:"daily"`
	Hourly         map[string]model.BucketStats `json:"hourly"`
	Monthly        model.MonthlyStats           `json:"monthly"`
	MonthlySummary MonthlySummary               `json:"monthly_summary"`
	Sequences      SequenceAnalysis             `json:"sequences"`
	Balance        []Point                      `json:"balance"`
	Equity         []Point                      `json:"equity"`
	Distribution   Distribution                 `json:"distribution"`
	Calendar       []DaySummary                 `json:"calendar"`
	Heatmap        []HeatmapCell                `json:"heatmap"`
	Health         Health                       `json:"health"`
	Highlights     Highlights                   `json:"highlights"`
}

// Compute derives every aggregate of a trade list. The input is not modified
// and, with no jitter configured, the result is fully deterministic.
func Compute(trades []model.Trade, p Params) *Report {
	l := newLedger(trades, p)

	jitter := p.Jitter
	if jitter == nil {
		jitter = NoJitter
	}

	r := &Report{
		Coverage: Coverage{
			Reported: l.reported,
			Valid:    len(l.entries),
			Excluded: l.excluded,
		},
		Global:       globalStats(l, p),
		Daily:        dailyStats(l),
		Hourly:       hourlyStats(l),
		Monthly:      monthlyReturns(l, p),
		Sequences:    AnalyzeOutcomes(l.outcomes()),
		Balance:      balanceSeries(l, p, NoJitter),
		Equity:       balanceSeries(l, p, jitter),
		Distribution: distribution(l),
		Calendar:     calendar(l),
		Heatmap:      heatmap(l),
	}
	r.MonthlySummary = SummarizeMonthly(r.Monthly)
	r.Health = Rate(r.Global)
	r.Highlights = Highlight(r.Global, r.Monthly, p)
	return r
}

// Regenerate returns a copy of b whose stored aggregates are replaced with
// values recomputed from its trades.
func Regenerate(b *model.Backtest) *model.Backtest {
	p := ParamsFromConfig(b.Config)
	l := newLedger(b.Trades, p)

	out := *b
	out.Stats = globalStats(l, p)
	out.DayStats = dailyStats(l)
	out.HourStats = hourlyStats(l)
	out.MonthlyStats = monthlyReturns(l, p)
	return &out
}
