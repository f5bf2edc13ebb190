package stats

import (
	"time"

	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/model"
)

// Params are the run-level inputs every aggregate depends on
type Params struct {
	InitialBalance float64
	Commission     float64

	// Start and End bound the backtested period; zero values mean unknown.
	Start time.Time
	End   time.Time

	// Jitter is applied to the equity curve only. Nil means none.
	Jitter Jitter
}

// ParamsFromConfig extracts the aggregation inputs from a backtest config
func ParamsFromConfig(cfg model.BacktestConfig) Params {
	p := Params{
		InitialBalance: cfg.Balance,
		Commission:     cfg.Commission,
	}
	if t, ok := parseDate(cfg.Start); ok {
		p.Start = t
	}
	if t, ok := parseDate(cfg.End); ok {
		p.End = t
	}
	return p
}

func parseDate(s string) (time.Time, bool) {
	if t, err := time.ParseInLocation("2006-01-02", s, time.UTC); err == nil {
		return t, true
	}
	return model.ParseTimestamp(s)
}
