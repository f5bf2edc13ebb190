package stats

import (
	"math/rand"
	"time"

	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/model"
)

// Point is one sample of a balance or equity curve
type Point struct {
	Time  time.Time `json:"x"`
	Value float64   `json:"y"`
}

// Jitter returns the display offset for the i-th point of an equity curve
type Jitter func(i int) float64

// NoJitter leaves the equity curve equal to the balance curve
func NoJitter(int) float64 { return 0 }

// UniformJitter draws offsets uniformly from [-amplitude, amplitude).
// It is cosmetic only and makes the curve non-reproducible unless rng is seeded.
func UniformJitter(amplitude float64, rng *rand.Rand) Jitter {
	if amplitude <= 0 || rng == nil {
		return NoJitter
	}
	return func(int) float64 {
		return rng.Float64()*2*amplitude - amplitude
	}
}

// BalanceSeries returns the cumulative balance after each valid trade, in
// time order, preceded by the initial balance at the first trade's timestamp.
// Trades with an invalid timestamp or P&L are skipped. Without valid trades
// the series is empty.
func BalanceSeries(trades []model.Trade, p Params) []Point {
	return balanceSeries(newLedger(trades, p), p, NoJitter)
}

// EquitySeries is BalanceSeries with p.Jitter added to every trade point
func EquitySeries(trades []model.Trade, p Params) []Point {
	jitter := p.Jitter
	if jitter == nil {
		jitter = NoJitter
	}
	return balanceSeries(newLedger(trades, p), p, jitter)
}

func balanceSeries(l *ledger, p Params, jitter Jitter) []Point {
	if len(l.entries) == 0 {
		return []Point{}
	}

	points := make([]Point, 0, len(l.entries)+1)
	points = append(points, Point{Time: l.entries[0].at, Value: p.InitialBalance})
	for i, e := range l.entries {
		points = append(points, Point{Time: e.at, Value: e.balance + jitter(i)})
	}
	return points
}
