package stats

import (
	"sort"
	"time"

	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/model"

	"github.com/shopspring/decimal"
)

// entry is a valid trade placed on the running balance
type entry struct {
	index   int
	trade   model.Trade
	at      time.Time
	pnl     float64
	net     float64
	before  float64
	balance float64
}

// Exclusion records a trade left out of derived computations
type Exclusion struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ledger is the chronologically sorted list of valid trades with the
// balance before and after each one. Balances are accumulated in decimal so
// that long runs do not drift from the sum of their parts.
type ledger struct {
	entries  []entry
	excluded []Exclusion
	reported int
}

func newLedger(trades []model.Trade, p Params) *ledger {
	l := &ledger{
		entries:  make([]entry, 0, len(trades)),
		excluded: []Exclusion{},
		reported: len(trades),
	}

	for i, t := range trades {
		at, ok := t.Time()
		pnl, valid := t.PnL.Float()
		if !ok || !valid {
			l.excluded = append(l.excluded, Exclusion{Index: i, Reason: t.Problem()})
			continue
		}
		l.entries = append(l.entries, entry{index: i, trade: t, at: at, pnl: pnl})
	}

	sort.SliceStable(l.entries, func(a, b int) bool {
		return l.entries[a].at.Before(l.entries[b].at)
	})

	commission := decimal.NewFromFloat(p.Commission)
	balance := decimal.NewFromFloat(p.InitialBalance)
	for i := range l.entries {
		e := &l.entries[i]
		net := decimal.NewFromFloat(e.pnl).Sub(commission)
		e.net = net.InexactFloat64()
		e.before = balance.InexactFloat64()
		balance = balance.Add(net)
		e.balance = balance.InexactFloat64()
	}

	return l
}

func (l *ledger) outcomes() []model.Outcome {
	out := make([]model.Outcome, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.trade.Outcome
	}
	return out
}

func sumPnL(entries []entry) float64 {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(decimal.NewFromFloat(e.pnl))
	}
	return total.InexactFloat64()
}
