package stats

import (
	"math"

	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/model"

	"github.com/shopspring/decimal"
)

// GlobalStats computes the run-wide metrics of a trade list.
// Trades is the number of supplied trades; every other figure is computed
// over the trades with a parseable timestamp and a numeric P&L.
func GlobalStats(trades []model.Trade, p Params) model.GlobalStats {
	return globalStats(newLedger(trades, p), p)
}

func globalStats(l *ledger, p Params) model.GlobalStats {
	s := model.GlobalStats{
		InitialBalance: p.InitialBalance,
		FinalBalance:   p.InitialBalance,
		PeakBalance:    p.InitialBalance,
		Trades:         l.reported,
	}

	valid := len(l.entries)
	if valid == 0 {
		return s
	}

	var winPnL, lossPnL []entry
	peak := p.InitialBalance
	for _, e := range l.entries {
		switch {
		case e.trade.Outcome.IsWin():
			winPnL = append(winPnL, e)
		case e.trade.Outcome.IsLoss():
			lossPnL = append(lossPnL, e)
		}

		if e.balance > peak {
			peak = e.balance
		}
		if peak > 0 {
			if dd := (peak - e.balance) / peak * 100; dd > s.MaxDrawdown {
				s.MaxDrawdown = dd
			}
		}
	}

	last := l.entries[valid-1]
	s.FinalBalance = last.balance
	s.PeakBalance = peak
	s.TotalPnL = sumPnL(l.entries)
	s.TotalCommission = decimal.NewFromFloat(p.Commission).Mul(decimal.NewFromInt(int64(valid))).InexactFloat64()
	s.Wins = len(winPnL)
	s.Losses = len(lossPnL)
	s.Winrate = percent(s.Wins, valid)
	s.WinStreak, s.LossStreak = Streaks(l.outcomes())

	if s.Wins > 0 {
		s.AvgWin = sumPnL(winPnL) / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLoss = sumPnL(lossPnL) / float64(s.Losses)
	}
	if s.Losses > 0 && s.AvgLoss != 0 {
		s.ProfitFactor = (s.AvgWin * float64(s.Wins)) / (math.Abs(s.AvgLoss) * float64(s.Losses))
	}

	s.Expectancy = (s.FinalBalance - p.InitialBalance) / float64(valid)
	s.SharpeRatio = sharpe(l.entries)

	return s
}

// Streaks returns the longest run of consecutive wins and of consecutive
// losses. Any outcome other than TP or SL ends both runs.
func Streaks(outcomes []model.Outcome) (win, loss int) {
	var curWin, curLoss int
	for _, o := range outcomes {
		switch {
		case o.IsWin():
			curWin++
			curLoss = 0
		case o.IsLoss():
			curLoss++
			curWin = 0
		default:
			curWin, curLoss = 0, 0
		}
		if curWin > win {
			win = curWin
		}
		if curLoss > loss {
			loss = curLoss
		}
	}
	return win, loss
}

// sharpe is the mean over the standard deviation of per-trade returns, where a
// return is the net P&L relative to the balance before the trade. Not annualised.
func sharpe(entries []entry) float64 {
	returns := make([]float64, 0, len(entries))
	for _, e := range entries {
		if e.before <= 0 {
			continue
		}
		returns = append(returns, e.net/e.before)
	}
	if len(returns) < 2 {
		return 0
	}

	mean, std := meanStd(returns)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return finite(mean / std)
}

func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
