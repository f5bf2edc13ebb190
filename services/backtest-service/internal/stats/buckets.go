package stats

import (
	"sort"
	"strconv"

	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/model"

	"github.com/shopspring/decimal"
)

// DailyStats groups trades by the weekday of their timestamp.
// All seven weekday keys are always present.
func DailyStats(trades []model.Trade, p Params) map[string]model.BucketStats {
	return dailyStats(newLedger(trades, p))
}

// HourlyStats groups trades by the hour of their timestamp.
// Keys "0" to "23" are always present.
func HourlyStats(trades []model.Trade, p Params) map[string]model.BucketStats {
	return hourlyStats(newLedger(trades, p))
}

func dailyStats(l *ledger) map[string]model.BucketStats {
	groups := make(map[string][]entry, len(model.Weekdays))
	for _, e := range l.entries {
		key := model.WeekdayKey(e.at)
		groups[key] = append(groups[key], e)
	}

	out := make(map[string]model.BucketStats, len(model.Weekdays))
	for _, day := range model.Weekdays {
		out[day] = bucket(groups[day])
	}
	return out
}

func hourlyStats(l *ledger) map[string]model.BucketStats {
	var groups [24][]entry
	for _, e := range l.entries {
		h := e.at.Hour()
		groups[h] = append(groups[h], e)
	}

	out := make(map[string]model.BucketStats, 24)
	for h := 0; h < 24; h++ {
		out[strconv.Itoa(h)] = bucket(groups[h])
	}
	return out
}

func bucket(entries []entry) model.BucketStats {
	b := model.BucketStats{Trades: len(entries)}
	if b.Trades == 0 {
		return b
	}
	for _, e := range entries {
		switch {
		case e.trade.Outcome.IsWin():
			b.Wins++
		case e.trade.Outcome.IsLoss():
			b.Losses++
		}
	}
	b.Winrate = percent(b.Wins, b.Trades)
	b.PnL = sumPnL(entries)
	b.AvgPnL = b.PnL / float64(b.Trades)
	return b
}

// MonthlyReturns returns, for every year with trades, the net return of each
// month as a percentage of the initial balance. Months are not compounded:
// each one is measured against the same fixed initial balance. Every year
// present carries all twelve month keys.
func MonthlyReturns(trades []model.Trade, p Params) model.MonthlyStats {
	return monthlyReturns(newLedger(trades, p), p)
}

func monthlyReturns(l *ledger, p Params) model.MonthlyStats {
	sums := make(map[string]map[string]decimal.Decimal)
	for _, e := range l.entries {
		year := strconv.Itoa(e.at.Year())
		if sums[year] == nil {
			sums[year] = make(map[string]decimal.Decimal, len(model.MonthKeys))
		}
		month := model.MonthKey(e.at)
		sums[year][month] = sums[year][month].Add(decimal.NewFromFloat(e.pnl))
	}

	out := make(model.MonthlyStats, len(sums))
	for year, months := range sums {
		row := make(map[string]float64, len(model.MonthKeys))
		for _, month := range model.MonthKeys {
			row[month] = 0
			if p.InitialBalance != 0 {
				row[month] = finite(months[month].InexactFloat64() / p.InitialBalance * 100)
			}
		}
		out[year] = row
	}
	return out
}

// MonthlySummary totals monthly returns by year and by month of year
type MonthlySummary struct {
	Years       []string           `json:"years"`
	YearTotals  map[string]float64 `json:"year_totals"`
	MonthTotals map[string]float64 `json:"month_totals"`
	GrandTotal  float64            `json:"grand_total"`
}

// SummarizeMonthly totals a monthly return table. Years are listed newest first.
func SummarizeMonthly(m model.MonthlyStats) MonthlySummary {
	s := MonthlySummary{
		Years:       make([]string, 0, len(m)),
		YearTotals:  make(map[string]float64, len(m)),
		MonthTotals: make(map[string]float64, len(model.MonthKeys)),
	}
	for _, month := range model.MonthKeys {
		s.MonthTotals[month] = 0
	}

	for year, months := range m {
		s.Years = append(s.Years, year)
		var total float64
		for month, v := range months {
			total += v
			s.MonthTotals[month] += v
		}
		s.YearTotals[year] = total
	}

	sort.Slice(s.Years, func(i, j int) bool {
		a, errA := strconv.Atoi(s.Years[i])
		b, errB := strconv.Atoi(s.Years[j])
		if errA != nil || errB != nil {
			return s.Years[i] > s.Years[j]
		}
		return a > b
	})
	for _, year := range s.Years {
		s.GrandTotal += s.YearTotals[year]
	}
	return s
}

func monthCount(m model.MonthlyStats) int {
	n := 0
	for _, months := range m {
		n += len(months)
	}
	return n
}
