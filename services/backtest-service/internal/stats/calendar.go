package stats

import (
	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/model"
)

// DaySummary aggregates the trades closed on one calendar date (UTC)
type DaySummary struct {
	Date   string  `json:"date"`
	Trades int     `json:"trades"`
	Wins   int     `json:"wins"`
	Losses int     `json:"losses"`
	PnL    float64 `json:"pnl"`
}

// HeatmapCell is the winrate of trades on one weekday at one hour
type HeatmapCell struct {
	Weekday string  `json:"weekday"`
	Hour    int     `json:"hour"`
	Trades  int     `json:"trades"`
	Wins    int     `json:"wins"`
	Winrate float64 `json:"winrate"`
}

// Calendar groups valid trades by calendar date, in date order
func Calendar(trades []model.Trade) []DaySummary {
	return calendar(newLedger(trades, Params{}))
}

func calendar(l *ledger) []DaySummary {
	days := []DaySummary{}
	groups := make(map[string][]entry)
	for _, e := range l.entries {
		date := e.at.Format("2006-01-02")
		if _, ok := groups[date]; !ok {
			days = append(days, DaySummary{Date: date})
		}
		groups[date] = append(groups[date], e)
	}

	// entries are time ordered so days already are
	for i := range days {
		b := bucket(groups[days[i].Date])
		days[i].Trades = b.Trades
		days[i].Wins = b.Wins
		days[i].Losses = b.Losses
		days[i].PnL = b.PnL
	}
	return days
}

// Heatmap returns the weekday x hour cells that hold at least one trade,
// ordered Monday first and by hour.
func Heatmap(trades []model.Trade) []HeatmapCell {
	return heatmap(newLedger(trades, Params{}))
}

func heatmap(l *ledger) []HeatmapCell {
	type cellKey struct {
		day  string
		hour int
	}
	groups := make(map[cellKey][]entry)
	for _, e := range l.entries {
		k := cellKey{day: model.WeekdayKey(e.at), hour: e.at.Hour()}
		groups[k] = append(groups[k], e)
	}

	cells := []HeatmapCell{}
	for _, day := range model.Weekdays {
		for h := 0; h < 24; h++ {
			group, ok := groups[cellKey{day: day, hour: h}]
			if !ok {
				continue
			}
			b := bucket(group)
			cells = append(cells, HeatmapCell{
				Weekday: day,
				Hour:    h,
				Trades:  b.Trades,
				Wins:    b.Wins,
				Winrate: b.Winrate,
			})
		}
	}
	return cells
}
