package stats

import (
	"math"
	"sort"

	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/model"
)

const maxHistogramBins = 15

// Bin is one histogram bucket covering [Lower, Upper)
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Distribution summarises the spread of per-trade P&L
type Distribution struct {
	Count        int     `json:"count"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	Percentile25 float64 `json:"p25"`
	Median       float64 `json:"p50"`
	Percentile75 float64 `json:"p75"`
	Histogram    []Bin   `json:"histogram"`
}

// PnLDistribution computes the P&L distribution of the valid trades
func PnLDistribution(trades []model.Trade) Distribution {
	return distribution(newLedger(trades, Params{}))
}

func distribution(l *ledger) Distribution {
	values := make([]float64, len(l.entries))
	for i, e := range l.entries {
		values[i] = e.pnl
	}

	d := Distribution{Count: len(values), Histogram: []Bin{}}
	if len(values) == 0 {
		return d
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	d.Min = sorted[0]
	d.Max = sorted[len(sorted)-1]
	d.Mean, d.StdDev = meanStd(values)
	d.Percentile25 = percentile(sorted, 25)
	d.Median = percentile(sorted, 50)
	d.Percentile75 = percentile(sorted, 75)
	d.Histogram = histogram(values, d.Min, d.Max)
	return d
}

// percentile picks the element at floor(p/100*n) of an ascending slice
func percentile(sorted []float64, p float64) float64 {
	idx := int(math.Floor(p / 100 * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

func histogram(values []float64, min, max float64) []Bin {
	count := len(values) / 2
	if count > maxHistogramBins {
		count = maxHistogramBins
	}
	if count < 1 {
		count = 1
	}

	width := (max - min) / float64(count)
	bins := make([]Bin, count)
	for i := range bins {
		bins[i].Lower = min + float64(i)*width
		bins[i].Upper = min + float64(i+1)*width
	}

	for _, v := range values {
		idx := 0
		if width > 0 {
			idx = int(math.Floor((v - min) / width))
		}
		if idx >= count {
			idx = count - 1
		}
		bins[idx].Count++
	}
	return bins
}
