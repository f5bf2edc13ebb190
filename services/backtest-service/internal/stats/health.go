package stats

import (
	"math"

	"github.com/yourorg/backtest-dashboard/services/backtest-service/internal/model"
)

// Health status labels
const (
	HealthExcellent        = "excellent"
	HealthGood             = "good"
	HealthFair             = "fair"
	HealthNeedsImprovement = "needs_improvement"
)

// Recommendation codes
const (
	RecommendEntryAccuracy = "improve_entry_accuracy"
	RecommendRiskReward    = "optimize_risk_reward"
	RecommendPositionSize  = "reduce_position_size"
	RecommendLossPause     = "pause_after_losing_streak"
	RecommendKeep          = "keep_current_strategy"
)

// Health is a coarse 0-100 rating of a strategy's global stats
type Health struct {
	Score           int      `json:"score"`
	Status          string   `json:"status"`
	Recommendations []string `json:"recommendations"`
}

// Rate scores global stats: winrate weighs 40, profit factor 30, Sharpe 20,
// and drawdown subtracts up to 10.
func Rate(s model.GlobalStats) Health {
	score := math.Min(s.Winrate/100*40, 40) +
		math.Min(s.ProfitFactor/2*30, 30) +
		math.Min(s.SharpeRatio/2*20, 20) -
		math.Min(s.MaxDrawdown/30*10, 10)

	h := Health{Score: int(math.Round(finite(score)))}
	switch {
	case h.Score >= 80:
		h.Status = HealthExcellent
	case h.Score >= 60:
		h.Status = HealthGood
	case h.Score >= 40:
		h.Status = HealthFair
	default:
		h.Status = HealthNeedsImprovement
	}

	if s.Winrate < 50 {
		h.Recommendations = append(h.Recommendations, RecommendEntryAccuracy)
	}
	if s.ProfitFactor < 1.5 {
		h.Recommendations = append(h.Recommendations, RecommendRiskReward)
	}
	if s.MaxDrawdown > 15 {
		h.Recommendations = append(h.Recommendations, RecommendPositionSize)
	}
	if s.LossStreak > 5 {
		h.Recommendations = append(h.Recommendations, RecommendLossPause)
	}
	if len(h.Recommendations) == 0 {
		h.Recommendations = []string{RecommendKeep}
	}
	return h
}

// Highlights are headline return figures
type Highlights struct {
	NetProfit        float64 `json:"net_profit"`
	TotalReturnPct   float64 `json:"total_return_pct"`
	AvgMonthlyReturn float64 `json:"avg_monthly_return_pct"`
	AnnualizedReturn float64 `json:"annualized_return_pct"`
	PeriodDays       int     `json:"period_days"`
}

// Highlight derives headline returns from global stats and monthly returns.
// The average monthly return spreads the total return over every month key
// present. The annualised return spreads it over the configured period, or
// equals the total return when the period is unknown.
func Highlight(s model.GlobalStats, monthly model.MonthlyStats, p Params) Highlights {
	h := Highlights{NetProfit: s.FinalBalance - s.InitialBalance}
	if s.InitialBalance != 0 {
		h.TotalReturnPct = finite(h.NetProfit / s.InitialBalance * 100)
	}

	if months := monthCount(monthly); months > 0 {
		h.AvgMonthlyReturn = h.TotalReturnPct / float64(months)
	}

	if p.Start.IsZero() || p.End.IsZero() {
		h.AnnualizedReturn = h.TotalReturnPct
		return h
	}
	days := math.Ceil(p.End.Sub(p.Start).Hours() / 24)
	if days > 0 {
		h.PeriodDays = int(days)
		h.AnnualizedReturn = h.TotalReturnPct / (days / 365)
	}
	return h
}
