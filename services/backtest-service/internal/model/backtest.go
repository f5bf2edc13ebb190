package model

// BacktestConfig holds the run parameters of a backtest
type BacktestConfig struct {
	Strategy   string  `json:"STRATEGY"`
	Start      string  `json:"INICIO"`
	End        string  `json:"FIN"`
	Balance    float64 `json:"BALANCE" validate:"gte=0"`
	Candles    int     `json:"VELAS" validate:"gte=0"`
	Spread     float64 `json:"SPREAD" validate:"gte=0"`
	Commission float64 `json:"COMISSION" validate:"gte=0"`
	Symbol     string  `json:"SYMBOL"`
}

// StrategyConfig holds the strategy parameters a backtest was run with
type StrategyConfig struct {
	TradingHours  [][]string `json:"TRADING HOURS"`
	Description   string     `json:"DESCRIPTION,omitempty"`
	Topic         string     `json:"TOPIC,omitempty"`
	ExcludedDays  []string   `json:"EXCLUDED DAYS"`
	LastTradeHour int        `json:"LAST TRADE"`
	Timeframes    []string   `json:"TFs"`
	Risk          float64    `json:"RIESGO"`
	RiskReward    float64    `json:"RR"`
}

// GlobalStats holds the run-wide performance metrics
type GlobalStats struct {
	InitialBalance  float64 `json:"BALANCE INICIAL"`
	FinalBalance    float64 `json:"BALANCE"`
	PeakBalance     float64 `json:"PEAK BALANCE"`
	TotalPnL        float64 `json:"P&L"`
	TotalCommission float64 `json:"COMISSION"`
	Trades          int     `json:"OPERACIONES"`
	Wins            int     `json:"GANADAS"`
	Losses          int     `json:"PERDIDAS"`
	Winrate         float64 `json:"WINRATE"`
	WinStreak       int     `json:"WIN STREAK"`
	LossStreak      int     `json:"LOSE STREAK"`
	MaxDrawdown     float64 `json:"MDD"`
	SharpeRatio     float64 `json:"SHARPE RATIO"`
	ProfitFactor    float64 `json:"PROFIT FACTOR"`
	AvgWin          float64 `json:"AVG WIN"`
	AvgLoss         float64 `json:"AVG LOSS"`
	Expectancy      float64 `json:"EXPECTANCY"`
}

// BucketStats holds the metrics of trades grouped by weekday or hour
type BucketStats struct {
	Trades  int     `json:"TRADES"`
	Wins    int     `json:"WINS"`
	Losses  int     `json:"LOSSES"`
	Winrate float64 `json:"WINRATE"`
	PnL     float64 `json:"P&L"`
	AvgPnL  float64 `json:"AVG_P&L"`
}

// MonthlyStats maps year -> month abbreviation -> net return percentage
type MonthlyStats map[string]map[string]float64

// Backtest is the canonical in-memory representation of a stored backtest,
// independent of the document schema it was read from.
type Backtest struct {
	Config         BacktestConfig         `json:"config"`
	StrategyConfig StrategyConfig         `json:"strategy_config"`
	Stats          GlobalStats            `json:"stats"`
	DayStats       map[string]BucketStats `json:"day_stats"`
	HourStats      map[string]BucketStats `json:"hour_stats"`
	MonthlyStats   MonthlyStats           `json:"monthly_stats"`
	Trades         []Trade                `json:"trades"`
}
