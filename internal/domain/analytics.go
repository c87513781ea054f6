package domain

// Цвета классов на круговой диаграмме
const (
	ColorLegitimate = "#82ca9d"
	ColorFraudulent = "#ff8042"

	LabelLegitimate = "Legitimate"
	LabelFraudulent = "Fraudulent"
)

// StepPoint — столбец графика "транзакции по шагам".
type StepPoint struct {
	Step       int `json:"step"`
	Legitimate int `json:"legitimate"`
	Fraudulent int `json:"fraudulent"`
}

// ClassSlice — сектор круговой диаграммы.
type ClassSlice struct {
	Label string `json:"label"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

// BucketPoint — столбец гистограммы по числовому полю.
type BucketPoint struct {
	RangeLabel string `json:"range_label"`
	Legitimate int    `json:"legitimate"`
	Fraudulent int    `json:"fraudulent"`
	Count      int    `json:"count"`
}

type SummaryStats struct {
	TotalTransactions int     `json:"totalTransactions"`
	AvgAmount         float64 `json:"avgAmount"`
	MinAmount         float64 `json:"minAmount"`
	MaxAmount         float64 `json:"maxAmount"`
	TotalAmount       float64 `json:"totalAmount"`
	FraudAmount       float64 `json:"fraudAmount"` // "Suspected Fraud Amount" в подвале дашборда
}

// AnalyticsSnapshot — производный агрегат. Каждое обновление порождает новый снимок,
// существующий никогда не мутируется.
type AnalyticsSnapshot struct {
	SummaryStats         SummaryStats  `json:"summaryStats"`
	LegitimateCount      int           `json:"legitimateCount"`
	FraudulentCount      int           `json:"fraudulentCount"`
	FraudulentPercentage float64       `json:"fraudulentPercentage"`
	StepDistribution     []StepPoint   `json:"stepDistribution"`
	ClassDistribution    []ClassSlice  `json:"classDistribution"`
	BalanceDistribution  []BucketPoint `json:"balanceDistribution"`
	AmountDistribution   []BucketPoint `json:"amountDistribution"`
}
