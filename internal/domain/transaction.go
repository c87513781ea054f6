package domain

// Классы предсказания скорингового бэкенда
const (
	PredictionLegitimate = 0
	PredictionFraudulent = 1
)

// Transaction — строка результата пакетного скоринга, как её отдаёт бэкенд.
type Transaction struct {
	ID             int64   `json:"id"`
	Step           int     `json:"step"` // Порядковая единица времени (час симуляции PaySim)
	Amount         float64 `json:"amount"`
	Type           string  `json:"type"` // PAYMENT, TRANSFER, CASH_OUT ...
	OldBalanceOrg  float64 `json:"oldbalanceOrg"`
	NewBalanceOrig float64 `json:"newbalanceOrig"`
	OldBalanceDest float64 `json:"oldbalanceDest"`
	NewBalanceDest float64 `json:"newbalanceDest"`

	// Результат модели
	Prediction  int     `json:"prediction"`
	Probability float64 `json:"probability"`

	// Human-in-the-loop
	ManualReview       bool `json:"manual_review"`
	ReviewedPrediction *int `json:"reviewed_prediction"` // nil, пока оператор не вынес вердикт
}

// IsFraudulent — единое правило классификации для всех проекций.
// Всё, что не равно 1, считается легитимным, чтобы суммы по проекциям всегда сходились к len(T).
func (t Transaction) IsFraudulent() bool {
	return t.Prediction == PredictionFraudulent
}

// NeedsReview — транзакция ждёт ручной проверки.
func (t Transaction) NeedsReview() bool {
	return t.ManualReview && t.ReviewedPrediction == nil
}

// TransactionInput — тело запроса на скоринг одной транзакции (POST /predict).
type TransactionInput struct {
	Step           int     `json:"step"`
	Amount         float64 `json:"amount"`
	Type           string  `json:"type"`
	OldBalanceOrg  float64 `json:"oldbalanceOrg"`
	NewBalanceOrig float64 `json:"newbalanceOrig"`
	OldBalanceDest float64 `json:"oldbalanceDest"`
	NewBalanceDest float64 `json:"newbalanceDest"`
}
