package audit

import "time"

// Действия оператора, попадающие в журнал
const (
	ActionUpload       = "UPLOAD"
	ActionReview       = "REVIEW"
	ActionPredict      = "PREDICT"
	ActionLogin        = "LOGIN"
	ActionPageNavigate = "PAGE_NAVIGATE"
)

// Результат действия
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

type JournalEvent struct {
	ID            string         `json:"id"`          // UUID события
	TraceID       string         `json:"trace_id"`    // Сквозной ID запроса
	OperatorID    string         `json:"operator_id"` // Кто делал
	Action        string         `json:"action"`      // Что делал
	TransactionID *int64         `json:"transaction_id,omitempty"`
	Details       map[string]any `json:"details"` // Файл, вердикт, страница ...

	// Результат
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}
