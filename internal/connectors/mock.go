package connectors

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/fraudwatch-console/internal/analytics"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
)

const (
	mockDefaultPageSize = 100
	mockMaxPageSize     = 1000
	mockMaxRows         = 100000
)

var mockRequiredColumns = []string{"step", "type", "amount", "oldbalanceOrg", "newbalanceOrig", "oldbalanceDest", "newbalanceDest"}

// MockBackend — имитация сервиса скоринга для локальной разработки и тестов.
// Принятый пакет становится виден не сразу, а после PublishAfter чтений,
// как у настоящего бэкенда, который обрабатывает файл в фоне.
type MockBackend struct {
	router chi.Router

	mu        sync.Mutex
	published []domain.Transaction
	pending   []domain.Transaction
	readsLeft int
	nextID    int64

	publishAfter int
	etags        bool
	buckets      analytics.BucketConfig
}

type MockOption func(*MockBackend)

// WithPublishAfter — сколько GET-запросов должно пройти до публикации пакета.
func WithPublishAfter(n int) MockOption {
	return func(m *MockBackend) { m.publishAfter = n }
}

// WithETags включает заголовок ETag в ответах чтения.
func WithETags() MockOption {
	return func(m *MockBackend) { m.etags = true }
}

func WithBuckets(cfg analytics.BucketConfig) MockOption {
	return func(m *MockBackend) { m.buckets = cfg }
}

func NewMockBackend(opts ...MockOption) *MockBackend {
	m := &MockBackend{
		nextID:  1,
		buckets: analytics.DefaultBucketConfig(),
	}
	for _, opt := range opts {
		opt(m)
	}

	r := chi.NewRouter()
	r.Post("/predict_batch", m.handlePredictBatch)
	r.Post("/predict", m.handlePredict)
	r.Get("/transactions", m.handleTransactions)
	r.Get("/transactions/analytics", m.handleAnalytics)
	r.Put("/review/{id}", m.handleReview)
	m.router = r
	return m
}

func (m *MockBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.router.ServeHTTP(w, r)
}

// Seed публикует транзакции сразу, минуя задержку. Для тестов.
func (m *MockBackend) Seed(txs ...domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range txs {
		if t.ID == 0 {
			t.ID = m.nextID
		}
		if t.ID >= m.nextID {
			m.nextID = t.ID + 1
		}
		m.published = append(m.published, t)
	}
}

// Transactions возвращает копию опубликованных данных.
func (m *MockBackend) Transactions() []domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Transaction, len(m.published))
	copy(out, m.published)
	return out
}

// read отсчитывает чтения и публикует отложенный пакет, когда счетчик дошел до нуля.
func (m *MockBackend) read() {
	if m.pending == nil {
		return
	}
	if m.readsLeft > 0 {
		m.readsLeft--
		return
	}
	m.published = append(m.published, m.pending...)
	m.pending = nil
}

func (m *MockBackend) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		mockError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); ct != "text/csv" {
		mockError(w, http.StatusBadRequest, "Only CSV files are supported")
		return
	}

	inputs, err := parseBatch(file)
	if err != nil {
		mockError(w, http.StatusBadRequest, err.Error())
		return
	}

	m.mu.Lock()
	batch := make([]domain.Transaction, 0, len(inputs))
	for _, in := range inputs {
		batch = append(batch, score(m.nextID, in))
		m.nextID++
	}
	m.pending = append(m.pending, batch...)
	m.readsLeft = m.publishAfter
	m.mu.Unlock()

	mockJSON(w, http.StatusOK, map[string]any{"message": "File accepted", "rows": len(batch)})
}

func (m *MockBackend) handlePredict(w http.ResponseWriter, r *http.Request) {
	var in domain.TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		mockError(w, http.StatusUnprocessableEntity, "invalid transaction")
		return
	}

	m.mu.Lock()
	t := score(m.nextID, in)
	m.nextID++
	m.published = append(m.published, t)
	m.mu.Unlock()

	mockJSON(w, http.StatusOK, t)
}

func (m *MockBackend) handleTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := queryInt(q.Get("page"), 1)
	if err != nil || page < 1 {
		mockError(w, http.StatusUnprocessableEntity, "page must be >= 1")
		return
	}
	size, err := queryInt(q.Get("page_size"), mockDefaultPageSize)
	if err != nil || size < 1 || size > mockMaxPageSize {
		mockError(w, http.StatusUnprocessableEntity, "page_size must be in [1, 1000]")
		return
	}
	manualOnly := q.Get("manual_review") == "true"
	pendingOnly := q.Get("pending") == "true"

	m.mu.Lock()
	m.read()
	filtered := make([]domain.Transaction, 0, len(m.published))
	for _, t := range m.published {
		if manualOnly && !t.ManualReview {
			continue
		}
		if pendingOnly && t.ReviewedPrediction != nil {
			continue
		}
		filtered = append(filtered, t)
	}
	m.mu.Unlock()

	total := len(filtered)
	pages := int(math.Ceil(float64(total) / float64(size)))
	from := min((page-1)*size, total)
	to := min(from+size, total)

	m.respond(w, domain.TransactionsPage{
		Data: filtered[from:to],
		Pagination: domain.PageMetadata{
			TotalItems:  total,
			TotalPages:  pages,
			CurrentPage: page,
			PageSize:    size,
			HasPrevious: page > 1,
			HasNext:     page < pages,
		},
	})
}

func (m *MockBackend) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.read()
	txs := make([]domain.Transaction, len(m.published))
	copy(txs, m.published)
	m.mu.Unlock()

	m.respond(w, analytics.Aggregate(txs, m.buckets))
}

func (m *MockBackend) handleReview(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		mockError(w, http.StatusUnprocessableEntity, "invalid id")
		return
	}
	raw, err := strconv.Atoi(r.URL.Query().Get("reviewed_prediction"))
	if err != nil {
		mockError(w, http.StatusUnprocessableEntity, "reviewed_prediction is required")
		return
	}
	verdict, err := domain.ParseVerdict(raw)
	if err != nil {
		mockError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.published {
		if m.published[i].ID == id {
			v := int(verdict)
			m.published[i].ReviewedPrediction = &v
			mockJSON(w, http.StatusOK, map[string]any{"message": "Review status updated", "prediction": m.published[i]})
			return
		}
	}
	mockError(w, http.StatusNotFound, "Prediction not found")
}

// parseBatch читает CSV в формате PaySim. Лишние колонки (nameOrig, isFraud ...) игнорируются.
func parseBatch(r io.Reader) ([]domain.TransactionInput, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range mockRequiredColumns {
		if _, ok := col[name]; !ok {
			return nil, errors.New("missing required columns in the uploaded file")
		}
	}

	var out []domain.TransactionInput
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(out) == mockMaxRows {
			return nil, fmt.Errorf("number of rows exceeds maximum limit of %d", mockMaxRows)
		}

		var in domain.TransactionInput
		var perr error
		num := func(name string) float64 {
			v, err := strconv.ParseFloat(rec[col[name]], 64)
			if err != nil && perr == nil {
				perr = fmt.Errorf("line %d, column %s: %w", line, name, err)
			}
			return v
		}
		in.Step = int(num("step"))
		in.Type = rec[col["type"]]
		in.Amount = num("amount")
		in.OldBalanceOrg = num("oldbalanceOrg")
		in.NewBalanceOrig = num("newbalanceOrig")
		in.OldBalanceDest = num("oldbalanceDest")
		in.NewBalanceDest = num("newbalanceDest")
		if perr != nil {
			return nil, perr
		}
		out = append(out, in)
	}
	return out, nil
}

// score — игрушечная модель: доля списанного с отправителя баланса, для переводов и обналичивания весомее.
func score(id int64, in domain.TransactionInput) domain.Transaction {
	ratio := in.Amount / (in.OldBalanceOrg + 1)
	p := ratio / 10
	if in.Type == "TRANSFER" || in.Type == "CASH_OUT" {
		p = ratio / 2
	}
	p = math.Round(math.Min(math.Max(p, 0), 0.99)*1000) / 1000

	prediction := domain.PredictionLegitimate
	if p >= 0.5 {
		prediction = domain.PredictionFraudulent
	}

	return domain.Transaction{
		ID:             id,
		Step:           in.Step,
		Amount:         in.Amount,
		Type:           in.Type,
		OldBalanceOrg:  in.OldBalanceOrg,
		NewBalanceOrig: in.NewBalanceOrig,
		OldBalanceDest: in.OldBalanceDest,
		NewBalanceDest: in.NewBalanceDest,
		Prediction:     prediction,
		Probability:    p,
		ManualReview:   prediction == domain.PredictionLegitimate && p >= 0.45 && p <= 0.55,
	}
}

// respond отдает ответ чтения. ETag — хэш тела: одинаковые данные дают одинаковый тег.
func (m *MockBackend) respond(w http.ResponseWriter, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		mockError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if m.etags {
		sum := sha256.Sum256(body)
		w.Header().Set("ETag", fmt.Sprintf(`"%x"`, sum[:8]))
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func mockJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func mockError(w http.ResponseWriter, status int, detail string) {
	mockJSON(w, status, map[string]string{"detail": detail})
}
