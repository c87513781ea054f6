// Package review — очередь ручной проверки: выбор транзакции и вердикт оператора.
package review

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/xela07ax/fraudwatch-console/internal/domain"
	"github.com/xela07ax/fraudwatch-console/internal/engine"
	"github.com/xela07ax/fraudwatch-console/internal/pagination"
	"go.uber.org/zap"
)

// Backend — то, что очереди нужно от бэкенда. Реализуется engine.Gateway.
type Backend interface {
	pagination.PageFetcher
	SubmitReview(ctx context.Context, id int64, verdict domain.Verdict) error
}

// Queue — снимок очереди для отображения.
type Queue struct {
	Pending    []domain.Transaction `json:"pending"`
	Pagination domain.PageMetadata  `json:"pagination"`
	Selected   *int64               `json:"selected"`
}

// Workflow хранит pending-список текущей страницы и выбранную транзакцию.
// Вердикт по одной транзакции за раз; конкурентное редактирование одной транзакции не поддерживается.
type Workflow struct {
	backend Backend
	pages   *pagination.Controller
	signals *engine.Signals
	metrics *engine.Metrics
	logger  *zap.Logger

	mu       sync.Mutex
	pending  []domain.Transaction
	selected *int64
}

func NewWorkflow(backend Backend, signals *engine.Signals, metrics *engine.Metrics, logger *zap.Logger) *Workflow {
	if metrics == nil {
		metrics = engine.NewMetrics(nil)
	}
	return &Workflow{
		backend: backend,
		// Фильтр на стороне бэкенда: пагинация считается по очереди, а не по всем транзакциям
		pages:   pagination.New(backend, engine.TransactionQuery{ManualReview: true, PendingOnly: true}),
		signals: signals,
		metrics: metrics,
		logger:  logger.Named("review"),
	}
}

// Load загружает страницу очереди. Pending выводится заново только из этого ответа.
// Выбор сбрасывается, если выбранной транзакции больше нет в очереди.
func (w *Workflow) Load(ctx context.Context, page int) (Queue, error) {
	p, err := w.pages.Load(ctx, page)
	if err != nil {
		return Queue{}, err
	}

	pending := make([]domain.Transaction, 0, len(p.Data))
	for _, t := range p.Data {
		if t.NeedsReview() {
			pending = append(pending, t)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = pending
	if w.selected != nil && w.indexOf(*w.selected) < 0 {
		w.selected = nil
	}
	return w.queue(), nil
}

// Queue возвращает текущее состояние без обращения к бэкенду.
func (w *Workflow) Queue() Queue {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.queue()
}

// Select делает транзакцию текущей. Выбрать можно только то, что сейчас в очереди.
func (w *Workflow) Select(id int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.indexOf(id) < 0 {
		return fmt.Errorf("%w: transaction %d", domain.ErrNotPending, id)
	}
	w.selected = &id
	return nil
}

// Selected возвращает выбранную транзакцию.
func (w *Workflow) Selected() (domain.Transaction, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selected == nil {
		return domain.Transaction{}, false
	}
	i := w.indexOf(*w.selected)
	if i < 0 {
		return domain.Transaction{}, false
	}
	return w.pending[i], true
}

// Submit отправляет вердикт по выбранной транзакции.
// Успех: транзакция уходит из очереди, выбор сбрасывается. Отказ: ничего не меняется,
// оператор может повторить. Возвращает ID, по которому вынесен вердикт.
func (w *Workflow) Submit(ctx context.Context, raw int) (int64, error) {
	verdict, err := domain.ParseVerdict(raw)
	if err != nil {
		return 0, err
	}

	w.mu.Lock()
	if w.selected == nil {
		w.mu.Unlock()
		return 0, domain.ErrNotSelected
	}
	id := *w.selected
	w.mu.Unlock()

	logger := w.logger.With(zap.Int64("tx_id", id), zap.Stringer("verdict", verdict))

	if err := w.backend.SubmitReview(ctx, id, verdict); err != nil {
		w.metrics.ReviewSubmissions.WithLabelValues(verdict.String(), "failed").Inc()
		w.metrics.ErrorTotal.WithLabelValues("review").Inc()
		logger.Error("review submission failed", zap.Error(err))
		if !errors.Is(err, domain.ErrReviewSubmitFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrReviewSubmitFailed, err)
		}
		return 0, err
	}

	w.metrics.ReviewSubmissions.WithLabelValues(verdict.String(), "ok").Inc()
	logger.Info("review submitted")

	w.drop(id)
	w.signals.PublishReviewSubmitted(ctx, id, verdict)
	return id, nil
}

// Drop убирает транзакцию, проверенную в другой консоли.
func (w *Workflow) Drop(id int64) bool {
	return w.drop(id)
}

func (w *Workflow) drop(id int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.indexOf(id)
	if i < 0 {
		return false
	}
	w.pending = slices.Delete(w.pending, i, i+1)
	if w.selected != nil && *w.selected == id {
		w.selected = nil
	}
	return true
}

func (w *Workflow) indexOf(id int64) int {
	return slices.IndexFunc(w.pending, func(t domain.Transaction) bool { return t.ID == id })
}

func (w *Workflow) queue() Queue {
	meta, _ := w.pages.Metadata()
	q := Queue{
		Pending:    slices.Clone(w.pending),
		Pagination: meta,
	}
	if q.Pending == nil {
		q.Pending = []domain.Transaction{}
	}
	if w.selected != nil {
		id := *w.selected
		q.Selected = &id
	}
	return q
}
