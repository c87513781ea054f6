package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/fraudwatch-console/internal/analytics"
	"github.com/xela07ax/fraudwatch-console/internal/audit"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
	"github.com/xela07ax/fraudwatch-console/internal/engine"
	"github.com/xela07ax/fraudwatch-console/internal/infra/auth"
	"github.com/xela07ax/fraudwatch-console/internal/pagination"
	"github.com/xela07ax/fraudwatch-console/internal/review"
	"go.uber.org/zap"
)

// DashboardView — всё, что нужно UI для отрисовки главной страницы.
type DashboardView struct {
	Transactions []domain.Transaction      `json:"transactions"`
	Pagination   domain.PageMetadata       `json:"pagination"`
	Charts       domain.AnalyticsSnapshot  `json:"charts"`    // по транзакциям текущей страницы
	Analytics    *domain.AnalyticsSnapshot `json:"analytics"` // по всему набору, считает бэкенд
	Uploading    bool                      `json:"uploading"`
	LastError    string                    `json:"last_error,omitempty"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

// Session — состояние консоли. Ядро возвращает результаты, сессия применяет их целиком:
// при любой ошибке показанные данные не меняются, меняется только LastError.
type Session struct {
	gateway  *engine.Gateway
	uploader *engine.Uploader
	pages    *pagination.Controller
	review   *review.Workflow
	signals  *engine.Signals
	journal  audit.Recorder
	buckets  analytics.BucketConfig
	logger   *zap.Logger

	mu            sync.Mutex
	page          *domain.TransactionsPage
	analytics     *domain.AnalyticsSnapshot
	analyticsSnap *engine.Snapshot
	baseline      *engine.Snapshot // ответ /transactions без параметров: с ним сравнивается результат загрузки
	uploading     bool
	lastErr       string
	updatedAt     time.Time
	gen           uint64 // поколение аналитики: Refresh и Upload
}

type SessionDeps struct {
	Gateway  *engine.Gateway
	Uploader *engine.Uploader
	Review   *review.Workflow
	Signals  *engine.Signals
	Journal  audit.Recorder
	Buckets  analytics.BucketConfig
}

func NewSession(deps SessionDeps, logger *zap.Logger) *Session {
	return &Session{
		gateway:  deps.Gateway,
		uploader: deps.Uploader,
		pages:    pagination.New(deps.Gateway, engine.TransactionQuery{}),
		review:   deps.Review,
		signals:  deps.Signals,
		journal:  deps.Journal,
		buckets:  deps.Buckets,
		logger:   logger.Named("session"),
	}
}

// Run слушает сигналы других консолей до отмены ctx.
func (s *Session) Run(ctx context.Context) {
	s.signals.Listen(ctx,
		func(filename string) {
			s.logger.Info("batch completed elsewhere, refreshing", zap.String("file", filename))
			if err := s.Refresh(ctx); err != nil {
				s.logger.Warn("refresh after remote batch failed", zap.Error(err))
			}
		},
		func(id int64, verdict domain.Verdict) {
			s.review.Drop(id)
			s.markReviewed(id, verdict)
		},
	)
}

// View возвращает копию текущего состояния.
func (s *Session) View() DashboardView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := DashboardView{
		Transactions: []domain.Transaction{},
		Uploading:    s.uploading,
		LastError:    s.lastErr,
		UpdatedAt:    s.updatedAt,
	}
	if s.page != nil {
		v.Transactions = append(v.Transactions, s.page.Data...)
		v.Pagination = s.page.Pagination
	}
	if s.analytics != nil {
		a := *s.analytics
		v.Analytics = &a
	}
	v.Charts = analytics.Aggregate(v.Transactions, s.buckets)
	return v
}

// Refresh перечитывает аналитику и текущую страницу. Курсор контроллера двигается последним,
// поэтому сбой аналитики не оставляет в контроллере метаданных, которых не видно на экране.
func (s *Session) Refresh(ctx context.Context) error {
	gen := s.nextGen()

	a, snap, err := s.gateway.FetchAnalytics(ctx)
	if err != nil {
		return s.fail(err)
	}
	page, err := s.pages.Refresh(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrStaleResponse) {
			return err
		}
		return s.fail(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Страница и аналитика устаревают независимо: страницу обгоняет навигация, аналитику — загрузка или другой Refresh
	pageFresh := s.pages.Current() == page
	analyticsFresh := gen == s.gen
	if pageFresh {
		s.applyPage(page)
	}
	if analyticsFresh {
		s.analytics, s.analyticsSnap = a, snap
	}
	if !pageFresh || !analyticsFresh {
		return domain.ErrStaleResponse
	}
	s.lastErr = ""
	return nil
}

// Goto, Next, Previous двигают курсор страниц. No-op навигация не меняет состояние.
func (s *Session) Goto(ctx context.Context, n int) error {
	if _, ok := s.pages.Metadata(); !ok {
		return s.navigate(ctx, "goto", func(ctx context.Context) (*domain.TransactionsPage, error) { return s.pages.Load(ctx, n) })
	}
	return s.navigate(ctx, "goto", func(ctx context.Context) (*domain.TransactionsPage, error) { return s.pages.Goto(ctx, n) })
}

func (s *Session) Next(ctx context.Context) error {
	return s.navigate(ctx, "next", s.pages.Next)
}

func (s *Session) Previous(ctx context.Context) error {
	return s.navigate(ctx, "previous", s.pages.Previous)
}

func (s *Session) navigate(ctx context.Context, dir string, move func(context.Context) (*domain.TransactionsPage, error)) error {
	page, err := move(ctx)
	if err != nil {
		// Обогнанный ответ — не ошибка для оператора: на экране уже более свежая страница
		if errors.Is(err, domain.ErrStaleResponse) {
			return nil
		}
		return s.fail(err)
	}
	if page == nil {
		return nil
	}

	s.mu.Lock()
	// Между ответом и блокировкой контроллер мог принять более поздний запрос
	if s.pages.Current() != page {
		s.mu.Unlock()
		return nil
	}
	s.applyPage(page)
	s.lastErr = ""
	s.mu.Unlock()

	s.record(ctx, audit.ActionPageNavigate, nil, map[string]any{"direction": dir, "page": page.Pagination.CurrentPage}, time.Now(), nil)
	return nil
}

// Upload отправляет пакет и применяет результат целиком. Одновременно идет одна загрузка.
func (s *Session) Upload(ctx context.Context, filename string, file io.Reader) error {
	s.mu.Lock()
	if s.uploading {
		s.mu.Unlock()
		return domain.ErrUploadInProgress
	}
	s.uploading = true
	s.lastErr = ""
	prevTx, prevAnalytics := s.baseline, s.analyticsSnap
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.uploading = false
		s.mu.Unlock()
	}()

	start := time.Now()

	// Без базовых снимков первый же непустой ответ был бы принят за результат
	if prevTx == nil {
		if _, snap, err := s.gateway.FetchTransactions(ctx, engine.TransactionQuery{}); err != nil {
			s.logger.Warn("baseline prefetch failed, first non-empty response will be accepted",
				zap.String("resource", "transactions"), zap.Error(err))
		} else {
			prevTx = snap
		}
	}
	if prevAnalytics == nil {
		if _, snap, err := s.gateway.FetchAnalytics(ctx); err != nil {
			s.logger.Warn("baseline prefetch failed, first non-empty response will be accepted",
				zap.String("resource", "analytics"), zap.Error(err))
		} else {
			prevAnalytics = snap
		}
	}

	res, err := s.uploader.Upload(ctx, filename, file, prevTx, prevAnalytics)
	details := map[string]any{"file": filename}
	if err != nil {
		s.record(ctx, audit.ActionUpload, nil, details, start, err)
		return s.fail(err)
	}

	s.mu.Lock()
	s.gen++ // обновления, начатые до загрузки, устарели
	s.pages.Apply(res.Transactions, res.TransactionsSnapshot)
	s.applyPage(res.Transactions)
	s.baseline = res.TransactionsSnapshot
	s.analytics, s.analyticsSnap = res.Analytics, res.AnalyticsSnapshot
	s.lastErr = ""
	s.mu.Unlock()

	details["total_items"] = res.Transactions.Pagination.TotalItems
	s.record(ctx, audit.ActionUpload, nil, details, start, nil)
	return nil
}

// Predict скорит одну транзакцию.
func (s *Session) Predict(ctx context.Context, in domain.TransactionInput) (*domain.Transaction, error) {
	start := time.Now()
	tx, err := s.gateway.Predict(ctx, in)
	if err != nil {
		s.record(ctx, audit.ActionPredict, nil, map[string]any{"type": in.Type, "amount": in.Amount}, start, err)
		return nil, s.fail(err)
	}
	s.record(ctx, audit.ActionPredict, &tx.ID, map[string]any{"prediction": tx.Prediction, "probability": tx.Probability}, start, nil)
	return tx, nil
}

// ReviewQueue загружает страницу очереди ручной проверки.
func (s *Session) ReviewQueue(ctx context.Context, page int) (review.Queue, error) {
	q, err := s.review.Load(ctx, page)
	if err != nil {
		if errors.Is(err, domain.ErrStaleResponse) {
			return s.review.Queue(), nil
		}
		return review.Queue{}, s.fail(err)
	}
	return q, nil
}

func (s *Session) SelectReview(id int64) (review.Queue, error) {
	if err := s.review.Select(id); err != nil {
		return review.Queue{}, err
	}
	return s.review.Queue(), nil
}

// SubmitReview отправляет вердикт по выбранной транзакции.
func (s *Session) SubmitReview(ctx context.Context, raw int) (review.Queue, error) {
	start := time.Now()
	selected, _ := s.review.Selected()

	id, err := s.review.Submit(ctx, raw)
	if err != nil {
		if errors.Is(err, domain.ErrReviewSubmitFailed) {
			s.record(ctx, audit.ActionReview, &selected.ID, map[string]any{"verdict": raw}, start, err)
			return review.Queue{}, s.fail(err)
		}
		return review.Queue{}, err
	}

	s.markReviewed(id, domain.Verdict(raw))
	s.record(ctx, audit.ActionReview, &id, map[string]any{"verdict": raw}, start, nil)
	return s.review.Queue(), nil
}

func (s *Session) markReviewed(id int64, verdict domain.Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil {
		return
	}
	for i := range s.page.Data {
		if s.page.Data[i].ID == id {
			v := int(verdict)
			s.page.Data[i].ReviewedPrediction = &v
		}
	}
}

// applyPage вызывается под s.mu. Данные копируются: страница контроллера не разделяется с сессией.
func (s *Session) applyPage(page *domain.TransactionsPage) {
	cp := &domain.TransactionsPage{
		Data:       append([]domain.Transaction{}, page.Data...),
		Pagination: page.Pagination,
	}
	s.page = cp
	s.updatedAt = time.Now()
	if cp.Pagination.CurrentPage <= 1 {
		s.baseline = s.pages.Snapshot()
	}
}

func (s *Session) nextGen() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// fail запоминает сообщение для оператора и возвращает исходную ошибку.
func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.lastErr = domain.UserMessage(err)
	s.mu.Unlock()
	return err
}

func (s *Session) record(ctx context.Context, action string, txID *int64, details map[string]any, start time.Time, err error) {
	if s.journal == nil {
		return
	}
	e := audit.JournalEvent{
		ID:            uuid.New().String(),
		TraceID:       engine.TraceID(ctx),
		OperatorID:    auth.OperatorID(ctx),
		Action:        action,
		TransactionID: txID,
		Details:       details,
		Status:        audit.StatusSuccess,
		DurationMs:    time.Since(start).Milliseconds(),
		Timestamp:     start,
	}
	if err != nil {
		e.Status = audit.StatusFailed
		e.Error = err.Error()
	}
	s.journal.Log(e)
}
