package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xela07ax/fraudwatch-console/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UploadResult — свежие данные, опубликованные бэкендом после обработки пакета.
type UploadResult struct {
	Transactions         *domain.TransactionsPage
	Analytics            *domain.AnalyticsSnapshot
	TransactionsSnapshot *Snapshot
	AnalyticsSnapshot    *Snapshot
}

// Uploader отправляет пакет и ждёт, пока бэкенд опубликует результаты.
type Uploader struct {
	gateway *Gateway
	poller  *Poller
	signals *Signals
	metrics *Metrics
	logger  *zap.Logger
}

func NewUploader(gateway *Gateway, poller *Poller, signals *Signals, metrics *Metrics, logger *zap.Logger) *Uploader {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Uploader{
		gateway: gateway,
		poller:  poller,
		signals: signals,
		metrics: metrics,
		logger:  logger.Named("uploader"),
	}
}

// Upload отправляет файл и параллельно опрашивает транзакции и аналитику.
// prevTx и prevAnalytics — текущие снимки консоли: результатом считается только то, что от них отличается.
// Успех лишь когда оба ресурса обновились. Иначе ErrUploadFailed (отправка) или
// ErrProcessingTimeout (результаты не появились), и вызывающий сохраняет прежнее состояние.
func (u *Uploader) Upload(ctx context.Context, filename string, file io.Reader, prevTx, prevAnalytics *Snapshot) (*UploadResult, error) {
	start := time.Now()
	logger := u.logger.With(zap.String("file", filename), zap.String("trace_id", TraceID(ctx)))

	if err := u.gateway.SubmitBatch(ctx, filename, file); err != nil {
		u.observe(start, "upload_failed")
		u.metrics.ErrorTotal.WithLabelValues("upload").Inc()
		logger.Error("batch submission failed", zap.Error(err))
		return nil, err
	}
	logger.Info("batch submitted, waiting for results")

	var res UploadResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap, err := u.poller.Poll(gctx, PathTransactions, nil, prevTx)
		if err != nil {
			return err
		}
		var page domain.TransactionsPage
		if err := snap.Decode(&page); err != nil {
			return err
		}
		res.Transactions, res.TransactionsSnapshot = &page, snap
		return nil
	})
	g.Go(func() error {
		snap, err := u.poller.Poll(gctx, PathAnalytics, nil, prevAnalytics)
		if err != nil {
			return err
		}
		var a domain.AnalyticsSnapshot
		if err := snap.Decode(&a); err != nil {
			return err
		}
		res.Analytics, res.AnalyticsSnapshot = &a, snap
		return nil
	})

	if err := g.Wait(); err != nil {
		// Отмена родительского контекста — не таймаут обработки
		if ctx.Err() != nil {
			u.observe(start, "canceled")
			return nil, fmt.Errorf("upload %s canceled: %w", filename, ctx.Err())
		}
		u.observe(start, "timeout")
		u.metrics.ErrorTotal.WithLabelValues("upload").Inc()
		logger.Warn("batch results did not appear", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrProcessingTimeout, err)
	}

	if res.Transactions.Data == nil {
		res.Transactions.Data = []domain.Transaction{}
	}

	u.observe(start, "ok")
	logger.Info("batch results published",
		zap.Int("total_items", res.Transactions.Pagination.TotalItems),
		zap.Duration("took", time.Since(start)))

	u.signals.PublishBatchCompleted(ctx, filename)
	return &res, nil
}

func (u *Uploader) observe(start time.Time, status string) {
	u.metrics.UploadDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}
