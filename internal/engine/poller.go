package engine

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/xela07ax/fraudwatch-console/internal/connectors"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
	"github.com/xela07ax/fraudwatch-console/internal/infra"
	"go.uber.org/zap"
)

var (
	errEmptySnapshot = errors.New("empty response")
	errUnchanged     = errors.New("response unchanged")
)

// Poller — ограниченный цикл опроса ресурса до появления свежих данных.
type Poller struct {
	source      DataSource
	interval    time.Duration
	maxAttempts uint
	metrics     *Metrics
	logger      *zap.Logger
}

func NewPoller(source DataSource, cfg infra.PollingConfig, metrics *Metrics, logger *zap.Logger) *Poller {
	attempts := cfg.MaxAttempts
	if attempts == 0 {
		attempts = 1 // retry-go трактует 0 как "бесконечно"
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Poller{
		source:      source,
		interval:    cfg.Interval,
		maxAttempts: attempts,
		metrics:     metrics,
		logger:      logger.Named("poller"),
	}
}

// Poll опрашивает path, пока ответ не будет одновременно успешным, непустым и отличным от previous.
// previous == nil — принимается первый непустой ответ.
// Сетевые ошибки и не-OK статусы молча тратят попытку. После исчерпания — ErrPollTimeout.
func (p *Poller) Poll(ctx context.Context, path string, query url.Values, previous *Snapshot) (*Snapshot, error) {
	var (
		result  *Snapshot
		attempt uint
	)

	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(p.maxAttempts),
		retry.Delay(p.interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)

	err := r.Do(func() error {
		attempt++
		p.metrics.PollAttempts.WithLabelValues(path).Inc()

		resp, err := p.source.Do(ctx, connectors.Request{Path: path, Query: query})
		if err != nil {
			p.logger.Debug("poll attempt failed", zap.String("path", path), zap.Uint("attempt", attempt), zap.Error(err))
			return err
		}

		snap, err := NewSnapshot(resp.Body, resp.ETag)
		if err != nil {
			return err
		}
		if snap.Empty() {
			return errEmptySnapshot
		}
		if !snap.Differs(previous) {
			return errUnchanged
		}

		result = snap
		return nil
	})

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			p.metrics.PollOutcomes.WithLabelValues(path, "canceled").Inc()
			return nil, fmt.Errorf("polling %s canceled: %w", path, ctxErr)
		}
		p.metrics.PollOutcomes.WithLabelValues(path, "timeout").Inc()
		p.logger.Warn("polling exhausted",
			zap.String("path", path),
			zap.Uint("attempts", attempt),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s after %d attempts: %w", domain.ErrPollTimeout, path, attempt, err)
	}

	p.metrics.PollOutcomes.WithLabelValues(path, "fresh").Inc()
	p.logger.Debug("fresh snapshot received", zap.String("path", path), zap.Uint("attempt", attempt))
	return result, nil
}
