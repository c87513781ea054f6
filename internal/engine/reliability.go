package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"github.com/xela07ax/fraudwatch-console/internal/connectors"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
	"github.com/xela07ax/fraudwatch-console/internal/infra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DataSource — удалённый источник JSON. Реализуется connectors.HTTPSource и обёртками над ним.
type DataSource interface {
	Do(ctx context.Context, req connectors.Request) (*connectors.Response, error)
}

// ReliabilityWrapper ограничивает частоту обращений к бэкенду и отсекает его,
// когда тот перестал отвечать. Повторов здесь нет: их количество — забота Poller.
type ReliabilityWrapper struct {
	next    DataSource
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	metrics *Metrics
	logger  *zap.Logger
}

func NewReliabilityWrapper(next DataSource, cfg infra.ReliabilityConfig, metrics *Metrics, logger *zap.Logger) *ReliabilityWrapper {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	logger = logger.Named("reliability")

	maxFailures := cfg.CBMaxFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "scoring-backend",
		MaxRequests: cfg.CBMaxRequests,
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// Не-OK статус означает, что бэкенд жив: 404 во время обработки пакета — норма
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrBadStatus)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerGauge(to))
		},
	})

	return &ReliabilityWrapper{
		next:    next,
		cb:      cb,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		metrics: metrics,
		logger:  logger,
	}
}

func (w *ReliabilityWrapper) Do(ctx context.Context, req connectors.Request) (*connectors.Response, error) {
	// 1. Rate Limiter
	if err := w.limiter.Wait(ctx); err != nil {
		w.metrics.ErrorTotal.WithLabelValues("rate_limit").Inc()
		return nil, fmt.Errorf("%w: rate limit wait: %v", domain.ErrNetwork, err)
	}

	// 2. Trace-ID уходит в бэкенд, чтобы склеить логи консоли и сервиса скоринга
	req.Header = req.Header.Clone()
	if req.Header == nil {
		req.Header = http.Header{}
	}
	req.Header.Set(TraceHeader, TraceID(ctx))

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	start := time.Now()

	// 3. Circuit Breaker
	res, err := w.cb.Execute(func() (interface{}, error) {
		return w.next.Do(ctx, req)
	})
	w.metrics.BackendDuration.WithLabelValues(method, outcomeLabel(err)).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			w.metrics.ErrorTotal.WithLabelValues("circuit_open").Inc()
			return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrNetwork, method, req.Path, err)
		}
		return nil, err
	}

	return res.(*connectors.Response), nil
}

func breakerGauge(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 0.5
	default:
		return 0
	}
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrBadStatus):
		return "bad_status"
	default:
		return "error"
	}
}
