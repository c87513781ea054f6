package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: обращения к бэкенду скоринга
	BackendDuration *prometheus.HistogramVec

	// Polling: попытки и итоги циклов опроса
	PollAttempts *prometheus.CounterVec
	PollOutcomes *prometheus.CounterVec

	// Upload: полный цикл загрузки пакета (отправка + ожидание результатов)
	UploadDuration *prometheus.HistogramVec

	// Review: вердикты операторов
	ReviewSubmissions *prometheus.CounterVec

	// Errors: классификация отказов
	ErrorTotal *prometheus.CounterVec

	// Saturation: состояние Circuit Breaker (0 - ок, 0.5 - пробуем, 1 - выбило)
	CircuitBreakerState *prometheus.GaugeVec

	// Journal: заполненность буфера журнала оператора (backpressure)
	JournalBufferFill prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		BackendDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fraudwatch_backend_request_duration_seconds",
			Help:    "Histogram of scoring backend request latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "outcome"}),

		PollAttempts: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "fraudwatch_poll_attempts_total",
			Help: "Total number of polling attempts per resource.",
		}, []string{"path"}),

		PollOutcomes: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "fraudwatch_poll_outcomes_total",
			Help: "Polling loops by outcome.",
		}, []string{"path", "outcome"}), // fresh, timeout, canceled

		UploadDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fraudwatch_upload_duration_seconds",
			Help:    "Time from batch submission to fresh results.",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"status"}),

		ReviewSubmissions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "fraudwatch_review_submissions_total",
			Help: "Operator verdicts by value and status.",
		}, []string{"verdict", "status"}),

		ErrorTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "fraudwatch_errors_total",
			Help: "Total number of errors by type.",
		}, []string{"type"}), // типы: rate_limit, circuit_open, upload, review, stale

		CircuitBreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "fraudwatch_circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 0.5=half-open, 1=open).",
		}, []string{"name"}),

		JournalBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "fraudwatch_journal_buffer_utilization",
			Help: "Current number of events in operator journal buffer.",
		}),
	}
}
