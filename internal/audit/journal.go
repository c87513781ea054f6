package audit

/*
Журнал действий оператора: загрузки пакетов, вердикты, вход в консоль.

- Log не блокирует обработчик запроса: событие уходит в буферизованный канал.
- Воркер копит события и пишет пачкой по таймеру или по достижении размера пачки.
- Переполнение буфера не роняет запрос: событие уходит в лог (Load Shedding).
- Stop закрывает канал, воркер вычитывает остаток и делает финальный flush.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Storage определяет, куда физически будут сохраняться события
type Storage interface {
	// WriteBatch сохраняет пачку событий за один раз
	WriteBatch(ctx context.Context, events []JournalEvent) error
}

type Recorder interface {
	Log(event JournalEvent)
}

type Options struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	Fill          prometheus.Gauge // заполненность буфера, может быть nil
}

type Journal struct {
	ch     chan JournalEvent // Буфер для асинхронности
	repo   Storage
	opts   Options
	logger *zap.Logger
	wg     sync.WaitGroup
	closed atomic.Bool
	mu     sync.RWMutex // Log держит RLock, Stop — Lock: отправка в закрытый канал невозможна
}

func NewJournal(repo Storage, opts Options, logger *zap.Logger) *Journal {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = time.Second
	}
	return &Journal{
		ch:     make(chan JournalEvent, opts.BufferSize),
		repo:   repo,
		opts:   opts,
		logger: logger.With(zap.String("mod", "journal")),
	}
}

func (j *Journal) Start() {
	j.wg.Add(1)
	go j.worker()
}

// Stop «запирает» вход в канал и ждет, пока воркер всё допишет.
func (j *Journal) Stop() {
	j.mu.Lock()
	if j.closed.Swap(true) {
		j.mu.Unlock()
		return
	}
	j.logger.Info("stopping journal: closing channel and flushing buffer...")
	close(j.ch)
	j.mu.Unlock()

	j.wg.Wait()
	j.logger.Info("journal stopped gracefully")
}

func (j *Journal) Log(event JournalEvent) {
	// Убеждаемся, что таймстемп всегда проставлен
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed.Load() {
		j.logger.Warn("journal event dropped: journal is stopping", zap.String("id", event.ID))
		return
	}

	// используем стратегию Load Shedding (сброс нагрузки)
	select {
	case j.ch <- event:
		j.setFill()
	default:
		// Если канал переполнен (Backpressure), пишем в стандартный логгер
		j.logger.Error("journal_buffer_overflow",
			zap.String("operator_id", event.OperatorID),
			zap.String("action", event.Action),
			zap.String("trace_id", event.TraceID),
		)
	}
}

func (j *Journal) setFill() {
	if j.opts.Fill != nil {
		j.opts.Fill.Set(float64(len(j.ch)))
	}
}

func (j *Journal) worker() {
	defer j.wg.Done()

	batch := make([]JournalEvent, 0, j.opts.BatchSize)
	ticker := time.NewTicker(j.opts.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Используем Background, так как основной контекст может быть уже закрыт
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := j.repo.WriteBatch(ctx, batch); err != nil {
			j.logger.Error("journal flush failed", zap.Int("events", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
		j.setFill()
	}

	for {
		select {
		case event, ok := <-j.ch:
			if !ok {
				// Канал закрыт в Stop: остаток уже вычитан, финальный сброс
				flush()
				j.logger.Info("journal worker finished")
				return
			}
			batch = append(batch, event)
			if len(batch) >= j.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// LogStorage пишет события в лог. Используется, когда база не настроена.
type LogStorage struct {
	logger *zap.Logger
}

func NewLogStorage(logger *zap.Logger) *LogStorage {
	return &LogStorage{logger: logger.Named("journal")}
}

func (s *LogStorage) WriteBatch(_ context.Context, events []JournalEvent) error {
	for _, e := range events {
		fields := []zap.Field{
			zap.String("id", e.ID),
			zap.String("trace_id", e.TraceID),
			zap.String("operator_id", e.OperatorID),
			zap.String("action", e.Action),
			zap.String("status", e.Status),
			zap.Int64("duration_ms", e.DurationMs),
			zap.Any("details", e.Details),
		}
		if e.TransactionID != nil {
			fields = append(fields, zap.Int64("tx_id", *e.TransactionID))
		}
		if e.Error != "" {
			fields = append(fields, zap.String("error", e.Error))
		}
		s.logger.Info("operator action", fields...)
	}
	return nil
}
