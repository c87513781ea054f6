package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
	"github.com/xela07ax/fraudwatch-console/internal/infra"
	"go.uber.org/zap"
)

// Signals рассылает события между экземплярами консоли через Redis Pub/Sub.
// Нулевой *Signals и Signals без клиента — рабочие no-op: одиночная консоль обходится без Redis.
type Signals struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewSignals(rdb *redis.Client, logger *zap.Logger) *Signals {
	return &Signals{rdb: rdb, logger: logger.Named("signals")}
}

func (s *Signals) enabled() bool {
	return s != nil && s.rdb != nil
}

// PublishBatchCompleted — пакет обработан, остальные консоли могут перечитать данные.
func (s *Signals) PublishBatchCompleted(ctx context.Context, filename string) {
	if !s.enabled() {
		return
	}
	if err := s.rdb.Publish(ctx, infra.RedisChanBatchCompleted, filename).Err(); err != nil {
		s.logger.Warn("failed to publish batch signal", zap.String("file", filename), zap.Error(err))
	}
}

// PublishReviewSubmitted — вердикт вынесен. Формат "id:verdict".
func (s *Signals) PublishReviewSubmitted(ctx context.Context, id int64, verdict domain.Verdict) {
	if !s.enabled() {
		return
	}
	payload := FormatReviewSignal(id, verdict)
	if err := s.rdb.Publish(ctx, infra.RedisChanReviewSubmitted, payload).Err(); err != nil {
		s.logger.Warn("failed to publish review signal", zap.Int64("tx_id", id), zap.Error(err))
	}
}

// Listen блокируется до отмены ctx, доставляя сигналы других консолей.
// onBatch получает имя файла (пустое после переподключения), onReview — ID транзакции, по которой вынесен вердикт.
func (s *Signals) Listen(ctx context.Context, onBatch func(filename string), onReview func(id int64, verdict domain.Verdict)) {
	if !s.enabled() {
		return
	}

	// Пока подписки не было, сигналы о пакетах терялись: после переподключения перечитываем данные
	connected := false
	resync := func() error {
		if connected {
			onBatch("")
		}
		connected = true
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ListenResilient(ctx, s.rdb, s.logger, infra.RedisChanBatchCompleted, resync, onBatch)
	}()

	ListenResilient(ctx, s.rdb, s.logger, infra.RedisChanReviewSubmitted, nil, func(payload string) {
		id, verdict, err := ParseReviewSignal(payload)
		if err != nil {
			s.logger.Error("invalid signal format", zap.String("payload", payload), zap.Error(err))
			return
		}
		onReview(id, verdict)
	})
	<-done
}

func FormatReviewSignal(id int64, verdict domain.Verdict) string {
	return strconv.FormatInt(id, 10) + ":" + strconv.Itoa(int(verdict))
}

// ParseReviewSignal разбирает "id:verdict".
func ParseReviewSignal(payload string) (int64, domain.Verdict, error) {
	rawID, rawVerdict, ok := strings.Cut(payload, ":")
	if !ok {
		return 0, 0, fmt.Errorf("missing separator in %q", payload)
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad transaction id %q: %w", rawID, err)
	}
	v, err := strconv.Atoi(rawVerdict)
	if err != nil {
		return 0, 0, fmt.Errorf("bad verdict %q: %w", rawVerdict, err)
	}
	verdict, err := domain.ParseVerdict(v)
	if err != nil {
		return 0, 0, err
	}
	return id, verdict, nil
}
