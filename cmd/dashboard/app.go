package main

import (
	"context"
	"database/sql"
	"fmt"
	"os/user"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/fraudwatch-console/internal/analytics"
	"github.com/xela07ax/fraudwatch-console/internal/audit"
	"github.com/xela07ax/fraudwatch-console/internal/connectors"
	"github.com/xela07ax/fraudwatch-console/internal/console/service"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
	"github.com/xela07ax/fraudwatch-console/internal/engine"
	"github.com/xela07ax/fraudwatch-console/internal/infra"
	"github.com/xela07ax/fraudwatch-console/internal/infra/auth"
	"github.com/xela07ax/fraudwatch-console/internal/repository/postgres"
	"github.com/xela07ax/fraudwatch-console/internal/review"
	"go.uber.org/zap"
)

// app — собранное ядро консоли. Общее для serve и одноразовых команд CLI.
type app struct {
	metrics  *engine.Metrics
	gateway  *engine.Gateway
	uploader *engine.Uploader
	review   *review.Workflow
	signals  *engine.Signals
	session  *service.Session

	journal     *audit.Journal
	journalRepo *postgres.JournalRepo // nil без database.url
	db          *sql.DB
	rdb         *redis.Client
}

// newApp собирает зависимости по конфигу. reg может быть nil — метрики никуда не экспортируются.
// Redis и Postgres необязательны: без них сигналы выключены, а журнал пишется в лог.
func newApp(ctx context.Context, cfg *infra.Config, reg prometheus.Registerer, logger *zap.Logger) (*app, error) {
	a := &app{metrics: engine.NewMetrics(reg)}

	// 1. Источник данных + надежность
	source, err := connectors.NewHTTPSource(cfg.Backend.BaseURL, cfg.Backend.Timeout,
		connectors.WithMaxResponseBytes(cfg.Backend.MaxResponseMB<<20))
	if err != nil {
		return nil, err
	}
	safe := engine.NewReliabilityWrapper(source, cfg.Reliability, a.metrics, logger)
	a.gateway = engine.NewGateway(safe)
	poller := engine.NewPoller(safe, cfg.Polling, a.metrics, logger)

	// 2. Сигналы между инстансами
	if cfg.Redis.Addr != "" {
		a.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := a.rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			// Не фатально: ListenResilient переподключится сам
			logger.Warn("redis unreachable, signals will retry", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
	}
	a.signals = engine.NewSignals(a.rdb, logger)

	// 3. Журнал оператора
	var storage audit.Storage = audit.NewLogStorage(logger)
	if cfg.Database.URL != "" {
		db, err := postgres.Open(cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.db = db

		migrateCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = postgres.Migrate(migrateCtx, db)
		cancel()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("database unreachable: %w", err)
		}
		a.journalRepo = postgres.NewJournalRepo(db)
		storage = a.journalRepo
	}
	a.journal = audit.NewJournal(storage, audit.Options{
		BufferSize:    cfg.Journal.BufferSize,
		BatchSize:     cfg.Journal.BatchSize,
		FlushInterval: cfg.Journal.FlushInterval,
		Fill:          a.metrics.JournalBufferFill,
	}, logger)
	a.journal.Start()

	// 4. Сценарии
	a.uploader = engine.NewUploader(a.gateway, poller, a.signals, a.metrics, logger)
	a.review = review.NewWorkflow(a.gateway, a.signals, a.metrics, logger)
	a.session = service.NewSession(service.SessionDeps{
		Gateway:  a.gateway,
		Uploader: a.uploader,
		Review:   a.review,
		Signals:  a.signals,
		Journal:  a.journal,
		Buckets:  bucketConfig(cfg.Buckets),
	}, logger)

	return a, nil
}

// operators — учетки из Postgres, если он настроен, иначе из конфига.
func (a *app) operators(cfg *infra.Config) service.OperatorStore {
	if a.db != nil {
		return postgres.NewOperatorRepo(a.db)
	}
	return service.ConfigOperators(cfg.Auth.Operators)
}

// Close дописывает журнал и закрывает соединения. Порядок важен: журнал пишет в db.
func (a *app) Close() {
	if a.journal != nil {
		a.journal.Stop()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
}

// bucketConfig переводит конфиг в границы гистограмм. Явные границы важнее равномерной сетки.
func bucketConfig(c infra.BucketsConfig) analytics.BucketConfig {
	out := analytics.BucketConfig{BalanceEdges: c.BalanceEdges, AmountEdges: c.AmountEdges}
	if len(out.BalanceEdges) == 0 {
		out.BalanceEdges = analytics.UniformEdges(c.BalanceWidth, c.Count)
	}
	if len(out.AmountEdges) == 0 {
		out.AmountEdges = analytics.UniformEdges(c.AmountWidth, c.Count)
	}
	return out
}

// cliContext подписывает действия из CLI локальным пользователем ОС, чтобы журнал отличал их от API.
func cliContext(ctx context.Context) context.Context {
	name := "unknown"
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	return auth.WithClaims(engine.WithTraceID(ctx, uuid.New().String()), &domain.CustomClaims{OperatorID: "cli:" + name})
}
