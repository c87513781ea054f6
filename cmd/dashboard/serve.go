package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/xela07ax/fraudwatch-console/internal/console/handler"
	"github.com/xela07ax/fraudwatch-console/internal/console/server"
	"github.com/xela07ax/fraudwatch-console/internal/console/service"
	"github.com/xela07ax/fraudwatch-console/internal/infra"
	"github.com/xela07ax/fraudwatch-console/internal/infra/auth"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the console BFF (HTTP API + metrics)",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// 1. Метрики
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// 2. Ядро
	a, err := newApp(ctx, cfg, reg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	// 3. Авторизация
	var validator auth.TokenValidator
	var authHandler *handler.AuthHandler
	if cfg.Auth.Enabled {
		authSvc, err := newAuthService(cfg, a.operators(cfg))
		if err != nil {
			return err
		}
		validator = authSvc
		authHandler = handler.NewAuthHandler(authSvc, a.journal, logger)
	} else {
		logger.Warn("auth disabled, API is open")
	}

	// journalRepo может быть nil: сервис журнала это допускает, но интерфейс должен быть пустым
	var reader service.JournalReader
	if a.journalRepo != nil {
		reader = a.journalRepo
	}

	api := server.NewConsoleServer(logger, validator, server.Handlers{
		Auth:      authHandler,
		Dashboard: handler.NewDashboardHandler(a.session, cfg.Server.MaxUploadMB),
		Review:    handler.NewReviewHandler(a.session),
		Journal:   handler.NewJournalHandler(service.NewJournalService(reader)),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	// 4. Сигналы других консолей
	g.Go(func() error {
		a.session.Run(gctx)
		return nil
	})

	// Первичная загрузка дашборда; бэкенд может быть еще недоступен
	g.Go(func() error {
		if err := a.session.Refresh(gctx); err != nil {
			logger.Warn("initial dashboard load failed", zap.Error(err))
		}
		return nil
	})

	if cfg.Metrics.Addr != "" {
		metricsSrv := &http.Server{
			Addr:    cfg.Metrics.Addr,
			Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		}
		g.Go(func() error { return listen(gctx, metricsSrv, "metrics") })
	}

	g.Go(func() error { return listen(gctx, srv, "console api") })

	err = g.Wait()
	logger.Info("console exited", zap.Error(err))
	return err
}

// listen держит сервер до отмены ctx и гасит его с таймаутом.
func listen(ctx context.Context, srv *http.Server, name string) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("server", name), zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s: %w", name, err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s shutdown: %w", name, err)
	}
	logger.Info("server stopped", zap.String("server", name))
	return nil
}

func newAuthService(cfg *infra.Config, operators service.OperatorStore) (*service.AuthService, error) {
	pub, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("auth public key: %w", err)
	}
	priv, err := auth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("auth private key: %w", err)
	}
	return service.NewAuthService(operators, priv, pub, cfg.Auth.TokenTTL), nil
}
