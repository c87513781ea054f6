package main

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/xela07ax/fraudwatch-console/internal/connectors"
	"github.com/xela07ax/fraudwatch-console/internal/engine"
	"go.uber.org/zap"
)

func mockBackendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mock-backend",
		Short: "Run an in-memory scoring backend for local development",
		Long: `Поднимает имитацию сервиса скоринга: /predict_batch, /predict, /transactions,
/transactions/analytics, /review/{id}. Принятый пакет публикуется после
--publish-after чтений, как при фоновой обработке.`,
		Args: cobra.NoArgs,
		RunE: runMockBackend,
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().Int("publish-after", 2, "reads before an accepted batch becomes visible")
	cmd.Flags().Bool("etags", true, "send ETag headers on reads")
	return cmd
}

func runMockBackend(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	addr, _ := cmd.Flags().GetString("addr")
	publishAfter, _ := cmd.Flags().GetInt("publish-after")
	etags, _ := cmd.Flags().GetBool("etags")

	opts := []connectors.MockOption{
		connectors.WithPublishAfter(publishAfter),
		connectors.WithBuckets(bucketConfig(cfg.Buckets)),
	}
	if etags {
		opts = append(opts, connectors.WithETags())
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: middleware.Logger(engine.TracingMiddleware(connectors.NewMockBackend(opts...))),
	}

	logger.Info("mock scoring backend", zap.Int("publish_after", publishAfter), zap.Bool("etags", etags))
	return listen(ctx, srv, "mock backend")
}
