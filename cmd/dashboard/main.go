package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xela07ax/fraudwatch-console/internal/infra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	version = "dev"

	// Заполняются в initConfig до запуска любой подкоманды
	cfg    *infra.Config
	logger *zap.Logger

	rootCmd = &cobra.Command{
		Use:   "fraudwatch",
		Short: "Fraud detection operator console",
		Long: `fraudwatch — консоль аналитика антифрода: загрузка пакетов транзакций
в сервис скоринга, дашборд результатов и ручная проверка спорных операций.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or ./configs/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, console)")
	rootCmd.PersistentFlags().String("backend", "", "scoring backend base url (overrides backend.base_url)")

	_ = viper.BindPFlag("logger.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logger.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("backend.base_url", rootCmd.PersistentFlags().Lookup("backend"))

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(uploadCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(transactionsCmd())
	rootCmd.AddCommand(reviewCmd())
	rootCmd.AddCommand(mockBackendCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if logger != nil {
		_ = logger.Sync()
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	c, err := infra.LoadConfigFrom(viper.GetViper(), cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := infra.NewLogger(c.Logger)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	cfg, logger = c, l
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fraudwatch %s\n", version)
		},
	}
}
