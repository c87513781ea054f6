package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
)

func uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.csv>",
		Short: "Submit a transaction batch and wait for scored results",
		Long: `Отправляет CSV в формате PaySim в сервис скоринга и опрашивает бэкенд,
пока не появятся свежие транзакции и аналитика. При таймауте прежние данные
не заменяются.`,
		Args: cobra.ExactArgs(1),
		RunE: runUpload,
	}
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cliContext(cmd.Context())

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open batch: %w", err)
	}
	defer f.Close()

	a, err := newApp(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.session.Upload(ctx, filepath.Base(args[0]), f); err != nil {
		return fmt.Errorf("%s: %w", domain.UserMessage(err), err)
	}

	view := a.session.View()
	out := cmd.OutOrStdout()
	if err := printTransactions(out, view.Transactions, view.Pagination); err != nil {
		return err
	}
	if view.Analytics != nil {
		fmt.Fprintln(out)
		return printAnalytics(out, *view.Analytics)
	}
	return nil
}
