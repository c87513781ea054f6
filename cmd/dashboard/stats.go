package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show backend analytics for the whole dataset",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}
}

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Show a page of scored transactions",
		Args:  cobra.NoArgs,
		RunE:  runTransactions,
	}
	cmd.Flags().Int("page", 1, "page number (1-based)")
	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cliContext(cmd.Context())

	a, err := newApp(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	snapshot, _, err := a.gateway.FetchAnalytics(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", domain.UserMessage(err), err)
	}
	return printAnalytics(cmd.OutOrStdout(), *snapshot)
}

func runTransactions(cmd *cobra.Command, _ []string) error {
	ctx := cliContext(cmd.Context())
	page, _ := cmd.Flags().GetInt("page")

	a, err := newApp(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.session.Goto(ctx, page); err != nil {
		return fmt.Errorf("%s: %w", domain.UserMessage(err), err)
	}
	view := a.session.View()
	return printTransactions(cmd.OutOrStdout(), view.Transactions, view.Pagination)
}
