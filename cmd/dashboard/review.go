package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Work with the manual review queue",
	}
	cmd.AddCommand(reviewListCmd())
	cmd.AddCommand(reviewSubmitCmd())
	return cmd
}

func reviewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions waiting for an operator verdict",
		Args:  cobra.NoArgs,
		RunE:  runReviewList,
	}
	cmd.Flags().Int("page", 1, "queue page (1-based)")
	return cmd
}

func reviewSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <id> <verdict>",
		Short: "Submit a verdict: 0 (legitimate) or 1 (fraudulent)",
		Args:  cobra.ExactArgs(2),
		RunE:  runReviewSubmit,
	}
	cmd.Flags().Int("page", 1, "queue page the transaction is on")
	return cmd
}

func runReviewList(cmd *cobra.Command, _ []string) error {
	ctx := cliContext(cmd.Context())
	page, _ := cmd.Flags().GetInt("page")

	a, err := newApp(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	q, err := a.session.ReviewQueue(ctx, page)
	if err != nil {
		return fmt.Errorf("%s: %w", domain.UserMessage(err), err)
	}

	out := cmd.OutOrStdout()
	if len(q.Pending) == 0 {
		fmt.Fprintln(out, "No transactions waiting for review.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTEP\tTYPE\tAMOUNT\tOLD BALANCE\tPROBABILITY")
	for _, t := range q.Pending {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%.3f\n", t.ID, t.Step, t.Type, money(t.Amount), money(t.OldBalanceOrg), t.Probability)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\npage %d/%d, %d pending total\n", q.Pagination.CurrentPage, q.Pagination.TotalPages, q.Pagination.TotalItems)
	return nil
}

func runReviewSubmit(cmd *cobra.Command, args []string) error {
	ctx := cliContext(cmd.Context())
	page, _ := cmd.Flags().GetInt("page")

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid transaction id %q: %w", args[0], err)
	}
	raw, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%s: %w", domain.UserMessage(domain.ErrInvalidVerdict), domain.ErrInvalidVerdict)
	}

	a, err := newApp(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.session.ReviewQueue(ctx, page); err != nil {
		return fmt.Errorf("%s: %w", domain.UserMessage(err), err)
	}
	if _, err := a.session.SelectReview(id); err != nil {
		return fmt.Errorf("%s: %w", domain.UserMessage(err), err)
	}
	if _, err := a.session.SubmitReview(ctx, raw); err != nil {
		return fmt.Errorf("%s: %w", domain.UserMessage(err), err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "transaction %d marked as %s\n", id, domain.Verdict(raw))
	return nil
}
