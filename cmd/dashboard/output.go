package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
)

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func verdictLabel(t domain.Transaction) string {
	if t.ReviewedPrediction != nil {
		return domain.Verdict(*t.ReviewedPrediction).String()
	}
	if t.ManualReview {
		return "pending"
	}
	return "-"
}

func printTransactions(out io.Writer, txs []domain.Transaction, meta domain.PageMetadata) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTEP\tTYPE\tAMOUNT\tPREDICTION\tPROBABILITY\tREVIEW")
	for _, t := range txs {
		class := domain.LabelLegitimate
		if t.IsFraudulent() {
			class = domain.LabelFraudulent
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%.3f\t%s\n",
			t.ID, t.Step, t.Type, money(t.Amount), class, t.Probability, verdictLabel(t))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\npage %d/%d, %d items total\n", meta.CurrentPage, meta.TotalPages, meta.TotalItems)
	return err
}

func printAnalytics(out io.Writer, a domain.AnalyticsSnapshot) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	s := a.SummaryStats
	fmt.Fprintf(w, "Transactions\t%d\n", s.TotalTransactions)
	fmt.Fprintf(w, "Legitimate\t%d\n", a.LegitimateCount)
	fmt.Fprintf(w, "Fraudulent\t%d (%.2f%%)\n", a.FraudulentCount, a.FraudulentPercentage)
	fmt.Fprintf(w, "Total amount\t%s\n", money(s.TotalAmount))
	fmt.Fprintf(w, "Suspected fraud amount\t%s\n", money(s.FraudAmount))
	fmt.Fprintf(w, "Avg / min / max\t%s / %s / %s\n", money(s.AvgAmount), money(s.MinAmount), money(s.MaxAmount))
	return w.Flush()
}
