package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/fraudwatch-console/internal/analytics"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
	"github.com/xela07ax/fraudwatch-console/internal/infra"
)

func TestBucketConfig(t *testing.T) {
	tests := []struct {
		name        string
		in          infra.BucketsConfig
		wantBalance []float64
		wantAmount  []float64
	}{
		{
			name:        "uniform grid",
			in:          infra.BucketsConfig{BalanceWidth: 10, AmountWidth: 5, Count: 3},
			wantBalance: []float64{0, 10, 20},
			wantAmount:  []float64{0, 5, 10},
		},
		{
			name:        "explicit edges win",
			in:          infra.BucketsConfig{AmountEdges: []float64{0, 1000}, BalanceWidth: 10, AmountWidth: 5, Count: 2},
			wantBalance: []float64{0, 10},
			wantAmount:  []float64{0, 1000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bucketConfig(tt.in)
			assert.Equal(t, analytics.BucketConfig{BalanceEdges: tt.wantBalance, AmountEdges: tt.wantAmount}, got)
		})
	}
}

func TestPrintTransactions(t *testing.T) {
	verdict := 1
	txs := []domain.Transaction{
		{ID: 1, Step: 1, Type: "PAYMENT", Amount: 9.5, Prediction: 0, Probability: 0.01},
		{ID: 2, Step: 1, Type: "TRANSFER", Amount: 181, Prediction: 1, Probability: 0.99},
		{ID: 3, Step: 2, Type: "CASH_OUT", Amount: 50, Prediction: 0, Probability: 0.5, ManualReview: true},
		{ID: 4, Step: 2, Type: "CASH_OUT", Amount: 50, Prediction: 0, Probability: 0.5, ManualReview: true, ReviewedPrediction: &verdict},
	}

	var buf bytes.Buffer
	require.NoError(t, printTransactions(&buf, txs, domain.PageMetadata{CurrentPage: 1, TotalPages: 1, TotalItems: 4}))

	out := buf.String()
	assert.Contains(t, out, "9.50")
	assert.Contains(t, out, "181.00")
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, domain.LabelFraudulent)
	assert.Contains(t, out, "page 1/1, 4 items total")
}
