package analytics

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
)

func tx(step, prediction int) domain.Transaction {
	return domain.Transaction{Step: step, Prediction: prediction}
}

func TestAggregate_Scenario(t *testing.T) {
	txs := []domain.Transaction{tx(1, 0), tx(1, 1), tx(2, 0)}

	snap := Aggregate(txs, DefaultBucketConfig())

	assert.Equal(t, []domain.StepPoint{
		{Step: 1, Legitimate: 1, Fraudulent: 1},
		{Step: 2, Legitimate: 1, Fraudulent: 0},
	}, snap.StepDistribution)
	assert.Equal(t, []domain.ClassSlice{
		{Label: "Legitimate", Count: 2, Color: "#82ca9d"},
		{Label: "Fraudulent", Count: 1, Color: "#ff8042"},
	}, snap.ClassDistribution)
	assert.Equal(t, 2, snap.LegitimateCount)
	assert.Equal(t, 1, snap.FraudulentCount)
	assert.Equal(t, 33.33, snap.FraudulentPercentage)
}

func TestStepDistribution_SortedUniqueAndComplete(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 50; round++ {
		n := r.IntN(500)
		txs := make([]domain.Transaction, n)
		for i := range txs {
			txs[i] = tx(r.IntN(40)-5, r.IntN(2))
		}

		points := StepDistribution(txs)

		total := 0
		for i, p := range points {
			if i > 0 {
				require.Less(t, points[i-1].Step, p.Step, "steps must be strictly ascending")
			}
			total += p.Legitimate + p.Fraudulent
		}
		require.Equal(t, n, total)
	}
}

func TestStepDistribution_EmptyIsNotNil(t *testing.T) {
	points := StepDistribution(nil)
	assert.NotNil(t, points)
	assert.Empty(t, points)
}

func TestClassDistribution(t *testing.T) {
	tests := []struct {
		name      string
		txs       []domain.Transaction
		wantLegit int
		wantFraud int
	}{
		{name: "empty input still emits both slices", txs: nil},
		{name: "only fraud", txs: []domain.Transaction{tx(1, 1), tx(2, 1)}, wantFraud: 2},
		{name: "unknown prediction counts as legitimate", txs: []domain.Transaction{tx(1, 7), tx(1, 0)}, wantLegit: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slices := ClassDistribution(tt.txs)
			require.Len(t, slices, 2)
			assert.Equal(t, domain.LabelLegitimate, slices[0].Label)
			assert.Equal(t, domain.LabelFraudulent, slices[1].Label)
			assert.Equal(t, tt.wantLegit, slices[0].Count)
			assert.Equal(t, tt.wantFraud, slices[1].Count)
			assert.Equal(t, len(tt.txs), slices[0].Count+slices[1].Count)
		})
	}
}

func TestBucketDistribution_KeepsEmptyRanges(t *testing.T) {
	edges := []float64{0, 100, 200, 300}
	txs := []domain.Transaction{
		{Amount: 50, Prediction: 0},
		{Amount: 250, Prediction: 1},
		{Amount: 1000, Prediction: 0},
		{Amount: -5, Prediction: 1},
	}

	points := BucketDistribution(txs, edges, func(t domain.Transaction) float64 { return t.Amount })

	assert.Equal(t, []domain.BucketPoint{
		{RangeLabel: "0 - 100", Legitimate: 1, Fraudulent: 1, Count: 2},
		{RangeLabel: "100 - 200"},
		{RangeLabel: "200 - 300", Fraudulent: 1, Count: 1},
		{RangeLabel: "300+", Legitimate: 1, Count: 1},
	}, points)
}

func TestBucketDistribution_StableAxesAcrossInputs(t *testing.T) {
	cfg := DefaultBucketConfig()
	empty := Aggregate(nil, cfg)
	full := Aggregate([]domain.Transaction{{Amount: 120, OldBalanceOrg: 250000}}, cfg)

	require.Len(t, empty.BalanceDistribution, DefaultBucketCount)
	require.Len(t, full.BalanceDistribution, DefaultBucketCount)
	for i := range empty.BalanceDistribution {
		assert.Equal(t, empty.BalanceDistribution[i].RangeLabel, full.BalanceDistribution[i].RangeLabel)
	}
	assert.Equal(t, "200,000 - 300,000", full.BalanceDistribution[2].RangeLabel)
	assert.Equal(t, 1, full.BalanceDistribution[2].Count)
	assert.Equal(t, 1, full.AmountDistribution[1].Count)
}

func TestBucketDistribution_NoEdges(t *testing.T) {
	points := BucketDistribution([]domain.Transaction{{Amount: 1}, {Amount: 2}}, nil, func(t domain.Transaction) float64 { return t.Amount })
	assert.Equal(t, []domain.BucketPoint{{RangeLabel: "all", Legitimate: 2, Count: 2}}, points)
}

func TestSummarize(t *testing.T) {
	txs := []domain.Transaction{
		{Amount: 0.1, Prediction: 0},
		{Amount: 0.2, Prediction: 1},
		{Amount: 100.7, Prediction: 1},
	}

	stats := Summarize(txs)

	assert.Equal(t, 3, stats.TotalTransactions)
	assert.Equal(t, 101.0, stats.TotalAmount)
	assert.Equal(t, 100.9, stats.FraudAmount)
	assert.Equal(t, 33.67, stats.AvgAmount)
	assert.Equal(t, 0.1, stats.MinAmount)
	assert.Equal(t, 100.7, stats.MaxAmount)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, domain.SummaryStats{}, Summarize(nil))
	assert.Zero(t, Aggregate(nil, DefaultBucketConfig()).FraudulentPercentage)
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	txs := []domain.Transaction{tx(3, 1), tx(1, 0), tx(2, 0)}
	before := append([]domain.Transaction(nil), txs...)

	first := Aggregate(txs, DefaultBucketConfig())
	second := Aggregate(txs, DefaultBucketConfig())

	assert.Equal(t, before, txs)
	assert.Equal(t, first, second)
}

func TestUniformEdges(t *testing.T) {
	assert.Equal(t, []float64{0, 100, 200}, UniformEdges(100, 3))
	assert.Nil(t, UniformEdges(0, 3))
	assert.Equal(t, "12.50 - 100,000", bucketLabels([]float64{12.5, 100000, 200000})[0])
}
