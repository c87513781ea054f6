package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
	"go.uber.org/zap"
)

func TestReviewSignal_RoundTrip(t *testing.T) {
	payload := FormatReviewSignal(42, domain.VerdictFraudulent)
	assert.Equal(t, "42:1", payload)

	id, verdict, err := ParseReviewSignal(payload)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, domain.VerdictFraudulent, verdict)
}

func TestParseReviewSignal_Invalid(t *testing.T) {
	for _, payload := range []string{"", "42", "x:1", "42:x", "42:5"} {
		t.Run(payload, func(t *testing.T) {
			_, _, err := ParseReviewSignal(payload)
			assert.Error(t, err)
		})
	}
	_, _, err := ParseReviewSignal("42:5")
	assert.ErrorIs(t, err, domain.ErrInvalidVerdict)
}

func TestSignals_DisabledIsNoop(t *testing.T) {
	ctx := context.Background()

	var nilSignals *Signals
	nilSignals.PublishBatchCompleted(ctx, "batch.csv")
	nilSignals.PublishReviewSubmitted(ctx, 1, domain.VerdictLegitimate)

	s := NewSignals(nil, zap.NewNop())
	s.PublishBatchCompleted(ctx, "batch.csv")
	// Без Redis Listen возвращается сразу, а не блокируется навсегда
	s.Listen(ctx, func(string) { t.Fatal("unexpected batch") }, func(int64, domain.Verdict) { t.Fatal("unexpected review") })
}
