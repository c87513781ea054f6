package review

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/fraudwatch-console/internal/connectors"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
	"github.com/xela07ax/fraudwatch-console/internal/engine"
	"go.uber.org/zap"
)

func ptr(v int) *int { return &v }

func newWorkflow(t *testing.T, h http.Handler) *Workflow {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	src, err := connectors.NewHTTPSource(srv.URL, time.Second)
	require.NoError(t, err)
	return NewWorkflow(engine.NewGateway(src), nil, nil, zap.NewNop())
}

func seededMock() *connectors.MockBackend {
	m := connectors.NewMockBackend()
	m.Seed(
		domain.Transaction{ID: 7, ManualReview: true},
		domain.Transaction{ID: 8},
		domain.Transaction{ID: 9, ManualReview: true, ReviewedPrediction: ptr(0)},
		domain.Transaction{ID: 42, ManualReview: true, Probability: 0.5},
	)
	return m
}

func ids(txs []domain.Transaction) []int64 {
	out := make([]int64, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.ID)
	}
	return out
}

func TestWorkflow_LoadKeepsOnlyPending(t *testing.T) {
	w := newWorkflow(t, seededMock())

	q, err := w.Load(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, []int64{7, 42}, ids(q.Pending))
	assert.Equal(t, 2, q.Pagination.TotalItems)
	assert.Nil(t, q.Selected)
}

func TestWorkflow_SubmitRemovesExactlyThatTransaction(t *testing.T) {
	mock := seededMock()
	w := newWorkflow(t, mock)
	ctx := context.Background()
	_, err := w.Load(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, w.Select(42))
	sel, ok := w.Selected()
	require.True(t, ok)
	assert.Equal(t, 0.5, sel.Probability)

	id, err := w.Submit(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	q := w.Queue()
	assert.Equal(t, []int64{7}, ids(q.Pending))
	assert.Nil(t, q.Selected)

	reviewed := mock.Transactions()[3]
	require.NotNil(t, reviewed.ReviewedPrediction)
	assert.Equal(t, 1, *reviewed.ReviewedPrediction)

	// Повторная загрузка больше не возвращает проверенную транзакцию
	q, err = w.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, ids(q.Pending))
}

func TestWorkflow_SubmitFailureKeepsState(t *testing.T) {
	mock := seededMock()
	mux := http.NewServeMux()
	mux.Handle("GET /", mock)
	mux.HandleFunc("PUT /review/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	w := newWorkflow(t, mux)
	ctx := context.Background()
	_, err := w.Load(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, w.Select(42))

	_, err = w.Submit(ctx, 0)

	require.ErrorIs(t, err, domain.ErrReviewSubmitFailed)
	q := w.Queue()
	assert.Equal(t, []int64{7, 42}, ids(q.Pending))
	require.NotNil(t, q.Selected)
	assert.Equal(t, int64(42), *q.Selected)
}

func TestWorkflow_SubmitValidation(t *testing.T) {
	w := newWorkflow(t, seededMock())
	ctx := context.Background()
	_, err := w.Load(ctx, 1)
	require.NoError(t, err)

	_, err = w.Submit(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNotSelected)

	require.NoError(t, w.Select(7))
	_, err = w.Submit(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidVerdict)

	assert.ErrorIs(t, w.Select(8), domain.ErrNotPending, "not flagged for review")
	assert.ErrorIs(t, w.Select(9), domain.ErrNotPending, "already reviewed")
	assert.Len(t, w.Queue().Pending, 2)
}

func TestWorkflow_DropClearsSelection(t *testing.T) {
	w := newWorkflow(t, seededMock())
	_, err := w.Load(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, w.Select(7))

	assert.True(t, w.Drop(7))
	assert.False(t, w.Drop(7))

	_, ok := w.Selected()
	assert.False(t, ok)
	assert.Equal(t, []int64{42}, ids(w.Queue().Pending))
}

func TestWorkflow_ReloadDropsVanishedSelection(t *testing.T) {
	mock := seededMock()
	w := newWorkflow(t, mock)
	ctx := context.Background()
	_, err := w.Load(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, w.Select(7))

	// Транзакцию проверили в другой консоли
	other := newWorkflow(t, mock)
	_, err = other.Load(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, other.Select(7))
	_, err = other.Submit(ctx, 0)
	require.NoError(t, err)

	q, err := w.Load(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, q.Selected)
	assert.Equal(t, []int64{42}, ids(q.Pending))
}
