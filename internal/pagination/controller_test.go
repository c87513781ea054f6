package pagination

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
	"github.com/xela07ax/fraudwatch-console/internal/engine"
)

// fakeFetcher отдает totalPages страниц и запоминает запрошенные.
type fakeFetcher struct {
	mu         sync.Mutex
	totalPages int
	err        error
	requested  []engine.TransactionQuery
	gate       map[int]chan struct{} // страница -> блокировка до закрытия канала
}

func (f *fakeFetcher) FetchTransactions(_ context.Context, q engine.TransactionQuery) (*domain.TransactionsPage, *engine.Snapshot, error) {
	f.mu.Lock()
	f.requested = append(f.requested, q)
	gate := f.gate[q.Page]
	err := f.err
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, nil, err
	}
	return &domain.TransactionsPage{
		Data: []domain.Transaction{{ID: int64(q.Page)}},
		Pagination: domain.PageMetadata{
			TotalItems:  f.totalPages * 100,
			TotalPages:  f.totalPages,
			CurrentPage: q.Page,
			PageSize:    100,
			HasPrevious: q.Page > 1,
			HasNext:     q.Page < f.totalPages,
		},
	}, nil, nil
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requested)
}

func TestController_NavigationBounds(t *testing.T) {
	f := &fakeFetcher{totalPages: 3}
	c := New(f, engine.TransactionQuery{})
	ctx := context.Background()

	// Previous на первой странице — no-op без запроса
	page, err := c.Previous(ctx)
	require.NoError(t, err)
	assert.Nil(t, page)
	assert.Zero(t, f.calls())

	// Next до первой загрузки — has_next неизвестен
	page, err = c.Next(ctx)
	require.NoError(t, err)
	assert.Nil(t, page)

	_, err = c.Load(ctx, 1)
	require.NoError(t, err)

	for want := 2; want <= 3; want++ {
		page, err = c.Next(ctx)
		require.NoError(t, err)
		require.NotNil(t, page)
		assert.Equal(t, want, c.Page())
	}

	calls := f.calls()
	page, err = c.Next(ctx)
	require.NoError(t, err)
	assert.Nil(t, page, "no page after the last one")
	assert.Equal(t, calls, f.calls())
	assert.Equal(t, 3, c.Page())

	page, err = c.Previous(ctx)
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Equal(t, 2, c.Page())
}

func TestController_Goto(t *testing.T) {
	f := &fakeFetcher{totalPages: 5}
	c := New(f, engine.TransactionQuery{})
	ctx := context.Background()

	_, err := c.Goto(ctx, 2)
	require.ErrorIs(t, err, domain.ErrPageOutOfRange, "bounds unknown before the first load")

	_, err = c.Load(ctx, 1)
	require.NoError(t, err)

	for _, n := range []int{0, -1, 6} {
		_, err = c.Goto(ctx, n)
		assert.ErrorIs(t, err, domain.ErrPageOutOfRange)
	}
	assert.Equal(t, 1, c.Page())

	page, err := c.Goto(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Data[0].ID)
	assert.Equal(t, 5, c.Page())

	meta, ok := c.Metadata()
	require.True(t, ok)
	assert.False(t, meta.HasNext)
}

func TestController_KeepsFilters(t *testing.T) {
	f := &fakeFetcher{totalPages: 2}
	c := New(f, engine.TransactionQuery{Page: 7, ManualReview: true, PendingOnly: true})

	_, err := c.Load(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, engine.TransactionQuery{Page: 2, ManualReview: true, PendingOnly: true}, f.requested[0])
}

func TestController_FailureLeavesStateUntouched(t *testing.T) {
	f := &fakeFetcher{totalPages: 3}
	c := New(f, engine.TransactionQuery{})
	ctx := context.Background()
	_, err := c.Load(ctx, 2)
	require.NoError(t, err)

	f.err = errors.Join(domain.ErrNetwork, errors.New("boom"))
	_, err = c.Next(ctx)
	require.ErrorIs(t, err, domain.ErrNetwork)

	assert.Equal(t, 2, c.Page())
	meta, _ := c.Metadata()
	assert.Equal(t, 2, meta.CurrentPage)
}

func TestController_DiscardsStaleResponse(t *testing.T) {
	slow := make(chan struct{})
	f := &fakeFetcher{totalPages: 5, gate: map[int]chan struct{}{2: slow}}
	c := New(f, engine.TransactionQuery{})
	ctx := context.Background()
	_, err := c.Load(ctx, 1)
	require.NoError(t, err)

	// Запрос страницы 2 зависает, оператор тем временем уходит на страницу 3
	staleErr := make(chan error, 1)
	go func() {
		_, err := c.Goto(ctx, 2)
		staleErr <- err
	}()
	require.Eventually(t, func() bool { return f.calls() == 2 }, time.Second, time.Millisecond)

	third, err := c.Goto(ctx, 3)
	require.NoError(t, err)

	close(slow)
	assert.ErrorIs(t, <-staleErr, domain.ErrStaleResponse)
	assert.Equal(t, 3, c.Page(), "late response must not overwrite newer state")
	assert.Same(t, third, c.Current())
}

func TestController_ApplyInvalidatesInFlight(t *testing.T) {
	slow := make(chan struct{})
	f := &fakeFetcher{totalPages: 5, gate: map[int]chan struct{}{1: slow}}
	c := New(f, engine.TransactionQuery{})

	done := make(chan error, 1)
	go func() {
		_, err := c.Load(context.Background(), 1)
		done <- err
	}()
	require.Eventually(t, func() bool { return f.calls() == 1 }, time.Second, time.Millisecond)

	c.Apply(&domain.TransactionsPage{Pagination: domain.PageMetadata{TotalPages: 9, CurrentPage: 1}}, nil)
	close(slow)

	assert.ErrorIs(t, <-done, domain.ErrStaleResponse)
	meta, _ := c.Metadata()
	assert.Equal(t, 9, meta.TotalPages)
}
