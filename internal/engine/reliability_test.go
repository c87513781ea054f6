package engine

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/fraudwatch-console/internal/connectors"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
	"github.com/xela07ax/fraudwatch-console/internal/infra"
	"go.uber.org/zap"
)

type stubSource struct {
	calls   int
	err     error
	lastReq connectors.Request
}

func (s *stubSource) Do(_ context.Context, req connectors.Request) (*connectors.Response, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &connectors.Response{Body: []byte(`{}`)}, nil
}

func testReliability() infra.ReliabilityConfig {
	return infra.ReliabilityConfig{
		RateLimit:     1000,
		RateBurst:     100,
		CBMaxRequests: 1,
		CBInterval:    time.Minute,
		CBTimeout:     time.Minute,
		CBMaxFailures: 3,
	}
}

func TestReliabilityWrapper_PropagatesTraceID(t *testing.T) {
	src := &stubSource{}
	w := NewReliabilityWrapper(src, testReliability(), nil, zap.NewNop())

	ctx := WithTraceID(context.Background(), "trace-1")
	_, err := w.Do(ctx, connectors.Request{Path: "/transactions"})

	require.NoError(t, err)
	assert.Equal(t, "trace-1", src.lastReq.Header.Get(TraceHeader))
}

func TestReliabilityWrapper_OpensOnNetworkFailures(t *testing.T) {
	src := &stubSource{err: errors.Join(domain.ErrNetwork, errors.New("connection refused"))}
	w := NewReliabilityWrapper(src, testReliability(), nil, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := w.Do(ctx, connectors.Request{Path: "/transactions"})
		require.ErrorIs(t, err, domain.ErrNetwork)
	}

	_, err := w.Do(ctx, connectors.Request{Path: "/transactions"})
	require.ErrorIs(t, err, domain.ErrNetwork)
	assert.Equal(t, 3, src.calls, "open breaker must not reach the backend")
}

func TestReliabilityWrapper_BadStatusKeepsBreakerClosed(t *testing.T) {
	src := &stubSource{err: &connectors.StatusError{Method: http.MethodGet, Path: "/transactions", Code: http.StatusNotFound}}
	w := NewReliabilityWrapper(src, testReliability(), nil, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := w.Do(ctx, connectors.Request{Path: "/transactions"})
		require.ErrorIs(t, err, domain.ErrBadStatus)
	}
	assert.Equal(t, 10, src.calls)
}
