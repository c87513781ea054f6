package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/fraudwatch-console/internal/connectors"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
	"github.com/xela07ax/fraudwatch-console/internal/infra"
	"go.uber.org/zap"
)

// countingBackend отвечает по сценарию responses[i] на i-й запрос, последний ответ повторяется.
type countingBackend struct {
	hits      atomic.Int32
	responses []func(w http.ResponseWriter)
}

func (b *countingBackend) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	i := int(b.hits.Add(1)) - 1
	if i >= len(b.responses) {
		i = len(b.responses) - 1
	}
	b.responses[i](w)
}

func body(s string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(s))
	}
}

func status(code int) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) { w.WriteHeader(code) }
}

func newTestPoller(t *testing.T, h http.Handler, attempts uint) *Poller {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	src, err := connectors.NewHTTPSource(srv.URL, time.Second)
	require.NoError(t, err)
	return NewPoller(src, infra.PollingConfig{Interval: time.Millisecond, MaxAttempts: attempts}, nil, zap.NewNop())
}

func TestPoller_ExhaustsExactlyMaxAttempts(t *testing.T) {
	tests := []struct {
		name     string
		response func(w http.ResponseWriter)
	}{
		{"unchanged", body(`{"data":[1]}`)},
		{"bad status", status(http.StatusInternalServerError)},
		{"empty object", body(`{}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &countingBackend{responses: []func(http.ResponseWriter){tt.response}}
			p := newTestPoller(t, backend, 4)

			_, err := p.Poll(context.Background(), "/transactions", nil, snap(t, `{"data":[1]}`, ""))

			require.ErrorIs(t, err, domain.ErrPollTimeout)
			assert.Equal(t, int32(4), backend.hits.Load())
		})
	}
}

func TestPoller_ReturnsFirstDifferingResponse(t *testing.T) {
	backend := &countingBackend{responses: []func(http.ResponseWriter){
		body(`{"data":[1]}`),
		status(http.StatusServiceUnavailable),
		body(`{"data":[1,2]}`),
		body(`{"data":[1,2,3]}`),
	}}
	p := newTestPoller(t, backend, 10)

	got, err := p.Poll(context.Background(), "/transactions", nil, snap(t, `{"data":[1]}`, ""))

	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[1,2]}`, string(got.Body))
	assert.Equal(t, int32(3), backend.hits.Load())
}

func TestPoller_NilPreviousAcceptsFirstNonEmpty(t *testing.T) {
	backend := &countingBackend{responses: []func(http.ResponseWriter){
		body(`null`),
		body(`{"total":5}`),
	}}
	p := newTestPoller(t, backend, 10)

	got, err := p.Poll(context.Background(), "/transactions/analytics", nil, nil)

	require.NoError(t, err)
	assert.False(t, got.Empty())
	assert.Equal(t, int32(2), backend.hits.Load())
}

func TestPoller_StopsOnContextCancel(t *testing.T) {
	backend := &countingBackend{responses: []func(http.ResponseWriter){status(http.StatusNotFound)}}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	src, err := connectors.NewHTTPSource(srv.URL, time.Second)
	require.NoError(t, err)
	p := NewPoller(src, infra.PollingConfig{Interval: time.Hour, MaxAttempts: 10}, nil, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = p.Poll(ctx, "/transactions", nil, nil)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, domain.ErrPollTimeout)
	assert.Equal(t, int32(1), backend.hits.Load())
}
