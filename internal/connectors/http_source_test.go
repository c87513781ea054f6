package connectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
)

func TestHTTPSource_ResponseSizeLimit(t *testing.T) {
	body := strings.Repeat("x", 64)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	tests := []struct {
		name    string
		limit   int64
		wantErr bool
	}{
		{name: "exactly at limit", limit: 64},
		{name: "over limit", limit: 63, wantErr: true},
		{name: "non-positive keeps default", limit: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewHTTPSource(srv.URL, time.Second, WithMaxResponseBytes(tt.limit))
			require.NoError(t, err)

			resp, err := src.Do(context.Background(), Request{Path: "/transactions"})
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrNetwork)
				assert.Contains(t, err.Error(), "exceeds 63 bytes")
				return
			}
			require.NoError(t, err)
			assert.Len(t, resp.Body, len(body))
		})
	}
}
