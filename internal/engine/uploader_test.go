package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
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

const batchCSV = `step,type,amount,oldbalanceOrg,newbalanceOrig,oldbalanceDest,newbalanceDest
1,PAYMENT,100,1000,900,0,0
2,TRANSFER,5000,5000,0,0,5000
`

func newTestUploader(t *testing.T, h http.Handler, attempts uint) (*Uploader, *Gateway) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	src, err := connectors.NewHTTPSource(srv.URL, time.Second)
	require.NoError(t, err)

	gw := NewGateway(src)
	poller := NewPoller(src, infra.PollingConfig{Interval: time.Millisecond, MaxAttempts: attempts}, nil, zap.NewNop())
	return NewUploader(gw, poller, nil, nil, zap.NewNop()), gw
}

func TestUploader_ReturnsFreshResultsTogether(t *testing.T) {
	mock := connectors.NewMockBackend(connectors.WithPublishAfter(3))
	mock.Seed(domain.Transaction{ID: 1, Step: 1, Amount: 10})
	u, gw := newTestUploader(t, mock, 10)

	ctx := context.Background()
	_, prevTx, err := gw.FetchTransactions(ctx, TransactionQuery{})
	require.NoError(t, err)
	_, prevAnalytics, err := gw.FetchAnalytics(ctx)
	require.NoError(t, err)

	res, err := u.Upload(ctx, "batch.csv", strings.NewReader(batchCSV), prevTx, prevAnalytics)

	require.NoError(t, err)
	assert.Len(t, res.Transactions.Data, 3)
	assert.Equal(t, 3, res.Transactions.Pagination.TotalItems)
	assert.Equal(t, 3, res.Analytics.SummaryStats.TotalTransactions)
	assert.Equal(t, 1, res.Analytics.FraudulentCount)
	assert.True(t, res.TransactionsSnapshot.Differs(prevTx))
	assert.True(t, res.AnalyticsSnapshot.Differs(prevAnalytics))
}

func TestUploader_SubmitFailureSkipsPolling(t *testing.T) {
	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /predict_batch", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	mux.HandleFunc("GET /", func(w http.ResponseWriter, _ *http.Request) {
		polls.Add(1)
		w.Write([]byte(`{"data":[1]}`))
	})
	u, _ := newTestUploader(t, mux, 3)

	_, err := u.Upload(context.Background(), "batch.csv", strings.NewReader(batchCSV), nil, nil)

	require.ErrorIs(t, err, domain.ErrUploadFailed)
	assert.NotErrorIs(t, err, domain.ErrProcessingTimeout)
	assert.Zero(t, polls.Load())
}

func TestUploader_TimesOutWhenResultsNeverAppear(t *testing.T) {
	mock := connectors.NewMockBackend(connectors.WithPublishAfter(1000))
	mock.Seed(domain.Transaction{ID: 1})
	u, gw := newTestUploader(t, mock, 3)

	ctx := context.Background()
	_, prevTx, err := gw.FetchTransactions(ctx, TransactionQuery{})
	require.NoError(t, err)
	_, prevAnalytics, err := gw.FetchAnalytics(ctx)
	require.NoError(t, err)

	res, err := u.Upload(ctx, "batch.csv", strings.NewReader(batchCSV), prevTx, prevAnalytics)

	assert.Nil(t, res)
	require.ErrorIs(t, err, domain.ErrProcessingTimeout)
	assert.ErrorIs(t, err, domain.ErrPollTimeout)
	assert.Contains(t, domain.UserMessage(err), "did not appear in time")
}

func TestUploader_OneResourceStaleFailsWhole(t *testing.T) {
	// Транзакции обновляются, аналитика — нет: частичный результат недопустим
	var version atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /predict_batch", func(w http.ResponseWriter, _ *http.Request) {
		version.Add(1)
	})
	mux.HandleFunc("GET /transactions", func(w http.ResponseWriter, _ *http.Request) {
		if version.Load() > 0 {
			w.Write([]byte(`{"data":[{"id":1}],"pagination":{"total_items":1}}`))
			return
		}
		w.Write([]byte(`{"data":[],"pagination":{}}`))
	})
	mux.HandleFunc("GET /transactions/analytics", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"legitimate_count":0}`))
	})
	u, _ := newTestUploader(t, mux, 3)

	prevTx := snap(t, `{"data":[],"pagination":{}}`, "")
	prevAnalytics := snap(t, `{"legitimate_count":0}`, "")

	res, err := u.Upload(context.Background(), "batch.csv", strings.NewReader(batchCSV), prevTx, prevAnalytics)

	assert.Nil(t, res)
	require.ErrorIs(t, err, domain.ErrProcessingTimeout)
}
