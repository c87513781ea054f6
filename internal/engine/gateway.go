package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/xela07ax/fraudwatch-console/internal/connectors"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
)

// Ресурсы бэкенда скоринга
const (
	PathPredictBatch = "/predict_batch"
	PathPredict      = "/predict"
	PathTransactions = "/transactions"
	PathAnalytics    = "/transactions/analytics"
	PathReview       = "/review/"
)

// TransactionQuery — фильтры списка транзакций.
type TransactionQuery struct {
	Page         int
	ManualReview bool // только помеченные моделью для ручной проверки
	PendingOnly  bool // только без вердикта оператора
}

// Values сериализует фильтры в query-параметры. Нулевые значения не передаются,
// чтобы бэкенд применял свои умолчания.
func (q TransactionQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.ManualReview {
		v.Set("manual_review", "true")
	}
	if q.PendingOnly {
		v.Set("pending", "true")
	}
	return v
}

// Gateway — типизированные операции над бэкендом поверх DataSource.
type Gateway struct {
	source DataSource
}

func NewGateway(source DataSource) *Gateway {
	return &Gateway{source: source}
}

func (g *Gateway) Source() DataSource {
	return g.source
}

// FetchTransactions возвращает страницу и снимок ответа (для последующего сравнения свежести).
func (g *Gateway) FetchTransactions(ctx context.Context, q TransactionQuery) (*domain.TransactionsPage, *Snapshot, error) {
	var page domain.TransactionsPage
	snap, err := g.fetch(ctx, PathTransactions, q.Values(), &page)
	if err != nil {
		return nil, nil, err
	}
	if page.Data == nil {
		page.Data = []domain.Transaction{}
	}
	return &page, snap, nil
}

func (g *Gateway) FetchAnalytics(ctx context.Context) (*domain.AnalyticsSnapshot, *Snapshot, error) {
	var a domain.AnalyticsSnapshot
	snap, err := g.fetch(ctx, PathAnalytics, nil, &a)
	if err != nil {
		return nil, nil, err
	}
	return &a, snap, nil
}

// SubmitBatch отправляет CSV на пакетный скоринг. Любой отказ — ErrUploadFailed.
func (g *Gateway) SubmitBatch(ctx context.Context, filename string, file io.Reader) error {
	body, contentType := connectors.MultipartFile("file", filename, file)
	defer body.Close()

	_, err := g.source.Do(ctx, connectors.Request{
		Method:      http.MethodPost,
		Path:        PathPredictBatch,
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUploadFailed, err)
	}
	return nil
}

// SubmitReview фиксирует вердикт оператора: PUT /review/{id}?reviewed_prediction={v}.
func (g *Gateway) SubmitReview(ctx context.Context, id int64, verdict domain.Verdict) error {
	_, err := g.source.Do(ctx, connectors.Request{
		Method: http.MethodPut,
		Path:   PathReview + strconv.FormatInt(id, 10),
		Query:  url.Values{"reviewed_prediction": {strconv.Itoa(int(verdict))}},
	})
	if err != nil {
		return fmt.Errorf("%w: transaction %d: %w", domain.ErrReviewSubmitFailed, id, err)
	}
	return nil
}

// Predict скорит одну транзакцию синхронно.
func (g *Gateway) Predict(ctx context.Context, in domain.TransactionInput) (*domain.Transaction, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}

	resp, err := g.source.Do(ctx, connectors.Request{
		Method:      http.MethodPost,
		Path:        PathPredict,
		Body:        bytes.NewReader(payload),
		ContentType: "application/json",
	})
	if err != nil {
		return nil, err
	}

	var tx domain.Transaction
	if err := json.Unmarshal(resp.Body, &tx); err != nil {
		return nil, fmt.Errorf("decode prediction: %w", err)
	}
	return &tx, nil
}

func (g *Gateway) fetch(ctx context.Context, path string, query url.Values, dst any) (*Snapshot, error) {
	resp, err := g.source.Do(ctx, connectors.Request{Path: path, Query: query})
	if err != nil {
		return nil, err
	}
	snap, err := NewSnapshot(resp.Body, resp.ETag)
	if err != nil {
		return nil, err
	}
	if err := snap.Decode(dst); err != nil {
		return nil, err
	}
	return snap, nil
}
