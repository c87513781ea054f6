package connectors

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/xela07ax/fraudwatch-console/internal/domain"
)

// Request — описание одного обращения к бэкенду. Path относительный: origin задаётся конфигом.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Header      http.Header
	Body        io.Reader
	ContentType string
}

// Response — тело успешного ответа и ETag, если бэкенд его прислал.
type Response struct {
	Body []byte
	ETag string
}

// DefaultMaxResponseBytes — потолок тела ответа, если он не задан опцией.
const DefaultMaxResponseBytes int64 = 32 << 20

// HTTPSource — тонкий RemoteDataSource: "сходить по URL и вернуть JSON", без бизнес-логики.
type HTTPSource struct {
	baseURL *url.URL
	client  *http.Client
	maxBody int64
}

type SourceOption func(*HTTPSource)

// WithMaxResponseBytes ограничивает тело ответа. n <= 0 оставляет значение по умолчанию.
func WithMaxResponseBytes(n int64) SourceOption {
	return func(s *HTTPSource) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// NewHTTPSource создает источник данных для заданного origin
func NewHTTPSource(baseURL string, timeout time.Duration, opts ...SourceOption) (*HTTPSource, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend base url %q must be absolute", baseURL)
	}

	s := &HTTPSource{
		baseURL: u,
		client:  &http.Client{Timeout: timeout},
		maxBody: DefaultMaxResponseBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Do реализует интерфейс engine.DataSource
func (s *HTTPSource) Do(ctx context.Context, req Request) (*Response, error) {
	target := *s.baseURL
	target.Path = s.baseURL.Path + req.Path
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, vals := range req.Header {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrNetwork, method, req.Path, err)
	}
	defer resp.Body.Close()

	// +1 байт отличает ответ ровно на пределе от обрезанного
	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body of %s: %v", domain.ErrNetwork, req.Path, err)
	}
	if int64(len(body)) > s.maxBody {
		return nil, fmt.Errorf("%w: %s %s: response exceeds %d bytes", domain.ErrNetwork, method, req.Path, s.maxBody)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, Path: req.Path, Code: resp.StatusCode}
	}

	return &Response{Body: body, ETag: resp.Header.Get("ETag")}, nil
}

// MultipartFile стримит файл в multipart/form-data через pipe, не держа его целиком в памяти.
// Возвращает тело и Content-Type с boundary. Вызывающий обязан закрыть тело,
// иначе при отказе до отправки запроса горутина записи останется висеть.
func MultipartFile(field, filename string, r io.Reader) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
		h.Set("Content-Type", "text/csv") // бэкенд принимает только text/csv
		part, err := mw.CreatePart(h)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	return pr, mw.FormDataContentType()
}
