package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/yolodolo42/ledgers/internal/errs"
	"github.com/yolodolo42/ledgers/internal/logging"
	"github.com/yolodolo42/ledgers/internal/metrics"
)

// Request is a single remuneration API call.
type Request struct {
	Method  string
	URI     string
	Headers map[string]string
	Body    []byte
}

// Response carries the status as-is; callers decide what a status means.
type Response struct {
	Status int
	Body   []byte
}

// Transport performs one attempt of a request. An error means the request
// did not complete; any HTTP status is a successful Send.
type Transport interface {
	Send(ctx context.Context, req Request) (*Response, error)
}

// maxBody bounds how much of a response is read.
const maxBody = 10 << 20

// HTTPTransport sends requests with net/http.
type HTTPTransport struct {
	client  *http.Client
	logger  logging.Logger
	metrics metrics.Recorder
}

type Option func(*HTTPTransport)

func WithLogger(l logging.Logger) Option {
	return func(t *HTTPTransport) {
		t.logger = logging.OrNoop(l)
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(t *HTTPTransport) {
		t.metrics = metrics.OrNoop(r)
	}
}

func WithClient(c *http.Client) Option {
	return func(t *HTTPTransport) {
		t.client = c
	}
}

// WithTimeout bounds each request. Zero leaves requests bounded only by ctx.
func WithTimeout(d time.Duration) Option {
	return func(t *HTTPTransport) {
		t.client = &http.Client{Timeout: d, Transport: t.client.Transport}
	}
}

func NewHTTPTransport(opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		client:  &http.Client{},
		logger:  logging.NoopLogger{},
		metrics: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *HTTPTransport) Send(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URI, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	host := httpReq.URL.Host
	start := time.Now()
	t.logger.Debug("remuneration request", map[string]any{"method": method, "host": host, "path": httpReq.URL.Path})

	resp, err := t.client.Do(httpReq)
	t.metrics.ObserveLatency("http_"+method, time.Since(start), map[string]string{"host": host})
	if err != nil {
		t.logger.Warn("remuneration request failed", map[string]any{"host": host, "error": err.Error()})
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	t.logger.Debug("remuneration response", map[string]any{"host": host, "status": resp.StatusCode})
	return &Response{Status: resp.StatusCode, Body: data}, nil
}

// DecodeJSON sends req and decodes a 2xx JSON body into out. Failures of any
// kind come back as KindTransport errors labelled with op.
func DecodeJSON(ctx context.Context, t Transport, op string, req Request, out any) error {
	resp, err := t.Send(ctx, req)
	if err != nil {
		return errs.Transport(op, err)
	}
	if resp.Status < 200 || resp.Status > 299 {
		return errs.TransportStatus(op, resp.Status)
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return errs.Transport(op, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// bearer renders the Authorization header value for token.
func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func pathEscape(s string) string {
	return url.PathEscape(s)
}
