// Package httpclient provides the HTTP plumbing shared by the remote API clients
package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultTimeout applies when a client is created with a zero timeout
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the default bound on a response body (100MB)
	MaxResponseSize = 100 << 20

	// UserAgent is sent with every request
	UserAgent = "content-sync-server/1.0"
)

// ErrResponseTooLarge is returned when a body exceeds the client's size bound
var ErrResponseTooLarge = errors.New("response too large")

// Client is an interface for HTTP operations
//
//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client
type Client interface {
	// Do sends the request and reads the whole response. Non-2xx statuses are
	// returned as a Response, not an error; errors mean the exchange itself failed.
	Do(ctx context.Context, req *Request) (*Response, error)

	// Get performs an HTTP GET request and returns the response body.
	// Any status other than 200 is returned as *HTTPError.
	Get(ctx context.Context, url string) ([]byte, error)
}

// Option configures a DefaultClient
type Option func(*clientOptions)

type clientOptions struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	maxSize        int64
	base           http.RoundTripper
}

// WithTracerProvider records a client span per request. The global provider is
// used when unset.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *clientOptions) { o.tracerProvider = tp }
}

// WithMeterProvider records the client request metrics
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *clientOptions) { o.meterProvider = mp }
}

// WithMaxResponseSize overrides MaxResponseSize
func WithMaxResponseSize(n int64) Option {
	return func(o *clientOptions) { o.maxSize = n }
}

// WithTransport replaces http.DefaultTransport below the instrumentation
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.base = rt }
}

// DefaultClient sends requests through an instrumented transport and reads
// bounded response bodies
type DefaultClient struct {
	client  *http.Client
	maxSize int64
}

// NewDefaultClient creates a client whose requests time out after timeout,
// or DefaultTimeout when zero
func NewDefaultClient(timeout time.Duration, opts ...Option) Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	o := clientOptions{maxSize: MaxResponseSize}
	for _, opt := range opts {
		opt(&o)
	}

	transport := otelhttp.NewTransport(o.base,
		otelhttp.WithTracerProvider(o.tracerProvider),
		otelhttp.WithMeterProvider(o.meterProvider),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Host
		}),
	)
	return &DefaultClient{
		client:  &http.Client{Timeout: timeout, Transport: transport},
		maxSize: o.maxSize,
	}
}

// Do sends an API request
func (c *DefaultClient) Do(ctx context.Context, r *Request) (*Response, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if r.Header != nil {
		req.Header = r.Header.Clone()
	}
	req.Header.Set("User-Agent", UserAgent)
	if r.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := c.readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", r.Method, r.URL, err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// Get performs an HTTP GET request
func (c *DefaultClient) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Do(ctx, &Request{Method: http.MethodGet, URL: url})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, url, http.StatusText(resp.StatusCode))
	}
	return resp.Body, nil
}

// readBody reads at most maxSize bytes. A declared or actual length above
// the bound fails with ErrResponseTooLarge.
func (c *DefaultClient) readBody(resp *http.Response) ([]byte, error) {
	if resp.ContentLength > c.maxSize {
		return nil, fmt.Errorf("%w: %d bytes declared, limit %d", ErrResponseTooLarge, resp.ContentLength, c.maxSize)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > c.maxSize {
		return nil, fmt.Errorf("%w: limit %d", ErrResponseTooLarge, c.maxSize)
	}
	return data, nil
}
