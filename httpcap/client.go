package httpcap

import (
	"context"
	"io"
	"net/http"
	"strings"
)

// Request is the provider-neutral HTTP request an HTTP content node
// issues (spec.md §4.7).
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

// Response is the result handed back to the node for insertion into its
// outgoing edges.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

// Executor is the capability graph's node package depends on; Client is
// its production implementation, a fake is substituted in tests.
type Executor interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// Client executes Requests over net/http with retry/backoff applied
// beneath each call.
type Client struct {
	hc    *http.Client
	retry RetryConfig
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default *http.Client (e.g. to inject a
// custom transport or timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithRetryConfig overrides DefaultRetryConfig.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// NewClient builds a Client with DefaultRetryConfig unless overridden.
func NewClient(opts ...Option) *Client {
	c := &Client{hc: http.DefaultClient, retry: DefaultRetryConfig()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Executor = (*Client)(nil)

// Do issues req, retrying transient failures per the client's RetryConfig.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	resp, err := withRetry(ctx, c.retry, func() (*http.Response, error) {
		httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, strings.NewReader(req.Body))
		if err != nil {
			return nil, err
		}
		for k, v := range req.Headers {
			httpReq.Header.Set(k, v)
		}
		return c.hc.Do(httpReq)
	})
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}
	return Response{StatusCode: resp.StatusCode, Headers: headers, Body: string(body)}, nil
}
