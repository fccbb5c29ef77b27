// Package httpx provides a small HTTP client abstraction so outbound
// provider calls can be mocked in tests.
package httpx

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

// Client abstracts HTTP operations for testability.
type Client interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// ClientFunc adapts a plain function to the Client interface.
type ClientFunc func(ctx context.Context, req *Request) (*Response, error)

func (f ClientFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Request represents an outgoing HTTP request.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response represents an HTTP response from a provider API.
type Response struct {
	StatusCode int
	Body       []byte
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DefaultClient wraps net/http.Client to implement the Client interface.
type DefaultClient struct {
	client *http.Client
}

// NewClient creates a DefaultClient with the given per-call timeout.
// The timeout bounds the whole exchange so one unresponsive provider
// cannot stall a dispatch indefinitely.
func NewClient(timeout time.Duration) *DefaultClient {
	return &DefaultClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Do converts a httpx.Request to a net/http request, executes it, and
// returns the result with the body fully read.
func (c *DefaultClient) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}
