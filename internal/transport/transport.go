// Package transport defines the minimal HTTP contract the request
// orchestrator depends on. The orchestrator is agnostic to the client
// implementation behind it.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Response is the raw outcome of a completed HTTP exchange. A non-2xx
// status is still a Response, not an error; errors mean the exchange
// itself failed (connection refused, timeout, TLS, cancellation).
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport sends a JSON payload to an endpoint and returns the raw
// response.
type Transport interface {
	Send(ctx context.Context, url string, headers map[string]string, body []byte) (*Response, error)
}

// HTTPTransport implements Transport over net/http.
type HTTPTransport struct {
	mu     sync.Mutex
	client *http.Client
}

// NewHTTP creates an HTTP transport. A zero timeout means no timeout;
// cancellation then comes only from the caller's context.
func NewHTTP(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{Timeout: timeout},
	}
}

// SetTimeout swaps in a fresh client with the new timeout. In-flight
// requests keep the client they started with.
func (t *HTTPTransport) SetTimeout(timeout time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.client = &http.Client{Timeout: timeout}
}

func (t *HTTPTransport) httpClient() *http.Client {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client
}

// Send posts the body and reads the full response.
func (t *HTTPTransport) Send(ctx context.Context, url string, headers map[string]string, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := t.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
	}, nil
}
