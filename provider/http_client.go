package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

// HTTPClientConfig represents configuration for HTTP client
type HTTPClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	DefaultHeaders map[string]string
}

// HTTPRequest represents a standardized HTTP request.
// Body is sent byte-for-byte as given so that signed bytes equal wire bytes.
type HTTPRequest struct {
	Method      string
	Endpoint    string
	Headers     map[string]string
	Body        []byte
	QueryParams map[string]string
}

// HTTPResponse represents a standardized HTTP response
type HTTPResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// ProviderHTTPClient provides standardized HTTP operations for payment processors.
// It owns its transport; Close releases pooled connections.
type ProviderHTTPClient struct {
	config    *HTTPClientConfig
	client    *http.Client
	transport *http.Transport
	closed    atomic.Bool
}

// NewProviderHTTPClient creates a new provider HTTP client.
// A zero Timeout leaves requests bounded only by their context.
func NewProviderHTTPClient(config *HTTPClientConfig) *ProviderHTTPClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	return &ProviderHTTPClient{
		config:    config,
		transport: transport,
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
	}
}

// Send performs the request. Transport failures are returned as *TransportError.
// Non-2xx responses are returned together with a *APIError carrying the raw body.
func (c *ProviderHTTPClient) Send(ctx context.Context, req *HTTPRequest) (*HTTPResponse, error) {
	op := req.Method + " " + req.Endpoint
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	fullURL, err := c.buildURL(req.Endpoint, req.QueryParams)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	for key, value := range c.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	response := &HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return response, &APIError{StatusCode: resp.StatusCode, Body: respBody}
	}

	return response, nil
}

// Close releases idle connections. Further calls to Send fail with ErrClientClosed.
func (c *ProviderHTTPClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.transport.CloseIdleConnections()
	return nil
}

// Closed reports whether Close has been called
func (c *ProviderHTTPClient) Closed() bool {
	return c.closed.Load()
}

func joinURL(base, endpoint string) string {
	if strings.HasSuffix(base, "/") && strings.HasPrefix(endpoint, "/") {
		return base + endpoint[1:]
	}
	if !strings.HasSuffix(base, "/") && !strings.HasPrefix(endpoint, "/") {
		return base + "/" + endpoint
	}
	return base + endpoint
}

// buildURL constructs the full URL with query parameters
func (c *ProviderHTTPClient) buildURL(endpoint string, queryParams map[string]string) (string, error) {
	if c.config.BaseURL == "" {
		return "", errors.New("base URL is not configured")
	}
	fullURL := joinURL(c.config.BaseURL, endpoint)
	if len(queryParams) == 0 {
		return fullURL, nil
	}

	u, err := url.Parse(fullURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for key, value := range queryParams {
		q.Set(key, value)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
