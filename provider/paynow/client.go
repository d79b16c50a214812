package paynow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mstgnz/paynow/provider"
)

const userAgent = "paynow-go/1.0"

// Credentials authenticate the merchant against Paynow. Both values are secret.
type Credentials struct {
	APIKey       string
	SignatureKey string
}

// String redacts both secrets
func (c Credentials) String() string {
	return "paynow.Credentials{APIKey: [REDACTED], SignatureKey: [REDACTED]}"
}

// GoString redacts both secrets in %#v output
func (c Credentials) GoString() string {
	return c.String()
}

// ClientConfig configures a Client
type ClientConfig struct {
	Credentials Credentials
	Environment Environment
	// BaseURL overrides the environment host. Intended for tests.
	BaseURL string
	// Timeout bounds each request; zero leaves requests bounded only by their context.
	Timeout time.Duration
}

type requestOptions struct {
	idempotencyKey string
}

// RequestOption customizes a single API call
type RequestOption func(*requestOptions)

// WithIdempotencyKey sends the given key instead of a freshly generated one.
// Retries of the same logical operation must reuse the key of the first attempt.
func WithIdempotencyKey(key string) RequestOption {
	return func(o *requestOptions) {
		o.idempotencyKey = key
	}
}

// Client is a signing Paynow V3 API client. It is safe for concurrent use.
type Client struct {
	credentials Credentials
	signer      *SignatureCalculator
	httpClient  *provider.ProviderHTTPClient
}

// NewClient creates a client that owns its own connection pool
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Credentials.APIKey == "" {
		return nil, errors.New("paynow: api key is required")
	}
	signer, err := NewSignatureCalculator(cfg.Credentials.SignatureKey)
	if err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = cfg.Environment.BaseURL()
	}

	return &Client{
		credentials: cfg.Credentials,
		signer:      signer,
		httpClient: provider.NewProviderHTTPClient(&provider.HTTPClientConfig{
			BaseURL: baseURL,
			Timeout: cfg.Timeout,
			DefaultHeaders: map[string]string{
				"Accept":     "application/json",
				"User-Agent": userAgent,
			},
		}),
	}, nil
}

// Close releases the connection pool. It is safe to call more than once.
func (c *Client) Close() error {
	return c.httpClient.Close()
}

// CreatePayment registers a new payment and returns the redirect URL for the buyer
func (c *Client) CreatePayment(ctx context.Context, req CreatePaymentRequest, opts ...RequestOption) (*CreatePaymentResponse, error) {
	body, err := compactJSON(req)
	if err != nil {
		return nil, fmt.Errorf("paynow: failed to encode payment request: %w", err)
	}

	resp, key, err := c.do(ctx, http.MethodPost, endpointPayments, body, nil, opts)
	if err != nil {
		return nil, err
	}

	var out CreatePaymentResponse
	if err := decode(resp, "create payment", &out); err != nil {
		return nil, err
	}
	if out.PaymentID == "" || out.Status == "" {
		return nil, &provider.ParseError{Op: "create payment", Err: errors.New("paymentId and status are required")}
	}
	out.IdempotencyKey = key
	return &out, nil
}

// GetPaymentStatus fetches the current status of a payment
func (c *Client) GetPaymentStatus(ctx context.Context, paymentID string, opts ...RequestOption) (*PaymentStatusResponse, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("paynow: payment id is required: %w", provider.ErrInvalidRequest)
	}

	endpoint := fmt.Sprintf(endpointPaymentStatus, url.PathEscape(paymentID))
	resp, _, err := c.do(ctx, http.MethodGet, endpoint, nil, nil, opts)
	if err != nil {
		return nil, err
	}

	var out PaymentStatusResponse
	if err := decode(resp, "payment status", &out); err != nil {
		return nil, err
	}
	if out.Status == "" {
		return nil, &provider.ParseError{Op: "payment status", Err: errors.New("status is required")}
	}
	if out.PaymentID == "" {
		out.PaymentID = paymentID
	}
	return &out, nil
}

// GetPaymentMethods lists the payment methods available for the merchant
func (c *Client) GetPaymentMethods(ctx context.Context, query PaymentMethodsQuery, opts ...RequestOption) ([]PaymentMethodGroup, error) {
	params := map[string]string{}
	if query.Amount > 0 {
		params["amount"] = strconv.FormatInt(query.Amount, 10)
	}
	if query.Currency != "" {
		params["currency"] = string(query.Currency)
	}

	resp, _, err := c.do(ctx, http.MethodGet, endpointPaymentMethods, nil, params, opts)
	if err != nil {
		return nil, err
	}

	var out []PaymentMethodGroup
	if err := decode(resp, "payment methods", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateRefund requests a refund of a payment
func (c *Client) CreateRefund(ctx context.Context, paymentID string, req CreateRefundRequest, opts ...RequestOption) (*CreateRefundResponse, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("paynow: payment id is required: %w", provider.ErrInvalidRequest)
	}
	body, err := compactJSON(req)
	if err != nil {
		return nil, fmt.Errorf("paynow: failed to encode refund request: %w", err)
	}

	endpoint := fmt.Sprintf(endpointRefunds, url.PathEscape(paymentID))
	resp, key, err := c.do(ctx, http.MethodPost, endpoint, body, nil, opts)
	if err != nil {
		return nil, err
	}

	var out CreateRefundResponse
	if err := decode(resp, "create refund", &out); err != nil {
		return nil, err
	}
	if out.RefundID == "" {
		return nil, &provider.ParseError{Op: "create refund", Err: errors.New("refundId is required")}
	}
	out.IdempotencyKey = key
	return &out, nil
}

// GetRefundStatus fetches the current status of a refund
func (c *Client) GetRefundStatus(ctx context.Context, refundID string, opts ...RequestOption) (*RefundStatusResponse, error) {
	if refundID == "" {
		return nil, fmt.Errorf("paynow: refund id is required: %w", provider.ErrInvalidRequest)
	}

	endpoint := fmt.Sprintf(endpointRefundStatus, url.PathEscape(refundID))
	resp, _, err := c.do(ctx, http.MethodGet, endpoint, nil, nil, opts)
	if err != nil {
		return nil, err
	}

	var out RefundStatusResponse
	if err := decode(resp, "refund status", &out); err != nil {
		return nil, err
	}
	if out.Status == "" {
		return nil, &provider.ParseError{Op: "refund status", Err: errors.New("status is required")}
	}
	if out.RefundID == "" {
		out.RefundID = refundID
	}
	return &out, nil
}

// CancelRefund cancels a refund that Paynow has not processed yet
func (c *Client) CancelRefund(ctx context.Context, refundID string, opts ...RequestOption) error {
	if refundID == "" {
		return fmt.Errorf("paynow: refund id is required: %w", provider.ErrInvalidRequest)
	}

	endpoint := fmt.Sprintf(endpointRefundCancel, url.PathEscape(refundID))
	_, _, err := c.do(ctx, http.MethodPost, endpoint, nil, nil, opts)
	return err
}

// do signs and sends a request, returning the response and the idempotency key used
func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, params map[string]string, opts []RequestOption) (*provider.HTTPResponse, string, error) {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	key := o.idempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	if len(key) > maxIdempotencyKeyLength {
		return nil, "", fmt.Errorf("paynow: idempotency key exceeds %d characters: %w", maxIdempotencyKeyLength, provider.ErrInvalidRequest)
	}

	signature, err := c.signer.RequestSignature(c.credentials.APIKey, key, body, params)
	if err != nil {
		return nil, "", err
	}

	headers := map[string]string{
		headerAPIKey:         c.credentials.APIKey,
		headerIdempotencyKey: key,
		headerSignature:      signature,
	}
	if body != nil {
		headers["Content-Type"] = "application/json"
	}

	resp, err := c.httpClient.Send(ctx, &provider.HTTPRequest{
		Method:      method,
		Endpoint:    endpoint,
		Headers:     headers,
		Body:        body,
		QueryParams: params,
	})
	if err != nil {
		var apiErr *provider.APIError
		if errors.As(err, &apiErr) {
			apiErr.Details = parseErrorDetails(apiErr.Body)
			return resp, key, fmt.Errorf("paynow: %s %s: %w", method, endpoint, apiErr)
		}
		return nil, key, fmt.Errorf("paynow: %w", err)
	}
	return resp, key, nil
}

// parseErrorDetails decodes a Paynow error body; unknown shapes yield no details
func parseErrorDetails(body []byte) []provider.APIErrorDetail {
	if len(body) == 0 {
		return nil
	}
	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return nil
	}
	return er.Errors
}

func decode(resp *provider.HTTPResponse, op string, v any) error {
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return &provider.ParseError{Op: op, Err: err}
	}
	return nil
}
