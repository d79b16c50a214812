package paynow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mstgnz/paynow/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey       = "97a55694-5478-43b5-b406-fb49ebfdd2b5"
	testSignatureKey = "b305b996-bca5-4404-a0b7-2ccea3d2b64b"
)

// recordedRequest is what the fake Paynow server saw
type recordedRequest struct {
	Method         string
	Path           string
	Query          map[string]string
	Body           []byte
	IdempotencyKey string
	Headers        http.Header
}

// fakePaynow is an httptest server that checks request signatures and records requests
type fakePaynow struct {
	t        *testing.T
	server   *httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r recordedRequest)
}

func newFakePaynow(t *testing.T, handler func(w http.ResponseWriter, r recordedRequest)) *fakePaynow {
	t.Helper()
	f := &fakePaynow{t: t, handler: handler}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakePaynow) serve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	query := map[string]string{}
	for k, v := range r.URL.Query() {
		query[k] = v[0]
	}

	rec := recordedRequest{
		Method:         r.Method,
		Path:           r.URL.EscapedPath(),
		Query:          query,
		Body:           body,
		IdempotencyKey: r.Header.Get(headerIdempotencyKey),
		Headers:        r.Header.Clone(),
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	var signedBody []byte
	if len(body) > 0 {
		signedBody = body
	}
	payload, err := CanonicalPayload(r.Header.Get(headerAPIKey), rec.IdempotencyKey, signedBody, query)
	if err != nil || hmacBase64(testSignatureKey, payload) != r.Header.Get(headerSignature) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"statusCode":401,"errors":[{"errorType":"UNAUTHORIZED","message":"signature mismatch"}]}`)
		return
	}

	f.handler(w, rec)
}

func (f *fakePaynow) calls() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakePaynow) client(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{
		Credentials: Credentials{APIKey: testAPIKey, SignatureKey: testSignatureKey},
		Environment: EnvironmentSandbox,
		BaseURL:     f.server.URL,
		Timeout:     5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(ClientConfig{Credentials: Credentials{SignatureKey: "s"}})
	assert.Error(t, err)

	_, err = NewClient(ClientConfig{Credentials: Credentials{APIKey: "k"}})
	assert.Error(t, err)

	c, err := NewClient(ClientConfig{Credentials: Credentials{APIKey: "k", SignatureKey: "s"}})
	require.NoError(t, err)
	assert.NoError(t, c.Close())
}

func TestEnvironmentBaseURL(t *testing.T) {
	assert.Equal(t, "https://api.sandbox.paynow.pl", EnvironmentSandbox.BaseURL())
	assert.Equal(t, "https://api.paynow.pl", EnvironmentProduction.BaseURL())

	_, err := ParseEnvironment("staging")
	assert.Error(t, err)
}

func TestCredentials_Redacted(t *testing.T) {
	creds := Credentials{APIKey: testAPIKey, SignatureKey: testSignatureKey}
	for _, s := range []string{creds.String(), fmt.Sprintf("%v", creds), fmt.Sprintf("%+v", creds), fmt.Sprintf("%#v", creds)} {
		assert.NotContains(t, s, testAPIKey)
		assert.NotContains(t, s, testSignatureKey)
	}
}

func TestClient_CreatePayment(t *testing.T) {
	fake := newFakePaynow(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusCreated, `{"redirectUrl":"https://paywall.sandbox.paynow.pl/NOA0-YJZ-9XT-AQ4","paymentId":"NOA0-YJZ-9XT-AQ4","status":"NEW"}`)
	})
	c := fake.client(t)

	resp, err := c.CreatePayment(context.Background(), CreatePaymentRequest{
		Amount:      4999,
		Currency:    CurrencyPLN,
		ExternalID:  "order-1",
		Description: "Order #1",
		Buyer:       BuyerData{Email: "jan.kowalski@melements.pl"},
	})
	require.NoError(t, err)
	assert.Equal(t, "NOA0-YJZ-9XT-AQ4", resp.PaymentID)
	assert.Equal(t, "NEW", resp.Status)
	assert.NotEmpty(t, resp.IdempotencyKey)

	calls := fake.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, "/v3/payments", calls[0].Path)
	assert.Equal(t, resp.IdempotencyKey, calls[0].IdempotencyKey)
	assert.Equal(t, testAPIKey, calls[0].Headers.Get("Api-Key"))
	assert.Equal(t, "application/json", calls[0].Headers.Get("Content-Type"))
	assert.Equal(t, "application/json", calls[0].Headers.Get("Accept"))

	var sent map[string]any
	require.NoError(t, json.Unmarshal(calls[0].Body, &sent))
	assert.EqualValues(t, 4999, sent["amount"])
	assert.Equal(t, "PLN", sent["currency"])
	assert.NotContains(t, sent, "continueUrl")
}

func TestClient_IdempotencyKey(t *testing.T) {
	fake := newFakePaynow(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusOK, `{"redirectUrl":"https://paywall","paymentId":"P1","status":"NEW"}`)
	})
	c := fake.client(t)
	req := CreatePaymentRequest{Amount: 100, Currency: CurrencyPLN, ExternalID: "o", Description: "d", Buyer: BuyerData{Email: "a@b.pl"}}

	first, err := c.CreatePayment(context.Background(), req)
	require.NoError(t, err)
	second, err := c.CreatePayment(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, first.IdempotencyKey, second.IdempotencyKey)

	retry, err := c.CreatePayment(context.Background(), req, WithIdempotencyKey(first.IdempotencyKey))
	require.NoError(t, err)
	assert.Equal(t, first.IdempotencyKey, retry.IdempotencyKey)
	assert.Equal(t, first.IdempotencyKey, fake.calls()[2].IdempotencyKey)

	_, err = c.CreatePayment(context.Background(), req, WithIdempotencyKey("0123456789012345678901234567890123456789012345"))
	assert.ErrorIs(t, err, provider.ErrInvalidRequest)
	assert.Len(t, fake.calls(), 3)
}

func TestClient_GetPaymentStatus(t *testing.T) {
	fake := newFakePaynow(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusOK, `{"paymentId":"NOLV-8F9-08K-WGD","status":"CONFIRMED"}`)
	})
	c := fake.client(t)

	resp, err := c.GetPaymentStatus(context.Background(), "NOLV-8F9-08K-WGD")
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", resp.Status)

	calls := fake.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodGet, calls[0].Method)
	assert.Equal(t, "/v3/payments/NOLV-8F9-08K-WGD/status", calls[0].Path)
	assert.Empty(t, calls[0].Body)
	assert.Empty(t, calls[0].Headers.Get("Content-Type"))
}

func TestClient_GetPaymentStatus_EscapesPath(t *testing.T) {
	fake := newFakePaynow(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusOK, `{"paymentId":"a/b","status":"NEW"}`)
	})
	c := fake.client(t)

	_, err := c.GetPaymentStatus(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "/v3/payments/a%2Fb/status", fake.calls()[0].Path)
}

func TestClient_GetPaymentMethods(t *testing.T) {
	fake := newFakePaynow(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusOK, `[{"type":"BLIK","paymentMethods":[{"id":2007,"name":"BLIK","description":"BLIK","image":"https://static.paynow.pl/payment-method-icons/2007.png","status":"ENABLED","authorizationType":"CODE"}]}]`)
	})
	c := fake.client(t)

	groups, err := c.GetPaymentMethods(context.Background(), PaymentMethodsQuery{Amount: 4999, Currency: CurrencyPLN})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "BLIK", groups[0].Type)
	assert.Equal(t, 2007, groups[0].PaymentMethods[0].ID)
	assert.Equal(t, "CODE", groups[0].PaymentMethods[0].AuthorizationType)
	assert.Equal(t, MethodStatusEnabled, groups[0].PaymentMethods[0].Status)

	calls := fake.calls()
	assert.Equal(t, map[string]string{"amount": "4999", "currency": "PLN"}, calls[0].Query)
}

func TestClient_Refunds(t *testing.T) {
	fake := newFakePaynow(t, func(w http.ResponseWriter, r recordedRequest) {
		switch r.Path {
		case "/v3/payments/P1/refunds":
			writeJSON(w, http.StatusCreated, `{"refundId":"R1","status":"PENDING"}`)
		case "/v3/refunds/R1/status":
			writeJSON(w, http.StatusOK, `{"refundId":"R1","status":"SUCCESSFUL"}`)
		case "/v3/refunds/R1/cancel":
			w.WriteHeader(http.StatusAccepted)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c := fake.client(t)
	ctx := context.Background()

	created, err := c.CreateRefund(ctx, "P1", CreateRefundRequest{Amount: 1000, Reason: RefundReasonRMA})
	require.NoError(t, err)
	assert.Equal(t, "R1", created.RefundID)
	assert.Equal(t, "PENDING", created.Status)
	assert.JSONEq(t, `{"amount":1000,"reason":"RMA"}`, string(fake.calls()[0].Body))

	status, err := c.GetRefundStatus(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESSFUL", status.Status)

	require.NoError(t, c.CancelRefund(ctx, "R1"))
	last := fake.calls()[2]
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Empty(t, last.Body)
}

func TestClient_APIError(t *testing.T) {
	fake := newFakePaynow(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusBadRequest, `{"statusCode":400,"errors":[{"errorType":"VALIDATION_ERROR","message":"amount: must be greater than 0"}]}`)
	})
	c := fake.client(t)

	_, err := c.CreatePayment(context.Background(), CreatePaymentRequest{Currency: CurrencyPLN})
	var apiErr *provider.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Len(t, apiErr.Details, 1)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Details[0].ErrorType)
	assert.True(t, apiErr.HasErrorType("VALIDATION_ERROR"))
	assert.NotErrorIs(t, err, provider.ErrUnauthorized)
}

func TestClient_Unauthorized(t *testing.T) {
	fake := newFakePaynow(t, func(w http.ResponseWriter, r recordedRequest) {})
	c, err := NewClient(ClientConfig{
		Credentials: Credentials{APIKey: testAPIKey, SignatureKey: "wrong-key"},
		BaseURL:     fake.server.URL,
	})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.GetPaymentStatus(context.Background(), "P1")
	assert.ErrorIs(t, err, provider.ErrUnauthorized)
}

func TestClient_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>oops</html>`},
		{name: "missing payment id", body: `{"redirectUrl":"https://paywall","status":"NEW"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakePaynow(t, func(w http.ResponseWriter, r recordedRequest) {
				writeJSON(w, http.StatusOK, tt.body)
			})
			c := fake.client(t)

			_, err := c.CreatePayment(context.Background(), CreatePaymentRequest{Currency: CurrencyPLN})
			var parseErr *provider.ParseError
			assert.True(t, errors.As(err, &parseErr), "got %v", err)
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	fake := newFakePaynow(t, func(w http.ResponseWriter, r recordedRequest) {})
	c := fake.client(t)
	fake.server.Close()

	_, err := c.GetPaymentStatus(context.Background(), "P1")
	var transportErr *provider.TransportError
	assert.True(t, errors.As(err, &transportErr), "got %v", err)
}

func TestClient_ContextCancelled(t *testing.T) {
	fake := newFakePaynow(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusOK, `{"paymentId":"P1","status":"NEW"}`)
	})
	c := fake.client(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetPaymentStatus(ctx, "P1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Close(t *testing.T) {
	fake := newFakePaynow(t, func(w http.ResponseWriter, r recordedRequest) {
		writeJSON(w, http.StatusOK, `{"paymentId":"P1","status":"NEW"}`)
	})
	c := fake.client(t)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err := c.GetPaymentStatus(context.Background(), "P1")
	assert.ErrorIs(t, err, provider.ErrClientClosed)
	assert.Empty(t, fake.calls())
}
