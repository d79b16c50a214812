package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/paynow/infra/idempotency"
	"github.com/mstgnz/paynow/infra/response"
	"github.com/mstgnz/paynow/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProcessor records calls and answers with canned results
type mockProcessor struct {
	mu sync.Mutex

	payments    []provider.PaymentRequest
	refunds     []provider.RefundRequest
	cancelled   []provider.RefundRef
	polled      []provider.PaymentRef
	methodQuery provider.PaymentMethodsQuery

	createErr  error
	pollErr    error
	refundErr  error
	cancelErr  error
	triggers   []provider.Trigger
	refundStat string

	notification *provider.Notification
	notifyErr    error
}

var _ provider.Processor = (*mockProcessor)(nil)

func (m *mockProcessor) Initialize(map[string]string) error { return nil }
func (m *mockProcessor) GetRequiredConfig(string) []provider.ConfigField { return nil }
func (m *mockProcessor) ValidateConfig(map[string]string) error { return nil }
func (m *mockProcessor) Close() error { return nil }

func (m *mockProcessor) CreatePayment(ctx context.Context, req provider.PaymentRequest) (*provider.PaymentRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = append(m.payments, req)
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &provider.PaymentRef{
		PaymentID:      "NOA0-YJB-X6O-5KR",
		RedirectURL:    "https://paywall.sandbox.paynow.pl/NOA0-YJB-X6O-5KR",
		Status:         "NEW",
		Currency:       req.Currency,
		IdempotencyKey: req.IdempotencyKey,
	}, nil
}

func (m *mockProcessor) VerifyNotification(ctx context.Context, raw []byte, signature string) (*provider.Notification, error) {
	return m.notification, m.notifyErr
}

func (m *mockProcessor) PollStatus(ctx context.Context, ref provider.PaymentRef) ([]provider.Trigger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polled = append(m.polled, ref)
	return m.triggers, m.pollErr
}

func (m *mockProcessor) GetPaymentMethods(ctx context.Context, query provider.PaymentMethodsQuery) ([]provider.PaymentMethodGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.methodQuery = query
	return []provider.PaymentMethodGroup{{
		Type:    "BLIK",
		Methods: []provider.PaymentMethod{{ID: 2007, Name: "BLIK", Status: "ENABLED"}},
	}}, nil
}

func (m *mockProcessor) StartRefund(ctx context.Context, ref provider.PaymentRef, req provider.RefundRequest) (*provider.RefundRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refunds = append(m.refunds, req)
	if m.refundErr != nil {
		return nil, m.refundErr
	}
	return &provider.RefundRef{RefundID: "R3FU-UND-D8K-WZD", PaymentID: ref.PaymentID, Status: "NEW", IdempotencyKey: req.IdempotencyKey}, nil
}

func (m *mockProcessor) GetRefundStatus(ctx context.Context, refundID string) (*provider.RefundRef, error) {
	return &provider.RefundRef{RefundID: refundID, Status: m.refundStat}, nil
}

func (m *mockProcessor) CancelRefund(ctx context.Context, ref provider.RefundRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = append(m.cancelled, ref)
	return m.cancelErr
}

func (m *mockProcessor) Charge(context.Context, provider.PaymentRef, decimal.Decimal) error {
	return provider.ErrNotImplemented
}

func (m *mockProcessor) ReleaseLock(context.Context, provider.PaymentRef) (decimal.Decimal, error) {
	return decimal.Zero, provider.ErrNotImplemented
}

func newPaymentRouter(h *PaymentHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/payments", h.CreatePayment)
	r.Get("/v1/payments/methods", h.GetPaymentMethods)
	r.Get("/v1/payments/{paymentID}/status", h.GetPaymentStatus)
	r.Post("/v1/payments/{paymentID}/refunds", h.StartRefund)
	r.Post("/v1/payments/{paymentID}/charge", h.Charge)
	r.Post("/v1/payments/{paymentID}/release", h.ReleaseLock)
	r.Get("/v1/refunds/{refundID}", h.GetRefundStatus)
	r.Post("/v1/refunds/{refundID}/cancel", h.CancelRefund)
	return r
}

func serve(t *testing.T, h http.Handler, method, target, body string, headers map[string]string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp response.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

const paymentBody = `{
	"amount": "49.99",
	"currency": "PLN",
	"externalId": "order-1001",
	"description": "Order 1001",
	"buyer": {"email": "jan.kowalski@example.com"}
}`

func TestPaymentHandler_CreatePayment(t *testing.T) {
	proc := &mockProcessor{}
	keys := idempotency.NewMemoryStore(time.Hour)
	h := newPaymentRouter(NewPaymentHandler(proc, keys))

	w, resp := serve(t, h, http.MethodPost, "/v1/payments", paymentBody, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "NOA0-YJB-X6O-5KR", data["paymentId"])

	require.Len(t, proc.payments, 1)
	sent := proc.payments[0]
	assert.True(t, decimal.RequireFromString("49.99").Equal(sent.Amount))
	assert.NotEmpty(t, sent.IdempotencyKey)
}

func TestPaymentHandler_CreatePayment_RetryReusesKey(t *testing.T) {
	proc := &mockProcessor{}
	h := newPaymentRouter(NewPaymentHandler(proc, idempotency.NewMemoryStore(time.Hour)))

	serve(t, h, http.MethodPost, "/v1/payments", paymentBody, nil)
	serve(t, h, http.MethodPost, "/v1/payments", paymentBody, nil)

	require.Len(t, proc.payments, 2)
	assert.Equal(t, proc.payments[0].IdempotencyKey, proc.payments[1].IdempotencyKey)
}

func TestPaymentHandler_CreatePayment_CallerKeyWins(t *testing.T) {
	proc := &mockProcessor{}
	h := newPaymentRouter(NewPaymentHandler(proc, idempotency.NewMemoryStore(time.Hour)))

	body := strings.Replace(paymentBody, `"currency"`, `"idempotencyKey": "caller-key-1", "currency"`, 1)
	w, _ := serve(t, h, http.MethodPost, "/v1/payments", body, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "caller-key-1", proc.payments[0].IdempotencyKey)
}

func TestPaymentHandler_CreatePayment_WithoutStore(t *testing.T) {
	proc := &mockProcessor{}
	h := newPaymentRouter(NewPaymentHandler(proc, nil))

	w, _ := serve(t, h, http.MethodPost, "/v1/payments", paymentBody, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, proc.payments[0].IdempotencyKey)
}

func TestPaymentHandler_CreatePayment_ForgetsKeyOnRejection(t *testing.T) {
	proc := &mockProcessor{createErr: &provider.APIError{StatusCode: http.StatusBadRequest, Details: []provider.APIErrorDetail{{ErrorType: "VALIDATION_ERROR", Message: "buyer.email"}}}}
	h := newPaymentRouter(NewPaymentHandler(proc, idempotency.NewMemoryStore(time.Hour)))

	w, resp := serve(t, h, http.MethodPost, "/v1/payments", paymentBody, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, resp.Error, "VALIDATION_ERROR")

	proc.createErr = nil
	serve(t, h, http.MethodPost, "/v1/payments", paymentBody, nil)

	require.Len(t, proc.payments, 2)
	assert.NotEqual(t, proc.payments[0].IdempotencyKey, proc.payments[1].IdempotencyKey)
}

func TestPaymentHandler_CreatePayment_KeepsKeyOnTransportError(t *testing.T) {
	proc := &mockProcessor{createErr: &provider.TransportError{Op: "POST /v3/payments", Err: context.DeadlineExceeded}}
	h := newPaymentRouter(NewPaymentHandler(proc, idempotency.NewMemoryStore(time.Hour)))

	w, _ := serve(t, h, http.MethodPost, "/v1/payments", paymentBody, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	proc.createErr = nil
	serve(t, h, http.MethodPost, "/v1/payments", paymentBody, nil)
	assert.Equal(t, proc.payments[0].IdempotencyKey, proc.payments[1].IdempotencyKey)
}

func TestPaymentHandler_CreatePayment_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "malformed json", body: `{"amount":`},
		{name: "unknown currency", body: strings.Replace(paymentBody, `"PLN"`, `"CHF"`, 1), field: "currency"},
		{name: "missing email", body: strings.Replace(paymentBody, `"jan.kowalski@example.com"`, `""`, 1), field: "buyer.email"},
		{name: "missing external id", body: strings.Replace(paymentBody, `"order-1001"`, `""`, 1), field: "externalId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := &mockProcessor{}
			h := newPaymentRouter(NewPaymentHandler(proc, nil))

			w, resp := serve(t, h, http.MethodPost, "/v1/payments", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, resp.Success)
			assert.Empty(t, proc.payments)
			if tt.field != "" {
				fields, ok := resp.Data.(map[string]any)
				require.True(t, ok)
				assert.Contains(t, fields, tt.field)
			}
		})
	}
}

func TestPaymentHandler_GetPaymentMethods(t *testing.T) {
	proc := &mockProcessor{}
	h := newPaymentRouter(NewPaymentHandler(proc, nil))

	w, resp := serve(t, h, http.MethodGet, "/v1/payments/methods?amount=49.99&currency=PLN", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp.Data, 1)
	assert.True(t, decimal.RequireFromString("49.99").Equal(proc.methodQuery.Amount))
	assert.Equal(t, "PLN", proc.methodQuery.Currency)

	w, _ = serve(t, h, http.MethodGet, "/v1/payments/methods?amount=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_GetPaymentStatus(t *testing.T) {
	proc := &mockProcessor{triggers: []provider.Trigger{provider.TriggerConfirmPayment, provider.TriggerMarkAsPaid}}
	h := newPaymentRouter(NewPaymentHandler(proc, nil))

	w, resp := serve(t, h, http.MethodGet, "/v1/payments/NOA0-YJB-X6O-5KR/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "NOA0-YJB-X6O-5KR", data["paymentId"])
	assert.Equal(t, []any{"confirm_payment", "mark_as_paid"}, data["triggers"])
	assert.Equal(t, "NOA0-YJB-X6O-5KR", proc.polled[0].PaymentID)
}

func TestPaymentHandler_GetPaymentStatus_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "unrecognized", err: &provider.UnrecognizedStatusError{Kind: "payment", Status: "WEIRD"}, want: http.StatusBadRequest},
		{name: "unauthorized", err: &provider.APIError{StatusCode: http.StatusUnauthorized}, want: http.StatusBadGateway},
		{name: "closed", err: provider.ErrClientClosed, want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newPaymentRouter(NewPaymentHandler(&mockProcessor{pollErr: tt.err}, nil))
			w, _ := serve(t, h, http.MethodGet, "/v1/payments/P1/status", "", nil)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestPaymentHandler_StartRefund(t *testing.T) {
	proc := &mockProcessor{}
	h := newPaymentRouter(NewPaymentHandler(proc, idempotency.NewMemoryStore(time.Hour)))
	body := `{"amount": "10.00", "currency": "PLN", "reason": "REFUND_BEFORE_14"}`
	headers := map[string]string{RefundReferenceHeader: "rma-77"}

	w, resp := serve(t, h, http.MethodPost, "/v1/payments/NOA0-YJB-X6O-5KR/refunds", body, headers)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := resp.Data.(map[string]any)
	assert.Equal(t, "R3FU-UND-D8K-WZD", data["refundId"])
	assert.Equal(t, "NOA0-YJB-X6O-5KR", data["paymentId"])

	serve(t, h, http.MethodPost, "/v1/payments/NOA0-YJB-X6O-5KR/refunds", body, headers)
	require.Len(t, proc.refunds, 2)
	assert.NotEmpty(t, proc.refunds[0].IdempotencyKey)
	assert.Equal(t, proc.refunds[0].IdempotencyKey, proc.refunds[1].IdempotencyKey)

	serve(t, h, http.MethodPost, "/v1/payments/NOA0-YJB-X6O-5KR/refunds", body, nil)
	assert.Empty(t, proc.refunds[2].IdempotencyKey)
}

func TestPaymentHandler_StartRefund_Invalid(t *testing.T) {
	h := newPaymentRouter(NewPaymentHandler(&mockProcessor{}, nil))

	w, resp := serve(t, h, http.MethodPost, "/v1/payments/P1/refunds", `{"amount": "10.00", "currency": "PLN", "reason": "BORED"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp.Data, "reason")
}

func TestPaymentHandler_RefundStatusAndCancel(t *testing.T) {
	proc := &mockProcessor{refundStat: "PENDING"}
	h := newPaymentRouter(NewPaymentHandler(proc, nil))

	w, resp := serve(t, h, http.MethodGet, "/v1/refunds/R1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PENDING", resp.Data.(map[string]any)["status"])

	w, _ = serve(t, h, http.MethodPost, "/v1/refunds/R1/cancel?status=PENDING", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, provider.RefundRef{RefundID: "R1", Status: "PENDING"}, proc.cancelled[0])

	proc.cancelErr = &provider.StateConflictError{RefundID: "R1", Status: "SUCCESSFUL"}
	w, resp = serve(t, h, http.MethodPost, "/v1/refunds/R1/cancel?status=SUCCESSFUL", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, resp.Success)
}

func TestPaymentHandler_ChargeAndRelease(t *testing.T) {
	h := newPaymentRouter(NewPaymentHandler(&mockProcessor{}, nil))

	w, _ := serve(t, h, http.MethodPost, "/v1/payments/P1/charge", `{"amount": "10.00"}`, nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	w, _ = serve(t, h, http.MethodPost, "/v1/payments/P1/release", "", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}
