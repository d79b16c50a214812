package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/paynow/infra/idempotency"
	"github.com/mstgnz/paynow/infra/logger"
	"github.com/mstgnz/paynow/infra/middle"
	"github.com/mstgnz/paynow/infra/response"
	"github.com/mstgnz/paynow/infra/validate"
	"github.com/mstgnz/paynow/provider"
	"github.com/shopspring/decimal"
)

// RefundReferenceHeader lets API callers name a refund so that retries reuse its idempotency key
const RefundReferenceHeader = "X-Refund-Reference"

const requestTimeout = 30 * time.Second

// PaymentHandler serves the payment API on top of a processor
type PaymentHandler struct {
	processor provider.Processor
	keys      idempotency.Store
}

// NewPaymentHandler creates a payment handler. keys may be nil, in which case
// every call gets a fresh idempotency key from the processor.
func NewPaymentHandler(processor provider.Processor, keys idempotency.Store) *PaymentHandler {
	return &PaymentHandler{
		processor: processor,
		keys:      keys,
	}
}

// PaymentStatusResponse is returned by GetPaymentStatus
type PaymentStatusResponse struct {
	PaymentID string             `json:"paymentId"`
	Triggers  []provider.Trigger `json:"triggers"`
}

// CreatePayment handles POST /v1/payments
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req provider.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", err)
		return
	}

	scope := "payment:" + req.ExternalID
	if req.IdempotencyKey == "" {
		key, err := h.resolveKey(ctx, scope)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to resolve idempotency key", err)
			return
		}
		req.IdempotencyKey = key
	}

	ref, err := h.processor.CreatePayment(ctx, req)
	if err != nil {
		h.forgetRejected(ctx, scope, err)
		h.log(r, "payment creation failed", err)
		response.FromError(w, "Payment creation failed", err)
		return
	}

	response.Success(w, http.StatusCreated, "Payment created", ref)
}

// GetPaymentMethods handles GET /v1/payments/methods?amount=&currency=
func (h *PaymentHandler) GetPaymentMethods(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var query provider.PaymentMethodsQuery
	if raw := r.URL.Query().Get("amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid amount", err)
			return
		}
		query.Amount = amount
	}
	query.Currency = r.URL.Query().Get("currency")

	groups, err := h.processor.GetPaymentMethods(ctx, query)
	if err != nil {
		h.log(r, "payment methods lookup failed", err)
		response.FromError(w, "Failed to get payment methods", err)
		return
	}

	response.Success(w, http.StatusOK, "Payment methods retrieved", groups)
}

// GetPaymentStatus handles GET /v1/payments/{paymentID}/status
func (h *PaymentHandler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	paymentID := chi.URLParam(r, "paymentID")
	if paymentID == "" {
		response.Error(w, http.StatusBadRequest, "Missing payment ID", nil)
		return
	}

	triggers, err := h.processor.PollStatus(ctx, provider.PaymentRef{PaymentID: paymentID})
	if err != nil {
		h.log(r, "payment status poll failed", err)
		response.FromError(w, "Failed to get payment status", err)
		return
	}

	response.Success(w, http.StatusOK, "Payment status retrieved", PaymentStatusResponse{
		PaymentID: paymentID,
		Triggers:  triggers,
	})
}

// StartRefund handles POST /v1/payments/{paymentID}/refunds
func (h *PaymentHandler) StartRefund(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	paymentID := chi.URLParam(r, "paymentID")
	if paymentID == "" {
		response.Error(w, http.StatusBadRequest, "Missing payment ID", nil)
		return
	}

	var req provider.RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", err)
		return
	}

	var scope string
	if reference := r.Header.Get(RefundReferenceHeader); reference != "" && req.IdempotencyKey == "" {
		scope = fmt.Sprintf("refund:%s:%s", paymentID, reference)
		key, err := h.resolveKey(ctx, scope)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to resolve idempotency key", err)
			return
		}
		req.IdempotencyKey = key
	}

	ref, err := h.processor.StartRefund(ctx, provider.PaymentRef{PaymentID: paymentID}, req)
	if err != nil {
		if scope != "" {
			h.forgetRejected(ctx, scope, err)
		}
		h.log(r, "refund creation failed", err)
		response.FromError(w, "Refund failed", err)
		return
	}

	response.Success(w, http.StatusCreated, "Refund created", ref)
}

// GetRefundStatus handles GET /v1/refunds/{refundID}
func (h *PaymentHandler) GetRefundStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	refundID := chi.URLParam(r, "refundID")
	if refundID == "" {
		response.Error(w, http.StatusBadRequest, "Missing refund ID", nil)
		return
	}

	ref, err := h.processor.GetRefundStatus(ctx, refundID)
	if err != nil {
		h.log(r, "refund status lookup failed", err)
		response.FromError(w, "Failed to get refund status", err)
		return
	}

	response.Success(w, http.StatusOK, "Refund status retrieved", ref)
}

// CancelRefund handles POST /v1/refunds/{refundID}/cancel. The optional status
// query parameter carries the last status the caller knows of.
func (h *PaymentHandler) CancelRefund(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	refundID := chi.URLParam(r, "refundID")
	if refundID == "" {
		response.Error(w, http.StatusBadRequest, "Missing refund ID", nil)
		return
	}

	ref := provider.RefundRef{
		RefundID: refundID,
		Status:   r.URL.Query().Get("status"),
	}
	if err := h.processor.CancelRefund(ctx, ref); err != nil {
		h.log(r, "refund cancellation failed", err)
		response.FromError(w, "Failed to cancel refund", err)
		return
	}

	response.Success(w, http.StatusOK, "Refund cancelled", map[string]string{"refundId": refundID})
}

// Charge handles POST /v1/payments/{paymentID}/charge
func (h *PaymentHandler) Charge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid request format", err)
			return
		}
	}

	err := h.processor.Charge(r.Context(), provider.PaymentRef{PaymentID: chi.URLParam(r, "paymentID")}, req.Amount)
	if err != nil {
		response.FromError(w, "Charge is not available", err)
		return
	}
	response.Success(w, http.StatusOK, "Payment charged", nil)
}

// ReleaseLock handles POST /v1/payments/{paymentID}/release
func (h *PaymentHandler) ReleaseLock(w http.ResponseWriter, r *http.Request) {
	released, err := h.processor.ReleaseLock(r.Context(), provider.PaymentRef{PaymentID: chi.URLParam(r, "paymentID")})
	if err != nil {
		response.FromError(w, "Release is not available", err)
		return
	}
	response.Success(w, http.StatusOK, "Lock released", map[string]string{"amount": released.String()})
}

func (h *PaymentHandler) resolveKey(ctx context.Context, scope string) (string, error) {
	if h.keys == nil {
		return "", nil
	}
	key, _, err := h.keys.Key(ctx, scope)
	return key, err
}

// forgetRejected unbinds the key of a request the provider refused as invalid.
// The caller corrects such a request and resends it under the same scope.
func (h *PaymentHandler) forgetRejected(ctx context.Context, scope string, err error) {
	var apiErr *provider.APIError
	if h.keys == nil || !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		return
	}
	if ferr := h.keys.Forget(ctx, scope); ferr != nil {
		logger.Warn("failed to forget idempotency key", logger.LogContext{Fields: map[string]any{
			"scope": scope,
			"error": ferr.Error(),
		}})
	}
}

func (h *PaymentHandler) log(r *http.Request, message string, err error) {
	logger.Error(message, err, logger.LogContext{
		Provider:  "paynow",
		RequestID: middle.RequestIDFromContext(r.Context()),
		Fields: map[string]any{
			"path":   r.URL.Path,
			"status": response.StatusFor(err),
		},
	})
}
