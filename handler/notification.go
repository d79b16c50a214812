package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/paynow/infra/logger"
	"github.com/mstgnz/paynow/infra/middle"
	"github.com/mstgnz/paynow/infra/opensearch"
	"github.com/mstgnz/paynow/infra/response"
	"github.com/mstgnz/paynow/provider"
)

const (
	// SignatureHeader carries the notification signature
	SignatureHeader = "Signature"

	maxNotificationBytes = 1 << 20
	auditTimeout         = 5 * time.Second
)

// TriggerHandler applies the triggers of a verified notification to the host's
// payment state machine. The same notification may arrive more than once and out
// of order; applying a trigger that leads into the current state must be a no-op.
type TriggerHandler interface {
	HandleTriggers(ctx context.Context, notification *provider.Notification) error
}

// TriggerHandlerFunc adapts a function to TriggerHandler
type TriggerHandlerFunc func(ctx context.Context, notification *provider.Notification) error

func (f TriggerHandlerFunc) HandleTriggers(ctx context.Context, notification *provider.Notification) error {
	return f(ctx, notification)
}

// LoggingTriggerHandler only logs the triggers; used when no host state machine is attached
type LoggingTriggerHandler struct{}

func (LoggingTriggerHandler) HandleTriggers(ctx context.Context, n *provider.Notification) error {
	triggers := make([]string, len(n.Triggers))
	for i, t := range n.Triggers {
		triggers[i] = string(t)
	}
	logger.Info("notification triggers", logger.LogContext{
		Provider:  "paynow",
		RequestID: middle.RequestIDFromContext(ctx),
		PaymentID: n.PaymentID,
		Fields: map[string]any{
			"status":      n.Status,
			"external_id": n.ExternalID,
			"triggers":    triggers,
		},
	})
	return nil
}

// NotificationAuditor records every inbound notification
type NotificationAuditor interface {
	LogNotification(ctx context.Context, entry opensearch.NotificationLog) error
}

// NotificationHandler receives Paynow status notifications
type NotificationHandler struct {
	processor provider.Processor
	triggers  TriggerHandler
	audit     NotificationAuditor
}

// NewNotificationHandler creates a notification handler. audit may be nil.
func NewNotificationHandler(processor provider.Processor, triggers TriggerHandler, audit NotificationAuditor) *NotificationHandler {
	if triggers == nil {
		triggers = LoggingTriggerHandler{}
	}
	return &NotificationHandler{
		processor: processor,
		triggers:  triggers,
		audit:     audit,
	}
}

// HandleNotification handles POST /webhooks/paynow. It answers 200 with an empty body
// once the triggers are applied; any other status makes Paynow deliver again.
func (h *NotificationHandler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationBytes+1))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Failed to read notification", err)
		return
	}
	if len(body) > maxNotificationBytes {
		response.Error(w, http.StatusRequestEntityTooLarge, "Notification too large", nil)
		return
	}

	entry := opensearch.NotificationLog{
		RequestID: middle.RequestIDFromContext(r.Context()),
		ClientIP:  middle.GetClientIP(r),
	}

	notification, err := h.processor.VerifyNotification(r.Context(), body, r.Header.Get(SignatureHeader))
	if err != nil {
		entry.SignatureValid = !errors.Is(err, provider.ErrInvalidCallback)
		entry.Error = err.Error()
		h.record(r.Context(), entry)

		status := http.StatusBadRequest
		if response.StatusFor(err) == http.StatusInternalServerError {
			status = http.StatusInternalServerError
		}
		response.Error(w, status, "Notification rejected", err)
		return
	}

	entry.SignatureValid = true
	entry.PaymentID = notification.PaymentID
	entry.ExternalID = notification.ExternalID
	entry.Status = notification.Status
	entry.ModifiedAt = notification.ModifiedAt
	for _, t := range notification.Triggers {
		entry.Triggers = append(entry.Triggers, string(t))
	}

	if err := h.triggers.HandleTriggers(r.Context(), notification); err != nil {
		entry.Error = err.Error()
		h.record(r.Context(), entry)

		logger.Error("failed to apply notification triggers", err, logger.LogContext{
			Provider:  "paynow",
			RequestID: entry.RequestID,
			PaymentID: notification.PaymentID,
			Fields:    map[string]any{"status": notification.Status},
		})
		response.Error(w, http.StatusInternalServerError, "Failed to process notification", err)
		return
	}

	h.record(r.Context(), entry)
	w.WriteHeader(http.StatusOK)
}

// record writes the audit entry; audit failures never change the answer to Paynow
func (h *NotificationHandler) record(ctx context.Context, entry opensearch.NotificationLog) {
	if h.audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	if err := h.audit.LogNotification(ctx, entry); err != nil {
		logger.Warn("failed to audit notification", logger.LogContext{
			Provider:  "paynow",
			RequestID: entry.RequestID,
			PaymentID: entry.PaymentID,
			Fields:    map[string]any{"error": err.Error()},
		})
	}
}

// NotificationSearcher reads the notification audit trail
type NotificationSearcher interface {
	GetPaymentNotifications(ctx context.Context, paymentID string) ([]opensearch.NotificationLog, error)
	GetRejectedNotifications(ctx context.Context, hours int) ([]opensearch.NotificationLog, error)
}

// AuditHandler serves the notification audit trail
type AuditHandler struct {
	search NotificationSearcher
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(search NotificationSearcher) *AuditHandler {
	return &AuditHandler{search: search}
}

// GetPaymentNotifications handles GET /v1/payments/{paymentID}/notifications
func (h *AuditHandler) GetPaymentNotifications(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")
	if paymentID == "" {
		response.Error(w, http.StatusBadRequest, "Missing payment ID", nil)
		return
	}

	logs, err := h.search.GetPaymentNotifications(r.Context(), paymentID)
	if err != nil {
		h.searchFailed(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Notifications retrieved", logs)
}

// GetRejectedNotifications handles GET /v1/notifications/rejected?hours=
func (h *AuditHandler) GetRejectedNotifications(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 720 {
			response.Error(w, http.StatusBadRequest, "hours must be between 1 and 720", nil)
			return
		}
		hours = parsed
	}

	logs, err := h.search.GetRejectedNotifications(r.Context(), hours)
	if err != nil {
		h.searchFailed(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Rejected notifications retrieved", logs)
}

func (h *AuditHandler) searchFailed(w http.ResponseWriter, err error) {
	if errors.Is(err, opensearch.ErrAuditDisabled) {
		response.Error(w, http.StatusServiceUnavailable, "Notification audit is disabled", err)
		return
	}
	response.Error(w, http.StatusBadGateway, "Failed to search notifications", err)
}
