package paynow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mstgnz/paynow/provider"
)

// VerifyNotification authenticates a raw notification body against its Signature header
// and maps the reported status to triggers. The body is parsed only after the signature
// matches. Duplicate and out-of-order deliveries are passed through unchanged.
func (p *Processor) VerifyNotification(ctx context.Context, rawBody []byte, signature string) (*provider.Notification, error) {
	if p.signer == nil {
		return nil, errors.New("paynow: processor is not initialized")
	}
	if signature == "" {
		return nil, fmt.Errorf("paynow: missing notification signature: %w", provider.ErrInvalidCallback)
	}
	if !p.signer.VerifyNotification(rawBody, signature) {
		p.log.AddField("received_signature", signature).Warn("notification signature mismatch")
		return nil, fmt.Errorf("paynow: notification signature mismatch: %w", provider.ErrInvalidCallback)
	}

	var payload NotificationPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, &provider.ParseError{Op: "notification", Err: err}
	}
	if payload.PaymentID == "" || payload.Status == "" {
		return nil, &provider.ParseError{Op: "notification", Err: errors.New("paymentId and status are required")}
	}

	triggers, err := MapPaymentStatus(payload.Status)
	if err != nil {
		return nil, fmt.Errorf("paynow: %w", err)
	}

	p.log.SetPaymentID(payload.PaymentID).AddField("status", payload.Status).Info("notification verified")
	return &provider.Notification{
		PaymentID:  payload.PaymentID,
		ExternalID: payload.ExternalID,
		Status:     payload.Status,
		ModifiedAt: payload.ModifiedAt,
		Triggers:   triggers,
	}, nil
}
