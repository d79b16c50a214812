package paynow

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mstgnz/paynow/provider"
)

// StartRefund asks Paynow to refund part or all of a payment.
// Paynow decides whether the amount exceeds what is refundable.
func (p *Processor) StartRefund(ctx context.Context, ref provider.PaymentRef, request provider.RefundRequest) (*provider.RefundRef, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if ref.PaymentID == "" {
		return nil, fmt.Errorf("paynow: payment id is required: %w", provider.ErrInvalidRequest)
	}
	if err := p.validate.Struct(request); err != nil {
		return nil, fmt.Errorf("paynow: invalid refund request: %w: %w", provider.ErrInvalidRequest, err)
	}

	currency, err := ParseCurrency(request.Currency)
	if err != nil {
		return nil, err
	}
	if !request.Amount.IsPositive() {
		return nil, &provider.ConversionError{
			Amount: request.Amount.String(), Currency: request.Currency, Reason: "amount must be positive",
		}
	}
	amount, err := ToMinorUnits(request.Amount, currency)
	if err != nil {
		return nil, err
	}

	var opts []RequestOption
	if request.IdempotencyKey != "" {
		opts = append(opts, WithIdempotencyKey(request.IdempotencyKey))
	}

	resp, err := p.client.CreateRefund(ctx, ref.PaymentID, CreateRefundRequest{
		Amount: amount,
		Reason: RefundReason(request.Reason),
	}, opts...)
	if err != nil {
		p.log.SetPaymentID(ref.PaymentID).Error("refund failed", err)
		return nil, err
	}

	if _, err := ParseRefundStatus(resp.Status); err != nil {
		p.log.SetPaymentID(ref.PaymentID).AddField("refund_id", resp.RefundID).Error("refund started with unknown status", err)
		return nil, fmt.Errorf("paynow: refund %s: %w", resp.RefundID, err)
	}

	p.log.SetPaymentID(ref.PaymentID).AddField("refund_id", resp.RefundID).Info("refund started")
	return &provider.RefundRef{
		RefundID:       resp.RefundID,
		PaymentID:      ref.PaymentID,
		Status:         resp.Status,
		IdempotencyKey: resp.IdempotencyKey,
	}, nil
}

// GetRefundStatus fetches the current refund status
func (p *Processor) GetRefundStatus(ctx context.Context, refundID string) (*provider.RefundRef, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}

	resp, err := p.client.GetRefundStatus(ctx, refundID)
	if err != nil {
		return nil, err
	}
	if _, err := ParseRefundStatus(resp.Status); err != nil {
		return nil, fmt.Errorf("paynow: %w", err)
	}

	return &provider.RefundRef{
		RefundID: resp.RefundID,
		Status:   resp.Status,
	}, nil
}

// CancelRefund cancels a refund that has not been processed yet. A refund whose cached
// status is already final is rejected without contacting Paynow.
func (p *Processor) CancelRefund(ctx context.Context, ref provider.RefundRef) error {
	if err := p.ready(); err != nil {
		return err
	}

	if ref.Status != "" {
		status, err := ParseRefundStatus(ref.Status)
		if err != nil {
			return fmt.Errorf("paynow: %w", err)
		}
		if status.IsTerminal() {
			return &provider.StateConflictError{RefundID: ref.RefundID, Status: ref.Status}
		}
	}

	err := p.client.CancelRefund(ctx, ref.RefundID)
	if err == nil {
		p.log.AddField("refund_id", ref.RefundID).Info("refund cancelled")
		return nil
	}

	var apiErr *provider.APIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusConflict || apiErr.HasErrorType(ErrorTypeConflict)) {
		return &provider.StateConflictError{RefundID: ref.RefundID, Status: ref.Status, Err: apiErr}
	}
	return err
}
