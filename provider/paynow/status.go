package paynow

import "github.com/mstgnz/paynow/provider"

// paymentTriggers maps every known payment status to the host triggers it fires
var paymentTriggers = map[PaymentStatus][]provider.Trigger{
	PaymentStatusNew:       {},
	PaymentStatusPending:   {provider.TriggerConfirmPrepared},
	PaymentStatusConfirmed: {provider.TriggerConfirmPayment, provider.TriggerMarkAsPaid},
	PaymentStatusRejected:  {provider.TriggerFail},
	PaymentStatusError:     {provider.TriggerFail},
	PaymentStatusExpired:   {provider.TriggerFail},
	PaymentStatusAbandoned: {provider.TriggerFail},
}

var refundStatuses = map[RefundStatus]bool{
	RefundStatusNew:        false,
	RefundStatusPending:    false,
	RefundStatusSuccessful: true,
	RefundStatusFailed:     true,
	RefundStatusCancelled:  true,
}

// ParsePaymentStatus rejects anything outside the documented status set
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(s)
	if _, ok := paymentTriggers[status]; !ok {
		return "", &provider.UnrecognizedStatusError{Kind: "payment", Status: s}
	}
	return status, nil
}

// MapPaymentStatus returns the triggers for a payment status. It serves both
// inbound notifications and status polling. The returned slice is never nil for a
// known status and is a fresh copy.
func MapPaymentStatus(s string) ([]provider.Trigger, error) {
	status, err := ParsePaymentStatus(s)
	if err != nil {
		return nil, err
	}
	triggers := paymentTriggers[status]
	return append(make([]provider.Trigger, 0, len(triggers)), triggers...), nil
}

// ParseRefundStatus rejects anything outside the documented refund status set
func ParseRefundStatus(s string) (RefundStatus, error) {
	status := RefundStatus(s)
	if _, ok := refundStatuses[status]; !ok {
		return "", &provider.UnrecognizedStatusError{Kind: "refund", Status: s}
	}
	return status, nil
}

// IsTerminal reports whether the refund can no longer change
func (s RefundStatus) IsTerminal() bool {
	return refundStatuses[s]
}
