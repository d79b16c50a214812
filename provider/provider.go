package provider

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Trigger is a named transition signal consumed by the host's payment state machine.
//
// The provider may deliver the same notification more than once and out of order,
// and processors do not deduplicate. The host state machine MUST treat a trigger that
// leads into the state it is already in as a no-op; otherwise duplicate delivery can
// cause double side effects (e.g. double fulfillment).
type Trigger string

const (
	TriggerConfirmPrepared Trigger = "confirm_prepared"
	TriggerConfirmPayment  Trigger = "confirm_payment"
	TriggerMarkAsPaid      Trigger = "mark_as_paid"
	TriggerFail            Trigger = "fail"
)

// ConfigField represents a required configuration field for a payment processor
type ConfigField struct {
	Key         string `json:"key"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // "string", "number", "url", "email", "boolean", "duration"
	Description string `json:"description"`
	Example     string `json:"example"`
	Pattern     string `json:"pattern,omitempty"`
	MinLength   int    `json:"minLength,omitempty"`
	MaxLength   int    `json:"maxLength,omitempty"`
}

// Buyer represents the payer
type Buyer struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName,omitempty" validate:"max=50"`
	LastName  string `json:"lastName,omitempty" validate:"max=50"`
	Phone     string `json:"phone,omitempty" validate:"max=20"`
	Locale    string `json:"locale,omitempty" validate:"omitempty,bcp47_language_tag"`
}

// OrderItem is a single line of the order shown on the provider's paywall
type OrderItem struct {
	Name     string          `json:"name" validate:"required,max=120"`
	Category string          `json:"category,omitempty" validate:"max=100"`
	Quantity int             `json:"quantity" validate:"required,min=1"`
	Price    decimal.Decimal `json:"price"`
}

// PaymentRequest contains everything needed to create a payment.
//
// ContinueURL may contain a {payment_id} placeholder; processors resolve it exactly
// once with ExternalID. A URL without the placeholder is sent unchanged.
type PaymentRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency" validate:"required,paynow_currency"`
	ExternalID     string          `json:"externalId" validate:"required,max=100"`
	Description    string          `json:"description" validate:"required,max=255"`
	Buyer          Buyer           `json:"buyer"`
	ContinueURL    string          `json:"continueUrl,omitempty" validate:"omitempty,max=1000"`
	ValidityTime   int             `json:"validityTime,omitempty" validate:"omitempty,min=60,max=864000"`
	OrderItems     []OrderItem     `json:"orderItems,omitempty" validate:"dive"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty" validate:"max=45"`
}

// PaymentRef is the provider handle of a created payment. It is immutable and is the
// sole handle for every further operation on that payment.
type PaymentRef struct {
	PaymentID      string `json:"paymentId"`
	RedirectURL    string `json:"redirectUrl,omitempty"`
	Status         string `json:"status,omitempty"`
	Currency       string `json:"currency,omitempty"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// RefundRequest asks the provider to return money for a payment.
// The provider is authoritative on whether the amount exceeds what was paid.
type RefundRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency" validate:"required,paynow_currency"`
	Reason         string          `json:"reason,omitempty" validate:"omitempty,refund_reason"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty" validate:"max=45"`
}

// RefundRef is the provider handle of a refund together with the last known status
type RefundRef struct {
	RefundID       string `json:"refundId"`
	PaymentID      string `json:"paymentId,omitempty"`
	Status         string `json:"status,omitempty"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// Notification is a verified inbound status notification with its mapped triggers
type Notification struct {
	PaymentID  string    `json:"paymentId"`
	ExternalID string    `json:"externalId,omitempty"`
	Status     string    `json:"status"`
	ModifiedAt string    `json:"modifiedAt,omitempty"`
	Triggers   []Trigger `json:"triggers"`
}

// PaymentMethod is a single payment method offered by the provider
type PaymentMethod struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	Image             string `json:"image,omitempty"`
	Status            string `json:"status"`
	AuthorizationType string `json:"authorizationType,omitempty"`
}

// PaymentMethodGroup groups payment methods by type (BLIK, CARD, PBL, ...)
type PaymentMethodGroup struct {
	Type    string          `json:"type"`
	Methods []PaymentMethod `json:"paymentMethods"`
}

// PaymentMethodsQuery optionally narrows the payment method listing
type PaymentMethodsQuery struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
}

// Processor is the contract a payment processor exposes to the host.
// Processors are stateless per call: the host owns the authoritative payment status
// and serializes concurrent operations on the same payment if it needs to.
type Processor interface {
	// Initialize sets up the processor with credentials and settings
	Initialize(config map[string]string) error

	// GetRequiredConfig returns the configuration fields of this processor
	GetRequiredConfig(environment string) []ConfigField

	// ValidateConfig validates the provided configuration
	ValidateConfig(config map[string]string) error

	// CreatePayment creates a payment and returns its provider handle
	CreatePayment(ctx context.Context, request PaymentRequest) (*PaymentRef, error)

	// VerifyNotification verifies a raw inbound notification and maps its status to triggers
	VerifyNotification(ctx context.Context, rawBody []byte, signature string) (*Notification, error)

	// PollStatus fetches the current payment status and maps it to triggers
	PollStatus(ctx context.Context, ref PaymentRef) ([]Trigger, error)

	// GetPaymentMethods lists the payment methods available to the merchant
	GetPaymentMethods(ctx context.Context, query PaymentMethodsQuery) ([]PaymentMethodGroup, error)

	// StartRefund creates a refund for a payment
	StartRefund(ctx context.Context, ref PaymentRef, request RefundRequest) (*RefundRef, error)

	// GetRefundStatus fetches the current status of a refund
	GetRefundStatus(ctx context.Context, refundID string) (*RefundRef, error)

	// CancelRefund cancels a refund that has not been processed yet
	CancelRefund(ctx context.Context, ref RefundRef) error

	// Charge captures a pre-authorized payment
	Charge(ctx context.Context, ref PaymentRef, amount decimal.Decimal) error

	// ReleaseLock releases a pre-authorization
	ReleaseLock(ctx context.Context, ref PaymentRef) (decimal.Decimal, error)

	// Close releases transport resources; the processor must not be used afterwards
	Close() error
}

// ProcessorFactory is a function type that creates a new Processor
type ProcessorFactory func() Processor

// ResolveURL replaces the {payment_id} placeholder of a URL template
func ResolveURL(template, paymentID string) string {
	return strings.ReplaceAll(template, "{payment_id}", paymentID)
}
