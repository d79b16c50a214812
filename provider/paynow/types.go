package paynow

import (
	"fmt"

	"github.com/mstgnz/paynow/provider"
)

// Environment selects the Paynow API host
type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

const (
	apiSandboxURL    = "https://api.sandbox.paynow.pl"
	apiProductionURL = "https://api.paynow.pl"

	endpointPayments       = "/v3/payments"
	endpointPaymentStatus  = "/v3/payments/%s/status"
	endpointPaymentMethods = "/v3/payments/paymentmethods"
	endpointRefunds        = "/v3/payments/%s/refunds"
	endpointRefundStatus   = "/v3/refunds/%s/status"
	endpointRefundCancel   = "/v3/refunds/%s/cancel"

	headerAPIKey         = "Api-Key"
	headerIdempotencyKey = "Idempotency-Key"
	headerSignature      = "Signature"

	maxIdempotencyKeyLength = 45
)

// BaseURL returns the fixed API host for the environment
func (e Environment) BaseURL() string {
	if e == EnvironmentProduction {
		return apiProductionURL
	}
	return apiSandboxURL
}

// ParseEnvironment accepts "sandbox" and "production"
func ParseEnvironment(s string) (Environment, error) {
	switch Environment(s) {
	case EnvironmentSandbox, EnvironmentProduction:
		return Environment(s), nil
	}
	return "", fmt.Errorf("paynow: unknown environment %q", s)
}

// Currency is an ISO 4217 code accepted by Paynow
type Currency string

const (
	CurrencyPLN Currency = "PLN"
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
)

// Currencies lists the accepted currencies in a stable order
var Currencies = []Currency{CurrencyPLN, CurrencyEUR, CurrencyUSD, CurrencyGBP}

// PaymentStatus is the closed set of payment statuses reported by Paynow
type PaymentStatus string

const (
	PaymentStatusNew       PaymentStatus = "NEW"
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusConfirmed PaymentStatus = "CONFIRMED"
	PaymentStatusRejected  PaymentStatus = "REJECTED"
	PaymentStatusError     PaymentStatus = "ERROR"
	PaymentStatusExpired   PaymentStatus = "EXPIRED"
	PaymentStatusAbandoned PaymentStatus = "ABANDONED"
)

// RefundStatus is the closed set of refund statuses reported by Paynow
type RefundStatus string

const (
	RefundStatusNew        RefundStatus = "NEW"
	RefundStatusPending    RefundStatus = "PENDING"
	RefundStatusSuccessful RefundStatus = "SUCCESSFUL"
	RefundStatusFailed     RefundStatus = "FAILED"
	RefundStatusCancelled  RefundStatus = "CANCELLED"
)

// RefundReason codes accepted by Paynow
type RefundReason string

const (
	RefundReasonRMA      RefundReason = "RMA"
	RefundReasonBefore14 RefundReason = "REFUND_BEFORE_14"
	RefundReasonAfter14  RefundReason = "REFUND_AFTER_14"
	RefundReasonOther    RefundReason = "OTHER"
)

// RefundReasons lists the accepted refund reasons
var RefundReasons = []RefundReason{RefundReasonRMA, RefundReasonBefore14, RefundReasonAfter14, RefundReasonOther}

// MethodStatus reports whether a payment method can be used right now
type MethodStatus string

const (
	MethodStatusEnabled  MethodStatus = "ENABLED"
	MethodStatusDisabled MethodStatus = "DISABLED"
)

// ErrorTypeConflict marks a request Paynow refused because of the resource state
const ErrorTypeConflict = "CONFLICT"

// BuyerData is the buyer section of a payment
type BuyerData struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Locale    string `json:"locale,omitempty"`
}

// OrderItem is a single order line; Price is in minor units
type OrderItem struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

// CreatePaymentRequest is the body of POST /v3/payments; Amount is in minor units
type CreatePaymentRequest struct {
	Amount       int64       `json:"amount"`
	Currency     Currency    `json:"currency"`
	ExternalID   string      `json:"externalId"`
	Description  string      `json:"description"`
	Buyer        BuyerData   `json:"buyer"`
	ContinueURL  string      `json:"continueUrl,omitempty"`
	OrderItems   []OrderItem `json:"orderItems,omitempty"`
	ValidityTime int         `json:"validityTime,omitempty"`
}

// CreatePaymentResponse is returned by POST /v3/payments
type CreatePaymentResponse struct {
	RedirectURL    string `json:"redirectUrl"`
	PaymentID      string `json:"paymentId"`
	Status         string `json:"status"`
	IdempotencyKey string `json:"-"`
}

// PaymentStatusResponse is returned by GET /v3/payments/{paymentId}/status
type PaymentStatusResponse struct {
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
}

// NotificationPayload is the body Paynow posts on every payment status change
type NotificationPayload struct {
	PaymentID  string `json:"paymentId"`
	ExternalID string `json:"externalId"`
	Status     string `json:"status"`
	ModifiedAt string `json:"modifiedAt"`
}

// CreateRefundRequest is the body of POST /v3/payments/{paymentId}/refunds
type CreateRefundRequest struct {
	Amount int64        `json:"amount"`
	Reason RefundReason `json:"reason,omitempty"`
}

// CreateRefundResponse is returned by POST /v3/payments/{paymentId}/refunds
type CreateRefundResponse struct {
	RefundID       string `json:"refundId"`
	Status         string `json:"status"`
	IdempotencyKey string `json:"-"`
}

// RefundStatusResponse is returned by GET /v3/refunds/{refundId}/status
type RefundStatusResponse struct {
	RefundID string `json:"refundId"`
	Status   string `json:"status"`
}

// PaymentMethod is a single entry of the payment method listing
type PaymentMethod struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	Image             string `json:"image"`
	Status            MethodStatus `json:"status"`
	AuthorizationType string       `json:"authorizationType"`
}

// PaymentMethodGroup is returned by GET /v3/payments/paymentmethods
type PaymentMethodGroup struct {
	Type           string          `json:"type"`
	PaymentMethods []PaymentMethod `json:"paymentMethods"`
}

// PaymentMethodsQuery narrows the listing; zero values are omitted.
// Amount is in minor units.
type PaymentMethodsQuery struct {
	Amount   int64
	Currency Currency
}

// ErrorResponse is the body of a non-2xx Paynow response
type ErrorResponse struct {
	StatusCode int                       `json:"statusCode"`
	Errors     []provider.APIErrorDetail `json:"errors"`
}
