package provider

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCallback is returned when an inbound notification fails signature verification.
	// Such a notification must not be processed or acknowledged with 200/202.
	ErrInvalidCallback = errors.New("invalid callback")

	// ErrNotImplemented is returned by operations the provider does not support at all
	ErrNotImplemented = errors.New("operation not implemented")

	// ErrUnauthorized matches an APIError with HTTP 401
	ErrUnauthorized = errors.New("provider authentication failed")

	// ErrClientClosed is returned when a client is used after Close
	ErrClientClosed = errors.New("client is closed")

	// ErrInvalidRequest wraps request validation failures
	ErrInvalidRequest = errors.New("invalid request")
)

// TransportError reports a network or connection failure. The caller decides whether to retry.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIErrorDetail is a single entry of a provider error body
type APIErrorDetail struct {
	ErrorType string `json:"errorType"`
	Message   string `json:"message"`
}

// APIError is a non-2xx response from the provider
type APIError struct {
	StatusCode int
	Details    []APIErrorDetail
	Body       []byte
}

func (e *APIError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("provider API error (HTTP %d)", e.StatusCode)
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.ErrorType+": "+d.Message)
	}
	return fmt.Sprintf("provider API error (HTTP %d): %s", e.StatusCode, strings.Join(parts, "; "))
}

// Is lets errors.Is(err, ErrUnauthorized) match a 401 response
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == 401
}

// HasErrorType reports whether any detail carries the given provider error type
func (e *APIError) HasErrorType(errorType string) bool {
	for _, d := range e.Details {
		if d.ErrorType == errorType {
			return true
		}
	}
	return false
}

// ParseError reports a malformed or unexpected response body
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unexpected response for %s: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConversionError reports an amount that cannot be represented exactly in minor units
type ConversionError struct {
	Amount   string
	Currency string
	Reason   string
}

func (e *ConversionError) Error() string {
	if e.Amount == "" {
		return fmt.Sprintf("cannot convert amount in %q: %s", e.Currency, e.Reason)
	}
	return fmt.Sprintf("cannot convert %s %s: %s", e.Amount, e.Currency, e.Reason)
}

// UnrecognizedStatusError is returned for a status outside the closed provider vocabulary
type UnrecognizedStatusError struct {
	Kind   string // "payment" or "refund"
	Status string
}

func (e *UnrecognizedStatusError) Error() string {
	return fmt.Sprintf("unrecognized %s status %q", e.Kind, e.Status)
}

// StateConflictError is returned when an operation is not allowed in the current state,
// e.g. cancelling a refund that is already terminal
type StateConflictError struct {
	RefundID string
	Status   string
	Err      error // provider rejection, nil when decided locally
}

func (e *StateConflictError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("refund %s cannot be cancelled: %v", e.RefundID, e.Err)
	}
	return fmt.Sprintf("refund %s cannot be cancelled in status %s", e.RefundID, e.Status)
}

func (e *StateConflictError) Unwrap() error { return e.Err }
