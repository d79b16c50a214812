// Package provider defines the processor contract between a host application and a
// payment provider, together with the pieces every processor shares: the registry,
// the HTTP transport, config field validation and the error kinds.
//
// # Core Concepts
//
//   - Processor: the operations a host calls (create, poll, notify, refund)
//   - PaymentRef / RefundRef: immutable provider handles returned by create calls
//   - Trigger: a named transition for the host's payment state machine
//   - ProcessorRegistry: name to factory lookup; processors register in init
//
// # Basic Usage
//
//	import _ "github.com/mstgnz/paynow/provider/paynow"
//
//	proc, err := provider.Open("paynow", map[string]string{
//	    "apiKey":       "97a55694-5478-43b5-b406-fb49ebfdd2b5",
//	    "signatureKey": "b305b996-bca5-4404-a0b7-2ccea3d2b64b",
//	    "environment":  "sandbox",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer proc.Close()
//
//	ref, err := proc.CreatePayment(ctx, provider.PaymentRequest{
//	    Amount:      decimal.RequireFromString("45.67"),
//	    Currency:    "PLN",
//	    ExternalID:  "ORD-1",
//	    Description: "Order ORD-1",
//	    Buyer:       provider.Buyer{Email: "jan.kowalski@example.com"},
//	})
//
// # Triggers
//
// Processors never hold payment state. Notifications and polls are mapped to
// triggers which the host applies to its own state machine:
//
//	n, err := proc.VerifyNotification(ctx, rawBody, r.Header.Get("Signature"))
//	if errors.Is(err, provider.ErrInvalidCallback) {
//	    // never acknowledge a forged notification
//	}
//	for _, t := range n.Triggers {
//	    machine.Fire(t)
//	}
//
// The same notification can arrive more than once and out of order. Firing a
// trigger that leads into the current state must be a no-op.
//
// # Errors
//
// Every failure is one of a closed set of kinds so callers can branch with
// errors.Is and errors.As:
//
//   - ErrInvalidRequest, *ConversionError: rejected before anything is sent
//   - *TransportError: network failure, safe to retry with the same idempotency key
//   - *APIError: non-2xx provider answer with the parsed error details
//   - *ParseError: provider answered with a body that could not be decoded
//   - *UnrecognizedStatusError: status outside the provider vocabulary
//   - *StateConflictError: refund cancellation in a state that forbids it
//   - ErrInvalidCallback, ErrNotImplemented, ErrClientClosed
package provider
