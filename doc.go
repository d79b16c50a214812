// Package paynow is a payment gateway for the Paynow V3 API (mBank). It signs every
// outbound request, verifies inbound status notifications and turns provider
// statuses into triggers for the host application's payment state machine.
//
// # Overview
//
// The gateway sits between your applications and Paynow:
//
//	┌─────────────────┐    ┌─────────────────┐    ┌─────────────────┐
//	│                 │    │                 │    │                 │
//	│   Your Apps     │◄──►│     Gateway     │◄──►│    Paynow V3    │
//	│                 │    │                 │    │                 │
//	└─────────────────┘    └─────────────────┘    └─────────────────┘
//
// The gateway never stores payment state. It answers with triggers
// (confirm_prepared, confirm_payment, mark_as_paid, fail) and the host decides
// what they mean for its orders.
//
// # Quick Start
//
//	export API_KEY=local-gateway-key
//	export PAYNOW_API_KEY=97a55694-5478-43b5-b406-fb49ebfdd2b5
//	export PAYNOW_SIGNATURE_KEY=b305b996-bca5-4404-a0b7-2ccea3d2b64b
//	export PAYNOW_ENVIRONMENT=sandbox
//	go run ./cmd
//
//	curl -X POST http://localhost:9999/v1/payments \
//	  -H "Authorization: Bearer local-gateway-key" \
//	  -H "Content-Type: application/json" \
//	  -d '{"amount":"45.67","currency":"PLN","externalId":"ORD-1",
//	       "description":"Order ORD-1","buyer":{"email":"jan.kowalski@example.com"}}'
//
// # HTTP API
//
//	GET  /health
//	POST /webhooks/paynow                          (Paynow notifications)
//	POST /v1/payments
//	GET  /v1/payments/methods
//	GET  /v1/payments/{paymentID}/status
//	POST /v1/payments/{paymentID}/refunds
//	GET  /v1/refunds/{refundID}
//	POST /v1/refunds/{refundID}/cancel?status=
//	POST /v1/payments/{paymentID}/charge           (501)
//	POST /v1/payments/{paymentID}/release          (501)
//	GET  /v1/payments/{paymentID}/notifications    (audit)
//	GET  /v1/notifications/rejected                (audit)
//
// # Idempotency
//
// Payment creation reuses one idempotency key per externalId until Paynow accepts
// or rejects the request, so a retry after a timeout never creates a second
// payment. Refunds do the same when the caller sends X-Refund-Reference. Keys are
// kept in SQLite.
//
// # Notifications
//
// Notifications are verified with HMAC-SHA256 over the raw body before anything
// is parsed. Forged or tampered notifications get 400 and are never applied. A
// verified notification is answered with 200 and an empty body once the triggers
// have been handed to the host.
//
// # Configuration
//
//	APP_PORT                   listen port (9999)
//	APP_ENV                    development | production
//	API_KEY                    bearer token for /v1
//	ALLOWED_ORIGINS            CORS origins
//	RATE_LIMIT_PER_MINUTE      per-client limit (120)
//	IDEMPOTENCY_DB_PATH        SQLite file (./data/idempotency.db)
//	SHUTDOWN_TIMEOUT           graceful shutdown window (15s)
//	PAYNOW_API_KEY             merchant Api-Key
//	PAYNOW_SIGNATURE_KEY       merchant signature key
//	PAYNOW_ENVIRONMENT         sandbox | production
//	PAYNOW_CONTINUE_URL        return URL, may contain {payment_id}
//	PAYNOW_NOTIFICATION_URL    notification URL shown to operators
//	PAYNOW_TIMEOUT             outbound request timeout
//	PAYNOW_BASE_URL            overrides the environment base URL
//	PAYNOW_NOTIFICATION_IPS    allowed notification source IPs or CIDRs
//	TRUSTED_PROXIES            proxies whose forwarding headers name the client
//	ENABLE_OPENSEARCH_AUDIT    store every notification in OpenSearch
//	OPENSEARCH_URL, OPENSEARCH_USER, OPENSEARCH_PASSWORD
//
// # Command Line
//
// cmd/paynowctl signs requests, checks notification signatures and queries
// payment and refund status from a terminal:
//
//	paynowctl sign-request --body '{"amount":4567}'
//	paynowctl verify-notification -s F69sbjUxBX4eFjfUal/Y9XGREbfaRjh/zdq9j4MWeHM= notification.json
//	paynowctl status NOLV-8F9-08K-WGD
package paynow
