// Package handler provides the HTTP handlers of the Paynow gateway service.
//
//   - PaymentHandler: payment API over a provider.Processor (create, methods,
//     status, refunds, refund cancellation). Create and refund calls resolve their
//     idempotency key through an idempotency.Store so a retried request reuses the
//     key of its first attempt.
//   - NotificationHandler: receives Paynow status notifications, verifies the
//     Signature header and hands the mapped triggers to a TriggerHandler.
//     It answers 200 with an empty body only after the triggers are applied.
//   - AuditHandler: reads the notification audit trail kept in OpenSearch.
//   - HealthHandler: liveness and dependency checks.
//
// Example:
//
//	processor, _ := provider.DefaultRegistry.Open("paynow", cfg)
//	payments := handler.NewPaymentHandler(processor, idempotency.NewMemoryStore(0))
//	notifications := handler.NewNotificationHandler(processor, hostFSM, nil)
//
//	r.Post("/v1/payments", payments.CreatePayment)
//	r.Post("/webhooks/paynow", notifications.HandleNotification)
//
// Errors are written with infra/response; processor error kinds map to HTTP
// statuses through response.StatusFor.
package handler
