package v1

import (
	"github.com/go-chi/chi/v5"
	"github.com/mstgnz/paynow/handler"
)

// Routes registers the /v1 API routes. audit may be nil when the notification
// audit trail is disabled.
func Routes(r chi.Router, payments *handler.PaymentHandler, audit *handler.AuditHandler) {
	r.Route("/payments", func(r chi.Router) {
		r.Post("/", payments.CreatePayment)
		r.Get("/methods", payments.GetPaymentMethods)

		r.Route("/{paymentID}", func(r chi.Router) {
			r.Get("/status", payments.GetPaymentStatus)
			r.Post("/refunds", payments.StartRefund)
			r.Post("/charge", payments.Charge)
			r.Post("/release", payments.ReleaseLock)
			if audit != nil {
				r.Get("/notifications", audit.GetPaymentNotifications)
			}
		})
	})

	r.Route("/refunds/{refundID}", func(r chi.Router) {
		r.Get("/", payments.GetRefundStatus)
		r.Post("/cancel", payments.CancelRefund)
	})

	if audit != nil {
		r.Get("/notifications/rejected", audit.GetRejectedNotifications)
	}
}
