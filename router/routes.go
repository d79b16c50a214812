package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mstgnz/paynow/handler"
	"github.com/mstgnz/paynow/infra/config"
	"github.com/mstgnz/paynow/infra/idempotency"
	"github.com/mstgnz/paynow/infra/middle"
	"github.com/mstgnz/paynow/infra/opensearch"
	"github.com/mstgnz/paynow/infra/response"
	"github.com/mstgnz/paynow/provider"
	v1 "github.com/mstgnz/paynow/router/v1"
)

// Deps holds everything the routes are built from
type Deps struct {
	Config      *config.AppConfig
	Processor   provider.Processor
	Keys        idempotency.Store
	Triggers    handler.TriggerHandler
	Audit       *opensearch.Logger
	Health      *handler.HealthHandler
	RateLimiter *middle.RateLimiter
}

// New builds the service router.
//
//	GET  /health          dependency checks, no auth
//	POST /webhooks/paynow Paynow notifications, optional IP allow-list, no auth
//	/v1/...               payment API, bearer API key
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middle.TrustedProxyMiddleware(d.Config.TrustedProxies))
	r.Use(middle.PanicRecoveryMiddleware())
	r.Use(middle.RequestLoggingMiddleware())
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middle.SecurityHeadersMiddleware())
	if d.RateLimiter != nil {
		r.Use(middle.RateLimitMiddleware(d.RateLimiter))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", handler.RefundReferenceHeader},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	health := d.Health
	if health == nil {
		health = handler.NewHealthHandler(d.Config.Environment)
	}
	r.Get("/health", health.CheckHealth)

	var auditor handler.NotificationAuditor
	var auditHandler *handler.AuditHandler
	if d.Audit != nil {
		auditor = d.Audit
		auditHandler = handler.NewAuditHandler(d.Audit)
	}

	notifications := handler.NewNotificationHandler(d.Processor, d.Triggers, auditor)
	r.With(middle.IPAllowListMiddleware(d.Config.NotificationIPs)).
		Post("/webhooks/paynow", notifications.HandleNotification)

	payments := handler.NewPaymentHandler(d.Processor, d.Keys)
	r.Route("/v1", func(r chi.Router) {
		r.Use(middle.AuthMiddleware(d.Config.APIKey))
		r.Use(middle.RequestValidationMiddleware())
		v1.Routes(r, payments, auditHandler)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Not Found", nil)
	})

	return r
}
