package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mstgnz/paynow/handler"
	"github.com/mstgnz/paynow/infra/config"
	"github.com/mstgnz/paynow/infra/idempotency"
	"github.com/mstgnz/paynow/infra/logger"
	"github.com/mstgnz/paynow/infra/middle"
	"github.com/mstgnz/paynow/infra/opensearch"
	"github.com/mstgnz/paynow/infra/validate"
	"github.com/mstgnz/paynow/provider"
	"github.com/mstgnz/paynow/provider/paynow"
	"github.com/mstgnz/paynow/router"
)

func main() {
	if err := run(); err != nil {
		logger.Error("server stopped", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func run() error {
	if err := config.LoadEnv(); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	cfg := config.GetAppConfig()

	if err := logger.InitGlobalLogger(cfg.Environment); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	validate.CustomValidate()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providerConfig := config.NewProviderConfig()
	providerConfig.LoadFromEnv()
	paynowConfig, err := providerConfig.GetConfig(paynow.Slug)
	if err != nil {
		return fmt.Errorf("paynow is not configured (set PAYNOW_API_KEY and PAYNOW_SIGNATURE_KEY): %w", err)
	}

	processor, err := provider.DefaultRegistry.Open(paynow.Slug, paynowConfig)
	if err != nil {
		return fmt.Errorf("open paynow processor: %w", err)
	}
	defer processor.Close()

	keys, err := idempotency.NewSQLiteStore(cfg.IdempotencyDBPath, idempotency.DefaultTTL)
	if err != nil {
		return fmt.Errorf("open idempotency store: %w", err)
	}
	defer keys.Close()
	go purgeKeys(ctx, keys)

	health := handler.NewHealthHandler(cfg.Environment).AddCheck("idempotency_store", keys.Ping)

	var audit *opensearch.Logger
	if cfg.EnableAudit {
		osClient, err := opensearch.NewClient(ctx, cfg)
		if err != nil {
			logger.Warn("continuing without notification audit", logger.LogContext{Fields: map[string]any{"error": err.Error()}})
		} else {
			audit = opensearch.NewLogger(osClient)
			health.AddOptionalCheck("opensearch", osClient.Ping)
			logger.Info("notification audit enabled", logger.LogContext{Fields: map[string]any{"index": opensearch.NotificationIndex}})
		}
	}

	rateLimiter := middle.NewRateLimiter(cfg.RateLimit)
	defer rateLimiter.Stop()

	server := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.Port),
		Handler: router.New(router.Deps{
			Config:      cfg,
			Processor:   processor,
			Keys:        keys,
			Triggers:    handler.LoggingTriggerHandler{},
			Audit:       audit,
			Health:      health,
			RateLimiter: rateLimiter,
		}),
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Info("API is running", logger.LogContext{Fields: map[string]any{
		"port":        cfg.Port,
		"environment": paynowConfig["environment"],
	}})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down gracefully", logger.LogContext{Fields: map[string]any{"timeout": cfg.ShutdownTimeout.String()}})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

// purgeKeys drops expired idempotency bindings once an hour
func purgeKeys(ctx context.Context, keys *idempotency.SQLiteStore) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := keys.Purge(ctx)
			if err != nil {
				logger.Warn("failed to purge idempotency keys", logger.LogContext{Fields: map[string]any{"error": err.Error()}})
				continue
			}
			logger.Debug("purged idempotency keys", logger.LogContext{Fields: map[string]any{"removed": removed}})
		}
	}
}
