package middle

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/mstgnz/paynow/infra/logger"
	"github.com/mstgnz/paynow/infra/response"
)

// AuthMiddleware guards the /v1 API with a static bearer key
func AuthMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				response.Error(w, http.StatusInternalServerError, "API key not configured", nil)
				return
			}

			token, reason := bearerToken(r.Header.Get("Authorization"))
			if reason == "" && subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				reason = "Invalid API key"
			}
			if reason != "" {
				logger.Warn("rejected API request", logger.LogContext{
					RequestID: RequestIDFromContext(r.Context()),
					Fields: map[string]any{
						"client_ip": GetClientIP(r),
						"path":      r.URL.Path,
						"reason":    reason,
					},
				})
				response.Error(w, http.StatusUnauthorized, reason, nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token of an Authorization header, or a reason why it cannot
func bearerToken(header string) (string, string) {
	switch {
	case header == "":
		return "", "Authorization header required"
	case !strings.HasPrefix(header, "Bearer "):
		return "", "Invalid authorization format. Use: Bearer <api_key>"
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", "API key required"
	}
	return token, ""
}
