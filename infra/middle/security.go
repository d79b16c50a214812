package middle

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mstgnz/paynow/infra/logger"
	"github.com/mstgnz/paynow/infra/response"
)

// maxBodyBytes bounds request bodies on every route
const maxBodyBytes = 1 << 20

// SecurityHeadersMiddleware adds security headers to responses
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			w.Header().Set("Referrer-Policy", "no-referrer")

			next.ServeHTTP(w, r)
		})
	}
}

// parseNets turns IPs and CIDR ranges into networks, skipping invalid entries
func parseNets(entries []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			if ip := net.ParseIP(entry); ip != nil && ip.To4() != nil {
				entry += "/32"
			} else {
				entry += "/128"
			}
		}
		_, n, err := net.ParseCIDR(entry)
		if err != nil {
			logger.Warn("ignoring invalid address entry", logger.LogContext{Fields: map[string]any{"entry": entry}})
			continue
		}
		nets = append(nets, n)
	}
	return nets
}

func containsIP(nets []*net.IPNet, ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// TrustedProxyMiddleware takes the client address from forwarding headers, but only
// when the direct peer is one of the given proxies. Requests from any other peer keep
// their RemoteAddr and their forwarding headers are ignored.
func TrustedProxyMiddleware(proxies []string) func(http.Handler) http.Handler {
	nets := parseNets(proxies)

	return func(next http.Handler) http.Handler {
		if len(nets) == 0 {
			return next
		}
		viaProxy := middleware.RealIP(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if containsIP(nets, net.ParseIP(GetClientIP(r))) {
				viaProxy.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IPAllowListMiddleware restricts access to the given IPs and CIDR ranges.
// An empty list allows everyone.
func IPAllowListMiddleware(allowed []string) func(http.Handler) http.Handler {
	nets := parseNets(allowed)

	return func(next http.Handler) http.Handler {
		if len(allowed) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if containsIP(nets, net.ParseIP(GetClientIP(r))) {
				next.ServeHTTP(w, r)
				return
			}

			logger.Warn("request from address outside allow-list", logger.LogContext{
				Fields: map[string]any{"client_ip": GetClientIP(r), "path": r.URL.Path},
			})
			response.Error(w, http.StatusForbidden, "IP not allowed", nil)
		})
	}
}

// RequestValidationMiddleware validates content type and bounds the body size
func RequestValidationMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
				contentType := r.Header.Get("Content-Type")
				if contentType != "" && !strings.Contains(contentType, "application/json") {
					response.Error(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", nil)
					return
				}
			}

			if r.ContentLength > maxBodyBytes {
				response.Error(w, http.StatusRequestEntityTooLarge, "Request body too large", nil)
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			}

			next.ServeHTTP(w, r)
		})
	}
}
