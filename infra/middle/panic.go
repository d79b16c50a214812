package middle

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/mstgnz/paynow/infra/logger"
	"github.com/mstgnz/paynow/infra/response"
)

// PanicRecoveryMiddleware handles panics and converts them to HTTP 500 errors
func PanicRecoveryMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				logger.Error("panic recovered", fmt.Errorf("%v", rec), logger.LogContext{
					RequestID: RequestIDFromContext(r.Context()),
					Fields: map[string]any{
						"method": r.Method,
						"path":   r.URL.Path,
						"stack":  string(debug.Stack()),
					},
				})

				w.Header().Set("Cache-Control", "no-store")
				response.Error(w, http.StatusInternalServerError, "Internal server error", errors.New("an unexpected error occurred"))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
