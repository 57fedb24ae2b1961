package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/kiranshivaraju/hiretrack/internal/api/response"
	"github.com/kiranshivaraju/hiretrack/internal/fault"
)

// Fault delays every request by the policy's draw and then, when the policy
// says so, answers 500 without reaching the handler. A client that disconnects
// during the delay gets nothing.
func Fault(p fault.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if p == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d := p.Delay(); d > 0 {
				t := time.NewTimer(d)
				select {
				case <-t.C:
				case <-r.Context().Done():
					t.Stop()
					return
				}
			}

			if p.Fail() {
				id, _ := GetRequestID(r)
				slog.Debug("injected failure", "request_id", id, "method", r.Method, "path", r.URL.Path)
				response.Error(w, http.StatusInternalServerError,
					"SIMULATED_FAILURE", "Simulated server error", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
