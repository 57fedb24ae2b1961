package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/kiranshivaraju/hiretrack/internal/api/response"
)

// Recovery turns a handler panic into a 500 INTERNAL_ERROR envelope. If the
// handler had already started its response, the response is left as is and
// only the log entry is written. http.ErrAbortHandler is re-raised so net/http
// can drop the connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}

			id, _ := GetRequestID(r)
			slog.Error("handler panicked",
				"panic", v,
				"request_id", id,
				"client_ip", ClientIP(r),
				"method", r.Method,
				"path", r.URL.Path,
				"response_started", rec.wrote,
				"stack", string(debug.Stack()),
			)
			if rec.wrote {
				return
			}
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "An unexpected error occurred", nil)
		}()
		next.ServeHTTP(rec, r)
	})
}
