package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/renthub/rent-ledger/internal/domain/ports"
)

// RequestLogger logs one line per request with method, path, status,
// bytes written, and duration. The request id comes from chi's RequestID
// middleware, which must be mounted before this one.
func RequestLogger(logger ports.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("http request",
				ports.String("request_id", chimiddleware.GetReqID(r.Context())),
				ports.String("method", r.Method),
				ports.String("path", r.URL.Path),
				ports.Int("status", ww.Status()),
				ports.Int("bytes", ww.BytesWritten()),
				ports.String("duration", time.Since(start).String()),
				ports.String("remote_addr", r.RemoteAddr))
		})
	}
}
