package middleware

import (
	"net/http"
	"time"

	"clinic-content-gateway/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger loguea una línea por request con el id de chimw.RequestID.
// Va después de RequestID en la cadena.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With(map[string]any{"component": "http"})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				fields := map[string]any{
					"request_id":  chimw.GetReqID(r.Context()),
					"method":      r.Method,
					"path":        r.URL.Path,
					"status":      status,
					"bytes":       ww.BytesWritten(),
					"duration_ms": time.Since(start).Milliseconds(),
				}
				switch {
				case status >= 500:
					log.Error("request", fields)
				case status >= 400:
					log.Warn("request", fields)
				default:
					log.Info("request", fields)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
