package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/baechuer/chatcpe-service/internal/logger"
)

// AccessLog writes one line per request; 5xx at error level, 4xx at warn.
// r.URL.Path only: the verification link carries its token in the query.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := statusOf(ww)
		lg := logger.WithCtx(r.Context())
		var evt *zerolog.Event
		switch {
		case status >= 500:
			evt = lg.Error()
		case status >= 400:
			evt = lg.Warn()
		default:
			evt = lg.Info()
		}
		evt.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("latency", time.Since(start)).
			Str("remote_ip", r.RemoteAddr).
			Msg("http_request")
	})
}

// statusOf treats a handler that never wrote a header as 200.
func statusOf(ww chimw.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}
