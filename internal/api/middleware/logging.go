package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger attaches a request logger carrying the request ID to the context,
// where handlers reach it through zerolog.Ctx, and logs one line per
// completed request. Fields that downstream middleware adds to the request
// logger, such as the operator, appear on that line too. 4xx responses log
// at warn and 5xx at error.
func Logger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			reqLog := log.With().Str("request_id", GetRequestID(r.Context())).Logger()
			r = r.WithContext(reqLog.WithContext(r.Context()))

			next.ServeHTTP(rec, r)

			event := completionEvent(zerolog.Ctx(r.Context()), rec.statusCode)
			if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
				event.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
			}
			if pattern, serviceID := routeOf(r); pattern != "" {
				event.Str("route", pattern)
				if serviceID != "" {
					event.Str("service_id", serviceID)
				}
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.statusCode).
				Int64("bytes", rec.written).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Str("user_agent", r.UserAgent()).
				Msg("request completed")
		})
	}
}

func completionEvent(log *zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status >= http.StatusInternalServerError:
		return log.Error()
	case status >= http.StatusBadRequest:
		return log.Warn()
	default:
		return log.Info()
	}
}
