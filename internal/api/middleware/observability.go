package middleware

import (
	"net/http"
	"time"

	"github.com/uqac-logement/backend/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/attribute"
)

// unmatchedRoute labels requests no pattern matched, so probing random
// paths cannot grow the metric series.
const unmatchedRoute = "unmatched"

// RouteResolver returns the registered pattern serving r, or "" when none does
type RouteResolver func(r *http.Request) string

// MuxRoutes resolves routes against mux. The middleware runs before the mux
// has matched, so r.Pattern is still empty at that point.
func MuxRoutes(mux *http.ServeMux) RouteResolver {
	return func(r *http.Request) string {
		_, pattern := mux.Handler(r)
		return pattern
	}
}

// ObservabilityMiddleware opens a span per request and records request
// count and duration labelled by route pattern, never by raw path.
func ObservabilityMiddleware(metrics *observability.Metrics, routes RouteResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := routeLabel(r, routes)

			ctx, span := observability.StartSpan(r.Context(), route)
			defer span.End()
			observability.SetSpanAttributes(span,
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.user_agent", r.UserAgent()),
			)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))

			observability.RecordRequestMetric(ctx, metrics, r.Method, route, rec.status, time.Since(start))
			observability.SetSpanAttributes(span, attribute.Int("http.status_code", rec.status))
		})
	}
}

func routeLabel(r *http.Request, routes RouteResolver) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	if routes != nil {
		if pattern := routes(r); pattern != "" {
			return pattern
		}
	}
	return unmatchedRoute
}

// statusRecorder keeps the status code; Flush is forwarded for SSE
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Flush() {
	if flusher, ok := s.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
