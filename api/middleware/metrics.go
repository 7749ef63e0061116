package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/cafepos/pkg/metrics"
)

const unmatchedRoute = "unmatched"

// Metrics labels requests by chi route pattern, e.g. /api/v1/sales/{saleID}/items, so
// sale and item ids never become label values. The pattern is only complete after
// routing, hence it is read once the handler returns.
func Metrics(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	if m == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			route := unmatchedRoute
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.Observe(r.Method, route, rec.statusCode(), time.Since(started))
		})
	}
}
