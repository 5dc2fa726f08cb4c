package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"

	"github.com/exploopio/opsboard/pkg/audit"
	"github.com/exploopio/opsboard/pkg/errors"
	"github.com/exploopio/opsboard/pkg/metrics"
)

// unmatchedRoute labels requests that matched no route.
const unmatchedRoute = "unmatched"

// instrument records request count and duration per route pattern and logs
// each request at debug level.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.NewTimer(s.clock, s.collector, metrics.HTTPRequestDuration.Name, "method", r.Method)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := timer.ObserveDuration("route", route)
		s.collector.CounterInc(metrics.HTTPRequestsTotal.Name,
			"method", r.Method, "route", route, "status", strconv.Itoa(status))

		s.logger.Debug("%s %s %d %s request_id=%s", r.Method, r.URL.Path, status, elapsed, middleware.GetReqID(r.Context()))
	})
}

// limitMutations rejects requests beyond the token bucket with 429.
func (s *Server) limitMutations(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			if s.audit != nil {
				s.audit.Warn(audit.EventRateLimited, "Request rate limited", map[string]interface{}{
					"method": r.Method,
					"path":   r.URL.Path,
				})
			}
			w.Header().Set("Retry-After", "1")
			s.writeError(w, r, errors.ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// compressResponses gzips responses for clients that accept it.
func compressResponses(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}
