package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/nova/pkg/logger"
	"github.com/okian/nova/pkg/metrics"
)

// MetricsMiddleware records request count and latency per route. Failed
// requests are also counted by error code; server-side failures and
// backpressure are attributed to the route and logged.
func MetricsMiddleware(next http.HandlerFunc, route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(route, r.Method, status)
		metrics.RecordHTTPRequestDuration(route, r.Method, status, float64(elapsed.Microseconds())/1000)

		if rec.status < http.StatusBadRequest {
			return
		}
		code := errorCode(rec.status)
		metrics.RecordErrorByEndpoint(route, r.Method, code)
		if rec.status >= http.StatusInternalServerError || rec.status == http.StatusTooManyRequests {
			metrics.RecordErrorByComponent(route, code)
			logger.Named("http").Warn(r.Context(), "request failed",
				logger.String("route", route),
				logger.String("method", r.Method),
				logger.Int("status", rec.status),
				logger.String("code", code),
				logger.Duration("elapsed", elapsed),
			)
		}
	}
}

// errorCode maps a response status to the code the handlers put in error
// bodies.
func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusTooManyRequests:
		return "backpressure"
	case http.StatusServiceUnavailable:
		return "unavailable"
	}
	if status >= http.StatusInternalServerError {
		return "internal_error"
	}
	return "client_error"
}

// statusRecorder captures the status a handler writes.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}
