package providers

import (
	"net/http"
	"time"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// unmatchedEndpoint labels requests no route matched, so probing for
// random paths cannot grow the label set.
const unmatchedEndpoint = "unmatched"

// endpointLabel is the route pattern the mux matched, e.g. /images/{filename}.
// The mux sets it on the request it was handed, so it is visible here after
// next has run.
func endpointLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return unmatchedEndpoint
}

func MetricsMiddleware(metrics MetricsProviderInterface, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		endpoint := endpointLabel(r)
		metrics.IncRequestsTotal(endpoint, sw.status)
		metrics.ObserveRequestDuration(endpoint, duration)
	})
}

func AccessLogMiddleware(logger Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		logger.Infof(GetLogTypeByRequestType(r.Method), "%s %s %d %s %s",
			r.Method, r.URL.RequestURI(), sw.status, time.Since(start), r.RemoteAddr)
	})
}
