// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/conclavechain/conclave/metrics"
)

// metricsResponseWriter is a wrapper around http.ResponseWriter that captures the status code.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{w, http.StatusOK}
}

func (m *metricsResponseWriter) WriteHeader(code int) {
	m.statusCode = code
	m.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware records request count and duration for each request.
func metricsMiddleware(h http.Handler) http.Handler {
	reqCounter := metrics.CounterVec("api_request_count", []string{"path", "code", "method"})
	reqDuration := metrics.Histogram("api_duration_ms", metrics.BucketHTTPReqs)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()

		mrw := newMetricsResponseWriter(w)
		h.ServeHTTP(mrw, r)

		// ensure no unexpected slashes
		path := strings.ReplaceAll(strings.TrimLeft(r.URL.Path, "/"), "/", "_")
		reqCounter.AddWithLabel(1, map[string]string{"path": path, "code": strconv.Itoa(mrw.statusCode), "method": r.Method})
		reqDuration.Observe(time.Since(now).Milliseconds())
	})
}
