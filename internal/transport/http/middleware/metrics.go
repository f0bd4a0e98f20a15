package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"taskboard/internal/platform/metrics"
)

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		metrics.RecordHTTPRequest(r.Method, normalizeEndpoint(r.URL.Path), strconv.Itoa(recorder.status), time.Since(start))
	})
}

// normalizeEndpoint collapses entity ids so the endpoint label stays
// low-cardinality.
func normalizeEndpoint(path string) string {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, part := range parts {
		if len(part) == 36 && strings.Count(part, "-") == 4 {
			parts[i] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/")
}
