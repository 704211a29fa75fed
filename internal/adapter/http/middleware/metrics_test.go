package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/balanceledger/internal/infrastructure/metrics"
)

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		route      string
		wantLabel  string
		statusCode int
	}{
		{
			name:       "labels by route pattern",
			method:     http.MethodPost,
			path:       "/deposit",
			route:      "/deposit",
			wantLabel:  "/deposit",
			statusCode: http.StatusTeapot,
		},
		{
			name:       "collapses unknown paths",
			method:     http.MethodGet,
			path:       "/nope/123",
			route:      "/balance",
			wantLabel:  "unmatched",
			statusCode: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := metrics.New(prometheus.NewRegistry())

			r := chi.NewRouter()
			r.Use(Metrics(m))
			r.MethodFunc(tc.method, tc.route, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
			})

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))

			if rr.Code != tc.statusCode {
				t.Fatalf("expected status %d, got %d", tc.statusCode, rr.Code)
			}

			count := testutil.ToFloat64(m.HTTPRequests.WithLabelValues(tc.method, tc.wantLabel, strconv.Itoa(tc.statusCode)))
			if count != 1 {
				t.Fatalf("expected 1 request recorded for %s, got %v", tc.wantLabel, count)
			}

			if inFlight := testutil.ToFloat64(m.HTTPRequestsInFlight); inFlight != 0 {
				t.Fatalf("expected in-flight gauge back at 0, got %v", inFlight)
			}
		})
	}
}
