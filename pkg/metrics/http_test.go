package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMetrics_Middleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	router := chi.NewRouter()
	router.Use(m.Middleware)
	router.Get("/api/v1/pizzas/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pizzas/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	count := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/v1/pizzas/{id}", "200"))
	if count != 1 {
		t.Fatalf("expected 1 observed request, got %v", count)
	}
}

func TestHTTPMetrics_NilSafe(t *testing.T) {
	var m *HTTPMetrics
	m.Observe("GET", "/", 200, 0)

	empty := NewHTTPMetrics(nil)
	empty.Observe("GET", "/", 200, 0)
}
