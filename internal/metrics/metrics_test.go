package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func value(t *testing.T, metric prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	if err := metric.Write(&out); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	switch {
	case out.Counter != nil:
		return out.Counter.GetValue()
	case out.Gauge != nil:
		return out.Gauge.GetValue()
	}
	t.Fatalf("unsupported metric type")
	return 0
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := New()
	router := chi.NewRouter()
	router.Use(m.Middleware)
	router.Get("/api/fridges/{fridge_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/fridges/abc", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/fridges/def", nil))

	got := value(t, m.requestCounter.WithLabelValues(http.MethodGet, "/api/fridges/{fridge_id}", "418"))
	if got != 2 {
		t.Fatalf("expected 2 requests on the route pattern, got %v", got)
	}
}

func TestGaugesAndCounters(t *testing.T) {
	m := New()
	m.SessionsChanged(1)
	m.SessionsChanged(1)
	m.SessionsChanged(-1)
	m.SubscriptionsChanged(3)
	m.StockMutated("remove", 2.5)
	m.StockMutated("remove", 0)

	if got := value(t, m.sessions); got != 1 {
		t.Fatalf("expected 1 session, got %v", got)
	}
	if got := value(t, m.subscriptions); got != 3 {
		t.Fatalf("expected 3 subscriptions, got %v", got)
	}
	if got := value(t, m.stockMutations.WithLabelValues("remove")); got != 2 {
		t.Fatalf("expected 2 mutations, got %v", got)
	}
	if got := value(t, m.stockQuantity.WithLabelValues("remove")); got != 2.5 {
		t.Fatalf("expected 2.5 quantity, got %v", got)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.StockMutated("add", 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "fridge_stock_mutations_total") {
		t.Fatalf("expected stock mutation series in exposition")
	}
}
