package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNew_TwiceDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/properties/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/properties/"+id, nil))
	}

	got := testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodGet, "/api/properties/{id}", "404"))
	assert.Equal(t, float64(3), got)
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.IncrStageChange()
	m.IncrAffiliationRequest("created")
	m.IncrAffiliationRequest("duplicate")
	m.IncrAffiliationRequest("duplicate")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.stageChanges))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.affiliationRequests.WithLabelValues("duplicate")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrStageChange()
		m.IncrActivity("lead", "created")
	})
}
