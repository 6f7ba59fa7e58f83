// Package metrics owns the Prometheus collectors for the API and the CRM domain.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector on a private registry, so building it more
// than once (tests) never trips duplicate registration.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
	stageChanges        prometheus.Counter
	affiliationRequests *prometheus.CounterVec
	affiliationStatus   *prometheus.CounterVec
	activityLogs        *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "realty_http_requests_total",
			Help: "Total HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "realty_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		stageChanges: factory.NewCounter(prometheus.CounterOpts{
			Name: "realty_lead_stage_changes_total",
			Help: "Leads moved between CRM stages.",
		}),
		affiliationRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "realty_affiliation_requests_total",
			Help: "Affiliation requests by outcome.",
		}, []string{"result"}),
		affiliationStatus: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "realty_affiliation_transitions_total",
			Help: "Affiliation status updates by target status.",
		}, []string{"status"}),
		activityLogs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "realty_activity_logs_total",
			Help: "Activity log rows committed.",
		}, []string{"entity_type", "action"}),
	}
}

func (m *Metrics) IncrStageChange() {
	if m == nil {
		return
	}
	m.stageChanges.Inc()
}

func (m *Metrics) IncrAffiliationRequest(result string) {
	if m == nil {
		return
	}
	m.affiliationRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrAffiliationTransition(status string) {
	if m == nil {
		return
	}
	m.affiliationStatus.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrActivity(entityType, action string) {
	if m == nil {
		return
	}
	m.activityLogs.WithLabelValues(entityType, action).Inc()
}

// Handler exposes the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Middleware records request count and latency. The chi route pattern is used
// as label so ids in paths do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
