package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one process on a private registry. A nil
// *Metrics records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	slotOperations  *prometheus.CounterVec
	slotTokens      *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	templateCopies  *prometheus.CounterVec
	notifications   *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	slotOperations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "slot_operations_total",
		Help: "Offer, need and assignment operations by result",
	}, []string{"operation", "result"})

	slotTokens := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "slot_tokens_changed_total",
		Help: "Time tokens added, removed or assigned",
	}, []string{"operation"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "calendar_cache_lookups_total",
		Help: "Calendar cache lookups by result",
	}, []string{"result"})

	templateCopies := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "template_copies_total",
		Help: "Scheduled template copies by owner kind and result",
	}, []string{"kind", "result"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "change_notifications_total",
		Help: "Change events handled by the notifier by result",
	}, []string{"result"})

	registry.MustRegister(
		requestDuration, requestTotal, slotOperations, slotTokens, cacheLookups, templateCopies, notifications,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		slotOperations:  slotOperations,
		slotTokens:      slotTokens,
		cacheLookups:    cacheLookups,
		templateCopies:  templateCopies,
		notifications:   notifications,
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, route, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, route, labelStatus).Inc()
}

// ObserveSlotOperation counts one offer, need or assignment operation and the
// tokens it changed.
func (m *Metrics) ObserveSlotOperation(operation string, tokens int, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.slotOperations.WithLabelValues(operation, result).Inc()
	if tokens > 0 {
		m.slotTokens.WithLabelValues(operation).Add(float64(tokens))
	}
}

func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) ObserveTemplateCopy(kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.templateCopies.WithLabelValues(kind, result).Inc()
}

// ObserveNotification counts one consumed change event; result is "sent",
// "skipped" or "failed".
func (m *Metrics) ObserveNotification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}
