package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collector holds the Prometheus metrics of the bot. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	UpdatesProcessed    *prometheus.CounterVec
	GenerationRequests  *prometheus.CounterVec
	GenerationDuration  *prometheus.HistogramVec
	EntitlementDenials  *prometheus.CounterVec
	DiaryEntriesSaved   *prometheus.CounterVec
	NotificationsSent   *prometheus.CounterVec
	HTTPRequests        *prometheus.CounterVec
	DailyEnergyCacheHit *prometheus.CounterVec
}

func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	collector := &Collector{
		registry: registry,
		UpdatesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_processed_total",
			Help:      "Chat updates processed by kind.",
		}, []string{"kind"}),
		GenerationRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Text generation calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		GenerationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Text generation latency.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"operation"}),
		EntitlementDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entitlement_denials_total",
			Help:      "Denied requests by reason.",
		}, []string{"reason"}),
		DiaryEntriesSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diary_entries_saved_total",
			Help:      "Diary entries appended by entry type.",
		}, []string{"type"}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Scheduled notifications delivered by kind.",
		}, []string{"kind"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		DailyEnergyCacheHit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "daily_energy_cache_total",
			Help:      "Daily energy lookups by cache result.",
		}, []string{"result"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collector.UpdatesProcessed,
		collector.GenerationRequests,
		collector.GenerationDuration,
		collector.EntitlementDenials,
		collector.DiaryEntriesSaved,
		collector.NotificationsSent,
		collector.HTTPRequests,
		collector.DailyEnergyCacheHit,
	)
	return collector
}

func (collector *Collector) Registry() *prometheus.Registry {
	if collector == nil {
		return prometheus.NewRegistry()
	}
	return collector.registry
}

func (collector *Collector) ObserveUpdate(kind string) {
	if collector == nil {
		return
	}
	collector.UpdatesProcessed.WithLabelValues(kind).Inc()
}

func (collector *Collector) ObserveGeneration(operation string, err error, elapsed time.Duration) {
	if collector == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	collector.GenerationRequests.WithLabelValues(operation, outcome).Inc()
	collector.GenerationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (collector *Collector) ObserveDenial(reason string) {
	if collector == nil {
		return
	}
	collector.EntitlementDenials.WithLabelValues(reason).Inc()
}

func (collector *Collector) ObserveDiaryEntry(entryType string) {
	if collector == nil {
		return
	}
	collector.DiaryEntriesSaved.WithLabelValues(entryType).Inc()
}

func (collector *Collector) ObserveNotification(kind string) {
	if collector == nil {
		return
	}
	collector.NotificationsSent.WithLabelValues(kind).Inc()
}

func (collector *Collector) ObserveHTTP(method string, route string, status string) {
	if collector == nil {
		return
	}
	collector.HTTPRequests.WithLabelValues(method, route, status).Inc()
}

func (collector *Collector) ObserveDailyEnergyCache(hit bool) {
	if collector == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	collector.DailyEnergyCacheHit.WithLabelValues(result).Inc()
}
