package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/terminal-bench/triagedesk/internal/models"
	"github.com/terminal-bench/triagedesk/internal/services/notification"
	"github.com/terminal-bench/triagedesk/internal/services/staffing"
)

const namespace = "triage"

// Metrics owns a private registry so several instances can coexist in tests
type Metrics struct {
	registry        *prometheus.Registry
	eventsPublished *prometheus.CounterVec
}

// New creates the registry with process and Go runtime collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Events broadcast to observers, by event kind.",
	}, []string{"event"})
	reg.MustRegister(events)

	return &Metrics{
		registry:        reg,
		eventsPublished: events,
	}
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// InstrumentPublisher counts every event before handing it to next
func (m *Metrics) InstrumentPublisher(next notification.Publisher) notification.Publisher {
	return notification.PublisherFunc(func(evt models.Event) {
		m.eventsPublished.WithLabelValues(string(evt.Kind)).Inc()
		next.Publish(evt)
	})
}

// EventsPublished returns the counter for one event kind
func (m *Metrics) EventsPublished(kind models.EventKind) prometheus.Counter {
	return m.eventsPublished.WithLabelValues(string(kind))
}

// RegisterStaffing exports queue depth, treatment occupancy and the staffing ratio
func (m *Metrics) RegisterStaffing(snapshot func() staffing.Assessment) {
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "waiting_patients",
			Help:      "Patients currently in the waiting queue.",
		}, func() float64 { return float64(snapshot().Waiting) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "in_treatment_patients",
			Help:      "Patients currently being treated.",
		}, func() float64 { return float64(snapshot().InTreatment) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "staffing_ratio",
			Help:      "Total patients per available staff member.",
		}, func() float64 { return snapshot().Ratio }),
	)
}

// RegisterHub exports observer count and per-observer drops
func (m *Metrics) RegisterHub(hub *notification.Hub) {
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "observers_connected",
			Help:      "Observers currently subscribed to the event stream.",
		}, func() float64 { return float64(hub.Count()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observer_events_dropped_total",
			Help:      "Deliveries skipped because an observer buffer was full.",
		}, func() float64 { return float64(hub.Dropped()) }),
	)
}

// RegisterRelay exports drop and failure counts for an external relay
func (m *Metrics) RegisterRelay(relay *notification.Relay) {
	labels := prometheus.Labels{"relay": relay.Name()}
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "relay_dropped_total",
			Help:        "Events dropped because the relay queue was full.",
			ConstLabels: labels,
		}, func() float64 { return float64(relay.Dropped()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "relay_failed_total",
			Help:        "Events the relay sink failed to deliver.",
			ConstLabels: labels,
		}, func() float64 { return float64(relay.Failed()) }),
	)
}
