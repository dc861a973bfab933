// Package observability exposes the relay's prometheus collectors.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector of the routing core. All methods are
// nil-receiver safe so components can run without metrics wired.
type Metrics struct {
	// OnlineIdentities tracks the size of the online set.
	OnlineIdentities prometheus.Gauge

	// MessagesRouted counts accepted messages by kind (direct, group) and
	// outcome (delivered, deferred).
	MessagesRouted *prometheus.CounterVec

	// MailboxPending is the total number of deferred messages.
	MailboxPending prometheus.Gauge

	// DeliveryFailures counts implicit disconnects caused by failed sends.
	DeliveryFailures prometheus.Counter

	// ProcessResidentMemory is fed by the telemetry worker.
	ProcessResidentMemory prometheus.Gauge
}

// New registers all relay metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers on an explicit registerer, letting tests boot several
// relays in one process.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OnlineIdentities: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chat_online_identities",
			Help: "Number of identities currently online",
		}),
		MessagesRouted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_messages_routed_total",
			Help: "Accepted messages by kind and outcome",
		}, []string{"kind", "outcome"}),
		MailboxPending: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chat_mailbox_pending",
			Help: "Total messages deferred for offline identities",
		}),
		DeliveryFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_delivery_failures_total",
			Help: "Sends to a believed-online connection that failed",
		}),
		ProcessResidentMemory: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chat_process_resident_memory_bytes",
			Help: "Resident memory of the relay process",
		}),
	}
}

func (m *Metrics) SetOnline(n int) {
	if m != nil {
		m.OnlineIdentities.Set(float64(n))
	}
}

func (m *Metrics) IncRouted(kind, outcome string) {
	if m != nil {
		m.MessagesRouted.WithLabelValues(kind, outcome).Inc()
	}
}

func (m *Metrics) SetMailboxPending(n int) {
	if m != nil {
		m.MailboxPending.Set(float64(n))
	}
}

func (m *Metrics) IncDeliveryFailure() {
	if m != nil {
		m.DeliveryFailures.Inc()
	}
}

func (m *Metrics) SetResidentMemory(bytes uint64) {
	if m != nil {
		m.ProcessResidentMemory.Set(float64(bytes))
	}
}
