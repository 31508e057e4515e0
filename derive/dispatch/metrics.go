package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	abierrors "github.com/tos-network/abiderive/derive/errors"
)

// Metrics holds the dispatcher counters. A nil *Metrics records nothing.
type Metrics struct {
	calls    *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewMetrics registers the dispatcher counters with reg. A nil reg leaves
// them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "abiderive",
			Subsystem: "dispatch",
			Name:      "calls_total",
			Help:      "Total number of calls routed to a method",
		}, []string{"interface", "method"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "abiderive",
			Subsystem: "dispatch",
			Name:      "failures_total",
			Help:      "Total number of failed calls by error kind",
		}, []string{"interface", "kind"}),
	}
}

func (m *Metrics) call(intf, method string) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(intf, method).Inc()
}

func (m *Metrics) failure(intf string, kind abierrors.Kind) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(intf, string(kind)).Inc()
}
