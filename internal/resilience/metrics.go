package resilience

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	breakerState       *prometheus.GaugeVec
	breakerTransitions *prometheus.CounterVec
)

// MustRegisterMetrics registers breaker gauges and counters under namespace.
// Calling it again with the same registerer reuses the existing collectors.
func MustRegisterMetrics(namespace string, reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	breakerState = registerOrReuse(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "breaker_state",
		Help:      "Current breaker state: 0=closed, 1=open, 2=half-open.",
	}, []string{"target"}))
	breakerTransitions = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "breaker_transitions_total",
		Help:      "Breaker state transitions.",
	}, []string{"target", "from", "to"}))
}

func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func setState(target string, s State) {
	if breakerState != nil {
		breakerState.WithLabelValues(target).Set(float64(s))
	}
}

func recordTransition(target string, from, to State) {
	if breakerTransitions != nil {
		breakerTransitions.WithLabelValues(target, from.String(), to.String()).Inc()
	}
}
