package magma

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the engine's collectors. A nil *metrics records nothing.
type metrics struct {
	operations *prometheus.CounterVec
	derivation *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}

	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "magma_prime_operations_total",
		Help: "PRIME and STACIE operations by outcome",
	}, []string{"op", "result"})

	derivation := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "magma_stacie_derivation_seconds",
		Help:    "Wall time of STACIE derivations",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"op"})

	var err error
	if operations, err = register(reg, operations); err != nil {
		return nil, err
	}
	if derivation, err = register(reg, derivation); err != nil {
		return nil, err
	}
	return &metrics{operations: operations, derivation: derivation}, nil
}

// register adds c to reg, reusing an identical collector that is already
// registered so several engines can share one registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, resultLabel(err)).Inc()
}

func (m *metrics) observeDerivation(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.derivation.WithLabelValues(op).Observe(d.Seconds())
}
