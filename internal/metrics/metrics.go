// Package metrics defines the Prometheus collectors exported by checked
// buffers.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "parslice"

// Collectors groups the counters and gauges of one checker.
type Collectors struct {
	// Accesses counts checked element accesses by op ("read", "write").
	Accesses *prometheus.CounterVec

	// Races counts unique reports by kind ("write-write", "read-write",
	// "write-read", "aliasing").
	Races *prometheus.CounterVec

	// Borrows counts granted borrows by mode ("shared", "exclusive").
	Borrows *prometheus.CounterVec

	// LiveBorrows is the number of borrows not yet released.
	LiveBorrows prometheus.Gauge
}

// New creates unregistered collectors.
func New() *Collectors {
	return &Collectors{
		Accesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checked_accesses_total",
			Help:      "Element accesses recorded by the checked mode.",
		}, []string{"op"}),
		Races: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "races_total",
			Help:      "Unique data races and aliasing violations reported.",
		}, []string{"kind"}),
		Borrows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "borrows_total",
			Help:      "Borrows granted by the checked mode.",
		}, []string{"mode"}),
		LiveBorrows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_borrows",
			Help:      "Borrows currently held.",
		}),
	}
}

// Register registers the collectors with reg.
//
// Several checked buffers may share one registry: when a collector with the
// same descriptor is already registered, the existing one is adopted so that
// all buffers feed the same series.
func (c *Collectors) Register(reg prometheus.Registerer) error {
	var err error
	if c.Accesses, err = registerVec(reg, c.Accesses); err != nil {
		return err
	}
	if c.Races, err = registerVec(reg, c.Races); err != nil {
		return err
	}
	if c.Borrows, err = registerVec(reg, c.Borrows); err != nil {
		return err
	}

	if err := reg.Register(c.LiveBorrows); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return fmt.Errorf("metrics: register live_borrows: %w", err)
		}
		g, ok := already.ExistingCollector.(prometheus.Gauge)
		if !ok {
			return fmt.Errorf("metrics: live_borrows registered with a different type: %w", err)
		}
		c.LiveBorrows = g
	}
	return nil
}

func registerVec(reg prometheus.Registerer, v *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	err := reg.Register(v)
	if err == nil {
		return v, nil
	}

	var already prometheus.AlreadyRegisteredError
	if !errors.As(err, &already) {
		return nil, fmt.Errorf("metrics: register counter: %w", err)
	}
	existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
	if !ok {
		return nil, fmt.Errorf("metrics: counter registered with a different type: %w", err)
	}
	return existing, nil
}

// Access increments the access counter for op.
func (c *Collectors) Access(op string, n int) {
	if c == nil {
		return
	}
	c.Accesses.WithLabelValues(op).Add(float64(n))
}

// Race increments the race counter for kind.
func (c *Collectors) Race(kind string) {
	if c == nil {
		return
	}
	c.Races.WithLabelValues(kind).Inc()
}

// Borrow records a granted borrow.
func (c *Collectors) Borrow(mode string) {
	if c == nil {
		return
	}
	c.Borrows.WithLabelValues(mode).Inc()
	c.LiveBorrows.Inc()
}

// Release records a released borrow.
func (c *Collectors) Release() {
	if c == nil {
		return
	}
	c.LiveBorrows.Dec()
}
