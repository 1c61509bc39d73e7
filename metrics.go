package main

import (
	"math"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "layout_optimizer"

// searchMetrics instruments the search loop. All methods are safe for
// concurrent use and tolerate a nil receiver.
type searchMetrics struct {
	trials     prometheus.Counter
	newValleys prometheus.Counter
	duplicates prometheus.Counter
	storeErrs  *prometheus.CounterVec
	steps      prometheus.Histogram
	bestCost   prometheus.Gauge

	mu   sync.Mutex
	best float64
}

// newSearchMetrics creates the collectors and registers them with reg when reg
// is non-nil.
func newSearchMetrics(reg prometheus.Registerer) *searchMetrics {
	m := &searchMetrics{
		trials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "trials_total",
			Help:      "Random restarts descended to a valley.",
		}),
		newValleys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "valleys_new_total",
			Help:      "Valleys inserted into the store by this run.",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "valleys_duplicate_total",
			Help:      "Valleys that were already stored.",
		}),
		storeErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "store_errors_total",
			Help:      "Failed store operations by operation.",
		}, []string{"op"}),
		steps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "descent_steps",
			Help:      "Descent iterations per trial.",
			Buckets:   prometheus.LinearBuckets(1, 4, 12),
		}),
		bestCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "best_cost",
			Help:      "Lowest cost inserted by this run.",
		}),
		best: math.Inf(1),
	}
	if reg != nil {
		reg.MustRegister(m.trials, m.newValleys, m.duplicates, m.storeErrs, m.steps, m.bestCost)
	}
	return m
}

func (m *searchMetrics) observeTrial(r OptimizationResult) {
	if m == nil {
		return
	}
	m.trials.Inc()
	m.steps.Observe(float64(r.Steps))
}

func (m *searchMetrics) observeNew(r OptimizationResult) {
	if m == nil {
		return
	}
	m.newValleys.Inc()
	m.mu.Lock()
	if r.Cost < m.best {
		m.best = r.Cost
		m.bestCost.Set(r.Cost)
	}
	m.mu.Unlock()
}

func (m *searchMetrics) observeDuplicate() {
	if m == nil {
		return
	}
	m.duplicates.Inc()
}

func (m *searchMetrics) observeStoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrs.WithLabelValues(op).Inc()
}

// metricsHandler serves reg in the Prometheus text format.
func metricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
