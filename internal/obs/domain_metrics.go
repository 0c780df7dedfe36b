package obs

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PricingMetrics groups the collectors for cart evaluation and catalog lookups.
type PricingMetrics struct {
	// Evaluations counts cart evaluations by mode (validated, lenient, validate) and result.
	Evaluations *prometheus.CounterVec
	// PolicyApplied counts policies that produced a discount, by target and type.
	PolicyApplied *prometheus.CounterVec
	// EvaluationDuration records evaluation latency in milliseconds.
	EvaluationDuration *prometheus.HistogramVec
	// CatalogCache counts cached catalog lookups by result (hit, miss, error, bypass).
	CatalogCache *prometheus.CounterVec
}

// NewPricingMetrics registers the pricing collectors, reusing any already registered on reg.
func NewPricingMetrics(namespace string, reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &PricingMetrics{
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_evaluations_total",
			Help:      "Count of cart evaluations by mode and outcome.",
		}, []string{"mode", "result"}),
		PolicyApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_policy_applied_total",
			Help:      "Count of discount policies applied during evaluation.",
		}, []string{"target", "type"}),
		EvaluationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_evaluation_duration_ms",
			Help:      "Cart evaluation latency in milliseconds.",
			Buckets:   []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500},
		}, []string{"mode"}),
		CatalogCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_total",
			Help:      "Count of catalog cache lookups by result.",
		}, []string{"result"}),
	}
	mustRegisterCollector(reg, m.Evaluations, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.Evaluations = v
		}
	})
	mustRegisterCollector(reg, m.PolicyApplied, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.PolicyApplied = v
		}
	})
	mustRegisterCollector(reg, m.EvaluationDuration, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.HistogramVec); ok {
			m.EvaluationDuration = v
		}
	})
	mustRegisterCollector(reg, m.CatalogCache, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.CatalogCache = v
		}
	})
	return m
}

// ObserveCache records a catalog cache outcome. Safe on a nil receiver.
func (m *PricingMetrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.CatalogCache.WithLabelValues(result).Inc()
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
