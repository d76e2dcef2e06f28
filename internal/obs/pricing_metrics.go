package obs

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/noah-isme/toko-register/internal/pricing"
)

// PricingMetrics groups Prometheus collectors for quote evaluation.
type PricingMetrics struct {
	QuotesTotal  *prometheus.CounterVec
	RuleOutcomes *prometheus.CounterVec
	DiscountJPY  prometheus.Histogram
	BasketSize   prometheus.Histogram
}

// NewPricingMetrics registers and returns pricing collectors.
func NewPricingMetrics(namespace string, reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &PricingMetrics{
		QuotesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_quotes_total",
			Help:      "Count of basket quotes by outcome.",
		}, []string{"result"}),
		RuleOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_rule_evaluations_total",
			Help:      "Count of promotion rule evaluations by rule, acceptance and stop signal.",
		}, []string{"rule", "accepted", "stop"}),
		DiscountJPY: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_discount_jpy",
			Help:      "Discount granted per quote in JPY.",
			Buckets:   []float64{0, 500, 1000, 2000, 3000, 5000, 10000, 20000},
		}),
		BasketSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_basket_items",
			Help:      "Number of items per quoted basket.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 25, 50, 100},
		}),
	}
	m.QuotesTotal = registerOrReuse(reg, m.QuotesTotal)
	m.RuleOutcomes = registerOrReuse(reg, m.RuleOutcomes)
	m.DiscountJPY = registerOrReuse(reg, m.DiscountJPY)
	m.BasketSize = registerOrReuse(reg, m.BasketSize)
	return m
}

// ObserveEvaluation records a successful quote and its rule steps.
func (m *PricingMetrics) ObserveEvaluation(items int, eval pricing.Evaluation) {
	if m == nil {
		return
	}
	m.QuotesTotal.WithLabelValues("ok").Inc()
	m.BasketSize.Observe(float64(items))
	m.DiscountJPY.Observe(float64(eval.Discount()))
	for _, step := range eval.Steps {
		m.RuleOutcomes.WithLabelValues(step.Rule, strconv.FormatBool(step.Accepted), strconv.FormatBool(step.Stop && step.Accepted)).Inc()
	}
}

// ObserveFailure records a quote that could not be priced.
func (m *PricingMetrics) ObserveFailure(result string) {
	if m == nil {
		return
	}
	m.QuotesTotal.WithLabelValues(result).Inc()
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
			return c
		}
		panic(fmt.Errorf("register collector: %w", err))
	}
	return c
}
