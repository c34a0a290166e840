// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

type Metrics struct {
	PriceLookups        *prometheus.CounterVec   // labels: source, result
	PriceLookupDuration *prometheus.HistogramVec // labels: source
	Computations        prometheus.Counter
	SkippedTrades       *prometheus.CounterVec // labels: reason
	PriceFallbacks      prometheus.Counter

	registry *prometheus.Registry
}

// New registers all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		PriceLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_price_lookups_total",
			Help: "Price lookups by source and result",
		}, []string{"source", "result"}),
		PriceLookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portfolio_price_lookup_duration_seconds",
			Help:    "Price lookup latency by source",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		Computations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_computations_total",
			Help: "Portfolio computations run",
		}),
		SkippedTrades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_skipped_trades_total",
			Help: "Trades flagged by the aggregator, by reason",
		}, []string{"reason"}),
		PriceFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_price_fallbacks_total",
			Help: "Positions valued at cost because no price was resolved",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.PriceLookups,
		m.PriceLookupDuration,
		m.Computations,
		m.SkippedTrades,
		m.PriceFallbacks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveLookup(source string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.PriceLookups.WithLabelValues(source, result).Inc()
	m.PriceLookupDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncComputations() {
	if m == nil {
		return
	}
	m.Computations.Inc()
}

func (m *Metrics) IncSkipped(reason string) {
	if m == nil {
		return
	}
	m.SkippedTrades.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncFallbacks() {
	if m == nil {
		return
	}
	m.PriceFallbacks.Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
