// Package metrics exposes prometheus collectors for scrape operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered for the service.
type Metrics struct {
	registry *prometheus.Registry

	scrapesTotal   *prometheus.CounterVec
	scrapeDuration *prometheus.HistogramVec
	tablesParsed   prometheus.Counter
	nestedTables   prometheus.Counter
}

// New creates and registers the service collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		scrapesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scrape_requests_total",
			Help: "Scrape requests by mode and outcome.",
		}, []string{"mode", "success"}),
		scrapeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scrape_duration_seconds",
			Help:    "Scrape duration by mode.",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
		tablesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tables_parsed_total",
			Help: "Tables converted to records.",
		}),
		nestedTables: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nested_tables_total",
			Help: "Nested tables resolved during table parsing.",
		}),
	}

	registry.MustRegister(
		m.scrapesTotal,
		m.scrapeDuration,
		m.tablesParsed,
		m.nestedTables,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveScrape records one completed scrape.
func (m *Metrics) ObserveScrape(mode string, success bool, duration time.Duration) {
	outcome := "false"
	if success {
		outcome = "true"
	}
	m.scrapesTotal.WithLabelValues(mode, outcome).Inc()
	m.scrapeDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// ObserveTableParse records one table conversion and its nested-table count.
func (m *Metrics) ObserveTableParse(nestedFound int) {
	m.tablesParsed.Inc()
	m.nestedTables.Add(float64(nestedFound))
}

// Handler serves the prometheus exposition endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
