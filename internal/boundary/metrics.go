package boundary

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// metrics is an in-process Prometheus registry owned by one Boundary
// instance — never the global default registerer, so multiple Boundary
// instances in the same test binary never collide on registration. There
// is no HTTP scrape handler: every value here is read back directly
// through Boundary.Stats(), not exposed for an external scraper.
type metrics struct {
	registry   *prometheus.Registry
	queueDepth prometheus.Gauge
	pages      prometheus.Gauge
	alerts     prometheus.Gauge
	errors     prometheus.Gauge
	exports    *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "onionwatch",
			Subsystem: "crawl",
			Name:      "queue_depth",
			Help:      "Number of URLs currently admitted and waiting to be dequeued.",
		}),
		pages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "onionwatch",
			Subsystem: "crawl",
			Name:      "pages_total",
			Help:      "Total pages persisted so far this run.",
		}),
		alerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "onionwatch",
			Subsystem: "crawl",
			Name:      "alerts_total",
			Help:      "Total alerts raised so far this run.",
		}),
		errors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "onionwatch",
			Subsystem: "crawl",
			Name:      "errors_total",
			Help:      "Total classified errors recorded so far this run.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "onionwatch",
			Subsystem: "boundary",
			Name:      "exports_total",
			Help:      "Exports performed through the boundary, labeled by format.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(m.queueDepth, m.pages, m.alerts, m.errors, m.exports)
	return m
}

func (m *metrics) observeCrawlCounters(queueDepth, pages, alerts, errs int) {
	m.queueDepth.Set(float64(queueDepth))
	m.pages.Set(float64(pages))
	m.alerts.Set(float64(alerts))
	m.errors.Set(float64(errs))
}

func (m *metrics) recordExport(kind string) {
	m.exports.WithLabelValues(kind).Inc()
}

// gaugeValue reads a Gauge's current value back out — Gauge has no Value()
// getter, so the dto.Metric write-and-read round trip is the only way in.
func gaugeValue(g prometheus.Gauge) float64 {
	var d dto.Metric
	if err := g.Write(&d); err != nil {
		return 0
	}
	return d.GetGauge().GetValue()
}

func (m *metrics) exportCounts() map[string]float64 {
	ch := make(chan prometheus.Metric, 16)
	m.exports.Collect(ch)
	close(ch)

	out := map[string]float64{}
	for metric := range ch {
		var d dto.Metric
		if err := metric.Write(&d); err != nil {
			continue
		}
		label := ""
		for _, lp := range d.GetLabel() {
			label = lp.GetValue()
		}
		out[label] = d.GetCounter().GetValue()
	}
	return out
}
