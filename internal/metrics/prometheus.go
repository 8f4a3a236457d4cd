package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buckets overrides prometheus.DefBuckets for latencies that sit well below
// or above its range.
var buckets = map[string][]float64{
	DBQuerySeconds: prometheus.ExponentialBuckets(0.001, 2, 14),
	RenderSeconds:  prometheus.ExponentialBuckets(0.005, 2, 12),
}

// PrometheusCollector exports dashboard metrics to Prometheus. A vector is
// registered the first time its name is used; the label names seen on that
// first call are fixed for the lifetime of the collector.
type PrometheusCollector struct {
	mu         sync.Mutex
	registerer prometheus.Registerer
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewPrometheusCollector creates a collector that registers with reg, or
// with the default registerer when reg is nil.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PrometheusCollector{
		registerer: reg,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}
}

func vecFor[V prometheus.Collector](p *PrometheusCollector, vecs map[string]V, name string, build func() V) V {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := vecs[name]
	if !ok {
		v = build()
		p.registerer.MustRegister(v)
		vecs[name] = v
	}
	return v
}

func (p *PrometheusCollector) IncrementCounter(name string, labels ...string) {
	names, values := parseLabelPairs(labels)
	vec := vecFor(p, p.counters, name, func() *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: Help(name)}, names)
	})
	vec.WithLabelValues(values...).Inc()
}

func (p *PrometheusCollector) RecordHistogram(name string, value float64, labels ...string) {
	names, values := parseLabelPairs(labels)
	vec := vecFor(p, p.histograms, name, func() *prometheus.HistogramVec {
		b, ok := buckets[name]
		if !ok {
			b = prometheus.DefBuckets
		}
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: Help(name), Buckets: b}, names)
	})
	vec.WithLabelValues(values...).Observe(value)
}

func (p *PrometheusCollector) RecordGauge(name string, value float64, labels ...string) {
	names, values := parseLabelPairs(labels)
	vec := vecFor(p, p.gauges, name, func() *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: Help(name)}, names)
	})
	vec.WithLabelValues(values...).Set(value)
}

// Gauge returns the series of name for the given label values, or nil when
// the gauge was never recorded.
func (p *PrometheusCollector) Gauge(name string, values ...string) prometheus.Gauge {
	p.mu.Lock()
	vec, ok := p.gauges[name]
	p.mu.Unlock()
	if !ok {
		return nil
	}
	return vec.WithLabelValues(values...)
}

func (p *PrometheusCollector) StartTimer(name string) Timer {
	return &timer{start: time.Now()}
}

// parseLabelPairs splits "key1", "value1", "key2", "value2", ... into names
// and values. A trailing key without a value is dropped.
func parseLabelPairs(labels []string) ([]string, []string) {
	n := len(labels) / 2
	names := make([]string, 0, n)
	values := make([]string, 0, n)
	for i := 0; i+1 < len(labels); i += 2 {
		names = append(names, labels[i])
		values = append(values, labels[i+1])
	}
	return names, values
}

// Handler serves the metrics gathered by g, or the default gatherer when g is nil.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
