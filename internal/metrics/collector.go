// Package metrics provides metrics collection for the dashboard.
package metrics

import (
	"time"
)

// Metric names shared by the provider, dispatcher and HTTP layer.
const (
	DBQueries        = "dashboard_db_queries_total"
	DBQueryErrors    = "dashboard_db_query_errors_total"
	DBQuerySeconds   = "dashboard_db_query_duration_seconds"
	CacheHits        = "dashboard_cache_hits_total"
	CacheMisses      = "dashboard_cache_misses_total"
	Renders          = "dashboard_renders_total"
	RenderSeconds    = "dashboard_render_duration_seconds"
	HTTPRequests     = "dashboard_http_requests_total"
	HTTPSeconds      = "dashboard_http_request_duration_seconds"
	PanelsSuppressed = "dashboard_panels_suppressed_total"
	RendersInFlight  = "dashboard_renders_in_flight"
)

var help = map[string]string{
	DBQueries:        "Statements sent to the database.",
	DBQueryErrors:    "Statements that failed, by error code.",
	DBQuerySeconds:   "Time spent executing statements.",
	CacheHits:        "Query results served from the cache.",
	CacheMisses:      "Query lookups that had to go to the database.",
	Renders:          "Report renders by report and outcome code.",
	RenderSeconds:    "Time spent rendering a report.",
	HTTPRequests:     "HTTP requests by method, route and status.",
	HTTPSeconds:      "HTTP request latency by route.",
	PanelsSuppressed: "Panels left out of a render because their data was empty.",
	RendersInFlight:  "Report renders currently in progress.",
}

// Help returns the description exported for name.
func Help(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return "Dashboard metric " + name + "."
}

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncrementCounter increments a counter metric.
	IncrementCounter(name string, labels ...string)

	// RecordHistogram records a value in a histogram metric.
	RecordHistogram(name string, value float64, labels ...string)

	// RecordGauge records a gauge metric value.
	RecordGauge(name string, value float64, labels ...string)

	// StartTimer starts a timer for measuring duration.
	StartTimer(name string) Timer
}

// Timer represents a timing measurement.
type Timer interface {
	// Stop stops the timer and returns the duration in seconds.
	Stop() float64
}

// NoOpCollector is a no-op implementation of Collector.
type NoOpCollector struct{}

func NewNoOpCollector() Collector {
	return &NoOpCollector{}
}

func (n *NoOpCollector) IncrementCounter(name string, labels ...string) {}

func (n *NoOpCollector) RecordHistogram(name string, value float64, labels ...string) {}

func (n *NoOpCollector) RecordGauge(name string, value float64, labels ...string) {}

func (n *NoOpCollector) StartTimer(name string) Timer {
	return &timer{start: time.Now()}
}

type timer struct {
	start time.Time
}

func (t *timer) Stop() float64 {
	return time.Since(t.start).Seconds()
}
