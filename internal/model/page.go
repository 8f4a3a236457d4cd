package model

import (
	"encoding/json"
	"time"
)

type MetricView struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type ChartView struct {
	Kind      RenderKind    `json:"kind"`
	Title     string        `json:"title"`
	XLabel    string        `json:"x_label"`
	YLabel    string        `json:"y_label"`
	Labels    []string      `json:"labels"`
	Values    []json.Number `json:"values"`
	TickAngle int           `json:"tick_angle,omitempty"`
}

type TableView struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Item is a single rendered widget; exactly one of Metric, Chart or Table is set.
type Item struct {
	Kind   RenderKind  `json:"kind"`
	Panel  string      `json:"panel"`
	Metric *MetricView `json:"metric,omitempty"`
	Chart  *ChartView  `json:"chart,omitempty"`
	Table  *TableView  `json:"table,omitempty"`
}

type SectionView struct {
	Title   string   `json:"title,omitempty"`
	Note    string   `json:"note,omitempty"`
	Intro   string   `json:"intro,omitempty"`
	Bullets []string `json:"bullets,omitempty"`
	Outro   string   `json:"outro,omitempty"`
	Columns int      `json:"columns,omitempty"`
	Items   []Item   `json:"items"`
}

// Page is the rendered output of one report dispatch.
type Page struct {
	Report     string        `json:"report"`
	Slug       string        `json:"slug"`
	Header     string        `json:"header"`
	Sections   []SectionView `json:"sections"`
	RenderedAt time.Time     `json:"rendered_at"`
	Duration   time.Duration `json:"duration_ns"`
}

// Metrics returns every metric on the page in render order.
func (p *Page) Metrics() []MetricView {
	var out []MetricView
	for _, s := range p.Sections {
		for _, it := range s.Items {
			if it.Metric != nil {
				out = append(out, *it.Metric)
			}
		}
	}
	return out
}

func (p *Page) CountKind(kind RenderKind) int {
	n := 0
	for _, s := range p.Sections {
		for _, it := range s.Items {
			if it.Kind == kind {
				n++
			}
		}
	}
	return n
}
