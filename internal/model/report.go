package model

type Shape string

const (
	ShapeScalar Shape = "scalar"
	ShapeRows   Shape = "rows"
)

type RenderKind string

const (
	KindMetric    RenderKind = "metric"
	KindBarChart  RenderKind = "bar-chart"
	KindLineChart RenderKind = "line-chart"
	KindTable     RenderKind = "table"
)

func (k RenderKind) IsChart() bool {
	return k == KindBarChart || k == KindLineChart
}

// Format selects how a metric value is printed.
type Format string

const (
	FormatInteger  Format = "integer"  // 1,234
	FormatCurrency Format = "currency" // $1,234.50
	FormatDecimal  Format = "decimal"  // 2.40
	FormatFactor   Format = "factor"   // 2.4x
)

// View is one presentation of a panel's result.
type View struct {
	Kind      RenderKind `json:"kind"`
	Title     string     `json:"title,omitempty"`
	Label     string     `json:"label,omitempty"`
	X         string     `json:"x,omitempty"`
	Y         string     `json:"y,omitempty"`
	Format    Format     `json:"format,omitempty"`
	TickAngle int        `json:"tick_angle,omitempty"`
}

// Panel is one query plus the views rendered from its result.
type Panel struct {
	Key   string `json:"key"`
	SQL   string `json:"sql"`
	Shape Shape  `json:"shape"`
	Views []View `json:"views"`
}

type Section struct {
	Title   string   `json:"title,omitempty"`
	Note    string   `json:"note,omitempty"`
	Intro   string   `json:"intro,omitempty"`
	Bullets []string `json:"bullets,omitempty"`
	Outro   string   `json:"outro,omitempty"`
	Columns int      `json:"columns,omitempty"`
	Panels  []Panel  `json:"panels,omitempty"`
}

type Report struct {
	Name     string    `json:"name"`
	Slug     string    `json:"slug"`
	Header   string    `json:"header"`
	Sections []Section `json:"sections"`
}

// Panels returns the report's panels in render order.
func (r Report) Panels() []Panel {
	var out []Panel
	for _, s := range r.Sections {
		out = append(out, s.Panels...)
	}
	return out
}
