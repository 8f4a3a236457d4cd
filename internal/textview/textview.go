// Package textview prints a rendered report page to a terminal.
package textview

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"ecomdash/backend/internal/model"
)

// Render writes page to w. Metrics of a section share one table, each chart
// is printed as its series and each table as-is.
func Render(w io.Writer, page *model.Page) error {
	if _, err := fmt.Fprintf(w, "%s\n%s\n", page.Header, strings.Repeat("=", len(page.Header))); err != nil {
		return err
	}

	for _, s := range page.Sections {
		if s.Title != "" {
			fmt.Fprintf(w, "\n%s\n%s\n", s.Title, strings.Repeat("-", len(s.Title)))
		}

		var metrics [][]string
		for _, it := range s.Items {
			if it.Metric != nil {
				metrics = append(metrics, []string{it.Metric.Label, it.Metric.Value})
			}
		}
		if len(metrics) > 0 {
			fmt.Fprintln(w)
			t := newTable(w)
			t.SetHeader([]string{"Metric", "Value"})
			t.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
			t.AppendBulk(metrics)
			t.Render()
		}

		for _, it := range s.Items {
			switch {
			case it.Chart != nil:
				renderChart(w, it.Chart)
			case it.Table != nil:
				fmt.Fprintln(w)
				t := newTable(w)
				t.SetHeader(it.Table.Columns)
				t.AppendBulk(it.Table.Rows)
				t.Render()
			}
		}

		if s.Note != "" {
			fmt.Fprintf(w, "\nNOTE: %s\n", s.Note)
		}
		if s.Intro != "" {
			fmt.Fprintf(w, "\n%s\n", s.Intro)
		}
		for _, b := range s.Bullets {
			fmt.Fprintf(w, "  * %s\n", b)
		}
		if s.Outro != "" {
			fmt.Fprintf(w, "%s\n", s.Outro)
		}
	}
	return nil
}

func renderChart(w io.Writer, c *model.ChartView) {
	kind := "bar chart"
	if c.Kind == model.KindLineChart {
		kind = "line chart"
	}
	fmt.Fprintf(w, "\n%s (%s)\n", c.Title, kind)

	t := newTable(w)
	t.SetHeader([]string{c.XLabel, c.YLabel})
	t.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for i, label := range c.Labels {
		t.Append([]string{label, c.Values[i].String()})
	}
	t.Render()
}

func newTable(w io.Writer) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetAutoFormatHeaders(false)
	t.SetRowLine(false)
	t.SetBorder(false)
	t.SetAutoWrapText(false)
	return t
}

// RenderNames prints the report menu.
func RenderNames(w io.Writer, reports []model.Report) {
	t := newTable(w)
	t.SetHeader([]string{"Report", "Slug", "Panels"})
	for _, r := range reports {
		t.Append([]string{r.Name, r.Slug, fmt.Sprint(len(r.Panels()))})
	}
	t.Render()
}

// RenderSchema prints the outcome of a schema check.
func RenderSchema(w io.Writer, report *model.SchemaReport) {
	if report.OK() {
		fmt.Fprintf(w, "schema %q has every table and column the reports need\n", report.Schema)
		return
	}
	t := newTable(w)
	t.SetHeader([]string{"Table", "Missing"})
	for _, table := range report.MissingTables {
		t.Append([]string{table, "(table)"})
	}
	for table, cols := range report.MissingColumns {
		t.Append([]string{table, strings.Join(cols, ", ")})
	}
	t.Render()
}
