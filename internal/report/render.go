package report

import (
	"encoding/json"
	"fmt"

	apperrors "ecomdash/backend/internal/errors"
	"ecomdash/backend/internal/format"
	"ecomdash/backend/internal/model"
)

// renderPanel turns one query result into the panel's widgets. Charts and
// tables are omitted when the result has no rows; metrics always render,
// with format.Missing standing in for an absent value.
func renderPanel(p model.Panel, res *model.QueryResult) ([]model.Item, error) {
	items := make([]model.Item, 0, len(p.Views))
	for _, v := range p.Views {
		switch {
		case v.Kind == model.KindMetric:
			items = append(items, model.Item{
				Kind:   v.Kind,
				Panel:  p.Key,
				Metric: &model.MetricView{Label: v.Label, Value: format.Value(v.Format, res.Scalar())},
			})
		case res.Empty():
			continue
		case v.Kind.IsChart():
			chart, err := renderChart(v, res)
			if err != nil {
				return nil, apperrors.Wrap(err, apperrors.CodeQueryFailed, "result does not match panel").
					WithDetail("panel", p.Key)
			}
			items = append(items, model.Item{Kind: v.Kind, Panel: p.Key, Chart: chart})
		case v.Kind == model.KindTable:
			items = append(items, model.Item{Kind: v.Kind, Panel: p.Key, Table: renderTable(res)})
		default:
			return nil, fmt.Errorf("panel %s: unknown view kind %q", p.Key, v.Kind)
		}
	}
	return items, nil
}

// renderChart plots column X against column Y. Y values are carried as the
// decimal text the database returned; rows with a NULL or non-numeric Y are
// left out.
func renderChart(v model.View, res *model.QueryResult) (*model.ChartView, error) {
	xi, yi := res.ColumnIndex(v.X), res.ColumnIndex(v.Y)
	if xi < 0 || yi < 0 {
		return nil, fmt.Errorf("columns %q and %q required, got %v", v.X, v.Y, res.Columns)
	}

	chart := &model.ChartView{
		Kind:      v.Kind,
		Title:     v.Title,
		XLabel:    v.X,
		YLabel:    v.Y,
		Labels:    make([]string, 0, len(res.Rows)),
		Values:    make([]json.Number, 0, len(res.Rows)),
		TickAngle: v.TickAngle,
	}
	for _, row := range res.Rows {
		n, ok := format.Number(row[yi])
		if !ok {
			continue
		}
		chart.Labels = append(chart.Labels, format.Cell(row[xi]))
		chart.Values = append(chart.Values, n)
	}
	return chart, nil
}

func renderTable(res *model.QueryResult) *model.TableView {
	t := &model.TableView{
		Columns: append([]string(nil), res.Columns...),
		Rows:    make([][]string, len(res.Rows)),
	}
	for i, row := range res.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = format.Cell(v)
		}
		t.Rows[i] = cells
	}
	return t
}
