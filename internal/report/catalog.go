// Package report holds the fixed dashboard reports and the dispatcher that
// runs and renders them.
package report

import (
	"fmt"
	"strings"

	"ecomdash/backend/helper"
	apperrors "ecomdash/backend/internal/errors"
	"ecomdash/backend/internal/model"
)

const (
	Overview         = "Overview"
	CustomerAnalysis = "Customer Analysis"
	OrderAnalysis    = "Order Analysis"
	SalesRevenue     = "Sales & Revenue"
	TimeSeries       = "Time Series Analysis"
)

// Catalog is an immutable, ordered set of reports.
type Catalog struct {
	reports []model.Report
	index   map[string]int
}

// NewCatalog validates reports and indexes them by name and slug. Every
// panel query must be a single read-only statement.
func NewCatalog(reports ...model.Report) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int, 2*len(reports))}
	for i, r := range reports {
		if r.Slug == "" {
			r.Slug = helper.Slugify(r.Name)
		}
		if r.Header == "" {
			r.Header = r.Name
		}
		for _, key := range []string{normalize(r.Name), r.Slug} {
			if j, dup := c.index[key]; dup && j != i {
				return nil, fmt.Errorf("duplicate report %q", key)
			}
			c.index[key] = i
		}

		seen := make(map[string]bool)
		for _, p := range r.Panels() {
			if p.Key == "" || seen[p.Key] {
				return nil, fmt.Errorf("report %q: panel key %q is empty or repeated", r.Name, p.Key)
			}
			seen[p.Key] = true
			if err := CheckReadOnly(p.SQL); err != nil {
				return nil, fmt.Errorf("report %q panel %q: %w", r.Name, p.Key, err)
			}
			if len(p.Views) == 0 {
				return nil, fmt.Errorf("report %q panel %q has no views", r.Name, p.Key)
			}
		}
		c.reports = append(c.reports, r)
	}
	return c, nil
}

func MustCatalog(reports ...model.Report) *Catalog {
	c, err := NewCatalog(reports...)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the five dashboard reports in menu order.
func Default() *Catalog {
	return MustCatalog(
		overviewReport(),
		customerReport(),
		orderReport(),
		salesReport(),
		timeSeriesReport(),
	)
}

// Lookup finds a report by name or slug, ignoring case and surrounding space.
func (c *Catalog) Lookup(name string) (model.Report, error) {
	key := normalize(name)
	i, ok := c.index[key]
	if !ok {
		i, ok = c.index[helper.Slugify(key)]
	}
	if !ok {
		return model.Report{}, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("unknown report %q", strings.TrimSpace(name))).
			WithDetail("available", c.Names())
	}
	return c.reports[i], nil
}

func (c *Catalog) Reports() []model.Report {
	out := make([]model.Report, len(c.reports))
	copy(out, c.reports)
	return out
}

func (c *Catalog) Names() []string {
	names := make([]string, len(c.reports))
	for i, r := range c.reports {
		names[i] = r.Name
	}
	return names
}

func (c *Catalog) First() model.Report {
	return c.reports[0]
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
