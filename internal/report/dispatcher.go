package report

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	apperrors "ecomdash/backend/internal/errors"
	"ecomdash/backend/internal/metrics"
	"ecomdash/backend/internal/model"
)

const DefaultTTL = 600 * time.Second

// Querier runs a read-only statement, reusing results younger than ttl.
type Querier interface {
	Query(ctx context.Context, query string, ttl time.Duration) (*model.QueryResult, error)
}

type Options struct {
	// TTL is the freshness window applied to every panel query.
	TTL      time.Duration
	Parallel bool
	Metrics  metrics.Collector
	Logger   zerolog.Logger
}

const (
	StatusIdle      = "idle"
	StatusRendering = "rendering"
)

// State is a snapshot of what the dispatcher is doing.
type State struct {
	Status  string   `json:"status"`
	Reports []string `json:"reports,omitempty"`
}

type Dispatcher struct {
	querier Querier
	catalog *Catalog
	opts    Options
	now     func() time.Time

	mu       sync.Mutex
	active   map[string]int
	inFlight int
}

func NewDispatcher(q Querier, catalog *Catalog, opts Options) *Dispatcher {
	if catalog == nil {
		catalog = Default()
	}
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoOpCollector()
	}
	return &Dispatcher{
		querier: q,
		catalog: catalog,
		opts:    opts,
		now:     time.Now,
		active:  make(map[string]int),
	}
}

func (d *Dispatcher) Catalog() *Catalog {
	return d.catalog
}

func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.active) == 0 {
		return State{Status: StatusIdle}
	}
	s := State{Status: StatusRendering}
	for name := range d.active {
		s.Reports = append(s.Reports, name)
	}
	sort.Strings(s.Reports)
	return s
}

func (d *Dispatcher) enter(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active[name]++
	d.inFlight++
	d.opts.Metrics.RecordGauge(metrics.RendersInFlight, float64(d.inFlight))
}

func (d *Dispatcher) leave(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active[name]--; d.active[name] <= 0 {
		delete(d.active, name)
	}
	d.inFlight--
	d.opts.Metrics.RecordGauge(metrics.RendersInFlight, float64(d.inFlight))
}

// Dispatch runs every panel of the named report and renders the results in
// catalog order. Any failed query aborts the whole render.
func (d *Dispatcher) Dispatch(ctx context.Context, name string) (*model.Page, error) {
	rep, err := d.catalog.Lookup(name)
	if err != nil {
		return nil, err
	}

	d.enter(rep.Name)
	defer d.leave(rep.Name)

	start := d.now()
	log := d.opts.Logger.With().Str("report", rep.Name).Logger()

	page, err := d.render(ctx, rep)
	elapsed := d.now().Sub(start)
	d.opts.Metrics.RecordHistogram(metrics.RenderSeconds, elapsed.Seconds(), "report", rep.Slug)
	if err != nil {
		d.opts.Metrics.IncrementCounter(metrics.Renders, "report", rep.Slug, "code", apperrors.GetCode(err))
		log.Error().Err(err).Dur("duration", elapsed).Msg("Report render failed")
		return nil, err
	}
	d.opts.Metrics.IncrementCounter(metrics.Renders, "report", rep.Slug, "code", "OK")

	page.RenderedAt = start
	page.Duration = elapsed
	log.Debug().Dur("duration", elapsed).Msg("Report rendered")
	return page, nil
}

func (d *Dispatcher) render(ctx context.Context, rep model.Report) (*model.Page, error) {
	panels := rep.Panels()
	results, err := d.runPanels(ctx, panels)
	if err != nil {
		return nil, err
	}

	page := &model.Page{
		Report:   rep.Name,
		Slug:     rep.Slug,
		Header:   rep.Header,
		Sections: make([]model.SectionView, 0, len(rep.Sections)),
	}
	i := 0
	for _, s := range rep.Sections {
		sv := model.SectionView{
			Title:   s.Title,
			Note:    s.Note,
			Intro:   s.Intro,
			Bullets: s.Bullets,
			Outro:   s.Outro,
			Columns: s.Columns,
			Items:   []model.Item{},
		}
		for _, p := range s.Panels {
			res := results[i]
			i++
			items, err := renderPanel(p, res)
			if err != nil {
				return nil, err
			}
			if len(items) < len(p.Views) {
				d.opts.Metrics.IncrementCounter(metrics.PanelsSuppressed, "report", rep.Slug)
			}
			sv.Items = append(sv.Items, items...)
		}
		page.Sections = append(page.Sections, sv)
	}
	return page, nil
}

func (d *Dispatcher) runPanels(ctx context.Context, panels []model.Panel) ([]*model.QueryResult, error) {
	results := make([]*model.QueryResult, len(panels))
	if !d.opts.Parallel {
		for i, p := range panels {
			res, err := d.querier.Query(ctx, p.SQL, d.opts.TTL)
			if err != nil {
				return nil, panelError(p, err)
			}
			results[i] = res
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range panels {
		g.Go(func() error {
			res, err := d.querier.Query(gctx, p.SQL, d.opts.TTL)
			if err != nil {
				return panelError(p, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func panelError(p model.Panel, err error) error {
	var de *apperrors.DashboardError
	if errors.As(err, &de) {
		return de.WithDetail("panel", p.Key)
	}
	return apperrors.Wrap(err, apperrors.CodeQueryFailed, "query failed").WithDetail("panel", p.Key)
}
