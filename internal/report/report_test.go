package report

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomdash/backend/internal/cache"
	apperrors "ecomdash/backend/internal/errors"
	"ecomdash/backend/internal/metrics"
	"ecomdash/backend/internal/model"
	"ecomdash/backend/internal/service"
)

// fakeQuerier answers from a fixed map of SQL to results and records every call.
type fakeQuerier struct {
	mu      sync.Mutex
	results map[string]*model.QueryResult
	errs    map[string]error
	calls   []string
	ttls    []time.Duration
}

func (f *fakeQuerier) Query(ctx context.Context, query string, ttl time.Duration) (*model.QueryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, query)
	f.ttls = append(f.ttls, ttl)
	if err, ok := f.errs[query]; ok {
		return nil, err
	}
	if res, ok := f.results[query]; ok {
		return res, nil
	}
	return &model.QueryResult{Columns: []string{"?column?"}, Rows: [][]any{}}, nil
}

func scalar(v any) *model.QueryResult {
	return &model.QueryResult{Columns: []string{"count"}, Rows: [][]any{{v}}}
}

func overviewData() map[string]*model.QueryResult {
	return map[string]*model.QueryResult{
		totalCustomersSQL:  scalar(int64(100)),
		uniqueOrdersSQL:    scalar(int64(50)),
		orderRecordsSQL:    scalar(int64(120)),
		totalRevenueSQL:    scalar("5000.00"),
		activeCustomersSQL: scalar(int64(48)),
		avgOrderValueSQL:   scalar("41.67"),
	}
}

func TestDispatch_ExactQuerySetPerReport(t *testing.T) {
	tests := []struct {
		report string
		want   []string
	}{
		{Overview, []string{totalCustomersSQL, uniqueOrdersSQL, orderRecordsSQL, totalRevenueSQL, activeCustomersSQL, avgOrderValueSQL}},
		{CustomerAnalysis, []string{customersByStateSQL}},
		{OrderAnalysis, []string{uniqueOrdersSQL, ordersPerCustSQL, avgOrderValueSQL, totalProductsSQL, orderRecordsSQL, duplicateFactorSQL, ordersByStatusSQL, ordersOverTimeSQL}},
		{SalesRevenue, []string{revenueByCategorySQL}},
		{TimeSeries, []string{monthlyTrendSQL}},
	}

	for _, tt := range tests {
		for _, parallel := range []bool{false, true} {
			name := tt.report
			if parallel {
				name += "/parallel"
			}
			t.Run(name, func(t *testing.T) {
				q := &fakeQuerier{}
				d := NewDispatcher(q, Default(), Options{Parallel: parallel})

				_, err := d.Dispatch(context.Background(), tt.report)
				require.NoError(t, err)

				got := append([]string(nil), q.calls...)
				want := append([]string(nil), tt.want...)
				if parallel {
					sort.Strings(got)
					sort.Strings(want)
				}
				assert.Equal(t, want, got)
				for _, ttl := range q.ttls {
					assert.Equal(t, 600*time.Second, ttl)
				}
			})
		}
	}
}

func TestDispatch_OverviewScenario(t *testing.T) {
	q := &fakeQuerier{results: overviewData()}
	d := NewDispatcher(q, Default(), Options{})

	page, err := d.Dispatch(context.Background(), "Overview")
	require.NoError(t, err)

	assert.Equal(t, "Dashboard Overview", page.Header)
	assert.Equal(t, []model.MetricView{
		{Label: "Total Customers", Value: "100"},
		{Label: "Unique Orders", Value: "50"},
		{Label: "Order Records", Value: "120"},
		{Label: "Total Revenue", Value: "$5,000.00"},
		{Label: "Active Customers", Value: "48"},
		{Label: "Avg Order Value", Value: "$41.67"},
	}, page.Metrics())
	require.Len(t, page.Sections, 3)
	assert.Equal(t, 4, page.Sections[0].Columns)
	assert.Contains(t, page.Sections[1].Note, "Unique Orders")
	assert.Len(t, page.Sections[2].Bullets, 4)
}

func TestDispatch_ThousandsSeparators(t *testing.T) {
	data := overviewData()
	data[totalCustomersSQL] = scalar(int64(99441))
	data[totalRevenueSQL] = scalar("16008872.12")
	q := &fakeQuerier{results: data}

	page, err := NewDispatcher(q, Default(), Options{}).Dispatch(context.Background(), "overview")
	require.NoError(t, err)

	m := page.Metrics()
	assert.Equal(t, "99,441", m[0].Value)
	assert.Equal(t, "$16,008,872.12", m[3].Value)
}

func TestDispatch_EmptyCustomerAnalysis(t *testing.T) {
	q := &fakeQuerier{results: map[string]*model.QueryResult{
		customersByStateSQL: {Columns: []string{"State", "Customer Count"}, Rows: [][]any{}},
	}}
	d := NewDispatcher(q, Default(), Options{})

	page, err := d.Dispatch(context.Background(), "Customer Analysis")
	require.NoError(t, err)

	assert.Equal(t, "Customer Analysis", page.Header)
	assert.Equal(t, 0, page.CountKind(model.KindBarChart))
	assert.Equal(t, 0, page.CountKind(model.KindTable))
	require.Len(t, page.Sections, 1)
	assert.Empty(t, page.Sections[0].Items)
}

func TestDispatch_RevenuePassthrough(t *testing.T) {
	q := &fakeQuerier{results: map[string]*model.QueryResult{
		revenueByCategorySQL: {
			Columns: []string{"Category", "Revenue"},
			Rows: [][]any{
				{"beleza_saude", "1441248.07"},
				{"relogios_presentes", "1305541.61"},
				{"cama_mesa_banho", "0.10"},
			},
		},
	}}

	page, err := NewDispatcher(q, Default(), Options{}).Dispatch(context.Background(), "sales-revenue")
	require.NoError(t, err)

	items := page.Sections[0].Items
	require.Len(t, items, 2)
	chart := items[0].Chart
	require.NotNil(t, chart)
	assert.Equal(t, model.KindBarChart, chart.Kind)
	assert.Equal(t, 45, chart.TickAngle)
	assert.Equal(t, []string{"beleza_saude", "relogios_presentes", "cama_mesa_banho"}, chart.Labels)
	assert.Equal(t, []json.Number{"1441248.07", "1305541.61", "0.10"}, chart.Values)

	table := items[1].Table
	require.NotNil(t, table)
	assert.Equal(t, []string{"Category", "Revenue"}, table.Columns)
	assert.Equal(t, []string{"beleza_saude", "1441248.07"}, table.Rows[0])
}

func TestDispatch_TimeSeriesSharesOneQuery(t *testing.T) {
	q := &fakeQuerier{results: map[string]*model.QueryResult{
		monthlyTrendSQL: {
			Columns: []string{"Month", "Revenue", "Order Count"},
			Rows: [][]any{
				{"2017-01", "138488.04", int64(789)},
				{"2017-02", "291908.01", int64(1718)},
				{"2017-03", nil, int64(2617)},
			},
		},
	}}

	page, err := NewDispatcher(q, Default(), Options{}).Dispatch(context.Background(), TimeSeries)
	require.NoError(t, err)

	assert.Len(t, q.calls, 1)
	assert.Equal(t, 2, page.CountKind(model.KindLineChart))
	assert.Equal(t, 1, page.CountKind(model.KindTable))

	items := page.Sections[0].Items
	assert.Equal(t, "Monthly Revenue Trend", items[0].Chart.Title)
	assert.Equal(t, []string{"2017-01", "2017-02"}, items[0].Chart.Labels)
	assert.Equal(t, []json.Number{"789", "1718", "2617"}, items[1].Chart.Values)
	assert.Equal(t, []string{"2017-03", "", "2617"}, items[2].Table.Rows[2])
}

func TestDispatch_NullScalarRendersPlaceholder(t *testing.T) {
	data := overviewData()
	data[totalRevenueSQL] = scalar(nil)
	data[avgOrderValueSQL] = &model.QueryResult{Columns: []string{"round"}, Rows: [][]any{}}

	page, err := NewDispatcher(&fakeQuerier{results: data}, Default(), Options{}).Dispatch(context.Background(), Overview)
	require.NoError(t, err)

	m := page.Metrics()
	assert.Equal(t, "-", m[3].Value)
	assert.Equal(t, "-", m[5].Value)
}

func TestDispatch_OrderAnalysisFormats(t *testing.T) {
	q := &fakeQuerier{results: map[string]*model.QueryResult{
		uniqueOrdersSQL:    scalar(int64(99441)),
		ordersPerCustSQL:   scalar("1.00"),
		avgOrderValueSQL:   scalar("154.10"),
		totalProductsSQL:   scalar(int64(32951)),
		orderRecordsSQL:    scalar(int64(397476)),
		duplicateFactorSQL: scalar("4.0"),
		ordersByStatusSQL: {
			Columns: []string{"Status", "Count"},
			Rows:    [][]any{{"delivered", int64(96478)}, {"shipped", int64(1107)}},
		},
	}}

	page, err := NewDispatcher(q, Default(), Options{}).Dispatch(context.Background(), OrderAnalysis)
	require.NoError(t, err)

	values := map[string]string{}
	for _, m := range page.Metrics() {
		values[m.Label] = m.Value
	}
	assert.Equal(t, map[string]string{
		"Unique Orders":       "99,441",
		"Orders per Customer": "1.00",
		"Avg Order Value":     "$154.10",
		"Total Products":      "32,951",
		"Order Records":       "397,476",
		"Duplicate Factor":    "4.0x",
	}, values)

	assert.Equal(t, 1, page.CountKind(model.KindBarChart))
	assert.Equal(t, 0, page.CountKind(model.KindLineChart), "empty orders-over-time chart is suppressed")
	assert.Equal(t, "Orders Over Time", page.Sections[3].Title)
}

func TestDispatch_QueryFailureAbortsRender(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"query error", apperrors.Wrap(&pq.Error{Code: "42P01"}, apperrors.CodeQueryFailed, "query failed"), apperrors.CodeQueryFailed},
		{"connection error", apperrors.Wrap(&pq.Error{Code: "08006"}, apperrors.CodeConnectionFailed, "unable to connect to database"), apperrors.CodeConnectionFailed},
		{"plain error", context.DeadlineExceeded, apperrors.CodeQueryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := overviewData()
			q := &fakeQuerier{results: data, errs: map[string]error{orderRecordsSQL: tt.err}}

			page, err := NewDispatcher(q, Default(), Options{}).Dispatch(context.Background(), Overview)
			assert.Nil(t, page)
			assert.Equal(t, tt.code, apperrors.GetCode(err))

			var de *apperrors.DashboardError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, "order_records", de.Details["panel"])
		})
	}
}

func TestDispatch_UnknownReport(t *testing.T) {
	q := &fakeQuerier{}
	_, err := NewDispatcher(q, Default(), Options{}).Dispatch(context.Background(), "Inventory")
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, q.calls)
}

func TestDispatch_State(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	q := &blockingQuerier{release: release, entered: entered}
	collector := metrics.NewPrometheusCollector(prometheus.NewRegistry())
	d := NewDispatcher(q, Default(), Options{Metrics: collector})

	assert.Equal(t, State{Status: StatusIdle}, d.State())

	done := make(chan error, 1)
	go func() {
		_, err := d.Dispatch(context.Background(), SalesRevenue)
		done <- err
	}()
	<-entered
	assert.Equal(t, State{Status: StatusRendering, Reports: []string{SalesRevenue}}, d.State())
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Gauge(metrics.RendersInFlight)))

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, State{Status: StatusIdle}, d.State())
	assert.Equal(t, 0.0, testutil.ToFloat64(collector.Gauge(metrics.RendersInFlight)))
}

type blockingQuerier struct {
	release <-chan struct{}
	entered chan<- struct{}
}

func (b *blockingQuerier) Query(ctx context.Context, query string, ttl time.Duration) (*model.QueryResult, error) {
	b.entered <- struct{}{}
	<-b.release
	return &model.QueryResult{}, nil
}

func TestDispatch_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	q := &fakeQuerier{}
	d := NewDispatcher(q, Default(), Options{Metrics: metrics.NewPrometheusCollector(reg)})

	_, err := d.Dispatch(context.Background(), CustomerAnalysis)
	require.NoError(t, err)

	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP dashboard_panels_suppressed_total Panels left out of a render because their data was empty.
# TYPE dashboard_panels_suppressed_total counter
dashboard_panels_suppressed_total{report="customer-analysis"} 1
# HELP dashboard_renders_total Report renders by report and outcome code.
# TYPE dashboard_renders_total counter
dashboard_renders_total{code="OK",report="customer-analysis"} 1
`), metrics.Renders, metrics.PanelsSuppressed))
}

// countingClient is a service.DBClient that serves fixed results and counts
// statements sent to the database.
type countingClient struct {
	mu      sync.Mutex
	results map[string]*model.QueryResult
	count   int
}

func (c *countingClient) Connect(ctx context.Context, dsn string) error { return nil }
func (c *countingClient) Disconnect() error                              { return nil }
func (c *countingClient) Ping(ctx context.Context) error                 { return nil }
func (c *countingClient) ListTables(ctx context.Context, schema string) ([]string, error) {
	return nil, nil
}
func (c *countingClient) ListColumns(ctx context.Context, schema, table string) ([]model.Column, error) {
	return nil, nil
}
func (c *countingClient) ExecuteQuery(ctx context.Context, query string) (*model.QueryResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	if res, ok := c.results[query]; ok {
		return res, nil
	}
	return &model.QueryResult{Rows: [][]any{}}, nil
}

func TestDispatch_RepeatWithinWindowIssuesNoQueries(t *testing.T) {
	client := &countingClient{results: overviewData()}
	provider := service.NewProvider(client, service.Options{Cache: cache.NewMemoryCache(64, nil)})
	d := NewDispatcher(provider, Default(), Options{TTL: 600 * time.Second})

	first, err := d.Dispatch(context.Background(), Overview)
	require.NoError(t, err)
	assert.Equal(t, 6, client.count)

	second, err := d.Dispatch(context.Background(), Overview)
	require.NoError(t, err)
	assert.Equal(t, 6, client.count)
	assert.Equal(t, first.Metrics(), second.Metrics())
	assert.Equal(t, uint64(6), provider.Stats().Queries)
	assert.Equal(t, uint64(6), provider.Stats().CacheHits)

	// Order Analysis shares three statements with Overview.
	_, err = d.Dispatch(context.Background(), OrderAnalysis)
	require.NoError(t, err)
	assert.Equal(t, 11, client.count)
}
