package report

import "ecomdash/backend/internal/model"

const (
	totalCustomersSQL  = `SELECT COUNT(customer_id) FROM customers`
	uniqueOrdersSQL    = `SELECT COUNT(DISTINCT order_id) FROM orders`
	orderRecordsSQL    = `SELECT COUNT(*) FROM orders`
	totalRevenueSQL    = `SELECT ROUND(SUM(payment_value)::NUMERIC, 2) FROM payments`
	activeCustomersSQL = `SELECT COUNT(DISTINCT customer_id) FROM orders`
	avgOrderValueSQL   = `SELECT ROUND(AVG(payment_value)::NUMERIC, 2) FROM payments`
	ordersPerCustSQL   = `SELECT ROUND((COUNT(DISTINCT order_id) * 1.0 / COUNT(DISTINCT customer_id))::NUMERIC, 2) FROM orders`
	totalProductsSQL   = `SELECT COUNT(DISTINCT product_id) FROM products`
	duplicateFactorSQL = `SELECT ROUND((COUNT(*) * 1.0 / COUNT(DISTINCT order_id))::NUMERIC, 1) FROM orders`

	customersByStateSQL = `
SELECT customer_state AS "State", COUNT(*) AS "Customer Count"
FROM customers
GROUP BY customer_state
ORDER BY "Customer Count" DESC
LIMIT 10`

	ordersByStatusSQL = `
SELECT order_status AS "Status", COUNT(DISTINCT order_id) AS "Count"
FROM orders
GROUP BY order_status
ORDER BY "Count" DESC`

	ordersOverTimeSQL = `
SELECT
    TO_CHAR(order_purchase_timestamp::TIMESTAMP, 'YYYY-MM') AS "Month",
    COUNT(DISTINCT order_id) AS "Order Count"
FROM orders
GROUP BY "Month"
ORDER BY "Month"`

	revenueByCategorySQL = `
SELECT
    p."product category" AS "Category",
    ROUND(SUM(pay.payment_value)::NUMERIC, 2) AS "Revenue"
FROM products p
JOIN order_items oi ON p.product_id = oi.product_id
JOIN payments pay ON oi.order_id = pay.order_id
GROUP BY "Category"
ORDER BY "Revenue" DESC
LIMIT 10`

	monthlyTrendSQL = `
SELECT
    TO_CHAR(o.order_purchase_timestamp::TIMESTAMP, 'YYYY-MM') AS "Month",
    ROUND(SUM(p.payment_value)::NUMERIC, 2) AS "Revenue",
    COUNT(DISTINCT o.order_id) AS "Order Count"
FROM (SELECT DISTINCT order_id, order_purchase_timestamp FROM orders) o
JOIN payments p ON o.order_id = p.order_id
GROUP BY "Month"
ORDER BY "Month"`
)

func metric(key, sql, label string, f model.Format) model.Panel {
	return model.Panel{
		Key:   key,
		SQL:   sql,
		Shape: model.ShapeScalar,
		Views: []model.View{{Kind: model.KindMetric, Label: label, Format: f}},
	}
}

func table() model.View {
	return model.View{Kind: model.KindTable}
}

func overviewReport() model.Report {
	return model.Report{
		Name:   Overview,
		Header: "Dashboard Overview",
		Sections: []model.Section{
			{
				Columns: 4,
				Panels: []model.Panel{
					metric("total_customers", totalCustomersSQL, "Total Customers", model.FormatInteger),
					metric("unique_orders", uniqueOrdersSQL, "Unique Orders", model.FormatInteger),
					metric("order_records", orderRecordsSQL, "Order Records", model.FormatInteger),
					metric("total_revenue", totalRevenueSQL, "Total Revenue", model.FormatCurrency),
				},
			},
			{
				Note:    "Data Note: 'Unique Orders' shows distinct business transactions, while 'Order Records' shows total database rows (including duplicates).",
				Columns: 2,
				Panels: []model.Panel{
					metric("active_customers", activeCustomersSQL, "Active Customers", model.FormatInteger),
					metric("avg_order_value", avgOrderValueSQL, "Avg Order Value", model.FormatCurrency),
				},
			},
			{
				Title: "About This Dashboard",
				Intro: "This dashboard analyzes e-commerce data including:",
				Bullets: []string{
					"Customer Demographics: Cities, states, and customer distribution",
					"Order Patterns: Monthly trends, seasonal analysis",
					"Sales Performance: Category-wise sales, revenue analysis",
					"Business Metrics: Growth rates, retention, top performers",
				},
				Outro: "Navigate through different sections using the sidebar to explore various aspects of the data.",
			},
		},
	}
}

func customerReport() model.Report {
	return model.Report{
		Name:   CustomerAnalysis,
		Header: "Customer Analysis",
		Sections: []model.Section{{
			Panels: []model.Panel{{
				Key:   "customers_by_state",
				SQL:   customersByStateSQL,
				Shape: model.ShapeRows,
				Views: []model.View{
					{Kind: model.KindBarChart, Title: "Top 10 States by Customer Count", X: "State", Y: "Customer Count"},
					table(),
				},
			}},
		}},
	}
}

func orderReport() model.Report {
	return model.Report{
		Name:   OrderAnalysis,
		Header: "Order Analysis",
		Sections: []model.Section{
			{
				Title:   "Order Statistics",
				Columns: 4,
				Panels: []model.Panel{
					metric("unique_orders", uniqueOrdersSQL, "Unique Orders", model.FormatInteger),
					metric("orders_per_customer", ordersPerCustSQL, "Orders per Customer", model.FormatDecimal),
					metric("avg_order_value", avgOrderValueSQL, "Avg Order Value", model.FormatCurrency),
					metric("total_products", totalProductsSQL, "Total Products", model.FormatInteger),
				},
			},
			{
				Title:   "Data Quality",
				Columns: 2,
				Panels: []model.Panel{
					metric("order_records", orderRecordsSQL, "Order Records", model.FormatInteger),
					metric("duplicate_factor", duplicateFactorSQL, "Duplicate Factor", model.FormatFactor),
				},
				Note: "Note: Each order appears multiple times in the database. This could be due to order updates, multiple items, or data import issues.",
			},
			{
				Title: "Orders by Status",
				Panels: []model.Panel{{
					Key:   "orders_by_status",
					SQL:   ordersByStatusSQL,
					Shape: model.ShapeRows,
					Views: []model.View{
						{Kind: model.KindBarChart, Title: "Unique Orders by Status", X: "Status", Y: "Count", TickAngle: 45},
					},
				}},
			},
			{
				Title: "Orders Over Time",
				Panels: []model.Panel{{
					Key:   "orders_over_time",
					SQL:   ordersOverTimeSQL,
					Shape: model.ShapeRows,
					Views: []model.View{
						{Kind: model.KindLineChart, Title: "Unique Orders Over Time", X: "Month", Y: "Order Count"},
					},
				}},
			},
		},
	}
}

func salesReport() model.Report {
	return model.Report{
		Name:   SalesRevenue,
		Header: "Sales & Revenue Analysis",
		Sections: []model.Section{{
			Panels: []model.Panel{{
				Key:   "revenue_by_category",
				SQL:   revenueByCategorySQL,
				Shape: model.ShapeRows,
				Views: []model.View{
					{Kind: model.KindBarChart, Title: "Revenue by Product Category", X: "Category", Y: "Revenue", TickAngle: 45},
					table(),
				},
			}},
		}},
	}
}

func timeSeriesReport() model.Report {
	return model.Report{
		Name:   TimeSeries,
		Header: "Time Series Analysis",
		Sections: []model.Section{{
			Columns: 2,
			Panels: []model.Panel{{
				Key:   "monthly_trend",
				SQL:   monthlyTrendSQL,
				Shape: model.ShapeRows,
				Views: []model.View{
					{Kind: model.KindLineChart, Title: "Monthly Revenue Trend", X: "Month", Y: "Revenue"},
					{Kind: model.KindLineChart, Title: "Monthly Order Count", X: "Month", Y: "Order Count"},
					table(),
				},
			}},
		}},
	}
}

// Requirements lists the tables and columns the report queries read.
func Requirements() []model.TableRequirement {
	return []model.TableRequirement{
		{Table: "customers", Columns: []string{"customer_id", "customer_state"}},
		{Table: "orders", Columns: []string{"order_id", "customer_id", "order_status", "order_purchase_timestamp"}},
		{Table: "order_items", Columns: []string{"order_id", "product_id"}},
		{Table: "payments", Columns: []string{"order_id", "payment_value"}},
		{Table: "products", Columns: []string{"product_id", "product category"}},
	}
}
