package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"ecomdash/backend/internal/model"
)

const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
)

type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// PostgresClient runs read-only queries through database/sql. The driver
// is lib/pq ("postgres") or pgx's stdlib adapter ("pgx").
type PostgresClient struct {
	driver string
	pool   PoolOptions
	db     *sql.DB
}

func NewPostgresClient(pool PoolOptions) *PostgresClient {
	return &PostgresClient{driver: DriverPostgres, pool: pool}
}

func NewPgxClient(pool PoolOptions) *PostgresClient {
	return &PostgresClient{driver: DriverPgx, pool: pool}
}

func NewClient(driver string, pool PoolOptions) (*PostgresClient, error) {
	switch driver {
	case DriverPostgres, "":
		return NewPostgresClient(pool), nil
	case DriverPgx:
		return NewPgxClient(pool), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q: must be postgres or pgx", driver)
	}
}

func (p *PostgresClient) Driver() string {
	return p.driver
}

func (p *PostgresClient) Connect(ctx context.Context, dsn string) error {
	db, err := sql.Open(p.driver, dsn)
	if err != nil {
		return err
	}
	if p.pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(p.pool.MaxOpenConns)
	}
	if p.pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(p.pool.MaxIdleConns)
	}
	if p.pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(p.pool.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}
	p.db = db
	return nil
}

func (p *PostgresClient) Disconnect() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *PostgresClient) Ping(ctx context.Context) error {
	if p.db == nil {
		return sql.ErrConnDone
	}
	return p.db.PingContext(ctx)
}

func (p *PostgresClient) ListTables(ctx context.Context, schema string) ([]string, error) {
	if schema == "" {
		schema = "public"
	}

	query := `SELECT table_name FROM information_schema.tables WHERE table_schema = $1`
	rows, err := p.db.QueryContext(ctx, query, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (p *PostgresClient) ListColumns(ctx context.Context, schema, table string) ([]model.Column, error) {
	query := `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position;
	`

	rows, err := p.db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []model.Column
	for rows.Next() {
		var col model.Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable); err != nil {
			return nil, err
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// ExecuteQuery runs query inside a read-only transaction and returns every row.
func (p *PostgresClient) ExecuteQuery(ctx context.Context, query string) (*model.QueryResult, error) {
	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &model.QueryResult{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		columns := make([]any, len(cols))
		columnPointers := make([]any, len(cols))
		for i := range columns {
			columnPointers[i] = &columns[i]
		}

		if err := rows.Scan(columnPointers...); err != nil {
			return nil, err
		}

		for i, v := range columns {
			// lib/pq hands NUMERIC and text back as []byte; the scan buffer is reused
			if b, ok := v.([]byte); ok {
				columns[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, columns)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
