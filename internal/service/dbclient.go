package service

import (
	"context"

	"ecomdash/backend/internal/model"
)

type DBClient interface {
	Connect(ctx context.Context, dsn string) error
	Disconnect() error
	Ping(ctx context.Context) error
	ListTables(ctx context.Context, schema string) ([]string, error)
	ListColumns(ctx context.Context, schema, table string) ([]model.Column, error)
	ExecuteQuery(ctx context.Context, query string) (*model.QueryResult, error)
}
