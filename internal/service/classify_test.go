package service

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	apperrors "ecomdash/backend/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"undefined column via lib/pq", &pq.Error{Code: "42703", Message: `column "x" does not exist`}, apperrors.CodeQueryFailed},
		{"syntax error via pgx", &pgconn.PgError{Code: "42601"}, apperrors.CodeQueryFailed},
		{"division by zero", fmt.Errorf("panel: %w", &pq.Error{Code: "22012"}), apperrors.CodeQueryFailed},
		{"statement timeout", &pgconn.PgError{Code: "57014"}, apperrors.CodeQueryFailed},
		{"read only violation", &pq.Error{Code: "25006"}, apperrors.CodeQueryFailed},
		{"bad password", &pq.Error{Code: "28P01"}, apperrors.CodeConnectionFailed},
		{"unknown database", &pgconn.PgError{Code: "3D000"}, apperrors.CodeConnectionFailed},
		{"connection failure", &pq.Error{Code: "08006"}, apperrors.CodeConnectionFailed},
		{"server shutting down", &pgconn.PgError{Code: "57P01"}, apperrors.CodeConnectionFailed},
		{"dial refused", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, apperrors.CodeConnectionFailed},
		{"bad conn", driver.ErrBadConn, apperrors.CodeConnectionFailed},
		{"eof", io.EOF, apperrors.CodeConnectionFailed},
		{"deadline", context.DeadlineExceeded, apperrors.CodeQueryFailed},
		{"wrapped deadline", fmt.Errorf("timeout: %w", context.DeadlineExceeded), apperrors.CodeQueryFailed},
		{"canceled", context.Canceled, apperrors.CodeCanceled},
		{"scan error", errors.New("sql: Scan error on column index 0"), apperrors.CodeQueryFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
	assert.Equal(t, "", Classify(nil))
}

func TestWrapDBError(t *testing.T) {
	assert.Nil(t, wrapDBError(nil))

	err := wrapDBError(&pq.Error{Code: "42P01", Message: `relation "payments" does not exist`})
	assert.True(t, apperrors.IsQuery(err))
	var de *apperrors.DashboardError
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, "42P01", de.Details["sqlstate"])

	err = wrapDBError(io.ErrUnexpectedEOF)
	assert.True(t, apperrors.IsConnection(err))

	err = wrapDBError(context.DeadlineExceeded)
	assert.True(t, apperrors.IsQuery(err))
	assert.Equal(t, "query timed out", apperrors.GetMessage(err))

	err = wrapDBError(fmt.Errorf("read: %w", context.Canceled))
	assert.True(t, apperrors.IsCanceled(err))

	already := apperrors.New(apperrors.CodeQueryFailed, "kept")
	assert.Same(t, already, wrapDBError(already))
}
