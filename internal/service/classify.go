package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	apperrors "ecomdash/backend/internal/errors"
)

// connectionStates are SQLSTATE classes and codes that mean the server
// could not be reached or refused the session.
var connectionStates = []string{
	"08",    // connection exception
	"28",    // invalid authorization specification
	"3D",    // invalid catalog name
	"53",    // insufficient resources
	"57P01", // admin shutdown
	"57P02", // crash shutdown
	"57P03", // cannot connect now
}

// SQLState returns the SQLSTATE carried by a lib/pq or pgx error.
func SQLState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Classify maps a driver error to CONNECTION_FAILED, QUERY_FAILED or
// REQUEST_CANCELED. Transport errors count as connection failures, a caller
// that went away is a cancellation, and anything else raised while running a
// statement (a timeout included) counts as a query failure.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if state := SQLState(err); state != "" {
		for _, prefix := range connectionStates {
			if strings.HasPrefix(state, prefix) {
				return apperrors.CodeConnectionFailed
			}
		}
		return apperrors.CodeQueryFailed
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return apperrors.CodeConnectionFailed
	}
	switch {
	case errors.Is(err, context.Canceled):
		return apperrors.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.CodeQueryFailed
	}

	var netErr net.Error
	switch {
	case errors.As(err, &netErr),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		return apperrors.CodeConnectionFailed
	}
	return apperrors.CodeQueryFailed
}

// wrapDBError turns a driver error into a DashboardError of the classified kind.
func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	var de *apperrors.DashboardError
	if errors.As(err, &de) {
		return err
	}
	switch Classify(err) {
	case apperrors.CodeCanceled:
		return apperrors.Wrap(err, apperrors.CodeCanceled, "request canceled")
	case apperrors.CodeQueryFailed:
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.Wrap(err, apperrors.CodeQueryFailed, "query timed out")
		}
		return apperrors.Wrap(err, apperrors.CodeQueryFailed, "query failed").
			WithDetail("sqlstate", SQLState(err))
	default:
		return apperrors.Wrap(err, apperrors.CodeConnectionFailed, "unable to connect to database")
	}
}
