// Package errors provides the coded error type shared by the dashboard packages.
package errors

import (
	"errors"
	"fmt"
)

const (
	CodeConnectionFailed = "CONNECTION_FAILED"
	CodeQueryFailed      = "QUERY_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeInternal         = "INTERNAL_ERROR"
	CodeCanceled         = "REQUEST_CANCELED"
)

// DashboardError carries a stable code next to the user-facing message.
type DashboardError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *DashboardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DashboardError) Unwrap() error {
	return e.Cause
}

// Is matches on code only.
func (e *DashboardError) Is(target error) bool {
	t, ok := target.(*DashboardError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy of e with key set in its details.
func (e *DashboardError) WithDetail(key string, value any) *DashboardError {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

var (
	ErrConnectionFailed = &DashboardError{Code: CodeConnectionFailed, Message: "database connection failed"}
	ErrQueryFailed      = &DashboardError{Code: CodeQueryFailed, Message: "query execution failed"}
	ErrReportNotFound   = &DashboardError{Code: CodeNotFound, Message: "report not found"}
)

func New(code, message string) *DashboardError {
	return &DashboardError{Code: code, Message: message}
}

func Wrap(err error, code, message string) *DashboardError {
	if err == nil {
		return nil
	}
	return &DashboardError{Code: code, Message: message, Cause: err}
}

func Wrapf(err error, code, format string, args ...any) *DashboardError {
	if err == nil {
		return nil
	}
	return &DashboardError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

func IsConnection(err error) bool { return GetCode(err) == CodeConnectionFailed }

func IsQuery(err error) bool { return GetCode(err) == CodeQueryFailed }

func IsNotFound(err error) bool { return GetCode(err) == CodeNotFound }

func IsCanceled(err error) bool { return GetCode(err) == CodeCanceled }

// GetCode extracts the code of the outermost DashboardError, CodeInternal otherwise.
func GetCode(err error) string {
	var de *DashboardError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

func GetMessage(err error) string {
	var de *DashboardError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
