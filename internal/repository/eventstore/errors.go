package eventstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"

	"honeydash/internal/models"
)

// Kind classifies a store failure.
type Kind int

const (
	// KindQuery covers malformed SQL, missing tables, constraint and other
	// driver-reported failures.
	KindQuery Kind = iota
	// KindConnectivity covers pool, network and context failures.
	KindConnectivity
	// KindMapping covers row-to-type conversion failures.
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindConnectivity:
		return "connectivity"
	case KindMapping:
		return "mapping"
	default:
		return "query"
	}
}

// StoreError is the only error type returned by Store. It wraps the driver's
// error unchanged.
type StoreError struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("eventstore %s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Severity reports every store failure as a backend problem. Input problems
// are rejected before a query is built.
func (e *StoreError) Severity() models.Severity { return models.SeverityBackend }

// IsKind reports whether err carries a StoreError of kind k.
func IsKind(err error, k Kind) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Kind == k
}

func newError(op string, kind Kind, err error) *StoreError {
	return &StoreError{Op: op, Kind: kind, Err: err}
}

// classify decides between connectivity and query failures for errors raised
// by QueryContext or rows.Err.
func classify(op string, err error) *StoreError {
	if isConnectivity(err) {
		return newError(op, KindConnectivity, err)
	}
	return newError(op, KindQuery, err)
}

func isConnectivity(err error) bool {
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, mysql.ErrInvalidConn),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// database/sql does not export its closed-pool error.
	return strings.Contains(err.Error(), "sql: database is closed")
}
