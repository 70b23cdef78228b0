package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors for ledger operations.
var (
	// ErrConnection indicates the warehouse is unreachable.
	ErrConnection = errors.New("warehouse unreachable")

	// ErrAuth indicates authentication against the warehouse failed.
	ErrAuth = errors.New("warehouse authentication failed")

	// ErrBadDateRange indicates an inverted or unparsable date window.
	ErrBadDateRange = errors.New("invalid date range")

	// ErrQuery indicates the commit query itself failed.
	ErrQuery = errors.New("commit query failed")

	// ErrTimeout indicates the query exceeded its deadline.
	ErrTimeout = errors.New("warehouse query timed out")
)

// LedgerError wraps ledger errors with the failing operation.
type LedgerError struct {
	// Op is the operation that failed (e.g., "CommittedKeys").
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *LedgerError) Unwrap() error {
	return e.Err
}

// classify maps a driver error onto the sentinel taxonomy.
//
// Deadline errors are reported distinctly from connection failures so
// callers can tell a slow warehouse from an unreachable one.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 28 is invalid authorization; class 08 is connection exceptions.
		switch {
		case strings.HasPrefix(pgErr.Code, "28"):
			return fmt.Errorf("%w: %v", ErrAuth, err)
		case strings.HasPrefix(pgErr.Code, "08"):
			return fmt.Errorf("%w: %v", ErrConnection, err)
		}
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}

	if pgconn.SafeToRetry(err) {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "connection reset"):
		return fmt.Errorf("%w: %v", ErrConnection, err)
	case strings.Contains(msg, "password authentication failed"):
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}

	return fmt.Errorf("%w: %v", ErrQuery, err)
}
