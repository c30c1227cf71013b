package storage

import "fmt"

// DatabaseError wraps a durable-storage failure with the operation that
// produced it. It is fatal only at construction time (open, schema init);
// write-path failures are logged by the worker and never surfaced.
type DatabaseError struct {
	// Op is the storage operation that failed (e.g. "open", "schema").
	Op string

	// Err is the underlying error.
	Err error
}

// NewDatabaseError creates a DatabaseError for the given operation.
func NewDatabaseError(op string, err error) *DatabaseError {
	return &DatabaseError{Op: op, Err: err}
}

// Error implements the error interface.
func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error wrapping.
func (e *DatabaseError) Unwrap() error {
	return e.Err
}
