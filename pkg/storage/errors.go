package storage

import (
	"errors"
	"fmt"

	pkgErrors "github.com/pkg/errors"
)

// ErrRecordNotFound is returned by single-record lookups when nothing matches.
var ErrRecordNotFound = errors.New("record not found")

// DataAccessError wraps any failure returned by the underlying store.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("data access error during %s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// WrapDataAccessError annotates err with the failed operation. A nil err returns nil.
func WrapDataAccessError(err error, op string, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &DataAccessError{
		Op:  op,
		Err: pkgErrors.Wrapf(err, format, args...),
	}
}

func IsDataAccessError(err error) bool {
	var dae *DataAccessError
	return errors.As(err, &dae)
}
