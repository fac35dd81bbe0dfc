package persistence

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel for any record lookup miss. Repositories
// wrap it with the record kind and id.
var ErrNotFound = errors.New("record not found")

// NotFoundError builds a wrapped not-found error for a record kind.
func NotFoundError(kind, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
}

// IsNotFound reports whether err is a record lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
