package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoStructure is returned when synthesis is asked to persist a template
// with zero classified sections. Nothing is written.
var ErrNoStructure = errors.New("store: no structure detected")

// ErrValidation marks bad input shape. Not retryable.
var ErrValidation = errors.New("store: validation")

// ErrStorage marks a transaction or connection failure. The operation had
// no partial effect and is safe for the caller to retry.
var ErrStorage = errors.New("store: storage")

// ErrCascadeOrdering marks a foreign-key violation during the re-synthesis
// cascade: an ordering bug, never a caller error. The transaction aborts
// with no partial deletion.
var ErrCascadeOrdering = errors.New("store: cascade ordering")

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func storageErr(op string, err error) error {
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: %s: %v", ErrCascadeOrdering, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
