package kernel

import (
	"errors"
	"strings"
)

// ErrIncomplete is matched by errors.Is on every Validate failure
var ErrIncomplete = errors.New("missing required dependencies")

// MissingDepsError lists the dependencies Validate found unset
type MissingDepsError []string

func (m MissingDepsError) Error() string {
	return ErrIncomplete.Error() + ": " + strings.Join(m, ", ")
}

func (m MissingDepsError) Unwrap() error { return ErrIncomplete }
