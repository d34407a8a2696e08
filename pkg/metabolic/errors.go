package metabolic

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrReactionNotFound   = errors.New("reaction not found")
	ErrMetaboliteNotFound = errors.New("metabolite not found")
	ErrGeneNotFound       = errors.New("gene not found")
	ErrInvalidBounds      = errors.New("invalid bounds")
	ErrDuplicateID        = errors.New("duplicate id")
	ErrMalformedBound     = errors.New("malformed custom bound")
	ErrInvalidRule        = errors.New("invalid gene reaction rule")
)

// ModelInconsistencyError reports a reference the model cannot satisfy: a missing reaction, gene or
// metabolite, or a bound record that cannot be applied.
type ModelInconsistencyError struct {
	Kind string
	ID   string
	Err  error
}

func (e *ModelInconsistencyError) Error() string {
	return fmt.Sprintf("model inconsistency: %s %q: %v", e.Kind, e.ID, e.Err)
}

func (e *ModelInconsistencyError) Unwrap() error {
	return e.Err
}

func inconsistency(kind, id string, err error) error {
	return &ModelInconsistencyError{Kind: kind, ID: id, Err: err}
}
