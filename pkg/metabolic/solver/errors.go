package solver

import "github.com/pkg/errors"

var (
	ErrInvalidProblem = errors.New("invalid linear problem")
	ErrUnknownBackend = errors.New("unknown solver backend")
)
