package pipeline

import (
	"github.com/pkg/errors"
)

var (
	ErrModelMustBeSet = errors.New("model must be set")
	ErrMediaMustBeSet = errors.New("media must be set")
	ErrRunInProgress  = errors.New("pipeline is already running")
	ErrUnknownFBAMode = errors.New("unknown FBA mode")
	ErrUnknownFVAMode = errors.New("unknown FVA mode")
)

// StageError reports the stage a run failed in. The cause is reachable with errors.As and errors.Is.
type StageError struct {
	Stage string
	Index int
	Err   error
}

func (e *StageError) Error() string {
	return "stage " + e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}
