package model

import "time"

// PipelineOption defines the interface for pipeline options.
type PipelineOption interface {
	// New initialises the pipeline option.
	New() error
	// PrepareStage runs before the stage is executed. The first stage has StartStage as parent.
	PrepareStage(parentStage, stage *StageInfo) error
	// OnStageDone runs after the stage, err is the error it returned, if any.
	OnStageDone(stage *StageInfo, duration time.Duration, err error) error
	// Finish runs after a successful run.
	Finish() error
}
