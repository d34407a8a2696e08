package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-fba/pkg/pipeline/measure"
	"github.com/askiada/go-fba/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	m         measure.Measure
	now       func() time.Time
	startTime time.Time
	last      string
}

// Option configures the pipeline drawer.
type Option func(*pipelineDrawer)

// WithClock replaces the clock used to label the end stage with the total run time.
func WithClock(now func() time.Time) Option {
	return func(pd *pipelineDrawer) {
		pd.now = now
	}
}

func (pd *pipelineDrawer) New() error {
	err := pd.AddStage(model.StartStage.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add start stage to drawer")
	}
	err = pd.AddStage(model.EndStage.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add end stage to drawer")
	}
	pd.startTime = pd.now()
	pd.last = model.StartStage.Name

	return nil
}

func (pd *pipelineDrawer) PrepareStage(parentStage, stage *model.StageInfo) error {
	err := pd.AddStage(stage.Name)
	if err != nil {
		return err
	}
	err = pd.AddLink(parentStage.Name, stage.Name)
	if err != nil {
		return err
	}

	return nil
}

func (pd *pipelineDrawer) OnStageDone(stage *model.StageInfo, _ time.Duration, _ error) error {
	pd.last = stage.Name
	if stage.Skipped {
		return pd.SetSkipped(stage.Name)
	}

	return nil
}

func (pd *pipelineDrawer) Finish() error {
	err := pd.AddLink(pd.last, model.EndStage.Name)
	if err != nil {
		return errors.Wrap(err, "unable to link end stage")
	}

	if pd.m != nil {
		err = pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}
	err = pd.SetLabel(model.EndStage.Name, measure.Round(pd.now().Sub(pd.startTime)).String())
	if err != nil {
		return errors.Wrap(err, "unable to set total time")
	}

	err = pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// PipelineDrawer draws the stages of a run once it finishes. The measure may be nil.
func PipelineDrawer(drawer Drawer, measure measure.Measure, opts ...Option) model.PipelineOption {
	pd := &pipelineDrawer{Drawer: drawer, m: measure, now: time.Now}
	for _, opt := range opts {
		opt(pd)
	}
	pd.startTime = pd.now()

	return pd
}
