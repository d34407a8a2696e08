package measure

import (
	"time"

	"github.com/askiada/go-fba/pkg/pipeline/model"
)

type pipelineMeasure struct {
	Measure
	startTime time.Time
}

func (pm *pipelineMeasure) New() error {
	pm.AddMetric(model.StartStage.Name)
	pm.AddMetric(model.EndStage.Name)
	pm.startTime = time.Now()

	return nil
}

func (pm *pipelineMeasure) PrepareStage(_, stage *model.StageInfo) error {
	pm.AddMetric(stage.Name)

	return nil
}

func (pm *pipelineMeasure) OnStageDone(stage *model.StageInfo, duration time.Duration, err error) error {
	mt := pm.GetMetric(stage.Name)
	if stage.Skipped {
		mt.SetSkipped()

		return nil
	}
	mt.AddDuration(duration)
	if err != nil {
		mt.SetFailed(err)
	}

	return nil
}

func (pm *pipelineMeasure) Finish() error {
	pm.GetMetric(model.EndStage.Name).AddDuration(time.Since(pm.startTime))

	return nil
}

// PipelineMeasure records the duration of every stage into measure.
func PipelineMeasure(measure Measure) model.PipelineOption {
	return &pipelineMeasure{Measure: measure}
}
