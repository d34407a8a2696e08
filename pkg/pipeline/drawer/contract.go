package drawer

import (
	"github.com/askiada/go-fba/pkg/pipeline/measure"
)

// Drawer is an interface that defines the methods for drawing a run of the pipeline.
type Drawer interface {
	// AddStage adds a stage to the pipeline drawer.
	AddStage(name string) error
	// AddLink adds a link between two consecutive stages.
	AddLink(parentName, childName string) error
	// SetLabel sets the small label printed under the stage name.
	SetLabel(name, label string) error
	// SetSkipped marks a stage that the configuration disabled.
	SetSkipped(name string) error
	// AddMeasure colours the stages with the durations recorded in measure.
	AddMeasure(measure measure.Measure) error
	// Draw writes the graph.
	Draw() error
}
