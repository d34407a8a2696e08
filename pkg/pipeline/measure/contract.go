package measure

import "time"

// Measure collects one Metric per stage.
type Measure interface {
	AddMetric(name string) Metric
	GetMetric(name string) Metric
	AllMetrics() map[string]Metric
	// Names lists the metrics in the order they were added.
	Names() []string
}

// Metric accumulates the runs of a stage.
type Metric interface {
	AddDuration(elapsed time.Duration)
	AVGDuration() time.Duration
	TotalDuration() time.Duration
	Runs() int64
	SetFailed(err error)
	Err() error
	SetSkipped()
	Skipped() bool
}
