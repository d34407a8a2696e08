package pipeline

import (
	"time"

	"github.com/askiada/go-fba/pkg/metabolic"
	"github.com/askiada/go-fba/pkg/metabolic/analysis"
	"github.com/askiada/go-fba/pkg/metabolic/solver"
	"github.com/askiada/go-fba/pkg/pipeline/config"
)

// Result is everything a run produced. It is not changed after Run returns.
type Result struct {
	// Solution is the primary optimization, fluxes in model order.
	Solution *metabolic.Solution
	// Variability is nil when the variability analysis is disabled.
	Variability *analysis.Variability
	// EssentialGenes lists essential genes in model order. It is empty when the sweep is disabled.
	EssentialGenes []string
	Applied        Applied
	Timings        []StageTiming
}

// Applied summarises what the run actually changed on the model, for reports.
type Applied struct {
	Solver           string
	FBAMode          config.FBAMode
	FVAMode          config.FVAMode
	ObjectiveIDs     []string
	ObjectiveSense   solver.Sense
	AllReversible    bool
	CustomBounds     int
	GeneKnockouts    []string
	KnockedOut       []string
	ReactionKOs      []string
	MediaID          string
	CompleteMedia    bool
	DefaultMaxUptake float64
	UptakeReactions  []string
	UptakeIDs        []string
}

// StageTiming is the wall time of one stage.
type StageTiming struct {
	Name     string
	Duration time.Duration
	Skipped  bool
}

// Status returns the status of the primary optimization.
func (r *Result) Status() solver.Status {
	if r == nil || r.Solution == nil {
		return ""
	}

	return r.Solution.Status
}

// Optimal reports whether the primary optimization found an optimum.
func (r *Result) Optimal() bool {
	return r != nil && r.Solution != nil && r.Solution.Optimal()
}
