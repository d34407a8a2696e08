package model

// Stage names, in execution order.
const (
	StageSolver         = "solver selection"
	StageReversibility  = "reversibility widening"
	StageCustomBounds   = "custom bounds"
	StageGeneKnockout   = "gene knockout"
	StageReactionKO     = "reaction knockout"
	StageUptake         = "media uptake"
	StageObjective      = "objective assembly"
	StagePrimary        = "primary optimization"
	StageVariability    = "variability analysis"
	StageEssentiality   = "essentiality sweep"
	StageResultAssembly = "result assembly"
)

// StageNames lists every stage in execution order.
var StageNames = []string{
	StageSolver,
	StageReversibility,
	StageCustomBounds,
	StageGeneKnockout,
	StageReactionKO,
	StageUptake,
	StageObjective,
	StagePrimary,
	StageVariability,
	StageEssentiality,
	StageResultAssembly,
}

// StageInfo describes one stage of a run.
type StageInfo struct {
	// Index is the 1-based position of the stage.
	Index int
	Name  string
	// Skipped is set when the configuration disables the stage.
	Skipped bool
}

var (
	StartStage = &StageInfo{Name: "start"}
	EndStage   = &StageInfo{Name: "end"}
)
