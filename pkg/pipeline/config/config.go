// Package config turns the flat parameter record of an FBA request into a validated PipelineConfig.
package config

import (
	"strings"

	"github.com/askiada/go-fba/pkg/metabolic/solver"
)

// Version is bumped whenever the meaning of a PipelineConfig field changes.
const Version = 2

// Solver names the LP backend.
type Solver string

const (
	SolverDefault   Solver = solver.DefaultBackend
	SolverAlternate Solver = solver.AlternateBackend
)

// FBAMode selects the primary optimization.
type FBAMode string

const (
	FBAStandard     FBAMode = "FBA"
	FBAParsimonious FBAMode = "pFBA"
	FBALoopless     FBAMode = "Loopless FBA"
)

// FVAMode selects the variability analysis.
type FVAMode string

const (
	FVADisabled FVAMode = "Neither"
	FVAStandard FVAMode = "FVA"
	FVALoopless FVAMode = "Loopless FVA"
)

// Element is a chemical element whose total uptake can be capped.
type Element string

const (
	Carbon     Element = "C"
	Nitrogen   Element = "N"
	Phosphorus Element = "P"
	Sulfur     Element = "S"
	Oxygen     Element = "O"
)

// Elements lists the elements that can be capped, in the order their constraints are added.
var Elements = []Element{Carbon, Nitrogen, Phosphorus, Sulfur, Oxygen}

// CustomBound overrides the bounds of one reaction.
type CustomBound struct {
	ReactionID string  `param:"custom_reaction_id" validate:"required"`
	Lower      float64 `param:"custom_lb"`
	Upper      float64 `param:"custom_ub"`
}

// PipelineConfig is the fully resolved configuration of a run. It is built once by Build and only read
// afterwards.
type PipelineConfig struct {
	Version int

	Solver                   Solver  `param:"solver"`
	FBAMode                  FBAMode `param:"fba_type"`
	FVAMode                  FVAMode `param:"fva_type"`
	MinimizeObjective        bool    `param:"minimize_objective"`
	FractionOfOptimumPrimary float64 `param:"fraction_of_optimum_pfba" validate:"gt=0,lte=1"`
	FractionOfOptimumFVA     float64 `param:"fraction_of_optimum_fva" validate:"gt=0,lte=1"`
	TargetReactionID         string  `param:"target_reaction"`
	AllReversible            bool    `param:"all_reversible"`

	GeneKnockoutIDs     []string      `param:"feature_ko_list"`
	ReactionKnockoutIDs []string      `param:"reaction_ko_list"`
	CustomBounds        []CustomBound `param:"custom_bound_list" validate:"dive"`

	// MaxUptakeByElement holds the configured caps only. A missing element is not constrained.
	MaxUptakeByElement map[Element]float64 `param:"max_uptake" validate:"dive,keys,oneof=C N P S O,endkeys,gte=0"`
	DefaultMaxUptake   float64             `param:"default_max_uptake" validate:"gte=0"`

	SingleGeneKnockoutSweep bool     `param:"simulate_ko"`
	MediaSupplementIDs      []string `param:"media_supplement_list"`

	OutputID  string `param:"fba_output_id"`
	Workspace string `param:"workspace"`
}

// Default returns the configuration used for every field missing from the raw parameters.
func Default() PipelineConfig {
	return PipelineConfig{
		Version:                  Version,
		Solver:                   SolverDefault,
		FBAMode:                  FBAParsimonious,
		FVAMode:                  FVAStandard,
		FractionOfOptimumPrimary: 1,
		FractionOfOptimumFVA:     0.1,
		GeneKnockoutIDs:          []string{},
		ReactionKnockoutIDs:      []string{},
		CustomBounds:             []CustomBound{},
		MaxUptakeByElement:       map[Element]float64{},
		MediaSupplementIDs:       []string{},
	}
}

// MaxUptake returns the cap configured for element e.
func (c PipelineConfig) MaxUptake(e Element) (float64, bool) {
	v, ok := c.MaxUptakeByElement[e]

	return v, ok
}

// VariabilityEnabled reports whether a variability analysis runs.
func (c PipelineConfig) VariabilityEnabled() bool {
	return c.FVAMode != FVADisabled
}

func parseSolver(v string) (Solver, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", string(SolverDefault):
		return SolverDefault, true
	case string(SolverAlternate):
		return SolverAlternate, true
	}

	return "", false
}

func parseFBAMode(v string) (FBAMode, bool) {
	for _, mode := range []FBAMode{FBAStandard, FBAParsimonious, FBALoopless} {
		if strings.EqualFold(strings.TrimSpace(v), string(mode)) {
			return mode, true
		}
	}

	return "", false
}

func parseFVAMode(v string) (FVAMode, bool) {
	for _, mode := range []FVAMode{FVADisabled, FVAStandard, FVALoopless} {
		if strings.EqualFold(strings.TrimSpace(v), string(mode)) {
			return mode, true
		}
	}

	return "", false
}
