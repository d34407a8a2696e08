// Package metabolictest provides small models for tests.
package metabolictest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askiada/go-fba/pkg/metabolic"
)

// Toy returns a three reaction model: glucose uptake bounded to 10, a transporter catalysed by g1 or g2 and
// a biomass drain requiring g3. The objective maximizes BIOMASS, whose optimum is 10.
func Toy(tb testing.TB) *metabolic.Model {
	tb.Helper()

	m := metabolic.NewModel("toy")
	require.NoError(tb, m.AddMetabolites(
		&metabolic.Metabolite{ID: "glc_e", Name: "glucose", Compartment: "e", Formula: "C6H12O6"},
		&metabolic.Metabolite{ID: "glc_c", Name: "glucose", Compartment: "c", Formula: "C6H12O6"},
	))
	require.NoError(tb, m.AddReactions(
		reaction(tb, "EX_glc_e", map[string]float64{"glc_e": -1}, -10, 0, ""),
		reaction(tb, "GLCt", map[string]float64{"glc_e": -1, "glc_c": 1}, 0, 1000, "g1 or g2"),
		reaction(tb, "BIOMASS", map[string]float64{"glc_c": -1}, 0, 1000, "g3"),
	))
	require.NoError(tb, m.SetObjective("BIOMASS"))

	return m
}

// WithLoop adds a futile cycle between a_c and b_c that carries no useful flux.
func WithLoop(tb testing.TB, m *metabolic.Model) *metabolic.Model {
	tb.Helper()

	require.NoError(tb, m.AddMetabolites(
		&metabolic.Metabolite{ID: "a_c", Compartment: "c"},
		&metabolic.Metabolite{ID: "b_c", Compartment: "c"},
	))
	require.NoError(tb, m.AddReactions(
		reaction(tb, "LOOP_AB", map[string]float64{"a_c": -1, "b_c": 1}, 0, 1000, ""),
		reaction(tb, "LOOP_BA", map[string]float64{"b_c": -1, "a_c": 1}, 0, 1000, ""),
	))

	return m
}

// WithNitrogen adds an ammonium exchange and makes biomass consume one ammonium per glucose.
func WithNitrogen(tb testing.TB, m *metabolic.Model) *metabolic.Model {
	tb.Helper()

	require.NoError(tb, m.AddMetabolites(&metabolic.Metabolite{ID: "nh4_e", Compartment: "e", Formula: "NH4"}))
	require.NoError(tb, m.AddReactions(
		reaction(tb, "EX_nh4_e", map[string]float64{"nh4_e": -1}, -10, 1000, ""),
		reaction(tb, "BIOMASS_N", map[string]float64{"glc_c": -1, "nh4_e": -1}, 0, 1000, "g4"),
	))

	return m
}

func reaction(tb testing.TB, id string, mets map[string]float64, lower, upper float64, rule string) *metabolic.Reaction {
	tb.Helper()

	r, err := metabolic.NewReaction(id, id, mets, lower, upper, rule)
	require.NoError(tb, err)

	return r
}
