package metabolic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-fba/pkg/metabolic/metabolictest"
	"github.com/askiada/go-fba/pkg/metabolic/solver"
)

func TestProgramFluxObjective(t *testing.T) {
	t.Parallel()

	m := metabolictest.Toy(t)
	prog, err := m.Program()
	require.NoError(t, err)
	require.Equal(t, 3, prog.NumReactions())

	backend := m.Solver()
	i, ok := prog.ReactionIndex("EX_glc_e")
	require.True(t, ok)
	assert.True(t, prog.IsBoundary(i))

	prog.SetFluxObjective(i, solver.Minimize)
	sol, err := prog.Solve(backend)
	require.NoError(t, err)
	require.True(t, sol.Optimal())
	assert.InDelta(t, -10, sol.Fluxes[i], 1e-6)
	// The reported objective stays the model objective.
	assert.InDelta(t, 10, sol.ObjectiveValue, 1e-6)
}

func TestProgramObjectiveFloor(t *testing.T) {
	t.Parallel()

	m := metabolictest.Toy(t)
	prog, err := m.Program()
	require.NoError(t, err)

	prog.AddObjectiveFloor(0.5, 10)
	i, _ := prog.ReactionIndex("BIOMASS")
	prog.SetFluxObjective(i, solver.Minimize)

	sol, err := prog.Solve(m.Solver())
	require.NoError(t, err)
	require.True(t, sol.Optimal())
	assert.InDelta(t, 5, sol.Fluxes[i], 1e-6)
}

func TestProgramCloneIsIndependent(t *testing.T) {
	t.Parallel()

	m := metabolictest.Toy(t)
	prog, err := m.Program()
	require.NoError(t, err)

	clone := prog.Clone()
	i, _ := clone.ReactionIndex("EX_glc_e")
	clone.SetFluxBounds(i, -2, 0)

	lower, upper := prog.FluxBounds(i)
	assert.Equal(t, -10.0, lower)
	assert.Equal(t, 0.0, upper)

	sol, err := clone.Solve(m.Solver())
	require.NoError(t, err)
	assert.InDelta(t, 2, sol.ObjectiveValue, 1e-6)
	sol, err = prog.Solve(m.Solver())
	require.NoError(t, err)
	assert.InDelta(t, 10, sol.ObjectiveValue, 1e-6)
}

func TestProgramCycleFree(t *testing.T) {
	t.Parallel()

	m := metabolictest.WithLoop(t, metabolictest.Toy(t))
	prog, err := m.Program()
	require.NoError(t, err)

	// A distribution with the futile cycle running.
	fluxes := []float64{-10, 10, 10, 500, 500}
	prog.ApplyCycleFree(fluxes)

	sol, err := prog.Solve(m.Solver())
	require.NoError(t, err)
	require.True(t, sol.Optimal())
	assert.InDelta(t, 10, sol.ObjectiveValue, 1e-6)
	assert.InDelta(t, 0, sol.FluxMap()["LOOP_AB"], 1e-6)
	assert.InDelta(t, 0, sol.FluxMap()["LOOP_BA"], 1e-6)
	assert.InDelta(t, 10, sol.FluxMap()["GLCt"], 1e-6)
}
