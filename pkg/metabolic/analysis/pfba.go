package analysis

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-fba/pkg/metabolic"
)

// ErrInfeasibleBaseline is returned when an analysis needs an optimal solution of the unmodified model
// and none exists.
var ErrInfeasibleBaseline = errors.New("baseline optimization is not optimal")

// PFBA minimizes the total flux while keeping the objective within fraction of its optimum. The objective
// value of the returned solution is the model objective, not the total flux. When the model has no
// optimum, the non optimal solution is returned as is.
func PFBA(m *metabolic.Model, fraction float64) (*metabolic.Solution, error) {
	prog, err := m.Program()
	if err != nil {
		return nil, errors.Wrap(err, "unable to build program")
	}

	backend := m.Solver()
	sol, err := prog.Solve(backend)
	if err != nil {
		return nil, err
	}
	if !sol.Optimal() {
		return sol, nil
	}

	prog.AddObjectiveFloor(fraction, sol.ObjectiveValue)
	prog.MinimizeTotalFlux()

	return prog.Solve(backend)
}

// LooplessSolution removes thermodynamically infeasible cycles from an optimal flux distribution with the
// CycleFreeFlux method.
func LooplessSolution(m *metabolic.Model) (*metabolic.Solution, error) {
	prog, err := m.Program()
	if err != nil {
		return nil, errors.Wrap(err, "unable to build program")
	}

	backend := m.Solver()
	sol, err := prog.Solve(backend)
	if err != nil {
		return nil, err
	}
	if !sol.Optimal() {
		return sol, nil
	}

	prog.ApplyCycleFree(sol.Fluxes)

	return prog.Solve(backend)
}
