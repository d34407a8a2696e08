package analysis

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-fba/pkg/metabolic"
	"github.com/askiada/go-fba/pkg/metabolic/solver"
)

// zeroCutoff is the flux magnitude below which a reaction is considered inactive.
const zeroCutoff = 1e-8

// Options configures FluxVariability.
type Options struct {
	// Fraction of the optimum the objective must keep, in (0, 1].
	Fraction float64
	// Loopless removes cycles from every extreme flux.
	Loopless bool
}

// Variability holds the flux range of every reaction, in model order. When the baseline optimization is
// not optimal, Status says why and there are no rows.
type Variability struct {
	Status      solver.Status
	Reason      string
	ReactionIDs []string
	Minimum     []float64
	Maximum     []float64
}

// Optimal reports whether the ranges were computed.
func (v *Variability) Optimal() bool {
	return v != nil && v.Status == solver.Optimal
}

// Range returns the flux range of reaction id.
func (v *Variability) Range(id string) (float64, float64, bool) {
	for i, rid := range v.ReactionIDs {
		if rid == id {
			return v.Minimum[i], v.Maximum[i], true
		}
	}

	return 0, 0, false
}

// FluxVariability computes the minimum and maximum flux of every reaction while the objective stays within
// opts.Fraction of its optimum. A range bound whose solve fails is NaN. Solves run concurrently, up to the
// number of workers of the model backend.
func FluxVariability(ctx context.Context, m *metabolic.Model, opts Options) (*Variability, error) {
	if opts.Fraction <= 0 || opts.Fraction > 1 {
		return nil, errors.Errorf("fraction of optimum %g is outside (0, 1]", opts.Fraction)
	}

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
		return &Variability{Status: sol.Status, Reason: sol.Reason}, nil
	}
	prog.AddObjectiveFloor(opts.Fraction, sol.ObjectiveValue)

	n := prog.NumReactions()
	out := &Variability{
		Status:      solver.Optimal,
		ReactionIDs: make([]string, n),
		Minimum:     make([]float64, n),
		Maximum:     make([]float64, n),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(backend.Configuration().Workers())
	for i := 0; i < n; i++ {
		i := i
		out.ReactionIDs[i] = prog.ReactionID(i)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			minimum, err := extreme(prog, backend, i, solver.Minimize, opts.Loopless)
			if err != nil {
				return errors.Wrapf(err, "unable to minimize %s", prog.ReactionID(i))
			}
			maximum, err := extreme(prog, backend, i, solver.Maximize, opts.Loopless)
			if err != nil {
				return errors.Wrapf(err, "unable to maximize %s", prog.ReactionID(i))
			}
			out.Minimum[i], out.Maximum[i] = minimum, maximum

			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		return nil, err
	}

	return out, nil
}

func extreme(base *metabolic.Program, backend solver.Backend, i int, sense solver.Sense, loopless bool) (float64, error) {
	prog := base.Clone()
	prog.SetFluxObjective(i, sense)
	sol, err := prog.Solve(backend)
	if err != nil {
		return 0, err
	}
	if !sol.Optimal() {
		return math.NaN(), nil
	}
	if !loopless || prog.IsBoundary(i) {
		return sol.Fluxes[i], nil
	}

	return removeLoops(prog, backend, i, sol.Fluxes)
}

// removeLoops checks whether the extreme flux of reaction i needs a cycle. If it does, the reactions that
// only carry flux because of that cycle are blocked and the extreme is computed again.
func removeLoops(prog *metabolic.Program, backend solver.Backend, i int, fluxes []float64) (float64, error) {
	current := fluxes[i]

	cycleFree := prog.Clone()
	cycleFree.ApplyCycleFree(fluxes)
	loopless, err := cycleFree.Solve(backend)
	if err != nil {
		return 0, err
	}
	if !loopless.Optimal() || math.Abs(loopless.Fluxes[i]-current) < zeroCutoff {
		return current, nil
	}

	pinned := cycleFree.Clone()
	pinned.SetFluxBounds(i, current, current)
	almost, err := pinned.Solve(backend)
	if err != nil {
		return 0, err
	}
	if !almost.Optimal() {
		return current, nil
	}

	final := prog.Clone()
	for j := range fluxes {
		if math.Abs(loopless.Fluxes[j]) >= zeroCutoff || math.Abs(almost.Fluxes[j]) <= zeroCutoff {
			continue
		}
		lower, upper := final.FluxBounds(j)
		if lower <= 0 && upper >= 0 {
			final.SetFluxBounds(j, 0, 0)
		}
	}
	best, err := final.Solve(backend)
	if err != nil {
		return 0, err
	}
	if !best.Optimal() {
		return current, nil
	}

	return best.Fluxes[i], nil
}
