package metabolic

import (
	"math"

	"github.com/pkg/errors"

	"github.com/askiada/go-fba/pkg/metabolic/solver"
)

// floorSlack loosens objective floors so that a fraction of 1 stays feasible after round-off.
const floorSlack = 1e-9

// Program is the linear program of a model. Every reaction is split into a forward and a reverse variable,
// both non negative, so that the net flux is forward minus reverse.
type Program struct {
	problem   *solver.Problem
	ids       []string
	index     map[string]int
	fwd, rev  []int
	lower     []float64
	upper     []float64
	boundary  []bool
	objective []solver.Term
	sense     solver.Sense
}

// Program translates the model into a linear program. Later changes to the model are not reflected.
func (m *Model) Program() (*Program, error) {
	p := &Program{
		problem:  solver.NewProblem(),
		ids:      make([]string, len(m.reactions)),
		index:    make(map[string]int, len(m.reactions)),
		fwd:      make([]int, len(m.reactions)),
		rev:      make([]int, len(m.reactions)),
		lower:    make([]float64, len(m.reactions)),
		upper:    make([]float64, len(m.reactions)),
		boundary: make([]bool, len(m.reactions)),
	}

	for i, r := range m.reactions {
		p.ids[i] = r.ID
		p.index[r.ID] = i
		p.boundary[i] = r.IsBoundary()
		p.fwd[i] = p.problem.AddVariable(r.ID+"_fwd", 0, 0)
		p.rev[i] = p.problem.AddVariable(r.ID+"_rev", 0, 0)
		p.SetFluxBounds(i, r.lowerBound, r.upperBound)
	}

	balance := make([][]solver.Term, len(m.metabolites))
	for i, r := range m.reactions {
		for met, coef := range r.metabolites {
			pos := m.metaboliteIdx[met]
			balance[pos] = append(balance[pos],
				solver.Term{Var: p.fwd[i], Coef: coef},
				solver.Term{Var: p.rev[i], Coef: -coef},
			)
		}
	}
	for pos, terms := range balance {
		if len(terms) == 0 {
			continue
		}
		p.problem.AddConstraint("balance_"+m.metabolites[pos].ID, terms, 0, 0)
	}

	for _, c := range m.constraints {
		terms, err := p.terms(c.Terms)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to translate constraint %s", c.ID)
		}
		p.problem.AddConstraint(c.ID, terms, c.Lower, c.Upper)
	}

	objective, err := p.terms(m.objective.Terms)
	if err != nil {
		return nil, errors.Wrap(err, "unable to translate objective")
	}
	p.objective = objective
	p.sense = m.objective.Direction
	p.problem.SetObjective(objective, p.sense)

	return p, nil
}

func (p *Program) terms(in []VariableTerm) ([]solver.Term, error) {
	out := make([]solver.Term, 0, 2*len(in))
	for _, t := range in {
		i, ok := p.index[t.ReactionID]
		if !ok {
			return nil, inconsistency("reaction", t.ReactionID, ErrReactionNotFound)
		}
		switch t.Part {
		case Forward:
			out = append(out, solver.Term{Var: p.fwd[i], Coef: t.Coefficient})
		case Reverse:
			out = append(out, solver.Term{Var: p.rev[i], Coef: t.Coefficient})
		default:
			out = append(out,
				solver.Term{Var: p.fwd[i], Coef: t.Coefficient},
				solver.Term{Var: p.rev[i], Coef: -t.Coefficient},
			)
		}
	}

	return out, nil
}

// Clone returns an independent copy of the program.
func (p *Program) Clone() *Program {
	return &Program{
		problem:   p.problem.Clone(),
		ids:       p.ids,
		index:     p.index,
		fwd:       p.fwd,
		rev:       p.rev,
		lower:     append([]float64(nil), p.lower...),
		upper:     append([]float64(nil), p.upper...),
		boundary:  p.boundary,
		objective: p.objective,
		sense:     p.sense,
	}
}

func (p *Program) NumReactions() int {
	return len(p.ids)
}

func (p *Program) ReactionID(i int) string {
	return p.ids[i]
}

// ReactionIndex returns the position of reaction id.
func (p *Program) ReactionIndex(id string) (int, bool) {
	i, ok := p.index[id]

	return i, ok
}

func (p *Program) IsBoundary(i int) bool {
	return p.boundary[i]
}

// Sense returns the direction of the model objective.
func (p *Program) Sense() solver.Sense {
	return p.sense
}

// FluxBounds returns the net flux bounds of reaction i.
func (p *Program) FluxBounds(i int) (float64, float64) {
	return p.lower[i], p.upper[i]
}

// SetFluxBounds constrains the net flux of reaction i to [lower, upper].
func (p *Program) SetFluxBounds(i int, lower, upper float64) {
	p.lower[i], p.upper[i] = lower, upper
	p.problem.SetVariableBounds(p.fwd[i], math.Max(lower, 0), math.Max(upper, 0))
	p.problem.SetVariableBounds(p.rev[i], math.Max(-upper, 0), math.Max(-lower, 0))
}

// SetFluxObjective optimizes the net flux of reaction i in the given direction.
func (p *Program) SetFluxObjective(i int, sense solver.Sense) {
	p.problem.SetObjective([]solver.Term{
		{Var: p.fwd[i], Coef: 1},
		{Var: p.rev[i], Coef: -1},
	}, sense)
}

// MinimizeTotalFlux replaces the objective with the sum of every forward and reverse variable.
func (p *Program) MinimizeTotalFlux() {
	terms := make([]solver.Term, 0, 2*len(p.ids))
	for i := range p.ids {
		terms = append(terms, solver.Term{Var: p.fwd[i], Coef: 1}, solver.Term{Var: p.rev[i], Coef: 1})
	}
	p.problem.SetObjective(terms, solver.Minimize)
}

// AddObjectiveFloor keeps the model objective within fraction of optimum: at least fraction*optimum when
// maximizing, at most optimum plus the lost fraction of its magnitude when minimizing.
func (p *Program) AddObjectiveFloor(fraction, optimum float64) {
	slack := floorSlack * math.Max(1, math.Abs(optimum))
	loss := (1 - fraction) * math.Abs(optimum)
	if p.sense == solver.Minimize {
		p.problem.AddConstraint("objective_floor", p.objective, math.Inf(-1), optimum+loss+slack)

		return
	}
	p.problem.AddConstraint("objective_floor", p.objective, optimum-loss-slack, math.Inf(1))
}

// ApplyCycleFree restricts the program to loop free distributions close to fluxes: boundary reactions are
// fixed to their flux, internal reactions may only carry flux in the same direction and up to the same
// magnitude, and the total directional flux is minimized.
func (p *Program) ApplyCycleFree(fluxes []float64) {
	terms := make([]solver.Term, 0, len(p.ids))
	for i := range p.ids {
		flux := fluxes[i]
		if p.boundary[i] {
			p.SetFluxBounds(i, flux, flux)

			continue
		}
		lower, upper := p.lower[i], p.upper[i]
		if flux >= 0 {
			lo, hi := math.Max(0, lower), math.Min(flux, upper)
			p.SetFluxBounds(i, math.Min(lo, hi), hi)
			terms = append(terms, solver.Term{Var: p.fwd[i], Coef: 1})

			continue
		}
		lo, hi := math.Max(flux, lower), math.Min(0, upper)
		p.SetFluxBounds(i, lo, math.Max(lo, hi))
		terms = append(terms, solver.Term{Var: p.rev[i], Coef: 1})
	}
	p.problem.SetObjective(terms, solver.Minimize)
}

// Solve runs the program on backend. The objective value of the solution is always the model objective,
// whatever the program currently optimizes.
func (p *Program) Solve(backend solver.Backend) (*Solution, error) {
	res, err := backend.Solve(p.problem)
	if err != nil {
		return nil, errors.Wrap(err, "unable to solve")
	}

	sol := &Solution{
		Status:      res.Status,
		ReactionIDs: p.ids,
		Fluxes:      make([]float64, len(p.ids)),
		Reason:      res.Reason,
	}
	if !res.Optimal() {
		sol.ObjectiveValue = math.NaN()
		for i := range sol.Fluxes {
			sol.Fluxes[i] = math.NaN()
		}

		return sol, nil
	}

	for i := range p.ids {
		sol.Fluxes[i] = res.Values[p.fwd[i]] - res.Values[p.rev[i]]
	}
	sol.ObjectiveValue = solver.Evaluate(p.objective, res.Values)

	return sol, nil
}
