package solver

import (
	"math"

	"github.com/pkg/errors"
)

// Sense is the direction of an objective.
type Sense int

const (
	Maximize Sense = iota
	Minimize
)

func (s Sense) String() string {
	if s == Minimize {
		return "min"
	}

	return "max"
}

// Term is a coefficient applied to a variable.
type Term struct {
	Var  int
	Coef float64
}

// Variable is a decision variable with inclusive bounds. Infinite bounds are allowed.
type Variable struct {
	Name  string
	Lower float64
	Upper float64
}

// Constraint bounds a linear expression between Lower and Upper.
// Use math.Inf to leave a side open.
type Constraint struct {
	Name  string
	Terms []Term
	Lower float64
	Upper float64
}

// Problem is a linear program over bounded variables.
type Problem struct {
	vars      []Variable
	cons      []Constraint
	objective []Term
	sense     Sense
}

// NewProblem creates an empty problem maximizing nothing.
func NewProblem() *Problem {
	return &Problem{}
}

// AddVariable appends a variable and returns its index.
func (p *Problem) AddVariable(name string, lower, upper float64) int {
	p.vars = append(p.vars, Variable{Name: name, Lower: lower, Upper: upper})

	return len(p.vars) - 1
}

// AddConstraint appends a ranged constraint and returns its index.
func (p *Problem) AddConstraint(name string, terms []Term, lower, upper float64) int {
	p.cons = append(p.cons, Constraint{Name: name, Terms: terms, Lower: lower, Upper: upper})

	return len(p.cons) - 1
}

// SetObjective replaces the objective.
func (p *Problem) SetObjective(terms []Term, sense Sense) {
	p.objective = terms
	p.sense = sense
}

// Objective returns the objective terms and direction.
func (p *Problem) Objective() ([]Term, Sense) {
	return p.objective, p.sense
}

// SetVariableBounds overwrites the bounds of variable i.
func (p *Problem) SetVariableBounds(i int, lower, upper float64) {
	p.vars[i].Lower = lower
	p.vars[i].Upper = upper
}

// Variable returns variable i.
func (p *Problem) Variable(i int) Variable {
	return p.vars[i]
}

func (p *Problem) NumVariables() int {
	return len(p.vars)
}

func (p *Problem) NumConstraints() int {
	return len(p.cons)
}

// Clone returns a copy that can be modified without affecting p.
// Constraint terms are shared since they are never modified in place.
func (p *Problem) Clone() *Problem {
	return &Problem{
		vars:      append([]Variable(nil), p.vars...),
		cons:      append([]Constraint(nil), p.cons...),
		objective: append([]Term(nil), p.objective...),
		sense:     p.sense,
	}
}

// Evaluate computes the value of terms for the given variable values.
func Evaluate(terms []Term, values []float64) float64 {
	var total float64
	for _, t := range terms {
		total += t.Coef * values[t.Var]
	}

	return total
}

func (p *Problem) validate() error {
	check := func(terms []Term, where string) error {
		for _, t := range terms {
			if t.Var < 0 || t.Var >= len(p.vars) {
				return errors.Wrapf(ErrInvalidProblem, "%s references variable %d", where, t.Var)
			}
			if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
				return errors.Wrapf(ErrInvalidProblem, "%s has a non finite coefficient", where)
			}
		}

		return nil
	}

	for _, v := range p.vars {
		if math.IsNaN(v.Lower) || math.IsNaN(v.Upper) {
			return errors.Wrapf(ErrInvalidProblem, "variable %s has a NaN bound", v.Name)
		}
	}
	for _, c := range p.cons {
		if err := check(c.Terms, "constraint "+c.Name); err != nil {
			return err
		}
	}

	return check(p.objective, "objective")
}
