package solver_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-fba/pkg/metabolic/solver"
)

var inf = math.Inf(1)

func newBackend(t *testing.T, name string) solver.Backend {
	t.Helper()
	b, err := solver.New(name)
	require.NoError(t, err)

	return b
}

func TestSimplexOptimal(t *testing.T) {
	t.Parallel()

	for _, name := range solver.Names() {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p := solver.NewProblem()
			x := p.AddVariable("x", 0, inf)
			y := p.AddVariable("y", 0, inf)
			p.AddConstraint("c1", []solver.Term{{Var: x, Coef: 1}, {Var: y, Coef: 2}}, -inf, 4)
			p.AddConstraint("c2", []solver.Term{{Var: x, Coef: 3}, {Var: y, Coef: 1}}, -inf, 6)
			p.SetObjective([]solver.Term{{Var: x, Coef: 1}, {Var: y, Coef: 1}}, solver.Maximize)

			res, err := newBackend(t, name).Solve(p)
			require.NoError(t, err)
			require.Equal(t, solver.Optimal, res.Status)
			assert.InDelta(t, 2.8, res.Objective, 1e-9)
			assert.InDelta(t, 1.6, res.Values[x], 1e-9)
			assert.InDelta(t, 1.2, res.Values[y], 1e-9)
		})
	}
}

func TestSimplexNegativeBounds(t *testing.T) {
	t.Parallel()

	p := solver.NewProblem()
	x := p.AddVariable("x", -10, 0)
	y := p.AddVariable("y", -inf, 5)
	p.AddConstraint("link", []solver.Term{{Var: x, Coef: 1}, {Var: y, Coef: -1}}, 0, 0)
	p.SetObjective([]solver.Term{{Var: y, Coef: 1}}, solver.Minimize)

	res, err := newBackend(t, solver.DefaultBackend).Solve(p)
	require.NoError(t, err)
	require.True(t, res.Optimal())
	assert.InDelta(t, -10, res.Objective, 1e-9)
	assert.InDelta(t, -10, res.Values[x], 1e-9)
}

func TestSimplexFreeVariables(t *testing.T) {
	t.Parallel()

	p := solver.NewProblem()
	x := p.AddVariable("x", -inf, inf)
	y := p.AddVariable("y", -inf, inf)
	p.AddConstraint("sum", []solver.Term{{Var: x, Coef: 1}, {Var: y, Coef: 1}}, 2, 2)
	p.AddConstraint("diff", []solver.Term{{Var: x, Coef: 1}, {Var: y, Coef: -1}}, 0, 0)

	res, err := newBackend(t, solver.AlternateBackend).Solve(p)
	require.NoError(t, err)
	require.True(t, res.Optimal())
	assert.InDelta(t, 1, res.Values[x], 1e-9)
	assert.InDelta(t, 1, res.Values[y], 1e-9)
}

func TestSimplexStatuses(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		build    func() *solver.Problem
		expected solver.Status
	}{
		"crossed bounds": {
			build: func() *solver.Problem {
				p := solver.NewProblem()
				p.AddVariable("x", 5, 3)

				return p
			},
			expected: solver.Infeasible,
		},
		"infeasible constraint": {
			build: func() *solver.Problem {
				p := solver.NewProblem()
				x := p.AddVariable("x", 0, 1)
				p.AddConstraint("floor", []solver.Term{{Var: x, Coef: 1}}, 2, inf)

				return p
			},
			expected: solver.Infeasible,
		},
		"empty constraint out of range": {
			build: func() *solver.Problem {
				p := solver.NewProblem()
				p.AddVariable("x", 0, 1)
				p.AddConstraint("nothing", nil, 1, 2)

				return p
			},
			expected: solver.Infeasible,
		},
		"unbounded": {
			build: func() *solver.Problem {
				p := solver.NewProblem()
				x := p.AddVariable("x", 0, inf)
				p.AddConstraint("floor", []solver.Term{{Var: x, Coef: 1}}, 1, inf)
				p.SetObjective([]solver.Term{{Var: x, Coef: 1}}, solver.Maximize)

				return p
			},
			expected: solver.Unbounded,
		},
		"unbounded free column": {
			build: func() *solver.Problem {
				p := solver.NewProblem()
				x := p.AddVariable("x", 0, inf)
				p.SetObjective([]solver.Term{{Var: x, Coef: 1}}, solver.Maximize)

				return p
			},
			expected: solver.Unbounded,
		},
		"no rows": {
			build: func() *solver.Problem {
				p := solver.NewProblem()
				x := p.AddVariable("x", 0, inf)
				p.SetObjective([]solver.Term{{Var: x, Coef: 1}}, solver.Minimize)

				return p
			},
			expected: solver.Optimal,
		},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			res, err := newBackend(t, solver.DefaultBackend).Solve(tc.build())
			require.NoError(t, err)
			assert.Equal(t, tc.expected, res.Status)
		})
	}
}

func TestSimplexInvalidProblem(t *testing.T) {
	t.Parallel()

	p := solver.NewProblem()
	p.AddVariable("x", 0, 1)
	p.SetObjective([]solver.Term{{Var: 3, Coef: 1}}, solver.Maximize)

	_, err := newBackend(t, solver.DefaultBackend).Solve(p)
	assert.ErrorIs(t, err, solver.ErrInvalidProblem)
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	p := solver.NewProblem()
	x := p.AddVariable("x", 0, 10)
	p.SetObjective([]solver.Term{{Var: x, Coef: 1}}, solver.Maximize)

	c := p.Clone()
	c.SetVariableBounds(x, 0, 1)
	c.AddConstraint("extra", []solver.Term{{Var: x, Coef: 1}}, 0, 0.5)

	assert.Equal(t, 10.0, p.Variable(x).Upper)
	assert.Equal(t, 0, p.NumConstraints())
	assert.Equal(t, 1, c.NumConstraints())
}

func TestBackendRegistry(t *testing.T) {
	t.Parallel()

	_, err := solver.New("cplex")
	assert.ErrorIs(t, err, solver.ErrUnknownBackend)

	def := newBackend(t, solver.DefaultBackend)
	setter, ok := def.(solver.ThreadSetter)
	require.True(t, ok)
	setter.SetThreads(-1)
	assert.GreaterOrEqual(t, def.Configuration().Workers(), 1)
	assert.Equal(t, -1, def.Configuration().Threads)

	assert.Equal(t, solver.DefaultBackend, solver.MustNew(solver.DefaultBackend).Name())
	assert.PanicsWithError(t, `"cplex": unknown solver backend`, func() { solver.MustNew("cplex") })

	alt := newBackend(t, solver.AlternateBackend)
	_, ok = alt.(solver.ThreadSetter)
	assert.False(t, ok)
	assert.Equal(t, 1, alt.Configuration().Workers())
}
