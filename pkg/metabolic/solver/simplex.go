package solver

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

const (
	// refactorEvery bounds the number of pivots appended before the basis inverse is rebuilt.
	refactorEvery = 64
	// blandAfter consecutive degenerate pivots switch pricing to Bland's rule until progress is made.
	blandAfter = 50
	pivotTol   = 1e-9
	dropTol    = 1e-13
	infeasTol  = 1e-7
)

// Simplex solves problems with a bounded variable revised simplex method. Every constraint is a single
// row owning one logical variable, variable bounds are enforced by the ratio test, and the basis inverse is
// kept in sparse product form.
type Simplex struct {
	name string
	cfg  Configuration
}

// ThreadedSimplex is a Simplex whose thread count can be raised. The solve itself stays sequential,
// callers use Configuration().Workers() to run independent solves side by side.
type ThreadedSimplex struct {
	Simplex
}

func (s *Simplex) Name() string {
	return s.name
}

func (s *Simplex) Configuration() Configuration {
	return s.cfg
}

func (s *ThreadedSimplex) SetThreads(threads int) {
	s.cfg.Threads = threads
}

// Solve runs a two phase simplex on p.
func (s *Simplex) Solve(p *Problem) (*Result, error) {
	err := p.validate()
	if err != nil {
		return nil, err
	}

	tab, status, reason := newTableau(p, s.cfg.Tolerance)
	if status != Optimal {
		return &Result{Status: status, Reason: reason}, nil
	}

	status, reason = tab.run()
	if status != Optimal {
		return &Result{Status: status, Reason: reason}, nil
	}

	values := append([]float64(nil), tab.x[:len(p.vars)]...)
	objective, _ := p.Objective()

	return &Result{
		Status:    Optimal,
		Objective: Evaluate(objective, values),
		Values:    values,
	}, nil
}

type varState int8

const (
	basic varState = iota
	atLower
	atUpper
	// free is a nonbasic variable without finite bounds, held at zero.
	free
)

// sparseColumn holds the nonzero entries of one constraint matrix column.
type sparseColumn struct {
	rows []int
	vals []float64
}

func (c *sparseColumn) dot(y []float64) float64 {
	var total float64
	for k, i := range c.rows {
		total += c.vals[k] * y[i]
	}

	return total
}

// eta is the product form update of one pivot: the entering column expressed in the previous basis, split
// into its pivot and the sparse off pivot entries.
type eta struct {
	row   int
	pivot float64
	idx   []int
	val   []float64
}

// tableau is min cᵀx s.t. Ax = 0, l <= x <= u. Columns are the structural variables, then one logical per
// row (coefficient -1, bounded by the constraint range), then the phase one artificials.
type tableau struct {
	m, nStruct int
	cols       []sparseColumn
	lower      []float64
	upper      []float64
	cost       []float64
	objective  []float64
	x          []float64
	state      []varState
	basis      []int
	tol        float64

	etas  []eta
	bland bool
	iter  int
}

func newTableau(p *Problem, tol float64) (*tableau, Status, string) {
	if tol <= 0 {
		tol = defaultTolerance
	}
	t := &tableau{nStruct: len(p.vars), tol: tol}

	for _, v := range p.vars {
		if v.Lower > v.Upper || math.IsInf(v.Lower, 1) || math.IsInf(v.Upper, -1) {
			return nil, Infeasible, "variable " + v.Name + " has crossed bounds"
		}
		t.cols = append(t.cols, sparseColumn{})
		t.lower = append(t.lower, v.Lower)
		t.upper = append(t.upper, v.Upper)
	}

	// duplicated terms of a row are merged through lastRow/lastPos
	lastRow := make([]int, len(p.vars))
	lastPos := make([]int, len(p.vars))
	for j := range lastRow {
		lastRow[j] = -1
	}
	type rangedRow struct{ lower, upper float64 }
	var rows []rangedRow
	for _, c := range p.cons {
		if c.Lower > c.Upper {
			return nil, Infeasible, "constraint " + c.Name + " has crossed bounds"
		}
		i := len(rows)
		added := false
		for _, term := range c.Terms {
			if term.Coef == 0 {
				continue
			}
			col := &t.cols[term.Var]
			if lastRow[term.Var] == i {
				col.vals[lastPos[term.Var]] += term.Coef

				continue
			}
			lastRow[term.Var] = i
			lastPos[term.Var] = len(col.rows)
			col.rows = append(col.rows, i)
			col.vals = append(col.vals, term.Coef)
			added = true
		}
		if !added {
			if c.Lower > tol || c.Upper < -tol {
				return nil, Infeasible, "empty constraint " + c.Name + " excludes zero"
			}

			continue
		}
		rows = append(rows, rangedRow{c.Lower, c.Upper})
	}
	t.m = len(rows)

	for j := 0; j < t.nStruct; j++ {
		switch {
		case !math.IsInf(t.lower[j], -1):
			t.x = append(t.x, t.lower[j])
			t.state = append(t.state, atLower)
		case !math.IsInf(t.upper[j], 1):
			t.x = append(t.x, t.upper[j])
			t.state = append(t.state, atUpper)
		default:
			t.x = append(t.x, 0)
			t.state = append(t.state, free)
		}
	}

	activity := make([]float64, t.m)
	for j := 0; j < t.nStruct; j++ {
		if t.x[j] == 0 {
			continue
		}
		for k, i := range t.cols[j].rows {
			activity[i] += t.cols[j].vals[k] * t.x[j]
		}
	}

	// Rows whose activity already fits take their logical into the basis, the others get an artificial
	// absorbing the residual while the logical sits on the violated bound.
	t.basis = make([]int, t.m)
	for i, r := range rows {
		t.addColumn(sparseColumn{rows: []int{i}, vals: []float64{-1}}, r.lower, r.upper)
	}
	for i, r := range rows {
		logical, act := t.nStruct+i, activity[i]
		if act >= r.lower-t.tol && act <= r.upper+t.tol {
			t.x[logical] = act
			t.state[logical] = basic
			t.basis[i] = logical

			continue
		}
		bound := r.lower
		if act > r.upper {
			bound = r.upper
		}
		t.x[logical] = bound
		t.state[logical] = atLower
		if bound == r.upper && r.lower != r.upper {
			t.state[logical] = atUpper
		}
		sign := 1.0
		if act-bound > 0 {
			sign = -1
		}
		art := t.addColumn(sparseColumn{rows: []int{i}, vals: []float64{sign}}, 0, math.Inf(1))
		t.x[art] = math.Abs(act - bound)
		t.state[art] = basic
		t.basis[i] = art
	}

	t.objective = make([]float64, len(t.cols))
	sign := 1.0
	if p.sense == Maximize {
		sign = -1
	}
	for _, term := range p.objective {
		t.objective[term.Var] += sign * term.Coef
	}

	return t, Optimal, ""
}

func (t *tableau) addColumn(col sparseColumn, lower, upper float64) int {
	t.cols = append(t.cols, col)
	t.lower = append(t.lower, lower)
	t.upper = append(t.upper, upper)
	t.x = append(t.x, 0)
	t.state = append(t.state, atLower)

	return len(t.cols) - 1
}

func (t *tableau) run() (Status, string) {
	if len(t.cols) > t.nStruct+t.m {
		t.cost = make([]float64, len(t.cols))
		var infeasibility float64
		for j := t.nStruct + t.m; j < len(t.cols); j++ {
			t.cost[j] = 1
			infeasibility += t.x[j]
		}
		if infeasibility > infeasTol {
			status, reason := t.optimize()
			if status != Optimal {
				return Numeric, "phase one: " + reason
			}
		}
		infeasibility = 0
		for j := t.nStruct + t.m; j < len(t.cols); j++ {
			infeasibility += t.x[j]
		}
		if infeasibility > infeasTol {
			return Infeasible, "no point satisfies every constraint"
		}
		// artificials may stay basic at zero, they leave on the first pivot touching their row
		for j := t.nStruct + t.m; j < len(t.cols); j++ {
			t.upper[j] = 0
			if t.state[j] != basic {
				t.x[j] = 0
				t.state[j] = atLower
			}
		}
	}

	t.cost = t.objective
	t.etas = t.etas[:0]

	return t.optimize()
}

func (t *tableau) maxIterations() int {
	return 50*(len(t.cols)+t.m) + 1000
}

// optimize minimizes t.cost from the current feasible basis.
func (t *tableau) optimize() (Status, string) {
	err := t.refactor()
	if err != nil {
		return Numeric, err.Error()
	}

	cb := make([]float64, t.m)
	y := make([]float64, t.m)
	alpha := make([]float64, t.m)
	degenerate := 0
	for ; ; t.iter++ {
		if t.iter > t.maxIterations() {
			return Numeric, "iteration limit reached"
		}
		if len(t.etas) >= refactorEvery {
			err = t.refactor()
			if err != nil {
				return Numeric, err.Error()
			}
		}

		for i, j := range t.basis {
			cb[i] = t.cost[j]
		}
		t.btran(cb, y)

		q, dq := t.price(y)
		if q < 0 {
			return Optimal, ""
		}
		dir := 1.0
		if dq > 0 {
			dir = -1
		}

		t.ftran(t.cols[q], alpha)

		step, leave, toUpper := t.ratio(q, dir, alpha)
		if math.IsInf(step, 1) {
			return Unbounded, "objective can improve without limit"
		}

		t.x[q] += dir * step
		for i, j := range t.basis {
			t.x[j] -= dir * alpha[i] * step
		}

		if leave < 0 {
			// bound flip, the basis is unchanged
			if dir > 0 {
				t.x[q], t.state[q] = t.upper[q], atUpper
			} else {
				t.x[q], t.state[q] = t.lower[q], atLower
			}
		} else {
			out := t.basis[leave]
			if toUpper {
				t.x[out], t.state[out] = t.upper[out], atUpper
			} else {
				t.x[out], t.state[out] = t.lower[out], atLower
			}
			t.basis[leave] = q
			t.state[q] = basic
			t.etas = append(t.etas, newEta(leave, alpha))
		}

		if step <= t.tol {
			degenerate++
			if degenerate > blandAfter {
				t.bland = true
			}
		} else {
			degenerate = 0
			t.bland = false
		}
	}
}

// price returns the entering column and its reduced cost, or -1 when the basis is optimal.
func (t *tableau) price(y []float64) (int, float64) {
	best, bestD := -1, 0.0
	for j := range t.cols {
		state := t.state[j]
		if state == basic || t.lower[j] == t.upper[j] {
			continue
		}
		d := t.cost[j] - t.cols[j].dot(y)
		improving := (state == atLower && d < -t.tol) ||
			(state == atUpper && d > t.tol) ||
			(state == free && math.Abs(d) > t.tol)
		if !improving {
			continue
		}
		if t.bland {
			return j, d
		}
		if best < 0 || math.Abs(d) > math.Abs(bestD) {
			best, bestD = j, d
		}
	}

	return best, bestD
}

// ratio returns the step length of entering column q and the leaving row, -1 for a bound flip. toUpper tells
// which bound the leaving variable reaches.
func (t *tableau) ratio(q int, dir float64, alpha []float64) (float64, int, bool) {
	step, leave, toUpper := math.Inf(1), -1, false
	if !math.IsInf(t.lower[q], -1) && !math.IsInf(t.upper[q], 1) {
		step = t.upper[q] - t.lower[q]
	}

	for i, j := range t.basis {
		if math.Abs(alpha[i]) <= pivotTol {
			continue
		}
		delta := -dir * alpha[i]
		var limit float64
		var upper bool
		switch {
		case delta < 0 && !math.IsInf(t.lower[j], -1):
			limit = (t.x[j] - t.lower[j]) / -delta
		case delta > 0 && !math.IsInf(t.upper[j], 1):
			limit, upper = (t.upper[j]-t.x[j])/delta, true
		default:
			continue
		}
		limit = math.Max(limit, 0)

		take := false
		switch {
		case limit < step-t.tol:
			take = true
		case leave >= 0 && limit <= step+t.tol:
			// near ties go to the largest pivot, or to the lowest column under Bland's rule
			if t.bland {
				take = j < t.basis[leave]
			} else {
				take = math.Abs(alpha[i]) > math.Abs(alpha[leave])
			}
		case leave < 0 && limit < step:
			take = true
		}
		if take {
			step, leave, toUpper = limit, i, upper
		}
	}

	return step, leave, toUpper
}

// refactor rebuilds the product form of the basis inverse from the all logical basis, pivoting the other
// basic columns in sparsest first, and recomputes the basic values from the nonbasic ones.
func (t *tableau) refactor() error {
	t.etas = t.etas[:0]
	target := append([]int(nil), t.basis...)
	open := make([]bool, t.m)
	for i := range open {
		open[i] = true
	}
	var pending []int
	for _, j := range target {
		if j >= t.nStruct && j < t.nStruct+t.m {
			open[j-t.nStruct] = false

			continue
		}
		pending = append(pending, j)
	}
	sort.SliceStable(pending, func(a, b int) bool {
		return len(t.cols[pending[a]].rows) < len(t.cols[pending[b]].rows)
	})
	for i := range t.basis {
		t.basis[i] = t.nStruct + i
	}

	alpha := make([]float64, t.m)
	for _, q := range pending {
		t.ftran(t.cols[q], alpha)
		r, best := -1, pivotTol
		for i, a := range alpha {
			if open[i] && math.Abs(a) > best {
				r, best = i, math.Abs(a)
			}
		}
		if r < 0 {
			return errors.Errorf("basis is singular at iteration %d", t.iter)
		}
		t.etas = append(t.etas, newEta(r, alpha))
		t.basis[r] = q
		open[r] = false
	}

	rhs := make([]float64, t.m)
	for j := range t.cols {
		if t.state[j] == basic || t.x[j] == 0 {
			continue
		}
		for k, i := range t.cols[j].rows {
			rhs[i] -= t.cols[j].vals[k] * t.x[j]
		}
	}
	t.solve(rhs)
	for pos, j := range t.basis {
		t.x[j] = rhs[pos]
	}

	return nil
}

func newEta(row int, alpha []float64) eta {
	e := eta{row: row, pivot: alpha[row]}
	for i, a := range alpha {
		if i != row && math.Abs(a) > dropTol {
			e.idx = append(e.idx, i)
			e.val = append(e.val, a)
		}
	}

	return e
}

// ftran computes B⁻¹a into dst.
func (t *tableau) ftran(col sparseColumn, dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
	for k, i := range col.rows {
		dst[i] = col.vals[k]
	}
	t.solve(dst)
}

// solve overwrites v with B⁻¹v. The initial basis holds every logical, so its inverse is -I.
func (t *tableau) solve(v []float64) {
	for i := range v {
		v[i] = -v[i]
	}
	for _, e := range t.etas {
		z := v[e.row]
		if z == 0 {
			continue
		}
		z /= e.pivot
		v[e.row] = z
		for k, i := range e.idx {
			v[i] -= e.val[k] * z
		}
	}
}

// btran computes cbᵀB⁻¹ into y.
func (t *tableau) btran(cb, y []float64) {
	copy(y, cb)
	for k := len(t.etas) - 1; k >= 0; k-- {
		e := t.etas[k]
		v := y[e.row]
		for n, i := range e.idx {
			v -= y[i] * e.val[n]
		}
		y[e.row] = v / e.pivot
	}
	for i := range y {
		y[i] = -y[i]
	}
}

var (
	_ Backend      = (*Simplex)(nil)
	_ Backend      = (*ThreadedSimplex)(nil)
	_ ThreadSetter = (*ThreadedSimplex)(nil)
)
