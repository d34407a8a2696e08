package metabolic

import "github.com/askiada/go-fba/pkg/metabolic/solver"

type snapshot struct {
	bounds      [][2]float64
	functional  []bool
	constraints []*Constraint
	objective   Objective
	backend     solver.Backend
}

func (m *Model) snapshot() *snapshot {
	s := &snapshot{
		bounds:      make([][2]float64, len(m.reactions)),
		functional:  make([]bool, len(m.genes)),
		constraints: append([]*Constraint(nil), m.constraints...),
		objective:   m.objective.clone(),
		backend:     m.backend,
	}
	for i, r := range m.reactions {
		s.bounds[i] = [2]float64{r.lowerBound, r.upperBound}
	}
	for i, g := range m.genes {
		s.functional[i] = g.functional
	}

	return s
}

// restore only covers reactions and genes that existed when the snapshot was taken.
func (m *Model) restore(s *snapshot) {
	for i, b := range s.bounds {
		m.reactions[i].lowerBound, m.reactions[i].upperBound = b[0], b[1]
	}
	for i, f := range s.functional {
		m.genes[i].functional = f
	}
	m.constraints = s.constraints
	m.objective = s.objective
	m.backend = s.backend
}

// WithScope runs fn and then puts back bounds, gene states, constraints, objective and solver as they
// were before, whether fn returns an error or panics.
func (m *Model) WithScope(fn func(*Model) error) error {
	s := m.snapshot()
	defer m.restore(s)

	return fn(m)
}
