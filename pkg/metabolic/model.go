package metabolic

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-fba/pkg/metabolic/solver"
)

// Model is a constraint-based metabolic model.
type Model struct {
	ID   string
	Name string

	reactions     []*Reaction
	reactionIdx   map[string]int
	metabolites   []*Metabolite
	metaboliteIdx map[string]int
	genes         []*Gene
	geneIdx       map[string]int
	geneReactions map[string][]int

	constraints []*Constraint
	objective   Objective
	backend     solver.Backend
}

// NewModel creates an empty model maximizing nothing.
func NewModel(id string) *Model {
	return &Model{
		ID:            id,
		reactionIdx:   map[string]int{},
		metaboliteIdx: map[string]int{},
		geneIdx:       map[string]int{},
		geneReactions: map[string][]int{},
		objective:     Objective{Direction: solver.Maximize},
	}
}

// AddMetabolites registers metabolites. Ids must be unique.
func (m *Model) AddMetabolites(mets ...*Metabolite) error {
	for _, met := range mets {
		if _, ok := m.metaboliteIdx[met.ID]; ok {
			return inconsistency("metabolite", met.ID, ErrDuplicateID)
		}
		m.metaboliteIdx[met.ID] = len(m.metabolites)
		m.metabolites = append(m.metabolites, met)
	}

	return nil
}

// AddGenes registers genes as functional.
func (m *Model) AddGenes(genes ...*Gene) error {
	for _, g := range genes {
		if _, ok := m.geneIdx[g.ID]; ok {
			return inconsistency("gene", g.ID, ErrDuplicateID)
		}
		g.functional = true
		m.geneIdx[g.ID] = len(m.genes)
		m.genes = append(m.genes, g)
	}

	return nil
}

// AddReactions registers reactions. Every metabolite must already exist; genes named in rules are created
// when missing.
func (m *Model) AddReactions(rxns ...*Reaction) error {
	for _, r := range rxns {
		if _, ok := m.reactionIdx[r.ID]; ok {
			return inconsistency("reaction", r.ID, ErrDuplicateID)
		}
		for met := range r.metabolites {
			if _, ok := m.metaboliteIdx[met]; !ok {
				return inconsistency("metabolite", met, errors.Wrapf(ErrMetaboliteNotFound, "used by reaction %s", r.ID))
			}
		}
		pos := len(m.reactions)
		m.reactionIdx[r.ID] = pos
		m.reactions = append(m.reactions, r)
		for _, gene := range r.gpr.Genes() {
			if _, ok := m.geneIdx[gene]; !ok {
				_ = m.AddGenes(&Gene{ID: gene})
			}
			m.geneReactions[gene] = append(m.geneReactions[gene], pos)
		}
	}

	return nil
}

// Reactions returns the reactions in insertion order.
func (m *Model) Reactions() []*Reaction {
	return append([]*Reaction(nil), m.reactions...)
}

func (m *Model) Metabolites() []*Metabolite {
	return append([]*Metabolite(nil), m.metabolites...)
}

func (m *Model) Genes() []*Gene {
	return append([]*Gene(nil), m.genes...)
}

// Reaction looks a reaction up by id.
func (m *Model) Reaction(id string) (*Reaction, error) {
	pos, ok := m.reactionIdx[id]
	if !ok {
		return nil, inconsistency("reaction", id, ErrReactionNotFound)
	}

	return m.reactions[pos], nil
}

// Metabolite looks a metabolite up by id.
func (m *Model) Metabolite(id string) (*Metabolite, error) {
	pos, ok := m.metaboliteIdx[id]
	if !ok {
		return nil, inconsistency("metabolite", id, ErrMetaboliteNotFound)
	}

	return m.metabolites[pos], nil
}

// Gene looks a gene up by id.
func (m *Model) Gene(id string) (*Gene, error) {
	pos, ok := m.geneIdx[id]
	if !ok {
		return nil, inconsistency("gene", id, ErrGeneNotFound)
	}

	return m.genes[pos], nil
}

func (m *Model) HasReaction(id string) bool {
	_, ok := m.reactionIdx[id]

	return ok
}

func (m *Model) HasMetabolite(id string) bool {
	_, ok := m.metaboliteIdx[id]

	return ok
}

func (m *Model) HasGene(id string) bool {
	_, ok := m.geneIdx[id]

	return ok
}

// SetReactionBounds sets the bounds of reaction id.
func (m *Model) SetReactionBounds(id string, lower, upper float64) error {
	r, err := m.Reaction(id)
	if err != nil {
		return err
	}

	return r.SetBounds(lower, upper)
}

// Exchanges lists the exchange reactions in model order.
func (m *Model) Exchanges() []*Reaction {
	var out []*Reaction
	for _, r := range m.reactions {
		if r.IsExchange() {
			out = append(out, r)
		}
	}

	return out
}

// Medium lists the exchange reactions currently allowing uptake, that is with a negative lower bound.
func (m *Model) Medium() []*Reaction {
	var out []*Reaction
	for _, r := range m.reactions {
		if r.IsExchange() && r.lowerBound < 0 {
			out = append(out, r)
		}
	}

	return out
}

// ReactionsOfGene lists the reactions whose rule mentions gene.
func (m *Model) ReactionsOfGene(gene string) []*Reaction {
	positions := m.geneReactions[gene]
	out := make([]*Reaction, 0, len(positions))
	for _, pos := range positions {
		out = append(out, m.reactions[pos])
	}

	return out
}

// AddConstraint adds a custom constraint. Every referenced reaction must exist.
func (m *Model) AddConstraint(c *Constraint) error {
	for _, existing := range m.constraints {
		if existing.ID == c.ID {
			return inconsistency("constraint", c.ID, ErrDuplicateID)
		}
	}
	for _, t := range c.Terms {
		if !m.HasReaction(t.ReactionID) {
			return inconsistency("reaction", t.ReactionID, errors.Wrapf(ErrReactionNotFound, "used by constraint %s", c.ID))
		}
	}
	if c.Lower > c.Upper {
		return inconsistency("constraint", c.ID, ErrInvalidBounds)
	}
	m.constraints = append(m.constraints, c)

	return nil
}

// Constraints returns the custom constraints.
func (m *Model) Constraints() []*Constraint {
	return append([]*Constraint(nil), m.constraints...)
}

func (m *Model) NumConstraints() int {
	return len(m.constraints)
}

// Objective returns a copy of the objective.
func (m *Model) Objective() Objective {
	return m.objective.clone()
}

// SetObjective makes the net flux of the given reactions the objective, keeping the current direction.
func (m *Model) SetObjective(reactionIDs ...string) error {
	terms := make([]VariableTerm, 0, len(reactionIDs))
	for _, id := range reactionIDs {
		if !m.HasReaction(id) {
			return inconsistency("reaction", id, errors.Wrap(ErrReactionNotFound, "objective"))
		}
		terms = append(terms, VariableTerm{ReactionID: id, Part: Net, Coefficient: 1})
	}
	m.objective.Terms = terms

	return nil
}

// SetObjectiveTerms replaces the objective expression and direction.
func (m *Model) SetObjectiveTerms(terms []VariableTerm, direction solver.Sense) error {
	for _, t := range terms {
		if !m.HasReaction(t.ReactionID) {
			return inconsistency("reaction", t.ReactionID, errors.Wrap(ErrReactionNotFound, "objective"))
		}
	}
	m.objective = Objective{Terms: append([]VariableTerm(nil), terms...), Direction: direction}

	return nil
}

func (m *Model) SetObjectiveDirection(direction solver.Sense) {
	m.objective.Direction = direction
}

// SetSolver binds the backend used by Optimize.
func (m *Model) SetSolver(b solver.Backend) {
	m.backend = b
}

// Solver returns the bound backend, binding the default one on first use.
func (m *Model) Solver() solver.Backend {
	if m.backend == nil {
		m.backend = solver.MustNew(solver.DefaultBackend)
	}

	return m.backend
}

// DeleteGenes marks genes as non functional and forces to zero every reaction whose rule no longer holds.
// It returns the ids of the reactions that were knocked out.
func (m *Model) DeleteGenes(ids ...string) ([]string, error) {
	for _, id := range ids {
		if !m.HasGene(id) {
			return nil, inconsistency("gene", id, ErrGeneNotFound)
		}
	}

	affected := map[int]struct{}{}
	var order []int
	for _, id := range ids {
		m.genes[m.geneIdx[id]].functional = false
		for _, pos := range m.geneReactions[id] {
			if _, ok := affected[pos]; !ok {
				affected[pos] = struct{}{}
				order = append(order, pos)
			}
		}
	}

	var knocked []string
	for _, pos := range order {
		r := m.reactions[pos]
		if r.gpr.Eval(m.geneFunctional) {
			continue
		}
		r.lowerBound, r.upperBound = 0, 0
		knocked = append(knocked, r.ID)
	}

	return knocked, nil
}

func (m *Model) geneFunctional(id string) bool {
	pos, ok := m.geneIdx[id]

	return !ok || m.genes[pos].functional
}

// Optimize solves the model with its bound backend.
func (m *Model) Optimize() (*Solution, error) {
	prog, err := m.Program()
	if err != nil {
		return nil, err
	}

	return prog.Solve(m.Solver())
}
