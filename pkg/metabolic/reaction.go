package metabolic

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ExchangePrefix marks exchange reactions.
const ExchangePrefix = "EX_"

// Metabolite is a chemical species in a compartment.
type Metabolite struct {
	ID          string
	Name        string
	Compartment string
	Formula     string
	Charge      int
}

// Gene is a gene referenced by gene-reaction rules.
type Gene struct {
	ID         string
	Name       string
	functional bool
}

// Functional reports whether the gene has not been deleted.
func (g *Gene) Functional() bool {
	return g.functional
}

// Reaction converts metabolites according to its stoichiometry. Negative coefficients are consumed.
type Reaction struct {
	ID               string
	Name             string
	Subsystem        string
	GeneReactionRule string

	metabolites map[string]float64
	lowerBound  float64
	upperBound  float64
	gpr         *GPR
}

// NewReaction creates a reaction and parses its gene-reaction rule.
func NewReaction(id, name string, metabolites map[string]float64, lower, upper float64, rule string) (*Reaction, error) {
	if id == "" {
		return nil, errors.New("reaction id must be set")
	}
	err := checkBounds(lower, upper)
	if err != nil {
		return nil, inconsistency("reaction", id, err)
	}
	gpr, err := ParseGPR(rule)
	if err != nil {
		return nil, inconsistency("reaction", id, err)
	}

	stoichiometry := make(map[string]float64, len(metabolites))
	for met, coef := range metabolites {
		if coef != 0 {
			stoichiometry[met] = coef
		}
	}

	return &Reaction{
		ID:               id,
		Name:             name,
		GeneReactionRule: gpr.String(),
		metabolites:      stoichiometry,
		lowerBound:       lower,
		upperBound:       upper,
		gpr:              gpr,
	}, nil
}

func checkBounds(lower, upper float64) error {
	if math.IsNaN(lower) || math.IsNaN(upper) {
		return errors.Wrap(ErrInvalidBounds, "NaN bound")
	}
	if lower > upper {
		return errors.Wrapf(ErrInvalidBounds, "lower bound %g is greater than upper bound %g", lower, upper)
	}

	return nil
}

// Bounds returns the lower and upper flux bounds.
func (r *Reaction) Bounds() (float64, float64) {
	return r.lowerBound, r.upperBound
}

func (r *Reaction) LowerBound() float64 {
	return r.lowerBound
}

func (r *Reaction) UpperBound() float64 {
	return r.upperBound
}

// SetBounds replaces both bounds. It fails when lower is greater than upper.
func (r *Reaction) SetBounds(lower, upper float64) error {
	err := checkBounds(lower, upper)
	if err != nil {
		return inconsistency("reaction", r.ID, err)
	}
	r.lowerBound, r.upperBound = lower, upper

	return nil
}

// Metabolites returns a copy of the stoichiometry.
func (r *Reaction) Metabolites() map[string]float64 {
	out := make(map[string]float64, len(r.metabolites))
	for k, v := range r.metabolites {
		out[k] = v
	}

	return out
}

// Coefficient returns the stoichiometric coefficient of met, zero when absent.
func (r *Reaction) Coefficient(met string) float64 {
	return r.metabolites[met]
}

// GPR returns the parsed gene-reaction rule, nil when the reaction has none.
func (r *Reaction) GPR() *GPR {
	return r.gpr
}

// IsBoundary reports whether the reaction involves a single metabolite (exchange, demand or sink).
func (r *Reaction) IsBoundary() bool {
	return len(r.metabolites) == 1
}

func (r *Reaction) IsExchange() bool {
	return r.IsBoundary() && strings.HasPrefix(r.ID, ExchangePrefix)
}

func (r *Reaction) Reversible() bool {
	return r.lowerBound < 0 && r.upperBound > 0
}

// BoundaryMetabolite returns the metabolite of a boundary reaction.
func (r *Reaction) BoundaryMetabolite() (string, bool) {
	if !r.IsBoundary() {
		return "", false
	}
	for met := range r.metabolites {
		return met, true
	}

	return "", false
}

// Equation renders the reaction as "2.0 A + B --> C". The name function maps metabolite ids to labels,
// order lists metabolites in the order they should appear.
func (r *Reaction) Equation(order []string, name func(string) string) string {
	var reactants, products []string
	ids := make([]string, 0, len(r.metabolites))
	position := make(map[string]int, len(order))
	for i, id := range order {
		position[id] = i
	}
	for id := range r.metabolites {
		ids = append(ids, id)
	}
	sort.SliceStable(ids, func(i, j int) bool {
		pi, iok := position[ids[i]]
		pj, jok := position[ids[j]]
		if iok && jok {
			return pi < pj
		}
		if iok != jok {
			return iok
		}

		return ids[i] < ids[j]
	})

	for _, id := range ids {
		coef := r.metabolites[id]
		label := name(id)
		if math.Abs(coef) != 1 {
			label = strconv.FormatFloat(math.Abs(coef), 'f', -1, 64) + " " + label
		}
		if coef < 0 {
			reactants = append(reactants, label)
		} else {
			products = append(products, label)
		}
	}

	arrow := "-->"
	switch {
	case r.Reversible():
		arrow = "<=>"
	case r.upperBound <= 0 && r.lowerBound < 0:
		arrow = "<--"
	}

	return strings.TrimSpace(strings.Join(reactants, " + ") + " " + arrow + " " + strings.Join(products, " + "))
}

func (r *Reaction) sortedMetabolites() []string {
	ids := make([]string, 0, len(r.metabolites))
	for id := range r.metabolites {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}
