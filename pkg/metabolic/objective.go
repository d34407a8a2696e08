package metabolic

import "github.com/askiada/go-fba/pkg/metabolic/solver"

// Part selects which variable of a reaction a term applies to.
type Part int

const (
	// Net is the net flux, forward minus reverse.
	Net Part = iota
	Forward
	// Reverse is the flux running backwards. For an exchange reaction it is the uptake.
	Reverse
)

// VariableTerm is a coefficient applied to a reaction variable.
type VariableTerm struct {
	ReactionID  string
	Part        Part
	Coefficient float64
}

// Constraint bounds a linear combination of reaction variables. Use math.Inf to leave a side open.
type Constraint struct {
	ID    string
	Terms []VariableTerm
	Lower float64
	Upper float64
}

// Objective is a linear expression over reaction variables and its direction.
type Objective struct {
	Terms     []VariableTerm
	Direction solver.Sense
}

func (o Objective) clone() Objective {
	return Objective{Terms: append([]VariableTerm(nil), o.Terms...), Direction: o.Direction}
}

// ReactionIDs lists the reactions of the objective with a net coefficient.
func (o Objective) ReactionIDs() []string {
	ids := make([]string, 0, len(o.Terms))
	for _, t := range o.Terms {
		if t.Part == Net {
			ids = append(ids, t.ReactionID)
		}
	}

	return ids
}
