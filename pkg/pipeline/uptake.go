package pipeline

import (
	"github.com/askiada/go-fba/pkg/metabolic"
	"github.com/askiada/go-fba/pkg/pipeline/config"
)

// UptakeConstraintPrefix starts the id of every element uptake constraint, followed by the element symbol.
const UptakeConstraintPrefix = "uptake_"

type uptakeSummary struct {
	DefaultMaxUptake float64
	Reactions        []string
	ConstraintIDs    []string
}

// configureUptake bounds the uptake of the exchanges that can take up a compound: the current medium of the
// model, or every exchange when the media is complete.
//
// Complete media raises the default max uptake to metabolic.DefaultCompoundUptake for this call only. A non
// zero default becomes the lower bound of every uptake exchange. Each element with a configured cap adds
// one constraint summing atom count times uptake flux, bounded by [0, cap]. Compounds without a usable
// formula count as zero atoms.
func configureUptake(m *metabolic.Model, media *metabolic.Media, cfg config.PipelineConfig) (uptakeSummary, error) {
	summary := uptakeSummary{DefaultMaxUptake: cfg.DefaultMaxUptake}

	exchanges := m.Medium()
	if media.IsComplete() {
		summary.DefaultMaxUptake = metabolic.DefaultCompoundUptake
		exchanges = m.Exchanges()
	}
	for _, r := range exchanges {
		summary.Reactions = append(summary.Reactions, r.ID)
	}

	if summary.DefaultMaxUptake != 0 {
		for _, r := range exchanges {
			lower := -summary.DefaultMaxUptake
			upper := r.UpperBound()
			if upper < lower {
				upper = lower
			}
			err := r.SetBounds(lower, upper)
			if err != nil {
				return uptakeSummary{}, err
			}
		}
	}

	var counts []map[string]int
	for _, e := range config.Elements {
		limit, ok := cfg.MaxUptake(e)
		if !ok {
			continue
		}
		if counts == nil {
			counts = atomCounts(m, exchanges)
		}

		c := &metabolic.Constraint{
			ID:    UptakeConstraintPrefix + string(e),
			Lower: 0,
			Upper: limit,
		}
		for i, r := range exchanges {
			if n := counts[i][string(e)]; n > 0 {
				c.Terms = append(c.Terms, metabolic.VariableTerm{ReactionID: r.ID, Part: metabolic.Reverse, Coefficient: float64(n)})
			}
		}
		err := m.AddConstraint(c)
		if err != nil {
			return uptakeSummary{}, err
		}
		summary.ConstraintIDs = append(summary.ConstraintIDs, c.ID)
	}

	return summary, nil
}

func atomCounts(m *metabolic.Model, exchanges []*metabolic.Reaction) []map[string]int {
	out := make([]map[string]int, len(exchanges))
	for i, r := range exchanges {
		out[i] = map[string]int{}
		id, ok := r.BoundaryMetabolite()
		if !ok {
			continue
		}
		met, err := m.Metabolite(id)
		if err != nil {
			continue
		}
		out[i] = metabolic.ParseFormula(met.Formula)
	}

	return out
}
