package metabolic

import "github.com/askiada/go-fba/pkg/metabolic/solver"

// Solution is a flux distribution. Fluxes follow model reaction order and are NaN when the solve was not
// optimal.
type Solution struct {
	Status         solver.Status
	ObjectiveValue float64
	ReactionIDs    []string
	Fluxes         []float64
	Reason         string
}

func (s *Solution) Optimal() bool {
	return s != nil && s.Status == solver.Optimal
}

// Flux returns the flux of reaction id.
func (s *Solution) Flux(id string) (float64, bool) {
	for i, rid := range s.ReactionIDs {
		if rid == id {
			return s.Fluxes[i], true
		}
	}

	return 0, false
}

// FluxMap indexes fluxes by reaction id.
func (s *Solution) FluxMap() map[string]float64 {
	out := make(map[string]float64, len(s.ReactionIDs))
	for i, id := range s.ReactionIDs {
		out[id] = s.Fluxes[i]
	}

	return out
}
