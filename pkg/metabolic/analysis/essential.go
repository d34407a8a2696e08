package analysis

import (
	"github.com/askiada/go-fba/pkg/metabolic"
)

// DefaultEssentialThreshold is the objective value at or below which a knockout counts as lethal.
const DefaultEssentialThreshold = 1e-11

// FindEssentialGenes deletes each gene on its own and reports, in model order, the genes whose deletion
// leaves the objective infeasible or at most threshold. Genes already deleted from the model are tested
// too, their deletion is then a no-op. Every deletion is rolled back before the next gene is tested. The
// model must have an optimal solution before any deletion.
func FindEssentialGenes(m *metabolic.Model, threshold float64) ([]string, error) {
	baseline, err := m.Optimize()
	if err != nil {
		return nil, err
	}
	if !baseline.Optimal() {
		return nil, ErrInfeasibleBaseline
	}

	essential := []string{}
	for _, gene := range m.Genes() {
		lethal := false
		err := m.WithScope(func(m *metabolic.Model) error {
			_, err := m.DeleteGenes(gene.ID)
			if err != nil {
				return err
			}
			sol, err := m.Optimize()
			lethal = err != nil || !sol.Optimal() || sol.ObjectiveValue <= threshold

			return nil
		})
		if err != nil {
			return nil, err
		}
		if lethal {
			essential = append(essential, gene.ID)
		}
	}

	return essential, nil
}
