package cmd

import (
	"encoding/json"
	"io"
	"math"

	"github.com/askiada/go-fba/pkg/pipeline"
	"github.com/askiada/go-fba/pkg/pipeline/config"
)

// resultDocument is the JSON form of a run. NaN values are written as null.
type resultDocument struct {
	ModelID        string                 `json:"model_id"`
	MediaID        string                 `json:"media_id"`
	Config         config.PipelineConfig  `json:"config"`
	Status         string                 `json:"status"`
	Reason         string                 `json:"reason,omitempty"`
	Objective      *float64               `json:"objective"`
	Fluxes         map[string]*float64    `json:"fluxes"`
	Variability    *variabilityDocument   `json:"variability,omitempty"`
	EssentialGenes []string               `json:"essential_genes"`
	Applied        pipeline.Applied       `json:"applied"`
	Timings        []pipeline.StageTiming `json:"timings"`
}

type variabilityDocument struct {
	Status string                 `json:"status"`
	Reason string                 `json:"reason,omitempty"`
	Ranges map[string][2]*float64 `json:"ranges"`
}

func number(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	return &v
}

func newResultDocument(cfg config.PipelineConfig, modelID, mediaID string, res *pipeline.Result) resultDocument {
	doc := resultDocument{
		ModelID:        modelID,
		MediaID:        mediaID,
		Config:         cfg,
		Status:         string(res.Status()),
		Fluxes:         map[string]*float64{},
		EssentialGenes: res.EssentialGenes,
		Applied:        res.Applied,
		Timings:        res.Timings,
	}
	if sol := res.Solution; sol != nil {
		doc.Reason = sol.Reason
		doc.Objective = number(sol.ObjectiveValue)
		for i, id := range sol.ReactionIDs {
			doc.Fluxes[id] = number(sol.Fluxes[i])
		}
	}
	if fva := res.Variability; fva != nil {
		doc.Variability = &variabilityDocument{
			Status: string(fva.Status),
			Reason: fva.Reason,
			Ranges: make(map[string][2]*float64, len(fva.ReactionIDs)),
		}
		for i, id := range fva.ReactionIDs {
			doc.Variability.Ranges[id] = [2]*float64{number(fva.Minimum[i]), number(fva.Maximum[i])}
		}
	}

	return doc
}

func writeResult(w io.Writer, cfg config.PipelineConfig, modelID, mediaID string, res *pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(newResultDocument(cfg, modelID, mediaID, res))
}
