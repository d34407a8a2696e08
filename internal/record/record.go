// Package record persists the outcome of FBA runs in SQLite, one record per workspace and output id.
package record

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/askiada/go-fba/pkg/pipeline"
	"github.com/askiada/go-fba/pkg/pipeline/config"
)

// ReportPrefix starts every generated report name.
const ReportPrefix = "fba_report_"

// Record is the stored outcome of a run.
type Record struct {
	ID        string
	Workspace string
	OutputID  string
	ModelID   string
	MediaID   string
	Status    string
	// Objective is NaN when the run was not optimal.
	Objective  float64
	ReportName string
	CreatedAt  time.Time
	Payload    Payload
}

// Payload holds the vectors of a run. It is stored gob encoded, so NaN values survive.
type Payload struct {
	FBAMode        string
	FVAMode        string
	ReactionIDs    []string
	Fluxes         []float64
	VariabilityIDs []string
	Minimum        []float64
	Maximum        []float64
	EssentialGenes []string
}

// NewReportName returns a unique report name.
func NewReportName() string {
	return ReportPrefix + uuid.NewString()
}

// FromResult builds the record of a run.
func FromResult(cfg config.PipelineConfig, modelID, mediaID string, res *pipeline.Result, reportName string) *Record {
	rec := &Record{
		Workspace:  cfg.Workspace,
		OutputID:   cfg.OutputID,
		ModelID:    modelID,
		MediaID:    mediaID,
		Objective:  math.NaN(),
		ReportName: reportName,
		Payload: Payload{
			FBAMode:        string(cfg.FBAMode),
			FVAMode:        string(cfg.FVAMode),
			EssentialGenes: append([]string(nil), res.EssentialGenes...),
		},
	}
	if res.Solution != nil {
		rec.Status = string(res.Solution.Status)
		rec.Objective = res.Solution.ObjectiveValue
		rec.Payload.ReactionIDs = append([]string(nil), res.Solution.ReactionIDs...)
		rec.Payload.Fluxes = append([]float64(nil), res.Solution.Fluxes...)
	}
	if res.Variability != nil {
		rec.Payload.VariabilityIDs = append([]string(nil), res.Variability.ReactionIDs...)
		rec.Payload.Minimum = append([]float64(nil), res.Variability.Minimum...)
		rec.Payload.Maximum = append([]float64(nil), res.Variability.Maximum...)
	}

	return rec
}

// Flux returns the stored flux of reaction id.
func (r *Record) Flux(id string) (float64, bool) {
	for i, rid := range r.Payload.ReactionIDs {
		if rid == id {
			return r.Payload.Fluxes[i], true
		}
	}

	return 0, false
}
