package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/askiada/go-fba/pkg/pipeline"
	"github.com/askiada/go-fba/pkg/pipeline/config"
	"github.com/askiada/go-fba/pkg/pipeline/measure"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	labelStyle = lipgloss.NewStyle().Width(22).Foreground(lipgloss.Color("#888888"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	badStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F87"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type stageLine struct {
	Name     string
	Duration time.Duration
	Skipped  bool
	Failed   bool
}

// summary is what the run command prints once a run succeeds.
type summary struct {
	ModelID        string
	MediaID        string
	FBAMode        config.FBAMode
	FVAMode        config.FVAMode
	Status         string
	Optimal        bool
	Objective      float64
	EssentialGenes int
	Stages         []stageLine
	RecordID       string
}

func newSummary(modelID, mediaID string, cfg config.PipelineConfig, res *pipeline.Result, msr measure.Measure) *summary {
	sum := &summary{
		ModelID:        modelID,
		MediaID:        mediaID,
		FBAMode:        cfg.FBAMode,
		FVAMode:        cfg.FVAMode,
		Status:         string(res.Status()),
		Optimal:        res.Optimal(),
		EssentialGenes: len(res.EssentialGenes),
	}
	if res.Solution != nil {
		sum.Objective = res.Solution.ObjectiveValue
	}
	for _, name := range msr.Names() {
		metric := msr.GetMetric(name)
		if metric == nil || (metric.Runs() == 0 && !metric.Skipped()) {
			continue
		}
		sum.Stages = append(sum.Stages, stageLine{
			Name:     name,
			Duration: measure.Round(metric.TotalDuration()),
			Skipped:  metric.Skipped(),
			Failed:   metric.Err() != nil,
		})
	}

	return sum
}

func printSummary(w io.Writer, sum *summary) error {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	b.WriteString(titleStyle.Render("FBA run"))
	b.WriteString("\n")
	row("model", sum.ModelID)
	row("media", sum.MediaID)
	row("modes", fmt.Sprintf("%s / %s", sum.FBAMode, sum.FVAMode))
	status := okStyle.Render(sum.Status)
	if !sum.Optimal {
		status = badStyle.Render(sum.Status)
	}
	row("status", status)
	if sum.Optimal {
		row("objective", fmt.Sprintf("%.6g", sum.Objective))
	}
	row("essential genes", fmt.Sprint(sum.EssentialGenes))
	if sum.RecordID != "" {
		row("record", sum.RecordID)
	}

	if len(sum.Stages) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("stages"))
		b.WriteString("\n")
		for _, st := range sum.Stages {
			value := st.Duration.String()
			switch {
			case st.Failed:
				value = badStyle.Render("failed")
			case st.Skipped:
				value = "skipped"
			}
			row(st.Name, value)
		}
	}

	_, err := fmt.Fprintln(w, boxStyle.Render(strings.TrimRight(b.String(), "\n")))

	return err
}
