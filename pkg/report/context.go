package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-fba/pkg/metabolic"
	"github.com/askiada/go-fba/pkg/pipeline"
	"github.com/askiada/go-fba/pkg/pipeline/config"
)

// ATPMetabolites are the ids searched, in order, for the ATP summary.
var ATPMetabolites = []string{"atp_c", "ATP_c", "cpd00002_c0"}

var ErrMissingResult = errors.New("result must be set")

// Input is what a report is built from. The model is the one the pipeline ran on.
type Input struct {
	Model   *metabolic.Model
	MediaID string
	Config  config.PipelineConfig
	Result  *pipeline.Result
}

// Field is a line of the overview table.
type Field struct {
	Name  string
	Value string
}

// ReactionRow is a line of the reaction and exchange tables.
type ReactionRow struct {
	ID       string
	Flux     string
	Min      string
	Max      string
	Class    Class
	Equation string
	Name     string
}

// GeneRow is a line of the essential gene table. Reactions lists the reactions whose rule mentions the gene.
type GeneRow struct {
	ID        string
	Essential string
	Reactions string
}

// FluxRow is a line of the uptake, secretion and objective summaries.
type FluxRow struct {
	NameID string
	Flux   string
}

// ATPRow is a reaction producing or consuming ATP.
type ATPRow struct {
	Side     string
	NameID   string
	Percent  string
	Flux     string
	Equation string
}

// ATPSummary lists the ATP producers and consumers. Message explains why it is missing when Found is false.
type ATPSummary struct {
	Found   bool
	Message string
	Rows    []ATPRow
}

// Context is everything the report template renders.
type Context struct {
	Title    string
	Warnings []string
	Overview []Field

	HasVariability bool
	Reactions      []ReactionRow
	Exchanges      []ReactionRow

	HasEssentialGenes bool
	EssentialGenes    []GeneRow

	Uptake     []FluxRow
	Secretion  []FluxRow
	Objectives []FluxRow
	ATP        ATPSummary
}

// Build assembles the report context of a run.
func Build(in Input) (*Context, error) {
	if in.Result == nil || in.Result.Solution == nil {
		return nil, ErrMissingResult
	}
	if in.Model == nil {
		return nil, errors.New("model must be set")
	}

	b := &builder{in: in, fluxes: in.Result.Solution.FluxMap()}
	ctx := &Context{
		Title:    "FBA report: " + in.Model.ID,
		Overview: b.overview(),
		Warnings: b.warnings(),
	}

	ctx.Reactions, ctx.Exchanges = b.reactionRows()
	ctx.HasVariability = len(ctx.Reactions)+len(ctx.Exchanges) > 0
	ctx.EssentialGenes = b.geneRows()
	ctx.HasEssentialGenes = len(in.Result.EssentialGenes) > 0
	if in.Result.Optimal() {
		ctx.Uptake, ctx.Secretion = b.exchangeSummary()
		ctx.Objectives = b.objectiveSummary()
	}
	ctx.ATP = b.atpSummary()

	return ctx, nil
}

type builder struct {
	in     Input
	fluxes map[string]float64
}

func (b *builder) overview() []Field {
	cfg, res, m := b.in.Config, b.in.Result, b.in.Model

	objective := res.Applied.ObjectiveSense.String() + " " + strings.Join(res.Applied.ObjectiveIDs, " + ")
	target := cfg.TargetReactionID
	value := res.Solution.ObjectiveValue
	if target != "" {
		if flux, ok := b.fluxes[target]; ok {
			value = flux
		}
	}
	units := "mmol/gm CDW hr"
	if strings.Contains(strings.ToLower(target), "biomass") {
		units = "gm/gm CDW hr"
	}

	fields := []Field{
		{Name: "Model", Value: m.ID},
		{Name: "Media", Value: orDash(b.in.MediaID)},
		{Name: "Optimization status", Value: string(res.Status())},
		{Name: "Objective", Value: strings.TrimSpace(objective)},
		{Name: "Target objective value", Value: fmt.Sprintf("%s (%s)", formatFlux(value), units)},
		{Name: "Number of reactions", Value: fmt.Sprint(len(m.Reactions()))},
		{Name: "Number of compounds", Value: fmt.Sprint(len(m.Metabolites()))},
		{Name: "FBA type", Value: string(cfg.FBAMode)},
		{Name: "FBA fraction of optimum", Value: fmt.Sprint(cfg.FractionOfOptimumPrimary)},
		{Name: "FVA type", Value: string(cfg.FVAMode)},
		{Name: "FVA fraction of optimum", Value: fmt.Sprint(cfg.FractionOfOptimumFVA)},
		{Name: "All reversible reactions", Value: yesNo(cfg.AllReversible)},
		{Name: "Single gene KO", Value: yesNo(cfg.SingleGeneKnockoutSweep)},
		{Name: "Gene KO", Value: fmt.Sprint(len(cfg.GeneKnockoutIDs))},
		{Name: "Reaction KO", Value: fmt.Sprint(len(cfg.ReactionKnockoutIDs))},
		{Name: "Custom bounds", Value: fmt.Sprint(len(cfg.CustomBounds))},
		{Name: "Media supplement", Value: fmt.Sprint(len(cfg.MediaSupplementIDs))},
		{Name: "Solver", Value: strings.ToUpper(string(cfg.Solver))},
	}
	if target != "" && res.Variability.Optimal() {
		if minimum, maximum, ok := res.Variability.Range(target); ok {
			fields = append(fields, Field{Name: "Target flux range", Value: formatFlux(minimum) + " to " + formatFlux(maximum)})
		}
	}

	return fields
}

func (b *builder) warnings() []string {
	res := b.in.Result
	var out []string
	if !res.Optimal() {
		out = append(out, fmt.Sprintf("The optimization status is %q: the fluxes below are not a valid solution. %s",
			res.Status(), res.Solution.Reason))
	}
	if res.Variability != nil && !res.Variability.Optimal() {
		out = append(out, fmt.Sprintf("Flux variability analysis did not run: its baseline status is %q.", res.Variability.Status))
	}

	return out
}

func (b *builder) equation(r *metabolic.Reaction) string {
	order := make([]string, 0, len(b.in.Model.Metabolites()))
	for _, met := range b.in.Model.Metabolites() {
		order = append(order, met.ID)
	}

	return roundNumbers(r.Equation(order, b.metaboliteName))
}

func (b *builder) metaboliteName(id string) string {
	met, err := b.in.Model.Metabolite(id)
	if err != nil || met.Name == "" {
		return id
	}

	return met.Name
}

func (b *builder) reactionRows() ([]ReactionRow, []ReactionRow) {
	fva := b.in.Result.Variability
	if !fva.Optimal() {
		return nil, nil
	}

	var reactions, exchanges []ReactionRow
	for i, id := range fva.ReactionIDs {
		r, err := b.in.Model.Reaction(id)
		if err != nil {
			continue
		}
		flux, ok := b.fluxes[id]
		if !ok {
			flux = math.NaN()
		}
		row := ReactionRow{
			ID:       id,
			Flux:     formatFlux(flux),
			Min:      formatFlux(fva.Minimum[i]),
			Max:      formatFlux(fva.Maximum[i]),
			Class:    Classify(fva.Minimum[i], fva.Maximum[i]),
			Equation: b.equation(r),
			Name:     orDash(r.Name),
		}
		if strings.HasPrefix(id, metabolic.ExchangePrefix) {
			exchanges = append(exchanges, row)
		} else {
			reactions = append(reactions, row)
		}
	}

	return reactions, exchanges
}

func (b *builder) geneRows() []GeneRow {
	essential := b.in.Result.EssentialGenes
	if len(essential) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(essential))
	for _, id := range essential {
		set[id] = struct{}{}
	}

	rows := make([]GeneRow, 0, len(b.in.Model.Genes()))
	for _, g := range b.in.Model.Genes() {
		_, ok := set[g.ID]
		reactions := b.in.Model.ReactionsOfGene(g.ID)
		ids := make([]string, len(reactions))
		for i, r := range reactions {
			ids[i] = r.ID
		}
		rows = append(rows, GeneRow{ID: orDash(g.ID), Essential: yesNo(ok), Reactions: orDash(strings.Join(ids, ", "))})
	}

	return rows
}

// exchangeSummary splits the boundary fluxes into what the model takes up and what it secretes, largest
// first.
func (b *builder) exchangeSummary() ([]FluxRow, []FluxRow) {
	type entry struct {
		row  FluxRow
		flux float64
	}
	var in, out []entry
	for _, r := range b.in.Model.Exchanges() {
		met, _ := r.BoundaryMetabolite()
		// a positive amount of the metabolite is produced inside the system
		produced := r.Coefficient(met) * b.fluxes[r.ID]
		if math.Abs(produced) <= ClassTolerance {
			continue
		}
		e := entry{row: FluxRow{NameID: nameID(b.metaboliteName(met), met), Flux: formatFlux(math.Abs(produced))}, flux: math.Abs(produced)}
		if produced > 0 {
			in = append(in, e)
		} else {
			out = append(out, e)
		}
	}

	rows := func(entries []entry) []FluxRow {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].flux > entries[j].flux })
		out := make([]FluxRow, len(entries))
		for i, e := range entries {
			out[i] = e.row
		}

		return out
	}

	return rows(in), rows(out)
}

func (b *builder) objectiveSummary() []FluxRow {
	var rows []FluxRow
	for _, id := range b.in.Result.Applied.ObjectiveIDs {
		r, err := b.in.Model.Reaction(id)
		if err != nil {
			continue
		}
		rows = append(rows, FluxRow{NameID: nameID(r.Name, id), Flux: formatFlux(b.fluxes[id])})
	}

	return rows
}

func (b *builder) atpSummary() ATPSummary {
	var atp string
	for _, id := range ATPMetabolites {
		if b.in.Model.HasMetabolite(id) {
			atp = id

			break
		}
	}
	if atp == "" {
		return ATPSummary{Message: fmt.Sprintf("Could not find %s in metabolites. Add one of them to the model "+
			"in order to display an ATP summary.", strings.Join(ATPMetabolites, ", "))}
	}
	if !b.in.Result.Optimal() {
		return ATPSummary{Message: "No ATP summary: the optimization is not optimal."}
	}
	network, err := b.in.Model.Network()
	if err != nil {
		return ATPSummary{Message: "No ATP summary: " + err.Error()}
	}
	touching := map[string]struct{}{}
	for _, id := range append(network.Producers(atp), network.Consumers(atp)...) {
		touching[id] = struct{}{}
	}

	type entry struct {
		reaction *metabolic.Reaction
		flux     float64
	}
	var producing, consuming []entry
	var produced, consumed float64
	for _, r := range b.in.Model.Reactions() {
		if _, ok := touching[r.ID]; !ok {
			continue
		}
		flux := r.Coefficient(atp) * b.fluxes[r.ID]
		switch {
		case flux > ClassTolerance:
			producing = append(producing, entry{r, flux})
			produced += flux
		case flux < -ClassTolerance:
			consuming = append(consuming, entry{r, flux})
			consumed -= flux
		}
	}

	summary := ATPSummary{Found: true}
	add := func(side string, entries []entry, total float64) {
		sort.SliceStable(entries, func(i, j int) bool { return math.Abs(entries[i].flux) > math.Abs(entries[j].flux) })
		for _, e := range entries {
			summary.Rows = append(summary.Rows, ATPRow{
				Side:     side,
				NameID:   nameID(e.reaction.Name, e.reaction.ID),
				Percent:  fmt.Sprintf("%.2f%%", 100*math.Abs(e.flux)/total),
				Flux:     formatFlux(e.flux),
				Equation: b.equation(e.reaction),
			})
		}
	}
	add("PRODUCING", producing, produced)
	add("CONSUMING", consuming, consumed)

	return summary
}
