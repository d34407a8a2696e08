package report_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-fba/pkg/metabolic"
	"github.com/askiada/go-fba/pkg/metabolic/metabolictest"
	"github.com/askiada/go-fba/pkg/pipeline"
	"github.com/askiada/go-fba/pkg/pipeline/config"
	"github.com/askiada/go-fba/pkg/report"
)

func runPipeline(t *testing.T, cfg config.PipelineConfig, m *metabolic.Model) report.Input {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	pipe, err := pipeline.New(cfg, pipeline.WithLogger(logger))
	require.NoError(t, err)
	res, err := pipe.Run(context.Background(), m, &metabolic.Media{ID: "glc", Name: "glucose"})
	require.NoError(t, err)

	return report.Input{Model: m, MediaID: "glc", Config: cfg, Result: res}
}

func fvaConfig() config.PipelineConfig {
	cfg := config.Default()
	cfg.FBAMode = config.FBAStandard
	cfg.TargetReactionID = "BIOMASS"
	cfg.ReactionKnockoutIDs = []string{"LOOP_BA"}
	cfg.SingleGeneKnockoutSweep = true

	return cfg
}

func overview(ctx *report.Context) map[string]string {
	out := map[string]string{}
	for _, f := range ctx.Overview {
		out[f.Name] = f.Value
	}

	return out
}

func TestBuild(t *testing.T) {
	t.Parallel()

	m := metabolictest.WithNitrogen(t, metabolictest.WithLoop(t, metabolictest.Toy(t)))
	ctx, err := report.Build(runPipeline(t, fvaConfig(), m))
	require.NoError(t, err)

	assert.Empty(t, ctx.Warnings)
	fields := overview(ctx)
	assert.Equal(t, "toy", fields["Model"])
	assert.Equal(t, "glc", fields["Media"])
	assert.Equal(t, "optimal", fields["Optimization status"])
	assert.Equal(t, "max BIOMASS", fields["Objective"])
	assert.Equal(t, "10 (gm/gm CDW hr)", fields["Target objective value"])
	assert.Equal(t, "7", fields["Number of reactions"])
	assert.Equal(t, "FVA", fields["FVA type"])
	assert.Equal(t, "No", fields["All reversible reactions"])
	assert.Equal(t, "Yes", fields["Single gene KO"])
	assert.Equal(t, "1", fields["Reaction KO"])
	assert.Equal(t, "COINOR_CBC", fields["Solver"])
	assert.Equal(t, "1 to 10", fields["Target flux range"])

	require.True(t, ctx.HasVariability)
	classes := map[string]report.Class{}
	for _, row := range append(append([]report.ReactionRow{}, ctx.Reactions...), ctx.Exchanges...) {
		classes[row.ID] = row.Class
	}
	assert.Equal(t, map[string]report.Class{
		"EX_glc_e":  report.Essential,
		"GLCt":      report.Essential,
		"BIOMASS":   report.Essential,
		"LOOP_AB":   report.Blocked,
		"LOOP_BA":   report.Blocked,
		"EX_nh4_e":  report.Functional,
		"BIOMASS_N": report.Functional,
	}, classes)
	require.Len(t, ctx.Exchanges, 2)
	assert.Equal(t, report.ReactionRow{
		ID:       "EX_glc_e",
		Flux:     "-10",
		Min:      "-10",
		Max:      "-1",
		Class:    report.Essential,
		Equation: "glucose <--",
		Name:     "EX_glc_e",
	}, ctx.Exchanges[0])

	assert.True(t, ctx.HasEssentialGenes)
	assert.Equal(t, []report.GeneRow{
		{ID: "g1", Essential: "No", Reactions: "GLCt"},
		{ID: "g2", Essential: "No", Reactions: "GLCt"},
		{ID: "g3", Essential: "Yes", Reactions: "BIOMASS"},
		{ID: "g4", Essential: "No", Reactions: "BIOMASS_N"},
	}, ctx.EssentialGenes)

	assert.Equal(t, []report.FluxRow{{NameID: "glucose (glc_e)", Flux: "10"}}, ctx.Uptake)
	assert.Empty(t, ctx.Secretion)
	assert.Equal(t, []report.FluxRow{{NameID: "BIOMASS", Flux: "10"}}, ctx.Objectives)
	assert.False(t, ctx.ATP.Found)
	assert.Contains(t, ctx.ATP.Message, "atp_c")
}

func TestBuildWithoutVariability(t *testing.T) {
	t.Parallel()

	cfg := fvaConfig()
	cfg.FVAMode = config.FVADisabled
	cfg.SingleGeneKnockoutSweep = false
	ctx, err := report.Build(runPipeline(t, cfg, metabolictest.Toy(t)))
	require.NoError(t, err)

	assert.False(t, ctx.HasVariability)
	assert.Empty(t, ctx.Reactions)
	assert.False(t, ctx.HasEssentialGenes)
	assert.NotContains(t, overview(ctx), "Target flux range")

	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf, ctx))
	assert.Contains(t, buf.String(), "Select FVA setting and rerun to produce results.")
	assert.Contains(t, buf.String(), "Select simulate all single KO to produce results.")
}

func TestBuildSurfacesNonOptimalStatus(t *testing.T) {
	t.Parallel()

	cfg := fvaConfig()
	cfg.CustomBounds = []config.CustomBound{{ReactionID: "BIOMASS", Lower: 20, Upper: 1000}}
	in := runPipeline(t, cfg, metabolictest.Toy(t))
	ctx, err := report.Build(in)
	require.NoError(t, err)

	require.Len(t, ctx.Warnings, 2)
	assert.Contains(t, ctx.Warnings[0], `"infeasible"`)
	assert.Equal(t, "infeasible", overview(ctx)["Optimization status"])
	assert.Equal(t, "- (gm/gm CDW hr)", overview(ctx)["Target objective value"])
	assert.Empty(t, ctx.Uptake)

	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, in))
	assert.Contains(t, buf.String(), `class="warning"`)
	assert.Contains(t, buf.String(), "not a valid solution")
}

func TestBuildATPSummary(t *testing.T) {
	t.Parallel()

	m := metabolictest.Toy(t)
	require.NoError(t, m.AddMetabolites(&metabolic.Metabolite{ID: "atp_c", Name: "ATP"}))
	glycolysis, err := metabolic.NewReaction("GLYC", "glycolysis", map[string]float64{"glc_c": -1, "atp_c": 2}, 0, 1000, "")
	require.NoError(t, err)
	maintenance, err := metabolic.NewReaction("ATPM", "maintenance", map[string]float64{"atp_c": -1}, 0, 1000, "")
	require.NoError(t, err)
	require.NoError(t, m.AddReactions(glycolysis, maintenance))

	cfg := config.Default()
	cfg.FBAMode = config.FBAStandard
	cfg.FVAMode = config.FVADisabled
	cfg.TargetReactionID = "ATPM"
	ctx, err := report.Build(runPipeline(t, cfg, m))
	require.NoError(t, err)

	require.True(t, ctx.ATP.Found)
	assert.Equal(t, []report.ATPRow{
		{Side: "PRODUCING", NameID: "glycolysis (GLYC)", Percent: "100.00%", Flux: "20", Equation: "glucose --> 2 ATP"},
		{Side: "CONSUMING", NameID: "maintenance (ATPM)", Percent: "100.00%", Flux: "-20", Equation: "ATP -->"},
	}, ctx.ATP.Rows)
	assert.Equal(t, "20 (mmol/gm CDW hr)", overview(ctx)["Target objective value"])
}

func TestBuildErrors(t *testing.T) {
	t.Parallel()

	_, err := report.Build(report.Input{Model: metabolictest.Toy(t)})
	assert.ErrorIs(t, err, report.ErrMissingResult)
	_, err = report.Build(report.Input{Result: &pipeline.Result{Solution: &metabolic.Solution{}}})
	assert.Error(t, err)
}
