package pipeline_test

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-fba/pkg/metabolic"
	"github.com/askiada/go-fba/pkg/metabolic/metabolictest"
	"github.com/askiada/go-fba/pkg/metabolic/solver"
	"github.com/askiada/go-fba/pkg/pipeline"
	"github.com/askiada/go-fba/pkg/pipeline/config"
	"github.com/askiada/go-fba/pkg/pipeline/drawer"
	"github.com/askiada/go-fba/pkg/pipeline/measure"
	"github.com/askiada/go-fba/pkg/pipeline/model"
)

const delta = 1e-6

var glucose = &metabolic.Media{ID: "glc", Name: "glucose"}

func standardConfig() config.PipelineConfig {
	cfg := config.Default()
	cfg.FBAMode = config.FBAStandard
	cfg.FVAMode = config.FVADisabled
	cfg.TargetReactionID = "BIOMASS"

	return cfg
}

func quietLogger() logrus.FieldLogger {
	logger, _ := logtest.NewNullLogger()

	return logger
}

func run(t *testing.T, cfg config.PipelineConfig, m *metabolic.Model, media *metabolic.Media, opts ...pipeline.Option) *pipeline.Result {
	t.Helper()

	pipe, err := pipeline.New(cfg, append([]pipeline.Option{pipeline.WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)
	res, err := pipe.Run(context.Background(), m, media)
	require.NoError(t, err)

	return res
}

func bounds(m *metabolic.Model) map[string][2]float64 {
	out := map[string][2]float64{}
	for _, r := range m.Reactions() {
		lower, upper := r.Bounds()
		out[r.ID] = [2]float64{lower, upper}
	}

	return out
}

func TestRunStandardFBA(t *testing.T) {
	t.Parallel()

	res := run(t, standardConfig(), metabolictest.Toy(t), glucose)
	require.NotNil(t, res.Solution)
	assert.Equal(t, solver.Optimal, res.Status())
	assert.True(t, res.Optimal())
	assert.InDelta(t, 10, res.Solution.ObjectiveValue, delta)
	assert.Equal(t, []string{"EX_glc_e", "GLCt", "BIOMASS"}, res.Solution.ReactionIDs)
	assert.Nil(t, res.Variability)
	assert.Empty(t, res.EssentialGenes)
	assert.NotNil(t, res.EssentialGenes)

	assert.Equal(t, solver.DefaultBackend, res.Applied.Solver)
	assert.Equal(t, config.FBAStandard, res.Applied.FBAMode)
	assert.Equal(t, config.FVADisabled, res.Applied.FVAMode)
	assert.Equal(t, []string{"BIOMASS"}, res.Applied.ObjectiveIDs)
	assert.Equal(t, solver.Maximize, res.Applied.ObjectiveSense)

	require.Len(t, res.Timings, len(model.StageNames))
	for i, timing := range res.Timings {
		assert.Equal(t, model.StageNames[i], timing.Name)
	}
	assert.True(t, res.Timings[1].Skipped)
	assert.True(t, res.Timings[8].Skipped)
	assert.True(t, res.Timings[9].Skipped)
}

func TestRunModes(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		fba       config.FBAMode
		fva       config.FVAMode
		fraction  float64
		objective float64
	}{
		"pfba":              {fba: config.FBAParsimonious, fva: config.FVADisabled, fraction: 1, objective: 10},
		"pfba half optimum": {fba: config.FBAParsimonious, fva: config.FVADisabled, fraction: 0.5, objective: 5},
		"loopless":          {fba: config.FBALoopless, fva: config.FVADisabled, fraction: 1, objective: 10},
		"standard with fva": {fba: config.FBAStandard, fva: config.FVAStandard, fraction: 1, objective: 10},
		"loopless fva":      {fba: config.FBAStandard, fva: config.FVALoopless, fraction: 1, objective: 10},
		"pfba with fva":     {fba: config.FBAParsimonious, fva: config.FVAStandard, fraction: 1, objective: 10},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := standardConfig()
			cfg.FBAMode = tc.fba
			cfg.FVAMode = tc.fva
			cfg.FractionOfOptimumPrimary = tc.fraction
			cfg.FractionOfOptimumFVA = 0.1

			res := run(t, cfg, metabolictest.WithLoop(t, metabolictest.Toy(t)), glucose)
			require.True(t, res.Optimal())
			assert.InDelta(t, tc.objective, res.Solution.ObjectiveValue, delta)
			if tc.fba != config.FBAStandard {
				assert.InDelta(t, 0, res.Solution.FluxMap()["LOOP_AB"], delta)
			}

			if tc.fva == config.FVADisabled {
				assert.Nil(t, res.Variability)

				return
			}
			require.NotNil(t, res.Variability)
			minimum, maximum, ok := res.Variability.Range("BIOMASS")
			require.True(t, ok)
			assert.InDelta(t, 1, minimum, delta)
			assert.InDelta(t, 10, maximum, delta)
			_, loopMax, ok := res.Variability.Range("LOOP_AB")
			require.True(t, ok)
			if tc.fva == config.FVALoopless {
				assert.InDelta(t, 0, loopMax, delta)
			} else {
				assert.InDelta(t, 1000, loopMax, delta)
			}
		})
	}
}

func TestRunAllReversible(t *testing.T) {
	t.Parallel()

	cfg := standardConfig()
	cfg.AllReversible = true
	m := metabolictest.Toy(t)
	res := run(t, cfg, m, glucose)

	for id, b := range bounds(m) {
		assert.Equal(t, [2]float64{-1000, 1000}, b, id)
	}
	assert.InDelta(t, 1000, res.Solution.ObjectiveValue, delta)
	assert.True(t, res.Applied.AllReversible)
}

func TestRunCustomBoundsWinOverReversibility(t *testing.T) {
	t.Parallel()

	cfg := standardConfig()
	cfg.AllReversible = true
	cfg.CustomBounds = []config.CustomBound{{ReactionID: "EX_glc_e", Lower: -4, Upper: 0}}
	m := metabolictest.Toy(t)
	res := run(t, cfg, m, glucose)

	assert.Equal(t, [2]float64{-4, 0}, bounds(m)["EX_glc_e"])
	assert.Equal(t, [2]float64{-1000, 1000}, bounds(m)["GLCt"])
	assert.InDelta(t, 4, res.Solution.ObjectiveValue, delta)
	assert.Equal(t, 1, res.Applied.CustomBounds)
}

func TestRunUnknownIDsAreIgnored(t *testing.T) {
	t.Parallel()

	clean := metabolictest.Toy(t)
	want := run(t, standardConfig(), clean, glucose)

	cfg := standardConfig()
	cfg.CustomBounds = []config.CustomBound{{ReactionID: "NOPE", Lower: -1, Upper: 1}}
	cfg.ReactionKnockoutIDs = []string{"NOPE"}
	cfg.GeneKnockoutIDs = []string{"gX"}

	logger, hook := logtest.NewNullLogger()
	m := metabolictest.Toy(t)
	got := run(t, cfg, m, glucose, pipeline.WithLogger(logger))

	assert.Equal(t, want.Solution.Fluxes, got.Solution.Fluxes)
	assert.Equal(t, bounds(clean), bounds(m))
	assert.Zero(t, got.Applied.CustomBounds)
	assert.Empty(t, got.Applied.GeneKnockouts)
	assert.Empty(t, got.Applied.ReactionKOs)

	var warnings int
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 3, warnings)
}

func TestRunKnockouts(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		genes     []string
		reactions []string
		knocked   []string
		objective float64
	}{
		"isozyme":          {genes: []string{"g1"}, objective: 10},
		"both isozymes":    {genes: []string{"g1", "g2"}, knocked: []string{"GLCt"}, objective: 0},
		"biomass gene":     {genes: []string{"g3", "gX"}, knocked: []string{"BIOMASS"}, objective: 0},
		"reaction":         {reactions: []string{"GLCt"}, objective: 0},
		"unknown reaction": {reactions: []string{"R_missing"}, objective: 10},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := standardConfig()
			cfg.GeneKnockoutIDs = tc.genes
			cfg.ReactionKnockoutIDs = tc.reactions
			m := metabolictest.Toy(t)
			res := run(t, cfg, m, glucose)

			require.True(t, res.Optimal())
			assert.InDelta(t, tc.objective, res.Solution.ObjectiveValue, delta)
			assert.Equal(t, tc.knocked, res.Applied.KnockedOut)
			for _, id := range append(append([]string{}, tc.knocked...), res.Applied.ReactionKOs...) {
				assert.Equal(t, [2]float64{0, 0}, bounds(m)[id], id)
			}
		})
	}
}

func TestRunUptake(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		media      *metabolic.Media
		defaultMax float64
		caps       map[config.Element]float64
		objective  float64
		uptakeIDs  []string
	}{
		"medium bounds kept":        {media: glucose, objective: 10},
		"default raises uptake":     {media: glucose, defaultMax: 20, objective: 20},
		"complete media":            {media: &metabolic.Media{ID: "c", Name: metabolic.CompleteMedia}, objective: 100},
		"carbon cap":                {media: glucose, defaultMax: 20, caps: map[config.Element]float64{config.Carbon: 60}, objective: 10, uptakeIDs: []string{"uptake_C"}},
		"nitrogen cap without atom": {media: glucose, caps: map[config.Element]float64{config.Nitrogen: 0}, objective: 10, uptakeIDs: []string{"uptake_N"}},
		"oxygen cap blocks uptake":  {media: glucose, caps: map[config.Element]float64{config.Oxygen: 0}, objective: 0, uptakeIDs: []string{"uptake_O"}},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := standardConfig()
			cfg.DefaultMaxUptake = tc.defaultMax
			for e, v := range tc.caps {
				cfg.MaxUptakeByElement[e] = v
			}
			m := metabolictest.Toy(t)
			res := run(t, cfg, m, tc.media)

			require.True(t, res.Optimal())
			assert.InDelta(t, tc.objective, res.Solution.ObjectiveValue, delta)
			assert.Equal(t, tc.uptakeIDs, res.Applied.UptakeIDs)
			assert.Equal(t, len(tc.uptakeIDs), m.NumConstraints())
			assert.Equal(t, tc.defaultMax, cfg.DefaultMaxUptake)
		})
	}
}

func TestRunSparseUptakeAddsNoConstraint(t *testing.T) {
	t.Parallel()

	m := metabolictest.WithNitrogen(t, metabolictest.Toy(t))
	before := m.NumConstraints()
	cfg := standardConfig()
	cfg.DefaultMaxUptake = 50
	res := run(t, cfg, m, glucose)

	assert.Equal(t, before, m.NumConstraints())
	assert.Empty(t, res.Applied.UptakeIDs)
	assert.Equal(t, []string{"EX_glc_e", "EX_nh4_e"}, res.Applied.UptakeReactions)
}

func TestRunCompleteMediaDoesNotLeak(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(standardConfig(), pipeline.WithLogger(quietLogger()))
	require.NoError(t, err)
	res, err := pipe.Run(context.Background(), metabolictest.Toy(t), &metabolic.Media{ID: "c", Name: metabolic.CompleteMedia})
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Applied.DefaultMaxUptake)

	res, err = pipe.Run(context.Background(), metabolictest.Toy(t), glucose)
	require.NoError(t, err)
	assert.Zero(t, res.Applied.DefaultMaxUptake)
	assert.InDelta(t, 10, res.Solution.ObjectiveValue, delta)
	assert.Zero(t, pipe.Config().DefaultMaxUptake)
}

func TestRunMinimizeObjective(t *testing.T) {
	t.Parallel()

	cfg := standardConfig()
	cfg.MinimizeObjective = true
	cfg.TargetReactionID = "EX_glc_e"
	res := run(t, cfg, metabolictest.Toy(t), glucose)

	require.True(t, res.Optimal())
	assert.InDelta(t, -10, res.Solution.ObjectiveValue, delta)
	assert.Equal(t, solver.Minimize, res.Applied.ObjectiveSense)
}

func TestRunKeepsExistingObjective(t *testing.T) {
	t.Parallel()

	cfg := standardConfig()
	cfg.TargetReactionID = ""
	res := run(t, cfg, metabolictest.Toy(t), glucose)
	assert.Equal(t, []string{"BIOMASS"}, res.Applied.ObjectiveIDs)
	assert.InDelta(t, 10, res.Solution.ObjectiveValue, delta)
}

func TestRunInfeasiblePrimaryIsAResult(t *testing.T) {
	t.Parallel()

	cfg := standardConfig()
	cfg.FVAMode = config.FVAStandard
	cfg.SingleGeneKnockoutSweep = true
	cfg.CustomBounds = []config.CustomBound{{ReactionID: "BIOMASS", Lower: 20, Upper: 1000}}
	res := run(t, cfg, metabolictest.Toy(t), glucose)

	assert.Equal(t, solver.Infeasible, res.Status())
	assert.False(t, res.Optimal())
	assert.True(t, math.IsNaN(res.Solution.ObjectiveValue))
	require.NotNil(t, res.Variability)
	assert.Equal(t, solver.Infeasible, res.Variability.Status)
	assert.Empty(t, res.EssentialGenes)
}

func TestRunEssentialGenes(t *testing.T) {
	t.Parallel()

	cfg := standardConfig()
	cfg.SingleGeneKnockoutSweep = true
	cfg.GeneKnockoutIDs = []string{"g1"}
	m := metabolictest.WithNitrogen(t, metabolictest.Toy(t))
	res := run(t, cfg, m, glucose)

	assert.Equal(t, []string{"g2", "g3"}, res.EssentialGenes)
	gene, err := m.Gene("g1")
	require.NoError(t, err)
	assert.False(t, gene.Functional())
	for _, id := range []string{"g2", "g3", "g4"} {
		gene, err := m.Gene(id)
		require.NoError(t, err)
		assert.True(t, gene.Functional(), id)
	}
	assert.Equal(t, [2]float64{0, 1000}, bounds(m)["GLCt"])
	assert.Equal(t, [2]float64{0, 1000}, bounds(m)["BIOMASS"])
}

func TestRunIsDeterministic(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.FVAMode = config.FVALoopless
	cfg.SingleGeneKnockoutSweep = true
	cfg.TargetReactionID = "BIOMASS"

	first := run(t, cfg, metabolictest.WithLoop(t, metabolictest.Toy(t)), glucose)
	for i := 0; i < 3; i++ {
		again := run(t, cfg, metabolictest.WithLoop(t, metabolictest.Toy(t)), glucose)
		assert.Equal(t, first.Solution, again.Solution)
		assert.Equal(t, first.Variability, again.Variability)
		assert.Equal(t, first.EssentialGenes, again.EssentialGenes)
	}
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		mutate func(cfg *config.PipelineConfig)
		stage  string
		is     error
		model  bool
	}{
		"missing target": {
			mutate: func(cfg *config.PipelineConfig) { cfg.TargetReactionID = "NOPE" },
			stage:  model.StageObjective,
			is:     metabolic.ErrReactionNotFound,
			model:  true,
		},
		"inverted custom bound": {
			mutate: func(cfg *config.PipelineConfig) {
				cfg.CustomBounds = []config.CustomBound{{ReactionID: "GLCt", Lower: 5, Upper: 1}}
			},
			stage: model.StageCustomBounds,
			is:    metabolic.ErrInvalidBounds,
			model: true,
		},
		"unknown solver": {
			mutate: func(cfg *config.PipelineConfig) { cfg.Solver = "cplex" },
			stage:  model.StageSolver,
			is:     solver.ErrUnknownBackend,
		},
		"unknown fba mode": {
			mutate: func(cfg *config.PipelineConfig) { cfg.FBAMode = "MOMA" },
			stage:  model.StagePrimary,
			is:     pipeline.ErrUnknownFBAMode,
		},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := standardConfig()
			tc.mutate(&cfg)
			pipe, err := pipeline.New(cfg, pipeline.WithLogger(quietLogger()))
			require.NoError(t, err)

			res, err := pipe.Run(context.Background(), metabolictest.Toy(t), glucose)
			assert.Nil(t, res)
			var stageErr *pipeline.StageError
			require.True(t, errors.As(err, &stageErr), "got %v", err)
			assert.Equal(t, tc.stage, stageErr.Stage)
			assert.True(t, errors.Is(err, tc.is), "got %v", err)
			var inconsistency *metabolic.ModelInconsistencyError
			assert.Equal(t, tc.model, errors.As(err, &inconsistency))
		})
	}
}

func TestRunArguments(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(standardConfig(), pipeline.WithLogger(quietLogger()))
	require.NoError(t, err)

	_, err = pipe.Run(context.Background(), nil, glucose)
	assert.ErrorIs(t, err, pipeline.ErrModelMustBeSet)
	_, err = pipe.Run(context.Background(), metabolictest.Toy(t), nil)
	assert.ErrorIs(t, err, pipeline.ErrMediaMustBeSet)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := metabolictest.Toy(t)
	_, err = pipe.Run(ctx, m, glucose)
	assert.ErrorIs(t, err, context.Canceled)
}

type failingHook struct {
	model.PipelineOption
	failNew bool
}

func (h failingHook) New() error {
	if h.failNew {
		return assert.AnError
	}

	return nil
}

func (h failingHook) PrepareStage(_, _ *model.StageInfo) error {
	return assert.AnError
}

func TestRunHookErrors(t *testing.T) {
	t.Parallel()

	_, err := pipeline.New(standardConfig(), pipeline.WithHooks(failingHook{failNew: true}))
	assert.ErrorIs(t, err, assert.AnError)

	pipe, err := pipeline.New(standardConfig(), pipeline.WithHooks(failingHook{}), pipeline.WithLogger(quietLogger()))
	require.NoError(t, err)
	_, err = pipe.Run(context.Background(), metabolictest.Toy(t), glucose)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRunHooks(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	msr := measure.NewDefaultMeasure()
	cfg := standardConfig()
	cfg.SingleGeneKnockoutSweep = true

	run(t, cfg, metabolictest.Toy(t), glucose, pipeline.WithHooks(
		measure.PipelineMeasure(msr),
		drawer.PipelineDrawer(drawer.NewDOTDrawer(&buf), msr),
	))

	assert.Equal(t, append([]string{"start", "end"}, model.StageNames...), msr.Names())
	assert.True(t, msr.GetMetric(model.StageVariability).Skipped())
	assert.Equal(t, int64(1), msr.GetMetric(model.StageEssentiality).Runs())
	assert.Equal(t, int64(1), msr.GetMetric("end").Runs())

	out := buf.String()
	assert.Contains(t, out, `"start" -> "solver selection"`)
	assert.Contains(t, out, `"essentiality sweep" -> "result assembly"`)
	assert.Contains(t, out, `"result assembly" -> "end"`)
}
