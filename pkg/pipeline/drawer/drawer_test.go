package drawer_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-fba/pkg/metabolic"
	"github.com/askiada/go-fba/pkg/metabolic/metabolictest"
	"github.com/askiada/go-fba/pkg/pipeline/drawer"
	"github.com/askiada/go-fba/pkg/pipeline/measure"
	"github.com/askiada/go-fba/pkg/pipeline/model"
)

func runStages(t *testing.T, opts ...model.PipelineOption) {
	t.Helper()

	stages := []*model.StageInfo{
		{Index: 1, Name: model.StageSolver},
		{Index: 2, Name: model.StagePrimary},
		{Index: 3, Name: model.StageVariability, Skipped: true},
	}
	for _, opt := range opts {
		require.NoError(t, opt.New())
	}
	parent := model.StartStage
	for i, stage := range stages {
		for _, opt := range opts {
			require.NoError(t, opt.PrepareStage(parent, stage))
		}
		for _, opt := range opts {
			require.NoError(t, opt.OnStageDone(stage, time.Duration(i+1)*time.Millisecond, nil))
		}
		parent = stage
	}
	for _, opt := range opts {
		require.NoError(t, opt.Finish())
	}
}

func TestPipelineDrawer(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	m := measure.NewDefaultMeasure()
	runStages(t, measure.PipelineMeasure(m), drawer.PipelineDrawer(drawer.NewDOTDrawer(&buf), m))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "strict digraph {"), out)
	assert.Contains(t, out, `"start" -> "solver selection"`)
	assert.Contains(t, out, `"solver selection" -> "primary optimization"`)
	assert.Contains(t, out, `"primary optimization" -> "variability analysis"`)
	assert.Contains(t, out, `"variability analysis" -> "end"`)
	assert.Contains(t, out, `style="dashed"`)
	assert.Contains(t, out, "skipped")
	// the slowest measured stage is pure red
	assert.Contains(t, strings.ToLower(out), `color="#f00000"`)
}

func TestPipelineDrawerDeterministic(t *testing.T) {
	t.Parallel()

	draw := func() string {
		var buf bytes.Buffer
		runStages(t, drawer.PipelineDrawer(drawer.NewDOTDrawer(&buf), nil, drawer.WithClock(steppingClock(1500*time.Millisecond))))

		return buf.String()
	}
	first := draw()
	assert.Contains(t, first, "1.5s")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, draw())
	}
}

// steppingClock advances by step on every call.
func steppingClock(step time.Duration) func() time.Time {
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	return func() time.Time {
		current = current.Add(step)

		return current
	}
}

func TestDOTDrawerErrors(t *testing.T) {
	t.Parallel()

	d := drawer.NewDOTDrawer(&bytes.Buffer{})
	require.NoError(t, d.AddStage("a"))
	require.NoError(t, d.AddStage("a"))
	assert.Error(t, d.AddLink("a", "missing"))
	assert.Error(t, d.SetLabel("missing", "label"))
	assert.Error(t, d.SetSkipped("missing"))
}

func TestDrawNetwork(t *testing.T) {
	t.Parallel()

	network, err := metabolictest.Toy(t).Network()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = drawer.DrawNetwork(&buf, network, map[string]float64{"EX_glc_e": -10, "GLCt": 5, "BIOMASS": 0})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"`+metabolic.MetaboliteKey("glc_e")+`" -> "`+metabolic.ReactionKey("GLCt")+`"`)
	assert.Contains(t, out, `"`+metabolic.ReactionKey("GLCt")+`" -> "`+metabolic.MetaboliteKey("glc_c")+`"`)
	assert.Contains(t, strings.ToLower(out), `color="#f00000"`)
	assert.Contains(t, strings.ToLower(out), `color="#780078"`)
	assert.Contains(t, out, `color="grey"`)
	assert.Contains(t, out, "-10")

	// edges of an active reaction share its colour, edges of idle ones keep none
	edges := map[string]string{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "->") {
			continue
		}
		edges[line[:strings.Index(line, "[")]] = line
	}
	transport := `"` + metabolic.MetaboliteKey("glc_e") + `" -> "` + metabolic.ReactionKey("GLCt") + `" `
	require.Contains(t, edges, transport)
	assert.Contains(t, strings.ToLower(edges[transport]), `color="#780078"`)
	biomass := `"` + metabolic.MetaboliteKey("glc_c") + `" -> "` + metabolic.ReactionKey("BIOMASS") + `" `
	require.Contains(t, edges, biomass)
	assert.NotContains(t, edges[biomass], "color=")
}
