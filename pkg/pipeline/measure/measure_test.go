package measure_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-fba/pkg/pipeline/measure"
	"github.com/askiada/go-fba/pkg/pipeline/model"
)

func TestDefaultMeasure(t *testing.T) {
	t.Parallel()

	m := measure.NewDefaultMeasure()
	first := m.AddMetric("b")
	m.AddMetric("a")
	assert.Same(t, first, m.AddMetric("b"))
	assert.Equal(t, []string{"b", "a"}, m.Names())
	assert.Len(t, m.AllMetrics(), 2)
	assert.Nil(t, m.GetMetric("missing"))
}

func TestDefaultMetric(t *testing.T) {
	t.Parallel()

	mt := measure.NewDefaultMeasure().AddMetric("stage")
	assert.Zero(t, mt.AVGDuration())

	mt.AddDuration(2 * time.Millisecond)
	mt.AddDuration(4 * time.Millisecond)
	assert.Equal(t, int64(2), mt.Runs())
	assert.Equal(t, 6*time.Millisecond, mt.TotalDuration())
	assert.Equal(t, 3*time.Millisecond, mt.AVGDuration())

	assert.NoError(t, mt.Err())
	mt.SetFailed(assert.AnError)
	assert.ErrorIs(t, mt.Err(), assert.AnError)

	assert.False(t, mt.Skipped())
	mt.SetSkipped()
	assert.True(t, mt.Skipped())
}

func TestRound(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in, want time.Duration
	}{
		"nanoseconds":  {in: 1234, want: 1234},
		"milliseconds": {in: 1234567, want: 1235 * time.Microsecond},
		"seconds":      {in: 1234567890, want: 1235 * time.Millisecond},
		"hours":        {in: 2*time.Hour + 20*time.Second, want: 2 * time.Hour},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, measure.Round(tc.in))
		})
	}
}

func TestPipelineMeasure(t *testing.T) {
	t.Parallel()

	m := measure.NewDefaultMeasure()
	opt := measure.PipelineMeasure(m)
	require.NoError(t, opt.New())

	solverStage := &model.StageInfo{Index: 1, Name: model.StageSolver}
	fvaStage := &model.StageInfo{Index: 9, Name: model.StageVariability, Skipped: true}
	primaryStage := &model.StageInfo{Index: 8, Name: model.StagePrimary}

	require.NoError(t, opt.PrepareStage(model.StartStage, solverStage))
	require.NoError(t, opt.OnStageDone(solverStage, time.Millisecond, nil))
	require.NoError(t, opt.PrepareStage(solverStage, primaryStage))
	require.NoError(t, opt.OnStageDone(primaryStage, time.Second, assert.AnError))
	require.NoError(t, opt.PrepareStage(primaryStage, fvaStage))
	require.NoError(t, opt.OnStageDone(fvaStage, 0, nil))
	require.NoError(t, opt.Finish())

	assert.Equal(t, []string{"start", "end", model.StageSolver, model.StagePrimary, model.StageVariability}, m.Names())
	assert.Equal(t, time.Millisecond, m.GetMetric(model.StageSolver).TotalDuration())
	assert.ErrorIs(t, m.GetMetric(model.StagePrimary).Err(), assert.AnError)
	assert.True(t, m.GetMetric(model.StageVariability).Skipped())
	assert.Zero(t, m.GetMetric(model.StageVariability).Runs())
	assert.Equal(t, int64(1), m.GetMetric("end").Runs())
}
