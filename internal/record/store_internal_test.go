package record

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)

		return clock
	}

	return s
}

func sample(outputID string) *Record {
	return &Record{
		Workspace:  "ws",
		OutputID:   outputID,
		ModelID:    "toy",
		MediaID:    "glc",
		Status:     "optimal",
		Objective:  10,
		ReportName: NewReportName(),
		Payload: Payload{
			FBAMode:        "pFBA",
			FVAMode:        "FVA",
			ReactionIDs:    []string{"EX_glc_e", "BIOMASS"},
			Fluxes:         []float64{-10, 10},
			VariabilityIDs: []string{"EX_glc_e", "BIOMASS"},
			Minimum:        []float64{-10, 1},
			Maximum:        []float64{-1, math.NaN()},
			EssentialGenes: []string{"g3"},
		},
	}
}

func TestStoreSaveGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	rec := sample("out")
	require.NoError(t, s.Save(ctx, rec))
	assert.NotEmpty(t, rec.ID)

	got, err := s.Get(ctx, "ws", "out")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.CreatedAt, got.CreatedAt)
	assert.Equal(t, 10.0, got.Objective)
	assert.Equal(t, rec.ReportName, got.ReportName)
	assert.Equal(t, rec.Payload.Fluxes, got.Payload.Fluxes)
	assert.Equal(t, rec.Payload.EssentialGenes, got.Payload.EssentialGenes)
	assert.True(t, math.IsNaN(got.Payload.Maximum[1]))
	flux, ok := got.Flux("BIOMASS")
	assert.True(t, ok)
	assert.Equal(t, 10.0, flux)
}

func TestStoreSaveReplaces(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	first := sample("out")
	require.NoError(t, s.Save(ctx, first))

	second := sample("out")
	second.Status = "infeasible"
	second.Objective = math.NaN()
	require.NoError(t, s.Save(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	got, err := s.Get(ctx, "ws", "out")
	require.NoError(t, err)
	assert.Equal(t, "infeasible", got.Status)
	assert.True(t, math.IsNaN(got.Objective))

	all, err := s.List(ctx, "ws")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStoreList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, s.Save(ctx, sample(id)))
	}
	other := sample("x")
	other.Workspace = "other"
	require.NoError(t, s.Save(ctx, other))

	all, err := s.List(ctx, "ws")
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, rec := range all {
		ids = append(ids, rec.OutputID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)

	none, err := s.List(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStoreErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Get(ctx, "ws", "missing")
	assert.True(t, errors.Is(err, ErrRecordNotFound))

	err = s.Save(ctx, &Record{Workspace: "ws"})
	assert.ErrorIs(t, err, ErrMissingOutput)
}
