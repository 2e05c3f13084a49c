package store

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sartorproj/goecon/hellwig"
	"github.com/sartorproj/goecon/pipeline"
	"github.com/sartorproj/goecon/timeseries"
	"github.com/sartorproj/goecon/transform"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:", zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport(t *testing.T) *pipeline.Report {
	t.Helper()
	recipe, err := transform.NewRecipe(
		transform.Entry{Variable: "VOLUME", Order: 0},
		transform.Entry{Variable: "CLOSE", Order: 1},
		transform.Entry{Variable: "RATE", Order: 2},
	)
	require.NoError(t, err)
	return &pipeline.Report{
		Config:    pipeline.DefaultConfig(),
		TrainRows: 120,
		TestRows:  30,
		Recipe:    recipe,
		Ranking: []hellwig.Combination{
			{Predictors: []string{"D2_RATE"}, Capacity: 0.42},
			{Predictors: []string{"VOLUME", "D2_RATE"}, Capacity: 0.40},
		},
		Selected: []string{"D2_RATE"},
		Model:    &pipeline.ModelSummary{Formula: "D_CLOSE = 0.1000 + 0.5000*D2_RATE", RSquared: 0.4},
		Metrics: &pipeline.Metrics{
			N:     30,
			MAE:   0.01,
			RMSE:  0.02,
			MAPE:  pipeline.Float(math.NaN()),
			SMAPE: 12.5,
		},
	}
}

func TestSaveAndList(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	first, err := s.SaveRun(ctx, sampleReport(t))
	require.NoError(t, err)

	noEval := sampleReport(t)
	noEval.Metrics = nil
	second, err := s.SaveRun(ctx, noEval)
	require.NoError(t, err)
	assert.Greater(t, second, first)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, second, runs[0].ID)
	assert.True(t, math.IsNaN(runs[0].RMSE))

	got := runs[1]
	assert.Equal(t, first, got.ID)
	assert.Equal(t, fixed, got.CreatedAt)
	assert.Equal(t, "D_CLOSE", got.Target)
	assert.Equal(t, []string{"D2_RATE"}, got.Selected)
	assert.InDelta(t, 0.4, got.RSquared, 1e-12)
	assert.InDelta(t, 0.02, got.RMSE, 1e-12)
}

func TestLoadReport(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	want := sampleReport(t)

	id, err := s.SaveRun(ctx, want)
	require.NoError(t, err)

	got, err := s.LoadReport(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, want.Selected, got.Selected)
	assert.Equal(t, want.Ranking, got.Ranking)
	assert.Equal(t, want.Recipe.Entries(), got.Recipe.Entries())
	assert.Equal(t, want.Model.Formula, got.Model.Formula)
	assert.True(t, math.IsNaN(float64(got.Metrics.MAPE)))

	_, err = s.LoadReport(ctx, id+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadRecipeReplays(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	report := sampleReport(t)

	id, err := s.SaveRun(ctx, report)
	require.NoError(t, err)

	recipe, err := s.LoadRecipe(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, report.Recipe.Entries(), recipe.Entries())

	table := timeseries.NewTable()
	require.NoError(t, table.AddColumn("VOLUME", []float64{5, 6, 7, 8, 9}))
	require.NoError(t, table.AddColumn("CLOSE", []float64{1, 2, 4, 7, 11}))
	require.NoError(t, table.AddColumn("RATE", []float64{1, 4, 9, 16, 25}))

	out := recipe.Apply(table)
	assert.Equal(t, []string{"VOLUME", "D_CLOSE", "D2_RATE"}, out.Names())
	rate, _ := out.Column("D2_RATE")
	assert.Equal(t, []float64{2, 2, 2}, rate)

	_, err = s.LoadRecipe(ctx, id+1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRun(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	id, err := s.SaveRun(ctx, sampleReport(t))
	require.NoError(t, err)
	require.NoError(t, s.DeleteRun(ctx, id))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)

	_, err = s.LoadRecipe(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteRun(ctx, id), ErrNotFound)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	s, err := Open(ctx, path, nil)
	require.NoError(t, err)
	id, err := s.SaveRun(ctx, sampleReport(t))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	runs, err := reopened.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
}
