package transform

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sartorproj/goecon/timeseries"
)

type checkerFunc func([]float64) bool

func (f checkerFunc) IsStationary(v []float64) bool { return f(v) }

// passAtOrder passes a series of n observations once it has been
// differenced exactly d times.
func passAtOrder(n, d int) checkerFunc {
	return func(v []float64) bool { return len(v) == n-d }
}

// answers replies to successive calls with the given verdicts.
func answers(verdicts ...bool) checkerFunc {
	i := 0
	return func([]float64) bool {
		v := verdicts[i]
		i++
		return v
	}
}

func never() checkerFunc {
	return func([]float64) bool { return false }
}

func sampleTable(t *testing.T, n int, seed uint64) *timeseries.Table {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed*3+1))
	walk := make([]float64, n)
	noise := make([]float64, n)
	curve := make([]float64, n)
	for i := 0; i < n; i++ {
		noise[i] = rng.NormFloat64()
		if i > 0 {
			walk[i] = walk[i-1] + rng.NormFloat64()
			curve[i] = curve[i-1] + walk[i]
		}
	}
	tbl := timeseries.NewTable()
	require.NoError(t, tbl.AddColumn("NOISE", noise))
	require.NoError(t, tbl.AddColumn("WALK", walk))
	require.NoError(t, tbl.AddColumn("CURVE", curve))
	return tbl
}

func TestMakeStationarySecondOrder(t *testing.T) {
	tbl := sampleTable(t, 100, 1)

	out, recipe, err := MakeStationary(tbl, []string{"CURVE"}, 3, WithTester(passAtOrder(100, 2)))
	require.NoError(t, err)

	e, ok := recipe.Lookup("CURVE")
	require.True(t, ok)
	assert.Equal(t, 2, e.Order)
	assert.Equal(t, "D2_CURVE", e.Output)

	assert.Equal(t, []string{"NOISE", "WALK", "D2_CURVE"}, out.Names())
	assert.Equal(t, 98, out.Len())
}

func TestMakeStationaryFirstFit(t *testing.T) {
	tbl := sampleTable(t, 60, 2)

	// Both orders 1 and 2 would pass; the first one wins.
	passAny := checkerFunc(func(v []float64) bool { return len(v) < 60 })
	out, recipe, err := MakeStationary(tbl, []string{"WALK"}, 2, WithTester(passAny))
	require.NoError(t, err)

	e, _ := recipe.Lookup("WALK")
	assert.Equal(t, 1, e.Order)
	assert.Equal(t, "D_WALK", e.Output)
	assert.True(t, out.Has("D_WALK"))
}

func TestMakeStationaryForcedFallback(t *testing.T) {
	tbl := sampleTable(t, 50, 3)
	core, logs := observer.New(zapcore.InfoLevel)

	out, recipe, err := MakeStationary(tbl, []string{"WALK", "CURVE"}, 3,
		WithTester(never()), WithLogger(zap.New(core)))
	require.NoError(t, err)

	for _, name := range []string{"WALK", "CURVE"} {
		e, ok := recipe.Lookup(name)
		require.True(t, ok)
		assert.Equal(t, 3, e.Order)
		assert.Equal(t, "D3_"+name, e.Output)
	}
	assert.Equal(t, 47, out.Len())
	assert.Equal(t, 2, logs.FilterMessage("no differencing order passed, using maximum").Len())
}

func TestMakeStationaryUnchangedColumnsAreIdentical(t *testing.T) {
	tbl := sampleTable(t, 80, 4)

	out, recipe, err := MakeStationary(tbl, []string{"CURVE"}, 2, WithTester(never()))
	require.NoError(t, err)

	for _, name := range []string{"NOISE", "WALK"} {
		e, _ := recipe.Lookup(name)
		assert.Equal(t, 0, e.Order)
		assert.Equal(t, name, e.Output)

		in, _ := tbl.Column(name)
		got, ok := out.Column(name)
		require.True(t, ok)
		offset := len(in) - len(got)
		for i, v := range got {
			if math.Float64bits(v) != math.Float64bits(in[i+offset]) {
				t.Fatalf("%s row %d: %v != %v", name, i, v, in[i+offset])
			}
		}
	}
}

func TestMakeStationaryNoMissingValues(t *testing.T) {
	tbl := sampleTable(t, 40, 5)
	noise, _ := tbl.Column("NOISE")
	noise[20] = math.NaN()

	out, _, err := MakeStationary(tbl, []string{"WALK", "CURVE"}, 2, WithTester(passAtOrder(40, 1)))
	require.NoError(t, err)

	for _, name := range out.Names() {
		col, _ := out.Column(name)
		for i, v := range col {
			assert.False(t, math.IsNaN(v), "%s row %d", name, i)
		}
	}
	assert.Equal(t, 38, out.Len(), "the leading row and the NaN row are dropped")
}

func TestMakeStationaryRecipeCoversEveryColumn(t *testing.T) {
	tbl := sampleTable(t, 30, 6)

	_, recipe, err := MakeStationary(tbl, []string{"WALK", "WALK"}, 1, WithTester(never()))
	require.NoError(t, err)
	assert.Equal(t, 3, recipe.Len())
	assert.Equal(t, []string{"NOISE", "CURVE", "D_WALK"}, recipe.Outputs())
}

func TestMakeStationaryErrors(t *testing.T) {
	tbl := sampleTable(t, 30, 7)

	_, _, err := MakeStationary(tbl, []string{"WALK"}, 0)
	assert.True(t, errors.Is(err, ErrInvalidOrder))

	_, _, err = MakeStationary(tbl, []string{"MISSING"}, 2)
	assert.True(t, errors.Is(err, timeseries.ErrUnknownColumn))

	clash := timeseries.NewTable()
	require.NoError(t, clash.AddColumn("X", make([]float64, 5)))
	require.NoError(t, clash.AddColumn("D_X", make([]float64, 5)))
	_, _, err = MakeStationary(clash, []string{"X"}, 1, WithTester(never()))
	assert.True(t, errors.Is(err, ErrInvalidRecipe))
}

func TestMakeStationaryWithDefaultTester(t *testing.T) {
	found := 0
	for seed := uint64(0); seed < 20; seed++ {
		tbl := sampleTable(t, 200, 100+seed)
		_, recipe, err := MakeStationary(tbl, []string{"WALK"}, 2)
		require.NoError(t, err)
		if e, _ := recipe.Lookup("WALK"); e.Order == 1 {
			found++
		}
	}
	assert.GreaterOrEqual(t, found, 15, "random walk needed one difference in %d/20 runs", found)
}
