package regression

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/goecon/timeseries"
)

func TestBreuschGodfreyDetectsAR1Errors(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	n := 300
	x := make([]float64, n)
	y := make([]float64, n)
	e := 0.0
	for i := 0; i < n; i++ {
		x[i] = rng.NormFloat64()
		e = 0.8*e + rng.NormFloat64()
		y[i] = 1 + x[i] + e
	}
	tbl := timeseries.NewTable()
	require.NoError(t, tbl.AddColumn("Y", y))
	require.NoError(t, tbl.AddColumn("X", x))

	m, err := OLS("Y", tbl, []string{"X"})
	require.NoError(t, err)

	bg, err := BreuschGodfrey(m, 2)
	require.NoError(t, err)
	assert.Equal(t, "Breusch-Godfrey", bg.Name)
	assert.Equal(t, 2.0, bg.DF)
	assert.True(t, bg.Rejects(0.05))
}

func TestBreuschGodfreyIndependentErrors(t *testing.T) {
	m, err := OLS("Y", linearTable(t, 200, 21), []string{"X1", "X2"})
	require.NoError(t, err)

	bg, err := BreuschGodfrey(m, 1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, bg.Statistic, 0.0)
	assert.True(t, bg.PValue >= 0 && bg.PValue <= 1)

	_, err = BreuschGodfrey(m, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestHeteroskedasticityTests(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	n := 400
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = float64(i) / float64(n)
		// error scale grows with x and with time
		y[i] = 1 + 2*x[i] + (0.1+3*x[i])*rng.NormFloat64()
	}
	tbl := timeseries.NewTable()
	require.NoError(t, tbl.AddColumn("Y", y))
	require.NoError(t, tbl.AddColumn("X", x))

	m, err := OLS("Y", tbl, []string{"X"})
	require.NoError(t, err)

	bp, err := BreuschPagan(m)
	require.NoError(t, err)
	assert.Equal(t, 1.0, bp.DF)
	assert.True(t, bp.Rejects(0.05))

	gq, err := GoldfeldQuandt(m)
	require.NoError(t, err)
	assert.Greater(t, gq.Statistic, 1.0)
	assert.True(t, gq.Rejects(0.05))
}

func TestVIF(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))
	n := 200
	a := make([]float64, n)
	b := make([]float64, n)
	c := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a[i] = rng.NormFloat64()
		b[i] = a[i] + 0.1*rng.NormFloat64()
		c[i] = rng.NormFloat64()
		y[i] = a[i] + c[i] + rng.NormFloat64()
	}
	tbl := timeseries.NewTable()
	require.NoError(t, tbl.AddColumn("Y", y))
	require.NoError(t, tbl.AddColumn("A", a))
	require.NoError(t, tbl.AddColumn("B", b))
	require.NoError(t, tbl.AddColumn("C", c))

	m, err := OLS("Y", tbl, []string{"A", "B", "C"})
	require.NoError(t, err)

	vif, err := VIF(m)
	require.NoError(t, err)
	require.Len(t, vif, 3)
	assert.Greater(t, vif[0], 10.0)
	assert.Greater(t, vif[1], 10.0)
	assert.Less(t, vif[2], 2.0)

	single, err := OLS("Y", tbl, []string{"C"})
	require.NoError(t, err)
	vif, err = VIF(single)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, vif)
	assert.False(t, math.IsInf(vif[0], 0))
}
