package forecast

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func TestCompute_AlreadySorted(t *testing.T) {
	res, err := Compute([]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 2, 3, 4, 5}, res.SortedValues)
	assert.InDelta(t, 1.0, res.Slope, tolerance)
	assert.InDelta(t, 1.0, res.Intercept, tolerance)
	assert.InDelta(t, 6.0, res.PredictedNext, tolerance)
	assert.InDelta(t, 3.0, res.Mean, tolerance)
	assert.InDelta(t, 100.0, res.PercentChangeFromMean, tolerance)
	assert.InDelta(t, 1.0, res.RequiredCapacityIncrease, tolerance)
	assert.InDelta(t, 400.0, res.GrowthRatePercent, tolerance)
	assert.InDelta(t, 1.0, res.RSquared, tolerance)
	assert.Empty(t, res.Warnings)
}

func TestCompute_FitsRankNotChronology(t *testing.T) {
	// Same multiset in a different order must give the same fit.
	a, err := Compute([]float64{50, 10, 40, 20, 30})
	require.NoError(t, err)
	b, err := Compute([]float64{10, 20, 30, 40, 50})
	require.NoError(t, err)

	assert.Equal(t, b.SortedValues, a.SortedValues)
	assert.Equal(t, b.Slope, a.Slope)
	assert.Equal(t, b.Intercept, a.Intercept)
	assert.InDelta(t, 60.0, a.PredictedNext, tolerance)
}

func TestCompute_SortedIsPermutation(t *testing.T) {
	inputs := [][]float64{
		{3},
		{3, 1},
		{5, -2, 7.5, 0, 7.5, 1e6},
		{-1, -1, -1},
		{12.25, 8.5, 99.75, 42, 42.5, 0.125, 17},
	}

	for _, in := range inputs {
		orig := slices.Clone(in)
		res, err := Compute(in)
		if len(in) < 2 {
			require.ErrorIs(t, err, ErrDegenerateFit)
			continue
		}
		require.NoError(t, err)

		assert.Equal(t, orig, in, "input must not be mutated")
		require.Len(t, res.SortedValues, len(in))
		assert.True(t, slices.IsSorted(res.SortedValues))

		want := slices.Clone(in)
		slices.Sort(want)
		assert.Equal(t, want, res.SortedValues)
	}
}

func TestCompute_ResidualsSumToZero(t *testing.T) {
	inputs := [][]float64{
		{1, 2},
		{4.2, 1.1, 9.8, 3.3},
		{120, 135, 150, 160, 171, 190, 240},
		{0.001, 1000, 3, 77},
	}

	for _, in := range inputs {
		res, err := Compute(in)
		require.NoError(t, err)

		sum := 0.0
		for _, r := range res.Residuals() {
			sum += r
		}
		assert.InDelta(t, 0.0, sum, 1e-6, "residuals of %v", in)
	}
}

func TestCompute_Errors(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   error
	}{
		{"nil", nil, ErrEmptyInput},
		{"empty", []float64{}, ErrEmptyInput},
		{"single", []float64{10}, ErrDegenerateFit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compute(tt.values)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, res)
		})
	}
}

func TestCompute_DivisionByZeroWarnings(t *testing.T) {
	t.Run("zero smallest value", func(t *testing.T) {
		res, err := Compute([]float64{10, 0, 5})
		require.NoError(t, err)

		assert.True(t, math.IsInf(res.GrowthRatePercent, 1))
		assert.True(t, res.HasWarning(QuantityGrowthRate))
		assert.False(t, res.HasWarning(QuantityPercentChange))
		assert.InDelta(t, 5.0, res.Mean, tolerance)
		assert.InDelta(t, 15.0, res.PredictedNext, tolerance)
	})

	t.Run("zero mean", func(t *testing.T) {
		res, err := Compute([]float64{-5, 5})
		require.NoError(t, err)

		assert.True(t, math.IsInf(res.PercentChangeFromMean, 1))
		assert.True(t, res.HasWarning(QuantityPercentChange))
		assert.False(t, res.HasWarning(QuantityGrowthRate))
	})

	t.Run("all zero", func(t *testing.T) {
		res, err := Compute([]float64{0, 0, 0})
		require.NoError(t, err)

		assert.True(t, math.IsNaN(res.PercentChangeFromMean))
		assert.True(t, math.IsNaN(res.GrowthRatePercent))
		assert.Len(t, res.Warnings, 2)
		assert.Contains(t, res.Warnings[0].Error(), "division by zero")
	})
}

func TestCompute_Idempotent(t *testing.T) {
	in := []float64{17.3, 2.9, 44.1, 8.8, 8.8, 31.4}

	a, err := Compute(in)
	require.NoError(t, err)
	b, err := Compute(in)
	require.NoError(t, err)

	assert.Equal(t, math.Float64bits(a.Slope), math.Float64bits(b.Slope))
	assert.Equal(t, math.Float64bits(a.Intercept), math.Float64bits(b.Intercept))
	assert.Equal(t, math.Float64bits(a.PredictedNext), math.Float64bits(b.PredictedNext))
	assert.Equal(t, math.Float64bits(a.PercentChangeFromMean), math.Float64bits(b.PercentChangeFromMean))
	assert.Equal(t, math.Float64bits(a.GrowthRatePercent), math.Float64bits(b.GrowthRatePercent))
	assert.Equal(t, a, b)
}

func TestPredictedSeries(t *testing.T) {
	res, err := Compute([]float64{30, 10, 20, 60})
	require.NoError(t, err)

	series := res.PredictedSeries()
	require.Len(t, series, len(res.SortedValues)+1)
	assert.Equal(t, res.SortedValues, series[:len(res.SortedValues)])
	assert.Equal(t, 110.0, series[len(series)-1])

	// The chart point and the regression forecast are independent.
	assert.NotEqual(t, res.PredictedNext, series[len(series)-1])

	// Extending must not alias the sorted values.
	series[0] = -1
	assert.Equal(t, 10.0, res.SortedValues[0])
}

func TestPredictedSeries_Empty(t *testing.T) {
	r := &Result{}
	assert.Nil(t, r.PredictedSeries())
}
