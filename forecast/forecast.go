package forecast

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptyInput is returned when there are no values to fit.
	ErrEmptyInput = errors.New("forecast: no values to fit")
	// ErrDegenerateFit is returned when the regression denominator is zero,
	// which only happens for fewer than two values.
	ErrDegenerateFit = errors.New("forecast: regression undefined for fewer than two values")
)

// Quantity names for DivisionByZeroWarning.
const (
	QuantityPercentChange = "percent change from mean"
	QuantityGrowthRate    = "growth rate"
)

// DivisionByZeroWarning reports a metric whose denominator was zero. The
// metric keeps its non-finite value.
type DivisionByZeroWarning struct {
	Quantity string
}

func (w DivisionByZeroWarning) Error() string {
	return fmt.Sprintf("forecast: %s is undefined (division by zero)", w.Quantity)
}

// Result is the outcome of a single forecast computation.
type Result struct {
	// SortedValues holds the input values in ascending order.
	SortedValues []float64
	// Slope and Intercept describe y = Slope*rank + Intercept.
	Slope     float64
	Intercept float64
	// PredictedNext is the fitted line at rank n.
	PredictedNext float64
	// Mean is the arithmetic mean of the values.
	Mean float64
	// PercentChangeFromMean is (PredictedNext-Mean)/Mean*100.
	PercentChangeFromMean float64
	// RequiredCapacityIncrease is PredictedNext minus the largest value.
	RequiredCapacityIncrease float64
	// GrowthRatePercent is (largest-smallest)/smallest*100.
	GrowthRatePercent float64
	// RSquared is the coefficient of determination of the rank regression.
	// NaN when all values are equal.
	RSquared float64
	// Warnings lists the metrics that could not be computed finitely.
	Warnings []DivisionByZeroWarning
}

// Compute runs the forecast over values. The input slice is not modified.
//
// Returns:
//   - *Result: the fitted trend and derived metrics
//   - error: ErrEmptyInput for no values, ErrDegenerateFit for a single value
func Compute(values []float64) (*Result, error) {
	n := len(values)
	if n == 0 {
		return nil, ErrEmptyInput
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	x := ranks(n)
	slope, intercept, err := leastSquares(x, sorted)
	if err != nil {
		return nil, err
	}

	nf := float64(n)
	sumY := floats.Sum(sorted)
	predicted := slope*nf + intercept
	mean := sumY / nf

	res := &Result{
		SortedValues:             sorted,
		Slope:                    slope,
		Intercept:                intercept,
		PredictedNext:            predicted,
		Mean:                     mean,
		RequiredCapacityIncrease: predicted - floats.Max(sorted),
		RSquared:                 stat.RSquared(x, sorted, nil, intercept, slope),
	}

	res.PercentChangeFromMean = (predicted - mean) / mean * 100
	if mean == 0 {
		res.Warnings = append(res.Warnings, DivisionByZeroWarning{Quantity: QuantityPercentChange})
	}

	first, last := sorted[0], sorted[n-1]
	res.GrowthRatePercent = (last - first) / first * 100
	if first == 0 {
		res.Warnings = append(res.Warnings, DivisionByZeroWarning{Quantity: QuantityGrowthRate})
	}

	return res, nil
}

// PredictedSeries returns the sorted values followed by one extrapolated
// point, last + (last - first), for charting.
func (r *Result) PredictedSeries() []float64 {
	n := len(r.SortedValues)
	if n == 0 {
		return nil
	}

	out := make([]float64, n, n+1)
	copy(out, r.SortedValues)
	first, last := r.SortedValues[0], r.SortedValues[n-1]

	return append(out, last+(last-first))
}

// HasWarning reports whether quantity was flagged as a division by zero.
func (r *Result) HasWarning(quantity string) bool {
	for _, w := range r.Warnings {
		if w.Quantity == quantity {
			return true
		}
	}

	return false
}

// Residuals returns y_i - (Slope*i + Intercept) over the sorted values.
func (r *Result) Residuals() []float64 {
	out := make([]float64, len(r.SortedValues))
	for i, y := range r.SortedValues {
		out[i] = y - (r.Slope*float64(i) + r.Intercept)
	}

	return out
}

func ranks(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}

	return x
}

// leastSquares fits y = slope*x + intercept with the closed-form sums.
func leastSquares(x, y []float64) (slope, intercept float64, err error) {
	n := float64(len(x))
	sumX := floats.Sum(x)
	sumY := floats.Sum(y)
	sumXY := floats.Dot(x, y)
	sumX2 := floats.Dot(x, x)

	den := n*sumX2 - sumX*sumX
	if den == 0 || math.IsNaN(den) {
		return 0, 0, ErrDegenerateFit
	}

	slope = (n*sumXY - sumX*sumY) / den
	intercept = (sumY - slope*sumX) / n

	return slope, intercept, nil
}
