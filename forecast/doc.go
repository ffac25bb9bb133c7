// Package forecast fits a one-step-ahead linear trend to a city's historical
// e-waste measurements.
//
// The fit is an ordinary least-squares regression of the ascending-sorted
// values against their rank (x = 0..n-1). The forecast is the line evaluated
// at x = n, so it predicts the next rank rather than the next year. Callers
// relying on chronological order should keep that in mind.
//
// # Usage
//
//	result, err := forecast.Compute([]float64{120, 135, 150, 160})
//	if err != nil {
//	    // ErrEmptyInput or ErrDegenerateFit
//	}
//	fmt.Printf("next: %.2f (slope %.2f)\n", result.PredictedNext, result.Slope)
//
// # Non-finite results
//
// A zero mean or a zero smallest value makes the percentage metrics
// undefined. Compute does not fail in that case: the affected field holds
// the IEEE result of the division (±Inf or NaN) and Result.Warnings names it.
//
// # Chart series
//
// Result.PredictedSeries returns the sorted values extended by last+(last-first).
// That point is independent of PredictedNext and the two can disagree.
package forecast
