// Package report renders forecast results as text, charts, workbooks and
// Markdown.
package report

import (
	"fmt"
	"io"

	"github.com/Mrugank0405/E-waste-Report-Model/forecast"
)

// InvalidSelectionMessage is shown instead of results when no valid city was
// chosen.
const InvalidSelectionMessage = "Please select a valid city."

// Summary holds the display strings of a result, numbers already formatted.
type Summary struct {
	City                     string
	SortedValues             string
	Slope                    string
	Intercept                string
	PredictedNext            string
	Mean                     string
	PercentChangeFromMean    string
	RequiredCapacityIncrease string
	GrowthRate               string
	RSquared                 string
	Warnings                 []string
}

// Summarize formats res for display.
func Summarize(city string, res *forecast.Result) Summary {
	s := Summary{
		City:                     city,
		SortedValues:             FormatValues(res.SortedValues),
		Slope:                    FormatFixed(res.Slope),
		Intercept:                FormatFixed(res.Intercept),
		PredictedNext:            FormatFixed(res.PredictedNext),
		Mean:                     FormatFixed(res.Mean),
		PercentChangeFromMean:    FormatPercent(res.PercentChangeFromMean),
		RequiredCapacityIncrease: FormatFixed(res.RequiredCapacityIncrease),
		GrowthRate:               FormatPercent(res.GrowthRatePercent),
		RSquared:                 FormatFixed(res.RSquared),
	}
	for _, w := range res.Warnings {
		s.Warnings = append(s.Warnings, fmt.Sprintf("%s is undefined (division by zero)", w.Quantity))
	}

	return s
}

// Text writes the plain-text results panel.
func Text(w io.Writer, city string, res *forecast.Result) error {
	s := Summarize(city, res)

	_, err := fmt.Fprintf(w, `Results for %s
Sorted Data: %s
Slope (m): %s
Intercept (b): %s
Predicted E-Waste for Next Year: %s

Analysis:
Mean E-Waste (Historical Average): %s
Percentage Change from Mean: %s
Required Capacity Increase: %s kg (This is how much more capacity is needed to handle the predicted e-waste)
Annual Growth Rate: %s (Based on historical data)
`,
		s.City, s.SortedValues, s.Slope, s.Intercept, s.PredictedNext,
		s.Mean, s.PercentChangeFromMean, s.RequiredCapacityIncrease, s.GrowthRate)
	if err != nil {
		return err
	}

	for _, warning := range s.Warnings {
		if _, err := fmt.Fprintf(w, "Warning: %s\n", warning); err != nil {
			return err
		}
	}

	return nil
}
