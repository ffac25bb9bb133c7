package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Mrugank0405/E-waste-Report-Model/forecast"
)

// WriteMarkdown writes a Markdown forecast report for city.
func WriteMarkdown(w io.Writer, city string, res *forecast.Result, generatedAt time.Time) error {
	s := Summarize(city, res)

	var b strings.Builder
	fmt.Fprintf(&b, "# E-WASTE FORECAST REPORT\n## %s\n\n", s.City)

	b.WriteString("### 📊 REGRESSION\n\n")
	fmt.Fprintf(&b, "- **Sorted Data**: %s\n", s.SortedValues)
	fmt.Fprintf(&b, "- **Observations**: %d\n", len(res.SortedValues))
	fmt.Fprintf(&b, "- **Slope (m)**: %s\n", s.Slope)
	fmt.Fprintf(&b, "- **Intercept (b)**: %s\n", s.Intercept)
	fmt.Fprintf(&b, "- **R²**: %s\n", s.RSquared)
	fmt.Fprintf(&b, "- **Predicted E-Waste for Next Year**: %s kg (%s)\n", s.PredictedNext, formatNumber(res.PredictedNext))

	b.WriteString("\n### 📈 ANALYSIS\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Mean E-Waste (Historical Average) | %s |\n", s.Mean)
	fmt.Fprintf(&b, "| Percentage Change from Mean | %s |\n", s.PercentChangeFromMean)
	fmt.Fprintf(&b, "| Required Capacity Increase | %s kg |\n", s.RequiredCapacityIncrease)
	fmt.Fprintf(&b, "| Annual Growth Rate | %s |\n", s.GrowthRate)

	b.WriteString("\n### 📉 CHART SERIES\n\n")
	b.WriteString("| Year | Historical | Predicted |\n")
	b.WriteString("|------|------------|-----------|\n")
	for i, v := range res.PredictedSeries() {
		hist := "-"
		if i < len(res.SortedValues) {
			hist = FormatFixed(res.SortedValues[i])
		}
		fmt.Fprintf(&b, "| %d | %s | %s |\n", i, hist, FormatFixed(v))
	}

	if len(s.Warnings) > 0 {
		b.WriteString("\n### ⚠️ WARNINGS\n\n")
		for _, warning := range s.Warnings {
			fmt.Fprintf(&b, "- %s\n", warning)
		}
	}

	b.WriteString("\n---\n")
	fmt.Fprintf(&b, "*Generated by E-Waste Report Model - %s*\n", generatedAt.Format("2 January 2006"))

	_, err := io.WriteString(w, b.String())

	return err
}
