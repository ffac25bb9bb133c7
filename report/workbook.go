package report

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/Mrugank0405/E-waste-Report-Model/dataset"
	"github.com/Mrugank0405/E-waste-Report-Model/forecast"
)

// Workbook sheet names.
const (
	SheetForecast = "Forecast"
	SheetSeries   = "Series"
	SheetSource   = "Source"
)

// NewWorkbook builds an Excel workbook with the forecast summary, the charted
// series with a native line chart, and the record as loaded.
func NewWorkbook(rec dataset.Record, res *forecast.Result) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), SheetForecast); err != nil {
		f.Close()
		return nil, err
	}
	for _, build := range []func(*excelize.File) error{
		func(f *excelize.File) error { return writeForecastSheet(f, rec.Name, res) },
		func(f *excelize.File) error { return writeSeriesSheet(f, rec.Name, res) },
		func(f *excelize.File) error { return writeSourceSheet(f, rec) },
	} {
		if err := build(f); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	return f, nil
}

// WriteWorkbook writes the workbook for rec to w.
func WriteWorkbook(w io.Writer, rec dataset.Record, res *forecast.Result) error {
	f, err := NewWorkbook(rec, res)
	if err != nil {
		return fmt.Errorf("report: build workbook: %w", err)
	}
	defer f.Close()

	return f.Write(w)
}

func writeForecastSheet(f *excelize.File, city string, res *forecast.Result) error {
	rows := []struct {
		label string
		value float64
	}{
		{"Slope (m)", res.Slope},
		{"Intercept (b)", res.Intercept},
		{"Predicted E-Waste for Next Year", res.PredictedNext},
		{"Mean E-Waste (Historical Average)", res.Mean},
		{"Percentage Change from Mean (%)", res.PercentChangeFromMean},
		{"Required Capacity Increase (kg)", res.RequiredCapacityIncrease},
		{"Annual Growth Rate (%)", res.GrowthRatePercent},
		{"R²", res.RSquared},
	}

	cells := map[string]any{
		"A1": "E-WASTE FORECAST",
		"A2": "City",
		"B2": city,
		"A3": "Sorted Data",
		"B3": FormatValues(res.SortedValues),
	}
	for i, row := range rows {
		r := i + 4
		cells[fmt.Sprintf("A%d", r)] = row.label
		// Excel cannot store Inf/NaN.
		if math.IsNaN(row.value) || math.IsInf(row.value, 0) {
			cells[fmt.Sprintf("B%d", r)] = NotAvailable
		} else {
			cells[fmt.Sprintf("B%d", r)] = row.value
		}
	}
	for cell, value := range cells {
		if err := f.SetCellValue(SheetForecast, cell, value); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return err
	}
	last := fmt.Sprintf("B%d", len(rows)+3)
	if err := f.SetCellStyle(SheetForecast, "B4", last, style); err != nil {
		return err
	}

	return f.SetColWidth(SheetForecast, "A", "B", 36)
}

func writeSeriesSheet(f *excelize.File, city string, res *forecast.Result) error {
	if _, err := f.NewSheet(SheetSeries); err != nil {
		return err
	}

	headers := []any{"Rank", HistoricalSeries, PredictedSeries}
	if err := f.SetSheetRow(SheetSeries, "A1", &headers); err != nil {
		return err
	}

	predicted := res.PredictedSeries()
	for i, v := range predicted {
		r := i + 2
		cells := map[string]any{
			fmt.Sprintf("A%d", r): i,
			fmt.Sprintf("C%d", r): v,
		}
		if i < len(res.SortedValues) {
			cells[fmt.Sprintf("B%d", r)] = res.SortedValues[i]
		}
		for cell, value := range cells {
			if err := f.SetCellValue(SheetSeries, cell, value); err != nil {
				return err
			}
		}
	}
	if err := f.SetColWidth(SheetSeries, "B", "C", 24); err != nil {
		return err
	}

	lastRow := len(predicted) + 1
	categories := fmt.Sprintf("%s!$A$2:$A$%d", SheetSeries, lastRow)

	return f.AddChart(SheetSeries, "E2", &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{
			{
				Name:       fmt.Sprintf("%s!$B$1", SheetSeries),
				Categories: categories,
				Values:     fmt.Sprintf("%s!$B$2:$B$%d", SheetSeries, lastRow-1),
			},
			{
				Name:       fmt.Sprintf("%s!$C$1", SheetSeries),
				Categories: categories,
				Values:     fmt.Sprintf("%s!$C$2:$C$%d", SheetSeries, lastRow),
			},
		},
		Title:  []excelize.RichTextRun{{Text: "E-Waste Forecast: " + city}},
		Legend: excelize.ChartLegend{Position: "top"},
		XAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Years"}}},
		YAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "E-Waste Generation (kg)"}}},
	})
}

func writeSourceSheet(f *excelize.File, rec dataset.Record) error {
	if _, err := f.NewSheet(SheetSource); err != nil {
		return err
	}

	headers := []any{"Period", "Value"}
	if err := f.SetSheetRow(SheetSource, "A1", &headers); err != nil {
		return err
	}
	for i, v := range rec.Values {
		label := ""
		if i < len(rec.Labels) {
			label = rec.Labels[i]
		}
		row := []any{label, v}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSource, cell, &row); err != nil {
			return err
		}
	}

	return nil
}
