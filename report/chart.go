package report

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Mrugank0405/E-waste-Report-Model/forecast"
	"github.com/Mrugank0405/E-waste-Report-Model/internal/options"
)

// Series names as they appear in the chart legend and the workbook.
const (
	HistoricalSeries = "Historical E-Waste Data"
	PredictedSeries  = "Predicted E-Waste Data"
)

var (
	historicalColor = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	predictedColor  = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// ChartConfig sets the rendered image size and format.
type ChartConfig struct {
	Width  vg.Length
	Height vg.Length
	Format string
}

// ChartOption configures chart rendering.
type ChartOption = options.Option[*ChartConfig]

// DefaultChartConfig returns a 10x5 inch PNG.
func DefaultChartConfig() *ChartConfig {
	return &ChartConfig{
		Width:  10 * vg.Inch,
		Height: 5 * vg.Inch,
		Format: "png",
	}
}

// WithChartSize sets the image size.
func WithChartSize(width, height vg.Length) ChartOption {
	return options.New(func(c *ChartConfig) error {
		if width <= 0 || height <= 0 {
			return fmt.Errorf("report: invalid chart size %vx%v", width, height)
		}
		c.Width, c.Height = width, height

		return nil
	})
}

// WithChartFormat sets the image format (png, svg, pdf, ...).
func WithChartFormat(format string) ChartOption {
	return options.NoError(func(c *ChartConfig) {
		c.Format = format
	})
}

// Chart builds a line plot of the sorted history (x = 0..n-1) and the
// predicted series (x = 0..n).
func Chart(city string, res *forecast.Result) (*plot.Plot, error) {
	n := len(res.SortedValues)
	if n == 0 {
		return nil, errors.New("report: nothing to chart")
	}

	p := plot.New()
	p.Title.Text = "E-Waste Forecast: " + city
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Years"
	p.Y.Label.Text = "E-Waste Generation (kg)"

	historical := make(plotter.XYs, n)
	for i, v := range res.SortedValues {
		historical[i].X = float64(i)
		historical[i].Y = v
	}
	predictedValues := res.PredictedSeries()
	predicted := make(plotter.XYs, len(predictedValues))
	for i, v := range predictedValues {
		predicted[i].X = float64(i)
		predicted[i].Y = v
	}

	histLine, err := plotter.NewLine(historical)
	if err != nil {
		return nil, fmt.Errorf("report: historical series: %w", err)
	}
	histLine.Color = historicalColor
	histLine.Width = vg.Points(2)

	predLine, err := plotter.NewLine(predicted)
	if err != nil {
		return nil, fmt.Errorf("report: predicted series: %w", err)
	}
	predLine.Color = predictedColor
	predLine.Width = vg.Points(2)
	predLine.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}

	p.Add(plotter.NewGrid())
	p.Add(predLine, histLine)
	p.Legend.Add(HistoricalSeries, histLine)
	p.Legend.Add(PredictedSeries, predLine)
	p.Legend.Top = true

	labels := make([]string, len(predicted))
	for i := range labels {
		labels[i] = strconv.Itoa(i)
	}
	p.NominalX(labels...)

	return p, nil
}

// WriteChart renders the chart for city to w.
func WriteChart(w io.Writer, city string, res *forecast.Result, opts ...ChartOption) error {
	cfg := DefaultChartConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return err
	}

	p, err := Chart(city, res)
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(cfg.Width, cfg.Height, cfg.Format)
	if err != nil {
		return fmt.Errorf("report: render chart: %w", err)
	}
	_, err = wt.WriteTo(w)

	return err
}

// SaveChart writes the chart to a file; the format follows the extension.
func SaveChart(path, city string, res *forecast.Result, opts ...ChartOption) error {
	cfg := DefaultChartConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return err
	}

	p, err := Chart(city, res)
	if err != nil {
		return err
	}

	return p.Save(cfg.Width, cfg.Height, path)
}
