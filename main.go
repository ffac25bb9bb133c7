package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/Mrugank0405/E-waste-Report-Model/dataset"
	"github.com/Mrugank0405/E-waste-Report-Model/forecast"
	"github.com/Mrugank0405/E-waste-Report-Model/report"
	"github.com/Mrugank0405/E-waste-Report-Model/server"
)

func main() {
	cmd, opts, err := ParseCommandLine(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := NewConfig(opts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &app{
		cfg:      cfg,
		log:      newLogger(cfg.LogLevel, os.Stderr),
		out:      os.Stdout,
		reporter: newErrorReporter(cfg.RollbarToken),
	}
	if err := app.run(ctx, cmd); err != nil {
		app.log.WithError(err).Error(cmd + " failed")
		stop()
		os.Exit(1)
	}
}

func newLogger(level logrus.Level, w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	return log
}

type app struct {
	cfg      *Config
	log      logrus.FieldLogger
	out      io.Writer
	reporter ErrorReporter
	now      func() time.Time
}

func (a *app) run(ctx context.Context, cmd string) error {
	switch cmd {
	case "serve":
		return a.serve(ctx)
	case "report":
		return a.report(ctx)
	case "cities":
		return a.cities(ctx)
	default:
		return fmt.Errorf("unknown command %q, expected serve, report or cities", cmd)
	}
}

func (a *app) load(ctx context.Context) (*dataset.Dataset, error) {
	return dataset.Load(ctx, a.cfg.Data,
		dataset.WithFormat(a.cfg.Format),
		dataset.WithLogger(a.log))
}

// serve keeps running on a failed load so the page can show the error.
func (a *app) serve(ctx context.Context) error {
	ds, loadErr := a.load(ctx)
	if loadErr != nil {
		a.log.WithError(loadErr).Error("dataset unavailable, serving without data")
		a.reporter.ReportError(loadErr)
	}

	s, err := server.New(ds, loadErr,
		server.WithLogger(a.log),
		server.WithChartOptions(a.cfg.ChartOptions()...))
	if err != nil {
		return err
	}

	return s.ListenAndServe(ctx, a.cfg.Listen)
}

func (a *app) cities(ctx context.Context) error {
	ds, err := a.load(ctx)
	if err != nil {
		return err
	}
	for _, name := range ds.Cities() {
		fmt.Fprintln(a.out, name)
	}

	return nil
}

func (a *app) report(ctx context.Context) error {
	fmt.Fprintln(a.out, "♻️  E-WASTE FORECAST REPORT")
	ds, err := a.load(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "📊 Data loaded: %d cities from %s\n", ds.Len(), ds.Source())

	rec, err := ds.Lookup(a.cfg.City)
	if err != nil {
		fmt.Fprintln(a.out, report.InvalidSelectionMessage)
		return err
	}
	res, err := forecast.Compute(rec.Values)
	if errors.Is(err, forecast.ErrEmptyInput) {
		fmt.Fprintln(a.out, report.InvalidSelectionMessage)
		return &dataset.InvalidSelectionError{City: a.cfg.City}
	}
	if err != nil {
		return fmt.Errorf("forecast %q: %w", rec.Name, err)
	}
	for _, w := range res.Warnings {
		a.log.WithField("city", rec.Name).WithField("quantity", w.Quantity).Warn("division by zero in forecast")
	}

	fmt.Fprintln(a.out)
	if err := report.Text(a.out, rec.Name, res); err != nil {
		return err
	}
	fmt.Fprintln(a.out)

	if err := os.MkdirAll(a.cfg.OutDir, 0o755); err != nil {
		return err
	}
	stem := filepath.Join(a.cfg.OutDir, report.Slug(rec.Name))

	chartPath := stem + "-chart.png"
	if err := report.SaveChart(chartPath, rec.Name, res, a.cfg.ChartOptions()...); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "📈 Chart saved: %s\n", chartPath)

	xlsxPath := stem + "-forecast.xlsx"
	if err := writeFile(xlsxPath, func(w io.Writer) error {
		return report.WriteWorkbook(w, rec, res)
	}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "📁 Workbook saved: %s\n", xlsxPath)

	now := time.Now
	if a.now != nil {
		now = a.now
	}
	mdPath := stem + "-report.md"
	if err := writeFile(mdPath, func(w io.Writer) error {
		return report.WriteMarkdown(w, rec.Name, res, now())
	}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "📋 Report saved: %s\n", mdPath)
	fmt.Fprintln(a.out, "✅ Done!")

	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
