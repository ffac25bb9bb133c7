// Package server exposes the forecast over HTTP: a selection page, the
// results panel with its chart, a workbook download and a small JSON API.
package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/sirupsen/logrus"

	"github.com/Mrugank0405/E-waste-Report-Model/dataset"
	"github.com/Mrugank0405/E-waste-Report-Model/forecast"
	"github.com/Mrugank0405/E-waste-Report-Model/internal/options"
	"github.com/Mrugank0405/E-waste-Report-Model/report"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

// errUnavailable is returned by every computation while no dataset is loaded.
var errUnavailable = errors.New("server: dataset not loaded")

// Server serves one loaded dataset. A Server built from a failed load keeps
// running with an empty selection and answers 503 to computations.
type Server struct {
	ds        *dataset.Dataset
	loadErr   error
	log       logrus.FieldLogger
	chartOpts []report.ChartOption
}

// Option configures a Server.
type Option = options.Option[*Server]

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return options.NoError(func(s *Server) {
		s.log = log
	})
}

// WithChartOptions sets the options used to render chart images.
func WithChartOptions(opts ...report.ChartOption) Option {
	return options.NoError(func(s *Server) {
		s.chartOpts = append(s.chartOpts, opts...)
	})
}

// New builds a Server from the outcome of dataset.Load. Exactly one of ds and
// loadErr is expected to be non-nil.
func New(ds *dataset.Dataset, loadErr error, opts ...Option) (*Server, error) {
	if ds == nil && loadErr == nil {
		return nil, errors.New("server: either a dataset or a load error is required")
	}

	s := &Server{
		ds:      ds,
		loadErr: loadErr,
		log:     logrus.StandardLogger(),
	}
	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}
	if loadErr != nil {
		s.ds = nil
	}

	return s, nil
}

// Handler returns the routed, compressed and logged HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /forecast", s.handleForecast)
	mux.HandleFunc("GET /chart.png", s.handleChart)
	mux.HandleFunc("GET /export.xlsx", s.handleExport)
	mux.HandleFunc("GET /api/cities", s.handleAPICities)
	mux.HandleFunc("GET /api/forecast", s.handleAPIForecast)

	return s.logRequests(gzhttp.GzipHandler(mux))
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errc

		return nil
	}
}

// compute resolves city and runs the forecast. A record without values is
// reported as an invalid selection.
func (s *Server) compute(city string) (dataset.Record, *forecast.Result, error) {
	if s.ds == nil {
		return dataset.Record{}, nil, errUnavailable
	}

	rec, err := s.ds.Lookup(city)
	if err != nil {
		return rec, nil, err
	}

	res, err := forecast.Compute(rec.Values)
	if errors.Is(err, forecast.ErrEmptyInput) {
		return rec, nil, &dataset.InvalidSelectionError{City: city}
	}
	if err != nil {
		return rec, nil, fmt.Errorf("forecast %q: %w", city, err)
	}

	log := s.log.WithField("city", city)
	for _, w := range res.Warnings {
		log.WithField("quantity", w.Quantity).Warn("division by zero in forecast")
	}
	log.WithField("predicted", res.PredictedNext).Debug("forecast computed")

	return rec, res, nil
}

func statusFor(err error) int {
	var sel *dataset.InvalidSelectionError
	switch {
	case errors.As(err, &sel):
		return http.StatusNotFound
	case errors.Is(err, forecast.ErrDegenerateFit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) cities() []string {
	if s.ds == nil {
		return nil
	}

	return s.ds.Cities()
}

func (s *Server) etag() string {
	if s.ds == nil || s.ds.Fingerprint() == 0 {
		return ""
	}

	return fmt.Sprintf(`"%016x"`, s.ds.Fingerprint())
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		s.log.WithError(err).Error("render page")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Info("request")
	})
}
