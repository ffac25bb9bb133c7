package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"mime"
	"net/http"
	"net/url"

	"github.com/Mrugank0405/E-waste-Report-Model/dataset"
	"github.com/Mrugank0405/E-waste-Report-Model/forecast"
	"github.com/Mrugank0405/E-waste-Report-Model/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type pageData struct {
	Cities    []string
	Selected  string
	LoadError string
	Message   string
	Summary   *report.Summary
	ChartURL  string
	ExportURL string
}

func (s *Server) basePage() pageData {
	data := pageData{Cities: s.cities()}
	if s.loadErr != nil {
		data.LoadError = s.loadErr.Error()
	}

	return data
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if tag := s.etag(); tag != "" {
		w.Header().Set("ETag", tag)
		if r.Header.Get("If-None-Match") == tag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	s.render(w, http.StatusOK, s.basePage())
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	data := s.basePage()
	data.Selected = city

	_, res, err := s.compute(city)
	var sel *dataset.InvalidSelectionError
	switch {
	case errors.As(err, &sel):
		s.log.WithField("city", city).Info("invalid selection")
		data.Message = report.InvalidSelectionMessage
		s.render(w, http.StatusOK, data)
		return
	case errors.Is(err, forecast.ErrDegenerateFit):
		data.Message = "Not enough data to forecast " + city + ": at least two values are required."
		s.render(w, http.StatusOK, data)
		return
	case err != nil:
		status := statusFor(err)
		data.Message = http.StatusText(status)
		s.render(w, status, data)
		return
	}

	summary := report.Summarize(city, res)
	q := url.Values{"city": {city}}.Encode()
	data.Summary = &summary
	data.ChartURL = "/chart.png?" + q
	data.ExportURL = "/export.xlsx?" + q
	s.render(w, http.StatusOK, data)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	_, res, err := s.compute(city)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	var buf bytes.Buffer
	opts := make([]report.ChartOption, 0, len(s.chartOpts)+1)
	opts = append(opts, s.chartOpts...)
	opts = append(opts, report.WithChartFormat("png"))
	if err := report.WriteChart(&buf, city, res, opts...); err != nil {
		s.log.WithError(err).WithField("city", city).Error("render chart")
		http.Error(w, "could not render chart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	rec, res, err := s.compute(city)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, rec, res); err != nil {
		s.log.WithError(err).WithField("city", city).Error("build workbook")
		http.Error(w, "could not build workbook", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": report.Slug(city) + "-forecast.xlsx",
	}))
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleAPICities(w http.ResponseWriter, _ *http.Request) {
	if s.ds == nil {
		writeJSONError(w, errUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"cities": s.cities()})
}

func (s *Server) handleAPIForecast(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	_, res, err := s.compute(city)
	if err != nil {
		writeJSONError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newForecastResponse(city, res))
}

// jsonFloat encodes non-finite values as null.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}

	return json.Marshal(v)
}

type forecastResponse struct {
	City                     string      `json:"city"`
	SortedValues             []jsonFloat `json:"sortedValues"`
	Slope                    jsonFloat   `json:"slope"`
	Intercept                jsonFloat   `json:"intercept"`
	PredictedNext            jsonFloat   `json:"predictedNext"`
	Mean                     jsonFloat   `json:"mean"`
	PercentChangeFromMean    jsonFloat   `json:"percentChangeFromMean"`
	RequiredCapacityIncrease jsonFloat   `json:"requiredCapacityIncrease"`
	GrowthRatePercent        jsonFloat   `json:"growthRatePercent"`
	RSquared                 jsonFloat   `json:"rSquared"`
	PredictedSeries          []jsonFloat `json:"predictedSeries"`
	Warnings                 []string    `json:"warnings,omitempty"`
}

func newForecastResponse(city string, res *forecast.Result) forecastResponse {
	out := forecastResponse{
		City:                     city,
		SortedValues:             toJSONFloats(res.SortedValues),
		Slope:                    jsonFloat(res.Slope),
		Intercept:                jsonFloat(res.Intercept),
		PredictedNext:            jsonFloat(res.PredictedNext),
		Mean:                     jsonFloat(res.Mean),
		PercentChangeFromMean:    jsonFloat(res.PercentChangeFromMean),
		RequiredCapacityIncrease: jsonFloat(res.RequiredCapacityIncrease),
		GrowthRatePercent:        jsonFloat(res.GrowthRatePercent),
		RSquared:                 jsonFloat(res.RSquared),
		PredictedSeries:          toJSONFloats(res.PredictedSeries()),
	}
	for _, w := range res.Warnings {
		out.Warnings = append(out.Warnings, w.Quantity)
	}

	return out
}

func toJSONFloats(values []float64) []jsonFloat {
	out := make([]jsonFloat, len(values))
	for i, v := range values {
		out[i] = jsonFloat(v)
	}

	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}
