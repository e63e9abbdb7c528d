package restserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/remoteclimate/internal/constants"
	"github.com/chrissnell/remoteclimate/internal/log"
	"github.com/chrissnell/remoteclimate/internal/report"
	"github.com/chrissnell/remoteclimate/internal/storage"
	"github.com/chrissnell/remoteclimate/internal/types"
	"github.com/chrissnell/remoteclimate/pkg/co2"
	"github.com/chrissnell/remoteclimate/pkg/responseformat"
	"github.com/gorilla/mux"
	"gorm.io/gorm/logger"
)

// Handlers holds the HTTP handlers behind the API routes.
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers binds a handler set to its controller.
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// requireSeries returns the current CO2 series, writing a 503 response when
// no fetch has succeeded yet
func (h *Handlers) requireSeries(w http.ResponseWriter, req *http.Request) *co2.Series {
	series := h.controller.store.Series()
	if series == nil || series.Len() == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		h.formatter.WriteResponse(w, req, map[string]string{
			"error":   "CO2 dataset not loaded",
			"message": "CO2 data is not available until the first fetch from NOAA completes",
		}, nil)
		return nil
	}
	return series
}

// resolveLocation picks the location to query: the location parameter when
// given, otherwise the first enabled location from the configuration. An
// empty return means the response has already been written.
func (h *Handlers) resolveLocation(w http.ResponseWriter, req *http.Request) string {
	locationName := req.URL.Query().Get("location")
	if locationName != "" {
		if !h.controller.validateLocationExists(locationName) {
			http.Error(w, "location not found", http.StatusNotFound)
			return ""
		}
		return locationName
	}

	locationName = h.controller.defaultLocation()
	if locationName == "" {
		w.WriteHeader(http.StatusServiceUnavailable)
		h.formatter.WriteResponse(w, req, map[string]string{
			"error":   "No locations configured",
			"message": "Weather data is not available until at least one location is configured",
		}, nil)
		return ""
	}
	return locationName
}

// intQueryParam parses an optional integer query parameter, returning the
// fallback when the parameter is absent.
func intQueryParam(req *http.Request, name string, fallback int) (int, error) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

// GetCO2Summary handles requests for the headline CO2 statistics
func (h *Handlers) GetCO2Summary(w http.ResponseWriter, req *http.Request) {
	series := h.requireSeries(w, req)
	if series == nil {
		return
	}

	first, _ := series.First()
	latest, _ := series.Last()
	summary := CO2SummaryData{
		Records:       series.Len(),
		First:         first,
		Latest:        latest,
		TotalTrend:    series.TotalTrend(),
		TrailingTrend: series.TrailingTrend(10),
		FitRate:       series.FitRate(10),
		Milestones:    series.Crossings(co2.DefaultMilestones),
	}

	// The feed only changes monthly, so the summary can be cached briefly
	headers := map[string]string{
		"Cache-Control": "max-age=300",
	}
	if err := h.formatter.WriteResponse(w, req, summary, headers); err != nil {
		log.Error("error encoding CO2 summary:", err)
	}
}

// GetCO2Yearly handles requests for yearly mean CO2 concentrations
func (h *Handlers) GetCO2Yearly(w http.ResponseWriter, req *http.Request) {
	series := h.requireSeries(w, req)
	if series == nil {
		return
	}

	startYear, err := intQueryParam(req, "start", 0)
	if err != nil {
		http.Error(w, "error: invalid start year", http.StatusBadRequest)
		return
	}
	endYear, err := intQueryParam(req, "end", 0)
	if err != nil {
		http.Error(w, "error: invalid end year", http.StatusBadRequest)
		return
	}

	means := series.YearlyMeans(startYear, endYear)
	if err := h.formatter.WriteResponse(w, req, means, nil); err != nil {
		log.Error("error encoding yearly means:", err)
	}
}

// GetCO2Recent handles requests for the most recent months of CO2 data
func (h *Handlers) GetCO2Recent(w http.ResponseWriter, req *http.Request) {
	series := h.requireSeries(w, req)
	if series == nil {
		return
	}

	months, err := intQueryParam(req, "months", 12)
	if err != nil || months < 1 {
		http.Error(w, "error: invalid months", http.StatusBadRequest)
		return
	}

	records := series.Recent(months)
	recent := make([]CO2MonthData, 0, len(records))
	for _, r := range records {
		recent = append(recent, CO2MonthData{Record: r, Interpolated: r.Interpolated()})
	}

	if err := h.formatter.WriteResponse(w, req, recent, nil); err != nil {
		log.Error("error encoding recent records:", err)
	}
}

// GetCO2Trend handles requests for the growth trend over a trailing window
// of years, e.g. /api/co2/trend/10y
func (h *Handlers) GetCO2Trend(w http.ResponseWriter, req *http.Request) {
	series := h.requireSeries(w, req)
	if series == nil {
		return
	}

	vars := mux.Vars(req)
	windowYears, err := strconv.Atoi(strings.TrimSuffix(vars["window"], "y"))
	if err != nil || windowYears < 1 {
		log.Errorf("rejecting trend window %q", vars["window"])
		http.Error(w, "error: invalid trend window", http.StatusBadRequest)
		return
	}

	trend := CO2TrendData{
		WindowYears: windowYears,
		Trend:       series.TrailingTrend(windowYears),
		FitRate:     series.FitRate(windowYears),
	}
	if err := h.formatter.WriteResponse(w, req, trend, nil); err != nil {
		log.Error("error encoding trend:", err)
	}
}

// GetCO2Milestones handles requests for milestone threshold crossings. The
// thresholds parameter overrides the default 350/400/420 ppm set.
func (h *Handlers) GetCO2Milestones(w http.ResponseWriter, req *http.Request) {
	series := h.requireSeries(w, req)
	if series == nil {
		return
	}

	thresholds := co2.DefaultMilestones
	if raw := req.URL.Query().Get("thresholds"); raw != "" {
		thresholds = nil
		for _, field := range strings.Split(raw, ",") {
			threshold, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				http.Error(w, "error: invalid thresholds", http.StatusBadRequest)
				return
			}
			thresholds = append(thresholds, threshold)
		}
	}

	crossings := series.Crossings(thresholds)
	if err := h.formatter.WriteResponse(w, req, crossings, nil); err != nil {
		log.Error("error encoding milestones:", err)
	}
}

// GetCO2Records handles date searches against the series: all months of a
// year, or a single month when both parameters are given
func (h *Handlers) GetCO2Records(w http.ResponseWriter, req *http.Request) {
	series := h.requireSeries(w, req)
	if series == nil {
		return
	}

	if req.URL.Query().Get("year") == "" {
		http.Error(w, "year parameter is required", http.StatusBadRequest)
		return
	}
	year, err := intQueryParam(req, "year", 0)
	if err != nil {
		http.Error(w, "error: invalid year", http.StatusBadRequest)
		return
	}
	month, err := intQueryParam(req, "month", 0)
	if err != nil || month < 0 || month > 12 {
		http.Error(w, "error: invalid month", http.StatusBadRequest)
		return
	}

	if month != 0 {
		record, ok := series.Month(year, month)
		if !ok {
			http.Error(w, "no records found", http.StatusNotFound)
			return
		}
		monthData := CO2MonthData{Record: record, Interpolated: record.Interpolated()}
		if err := h.formatter.WriteResponse(w, req, monthData, nil); err != nil {
			log.Error("error encoding record:", err)
		}
		return
	}

	records := series.Year(year)
	if len(records) == 0 {
		http.Error(w, "no records found", http.StatusNotFound)
		return
	}
	yearData := make([]CO2MonthData, 0, len(records))
	for _, r := range records {
		yearData = append(yearData, CO2MonthData{Record: r, Interpolated: r.Interpolated()})
	}
	if err := h.formatter.WriteResponse(w, req, yearData, nil); err != nil {
		log.Error("error encoding records:", err)
	}
}

// GetCO2Report serves the plain-text summary report
func (h *Handlers) GetCO2Report(w http.ResponseWriter, req *http.Request) {
	series := h.requireSeries(w, req)
	if series == nil {
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := report.CO2Summary(w, series); err != nil {
		log.Error("error rendering CO2 report:", err)
	}
}

// GetWeatherSpan serves stored observations covering a trailing window,
// e.g. /api/weather/span/24h.
func (h *Handlers) GetWeatherSpan(w http.ResponseWriter, req *http.Request) {
	if !h.controller.DBEnabled {
		http.Error(w, "weather storage is not configured", http.StatusInternalServerError)
		return
	}

	// The RC-Debug header switches on SQL logging for this handler
	if req.Header.Get("RC-Debug") == "1" {
		h.controller.DB.Logger = h.controller.DB.Logger.LogMode(logger.Info)
	} else {
		h.controller.DB.Logger = h.controller.DB.Logger.LogMode(logger.Warn)
	}

	locationName := h.resolveLocation(w, req)
	if locationName == "" {
		return
	}

	vars := mux.Vars(req)
	span, err := time.ParseDuration(vars["span"])
	if err != nil {
		log.Errorf("rejecting span %q: %v", vars["span"], err)
		http.Error(w, "error: invalid span", http.StatusBadRequest)
		return
	}

	fetched, err := h.controller.fetchWeatherSpan(locationName, span)
	if err != nil {
		if errors.Is(err, ErrSpanTooLong) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Errorf("weather span query failed: %v", err)
		http.Error(w, "error querying observations", http.StatusInternalServerError)
		return
	}

	headers := map[string]string{
		"Access-Control-Allow-Origin": "*",
		"Cache-Control":               fmt.Sprintf("max-age=%d", spanCacheAge(fetched)),
	}
	if err := h.formatter.WriteResponse(w, req, h.transformSpanObservations(fetched), headers); err != nil {
		log.Error("error encoding weather span observations:", err)
	}
}

// spanCacheAge derives a Cache-Control lifetime from the bucket width of the
// result, so a cached response expires just before the next bucket lands.
func spanCacheAge(observations []types.BucketObservation) int {
	const fallback = 60
	if len(observations) < 2 {
		return fallback
	}
	width := observations[1].Bucket.Sub(observations[0].Bucket)
	if secs := int(width.Seconds()) - 1; secs > 0 {
		return secs
	}
	return fallback
}

// GetWeatherLatest serves the newest stored observation for a location.
func (h *Handlers) GetWeatherLatest(w http.ResponseWriter, req *http.Request) {
	if !h.controller.DBEnabled {
		http.Error(w, "weather storage is not configured", http.StatusInternalServerError)
		return
	}

	locationName := h.resolveLocation(w, req)
	if locationName == "" {
		return
	}

	fetched, err := h.controller.fetchLatestObservation(locationName)
	if err != nil {
		// A location with no rows yet is not a database error
		if errors.Is(err, ErrNoObservationsFound) {
			log.Warnf("no observations yet for location %s", locationName)
			http.Error(w, "no observations found", http.StatusNotFound)
			return
		}
		log.Errorf("latest observation query failed: %v", err)
		http.Error(w, "error querying observations", http.StatusInternalServerError)
		return
	}

	headers := map[string]string{
		"Access-Control-Allow-Origin": "*",
		"Cache-Control":               "no-cache, no-store, must-revalidate",
	}
	if err := h.formatter.WriteResponse(w, req, h.transformLatestObservation(fetched), headers); err != nil {
		log.Error("error encoding latest weather observation:", err)
	}
}

// GetStatus handles requests for daemon status: version, dataset state, and
// storage backend health. It works before the first CO2 fetch completes.
func (h *Handlers) GetStatus(w http.ResponseWriter, req *http.Request) {
	status := StatusData{
		Version: constants.Version,
		Dataset: h.controller.store.Status(),
		Storage: storage.GlobalHealthManager.GetAllHealth(),
	}

	if err := h.formatter.WriteResponse(w, req, status, nil); err != nil {
		log.Error("error encoding status:", err)
	}
}
