package analytics

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/clinsight/clinic-analytics/internal/dataset"
	"github.com/clinsight/clinic-analytics/internal/observability/metrics"
	"github.com/clinsight/clinic-analytics/pkg/logging"
)

// Handler exposes every aggregation query as an HTTP endpoint plus the
// root status and reload endpoints.
type Handler struct {
	engine  *Engine
	store   *dataset.Store
	metrics *metrics.AnalyticsMetrics
	logger  *logging.Logger
}

func NewHandler(engine *Engine, store *dataset.Store, m *metrics.AnalyticsMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, store: store, metrics: m, logger: logger}
}

type statusResponse struct {
	Status     string `json:"status"`
	DataLoaded bool   `json:"data_loaded"`
	Message    string `json:"message,omitempty"`
}

// Root reports API status and whether data is currently loaded.
// GET /
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Status: "API is running", DataLoaded: h.store.Loaded()}
	if !resp.DataLoaded {
		resp.Message = "Data files could not be loaded. Check server logs for details."
	}
	writeJSON(w, http.StatusOK, resp)
}

type reloadResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ReloadData re-runs the loader. The previously served snapshot stays
// live if the reload fails.
// GET /reload_data
func (h *Handler) ReloadData(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reload(); err != nil {
		writeJSON(w, http.StatusOK, reloadResponse{
			Status:  "error",
			Message: "Failed to reload data. Check server logs for details.",
		})
		return
	}
	writeJSON(w, http.StatusOK, reloadResponse{
		Status:  "success",
		Message: "Data reloaded successfully",
	})
}

// AppointmentVolume serves counts grouped by the timeframe query param.
// GET /appointment_volume?timeframe=day|week|month
func (h *Handler) AppointmentVolume(w http.ResponseWriter, r *http.Request) {
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = TimeframeDay
	}
	h.serve(w, "appointment_volume", func() (any, error) {
		return h.engine.AppointmentVolume(timeframe)
	})
}

// GET /slot_utilization
func (h *Handler) SlotUtilization(w http.ResponseWriter, r *http.Request) {
	h.serve(w, "slot_utilization", func() (any, error) {
		return h.engine.SlotUtilization()
	})
}

// GET /attendance_patterns
func (h *Handler) AttendancePatterns(w http.ResponseWriter, r *http.Request) {
	h.serve(w, "attendance_patterns", func() (any, error) {
		return h.engine.AttendancePatterns()
	})
}

// GET /patient_demographics
func (h *Handler) PatientDemographics(w http.ResponseWriter, r *http.Request) {
	h.serve(w, "patient_demographics", func() (any, error) {
		return h.engine.PatientDemographics()
	})
}

// GET /operational_efficiency
func (h *Handler) OperationalEfficiency(w http.ResponseWriter, r *http.Request) {
	h.serve(w, "operational_efficiency", func() (any, error) {
		return h.engine.OperationalEfficiency()
	})
}

// GET /slot_availability
func (h *Handler) SlotAvailability(w http.ResponseWriter, r *http.Request) {
	h.serve(w, "slot_availability", func() (any, error) {
		return h.engine.SlotAvailability()
	})
}

// serve runs one query, records metrics, and maps engine errors to HTTP
// statuses: data-not-loaded is a server-side failure, a bad parameter is
// the client's.
func (h *Handler) serve(w http.ResponseWriter, query string, run func() (any, error)) {
	start := time.Now()
	result, err := run()
	elapsed := time.Since(start).Seconds()

	switch {
	case errors.Is(err, dataset.ErrNotLoaded):
		h.metrics.ObserveQuery(query, "not_loaded", elapsed)
		writeError(w, http.StatusInternalServerError, "Data files not loaded")
		return
	case errors.Is(err, ErrInvalidTimeframe):
		h.metrics.ObserveQuery(query, "bad_request", elapsed)
		writeError(w, http.StatusBadRequest, "Invalid timeframe. Use 'day', 'week', or 'month'.")
		return
	case err != nil:
		h.metrics.ObserveQuery(query, "error", elapsed)
		h.logger.Error("query failed", "query", query, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.metrics.ObserveQuery(query, "ok", elapsed)
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
