package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clinsight/clinic-analytics/internal/analytics"
	httpmiddleware "github.com/clinsight/clinic-analytics/internal/http/middleware"
	"github.com/clinsight/clinic-analytics/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	AnalyticsHandler   *analytics.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	h := cfg.AnalyticsHandler
	r.Get("/", h.Root)
	r.Get("/health", h.Root)
	r.Get("/reload_data", h.ReloadData)
	r.Get("/appointment_volume", h.AppointmentVolume)
	r.Get("/slot_utilization", h.SlotUtilization)
	r.Get("/attendance_patterns", h.AttendancePatterns)
	r.Get("/patient_demographics", h.PatientDemographics)
	r.Get("/operational_efficiency", h.OperationalEfficiency)
	r.Get("/slot_availability", h.SlotAvailability)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
