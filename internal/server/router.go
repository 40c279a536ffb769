package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/otcheredev/clinical-records-api/internal/config"
	"github.com/otcheredev/clinical-records-api/internal/handlers"
	"github.com/otcheredev/clinical-records-api/internal/middleware"
	"github.com/otcheredev/clinical-records-api/internal/pipeline"
	"github.com/otcheredev/clinical-records-api/internal/services"
)

// Deps are the components the router serves
type Deps struct {
	Pipeline       *pipeline.Pipeline
	PatientService *services.PatientService
	RecordService  *services.RecordService
	Health         *handlers.HealthHandler
	CORS           config.CORSConfig
	Metrics        bool
}

// NewRouter builds the HTTP routes. Every /api route runs the authorization
// pipeline; only /api/session admits anonymous callers.
func NewRouter(d Deps) http.Handler {
	patientHandler := handlers.NewPatientHandler(d.PatientService)
	recordHandler := handlers.NewRecordHandler(d.RecordService)
	sessionHandler := handlers.NewSessionHandler()

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Compress(5))

	if len(d.CORS.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORS.AllowedOrigins,
			AllowedMethods:   d.CORS.AllowedMethods,
			AllowedHeaders:   d.CORS.AllowedHeaders,
			ExposedHeaders:   []string{"Content-Length", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health endpoints (no authentication required)
	if d.Health != nil {
		r.Get("/health", d.Health.Health)
		r.Get("/ready", d.Health.Ready)
	}

	if d.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.Authorize(d.Pipeline, false)).Get("/session", sessionHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authorize(d.Pipeline, true))

			r.Post("/patients", patientHandler.Create)
			r.Get("/patients", patientHandler.List)
			r.Get("/patients/{id}", patientHandler.Get)
			r.Put("/patients/{id}", patientHandler.Update)
			r.Delete("/patients/{id}", patientHandler.Delete)

			r.Post("/records", recordHandler.Create)
			r.Get("/records", recordHandler.List)
			r.Get("/records/{id}", recordHandler.Get)
			r.Delete("/records/{id}", recordHandler.Delete)
		})
	})

	return r
}
