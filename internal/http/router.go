// Package http exposes the gateway's REST API: document building and
// validation, HL7 message construction, transcription, and audit
// queries.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"clinical-ehr-gateway/internal/observability"
	"clinical-ehr-gateway/internal/observability/metrics"
)

// NewRouter constructs the API router.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observability.RequestLogger(metrics.DefaultMetrics))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/documents", h.BuildDocument)
		r.Post("/documents/validate", h.ValidateDocument)
		r.Post("/hl7/mdm", h.BuildMDM)
		r.Post("/hl7/oru", h.BuildORU)
		r.Post("/transcriptions", h.Transcribe)
		r.Get("/audit/{encounterID}", h.AuditByEncounter)
	})

	return r
}
