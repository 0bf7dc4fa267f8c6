package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"clinical-ehr-gateway/internal/audit"
	"clinical-ehr-gateway/internal/config"
	"clinical-ehr-gateway/internal/fhir"
	"clinical-ehr-gateway/internal/hl7v2"
	"clinical-ehr-gateway/internal/models"
	"clinical-ehr-gateway/internal/observability/metrics"
	"clinical-ehr-gateway/internal/pipeline"
	"clinical-ehr-gateway/internal/transcription"
)

// maxAudioBytes bounds the transcription request body.
const maxAudioBytes = 100 << 20

// AuditReader serves the audit query endpoint. Satisfied by
// *audit.Store.
type AuditReader interface {
	ByEncounter(ctx context.Context, encounterID string) ([]audit.Entry, error)
}

// Handlers implements the gateway's API endpoints.
type Handlers struct {
	transcriber   transcription.Batch
	provider      string
	auditor       AuditReader
	publisher     pipeline.EventPublisher
	hl7           config.HL7Config
	metrics       *metrics.Metrics
	maxAudioBytes int64
}

// NewHandlers wires the API handlers. transcriber and auditor may be
// nil; their endpoints then report the feature as unavailable.
func NewHandlers(transcriber transcription.Batch, provider string, auditor AuditReader, publisher pipeline.EventPublisher, hl7 config.HL7Config) *Handlers {
	return &Handlers{
		transcriber:   transcriber,
		provider:      provider,
		auditor:       auditor,
		publisher:     publisher,
		hl7:           hl7,
		metrics:       metrics.DefaultMetrics,
		maxAudioBytes: maxAudioBytes,
	}
}

// buildDocumentRequest is the POST /v1/documents payload.
type buildDocumentRequest struct {
	Utterances           []models.Utterance `json:"utterances"`
	PatientID            string             `json:"patientId"`
	EncounterID          string             `json:"encounterId"`
	DocType              string             `json:"docType"`
	AuthorPractitionerID string             `json:"authorPractitionerId"`
	Title                string             `json:"title"`
}

// BuildDocument builds and validates a DocumentReference from diarized
// utterances.
func (h *Handlers) BuildDocument(w http.ResponseWriter, r *http.Request) {
	var req buildDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	doc, err := fhir.BuildDocumentReference(fhir.BuildRequest{
		Utterances:           req.Utterances,
		PatientID:            req.PatientID,
		EncounterID:          req.EncounterID,
		DocType:              req.DocType,
		AuthorPractitionerID: req.AuthorPractitionerID,
		Title:                req.Title,
	})
	if err != nil {
		var validationErr *fhir.ValidationError
		if errors.As(err, &validationErr) {
			h.metrics.RecordValidationFailure()
		}
		writeBuildError(w, err)
		return
	}

	h.metrics.RecordDocumentBuilt(req.DocType)
	h.publishDocumentEvent(r, req, doc)
	writeJSON(w, http.StatusCreated, doc)
}

func (h *Handlers) publishDocumentEvent(r *http.Request, req buildDocumentRequest, doc fhir.DocumentReference) {
	if h.publisher == nil {
		return
	}
	event := models.DocumentEvent{
		EventType:   models.EventDocumentBuilt,
		PatientID:   req.PatientID,
		EncounterID: req.EncounterID,
		DocType:     req.DocType,
		LOINCCode:   doc.LOINCCode(),
		Timestamp:   time.Now().Unix(),
	}
	if err := h.publisher.PublishDocument(r.Context(), req.EncounterID, event); err != nil {
		log.Error().Err(err).Msg("Failed to publish document event")
	}
}

// ValidateDocument runs the offline schema validator on a caller
// supplied resource.
func (h *Handlers) ValidateDocument(w http.ResponseWriter, r *http.Request) {
	var doc fhir.DocumentReference
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := fhir.Validate(doc); err != nil {
		var validationErr *fhir.ValidationError
		if errors.As(err, &validationErr) {
			h.metrics.RecordValidationFailure()
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"valid":      false,
				"violations": validationErr.Violations,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true})
}

// buildMDMRequest is the POST /v1/hl7/mdm payload.
type buildMDMRequest struct {
	Transcript  string `json:"transcript"`
	PatientID   string `json:"patientId"`
	VisitID     string `json:"visitId"`
	ProviderNPI string `json:"providerNpi"`
	DocumentID  string `json:"documentId"`
}

// BuildMDM builds an MDM^T02 message with the configured routing.
func (h *Handlers) BuildMDM(w http.ResponseWriter, r *http.Request) {
	var req buildMDMRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	msg := hl7v2.BuildMDMT02(hl7v2.MDMParams{
		Transcript:        req.Transcript,
		PatientID:         req.PatientID,
		VisitID:           req.VisitID,
		ProviderNPI:       req.ProviderNPI,
		DocumentID:        req.DocumentID,
		SendingApp:        h.hl7.SendingApp,
		SendingFacility:   h.hl7.SendingFacility,
		ReceivingApp:      h.hl7.ReceivingApp,
		ReceivingFacility: h.hl7.ReceivingFacility,
	})

	h.metrics.RecordHL7Built("MDM^T02")
	h.publishHL7Event(r, "MDM^T02", req.PatientID, msg)
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// buildORURequest is the POST /v1/hl7/oru payload.
type buildORURequest struct {
	Transcript   string `json:"transcript"`
	PatientID    string `json:"patientId"`
	OrderID      string `json:"orderId"`
	ProviderNPI  string `json:"providerNpi"`
	LOINCCode    string `json:"loincCode"`
	LOINCDisplay string `json:"loincDisplay"`
}

// BuildORU builds an ORU^R01 message with the configured routing.
func (h *Handlers) BuildORU(w http.ResponseWriter, r *http.Request) {
	var req buildORURequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	msg := hl7v2.BuildORUR01(hl7v2.ORUParams{
		Transcript:        req.Transcript,
		PatientID:         req.PatientID,
		OrderID:           req.OrderID,
		ProviderNPI:       req.ProviderNPI,
		LOINCCode:         req.LOINCCode,
		LOINCDisplay:      req.LOINCDisplay,
		SendingApp:        h.hl7.SendingApp,
		SendingFacility:   h.hl7.SendingFacility,
		ReceivingApp:      h.hl7.ReceivingApp,
		ReceivingFacility: h.hl7.ReceivingFacility,
	})

	h.metrics.RecordHL7Built("ORU^R01")
	h.publishHL7Event(r, "ORU^R01", req.PatientID, msg)
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func (h *Handlers) publishHL7Event(r *http.Request, messageType, patientID, raw string) {
	if h.publisher == nil {
		return
	}
	controlID := ""
	if msg, err := hl7v2.Parse(raw); err == nil {
		controlID = msg.ControlID()
	}
	event := models.HL7Event{
		EventType:   models.EventHL7MessageBuilt,
		MessageType: messageType,
		PatientID:   patientID,
		ControlID:   controlID,
		Timestamp:   time.Now().Unix(),
	}
	if err := h.publisher.PublishHL7(r.Context(), patientID, event); err != nil {
		log.Error().Err(err).Msg("Failed to publish HL7 event")
	}
}

// Transcribe accepts raw audio in the request body and returns the
// transcription result. Keyterms come from repeated ?keyterm= query
// parameters.
func (h *Handlers) Transcribe(w http.ResponseWriter, r *http.Request) {
	if h.transcriber == nil {
		writeError(w, http.StatusServiceUnavailable, "transcription not configured")
		return
	}

	// Read one byte past the limit so an oversize body is rejected
	// rather than transcribed as a truncated recording.
	audio, err := io.ReadAll(io.LimitReader(r.Body, h.maxAudioBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading audio body: "+err.Error())
		return
	}
	if len(audio) == 0 {
		writeError(w, http.StatusBadRequest, "empty audio body")
		return
	}
	if int64(len(audio)) > h.maxAudioBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "audio body exceeds size limit")
		return
	}

	mimetype := r.Header.Get("Content-Type")
	if mimetype == "" {
		mimetype = "audio/wav"
	}

	opts := transcription.DefaultOptions()
	opts.Keyterms = append(opts.Keyterms, r.URL.Query()["keyterm"]...)

	start := time.Now()
	result, err := h.transcriber.TranscribeBytes(r.Context(), audio, mimetype, opts)
	utterances := 0
	if result != nil {
		utterances = len(result.Utterances)
	}
	h.metrics.RecordTranscription(h.provider, utterances, err, time.Since(start).Seconds())
	if err != nil {
		writeError(w, http.StatusBadGateway, "transcription failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// AuditByEncounter lists recorded submissions for an encounter.
func (h *Handlers) AuditByEncounter(w http.ResponseWriter, r *http.Request) {
	if h.auditor == nil {
		writeError(w, http.StatusServiceUnavailable, "audit store not configured")
		return
	}

	encounterID := chi.URLParam(r, "encounterID")
	entries, err := h.auditor.ByEncounter(r.Context(), encounterID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "querying audit store: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// writeBuildError maps builder errors onto HTTP statuses: bad caller
// arguments are 400, schema violations 422.
func writeBuildError(w http.ResponseWriter, err error) {
	var invalidErr *fhir.InvalidArgumentError
	if errors.As(err, &invalidErr) {
		writeError(w, http.StatusBadRequest, invalidErr.Error())
		return
	}
	var validationErr *fhir.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      "document failed validation",
			"violations": validationErr.Violations,
		})
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
