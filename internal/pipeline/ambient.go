package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"clinical-ehr-gateway/internal/audit"
	"clinical-ehr-gateway/internal/fhir"
	"clinical-ehr-gateway/internal/models"
	"clinical-ehr-gateway/internal/observability/logging"
	"clinical-ehr-gateway/internal/observability/metrics"
)

// ErrSessionFinalized is returned when utterances are appended to a
// session that has already been finalized.
var ErrSessionFinalized = errors.New("ambient session already finalized")

// ErrNoEHR is returned by FinalizeAndSubmit when the gateway has no EHR
// target configured.
var ErrNoEHR = errors.New("no EHR target configured")

// Ambient is the ambient documentation pipeline: the clinician's voice
// is transcribed during the encounter, utterances accumulate in a
// session, and the finished note is posted to the EHR when the
// encounter ends.
type Ambient struct {
	submitter Submitter
	publisher EventPublisher
	auditor   Auditor
	vendor    string
	metrics   *metrics.Metrics
}

// NewAmbient wires the ambient pipeline. auditor may be nil when the
// audit store is disabled.
func NewAmbient(submitter Submitter, publisher EventPublisher, auditor Auditor, vendor string) *Ambient {
	return &Ambient{
		submitter: submitter,
		publisher: publisher,
		auditor:   auditor,
		vendor:    vendor,
		metrics:   metrics.DefaultMetrics,
	}
}

// NewSession starts an empty accumulation session for one encounter.
func (a *Ambient) NewSession() *Session {
	return &Session{pipeline: a, utterances: []models.Utterance{}}
}

// Session accumulates utterances for one encounter. Append and
// FinalizeAndSubmit are safe to call from different goroutines; a
// finalized session rejects further appends.
type Session struct {
	pipeline *Ambient

	mu         sync.Mutex
	utterances []models.Utterance
	finalized  bool
}

// Append adds one utterance from live transcription.
func (s *Session) Append(u models.Utterance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return ErrSessionFinalized
	}
	s.utterances = append(s.utterances, u)
	return nil
}

// Utterances returns a copy of the accumulated utterances.
func (s *Session) Utterances() []models.Utterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Utterance, len(s.utterances))
	copy(out, s.utterances)
	return out
}

// FinalizeParams identifies the encounter being documented. DocType
// defaults to progress_note.
type FinalizeParams struct {
	PatientID            string
	EncounterID          string
	DocType              string
	AuthorPractitionerID string
}

// FinalizeResult carries the built resource and the EHR's reply.
type FinalizeResult struct {
	Document   fhir.DocumentReference
	StatusCode int
	Body       []byte
}

// FinalizeAndSubmit closes the session, builds the DocumentReference,
// and posts it to the EHR. The session cannot be appended to afterward,
// even when the build or submission fails; the caller holds the
// utterances and decides whether to retry through a fresh session.
func (s *Session) FinalizeAndSubmit(ctx context.Context, p FinalizeParams) (*FinalizeResult, error) {
	s.mu.Lock()
	if s.finalized {
		s.mu.Unlock()
		return nil, ErrSessionFinalized
	}
	s.finalized = true
	utterances := make([]models.Utterance, len(s.utterances))
	copy(utterances, s.utterances)
	s.mu.Unlock()

	a := s.pipeline
	start := time.Now()
	logger := logging.WithEncounter(p.PatientID, p.EncounterID)

	doc, err := fhir.BuildDocumentReference(fhir.BuildRequest{
		Utterances:           utterances,
		PatientID:            p.PatientID,
		EncounterID:          p.EncounterID,
		DocType:              p.DocType,
		AuthorPractitionerID: p.AuthorPractitionerID,
	})
	if err != nil {
		var validationErr *fhir.ValidationError
		if errors.As(err, &validationErr) {
			a.metrics.RecordValidationFailure()
			a.publishEvent(ctx, p, models.EventDocumentValidationFailed, "", 0)
		}
		logger.Error().Err(err).Msg("Ambient document build failed")
		return nil, err
	}

	loincCode := doc.LOINCCode()
	a.metrics.RecordDocumentBuilt(docTypeOrDefault(p.DocType))
	a.publishEvent(ctx, p, models.EventDocumentBuilt, loincCode, 0)

	if a.submitter == nil {
		logger.Error().Msg("Ambient finalize with no EHR target configured")
		return nil, ErrNoEHR
	}

	resp, err := a.submitter.SubmitDocumentReference(ctx, doc)
	respStatus := 0
	if resp != nil {
		respStatus = resp.StatusCode
	}
	a.metrics.RecordEHRSubmission(a.vendor, respStatus, err, time.Since(start).Seconds())
	if err != nil {
		logger.Error().Err(err).Msg("Ambient document submission failed")
		return nil, err
	}

	if a.auditor != nil {
		if auditErr := a.auditor.Record(ctx, audit.Entry{
			Vendor:      a.vendor,
			PatientID:   p.PatientID,
			EncounterID: p.EncounterID,
			DocType:     docTypeOrDefault(p.DocType),
			LOINCCode:   loincCode,
			StatusCode:  resp.StatusCode,
		}); auditErr != nil {
			// The submission already happened; a failed audit write is
			// logged, not surfaced.
			logger.Error().Err(auditErr).Msg("Failed to record submission audit entry")
		}
	}

	a.publishEvent(ctx, p, models.EventDocumentSubmitted, loincCode, resp.StatusCode)
	a.metrics.RecordPipeline("ambient", time.Since(start).Seconds())

	logger.Info().
		Int("status", resp.StatusCode).
		Int("utterances", len(utterances)).
		Msg("Ambient document submitted")

	return &FinalizeResult{Document: doc, StatusCode: resp.StatusCode, Body: resp.Body}, nil
}

func (a *Ambient) publishEvent(ctx context.Context, p FinalizeParams, eventType, loincCode string, statusCode int) {
	if a.publisher == nil {
		return
	}
	event := models.DocumentEvent{
		EventType:   eventType,
		PatientID:   p.PatientID,
		EncounterID: p.EncounterID,
		DocType:     docTypeOrDefault(p.DocType),
		LOINCCode:   loincCode,
		Vendor:      a.vendor,
		StatusCode:  statusCode,
		Timestamp:   time.Now().Unix(),
	}
	if err := a.publisher.PublishDocument(ctx, p.EncounterID, event); err != nil {
		logger := logging.WithEncounter(p.PatientID, p.EncounterID)
		logger.Error().Err(err).Str("eventType", eventType).Msg("Failed to publish document event")
	}
}

func docTypeOrDefault(docType string) string {
	if docType == "" {
		return fhir.DocTypeProgressNote
	}
	return docType
}
