package pipeline

import (
	"clinical-ehr-gateway/internal/fhir"
	"clinical-ehr-gateway/internal/models"
	"clinical-ehr-gateway/internal/observability/metrics"
)

// Speaker channel assignments for telehealth visits: the provider and
// patient audio tracks are captured separately, so diarization maps
// them to fixed indices.
const (
	SpeakerProvider = 0
	SpeakerPatient  = 1
)

// TelehealthTitle is the attachment title for telehealth consult notes.
const TelehealthTitle = "Telehealth Visit Transcript"

// Telehealth converts diarized telehealth visit transcripts into
// consult notes.
type Telehealth struct {
	metrics *metrics.Metrics
}

// NewTelehealth wires the telehealth pipeline.
func NewTelehealth() *Telehealth {
	return &Telehealth{metrics: metrics.DefaultMetrics}
}

// SeparateSpeakers splits utterances into provider and patient tracks.
// Speaker 0 is the provider; every other speaker index is treated as
// the patient side.
func (t *Telehealth) SeparateSpeakers(result *models.TranscriptionResult) (provider, patient []models.Utterance) {
	provider = []models.Utterance{}
	patient = []models.Utterance{}
	if result == nil {
		return provider, patient
	}
	for _, u := range result.Utterances {
		if u.Speaker == SpeakerProvider {
			provider = append(provider, u)
		} else {
			patient = append(patient, u)
		}
	}
	return provider, patient
}

// ToFHIR builds a consult note DocumentReference from the full visit
// transcript.
func (t *Telehealth) ToFHIR(result *models.TranscriptionResult, patientID, encounterID string) (fhir.DocumentReference, error) {
	var utterances []models.Utterance
	if result != nil {
		utterances = result.Utterances
	}
	doc, err := fhir.BuildDocumentReference(fhir.BuildRequest{
		Utterances:  utterances,
		PatientID:   patientID,
		EncounterID: encounterID,
		DocType:     fhir.DocTypeConsultNote,
		Title:       TelehealthTitle,
	})
	if err != nil {
		return nil, err
	}
	t.metrics.RecordDocumentBuilt(fhir.DocTypeConsultNote)
	return doc, nil
}
