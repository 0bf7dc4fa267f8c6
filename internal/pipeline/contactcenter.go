package pipeline

import (
	"clinical-ehr-gateway/internal/fhir"
	"clinical-ehr-gateway/internal/hl7v2"
	"clinical-ehr-gateway/internal/models"
	"clinical-ehr-gateway/internal/observability/metrics"
)

// TriageTitle is the attachment title for nurse triage call notes.
const TriageTitle = "Nurse Triage Call Transcript"

// ContactCenter converts triage call transcripts into progress notes
// or ORU^R01 observation messages.
type ContactCenter struct {
	metrics *metrics.Metrics
}

// NewContactCenter wires the contact center pipeline.
func NewContactCenter() *ContactCenter {
	return &ContactCenter{metrics: metrics.DefaultMetrics}
}

// ToFHIR builds a progress note DocumentReference from a call
// transcript.
func (c *ContactCenter) ToFHIR(result *models.TranscriptionResult, patientID, encounterID string) (fhir.DocumentReference, error) {
	var utterances []models.Utterance
	if result != nil {
		utterances = result.Utterances
	}
	doc, err := fhir.BuildDocumentReference(fhir.BuildRequest{
		Utterances:  utterances,
		PatientID:   patientID,
		EncounterID: encounterID,
		DocType:     fhir.DocTypeProgressNote,
		Title:       TriageTitle,
	})
	if err != nil {
		return nil, err
	}
	c.metrics.RecordDocumentBuilt(fhir.DocTypeProgressNote)
	return doc, nil
}

// ToORU builds an ORU^R01 message carrying the full call transcript as
// a text observation.
func (c *ContactCenter) ToORU(result *models.TranscriptionResult, patientID, orderID, providerNPI string) string {
	transcript := ""
	if result != nil {
		transcript = result.FullTranscript
	}
	msg := hl7v2.BuildORUR01(hl7v2.ORUParams{
		Transcript:  transcript,
		PatientID:   patientID,
		OrderID:     orderID,
		ProviderNPI: providerNPI,
	})
	c.metrics.RecordHL7Built("ORU^R01")
	return msg
}
