package pipeline

import (
	"context"
	"time"

	"clinical-ehr-gateway/internal/fhir"
	"clinical-ehr-gateway/internal/hl7v2"
	"clinical-ehr-gateway/internal/models"
	"clinical-ehr-gateway/internal/observability/metrics"
	"clinical-ehr-gateway/internal/transcription"
)

// Dictation is the physician dictation pipeline: a recorded audio file
// is transcribed in batch, then converted to a FHIR DocumentReference
// or an HL7v2 MDM^T02 for delivery.
type Dictation struct {
	transcriber transcription.Batch
	provider    string
	metrics     *metrics.Metrics
}

// NewDictation wires the dictation pipeline over a batch transcriber.
// provider names the vendor for metrics ("deepgram", "google", "mock").
func NewDictation(transcriber transcription.Batch, provider string) *Dictation {
	return &Dictation{
		transcriber: transcriber,
		provider:    provider,
		metrics:     metrics.DefaultMetrics,
	}
}

// Transcribe runs the dictation audio file through the provider with
// clinical defaults plus any caller keyterms.
func (d *Dictation) Transcribe(ctx context.Context, audioPath string, keyterms []string) (*models.TranscriptionResult, error) {
	opts := transcription.DefaultOptions()
	opts.Keyterms = append(opts.Keyterms, keyterms...)

	start := time.Now()
	result, err := d.transcriber.TranscribeFile(ctx, audioPath, opts)
	utterances := 0
	if result != nil {
		utterances = len(result.Utterances)
	}
	d.metrics.RecordTranscription(d.provider, utterances, err, time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ToFHIR converts a transcription result into a DocumentReference. A
// nil result is treated as an empty transcript, matching the contract
// at the transcription boundary.
func (d *Dictation) ToFHIR(result *models.TranscriptionResult, patientID, encounterID, docType string) (fhir.DocumentReference, error) {
	var utterances []models.Utterance
	if result != nil {
		utterances = result.Utterances
	}
	doc, err := fhir.BuildDocumentReference(fhir.BuildRequest{
		Utterances:  utterances,
		PatientID:   patientID,
		EncounterID: encounterID,
		DocType:     docType,
	})
	if err != nil {
		return nil, err
	}
	d.metrics.RecordDocumentBuilt(docTypeOrDefault(docType))
	return doc, nil
}

// ToMDM converts a transcription result into an MDM^T02 message
// carrying the full transcript.
func (d *Dictation) ToMDM(result *models.TranscriptionResult, patientID, visitID, providerNPI string) string {
	transcript := ""
	if result != nil {
		transcript = result.FullTranscript
	}
	msg := hl7v2.BuildMDMT02(hl7v2.MDMParams{
		Transcript:  transcript,
		PatientID:   patientID,
		VisitID:     visitID,
		ProviderNPI: providerNPI,
	})
	d.metrics.RecordHL7Built("MDM^T02")
	return msg
}
