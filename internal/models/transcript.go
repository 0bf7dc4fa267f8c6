// Package models defines the data structures shared across the gateway.
package models

// Utterance is a single diarized speaker turn from clinical transcription.
type Utterance struct {
	Speaker    int     `json:"speaker"`
	Transcript string  `json:"transcript"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// TranscriptionResult is the structured output of one transcription request.
// Utterances and KeytermsDetected are never nil on a constructed result.
type TranscriptionResult struct {
	Utterances       []Utterance `json:"utterances"`
	FullTranscript   string      `json:"fullTranscript"`
	RequestID        string      `json:"requestId"`
	Model            string      `json:"model"`
	DetectedLanguage string      `json:"detectedLanguage"`
	KeytermsDetected []string    `json:"keytermsDetected"`
}

// DefaultModel is the transcription model assumed when the vendor
// response does not name one.
const DefaultModel = "nova-3-medical"

// DefaultLanguage is the language tag assumed when detection is absent.
const DefaultLanguage = "en-US"

// NewTranscriptionResult returns an empty result with defaults applied.
// Each call allocates fresh slices so results never share containers.
func NewTranscriptionResult() *TranscriptionResult {
	return &TranscriptionResult{
		Utterances:       []Utterance{},
		FullTranscript:   "",
		Model:            DefaultModel,
		DetectedLanguage: DefaultLanguage,
		KeytermsDetected: []string{},
	}
}
