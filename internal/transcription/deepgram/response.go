package deepgram

import (
	"clinical-ehr-gateway/internal/models"
)

// Response is the Deepgram transcription response envelope. Only the
// fields the gateway consumes are mapped.
type Response struct {
	Metadata *Metadata `json:"metadata"`
	Results  *Results  `json:"results"`
}

// Metadata carries request identifiers and model details.
type Metadata struct {
	RequestID string               `json:"request_id"`
	ModelInfo map[string]ModelInfo `json:"model_info"`
}

// ModelInfo describes one model used to serve the request.
type ModelInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Arch    string `json:"arch"`
}

// Results holds per-channel alternatives plus diarized utterances.
type Results struct {
	Channels   []Channel       `json:"channels"`
	Utterances []WireUtterance `json:"utterances"`
}

// Channel is a single audio channel's transcription.
type Channel struct {
	Alternatives []Alternative `json:"alternatives"`
}

// Alternative is one transcription hypothesis for a channel.
type Alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words"`
}

// Word is a single recognized word with timing and speaker attribution.
type Word struct {
	Word           string  `json:"word"`
	PunctuatedWord string  `json:"punctuated_word"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	Confidence     float64 `json:"confidence"`
	Speaker        int     `json:"speaker"`
}

// WireUtterance is a diarized utterance as Deepgram reports it.
type WireUtterance struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
	Transcript string  `json:"transcript"`
	Speaker    int     `json:"speaker"`
}

// ToResult maps the wire response onto the gateway's transcription
// model. Every section is optional on the wire: absent parts leave the
// constructed defaults in place rather than failing.
func (r *Response) ToResult() *models.TranscriptionResult {
	result := models.NewTranscriptionResult()
	if r == nil || r.Results == nil {
		return result
	}

	if len(r.Results.Channels) > 0 {
		if alts := r.Results.Channels[0].Alternatives; len(alts) > 0 {
			result.FullTranscript = alts[0].Transcript
		}
	}

	for _, u := range r.Results.Utterances {
		result.Utterances = append(result.Utterances, models.Utterance{
			Speaker:    u.Speaker,
			Transcript: u.Transcript,
			Start:      u.Start,
			End:        u.End,
			Confidence: u.Confidence,
		})
	}

	if r.Metadata != nil {
		result.RequestID = r.Metadata.RequestID
		for _, info := range r.Metadata.ModelInfo {
			if info.Name != "" {
				result.Model = info.Name
			}
			break
		}
	}
	return result
}
