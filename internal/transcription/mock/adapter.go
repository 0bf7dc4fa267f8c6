// Package mock provides a scripted transcription adapter for tests and
// for running the gateway without vendor credentials.
package mock

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"clinical-ehr-gateway/internal/models"
	"clinical-ehr-gateway/internal/transcription"
)

// DefaultResult is returned when no results are scripted: a short
// diarized clinical exchange.
func DefaultResult() *models.TranscriptionResult {
	return &models.TranscriptionResult{
		Utterances: []models.Utterance{
			{Speaker: 0, Transcript: "Good morning, what brings you in today", Start: 0.5, End: 3.2, Confidence: 0.98},
			{Speaker: 1, Transcript: "I've had chest pain since yesterday", Start: 4.0, End: 7.1, Confidence: 0.95},
			{Speaker: 0, Transcript: "Any shortness of breath", Start: 7.8, End: 9.4, Confidence: 0.97},
			{Speaker: 1, Transcript: "A little when I climb stairs", Start: 10.0, End: 12.3, Confidence: 0.93},
		},
		FullTranscript: "Good morning, what brings you in today " +
			"I've had chest pain since yesterday " +
			"Any shortness of breath " +
			"A little when I climb stairs",
		RequestID:        uuid.New().String(),
		Model:            models.DefaultModel,
		DetectedLanguage: models.DefaultLanguage,
		KeytermsDetected: []string{},
	}
}

// Call records one transcription invocation for assertions.
type Call struct {
	Method   string
	Source   string
	Mimetype string
	Opts     transcription.Options
}

// Batch implements transcription.Batch with scripted results. Results
// are served in order and cycle when exhausted, so long tests never run
// dry. Safe for concurrent use.
type Batch struct {
	mu      sync.Mutex
	results []*models.TranscriptionResult
	calls   []Call
	next    int
	err     error
}

// NewBatch creates a scripted adapter. With no results, every call
// returns DefaultResult.
func NewBatch(results ...*models.TranscriptionResult) *Batch {
	return &Batch{results: results}
}

// SetError makes every subsequent call fail with err. Pass nil to
// clear.
func (b *Batch) SetError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

// Calls returns a copy of the recorded invocations.
func (b *Batch) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Call, len(b.calls))
	copy(out, b.calls)
	return out
}

// TranscribeFile returns the next scripted result.
func (b *Batch) TranscribeFile(_ context.Context, path string, opts transcription.Options) (*models.TranscriptionResult, error) {
	return b.take(Call{Method: "file", Source: path, Mimetype: transcription.MimetypeForPath(path), Opts: opts})
}

// TranscribeBytes returns the next scripted result.
func (b *Batch) TranscribeBytes(_ context.Context, _ []byte, mimetype string, opts transcription.Options) (*models.TranscriptionResult, error) {
	return b.take(Call{Method: "bytes", Mimetype: mimetype, Opts: opts})
}

// TranscribeURL returns the next scripted result.
func (b *Batch) TranscribeURL(_ context.Context, url string, opts transcription.Options) (*models.TranscriptionResult, error) {
	return b.take(Call{Method: "url", Source: url, Opts: opts})
}

func (b *Batch) take(call Call) (*models.TranscriptionResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
	if b.err != nil {
		return nil, b.err
	}
	if len(b.results) == 0 {
		return DefaultResult(), nil
	}
	r := b.results[b.next%len(b.results)]
	b.next++
	return r, nil
}
