// Package deepgram implements transcription adapters for the Deepgram
// speech API: a REST client for pre-recorded audio and a WebSocket
// client for live streams, both defaulting to the Nova-3 Medical model.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"clinical-ehr-gateway/internal/models"
	"clinical-ehr-gateway/internal/transcription"
)

const defaultBaseURL = "https://api.deepgram.com/v1"

// Batch transcribes pre-recorded audio over Deepgram's REST API.
type Batch struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewBatch creates a REST transcriber. A nil httpClient gets a default
// with a 5 minute timeout; audio uploads can be large.
func NewBatch(apiKey string, httpClient *http.Client) *Batch {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Batch{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
	}
}

// TranscribeFile reads an audio file and submits it for transcription,
// deriving the content type from the file extension.
func (b *Batch) TranscribeFile(ctx context.Context, path string, opts transcription.Options) (*models.TranscriptionResult, error) {
	audio, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading audio file: %w", err)
	}
	return b.TranscribeBytes(ctx, audio, transcription.MimetypeForPath(path), opts)
}

// TranscribeBytes submits raw audio bytes for transcription.
func (b *Batch) TranscribeBytes(ctx context.Context, audio []byte, mimetype string, opts transcription.Options) (*models.TranscriptionResult, error) {
	return b.listen(ctx, bytes.NewReader(audio), mimetype, opts)
}

// TranscribeURL asks Deepgram to fetch and transcribe hosted audio.
func (b *Batch) TranscribeURL(ctx context.Context, audioURL string, opts transcription.Options) (*models.TranscriptionResult, error) {
	payload, err := json.Marshal(map[string]string{"url": audioURL})
	if err != nil {
		return nil, fmt.Errorf("encoding url source: %w", err)
	}
	return b.listen(ctx, bytes.NewReader(payload), "application/json", opts)
}

func (b *Batch) listen(ctx context.Context, body io.Reader, contentType string, opts transcription.Options) (*models.TranscriptionResult, error) {
	endpoint := b.baseURL + "/listen?" + listenQuery(opts).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("building transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+b.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting transcription: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading transcription response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deepgram returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded Response
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decoding transcription response: %w", err)
	}
	return decoded.ToResult(), nil
}

// listenQuery builds the request parameters shared by file, bytes, and
// URL sources. Diarization implies utterances so speaker turns come
// back as discrete records.
func listenQuery(opts transcription.Options) url.Values {
	if opts.Model == "" {
		opts.Model = models.DefaultModel
	}
	q := url.Values{}
	q.Set("model", opts.Model)
	q.Set("smart_format", strconv.FormatBool(opts.SmartFormat))
	q.Set("diarize", strconv.FormatBool(opts.Diarize))
	if opts.Diarize {
		q.Set("utterances", "true")
	}
	if opts.Language != "" {
		q.Set("language", opts.Language)
	}
	for _, term := range opts.Keyterms {
		q.Add("keyterm", term)
	}
	return q
}
