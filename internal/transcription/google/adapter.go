// Package google implements a batch transcription adapter backed by
// Google Cloud Speech-to-Text, as an alternate vendor to Deepgram.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clinical-ehr-gateway/internal/models"
	"clinical-ehr-gateway/internal/transcription"
)

// Batch transcribes pre-recorded audio through the Cloud Speech
// Recognize RPC with speaker diarization enabled.
type Batch struct {
	client *speech.Client
}

// NewBatch creates the adapter. Credentials come from the environment
// (GOOGLE_APPLICATION_CREDENTIALS).
func NewBatch(ctx context.Context) (*Batch, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating speech client: %w", err)
	}
	return &Batch{client: c}, nil
}

// Close releases the underlying gRPC connection.
func (b *Batch) Close() error {
	return b.client.Close()
}

// TranscribeFile reads an audio file and submits it for recognition.
func (b *Batch) TranscribeFile(ctx context.Context, path string, opts transcription.Options) (*models.TranscriptionResult, error) {
	audio, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading audio file: %w", err)
	}
	return b.TranscribeBytes(ctx, audio, transcription.MimetypeForPath(path), opts)
}

// TranscribeBytes submits raw audio bytes for recognition.
func (b *Batch) TranscribeBytes(ctx context.Context, audio []byte, mimetype string, opts transcription.Options) (*models.TranscriptionResult, error) {
	req := recognizeRequest(opts, mimetype)
	req.Audio = &speechpb.RecognitionAudio{
		AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
	}
	resp, err := b.client.Recognize(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}
	return mapResponse(resp, opts), nil
}

// TranscribeURL submits audio hosted in Cloud Storage. Only gs:// URIs
// are accepted; the Recognize RPC cannot fetch arbitrary URLs.
func (b *Batch) TranscribeURL(ctx context.Context, audioURL string, opts transcription.Options) (*models.TranscriptionResult, error) {
	if !strings.HasPrefix(audioURL, "gs://") {
		return nil, errors.New("google adapter requires a gs:// URI")
	}
	req := recognizeRequest(opts, "")
	req.Audio = &speechpb.RecognitionAudio{
		AudioSource: &speechpb.RecognitionAudio_Uri{Uri: audioURL},
	}
	resp, err := b.client.Recognize(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}
	return mapResponse(resp, opts), nil
}

// recognizeRequest builds the request config shared by the byte and
// URI sources.
func recognizeRequest(opts transcription.Options, mimetype string) *speechpb.RecognizeRequest {
	language := opts.Language
	if language == "" {
		language = models.DefaultLanguage
	}
	cfg := &speechpb.RecognitionConfig{
		Encoding:              encodingForMimetype(mimetype),
		LanguageCode:          language,
		EnableWordTimeOffsets: true,
		// medical_conversation is the closest counterpart to the
		// clinical models other vendors offer.
		Model: "medical_conversation",
	}
	if opts.Diarize {
		cfg.DiarizationConfig = &speechpb.SpeakerDiarizationConfig{
			EnableSpeakerDiarization: true,
			MinSpeakerCount:          2,
			MaxSpeakerCount:          2,
		}
	}
	if len(opts.Keyterms) > 0 {
		cfg.SpeechContexts = []*speechpb.SpeechContext{{Phrases: opts.Keyterms}}
	}
	return &speechpb.RecognizeRequest{Config: cfg}
}

// encodingForMimetype maps the audio content type to the RPC encoding
// enum. Unspecified lets the service sniff containered formats.
func encodingForMimetype(mimetype string) speechpb.RecognitionConfig_AudioEncoding {
	switch mimetype {
	case "audio/wav":
		return speechpb.RecognitionConfig_LINEAR16
	case "audio/flac":
		return speechpb.RecognitionConfig_FLAC
	case "audio/ogg":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "audio/webm":
		return speechpb.RecognitionConfig_WEBM_OPUS
	case "audio/mpeg":
		return speechpb.RecognitionConfig_MP3
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

// mapResponse converts a Recognize response into the gateway's result
// shape. With diarization the final result repeats every word tagged
// with its speaker; consecutive words with the same tag collapse into
// one utterance. Absent fields map to zero values, never nil slices.
func mapResponse(resp *speechpb.RecognizeResponse, opts transcription.Options) *models.TranscriptionResult {
	result := &models.TranscriptionResult{
		Utterances:       []models.Utterance{},
		RequestID:        uuid.New().String(),
		Model:            "medical_conversation",
		DetectedLanguage: opts.Language,
		KeytermsDetected: []string{},
	}
	if result.DetectedLanguage == "" {
		result.DetectedLanguage = models.DefaultLanguage
	}
	if resp == nil || len(resp.Results) == 0 {
		return result
	}

	var transcripts []string
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		transcripts = append(transcripts, r.Alternatives[0].Transcript)
	}
	result.FullTranscript = strings.Join(transcripts, " ")

	last := resp.Results[len(resp.Results)-1]
	if len(last.Alternatives) == 0 {
		return result
	}
	alt := last.Alternatives[0]
	result.Utterances = utterancesFromWords(alt.Words, float64(alt.Confidence))
	return result
}

// utterancesFromWords groups consecutive same-speaker words into
// utterances. Speaker tags are 1-based in the RPC; the gateway uses
// 0-based indices.
func utterancesFromWords(words []*speechpb.WordInfo, confidence float64) []models.Utterance {
	utterances := []models.Utterance{}
	if len(words) == 0 {
		return utterances
	}

	speaker := int(words[0].SpeakerTag)
	start := words[0].StartTime.AsDuration().Seconds()
	end := words[0].EndTime.AsDuration().Seconds()
	text := []string{words[0].Word}

	flush := func() {
		s := speaker - 1
		if s < 0 {
			s = 0
		}
		utterances = append(utterances, models.Utterance{
			Speaker:    s,
			Transcript: strings.Join(text, " "),
			Start:      start,
			End:        end,
			Confidence: confidence,
		})
	}

	for _, w := range words[1:] {
		if int(w.SpeakerTag) != speaker {
			flush()
			speaker = int(w.SpeakerTag)
			start = w.StartTime.AsDuration().Seconds()
			text = text[:0]
		}
		end = w.EndTime.AsDuration().Seconds()
		text = append(text, w.Word)
	}
	flush()
	return utterances
}

// IsRetryable reports whether a Recognize error is worth retrying:
// transient transport and quota conditions, not malformed requests.
func IsRetryable(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}
