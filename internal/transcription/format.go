package transcription

import (
	"fmt"
	"strings"

	"clinical-ehr-gateway/internal/models"
)

// FormatTranscript renders utterances as the canonical transcript block
// embedded in FHIR attachments. One line per utterance, in order:
//
//	[Speaker 0 | 0.5s-3.2s] Good morning
//
// Times carry one decimal place. The output is part of the persisted
// clinical record, so the format must stay byte-for-byte stable.
func FormatTranscript(utterances []models.Utterance) string {
	if len(utterances) == 0 {
		return ""
	}
	lines := make([]string, 0, len(utterances))
	for _, u := range utterances {
		lines = append(lines, fmt.Sprintf("[Speaker %d | %.1fs-%.1fs] %s", u.Speaker, u.Start, u.End, u.Transcript))
	}
	return strings.Join(lines, "\n")
}

// FormatUtterances renders a readable per-speaker summary of a result,
// falling back to the full transcript when diarization produced no
// utterances.
func FormatUtterances(result *models.TranscriptionResult) string {
	if result == nil {
		return ""
	}
	if len(result.Utterances) == 0 {
		return result.FullTranscript
	}
	lines := make([]string, 0, len(result.Utterances))
	for _, u := range result.Utterances {
		lines = append(lines, fmt.Sprintf("[%.1fs] Speaker %d: %s", u.Start, u.Speaker, u.Transcript))
	}
	return strings.Join(lines, "\n")
}

// MimetypeForPath maps common audio file extensions to MIME types.
// Unknown extensions default to audio/wav.
func MimetypeForPath(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return "audio/wav"
	}
	switch strings.ToLower(path[idx:]) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".mp4", ".m4a":
		return "audio/mp4"
	case ".flac":
		return "audio/flac"
	case ".ogg":
		return "audio/ogg"
	case ".webm":
		return "audio/webm"
	default:
		return "audio/wav"
	}
}
