package transcription

import (
	"strings"
	"testing"

	"clinical-ehr-gateway/internal/models"
)

func TestFormatTranscript_SingleUtterance(t *testing.T) {
	got := FormatTranscript([]models.Utterance{
		{Speaker: 0, Transcript: "Good morning", Start: 0.5, End: 3.2, Confidence: 0.98},
	})

	want := "[Speaker 0 | 0.5s-3.2s] Good morning"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFormatTranscript_MultipleUtterances(t *testing.T) {
	got := FormatTranscript([]models.Utterance{
		{Speaker: 0, Transcript: "How are you feeling today", Start: 0.0, End: 2.1},
		{Speaker: 1, Transcript: "Better than last week", Start: 2.5, End: 4.9},
	})

	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "[Speaker 0 | 0.0s-2.1s] How are you feeling today" {
		t.Errorf("unexpected first line: %q", lines[0])
	}
	if lines[1] != "[Speaker 1 | 2.5s-4.9s] Better than last week" {
		t.Errorf("unexpected second line: %q", lines[1])
	}
}

func TestFormatTranscript_RoundsToOneDecimal(t *testing.T) {
	got := FormatTranscript([]models.Utterance{
		{Speaker: 2, Transcript: "ok", Start: 1.2345, End: 6.789},
	})

	want := "[Speaker 2 | 1.2s-6.8s] ok"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFormatTranscript_Empty(t *testing.T) {
	if got := FormatTranscript(nil); got != "" {
		t.Errorf("expected empty string for nil utterances, got %q", got)
	}
	if got := FormatTranscript([]models.Utterance{}); got != "" {
		t.Errorf("expected empty string for empty utterances, got %q", got)
	}
}

func TestFormatTranscript_PreservesInsertionOrder(t *testing.T) {
	// Out-of-order timestamps are not resorted.
	got := FormatTranscript([]models.Utterance{
		{Speaker: 1, Transcript: "second in time", Start: 5.0, End: 6.0},
		{Speaker: 0, Transcript: "first in time", Start: 1.0, End: 2.0},
	})

	lines := strings.Split(got, "\n")
	if !strings.Contains(lines[0], "second in time") {
		t.Errorf("expected insertion order preserved, got first line %q", lines[0])
	}
}

func TestFormatUtterances_Summary(t *testing.T) {
	result := &models.TranscriptionResult{
		Utterances: []models.Utterance{
			{Speaker: 0, Transcript: "Take one tablet daily", Start: 3.25, End: 5.0},
		},
	}

	got := FormatUtterances(result)
	want := "[3.2s] Speaker 0: Take one tablet daily"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFormatUtterances_FallsBackToFullTranscript(t *testing.T) {
	result := &models.TranscriptionResult{
		FullTranscript: "full text without diarization",
	}

	if got := FormatUtterances(result); got != "full text without diarization" {
		t.Errorf("expected fallback to full transcript, got %q", got)
	}
}

func TestFormatUtterances_NilResult(t *testing.T) {
	if got := FormatUtterances(nil); got != "" {
		t.Errorf("expected empty string for nil result, got %q", got)
	}
}

func TestMimetypeForPath(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"note.wav", "audio/wav"},
		{"note.WAV", "audio/wav"},
		{"visit.mp3", "audio/mpeg"},
		{"visit.mp4", "audio/mp4"},
		{"visit.m4a", "audio/mp4"},
		{"call.flac", "audio/flac"},
		{"call.ogg", "audio/ogg"},
		{"call.webm", "audio/webm"},
		{"mystery.xyz", "audio/wav"},
		{"noextension", "audio/wav"},
	}

	for _, tt := range tests {
		if got := MimetypeForPath(tt.path); got != tt.expected {
			t.Errorf("MimetypeForPath(%q) = %q, want %q", tt.path, got, tt.expected)
		}
	}
}
