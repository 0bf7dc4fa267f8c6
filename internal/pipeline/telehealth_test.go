package pipeline

import (
	"testing"

	"clinical-ehr-gateway/internal/fhir"
	"clinical-ehr-gateway/internal/models"
)

func telehealthResult() *models.TranscriptionResult {
	return &models.TranscriptionResult{
		Utterances: []models.Utterance{
			{Speaker: 0, Transcript: "How is the new medication working", Start: 0.5, End: 2.8, Confidence: 0.98},
			{Speaker: 1, Transcript: "Much better, less dizziness", Start: 3.2, End: 5.9, Confidence: 0.94},
			{Speaker: 0, Transcript: "Good, keep the same dose", Start: 6.4, End: 8.1, Confidence: 0.97},
			{Speaker: 2, Transcript: "Should he rest more", Start: 8.8, End: 10.2, Confidence: 0.91},
		},
	}
}

func TestTelehealth_SeparateSpeakers(t *testing.T) {
	th := NewTelehealth()

	provider, patient := th.SeparateSpeakers(telehealthResult())

	if len(provider) != 2 {
		t.Errorf("expected 2 provider utterances, got %d", len(provider))
	}
	if len(patient) != 2 {
		t.Errorf("expected 2 patient-side utterances, got %d", len(patient))
	}
	for _, u := range provider {
		if u.Speaker != SpeakerProvider {
			t.Errorf("provider track contains speaker %d", u.Speaker)
		}
	}
	for _, u := range patient {
		if u.Speaker == SpeakerProvider {
			t.Error("patient track contains the provider")
		}
	}
}

func TestTelehealth_SeparateSpeakers_NilResult(t *testing.T) {
	th := NewTelehealth()

	provider, patient := th.SeparateSpeakers(nil)
	if provider == nil || patient == nil {
		t.Error("expected empty slices, got nil")
	}
	if len(provider) != 0 || len(patient) != 0 {
		t.Error("expected no utterances for nil result")
	}
}

func TestTelehealth_ToFHIR(t *testing.T) {
	th := NewTelehealth()

	doc, err := th.ToFHIR(telehealthResult(), "patient-123", "encounter-456")
	if err != nil {
		t.Fatalf("ToFHIR failed: %v", err)
	}

	if doc.LOINCCode() != fhir.LOINCConsultNote {
		t.Errorf("expected consult note code %s, got %s", fhir.LOINCConsultNote, doc.LOINCCode())
	}

	content := doc["content"].([]any)[0].(map[string]any)
	attachment := content["attachment"].(map[string]any)
	if attachment["title"] != TelehealthTitle {
		t.Errorf("expected title %q, got %v", TelehealthTitle, attachment["title"])
	}
}
