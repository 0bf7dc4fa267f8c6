package pipeline

import (
	"strings"
	"testing"

	"clinical-ehr-gateway/internal/fhir"
	"clinical-ehr-gateway/internal/hl7v2"
	"clinical-ehr-gateway/internal/models"
)

func triageResult() *models.TranscriptionResult {
	return &models.TranscriptionResult{
		Utterances: []models.Utterance{
			{Speaker: 0, Transcript: "Nurse triage line, how can I help", Start: 0.2, End: 2.1, Confidence: 0.98},
			{Speaker: 1, Transcript: "My son has a fever of 103", Start: 2.8, End: 5.3, Confidence: 0.95},
		},
		FullTranscript: "Nurse triage line, how can I help My son has a fever of 103",
	}
}

func TestContactCenter_ToFHIR(t *testing.T) {
	cc := NewContactCenter()

	doc, err := cc.ToFHIR(triageResult(), "patient-123", "encounter-456")
	if err != nil {
		t.Fatalf("ToFHIR failed: %v", err)
	}

	if doc.LOINCCode() != fhir.LOINCProgressNote {
		t.Errorf("expected progress note code, got %s", doc.LOINCCode())
	}

	content := doc["content"].([]any)[0].(map[string]any)
	attachment := content["attachment"].(map[string]any)
	if attachment["title"] != TriageTitle {
		t.Errorf("expected title %q, got %v", TriageTitle, attachment["title"])
	}

	text, err := fhir.DecodeContent(doc)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !strings.Contains(text, "fever of 103") {
		t.Errorf("expected call content in attachment, got %q", text)
	}
}

func TestContactCenter_ToORU(t *testing.T) {
	cc := NewContactCenter()

	raw := cc.ToORU(triageResult(), "patient-123", "order-42", "1234567890")

	msg, err := hl7v2.Parse(raw)
	if err != nil {
		t.Fatalf("built message failed to parse: %v", err)
	}
	if msg.Type() != "ORU^R01" {
		t.Errorf("expected ORU^R01, got %s", msg.Type())
	}
	obr := msg.Segment("OBR")
	if obr == nil {
		t.Fatal("expected OBR segment")
	}
	if obr.Field(2) != "order-42" {
		t.Errorf("expected order ID in OBR-2, got %q", obr.Field(2))
	}
	obx := msg.Segment("OBX")
	if !strings.Contains(obx.Field(5), "fever of 103") {
		t.Errorf("expected transcript in OBX-5, got %q", obx.Field(5))
	}
}

func TestContactCenter_ToORU_NilResult(t *testing.T) {
	cc := NewContactCenter()

	raw := cc.ToORU(nil, "patient-123", "order-42", "1234567890")
	if _, err := hl7v2.Parse(raw); err != nil {
		t.Errorf("expected parseable message for nil result, got %v", err)
	}
}
