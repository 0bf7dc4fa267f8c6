package fhir

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"clinical-ehr-gateway/internal/models"
)

func TestBuildDocumentReference_ConcreteScenario(t *testing.T) {
	doc, err := BuildDocumentReference(BuildRequest{
		Utterances: []models.Utterance{
			{Speaker: 0, Transcript: "Good morning", Start: 0.5, End: 3.2, Confidence: 0.98},
		},
		PatientID:   "patient-123",
		EncounterID: "encounter-456",
		DocType:     DocTypeConsultNote,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if code := doc.LOINCCode(); code != "11488-4" {
		t.Errorf("expected LOINC code 11488-4, got %s", code)
	}

	subject := mapField(doc, "subject")
	if ref := stringField(subject, "reference"); ref != "Patient/patient-123" {
		t.Errorf("expected subject reference Patient/patient-123, got %s", ref)
	}

	encounters := listField(mapField(doc, "context"), "encounter")
	if len(encounters) != 1 {
		t.Fatalf("expected 1 encounter entry, got %d", len(encounters))
	}
	enc, _ := encounters[0].(map[string]any)
	if ref := stringField(enc, "reference"); ref != "Encounter/encounter-456" {
		t.Errorf("expected encounter reference Encounter/encounter-456, got %s", ref)
	}

	decoded, err := DecodeContent(doc)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if decoded != "[Speaker 0 | 0.5s-3.2s] Good morning" {
		t.Errorf("unexpected decoded transcript: %q", decoded)
	}
}

func TestBuildDocumentReference_RoundTrip(t *testing.T) {
	utterances := []models.Utterance{
		{Speaker: 0, Transcript: "Patient presents with chest pain", Start: 0.0, End: 4.1},
		{Speaker: 1, Transcript: "It started two days ago", Start: 4.5, End: 7.0},
		{Speaker: 0, Transcript: "Any shortness of breath?", Start: 7.4, End: 9.2},
	}

	doc, err := BuildDocumentReference(BuildRequest{
		Utterances:  utterances,
		PatientID:   "p1",
		EncounterID: "e1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, err := DecodeContent(doc)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	for _, u := range utterances {
		if !strings.Contains(decoded, u.Transcript) {
			t.Errorf("decoded transcript missing %q", u.Transcript)
		}
	}
}

func TestBuildDocumentReference_OutputAlwaysValidates(t *testing.T) {
	doc, err := BuildDocumentReference(BuildRequest{
		Utterances:           []models.Utterance{{Speaker: 0, Transcript: "ok", Start: 0, End: 1}},
		PatientID:            "p1",
		EncounterID:          "e1",
		DocType:              DocTypeDischargeSummary,
		AuthorPractitionerID: "np-42",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Re-validating the builder's output must never fail.
	if err := Validate(doc); err != nil {
		t.Errorf("expected built resource to re-validate, got %v", err)
	}
}

func TestBuildDocumentReference_LOINCCoverage(t *testing.T) {
	tests := []struct {
		docType string
		code    string
		display string
	}{
		{"progress_note", "11506-3", "Progress note"},
		{"consult_note", "11488-4", "Consult note"},
		{"discharge_summary", "18842-5", "Discharge summary"},
		{"ambient", "34109-9", "Note"},
	}

	for _, tt := range tests {
		t.Run(tt.docType, func(t *testing.T) {
			doc, err := BuildDocumentReference(BuildRequest{
				PatientID:   "p1",
				EncounterID: "e1",
				DocType:     tt.docType,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			coding := listField(mapField(doc, "type"), "coding")
			first, _ := coding[0].(map[string]any)
			if got := stringField(first, "code"); got != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, got)
			}
			if got := stringField(first, "display"); got != tt.display {
				t.Errorf("expected display %q, got %q", tt.display, got)
			}
			if got := stringField(first, "system"); got != LOINCSystem {
				t.Errorf("expected system %q, got %q", LOINCSystem, got)
			}
		})
	}
}

// Unrecognized document types deliberately fall back to the progress
// note code instead of failing. Pinned so any future change to the
// fallback is intentional.
func TestBuildDocumentReference_UnknownDocTypeSilentlyFallsBack(t *testing.T) {
	doc, err := BuildDocumentReference(BuildRequest{
		PatientID:   "p1",
		EncounterID: "e1",
		DocType:     "operative_note",
	})
	if err != nil {
		t.Fatalf("expected silent fallback, got error: %v", err)
	}
	if code := doc.LOINCCode(); code != LOINCProgressNote {
		t.Errorf("expected fallback to %s, got %s", LOINCProgressNote, code)
	}

	// Empty DocType takes the same path.
	doc, err = BuildDocumentReference(BuildRequest{PatientID: "p1", EncounterID: "e1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code := doc.LOINCCode(); code != LOINCProgressNote {
		t.Errorf("expected default code %s, got %s", LOINCProgressNote, code)
	}
}

func TestBuildDocumentReference_EmptyIDsRejected(t *testing.T) {
	tests := []struct {
		name        string
		patientID   string
		encounterID string
		wantField   string
	}{
		{"empty patient", "", "e1", "patientID"},
		{"blank patient", "   ", "e1", "patientID"},
		{"empty encounter", "p1", "", "encounterID"},
		{"blank encounter", "p1", "\t ", "encounterID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildDocumentReference(BuildRequest{
				PatientID:   tt.patientID,
				EncounterID: tt.encounterID,
			})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var invalid *InvalidArgumentError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidArgumentError, got %T", err)
			}
			if invalid.Field != tt.wantField {
				t.Errorf("expected field %s, got %s", tt.wantField, invalid.Field)
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("expected error to name %s, got %q", tt.wantField, err.Error())
			}
		})
	}
}

func TestBuildDocumentReference_AuthorOnlyWhenSupplied(t *testing.T) {
	doc, err := BuildDocumentReference(BuildRequest{PatientID: "p1", EncounterID: "e1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, present := doc["author"]; present {
		t.Error("expected no author entry when practitioner ID is absent")
	}

	doc, err = BuildDocumentReference(BuildRequest{
		PatientID:            "p1",
		EncounterID:          "e1",
		AuthorPractitionerID: "dr-jones",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	authors := listField(doc, "author")
	if len(authors) != 1 {
		t.Fatalf("expected 1 author entry, got %d", len(authors))
	}
	author, _ := authors[0].(map[string]any)
	if ref := stringField(author, "reference"); ref != "Practitioner/dr-jones" {
		t.Errorf("expected author reference Practitioner/dr-jones, got %s", ref)
	}
}

func TestBuildDocumentReference_FixedStatusAndAttachment(t *testing.T) {
	doc, err := BuildDocumentReference(BuildRequest{PatientID: "p1", EncounterID: "e1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := stringField(doc, "status"); got != "current" {
		t.Errorf("expected status current, got %s", got)
	}
	if got := stringField(doc, "docStatus"); got != "final" {
		t.Errorf("expected docStatus final, got %s", got)
	}

	content := listField(doc, "content")
	first, _ := content[0].(map[string]any)
	attachment := mapField(first, "attachment")
	if got := stringField(attachment, "contentType"); got != "text/plain" {
		t.Errorf("expected contentType text/plain, got %s", got)
	}
	if got := stringField(attachment, "title"); got != DefaultTitle {
		t.Errorf("expected default title %q, got %q", DefaultTitle, got)
	}
}

func TestBuildDocumentReference_CustomTitle(t *testing.T) {
	doc, err := BuildDocumentReference(BuildRequest{
		PatientID:   "p1",
		EncounterID: "e1",
		Title:       "Telehealth Visit Transcript",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content := listField(doc, "content")
	first, _ := content[0].(map[string]any)
	if got := stringField(mapField(first, "attachment"), "title"); got != "Telehealth Visit Transcript" {
		t.Errorf("expected custom title, got %q", got)
	}
}

func TestBuildDocumentReference_EmptyUtterances(t *testing.T) {
	doc, err := BuildDocumentReference(BuildRequest{PatientID: "p1", EncounterID: "e1"})
	if err != nil {
		t.Fatalf("expected empty utterances to build, got %v", err)
	}
	decoded, err := DecodeContent(doc)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if decoded != "" {
		t.Errorf("expected empty transcript, got %q", decoded)
	}
}

func TestBuildDocumentReference_DateIsFHIRInstant(t *testing.T) {
	doc, err := BuildDocumentReference(BuildRequest{PatientID: "p1", EncounterID: "e1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	date := stringField(doc, "date")
	if !regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`).MatchString(date) {
		t.Errorf("expected second-precision UTC instant, got %q", date)
	}
}

func TestDecodeContent_Errors(t *testing.T) {
	tests := []struct {
		name      string
		doc       DocumentReference
		wantCause string
	}{
		{"missing content", DocumentReference{}, `missing key "content"`},
		{"empty content list", DocumentReference{"content": []any{}}, `missing key "content"`},
		{"missing attachment", DocumentReference{"content": []any{map[string]any{}}}, `missing key "attachment"`},
		{
			"missing data",
			DocumentReference{"content": []any{map[string]any{"attachment": map[string]any{}}}},
			`missing key "data"`,
		},
		{
			"invalid base64",
			DocumentReference{"content": []any{map[string]any{"attachment": map[string]any{"data": "!!!not-base64!!!"}}}},
			"illegal base64",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeContent(tt.doc)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected DecodeError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.wantCause) {
				t.Errorf("expected cause %q in error, got %q", tt.wantCause, err.Error())
			}
			if !strings.Contains(err.Error(), "cannot decode DocumentReference content") {
				t.Errorf("expected decode error prefix, got %q", err.Error())
			}
		})
	}
}
