package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndQuery(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	entries := []Entry{
		{Vendor: "epic", PatientID: "patient-123", EncounterID: "encounter-456", DocType: "progress_note", LOINCCode: "11506-3", StatusCode: 201},
		{Vendor: "epic", PatientID: "patient-123", EncounterID: "encounter-456", DocType: "consult_note", LOINCCode: "11488-4", StatusCode: 201},
		{Vendor: "cerner", PatientID: "patient-999", EncounterID: "encounter-other", DocType: "ambient", LOINCCode: "34109-9", StatusCode: 403},
	}
	for _, e := range entries {
		if err := s.Record(ctx, e); err != nil {
			t.Fatalf("failed to record entry: %v", err)
		}
	}

	got, err := s.ByEncounter(ctx, "encounter-456")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].DocType != "progress_note" || got[1].DocType != "consult_note" {
		t.Errorf("expected insertion order, got %s then %s", got[0].DocType, got[1].DocType)
	}
	if got[0].Vendor != "epic" {
		t.Errorf("expected vendor 'epic', got %s", got[0].Vendor)
	}
	if got[0].StatusCode != 201 {
		t.Errorf("expected status 201, got %d", got[0].StatusCode)
	}
	if got[0].SubmittedAt.IsZero() {
		t.Error("expected zero SubmittedAt to be stamped")
	}
	if got[0].ID == 0 {
		t.Error("expected assigned row ID")
	}
}

func TestStore_ByEncounter_Empty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.ByEncounter(context.Background(), "no-such-encounter")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if got == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(got) != 0 {
		t.Errorf("expected no entries, got %d", len(got))
	}
}

func TestStore_PreservesExplicitTimestamp(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	err := s.Record(ctx, Entry{
		Vendor:      "epic",
		PatientID:   "patient-123",
		EncounterID: "encounter-ts",
		DocType:     "progress_note",
		LOINCCode:   "11506-3",
		StatusCode:  201,
		SubmittedAt: at,
	})
	if err != nil {
		t.Fatalf("failed to record entry: %v", err)
	}

	got, err := s.ByEncounter(ctx, "encounter-ts")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if !got[0].SubmittedAt.Equal(at) {
		t.Errorf("expected timestamp %v, got %v", at, got[0].SubmittedAt)
	}
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "audit.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open store in nested directory: %v", err)
	}
	defer s.Close()

	if err := s.Record(context.Background(), Entry{Vendor: "epic", PatientID: "p", EncounterID: "e", DocType: "progress_note", LOINCCode: "11506-3", StatusCode: 201}); err != nil {
		t.Errorf("failed to record: %v", err)
	}
}
