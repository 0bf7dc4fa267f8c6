// Package audit persists a record of every EHR submission in an
// embedded SQLite database, queryable by encounter.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Entry is one recorded submission.
type Entry struct {
	ID          int64     `json:"id"`
	Vendor      string    `json:"vendor"`
	PatientID   string    `json:"patientId"`
	EncounterID string    `json:"encounterId"`
	DocType     string    `json:"docType"`
	LOINCCode   string    `json:"loincCode"`
	StatusCode  int       `json:"statusCode"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Store is a SQLite-backed audit trail. Writes are serialized; SQLite
// allows only one writer at a time.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (or creates) the audit database at dbPath and ensures the
// schema exists.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating audit directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing audit schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS submissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		vendor TEXT NOT NULL,
		patient_id TEXT NOT NULL,
		encounter_id TEXT NOT NULL,
		doc_type TEXT NOT NULL,
		loinc_code TEXT NOT NULL,
		status_code INTEGER NOT NULL,
		submitted_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_encounter_id ON submissions(encounter_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts a submission entry. A zero SubmittedAt is stamped with
// the current UTC time.
func (s *Store) Record(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	submittedAt := e.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (vendor, patient_id, encounter_id, doc_type, loinc_code, status_code, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Vendor, e.PatientID, e.EncounterID, e.DocType, e.LOINCCode, e.StatusCode, submittedAt)
	if err != nil {
		return fmt.Errorf("recording submission: %w", err)
	}
	return nil
}

// ByEncounter returns all submissions for an encounter, oldest first.
func (s *Store) ByEncounter(ctx context.Context, encounterID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, vendor, patient_id, encounter_id, doc_type, loinc_code, status_code, submitted_at
		 FROM submissions WHERE encounter_id = ? ORDER BY id`,
		encounterID)
	if err != nil {
		return nil, fmt.Errorf("querying submissions: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Vendor, &e.PatientID, &e.EncounterID, &e.DocType, &e.LOINCCode, &e.StatusCode, &e.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scanning submission: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
