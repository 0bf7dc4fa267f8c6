package hl7v2

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestNewMessageControlID_Format(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	id := NewMessageControlID(at)

	if !regexp.MustCompile(`^MSG\d{18}$`).MatchString(id) {
		t.Errorf("expected MSG + 18 digits, got %q", id)
	}
	if !strings.HasPrefix(id, "MSG20240115103000") {
		t.Errorf("expected timestamp-derived prefix, got %q", id)
	}
}

func TestNewDocumentID_Format(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	id := NewDocumentID(at)

	if !regexp.MustCompile(`^DOC\d{18}$`).MatchString(id) {
		t.Errorf("expected DOC + 18 digits, got %q", id)
	}
}

// Rapid successive calls within the same second must not collide.
func TestIDsUniqueWithinSameInstant(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewMessageControlID(at)
		if seen[id] {
			t.Fatalf("duplicate control ID after %d calls: %s", i, id)
		}
		seen[id] = true
	}
}

func TestTimestampIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	at := time.Date(2024, 1, 15, 15, 30, 0, 0, loc)

	if got := timestamp(at); got != "20240115103000" {
		t.Errorf("expected local time converted to UTC, got %q", got)
	}
}
