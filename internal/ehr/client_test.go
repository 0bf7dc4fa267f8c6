package ehr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"clinical-ehr-gateway/internal/fhir"
	"clinical-ehr-gateway/internal/models"
)

// staticTokenProvider returns a fixed token, or an error when set.
type staticTokenProvider struct {
	token string
	err   error
}

func (p *staticTokenProvider) Token(_ context.Context) (string, error) {
	return p.token, p.err
}

func buildTestDocument(t *testing.T) fhir.DocumentReference {
	t.Helper()
	doc, err := fhir.BuildDocumentReference(fhir.BuildRequest{
		Utterances:  []models.Utterance{{Speaker: 0, Transcript: "Stable.", Start: 0, End: 1}},
		PatientID:   "p1",
		EncounterID: "e1",
	})
	if err != nil {
		t.Fatalf("failed to build test document: %v", err)
	}
	return doc
}

func TestClient_SubmitDocumentReference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/fhir/DocumentReference" {
			t.Errorf("expected path /fhir/DocumentReference, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/fhir+json" {
			t.Errorf("expected FHIR content type, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("expected bearer token header, got %q", got)
		}

		var doc map[string]any
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			t.Errorf("body did not decode as JSON: %v", err)
		}
		if doc["resourceType"] != "DocumentReference" {
			t.Errorf("expected DocumentReference body, got %v", doc["resourceType"])
		}

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"created-1"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/fhir", nil)
	if err := client.Authenticate(context.Background(), &staticTokenProvider{token: "test-token"}); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}

	resp, err := client.SubmitDocumentReference(context.Background(), buildTestDocument(t))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected 201, got %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"id":"created-1"}` {
		t.Errorf("expected response body passed through, got %q", resp.Body)
	}
}

func TestClient_RequiresAuthentication(t *testing.T) {
	client := NewClient("http://example.invalid/fhir", nil)

	_, err := client.SubmitDocumentReference(context.Background(), buildTestDocument(t))
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated from submit, got %v", err)
	}

	_, err = client.GetResource(context.Background(), "Patient", "p1")
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated from get, got %v", err)
	}
}

func TestClient_AuthenticateFailurePropagates(t *testing.T) {
	client := NewClient("http://example.invalid/fhir", nil)

	wantErr := errors.New("grant rejected")
	err := client.Authenticate(context.Background(), &staticTokenProvider{err: wantErr})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected provider error, got %v", err)
	}

	// A failed flow must leave the client unauthenticated.
	_, err = client.SubmitDocumentReference(context.Background(), buildTestDocument(t))
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated after failed flow, got %v", err)
	}
}

func TestClient_TrimsTrailingSlash(t *testing.T) {
	client := NewClient("http://example.invalid/fhir/", nil)
	if got := client.BaseURL(); got != "http://example.invalid/fhir" {
		t.Errorf("expected trailing slash trimmed, got %q", got)
	}
}

func TestClient_GetResource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Patient/patient-9" {
			t.Errorf("expected path /Patient/patient-9, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "application/fhir+json" {
			t.Errorf("expected FHIR accept header, got %q", got)
		}
		w.Write([]byte(`{"resourceType":"Patient","id":"patient-9"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	if err := client.Authenticate(context.Background(), &staticTokenProvider{token: "tok"}); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}

	resp, err := client.GetResource(context.Background(), "Patient", "patient-9")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	var patient map[string]any
	if err := json.Unmarshal(resp.Body, &patient); err != nil {
		t.Fatalf("response body did not decode: %v", err)
	}
	if patient["id"] != "patient-9" {
		t.Errorf("expected patient-9, got %v", patient["id"])
	}
}
