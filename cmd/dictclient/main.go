// dictclient submits a dictation audio file to the gateway: the audio
// is transcribed through POST /v1/transcriptions, then the resulting
// utterances are built into a DocumentReference through
// POST /v1/documents.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"clinical-ehr-gateway/internal/models"
	"clinical-ehr-gateway/internal/transcription"
)

func main() {
	audioFile := flag.String("audio", "dictation.wav", "Path to the dictation audio file")
	serverAddr := flag.String("server", "http://localhost:8080", "Gateway base URL")
	patientID := flag.String("patient", "patient-demo", "Patient identifier")
	encounterID := flag.String("encounter", "encounter-"+time.Now().Format("150405"), "Encounter identifier")
	docType := flag.String("doctype", "progress_note", "Document type for the built note")
	keyterms := flag.String("keyterms", "", "Comma-separated clinical key terms")
	flag.Parse()

	audio, err := os.ReadFile(*audioFile)
	if err != nil {
		log.Fatalf("Failed to read audio file: %v", err)
	}
	mimetype := transcription.MimetypeForPath(*audioFile)
	log.Printf("Submitting %d bytes of %s audio to %s", len(audio), mimetype, *serverAddr)

	client := &http.Client{Timeout: 120 * time.Second}

	result := transcribe(client, *serverAddr, audio, mimetype, *keyterms)
	log.Printf("Transcribed %d utterances (%d transcript chars)", len(result.Utterances), len(result.FullTranscript))

	doc := buildDocument(client, *serverAddr, result.Utterances, *patientID, *encounterID, *docType)
	log.Printf("Built DocumentReference: patientId=%s encounterId=%s", *patientID, *encounterID)

	if err := json.NewEncoder(os.Stdout).Encode(doc); err != nil {
		log.Fatalf("Failed to print document: %v", err)
	}
}

func transcribe(client *http.Client, server string, audio []byte, mimetype, keyterms string) *models.TranscriptionResult {
	endpoint := server + "/v1/transcriptions"
	if keyterms != "" {
		q := url.Values{}
		for _, term := range strings.Split(keyterms, ",") {
			if term = strings.TrimSpace(term); term != "" {
				q.Add("keyterm", term)
			}
		}
		endpoint += "?" + q.Encode()
	}

	resp, err := client.Post(endpoint, mimetype, bytes.NewReader(audio))
	if err != nil {
		log.Fatalf("Transcription request failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Failed to read transcription response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Transcription failed: status=%d body=%s", resp.StatusCode, body)
	}

	var result models.TranscriptionResult
	if err := json.Unmarshal(body, &result); err != nil {
		log.Fatalf("Failed to parse transcription response: %v", err)
	}
	return &result
}

func buildDocument(client *http.Client, server string, utterances []models.Utterance, patientID, encounterID, docType string) map[string]any {
	payload, err := json.Marshal(map[string]any{
		"utterances":  utterances,
		"patientId":   patientID,
		"encounterId": encounterID,
		"docType":     docType,
	})
	if err != nil {
		log.Fatalf("Failed to encode document request: %v", err)
	}

	resp, err := client.Post(server+"/v1/documents", "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("Document request failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Failed to read document response: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("Document build failed: status=%d body=%s", resp.StatusCode, body)
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		log.Fatalf("Failed to parse document response: %v", err)
	}
	return doc
}
