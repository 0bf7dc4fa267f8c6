// notegen builds a clinical artifact offline from a diarized utterance
// JSON file: a FHIR DocumentReference, an HL7 MDM^T02, or an HL7
// ORU^R01.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"clinical-ehr-gateway/internal/fhir"
	"clinical-ehr-gateway/internal/hl7v2"
	"clinical-ehr-gateway/internal/models"
	"clinical-ehr-gateway/internal/transcription"
)

func main() {
	input := flag.String("input", "utterances.json", "Path to a JSON array of utterances")
	format := flag.String("format", "fhir", "Output format: fhir, mdm, or oru")
	patientID := flag.String("patient", "", "Patient identifier (required)")
	encounterID := flag.String("encounter", "", "Encounter identifier (required for fhir)")
	docType := flag.String("doctype", "", "Document type: progress_note, consult_note, discharge_summary, ambient")
	visitID := flag.String("visit", "", "Visit identifier (mdm)")
	orderID := flag.String("order", "", "Order identifier (oru)")
	providerNPI := flag.String("npi", "", "Ordering/authoring provider NPI (mdm, oru)")
	out := flag.String("out", "", "Output file (default stdout)")
	flag.Parse()

	if *patientID == "" {
		log.Fatal("-patient is required")
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}
	var utterances []models.Utterance
	if err := json.Unmarshal(data, &utterances); err != nil {
		log.Fatalf("Failed to parse utterances: %v", err)
	}
	log.Printf("Loaded %d utterances from %s", len(utterances), *input)

	var artifact []byte
	switch strings.ToLower(*format) {
	case "fhir":
		doc, err := fhir.BuildDocumentReference(fhir.BuildRequest{
			Utterances:  utterances,
			PatientID:   *patientID,
			EncounterID: *encounterID,
			DocType:     *docType,
		})
		if err != nil {
			log.Fatalf("Failed to build DocumentReference: %v", err)
		}
		artifact, err = json.MarshalIndent(doc, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode DocumentReference: %v", err)
		}
	case "mdm":
		msg := hl7v2.BuildMDMT02(hl7v2.MDMParams{
			Transcript:  transcription.FormatTranscript(utterances),
			PatientID:   *patientID,
			VisitID:     *visitID,
			ProviderNPI: *providerNPI,
		})
		artifact = []byte(msg)
	case "oru":
		msg := hl7v2.BuildORUR01(hl7v2.ORUParams{
			Transcript:  transcription.FormatTranscript(utterances),
			PatientID:   *patientID,
			OrderID:     *orderID,
			ProviderNPI: *providerNPI,
		})
		artifact = []byte(msg)
	default:
		log.Fatalf("Unknown format %q (want fhir, mdm, or oru)", *format)
	}

	if *out == "" {
		fmt.Println(string(artifact))
		return
	}
	if err := os.WriteFile(*out, artifact, 0o644); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
	log.Printf("Wrote %s artifact to %s", *format, *out)
}
