package fhir

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"clinical-ehr-gateway/internal/models"
	"clinical-ehr-gateway/internal/transcription"
)

// DocumentReference is a FHIR R4 DocumentReference resource. Nested
// objects are map[string]any and nested lists are []any, matching the
// shape encoding/json produces, so resources decoded from the wire and
// resources built here validate the same way.
type DocumentReference map[string]any

// DefaultTitle is the attachment title used when none is supplied.
const DefaultTitle = "Clinical Transcription"

// BuildRequest carries the inputs for BuildDocumentReference.
// DocType defaults to progress_note and Title to DefaultTitle when
// empty. AuthorPractitionerID is optional; the author entry is omitted
// when it is empty.
type BuildRequest struct {
	Utterances           []models.Utterance
	PatientID            string
	EncounterID          string
	DocType              string
	AuthorPractitionerID string
	Title                string
}

// BuildDocumentReference assembles a FHIR R4 DocumentReference from
// diarized utterances. The formatted transcript is embedded as a base64
// text/plain attachment. Every built resource has status "current" and
// docStatus "final", and is validated before it is returned; the
// builder never hands back an invalid resource.
//
// PatientID and EncounterID must be non-blank; violations return an
// *InvalidArgumentError. Unknown DocType tags silently fall back to the
// progress note LOINC code.
func BuildDocumentReference(req BuildRequest) (DocumentReference, error) {
	if strings.TrimSpace(req.PatientID) == "" {
		return nil, &InvalidArgumentError{Field: "patientID"}
	}
	if strings.TrimSpace(req.EncounterID) == "" {
		return nil, &InvalidArgumentError{Field: "encounterID"}
	}

	title := req.Title
	if title == "" {
		title = DefaultTitle
	}
	loincCode := LOINCForDocType(req.DocType)
	transcript := transcription.FormatTranscript(req.Utterances)
	encoded := base64.StdEncoding.EncodeToString([]byte(transcript))
	now := time.Now().UTC().Format("2006-01-02T15:04:05Z")

	doc := DocumentReference{
		"resourceType": "DocumentReference",
		"status":       "current",
		"docStatus":    "final",
		"type": map[string]any{
			"coding": []any{map[string]any{
				"system":  LOINCSystem,
				"code":    loincCode,
				"display": LOINCDisplay(loincCode),
			}},
		},
		"subject": map[string]any{"reference": "Patient/" + req.PatientID},
		"date":    now,
		"content": []any{map[string]any{
			"attachment": map[string]any{
				"contentType": "text/plain",
				"data":        encoded,
				"title":       title,
			},
		}},
		"context": map[string]any{
			"encounter": []any{map[string]any{"reference": "Encounter/" + req.EncounterID}},
		},
	}

	if req.AuthorPractitionerID != "" {
		doc["author"] = []any{map[string]any{"reference": "Practitioner/" + req.AuthorPractitionerID}}
	}

	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// DecodeContent extracts and base64-decodes the transcript attachment
// from a DocumentReference. Missing keys and malformed base64 return a
// *DecodeError naming the cause.
func DecodeContent(doc DocumentReference) (string, error) {
	content := listField(doc, "content")
	if len(content) == 0 {
		return "", &DecodeError{Cause: errors.New(`missing key "content"`)}
	}
	entry, ok := content[0].(map[string]any)
	if !ok {
		return "", &DecodeError{Cause: errors.New("content[0] is not an object")}
	}
	attachment := mapField(entry, "attachment")
	if attachment == nil {
		return "", &DecodeError{Cause: errors.New(`missing key "attachment"`)}
	}
	data, ok := attachment["data"].(string)
	if !ok {
		return "", &DecodeError{Cause: errors.New(`missing key "data"`)}
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", &DecodeError{Cause: err}
	}
	return string(decoded), nil
}

// LOINCCode returns type.coding[0].code, or "" when absent. Used by
// callers recording document metadata without re-walking the map.
func (d DocumentReference) LOINCCode() string {
	coding := listField(mapField(d, "type"), "coding")
	if len(coding) == 0 {
		return ""
	}
	first, ok := coding[0].(map[string]any)
	if !ok {
		return ""
	}
	return stringField(first, "code")
}
