package fhir

import (
	"encoding/base64"
	"fmt"
	"regexp"
)

var validStatuses = map[string]bool{
	"current":          true,
	"superseded":       true,
	"entered-in-error": true,
}

var validDocStatuses = map[string]bool{
	"preliminary":      true,
	"final":            true,
	"amended":          true,
	"entered-in-error": true,
}

// referencePattern matches 'ResourceType/id' references. The resource
// type segment must start with an uppercase letter per FHIR convention.
var referencePattern = regexp.MustCompile(`^[A-Z][A-Za-z]+/.+$`)

// instantPattern matches FHIR instants: second precision with either a
// literal Z or a signed hh:mm offset.
var instantPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(Z|[+-]\d{2}:\d{2})$`)

// Validate checks a DocumentReference against the R4 structural rules
// enforced offline. Every rule runs; all violations are aggregated into
// a single *ValidationError so a caller sees the complete list at once.
// A nil return means the resource passed every check.
func Validate(doc DocumentReference) error {
	var violations []string

	if rt := doc["resourceType"]; rt != "DocumentReference" {
		violations = append(violations, fmt.Sprintf("resourceType must be \"DocumentReference\", got %v", quoted(rt)))
	}

	status := doc["status"]
	if status == nil || status == "" {
		violations = append(violations, "status is required")
	} else if s, ok := status.(string); !ok || !validStatuses[s] {
		violations = append(violations, fmt.Sprintf("status %v is not a valid R4 code (want one of current, superseded, entered-in-error)", quoted(status)))
	}

	if docStatus := doc["docStatus"]; docStatus != nil && docStatus != "" {
		if s, ok := docStatus.(string); !ok || !validDocStatuses[s] {
			violations = append(violations, fmt.Sprintf("docStatus %v is not a valid R4 code (want one of preliminary, final, amended, entered-in-error)", quoted(docStatus)))
		}
	}

	coding := listField(mapField(doc, "type"), "coding")
	if len(coding) == 0 {
		violations = append(violations, "type.coding must have at least one entry")
	} else {
		first, _ := coding[0].(map[string]any)
		if system := stringField(first, "system"); system != LOINCSystem {
			violations = append(violations, fmt.Sprintf("type.coding[0].system must be %q, got %q", LOINCSystem, system))
		}
		if stringField(first, "code") == "" {
			violations = append(violations, "type.coding[0].code is required")
		}
	}

	subjectRef := stringField(mapField(doc, "subject"), "reference")
	if subjectRef == "" {
		violations = append(violations, "subject.reference is required")
	} else if !referencePattern.MatchString(subjectRef) {
		violations = append(violations, fmt.Sprintf("subject.reference %q must match 'ResourceType/id'", subjectRef))
	}

	if date := stringField(doc, "date"); date != "" && !instantPattern.MatchString(date) {
		violations = append(violations, fmt.Sprintf("date %q must be a FHIR instant (YYYY-MM-DDTHH:MM:SSZ)", date))
	}

	content := listField(doc, "content")
	if len(content) == 0 {
		violations = append(violations, "content must have at least one entry")
	} else {
		first, _ := content[0].(map[string]any)
		data := stringField(mapField(first, "attachment"), "data")
		if data != "" {
			if _, err := base64.StdEncoding.Strict().DecodeString(data); err != nil {
				violations = append(violations, "content[0].attachment.data is not valid base64")
			}
		}
	}

	for i, entry := range listField(mapField(doc, "context"), "encounter") {
		enc, _ := entry.(map[string]any)
		if ref := stringField(enc, "reference"); !referencePattern.MatchString(ref) {
			violations = append(violations, fmt.Sprintf("context.encounter[%d].reference %q must match 'ResourceType/id'", i, ref))
		}
	}

	for i, entry := range listField(doc, "author") {
		author, _ := entry.(map[string]any)
		if ref := stringField(author, "reference"); !referencePattern.MatchString(ref) {
			violations = append(violations, fmt.Sprintf("author[%d].reference %q must match 'ResourceType/id'", i, ref))
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// quoted renders a field value for a violation message: strings quoted,
// everything else (including nil) via %v.
func quoted(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func mapField(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]any)
	return v
}

func listField(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	v, _ := m[key].([]any)
	return v
}
