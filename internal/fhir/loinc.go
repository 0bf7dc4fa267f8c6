// Package fhir builds and validates FHIR R4 DocumentReference resources
// from clinical transcripts.
package fhir

// LOINCSystem is the coding system URI for LOINC document type codes.
const LOINCSystem = "http://loinc.org"

// LOINC document type codes for transcribed clinical notes.
const (
	LOINCProgressNote     = "11506-3"
	LOINCConsultNote      = "11488-4"
	LOINCDischargeSummary = "18842-5"
	LOINCAmbientClinical  = "34109-9"
)

// Document type tags accepted by the builder.
const (
	DocTypeProgressNote     = "progress_note"
	DocTypeConsultNote      = "consult_note"
	DocTypeDischargeSummary = "discharge_summary"
	DocTypeAmbient          = "ambient"
)

// docTypeLOINC maps document type tags to LOINC codes. Unknown tags fall
// back to the progress note code; this never fails.
var docTypeLOINC = map[string]string{
	DocTypeProgressNote:     LOINCProgressNote,
	DocTypeConsultNote:      LOINCConsultNote,
	DocTypeDischargeSummary: LOINCDischargeSummary,
	DocTypeAmbient:          LOINCAmbientClinical,
}

// LOINCForDocType returns the LOINC code for a document type tag,
// falling back to the progress note code for unrecognized tags.
func LOINCForDocType(docType string) string {
	if code, ok := docTypeLOINC[docType]; ok {
		return code
	}
	return LOINCProgressNote
}

// LOINCDisplay returns the display string for a LOINC document code.
func LOINCDisplay(code string) string {
	switch code {
	case LOINCProgressNote:
		return "Progress note"
	case LOINCConsultNote:
		return "Consult note"
	case LOINCDischargeSummary:
		return "Discharge summary"
	case LOINCAmbientClinical:
		return "Note"
	default:
		return "Clinical note"
	}
}
