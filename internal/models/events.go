package models

// Event types published to the document lifecycle topics.
const (
	EventDocumentBuilt            = "document.built"
	EventDocumentValidationFailed = "document.validation_failed"
	EventDocumentSubmitted        = "document.submitted"
	EventHL7MessageBuilt          = "hl7.message_built"
)

// DocumentEvent describes a FHIR DocumentReference lifecycle transition.
type DocumentEvent struct {
	EventType   string `json:"eventType"`
	PatientID   string `json:"patientId"`
	EncounterID string `json:"encounterId"`
	DocType     string `json:"docType"`
	LOINCCode   string `json:"loincCode"`
	Vendor      string `json:"vendor,omitempty"`
	StatusCode  int    `json:"statusCode,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

// HL7Event describes a built HL7v2 message.
type HL7Event struct {
	EventType   string `json:"eventType"`
	MessageType string `json:"messageType"`
	PatientID   string `json:"patientId"`
	ControlID   string `json:"controlId"`
	Timestamp   int64  `json:"timestamp"`
}
