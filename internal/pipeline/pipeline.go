// Package pipeline orchestrates the gateway's use case flows: ambient
// documentation, physician dictation, telehealth visits, and contact
// center triage calls. Pipelines glue the transcription adapters, the
// FHIR and HL7 builders, and the EHR client together; they hold no
// transformation logic of their own.
package pipeline

import (
	"context"

	"clinical-ehr-gateway/internal/audit"
	"clinical-ehr-gateway/internal/ehr"
	"clinical-ehr-gateway/internal/fhir"
)

// Submitter posts a validated DocumentReference to an EHR. Satisfied by
// *ehr.Client; faked in tests.
type Submitter interface {
	SubmitDocumentReference(ctx context.Context, doc fhir.DocumentReference) (*ehr.Response, error)
}

// EventPublisher publishes document lifecycle events. Satisfied by
// *events.Publisher.
type EventPublisher interface {
	PublishDocument(ctx context.Context, encounterID string, event any) error
	PublishHL7(ctx context.Context, patientID string, event any) error
}

// Auditor records EHR submissions. Satisfied by *audit.Store; nil-able
// when auditing is disabled.
type Auditor interface {
	Record(ctx context.Context, entry audit.Entry) error
}
