package fhir

import (
	"fmt"
	"strings"
)

// InvalidArgumentError reports a required builder argument that was
// empty or blank.
type InvalidArgumentError struct {
	Field string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s must not be empty", e.Field)
}

// ValidationError reports every rule a DocumentReference violated.
// All checks run before the error is raised, so a caller sees the
// complete list in one pass.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("FHIR R4 DocumentReference validation failed (%d error(s)):\n  - %s",
		len(e.Violations), strings.Join(e.Violations, "\n  - "))
}

// DecodeError reports a failure to extract or decode attachment content.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode DocumentReference content: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}
