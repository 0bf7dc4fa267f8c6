package hl7v2

import (
	"fmt"
	"strings"
	"time"
)

const (
	// FieldSeparator is MSH-1.
	FieldSeparator = "|"
	// EncodingChars is MSH-2.
	EncodingChars = `^~\&`
	// Version is MSH-12 for every message this package builds.
	Version = "2.5.1"
)

// Default MSH routing values used when a caller leaves them blank.
const (
	DefaultSendingApp        = "DEEPGRAM"
	DefaultSendingFacility   = "EHR"
	DefaultReceivingApp      = "EHR_SYSTEM"
	DefaultReceivingFacility = "FACILITY"
)

// timestamp renders t as the 14-digit HL7 DTM (YYYYMMDDHHMMSS) in UTC.
func timestamp(t time.Time) string {
	return t.UTC().Format("20060102150405")
}

// escapeText makes free text safe for use as a field value. Pipes become
// the HL7 escape sequence \F\; carriage returns and newlines would start
// a new segment, so they collapse to spaces.
func escapeText(text string) string {
	safe := strings.ReplaceAll(text, "|", `\F\`)
	safe = strings.ReplaceAll(safe, "\r", " ")
	safe = strings.ReplaceAll(safe, "\n", " ")
	return safe
}

// buildMSH constructs the message header. MSH-8 (security) is left empty.
func buildMSH(ts, messageType, controlID, sendingApp, sendingFacility, receivingApp, receivingFacility string) string {
	return fmt.Sprintf("MSH|%s|%s|%s|%s|%s|%s||%s|%s|P|%s",
		EncodingChars, sendingApp, sendingFacility, receivingApp, receivingFacility,
		ts, messageType, controlID, Version)
}

// buildEVN constructs the event type segment. EVN-1 (event type code) is
// implied by MSH-9 in v2.5.1 and left empty.
func buildEVN(ts string) string {
	return fmt.Sprintf("EVN||%s", ts)
}

// buildPID constructs the patient identification segment with the MRN in
// PID-3. Demographics beyond the identifier are not available at build
// time, so PID-5 carries placeholder name components and PID-8 is U.
func buildPID(patientID string) string {
	return fmt.Sprintf("PID|1||%s^^^MRN||LastName^FirstName|||U", patientID)
}

// buildPV1 constructs the patient visit segment: inpatient class, the
// provider in PV1-9, and the visit number in PV1-17.
func buildPV1(visitID, providerNPI string) string {
	return fmt.Sprintf("PV1|1|I|^^^WARD^^BED||||||%s^Provider^Name||||||||%s",
		providerNPI, visitID)
}

// buildTXA constructs the transcription document header: document type
// in TXA-2, the document identifier in TXA-9 and TXA-11, completion
// status AU (authenticated) in TXA-12, availability AV in TXA-14.
func buildTXA(ts, documentID, providerNPI string) string {
	return fmt.Sprintf("TXA|1|PN^Progress Note|TX|%s|%s^Provider^Name|%s|%s||%s||%s|AU||AV",
		ts, providerNPI, ts, ts, documentID, documentID)
}

// buildOBR constructs the observation request segment with the placer
// order number in OBR-2 and the LOINC-coded service in OBR-4.
func buildOBR(orderID, ts, providerNPI, loincCode, loincDisplay string) string {
	return fmt.Sprintf("OBR|1|%s||%s^%s^LN|||%s|||%s^Provider^Name",
		orderID, loincCode, loincDisplay, ts, providerNPI)
}

// buildOBX constructs a text observation segment carrying the escaped
// transcript in OBX-5 with result status F (final).
func buildOBX(transcript, loincCode, loincDisplay string) string {
	return fmt.Sprintf("OBX|1|TX|%s^%s^LN||%s||||||F",
		loincCode, loincDisplay, escapeText(transcript))
}

// orDefault returns v unless it is empty.
func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
