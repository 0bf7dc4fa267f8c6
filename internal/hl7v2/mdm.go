// Package hl7v2 builds and parses HL7 version 2.5.1 messages for
// transmitting transcribed clinical documents to an EHR. Builders
// produce pipe-delimited segment strings joined by carriage return;
// the parser splits them back for inspection and routing.
package hl7v2

import (
	"strings"
	"time"
)

// MDMParams carries the inputs for an MDM^T02 message. Transcript,
// PatientID, VisitID, and ProviderNPI are required by the receiving
// system; the rest default when left empty.
type MDMParams struct {
	Transcript  string
	PatientID   string
	VisitID     string
	ProviderNPI string

	// DocumentID is the TXA document identifier. Generated from the
	// message timestamp when empty.
	DocumentID string

	SendingApp        string
	SendingFacility   string
	ReceivingApp      string
	ReceivingFacility string
}

// BuildMDMT02 builds an MDM^T02 (original document notification and
// content) message: MSH, EVN, PID, PV1, TXA, OBX. The transcript rides
// in OBX-5 with pipes and line breaks escaped.
func BuildMDMT02(p MDMParams) string {
	now := time.Now().UTC()
	ts := timestamp(now)
	messageID := NewMessageControlID(now)
	documentID := orDefault(p.DocumentID, NewDocumentID(now))

	segments := []string{
		buildMSH(ts, "MDM^T02", messageID,
			orDefault(p.SendingApp, DefaultSendingApp),
			orDefault(p.SendingFacility, DefaultSendingFacility),
			orDefault(p.ReceivingApp, DefaultReceivingApp),
			orDefault(p.ReceivingFacility, DefaultReceivingFacility)),
		buildEVN(ts),
		buildPID(p.PatientID),
		buildPV1(p.VisitID, p.ProviderNPI),
		buildTXA(ts, documentID, p.ProviderNPI),
		buildOBX(p.Transcript, "18842-5", "Discharge summary"),
	}
	return strings.Join(segments, "\r")
}
