package hl7v2

import (
	"strings"
	"time"
)

// ORUParams carries the inputs for an ORU^R01 message. LOINCCode and
// LOINCDisplay default to the progress note coding when left empty and
// appear in both OBR-4 and OBX-3.
type ORUParams struct {
	Transcript  string
	PatientID   string
	OrderID     string
	ProviderNPI string

	LOINCCode    string
	LOINCDisplay string

	SendingApp        string
	SendingFacility   string
	ReceivingApp      string
	ReceivingFacility string
}

// BuildORUR01 builds an ORU^R01 (unsolicited observation result)
// message: MSH, PID, OBR, OBX. The transcript rides in OBX-5 as a text
// observation with pipes and line breaks escaped.
func BuildORUR01(p ORUParams) string {
	now := time.Now().UTC()
	ts := timestamp(now)
	messageID := NewMessageControlID(now)
	loincCode := orDefault(p.LOINCCode, "11506-3")
	loincDisplay := orDefault(p.LOINCDisplay, "Progress note")

	segments := []string{
		buildMSH(ts, "ORU^R01", messageID,
			orDefault(p.SendingApp, DefaultSendingApp),
			orDefault(p.SendingFacility, DefaultSendingFacility),
			orDefault(p.ReceivingApp, DefaultReceivingApp),
			orDefault(p.ReceivingFacility, DefaultReceivingFacility)),
		buildPID(p.PatientID),
		buildOBR(p.OrderID, ts, p.ProviderNPI, loincCode, loincDisplay),
		buildOBX(p.Transcript, loincCode, loincDisplay),
	}
	return strings.Join(segments, "\r")
}
