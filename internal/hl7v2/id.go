package hl7v2

import (
	"fmt"
	"sync/atomic"
	"time"
)

// idCounter disambiguates IDs generated within the same second. Wall
// clock precision alone is not enough: two messages built in the same
// instant must still carry distinct control IDs.
var idCounter uint64

// newID returns prefix + 14-digit UTC timestamp + a 4-digit sequence
// number, 18 characters after the prefix.
func newID(prefix string, t time.Time) string {
	seq := atomic.AddUint64(&idCounter, 1) % 10000
	return fmt.Sprintf("%s%s%04d", prefix, timestamp(t), seq)
}

// NewMessageControlID generates an MSH-10 message control ID.
func NewMessageControlID(t time.Time) string {
	return newID("MSG", t)
}

// NewDocumentID generates a TXA document identifier.
func NewDocumentID(t time.Time) string {
	return newID("DOC", t)
}
