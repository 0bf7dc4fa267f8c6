package hl7v2

import (
	"fmt"
	"strings"
)

// Message is a parsed HL7v2 message: an ordered list of segments.
type Message struct {
	Segments []Segment
}

// Segment is a single parsed segment. Fields are accessed by their
// 1-based HL7 position; for MSH, field 1 is the field separator itself.
type Segment struct {
	Name   string
	fields []string
}

// Parse splits a raw HL7v2 message into segments. Segments may be
// separated by \r, \n, or \r\n; the first segment must be MSH.
func Parse(raw string) (*Message, error) {
	if raw == "" {
		return nil, fmt.Errorf("hl7v2: message is empty")
	}

	text := strings.ReplaceAll(raw, "\r\n", "\r")
	text = strings.ReplaceAll(text, "\n", "\r")

	var lines []string
	for _, line := range strings.Split(text, "\r") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("hl7v2: no segments found")
	}
	if !strings.HasPrefix(lines[0], "MSH") {
		return nil, fmt.Errorf("hl7v2: first segment must be MSH, got %q", lines[0])
	}

	msg := &Message{}
	for _, line := range lines {
		seg, err := parseSegment(line)
		if err != nil {
			return nil, err
		}
		msg.Segments = append(msg.Segments, seg)
	}
	return msg, nil
}

func parseSegment(line string) (Segment, error) {
	// MSH is special: the separator after the name is itself MSH-1, so
	// the split starts after "MSH|" and the separator is prepended as
	// the first field.
	if strings.HasPrefix(line, "MSH|") {
		fields := append([]string{"|"}, strings.Split(line[len("MSH|"):], "|")...)
		return Segment{Name: "MSH", fields: fields}, nil
	}

	parts := strings.Split(line, "|")
	if len(parts[0]) != 3 {
		return Segment{}, fmt.Errorf("hl7v2: invalid segment name %q", parts[0])
	}
	return Segment{Name: parts[0], fields: parts[1:]}, nil
}

// Field returns the value at a 1-based field position, or "" when the
// segment has no such field.
func (s *Segment) Field(index int) string {
	if index < 1 || index > len(s.fields) {
		return ""
	}
	return s.fields[index-1]
}

// Component returns the 1-based component of a 1-based field, splitting
// on the ^ component separator.
func (s *Segment) Component(fieldIndex, componentIndex int) string {
	components := strings.Split(s.Field(fieldIndex), "^")
	if componentIndex < 1 || componentIndex > len(components) {
		return ""
	}
	return components[componentIndex-1]
}

// Segment returns the first segment with the given name, or nil.
func (m *Message) Segment(name string) *Segment {
	for i := range m.Segments {
		if m.Segments[i].Name == name {
			return &m.Segments[i]
		}
	}
	return nil
}

// All returns every segment with the given name.
func (m *Message) All(name string) []Segment {
	var out []Segment
	for _, seg := range m.Segments {
		if seg.Name == name {
			out = append(out, seg)
		}
	}
	return out
}

// Type returns the MSH-9 message type, e.g. "MDM^T02".
func (m *Message) Type() string {
	if msh := m.Segment("MSH"); msh != nil {
		return msh.Field(9)
	}
	return ""
}

// ControlID returns the MSH-10 message control ID.
func (m *Message) ControlID() string {
	if msh := m.Segment("MSH"); msh != nil {
		return msh.Field(10)
	}
	return ""
}

// Version returns the MSH-12 version ID.
func (m *Message) Version() string {
	if msh := m.Segment("MSH"); msh != nil {
		return msh.Field(12)
	}
	return ""
}

// PatientID returns PID-3.1, the bare patient identifier without its
// assigning-authority components.
func (m *Message) PatientID() string {
	if pid := m.Segment("PID"); pid != nil {
		return pid.Component(3, 1)
	}
	return ""
}
