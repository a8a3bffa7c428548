// Package sse decodes server-sent-event streams the way OpenAI-compatible
// chat endpoints emit them: newline-delimited frames of the form
// `data: <json>`, ended by the `data: [DONE]` sentinel, possibly separated
// by blank or comment lines.
package sse

import (
	"encoding/json"
	"strings"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// FrameKind classifies one raw line from the wire.
type FrameKind int

const (
	// FrameIgnorable is a blank line, comment, or any non-data field.
	FrameIgnorable FrameKind = iota
	// FrameData carries one event payload.
	FrameData
	// FrameDone is the [DONE] sentinel ending the stream.
	FrameDone
)

func (k FrameKind) String() string {
	switch k {
	case FrameData:
		return "data"
	case FrameDone:
		return "done"
	default:
		return "ignorable"
	}
}

// Frame is one typed protocol event. Data is set only for FrameData and is
// not guaranteed to be valid JSON; the Decoder checks that before handing
// frames out.
type Frame struct {
	Kind FrameKind
	Data json.RawMessage
}

// Classify maps one raw line (trailing newline already stripped) to a frame.
// It is a pure function of the line text.
func Classify(line string) Frame {
	payload, ok := strings.CutPrefix(line, dataPrefix)
	if !ok {
		return Frame{Kind: FrameIgnorable}
	}
	payload = strings.TrimSpace(payload)
	if payload == doneSentinel {
		return Frame{Kind: FrameDone}
	}
	return Frame{Kind: FrameData, Data: json.RawMessage(payload)}
}
