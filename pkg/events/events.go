// Package events implements the §6 event-stream contract: given a job
// snapshot, a Generator emits only the deltas since the last snapshot it
// saw, diffing strictly by id. Grounded on the teacher's
// pkg/agui/stream_adapter.go SSEWriter/WriteEvent pattern (an io.Writer +
// Flush() sink, "event: %s\ndata: %s\n\n" framing), with its protobuf
// enum-to-string switch replaced by a plain string-typed EventType enum
// of the shape this spec names.
package events

import (
	"encoding/json"
	"fmt"
	"io"
)

// SSEWriter is the sink WriteEvent writes to, matching the teacher's
// pkg/agui SSEWriter contract exactly: an io.Writer plus a Flush hook so
// the HTTP layer can push bytes to the client immediately.
type SSEWriter interface {
	io.Writer
	Flush()
}

// EventType enumerates every event the stream contract can emit.
type EventType string

const (
	EventStatus               EventType = "status"
	EventPreliminaryAnnotation EventType = "preliminary_annotation"
	EventAnnotation            EventType = "annotation"
	EventAnnotationUpdate      EventType = "annotation_update"
	EventAnnotationRemoved     EventType = "annotation_removed"
	EventIndividualAdded       EventType = "individual_added"
	EventPropertyAdded         EventType = "property_added"
	EventDocumentType          EventType = "document_type"
	EventActivity              EventType = "activity"
	EventError                 EventType = "error"
	EventComplete              EventType = "complete"
)

// Event is one emitted SSE event: a type tag plus an arbitrary JSON
// payload, matching the contract's per-type payload shapes.
type Event struct {
	Type    EventType `json:"-"`
	Payload any       `json:"-"`
}

// Writer writes Events as SSE frames to an SSEWriter, matching the
// teacher's "event: %s\ndata: %s\n\n" + Flush() framing exactly.
type Writer struct {
	sink SSEWriter
}

func NewWriter(sink SSEWriter) *Writer { return &Writer{sink: sink} }

func (w *Writer) WriteEvent(ev Event) error {
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	if _, err := fmt.Fprintf(w.sink, "event: %s\ndata: %s\n\n", ev.Type, string(data)); err != nil {
		return err
	}
	w.sink.Flush()
	return nil
}
