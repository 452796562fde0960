package reader

import "github.com/dgallion1/readaloud/internal/highlight"

// EventKind names a reader transition.
type EventKind string

const (
	EventSessionStart EventKind = "session_start"
	EventChunk        EventKind = "chunk"
	EventHighlight    EventKind = "highlight"
	EventSessionEnd   EventKind = "session_end"
)

// EndReason explains why a reading session ended.
type EndReason string

const (
	ReasonCompleted    EndReason = "completed"
	ReasonStopped      EndReason = "stopped"
	ReasonExternalStop EndReason = "external_stop"
	ReasonDriverError  EndReason = "driver_error"
)

// Event is emitted to hooks at each transition.
type Event struct {
	Kind       EventKind        `json:"type"`
	Session    uint64           `json:"session"`
	ChunkIndex int              `json:"chunk_index"`
	ChunkCount int              `json:"chunk_count"`
	ChunkStart int              `json:"chunk_start,omitempty"`
	Highlight  *highlight.Range `json:"highlight,omitempty"`
	Reason     EndReason        `json:"reason,omitempty"`
}

// Hook observes reader events. Hooks run synchronously on the transition
// path and must not call back into the Reader.
type Hook func(Event)
