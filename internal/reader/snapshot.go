package reader

import "github.com/dgallion1/readaloud/internal/highlight"

// Snapshot is a read-only copy of the reading session state.
type Snapshot struct {
	State      string           `json:"state"`
	Reading    bool             `json:"is_reading"`
	Paused     bool             `json:"is_paused"`
	Session    uint64           `json:"session"`
	ChunkIndex int              `json:"chunk_index"`
	ChunkCount int              `json:"chunk_count"`
	ChunkStart int              `json:"chunk_start"`
	Highlight  *highlight.Range `json:"highlight"`
	Supported  bool             `json:"supported"`
}

// Snapshot returns a copy of the current state.
func (r *Reader) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		State:      r.state.String(),
		Reading:    r.state == StateReading,
		Paused:     r.paused,
		Session:    r.generation,
		ChunkIndex: r.index,
		ChunkCount: len(r.chunks),
		Supported:  r.supported,
	}
	if r.index < len(r.chunks) {
		snap.ChunkStart = r.chunks[r.index].Start
	}
	if r.hasHighlight {
		h := r.highlight
		snap.Highlight = &h
	}
	return snap
}
