package ws

import "unicode"

// Message types sent to the speech client.
const (
	TypeSpeak  = "speak"
	TypePause  = "pause"
	TypeResume = "resume"
	TypeStop   = "stop"
)

// Message types received from the speech client.
const (
	TypeHello    = "hello"
	TypeBoundary = "boundary"
	TypeEnd      = "end"
	TypeStopped  = "stopped"
	TypeError    = "error"
)

// Message is the JSON frame exchanged with the speech client. CharIndex is a
// UTF-16 code unit offset, as reported by browser speech engines.
type Message struct {
	Type      string `json:"type"`
	ID        uint64 `json:"id,omitempty"`
	Text      string `json:"text,omitempty"`
	CharIndex int    `json:"char_index,omitempty"`
	Supported *bool  `json:"supported,omitempty"`
	Error     string `json:"error,omitempty"`
}

// runeIndex converts a UTF-16 offset into text to a rune offset. Offsets that
// land inside a surrogate pair round up to the next rune.
func runeIndex(text []rune, utf16Index int) int {
	units := 0
	for i, r := range text {
		if units >= utf16Index {
			return i
		}
		units += utf16RuneLen(r)
	}
	return len(text)
}

// utf16RuneLen mirrors utf16.RuneLen (Go 1.23+) for older toolchains.
func utf16RuneLen(r rune) int {
	switch {
	case 0 <= r && r < 0xd800, 0xe000 <= r && r < 0x10000:
		return 1
	case 0x10000 <= r && r <= unicode.MaxRune:
		return 2
	default:
		return -1
	}
}
