package kbj

import (
	"errors"
	"fmt"
)

// Magic is the 3-byte prefix of every KBJ buffer: "NCO".
var Magic = [3]byte{0x4E, 0x43, 0x4F}

// HeaderSize is the magic plus the version byte.
const HeaderSize = len(Magic) + 1

// DefaultVersion is the version byte written by the compiler unless
// configured otherwise. Decoding accepts any version.
const DefaultVersion uint8 = 1

// AttachVersion is the first header version whose opcode table includes
// OpAttachChild. Older buffers read 0x14 as an unknown byte.
const AttachVersion uint8 = 2

var (
	// ErrInvalidHeader reports a buffer shorter than HeaderSize or a
	// magic prefix mismatch. No Program is produced.
	ErrInvalidHeader = errors.New("invalid KBJ header")

	// ErrIO reports that a KBJ file could not be read or written.
	ErrIO = errors.New("kbj i/o failure")

	// ErrEncode reports an instruction that has no valid encoding.
	ErrEncode = errors.New("kbj encode")
)

// WarningKind classifies a condition the decoder absorbed instead of
// failing.
type WarningKind uint8

const (
	// WarnTruncated: operands or a property payload ran past the end of
	// the buffer. Decoding stopped at Offset.
	WarnTruncated WarningKind = iota + 1

	// WarnInvalidText: a text property was not valid UTF-8 and was dropped.
	WarnInvalidText

	// WarnUnknownOpcode: the byte at Offset is not in the opcode table.
	WarnUnknownOpcode
)

// String returns a human-readable name for the warning kind.
func (k WarningKind) String() string {
	switch k {
	case WarnTruncated:
		return "truncated"
	case WarnInvalidText:
		return "invalid-text"
	case WarnUnknownOpcode:
		return "unknown-opcode"
	default:
		return fmt.Sprintf("WarningKind(%d)", uint8(k))
	}
}

// DecodeWarning records one absorbed decode condition.
type DecodeWarning struct {
	Kind   WarningKind
	Offset int    // Byte offset in the buffer where the condition was found
	Opcode Opcode // Opcode of the record being decoded
}

func (w DecodeWarning) String() string {
	if w.Kind == WarnUnknownOpcode {
		return fmt.Sprintf("%s at 0x%04X (0x%02X)", w.Kind, w.Offset, byte(w.Opcode))
	}
	return fmt.Sprintf("%s at 0x%04X (%s)", w.Kind, w.Offset, w.Opcode)
}

// Program is a decoded KBJ buffer. It is not modified after decoding.
type Program struct {
	Version      uint8
	Instructions []Instruction

	// Warnings lists conditions absorbed during decoding. A non-empty
	// list does not make the Program invalid.
	Warnings []DecodeWarning
}

// NewProgram creates a program with the default version.
func NewProgram(instrs ...Instruction) *Program {
	return &Program{Version: DefaultVersion, Instructions: instrs}
}

// Truncated reports whether decoding stopped before the end of the buffer.
func (p *Program) Truncated() bool {
	for _, w := range p.Warnings {
		if w.Kind == WarnTruncated {
			return true
		}
	}
	return false
}

// Len returns the number of decoded instructions.
func (p *Program) Len() int {
	return len(p.Instructions)
}
