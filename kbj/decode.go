package kbj

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Decoder
// ---------------------------------------------------------------------------

// decoder walks a KBJ buffer forward. It never moves backward and never
// reads past len(data).
type decoder struct {
	data []byte
	pos  int
	prog *Program
}

// Decode parses a KBJ buffer into a Program.
//
// Only a short buffer or a magic mismatch is an error (ErrInvalidHeader).
// A record that runs past the end of the buffer stops decoding and the
// instructions decoded so far are returned as a successful Program, with
// a WarnTruncated entry in Program.Warnings. Unknown opcodes decode as
// Unknown and consume one byte.
func Decode(data []byte) (*Program, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: need at least %d bytes, got %d", ErrInvalidHeader, HeaderSize, len(data))
	}
	if !bytes.Equal(data[:len(Magic)], Magic[:]) {
		return nil, fmt.Errorf("%w: expected magic %q, got %q", ErrInvalidHeader, Magic[:], data[:len(Magic)])
	}

	d := &decoder{
		data: data,
		pos:  HeaderSize,
		prog: &Program{Version: data[len(Magic)]},
	}
	d.run()
	return d.prog, nil
}

// ReadFile reads and decodes a KBJ file. Read failures wrap ErrIO.
func ReadFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	p, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func (d *decoder) run() {
	for d.pos < len(d.data) {
		start := d.pos
		op := Opcode(d.data[start])

		if !op.KnownIn(d.prog.Version) {
			d.emit(Unknown{Op: byte(op)})
			d.warn(WarnUnknownOpcode, start, op)
			d.pos++
			continue
		}

		n := op.OperandLen()
		if start+1+n > len(d.data) {
			d.warn(WarnTruncated, start, op)
			return
		}
		operands := d.data[start+1 : start+1+n]
		d.pos = start + 1 + n

		instr, more := d.decodeRecord(op, operands)
		d.emit(instr)
		if !more {
			return
		}
	}
}

// decodeRecord builds the instruction for op from its fixed operands.
// more is false when the record was cut short and decoding must stop.
func (d *decoder) decodeRecord(op Opcode, b []byte) (instr Instruction, more bool) {
	switch op {
	case OpLet:
		return Let{Var: b[0], Value: b[1]}, true
	case OpAssign:
		return Assign{Var: b[0], Value: b[1]}, true
	case OpPrint:
		return Print{Var: b[0]}, true
	case OpAdd:
		return Add{Dest: b[0], Src1: b[1], Src2: b[2]}, true
	case OpCreateUI:
		return d.decodeCreateUI(b)
	case OpSetUIProperty:
		return SetUIProperty{ID: b[0], Property: b[1], Value: b[2]}, true
	case OpOnUIEvent:
		return OnUIEvent{ID: b[0], Event: EventType(b[1]), Handler: b[2]}, true
	case OpShowUI:
		return ShowUI{}, true
	case OpAttachChild:
		return AttachChild{Parent: b[0], Child: b[1]}, true
	case OpCheckForUpdate:
		return CheckForUpdate{}, true
	case OpApplyUpdate:
		return ApplyUpdate{}, true
	}
	// Known() guards the dispatch; an opcode in the table without a case
	// here is a programming error.
	panic(fmt.Sprintf("kbj: no decoder for opcode %s", op))
}

// decodeCreateUI reads the property entries that follow a CreateUI header.
// The entry loop stops after DeclaredCount entries or when the buffer runs
// out, whichever comes first.
func (d *decoder) decodeCreateUI(h []byte) (Instruction, bool) {
	c := CreateUI{
		Type:          ElementType(h[0]),
		ID:            h[1],
		DeclaredCount: h[2],
	}

	for range int(c.DeclaredCount) {
		entry := d.pos
		if entry >= len(d.data) {
			d.warn(WarnTruncated, entry, OpCreateUI)
			return c, false
		}
		id := d.data[entry]

		// Both entry forms need at least one byte after the id.
		if entry+1 >= len(d.data) {
			d.warn(WarnTruncated, entry, OpCreateUI)
			return c, false
		}

		if id != PropText {
			c.Properties = append(c.Properties, Property{ID: id, Value: d.data[entry+1]})
			d.pos = entry + 2
			continue
		}

		n := int(d.data[entry+1])
		if entry+2+n > len(d.data) {
			d.warn(WarnTruncated, entry, OpCreateUI)
			return c, false
		}
		text := d.data[entry+2 : entry+2+n]
		d.pos = entry + 2 + n

		if !utf8.Valid(text) {
			d.warn(WarnInvalidText, entry, OpCreateUI)
			continue
		}
		c.Properties = append(c.Properties, Property{ID: id, Text: string(text)})
	}
	return c, true
}

func (d *decoder) emit(instr Instruction) {
	d.prog.Instructions = append(d.prog.Instructions, instr)
}

func (d *decoder) warn(kind WarningKind, offset int, op Opcode) {
	d.prog.Warnings = append(d.prog.Warnings, DecodeWarning{Kind: kind, Offset: offset, Opcode: op})
}
