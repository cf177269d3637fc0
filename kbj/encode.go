package kbj

import (
	"fmt"
	"math"
	"os"
)

// Encode serializes a program to a KBJ buffer.
// Format:
//
//	[magic:3 "NCO"] [version:1]
//	[opcode:1] [operands...] ...
//
// CreateUI is always written in the count-prefixed form: the count byte
// is len(Properties), followed by each entry as
// [id:1] [len:1] [text...] for PropText or [id:1] [value:1] otherwise.
func Encode(p *Program) ([]byte, error) {
	buf := make([]byte, 0, HeaderSize+len(p.Instructions)*4)
	buf = append(buf, Magic[:]...)
	buf = append(buf, p.Version)

	var err error
	for i, instr := range p.Instructions {
		if err := checkVersion(instr, p.Version); err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		buf, err = instr.appendTo(buf)
		if err != nil {
			return nil, fmt.Errorf("instruction %d (%s): %w", i, instr.Opcode(), err)
		}
	}
	return buf, nil
}

// checkVersion rejects records that would decode as something else in a
// buffer carrying version.
func checkVersion(instr Instruction, version uint8) error {
	op := instr.Opcode()
	if _, bare := instr.(Unknown); bare {
		if op.KnownIn(version) {
			return fmt.Errorf("%w: byte 0x%02X is a known opcode in version %d", ErrEncode, byte(op), version)
		}
		return nil
	}
	if !op.KnownIn(version) {
		return fmt.Errorf("%w: %s requires version %d or later, buffer is version %d", ErrEncode, op, AttachVersion, version)
	}
	return nil
}

// WriteFile encodes p and writes it to path. Write failures wrap ErrIO.
func WriteFile(path string, p *Program) error {
	data, err := Encode(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

func (i Let) appendTo(buf []byte) ([]byte, error) {
	return append(buf, byte(OpLet), i.Var, i.Value), nil
}

func (i Assign) appendTo(buf []byte) ([]byte, error) {
	return append(buf, byte(OpAssign), i.Var, i.Value), nil
}

func (i Print) appendTo(buf []byte) ([]byte, error) {
	return append(buf, byte(OpPrint), i.Var), nil
}

func (i Add) appendTo(buf []byte) ([]byte, error) {
	return append(buf, byte(OpAdd), i.Dest, i.Src1, i.Src2), nil
}

func (i CreateUI) appendTo(buf []byte) ([]byte, error) {
	if len(i.Properties) > math.MaxUint8 {
		return nil, fmt.Errorf("%w: %d properties exceed the 255 entry limit", ErrEncode, len(i.Properties))
	}
	buf = append(buf, byte(OpCreateUI), byte(i.Type), i.ID, byte(len(i.Properties)))
	for _, p := range i.Properties {
		if !p.IsText() {
			buf = append(buf, p.ID, p.Value)
			continue
		}
		if len(p.Text) > math.MaxUint8 {
			return nil, fmt.Errorf("%w: text property is %d bytes, limit is 255", ErrEncode, len(p.Text))
		}
		buf = append(buf, p.ID, byte(len(p.Text)))
		buf = append(buf, p.Text...)
	}
	return buf, nil
}

func (i SetUIProperty) appendTo(buf []byte) ([]byte, error) {
	return append(buf, byte(OpSetUIProperty), i.ID, i.Property, i.Value), nil
}

func (i OnUIEvent) appendTo(buf []byte) ([]byte, error) {
	return append(buf, byte(OpOnUIEvent), i.ID, byte(i.Event), i.Handler), nil
}

func (ShowUI) appendTo(buf []byte) ([]byte, error) {
	return append(buf, byte(OpShowUI)), nil
}

func (i AttachChild) appendTo(buf []byte) ([]byte, error) {
	return append(buf, byte(OpAttachChild), i.Parent, i.Child), nil
}

func (CheckForUpdate) appendTo(buf []byte) ([]byte, error) {
	return append(buf, byte(OpCheckForUpdate)), nil
}

func (ApplyUpdate) appendTo(buf []byte) ([]byte, error) {
	return append(buf, byte(OpApplyUpdate)), nil
}

func (i Unknown) appendTo(buf []byte) ([]byte, error) {
	return append(buf, i.Op), nil
}
