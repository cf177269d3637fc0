package kbj

import "fmt"

// Opcode is the leading byte of an instruction record. It selects the
// instruction variant and its operand layout.
type Opcode byte

const (
	// ========================================================================
	// Scalar registers (0x01-0x0F)
	// ========================================================================

	OpLet    Opcode = 0x01 // Set register: OpLet <var:u8> <value:u8>
	OpAssign Opcode = 0x02 // Set register: OpAssign <var:u8> <value:u8>
	OpPrint  Opcode = 0x03 // Print register: OpPrint <var:u8>
	OpAdd    Opcode = 0x04 // Wrapping add: OpAdd <dest:u8> <src1:u8> <src2:u8>

	// ========================================================================
	// UI declarations (0x10-0x1F)
	// ========================================================================

	OpCreateUI      Opcode = 0x10 // OpCreateUI <type:u8> <id:u8> <count:u8> <entries...>
	OpSetUIProperty Opcode = 0x11 // OpSetUIProperty <id:u8> <prop:u8> <value:u8>
	OpOnUIEvent     Opcode = 0x12 // OpOnUIEvent <id:u8> <event:u8> <handler:u8>
	OpShowUI        Opcode = 0x13 // Assemble and show pending elements
	OpAttachChild   Opcode = 0x14 // OpAttachChild <parent:u8> <child:u8>

	// ========================================================================
	// Update hooks (0x20-0x2F)
	// ========================================================================

	OpCheckForUpdate Opcode = 0x20
	OpApplyUpdate    Opcode = 0x21
)

// OpcodeInfo provides metadata about each opcode for decoding and listings.
type OpcodeInfo struct {
	Name       string // Human-readable name
	OperandLen int    // Fixed operand bytes following the opcode
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpLet:    {"LET", 2},
	OpAssign: {"ASSIGN", 2},
	OpPrint:  {"PRINT", 1},
	OpAdd:    {"ADD", 3},

	// CreateUI carries a variable-length entry list after its 3-byte header.
	OpCreateUI:      {"CREATE_UI", 3},
	OpSetUIProperty: {"SET_UI_PROPERTY", 3},
	OpOnUIEvent:     {"ON_UI_EVENT", 3},
	OpShowUI:        {"SHOW_UI", 0},
	OpAttachChild:   {"ATTACH_CHILD", 2},

	OpCheckForUpdate: {"CHECK_FOR_UPDATE", 0},
	OpApplyUpdate:    {"APPLY_UPDATE", 0},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns an OpcodeInfo named "UNKNOWN(0x..)" with no operands if the
// opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// OperandLen returns the number of fixed operand bytes for this opcode.
func (op Opcode) OperandLen() int {
	return GetOpcodeInfo(op).OperandLen
}

// Known reports whether op is part of the opcode table.
func (op Opcode) Known() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// KnownIn reports whether op decodes as itself in a buffer whose header
// carries version. OpAttachChild is an unknown byte before AttachVersion.
func (op Opcode) KnownIn(version uint8) bool {
	if op == OpAttachChild && version < AttachVersion {
		return false
	}
	return op.Known()
}

// IsUI returns true for the UI declaration opcodes.
func (op Opcode) IsUI() bool {
	return op >= OpCreateUI && op <= OpAttachChild
}

// IsUpdate returns true for the reserved update hook opcodes.
func (op Opcode) IsUpdate() bool {
	return op == OpCheckForUpdate || op == OpApplyUpdate
}

// AllOpcodes returns a slice of all defined opcodes.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}
