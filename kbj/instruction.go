package kbj

import "fmt"

// PropText is the reserved property id whose payload is length-prefixed
// UTF-8 text. Every other property id carries one numeric byte.
const PropText uint8 = 1

// ElementType is the numeric discriminator of a UI element descriptor.
type ElementType uint8

const (
	ElementButton ElementType = 1
	ElementLabel  ElementType = 2
	ElementInput  ElementType = 3
	ElementLayout ElementType = 4 // vertical layout
)

// String returns a human-readable name for the element type.
func (t ElementType) String() string {
	switch t {
	case ElementButton:
		return "Button"
	case ElementLabel:
		return "Label"
	case ElementInput:
		return "Input"
	case ElementLayout:
		return "Layout"
	default:
		return fmt.Sprintf("ElementType(%d)", uint8(t))
	}
}

// EventType selects which interaction an OnUIEvent binds.
type EventType uint8

const (
	EventClick  EventType = 1
	EventChange EventType = 2
)

// String returns a human-readable name for the event type.
func (e EventType) String() string {
	switch e {
	case EventClick:
		return "click"
	case EventChange:
		return "change"
	default:
		return fmt.Sprintf("event(%d)", uint8(e))
	}
}

// Property is one CreateUI entry. When ID is PropText the payload is
// Text, otherwise it is Value.
type Property struct {
	ID    uint8
	Value uint8
	Text  string
}

// IsText reports whether the entry carries a text payload.
func (p Property) IsText() bool {
	return p.ID == PropText
}

func (p Property) String() string {
	if p.IsText() {
		return fmt.Sprintf("%d=%q", p.ID, p.Text)
	}
	return fmt.Sprintf("%d=%d", p.ID, p.Value)
}

// Instruction is one decoded KBJ record. The set of implementations is
// closed: only the types in this file satisfy it.
type Instruction interface {
	Opcode() Opcode
	// appendTo appends the encoded record, opcode included.
	appendTo(buf []byte) ([]byte, error)
	isInstruction()
}

// Let sets register Var to Value.
type Let struct {
	Var   uint8
	Value uint8
}

// Assign sets register Var to Value. It has the same effect as Let.
type Assign struct {
	Var   uint8
	Value uint8
}

// Print emits the decimal value of register Var.
type Print struct {
	Var uint8
}

// Add stores (Src1 + Src2) mod 256 in Dest.
type Add struct {
	Dest uint8
	Src1 uint8
	Src2 uint8
}

// CreateUI declares a pending UI element. DeclaredCount is the advisory
// entry count read from the buffer; Properties holds the entries that
// were actually decoded.
type CreateUI struct {
	Type          ElementType
	ID            uint8
	DeclaredCount uint8
	Properties    []Property
}

// SetUIProperty sets a numeric property on a pending element.
type SetUIProperty struct {
	ID       uint8
	Property uint8
	Value    uint8
}

// OnUIEvent binds a handler id to an element's interaction event.
type OnUIEvent struct {
	ID      uint8
	Event   EventType
	Handler uint8
}

// ShowUI assembles the pending elements into a shown tree.
type ShowUI struct{}

// AttachChild records Child as an explicit child of pending element Parent.
type AttachChild struct {
	Parent uint8
	Child  uint8
}

// CheckForUpdate is a reserved update hook.
type CheckForUpdate struct{}

// ApplyUpdate is a reserved update hook.
type ApplyUpdate struct{}

// Unknown is any byte that is not in the opcode table.
type Unknown struct {
	Op byte
}

func (Let) Opcode() Opcode            { return OpLet }
func (Assign) Opcode() Opcode         { return OpAssign }
func (Print) Opcode() Opcode          { return OpPrint }
func (Add) Opcode() Opcode            { return OpAdd }
func (CreateUI) Opcode() Opcode       { return OpCreateUI }
func (SetUIProperty) Opcode() Opcode  { return OpSetUIProperty }
func (OnUIEvent) Opcode() Opcode      { return OpOnUIEvent }
func (ShowUI) Opcode() Opcode         { return OpShowUI }
func (AttachChild) Opcode() Opcode    { return OpAttachChild }
func (CheckForUpdate) Opcode() Opcode { return OpCheckForUpdate }
func (ApplyUpdate) Opcode() Opcode    { return OpApplyUpdate }
func (u Unknown) Opcode() Opcode      { return Opcode(u.Op) }

func (Let) isInstruction()            {}
func (Assign) isInstruction()         {}
func (Print) isInstruction()          {}
func (Add) isInstruction()            {}
func (CreateUI) isInstruction()       {}
func (SetUIProperty) isInstruction()  {}
func (OnUIEvent) isInstruction()      {}
func (ShowUI) isInstruction()         {}
func (AttachChild) isInstruction()    {}
func (CheckForUpdate) isInstruction() {}
func (ApplyUpdate) isInstruction()    {}
func (Unknown) isInstruction()        {}

// Text returns the text payload of property id PropText, if present.
func (c CreateUI) Text() (string, bool) {
	for _, p := range c.Properties {
		if p.IsText() {
			return p.Text, true
		}
	}
	return "", false
}
