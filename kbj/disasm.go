package kbj

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the program.
func (p *Program) Disassemble() string {
	return p.DisassembleWithName("")
}

// DisassembleWithName returns a listing with a name header.
func (p *Program) DisassembleWithName(name string) string {
	var sb strings.Builder

	if name != "" {
		fmt.Fprintf(&sb, "; === %s ===\n", name)
	}
	fmt.Fprintf(&sb, "; KBJ v%d, %d instructions\n", p.Version, len(p.Instructions))
	sb.WriteString("\n; Code:\n")

	for i, instr := range p.Instructions {
		fmt.Fprintf(&sb, "%04d  %s\n", i, FormatInstruction(instr))
	}

	if len(p.Warnings) > 0 {
		sb.WriteString("\n; Warnings:\n")
		for _, w := range p.Warnings {
			fmt.Fprintf(&sb, ";   %s\n", w)
		}
	}
	return sb.String()
}

// InstructionName returns the listing name of instr. A bare byte is named
// UNKNOWN(0x..) even when a later header version assigns it an opcode.
func InstructionName(instr Instruction) string {
	if u, ok := instr.(Unknown); ok {
		return fmt.Sprintf("UNKNOWN(0x%02X)", u.Op)
	}
	return instr.Opcode().String()
}

// FormatInstruction renders one instruction as NAME followed by its operands.
func FormatInstruction(instr Instruction) string {
	name := InstructionName(instr)

	switch i := instr.(type) {
	case Let:
		return fmt.Sprintf("%-16s r%d, %d", name, i.Var, i.Value)
	case Assign:
		return fmt.Sprintf("%-16s r%d, %d", name, i.Var, i.Value)
	case Print:
		return fmt.Sprintf("%-16s r%d", name, i.Var)
	case Add:
		return fmt.Sprintf("%-16s r%d, r%d, r%d", name, i.Dest, i.Src1, i.Src2)
	case CreateUI:
		props := make([]string, len(i.Properties))
		for j, p := range i.Properties {
			props[j] = p.String()
		}
		return fmt.Sprintf("%-16s %s #%d [%s] (declared %d)",
			name, i.Type, i.ID, strings.Join(props, " "), i.DeclaredCount)
	case SetUIProperty:
		return fmt.Sprintf("%-16s #%d, %d=%d", name, i.ID, i.Property, i.Value)
	case OnUIEvent:
		return fmt.Sprintf("%-16s #%d, %s -> handler %d", name, i.ID, i.Event, i.Handler)
	case AttachChild:
		return fmt.Sprintf("%-16s #%d <- #%d", name, i.Parent, i.Child)
	case ShowUI, CheckForUpdate, ApplyUpdate, Unknown:
		return name
	default:
		return fmt.Sprintf("%s %+v", name, instr)
	}
}
