// Package vm runs a decoded KBJ program in scalar mode: a 256-slot byte
// register file driven by Let, Assign, Add and Print. UI and update
// opcodes are only described, never executed, in this mode.
package vm

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nodeco/nodeco/handler"
	"github.com/nodeco/nodeco/kbj"
	"github.com/tliron/commonlog"
)

func logger() commonlog.Logger {
	return commonlog.GetLogger("kbj.vm")
}

// NumRegisters is the size of the register file.
const NumRegisters = 256

// Level is the severity of an Event.
type Level uint8

const (
	LevelInfo Level = iota
	LevelWarning
)

func (l Level) String() string {
	if l == LevelWarning {
		return "warning"
	}
	return "info"
}

// Event is one side effect recorded while running: a description of a UI
// or update opcode, or a warning about an unknown opcode.
type Event struct {
	Level   Level
	Index   int // instruction index within the program
	Op      kbj.Opcode
	Name    string // listing name of the instruction
	Message string
}

func (e Event) String() string {
	return fmt.Sprintf("[%s] %04d %s: %s", e.Level, e.Index, e.Name, e.Message)
}

// Result is what a Run produced.
type Result struct {
	// Printed holds every value emitted by Print, in order.
	Printed []uint8
	Events  []Event
}

// Warnings returns the warning-level events.
func (r *Result) Warnings() []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Level == LevelWarning {
			out = append(out, e)
		}
	}
	return out
}

// Option configures a Machine.
type Option func(*Machine)

// WithOutput directs Print output to w, one decimal value per line.
func WithOutput(w io.Writer) Option {
	return func(m *Machine) { m.out = w }
}

// WithUpdater routes CheckForUpdate and ApplyUpdate to u.
func WithUpdater(u handler.Updater) Option {
	return func(m *Machine) { m.updater = u }
}

// Machine is the scalar interpreter. A Machine owns its register file and
// is not safe for concurrent use.
type Machine struct {
	regs    [NumRegisters]uint8
	out     io.Writer
	updater handler.Updater
}

// NewMachine creates a Machine with zeroed registers, output discarded,
// and the log-only updater.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		out:     io.Discard,
		updater: handler.LogUpdater{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register returns the current value of slot i.
func (m *Machine) Register(i uint8) uint8 {
	return m.regs[i]
}

// Run executes every instruction of p in order. Registers are zeroed
// first. No instruction aborts the run.
func (m *Machine) Run(p *kbj.Program) *Result {
	m.regs = [NumRegisters]uint8{}
	res := &Result{}
	if p == nil {
		return res
	}

	for i, inst := range p.Instructions {
		switch in := inst.(type) {
		case kbj.Let:
			m.regs[in.Var] = in.Value
		case kbj.Assign:
			m.regs[in.Var] = in.Value
		case kbj.Add:
			// uint8 arithmetic wraps mod 256
			m.regs[in.Dest] = m.regs[in.Src1] + m.regs[in.Src2]
		case kbj.Print:
			v := m.regs[in.Var]
			res.Printed = append(res.Printed, v)
			if _, err := io.WriteString(m.out, strconv.Itoa(int(v))+"\n"); err != nil {
				logger().Warningf("print output: %s", err)
			}
		case kbj.CheckForUpdate:
			m.event(res, LevelInfo, i, inst, "update check requested")
			m.updater.CheckForUpdate()
		case kbj.ApplyUpdate:
			m.event(res, LevelInfo, i, inst, "update apply requested")
			m.updater.ApplyUpdate()
		case kbj.Unknown:
			m.event(res, LevelWarning, i, inst, fmt.Sprintf("unknown opcode 0x%02X ignored", in.Op))
		default:
			m.event(res, LevelInfo, i, inst, describeUI(inst))
		}
	}
	return res
}

func (m *Machine) event(res *Result, level Level, index int, inst kbj.Instruction, msg string) {
	e := Event{Level: level, Index: index, Op: inst.Opcode(), Name: kbj.InstructionName(inst), Message: msg}
	res.Events = append(res.Events, e)
	if level == LevelWarning {
		logger().Warning(e.String())
	} else {
		logger().Info(e.String())
	}
}

func describeUI(inst kbj.Instruction) string {
	switch in := inst.(type) {
	case kbj.CreateUI:
		return fmt.Sprintf("create %s #%d with %d properties (no UI in scalar mode)", in.Type, in.ID, len(in.Properties))
	case kbj.SetUIProperty:
		return fmt.Sprintf("set property %d of #%d to %d (no UI in scalar mode)", in.Property, in.ID, in.Value)
	case kbj.OnUIEvent:
		return fmt.Sprintf("bind %s on #%d to handler %d (no UI in scalar mode)", in.Event, in.ID, in.Handler)
	case kbj.AttachChild:
		return fmt.Sprintf("attach #%d to #%d (no UI in scalar mode)", in.Child, in.Parent)
	case kbj.ShowUI:
		return "show UI (no UI in scalar mode)"
	default:
		return kbj.FormatInstruction(inst)
	}
}
