// Package compiler assembles line-oriented KBJ source text into KBJ
// buffers that the kbj decoder accepts.
package compiler

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/nodeco/nodeco/kbj"
)

func logger() commonlog.Logger {
	return commonlog.GetLogger("kbj.compiler")
}

// Error is a compile error at a source position.
type Error struct {
	Pos Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %s: %s", e.Pos, e.Msg)
}

func errorf(pos Position, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Option configures a compilation.
type Option func(*Compiler)

// WithVersion fixes the header version byte. Without it the compiler
// writes kbj.DefaultVersion, or kbj.AttachVersion when the source uses
// attach.
func WithVersion(v uint8) Option {
	return func(c *Compiler) {
		c.version = v
		c.versionSet = true
	}
}

// Compiler turns source lines into instructions.
type Compiler struct {
	version    uint8
	versionSet bool
	prog       *kbj.Program
}

// statement compiles the operands of one keyword.
type statement func(c *Compiler, kw Token, args []Token) (kbj.Instruction, error)

var statements map[string]statement

func init() {
	statements = map[string]statement{
		"let":          compileSetRegister,
		"assign":       compileSetRegister,
		"print":        compilePrint,
		"add":          compileAdd,
		"button":       compileElement(kbj.ElementButton),
		"label":        compileElement(kbj.ElementLabel),
		"input":        compileElement(kbj.ElementInput),
		"layout":       compileElement(kbj.ElementLayout),
		"set":          compileSetProperty,
		"on":           compileOnEvent,
		"attach":       compileAttach,
		"show_ui":      compileBare(kbj.ShowUI{}),
		"check_update": compileBare(kbj.CheckForUpdate{}),
		"apply_update": compileBare(kbj.ApplyUpdate{}),
	}
}

// New creates a compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{version: kbj.DefaultVersion}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile assembles source into an encoded KBJ buffer.
func Compile(src string, opts ...Option) ([]byte, error) {
	prog, err := New(opts...).CompileProgram(src)
	if err != nil {
		return nil, err
	}
	return kbj.Encode(prog)
}

// CompileFile reads and assembles a source file. Read failures wrap
// kbj.ErrIO.
func CompileFile(path string, opts ...Option) ([]byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", kbj.ErrIO, err)
	}
	out, err := Compile(string(src), opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// OutputPath returns the .kbj path written next to a source file.
func OutputPath(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + ".kbj"
}

// CompileProgram assembles source into a Program without encoding it.
// Blank lines, comment lines, and lines starting with an unknown keyword
// are skipped.
func (c *Compiler) CompileProgram(src string) (*kbj.Program, error) {
	c.prog = &kbj.Program{Version: c.version}

	for i, line := range strings.Split(src, "\n") {
		if err := c.compileLine(strings.TrimRight(line, "\r"), i+1); err != nil {
			return nil, err
		}
	}
	return c.prog, nil
}

func (c *Compiler) compileLine(line string, lineNum int) error {
	l := NewLexer(line, lineNum)

	kw := l.NextToken()
	if kw.Type == TokenEOF {
		return nil
	}
	stmt, ok := statements[kw.Literal]
	if kw.Type != TokenWord || !ok {
		logger().Debugf("line %d: ignoring %q", lineNum, strings.TrimSpace(line))
		return nil
	}

	var args []Token
	for {
		tok := l.NextToken()
		if tok.Type == TokenError {
			return errorf(tok.Pos, "%s", tok.Literal)
		}
		if tok.Type == TokenEOF {
			break
		}
		args = append(args, tok)
	}

	instr, err := stmt(c, kw, args)
	if err != nil {
		return err
	}
	c.prog.Instructions = append(c.prog.Instructions, instr)
	return nil
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func compileSetRegister(c *Compiler, kw Token, args []Token) (kbj.Instruction, error) {
	v, err := byteArgs(kw, args, "var", "value")
	if err != nil {
		return nil, err
	}
	if kw.Literal == "assign" {
		return kbj.Assign{Var: v[0], Value: v[1]}, nil
	}
	return kbj.Let{Var: v[0], Value: v[1]}, nil
}

func compilePrint(c *Compiler, kw Token, args []Token) (kbj.Instruction, error) {
	v, err := byteArgs(kw, args, "var")
	if err != nil {
		return nil, err
	}
	return kbj.Print{Var: v[0]}, nil
}

func compileAdd(c *Compiler, kw Token, args []Token) (kbj.Instruction, error) {
	v, err := byteArgs(kw, args, "dest", "src1", "src2")
	if err != nil {
		return nil, err
	}
	return kbj.Add{Dest: v[0], Src1: v[1], Src2: v[2]}, nil
}

func compileAttach(c *Compiler, kw Token, args []Token) (kbj.Instruction, error) {
	v, err := byteArgs(kw, args, "parent", "child")
	if err != nil {
		return nil, err
	}
	if c.prog.Version < kbj.AttachVersion {
		if c.versionSet {
			return nil, errorf(kw.Pos, "attach needs header version %d or later, compiling version %d",
				kbj.AttachVersion, c.version)
		}
		c.prog.Version = kbj.AttachVersion
	}
	return kbj.AttachChild{Parent: v[0], Child: v[1]}, nil
}

func compileBare(instr kbj.Instruction) statement {
	return func(c *Compiler, kw Token, args []Token) (kbj.Instruction, error) {
		if len(args) > 0 {
			return nil, errorf(args[0].Pos, "%s takes no operands", kw.Literal)
		}
		return instr, nil
	}
}

// compileElement handles `<kind> <id> [key=value ...]`.
func compileElement(typ kbj.ElementType) statement {
	return func(c *Compiler, kw Token, args []Token) (kbj.Instruction, error) {
		if len(args) == 0 {
			return nil, errorf(kw.Pos, "%s: missing element id", kw.Literal)
		}
		id, err := byteArg(args[0], "element id")
		if err != nil {
			return nil, err
		}
		props, err := compileProperties(args[1:])
		if err != nil {
			return nil, err
		}
		if len(props) > math.MaxUint8 {
			return nil, errorf(kw.Pos, "%s: %d properties, limit is 255", kw.Literal, len(props))
		}
		return kbj.CreateUI{
			Type:          typ,
			ID:            id,
			DeclaredCount: uint8(len(props)),
			Properties:    props,
		}, nil
	}
}

func compileSetProperty(c *Compiler, kw Token, args []Token) (kbj.Instruction, error) {
	if len(args) != 3 {
		return nil, errorf(kw.Pos, "set: expected <id> <property> <value>")
	}
	id, err := byteArg(args[0], "element id")
	if err != nil {
		return nil, err
	}
	prop, ok := numericPropertyID(args[1])
	if !ok {
		return nil, errorf(args[1].Pos, "set: %q is not a numeric property", args[1].Literal)
	}
	val, err := numericValue(args[2])
	if err != nil {
		return nil, err
	}
	return kbj.SetUIProperty{ID: id, Property: prop, Value: val}, nil
}

func compileOnEvent(c *Compiler, kw Token, args []Token) (kbj.Instruction, error) {
	if len(args) != 3 {
		return nil, errorf(kw.Pos, "on: expected <id> click|change <handler>")
	}
	id, err := byteArg(args[0], "element id")
	if err != nil {
		return nil, err
	}

	var event kbj.EventType
	switch {
	case args[1].Type == TokenWord && args[1].Literal == "click":
		event = kbj.EventClick
	case args[1].Type == TokenWord && args[1].Literal == "change":
		event = kbj.EventChange
	default:
		n, err := byteArg(args[1], "event type")
		if err != nil {
			return nil, err
		}
		event = kbj.EventType(n)
	}

	handler, err := byteArg(args[2], "handler id")
	if err != nil {
		return nil, err
	}
	return kbj.OnUIEvent{ID: id, Event: event, Handler: handler}, nil
}

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

// Named numeric properties.
var propertyNames = map[string]uint8{
	"width":   2,
	"height":  3,
	"enabled": 4,
}

// compileProperties parses key=value pairs. Unknown keys are skipped.
func compileProperties(args []Token) ([]kbj.Property, error) {
	var props []kbj.Property
	for i := 0; i < len(args); i += 3 {
		key := args[i]
		if key.Type != TokenWord {
			return nil, errorf(key.Pos, "expected property name, got %s", key)
		}
		if i+2 >= len(args) || args[i+1].Type != TokenEquals {
			return nil, errorf(key.Pos, "property %s: expected %s=<value>", key.Literal, key.Literal)
		}
		val := args[i+2]

		if key.Literal == "text" {
			if val.Type == TokenEquals {
				return nil, errorf(val.Pos, "property text: missing value")
			}
			if len(val.Literal) > math.MaxUint8 {
				return nil, errorf(val.Pos, "property text: %d bytes, limit is 255", len(val.Literal))
			}
			props = append(props, kbj.Property{ID: kbj.PropText, Text: val.Literal})
			continue
		}

		id, ok := numericPropertyID(key)
		if !ok {
			logger().Debugf("line %d: skipping unknown property %q", key.Pos.Line, key.Literal)
			continue
		}
		n, err := numericValue(val)
		if err != nil {
			return nil, err
		}
		props = append(props, kbj.Property{ID: id, Value: n})
	}
	return props, nil
}

// numericPropertyID resolves a property name, p<N>, or bare number to an
// id. The text id is never numeric.
func numericPropertyID(tok Token) (uint8, bool) {
	var lit string
	switch tok.Type {
	case TokenWord:
		if id, ok := propertyNames[tok.Literal]; ok {
			return id, true
		}
		if !strings.HasPrefix(tok.Literal, "p") {
			return 0, false
		}
		lit = tok.Literal[1:]
	case TokenInteger:
		lit = tok.Literal
	default:
		return 0, false
	}
	n, err := strconv.ParseUint(lit, 10, 8)
	if err != nil || uint8(n) == kbj.PropText {
		return 0, false
	}
	return uint8(n), true
}

// numericValue accepts a byte or true/false.
func numericValue(tok Token) (uint8, error) {
	if tok.Type == TokenWord {
		switch tok.Literal {
		case "true":
			return 1, nil
		case "false":
			return 0, nil
		}
	}
	return byteArg(tok, "property value")
}

// ---------------------------------------------------------------------------
// Operands
// ---------------------------------------------------------------------------

func byteArg(tok Token, what string) (uint8, error) {
	if tok.Type != TokenInteger {
		return 0, errorf(tok.Pos, "%s: expected a number 0-255, got %s", what, tok)
	}
	n, err := strconv.ParseUint(tok.Literal, 10, 8)
	if err != nil {
		return 0, errorf(tok.Pos, "%s: %s is out of range 0-255", what, tok.Literal)
	}
	return uint8(n), nil
}

// byteArgs parses exactly len(names) byte operands.
func byteArgs(kw Token, args []Token, names ...string) ([]uint8, error) {
	if len(args) != len(names) {
		return nil, errorf(kw.Pos, "%s: expected <%s>", kw.Literal, strings.Join(names, "> <"))
	}
	out := make([]uint8, len(args))
	for i, tok := range args {
		n, err := byteArg(tok, names[i])
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
