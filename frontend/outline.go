// Package frontend provides ui.Frontend implementations that need no
// graphical toolkit: a text outline driven by scripted events, and a CBOR
// stream for a toolkit running in another process.
package frontend

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nodeco/nodeco/kbj"
	"github.com/nodeco/nodeco/ui"
	"github.com/tliron/commonlog"
)

func logger() commonlog.Logger {
	return commonlog.GetLogger("kbj.frontend")
}

// Outline prints the forest as an indented tree, then feeds scripted
// events to the session, one per line:
//
//	click <id>
//	change <id> <text...>
//
// Blank lines and lines starting with '#' are skipped, as are lines that
// do not parse.
type Outline struct {
	w      io.Writer
	events io.Reader
}

// NewOutline creates an Outline writing to w. events may be nil.
func NewOutline(w io.Writer, events io.Reader) *Outline {
	return &Outline{w: w, events: events}
}

// Serve implements ui.Frontend.
func (fe *Outline) Serve(ctx context.Context, forest *ui.Forest, onEvent func(ui.InteractionEvent)) error {
	if err := WriteOutline(fe.w, forest); err != nil {
		return err
	}
	if fe.events == nil {
		return nil
	}

	scanner := bufio.NewScanner(fe.events)
	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ev, err := ParseEvent(line)
		if err != nil {
			logger().Warningf("events line %d: %s", lineNo, err)
			continue
		}
		onEvent(ev)
	}
	return scanner.Err()
}

// WriteOutline writes one line per displayed element, indented two spaces
// per level, followed by any orphaned elements.
func WriteOutline(w io.Writer, forest *ui.Forest) error {
	bw := bufio.NewWriter(w)
	if len(forest.Roots) == 0 {
		fmt.Fprintln(bw, "(nothing shown)")
	}
	for _, root := range forest.Roots {
		root.Walk(func(el *ui.Element, depth int) {
			fmt.Fprintf(bw, "%s%s\n", strings.Repeat("  ", depth), el)
		})
	}
	for _, el := range forest.Orphans {
		fmt.Fprintf(bw, "; not attached: %s\n", el)
	}
	return bw.Flush()
}

// ParseEvent parses one scripted event line.
func ParseEvent(line string) (ui.InteractionEvent, error) {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	idText, value, _ := strings.Cut(strings.TrimLeft(rest, " "), " ")

	id, err := strconv.ParseUint(idText, 10, 8)
	if err != nil {
		return ui.InteractionEvent{}, fmt.Errorf("%q: expected an element id 0-255", line)
	}

	switch verb {
	case "click":
		if strings.TrimSpace(value) != "" {
			return ui.InteractionEvent{}, fmt.Errorf("%q: click takes only an element id", line)
		}
		return ui.InteractionEvent{Element: uint8(id), Kind: kbj.EventClick}, nil
	case "change":
		return ui.InteractionEvent{Element: uint8(id), Kind: kbj.EventChange, Value: value}, nil
	default:
		return ui.InteractionEvent{}, fmt.Errorf("%q: unknown event %q", line, verb)
	}
}
