// Package ui turns a decoded KBJ program into a forest of display
// elements and tracks the interaction state a rendering frontend reports
// back.
package ui

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/nodeco/nodeco/kbj"
	"github.com/tliron/commonlog"
)

func logger() commonlog.Logger {
	return commonlog.GetLogger("kbj.ui")
}

// Element is one node of the display tree.
type Element struct {
	Type kbj.ElementType
	ID   uint8

	// Props holds the numeric properties in decoded order, duplicates
	// included. Text holds the text properties by id.
	Props []kbj.Property
	Text  map[uint8]string

	// Handler is set by an OnUIEvent click or change binding.
	Handler *uint8

	Children []*Element

	// Value is the live text of an Input once the frontend has reported a
	// change.
	Value *string

	attach []uint8
}

func newElement(c kbj.CreateUI) *Element {
	e := &Element{
		Type: c.Type,
		ID:   c.ID,
		Text: make(map[uint8]string),
	}
	for _, p := range c.Properties {
		if p.IsText() {
			e.Text[p.ID] = p.Text
		} else {
			e.Props = append(e.Props, p)
		}
	}
	return e
}

// HandlerID returns the bound handler, if any.
func (e *Element) HandlerID() (uint8, bool) {
	if e.Handler == nil {
		return 0, false
	}
	return *e.Handler, true
}

// Caption is the text a frontend displays for the element: text property
// 1, else numeric property 1 in decimal, else a per-type default ("Button"
// and "Label"; empty for everything else).
func (e *Element) Caption() string {
	if s, ok := e.Text[kbj.PropText]; ok {
		return s
	}
	if v, ok := e.Prop(kbj.PropText); ok {
		return strconv.Itoa(int(v))
	}
	switch e.Type {
	case kbj.ElementButton:
		return "Button"
	case kbj.ElementLabel:
		return "Label"
	}
	return ""
}

// Prop returns the last numeric value recorded for id.
func (e *Element) Prop(id uint8) (uint8, bool) {
	for i := len(e.Props) - 1; i >= 0; i-- {
		if e.Props[i].ID == id {
			return e.Props[i].Value, true
		}
	}
	return 0, false
}

// Walk calls fn for e and each descendant, depth first, parents before
// children.
func (e *Element) Walk(fn func(el *Element, depth int)) {
	e.walk(fn, 0)
}

func (e *Element) walk(fn func(*Element, int), depth int) {
	fn(e, depth)
	for _, c := range e.Children {
		c.walk(fn, depth+1)
	}
}

func (e *Element) String() string {
	s := fmt.Sprintf("%s #%d", e.Type, e.ID)
	if c := e.Caption(); c != "" {
		s += fmt.Sprintf(" %q", c)
	}
	if h, ok := e.HandlerID(); ok {
		s += fmt.Sprintf(" -> handler %d", h)
	}
	return s
}

// Forest is the result of building a program: one root per ShowUI that
// found a root element, and every element that was created but never
// attached.
type Forest struct {
	Roots   []*Element
	Orphans []*Element
}

// Find returns the displayed element with the given id. Roots are searched
// from the most recent ShowUI back, so an id shown again in a later tree
// resolves there. Orphans are never found.
func (f *Forest) Find(id uint8) *Element {
	var found *Element
	for _, r := range slices.Backward(f.Roots) {
		r.Walk(func(el *Element, _ int) {
			if found == nil && el.ID == id {
				found = el
			}
		})
		if found != nil {
			break
		}
	}
	return found
}
