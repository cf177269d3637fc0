package ui

import (
	"context"

	"github.com/google/uuid"
	"github.com/nodeco/nodeco/kbj"
)

// InteractionEvent is what a frontend reports: a click on an element, or
// a new value for an Input.
type InteractionEvent struct {
	Element uint8
	Kind    kbj.EventType
	Value   string
}

// Dispatcher receives {handler, element} pairs. *handler.Registry
// satisfies it.
type Dispatcher interface {
	Dispatch(handlerID, elementID uint8) bool
}

// Frontend renders a forest and reports interactions through onEvent
// until the user is done or ctx is cancelled. Calls to onEvent are
// sequential.
type Frontend interface {
	Serve(ctx context.Context, forest *Forest, onEvent func(InteractionEvent)) error
}

// Session holds the interaction state for one displayed forest.
type Session struct {
	id       uuid.UUID
	forest   *Forest
	dispatch Dispatcher
	values   map[uint8]string
}

// NewSession creates a session over forest. d may be nil, in which case
// interactions only update state.
func NewSession(forest *Forest, d Dispatcher) *Session {
	if forest == nil {
		forest = &Forest{}
	}
	return &Session{
		id:       uuid.New(),
		forest:   forest,
		dispatch: d,
		values:   make(map[uint8]string),
	}
}

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) Forest() *Forest { return s.forest }

// Value returns the live text of Input id. The first lookup seeds it from
// the element's caption.
func (s *Session) Value(id uint8) (string, bool) {
	el := s.forest.Find(id)
	if el == nil || el.Type != kbj.ElementInput {
		return "", false
	}
	return s.value(el), true
}

func (s *Session) value(el *Element) string {
	if v, ok := s.values[el.ID]; ok {
		return v
	}
	v := el.Caption()
	s.values[el.ID] = v
	return v
}

// Handle applies one frontend event. A change on an Input stores the new
// value; a click on a Button does nothing else. Either then dispatches to
// the element's handler if it has one, and Handle reports whether a
// registered action ran. Events on unknown elements or of the wrong kind
// are dropped.
func (s *Session) Handle(ev InteractionEvent) bool {
	el := s.forest.Find(ev.Element)
	if el == nil {
		logger().Debugf("%s on #%d: no such element", ev.Kind, ev.Element)
		return false
	}

	switch {
	case ev.Kind == kbj.EventChange && el.Type == kbj.ElementInput:
		s.values[el.ID] = ev.Value
		v := ev.Value
		el.Value = &v
	case ev.Kind == kbj.EventClick && el.Type == kbj.ElementButton:
	default:
		logger().Debugf("%s on %s ignored", ev.Kind, el)
		return false
	}

	h, ok := el.HandlerID()
	if !ok || s.dispatch == nil {
		return false
	}
	return s.dispatch.Dispatch(h, el.ID)
}

// Serve runs fe over the session's forest, feeding its events to Handle.
func (s *Session) Serve(ctx context.Context, fe Frontend) error {
	return fe.Serve(ctx, s.forest, func(ev InteractionEvent) { s.Handle(ev) })
}
