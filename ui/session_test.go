package ui

import (
	"context"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/nodeco/nodeco/handler"
	"github.com/nodeco/nodeco/kbj"
)

func formForest() *Forest {
	return NewBuilder().Build(kbj.NewProgram(
		kbj.CreateUI{Type: kbj.ElementLayout, ID: 0},
		kbj.CreateUI{Type: kbj.ElementLabel, ID: 1, Properties: text("Name")},
		kbj.CreateUI{Type: kbj.ElementInput, ID: 2, Properties: text("anon")},
		kbj.CreateUI{Type: kbj.ElementButton, ID: 3, Properties: text("Save")},
		kbj.OnUIEvent{ID: 1, Event: kbj.EventClick, Handler: 5},
		kbj.OnUIEvent{ID: 2, Event: kbj.EventChange, Handler: 6},
		kbj.OnUIEvent{ID: 3, Event: kbj.EventClick, Handler: 7},
		kbj.ShowUI{},
	))
}

type recorder struct {
	calls []handler.Invocation
}

func (r *recorder) Dispatch(handlerID, elementID uint8) bool {
	r.calls = append(r.calls, handler.Invocation{HandlerID: handlerID, ElementID: elementID})
	return true
}

func TestSessionValueSeeding(t *testing.T) {
	s := NewSession(formForest(), nil)

	if v, ok := s.Value(2); !ok || v != "anon" {
		t.Errorf("Value(2) = %q, %v; want \"anon\", true", v, ok)
	}
	if _, ok := s.Value(1); ok {
		t.Error("Value(1) on a Label should report false")
	}
	if _, ok := s.Value(40); ok {
		t.Error("Value(40) on a missing element should report false")
	}
	if s.ID() == uuid.Nil {
		t.Error("session id is nil")
	}
}

func TestSessionHandle(t *testing.T) {
	rec := &recorder{}
	s := NewSession(formForest(), rec)

	events := []InteractionEvent{
		{Element: 2, Kind: kbj.EventChange, Value: "Ada"},
		{Element: 3, Kind: kbj.EventClick},
		{Element: 1, Kind: kbj.EventClick},                // label clicks are not reported
		{Element: 3, Kind: kbj.EventChange, Value: "x"},   // wrong kind
		{Element: 9, Kind: kbj.EventClick},                // unknown element
		{Element: 2, Kind: kbj.EventType(7), Value: "no"}, // unknown kind
	}
	for _, ev := range events {
		s.Handle(ev)
	}

	want := []handler.Invocation{{HandlerID: 6, ElementID: 2}, {HandlerID: 7, ElementID: 3}}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("dispatched %v, want %v", rec.calls, want)
	}
	if v, _ := s.Value(2); v != "Ada" {
		t.Errorf("Value(2) = %q, want %q", v, "Ada")
	}
	if el := s.Forest().Find(2); el.Value == nil || *el.Value != "Ada" {
		t.Errorf("Element.Value = %v, want Ada", el.Value)
	}
}

func TestSessionWithoutHandler(t *testing.T) {
	f := NewBuilder().Build(kbj.NewProgram(
		kbj.CreateUI{Type: kbj.ElementInput, ID: 0},
		kbj.ShowUI{},
	))
	rec := &recorder{}
	s := NewSession(f, rec)

	if s.Handle(InteractionEvent{Element: 0, Kind: kbj.EventChange, Value: "typed"}) {
		t.Error("Handle should report false without a bound handler")
	}
	if len(rec.calls) != 0 {
		t.Errorf("dispatched %v, want nothing", rec.calls)
	}
	if v, _ := s.Value(0); v != "typed" {
		t.Errorf("Value(0) = %q, want %q", v, "typed")
	}
}

func TestSessionWithRegistry(t *testing.T) {
	reg := handler.NewRegistry()
	var saved int
	reg.Register(7, func(handler.Invocation) { saved++ })

	s := NewSession(formForest(), reg)
	if !s.Handle(InteractionEvent{Element: 3, Kind: kbj.EventClick}) {
		t.Error("click on #3 should run the registered action")
	}
	if s.Handle(InteractionEvent{Element: 2, Kind: kbj.EventChange, Value: "x"}) {
		t.Error("change on #2 has no registered action and should fall back")
	}
	if saved != 1 {
		t.Errorf("saved = %d, want 1", saved)
	}
}

type scripted []InteractionEvent

func (sc scripted) Serve(ctx context.Context, _ *Forest, onEvent func(InteractionEvent)) error {
	for _, ev := range sc {
		onEvent(ev)
	}
	return ctx.Err()
}

func TestSessionServe(t *testing.T) {
	rec := &recorder{}
	s := NewSession(formForest(), rec)

	err := s.Serve(context.Background(), scripted{{Element: 3, Kind: kbj.EventClick}, {Element: 3, Kind: kbj.EventClick}})
	if err != nil {
		t.Fatalf("Serve failed: %v", err)
	}
	if len(rec.calls) != 2 {
		t.Errorf("dispatched %v, want two clicks", rec.calls)
	}
}
