package frontend

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/nodeco/nodeco/kbj"
	"github.com/nodeco/nodeco/ui"
)

func sampleForest() *ui.Forest {
	return ui.NewBuilder().Build(kbj.NewProgram(
		kbj.CreateUI{Type: kbj.ElementLayout, ID: 0},
		kbj.CreateUI{Type: kbj.ElementLabel, ID: 1, Properties: []kbj.Property{{ID: 1, Text: "Name"}}},
		kbj.CreateUI{Type: kbj.ElementInput, ID: 2, Properties: []kbj.Property{{ID: 2, Value: 80}, {ID: 4, Value: 1}, {ID: 2, Value: 96}}},
		kbj.CreateUI{Type: kbj.ElementButton, ID: 3},
		kbj.CreateUI{Type: kbj.ElementLabel, ID: 9},
		kbj.OnUIEvent{ID: 3, Event: kbj.EventClick, Handler: 4},
		kbj.ShowUI{},
	))
}

func TestWriteOutline(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutline(&buf, sampleForest()); err != nil {
		t.Fatalf("WriteOutline failed: %v", err)
	}
	want := strings.Join([]string{
		"Layout #0",
		`  Label #1 "Name"`,
		"  Input #2",
		`  Button #3 "Button" -> handler 4`,
		`; not attached: Label #9 "Label"`,
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("outline =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteOutlineEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutline(&buf, &ui.Forest{}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "(nothing shown)\n" {
		t.Errorf("outline = %q", buf.String())
	}
}

func TestParseEvent(t *testing.T) {
	tests := []struct {
		line    string
		want    ui.InteractionEvent
		wantErr bool
	}{
		{"click 3", ui.InteractionEvent{Element: 3, Kind: kbj.EventClick}, false},
		{"  click   255 ", ui.InteractionEvent{Element: 255, Kind: kbj.EventClick}, false},
		{"change 2 Ada Lovelace", ui.InteractionEvent{Element: 2, Kind: kbj.EventChange, Value: "Ada Lovelace"}, false},
		{"change 2", ui.InteractionEvent{Element: 2, Kind: kbj.EventChange}, false},
		{"click", ui.InteractionEvent{}, true},
		{"click 256", ui.InteractionEvent{}, true},
		{"click 1 extra", ui.InteractionEvent{}, true},
		{"hover 1", ui.InteractionEvent{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseEvent(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEvent(%q) err = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseEvent(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestOutlineServe(t *testing.T) {
	script := "# scripted run\nchange 2 hello world\n\nbogus\nclick 3\n"
	var out bytes.Buffer
	var got []ui.InteractionEvent

	err := NewOutline(&out, strings.NewReader(script)).Serve(context.Background(), sampleForest(),
		func(ev ui.InteractionEvent) { got = append(got, ev) })
	if err != nil {
		t.Fatalf("Serve failed: %v", err)
	}
	want := []ui.InteractionEvent{
		{Element: 2, Kind: kbj.EventChange, Value: "hello world"},
		{Element: 3, Kind: kbj.EventClick},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("events = %+v, want %+v", got, want)
	}
	if !strings.HasPrefix(out.String(), "Layout #0\n") {
		t.Errorf("outline not written first: %q", out.String())
	}
}

func TestOutlineServeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := NewOutline(&bytes.Buffer{}, strings.NewReader("click 3\n")).Serve(ctx, sampleForest(),
		func(ui.InteractionEvent) { called = true })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if called {
		t.Error("no events should be delivered after cancellation")
	}
}

func TestRenderFrameRoundTrip(t *testing.T) {
	id := uuid.New()
	rf := NewRenderFrame(id, sampleForest())

	data, err := MarshalRenderFrame(rf)
	if err != nil {
		t.Fatalf("MarshalRenderFrame: %v", err)
	}
	again, err := MarshalRenderFrame(rf)
	if err != nil || !bytes.Equal(data, again) {
		t.Fatal("canonical encoding should be deterministic")
	}

	got, err := UnmarshalRenderFrame(data)
	if err != nil {
		t.Fatalf("UnmarshalRenderFrame: %v", err)
	}
	if got.Session != id {
		t.Errorf("Session = %s, want %s", got.Session, id)
	}
	if len(got.Roots) != 1 || len(got.Roots[0].Children) != 3 {
		t.Fatalf("Roots = %+v", got.Roots)
	}
	button := got.Roots[0].Children[2]
	if button.Caption != "Button" || button.Handler == nil || *button.Handler != 4 {
		t.Errorf("button node = %+v", button)
	}
	want := []Prop{{ID: 2, Value: 80}, {ID: 4, Value: 1}, {ID: 2, Value: 96}}
	if input := got.Roots[0].Children[1]; !reflect.DeepEqual(input.Props, want) {
		t.Errorf("input props = %+v, want %+v", input.Props, want)
	}
}

func TestUnmarshalRenderFrameError(t *testing.T) {
	if _, err := UnmarshalRenderFrame([]byte{0xFF}); err == nil {
		t.Error("expected an error for malformed CBOR")
	}
}

func TestWireServe(t *testing.T) {
	var in bytes.Buffer
	for _, ef := range []EventFrame{
		{Element: 2, Kind: uint8(kbj.EventChange), Value: "typed"},
		{Element: 3, Kind: uint8(kbj.EventClick)},
	} {
		data, err := MarshalEventFrame(&ef)
		if err != nil {
			t.Fatal(err)
		}
		in.Write(data)
	}

	id := uuid.New()
	var out bytes.Buffer
	var got []ui.InteractionEvent
	err := NewWire(&in, &out, id).Serve(context.Background(), sampleForest(),
		func(ev ui.InteractionEvent) { got = append(got, ev) })
	if err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	want := []ui.InteractionEvent{
		{Element: 2, Kind: kbj.EventChange, Value: "typed"},
		{Element: 3, Kind: kbj.EventClick},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("events = %+v, want %+v", got, want)
	}

	var rf RenderFrame
	if err := cbor.Unmarshal(out.Bytes(), &rf); err != nil {
		t.Fatalf("render frame: %v", err)
	}
	if rf.Session != id || len(rf.Roots) != 1 {
		t.Errorf("render frame = %+v", rf)
	}
}

func TestWireServeTruncatedEvent(t *testing.T) {
	data, err := MarshalEventFrame(&EventFrame{Element: 3, Kind: 1, Value: "long enough"})
	if err != nil {
		t.Fatal(err)
	}
	in := bytes.NewReader(data[:len(data)-2])

	err = NewWire(in, &bytes.Buffer{}, uuid.New()).Serve(context.Background(), sampleForest(), func(ui.InteractionEvent) {})
	if err == nil {
		t.Error("expected an error for a truncated event frame")
	}
}

func TestWireServeWithSession(t *testing.T) {
	f := sampleForest()
	s := ui.NewSession(f, nil)

	data, err := MarshalEventFrame(&EventFrame{Element: 2, Kind: uint8(kbj.EventChange), Value: "v"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Serve(context.Background(), NewWire(bytes.NewReader(data), &bytes.Buffer{}, s.ID())); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}
	if v, _ := s.Value(2); v != "v" {
		t.Errorf("Value(2) = %q, want %q", v, "v")
	}
}
