package frontend

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/nodeco/nodeco/kbj"
	"github.com/nodeco/nodeco/ui"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("frontend: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Node is the wire form of a ui.Element.
type Node struct {
	ID       uint8            `cbor:"1,keyasint"`
	Type     uint8            `cbor:"2,keyasint"`
	Caption  string           `cbor:"3,keyasint"`
	Handler  *uint8           `cbor:"4,keyasint,omitempty"`
	Props    []Prop           `cbor:"5,keyasint,omitempty"`
	Text     map[uint8]string `cbor:"6,keyasint,omitempty"`
	Children []Node           `cbor:"7,keyasint,omitempty"`
}

// Prop is one numeric property, encoded as a two element array.
type Prop struct {
	_     struct{} `cbor:",toarray"`
	ID    uint8
	Value uint8
}

// RenderFrame is sent once, before any events are read.
type RenderFrame struct {
	Session uuid.UUID `cbor:"1,keyasint"`
	Roots   []Node    `cbor:"2,keyasint"`
}

// EventFrame is one interaction reported by the toolkit.
type EventFrame struct {
	Element uint8  `cbor:"1,keyasint"`
	Kind    uint8  `cbor:"2,keyasint"`
	Value   string `cbor:"3,keyasint,omitempty"`
}

// NewNode converts el and its subtree.
func NewNode(el *ui.Element) Node {
	n := Node{
		ID:      el.ID,
		Type:    uint8(el.Type),
		Caption: el.Caption(),
		Handler: el.Handler,
	}
	for _, p := range el.Props {
		n.Props = append(n.Props, Prop{ID: p.ID, Value: p.Value})
	}
	if len(el.Text) > 0 {
		n.Text = el.Text
	}
	for _, c := range el.Children {
		n.Children = append(n.Children, NewNode(c))
	}
	return n
}

// NewRenderFrame converts a forest for session.
func NewRenderFrame(session uuid.UUID, f *ui.Forest) *RenderFrame {
	rf := &RenderFrame{Session: session, Roots: []Node{}}
	for _, r := range f.Roots {
		rf.Roots = append(rf.Roots, NewNode(r))
	}
	return rf
}

// MarshalRenderFrame serializes a RenderFrame to canonical CBOR.
func MarshalRenderFrame(rf *RenderFrame) ([]byte, error) {
	return cborEncMode.Marshal(rf)
}

// UnmarshalRenderFrame deserializes a RenderFrame from CBOR bytes.
func UnmarshalRenderFrame(data []byte) (*RenderFrame, error) {
	var rf RenderFrame
	if err := cbor.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("frontend: unmarshal render frame: %w", err)
	}
	return &rf, nil
}

// MarshalEventFrame serializes an EventFrame to canonical CBOR.
func MarshalEventFrame(ef *EventFrame) ([]byte, error) {
	return cborEncMode.Marshal(ef)
}

// Wire drives an out-of-process toolkit over a CBOR stream: one
// RenderFrame out, then EventFrames in until the stream ends.
type Wire struct {
	r       io.Reader
	w       io.Writer
	session uuid.UUID
}

// NewWire creates a Wire that writes to w and reads events from r.
func NewWire(r io.Reader, w io.Writer, session uuid.UUID) *Wire {
	return &Wire{r: r, w: w, session: session}
}

// Serve implements ui.Frontend.
func (fe *Wire) Serve(ctx context.Context, forest *ui.Forest, onEvent func(ui.InteractionEvent)) error {
	if err := cborEncMode.NewEncoder(fe.w).Encode(NewRenderFrame(fe.session, forest)); err != nil {
		return fmt.Errorf("frontend: write render frame: %w", err)
	}
	if fe.r == nil {
		return nil
	}

	dec := cbor.NewDecoder(fe.r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var ef EventFrame
		if err := dec.Decode(&ef); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("frontend: read event frame: %w", err)
		}
		logger().Debugf("wire event: %s on #%d", kbj.EventType(ef.Kind), ef.Element)
		onEvent(ui.InteractionEvent{Element: ef.Element, Kind: kbj.EventType(ef.Kind), Value: ef.Value})
	}
}
