package integration_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nodeco/nodeco/compiler"
	"github.com/nodeco/nodeco/frontend"
	"github.com/nodeco/nodeco/handler"
	"github.com/nodeco/nodeco/kbj"
	"github.com/nodeco/nodeco/manifest"
	"github.com/nodeco/nodeco/ui"
	"github.com/nodeco/nodeco/vm"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

const examplesDir = "../../examples"

// load assembles an example source and decodes the resulting bytes, so
// every test goes through the same path a .kbj file on disk would.
func load(t *testing.T, name string) *kbj.Program {
	t.Helper()
	data, err := compiler.CompileFile(filepath.Join(examplesDir, name))
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	p, err := kbj.Decode(data)
	if err != nil {
		t.Fatalf("decode %s: %v", name, err)
	}
	if len(p.Warnings) != 0 {
		t.Fatalf("decode %s: warnings %v", name, p.Warnings)
	}
	return p
}

func childIDs(el *ui.Element) []uint8 {
	var ids []uint8
	for _, c := range el.Children {
		ids = append(ids, c.ID)
	}
	return ids
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestExamplesAssemble(t *testing.T) {
	sources, err := filepath.Glob(filepath.Join(examplesDir, "*", "*.kbt"))
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) == 0 {
		t.Fatal("no example sources found")
	}
	for _, src := range sources {
		rel, _ := filepath.Rel(examplesDir, src)
		t.Run(rel, func(t *testing.T) {
			p := load(t, rel)
			if p.Len() == 0 {
				t.Error("example compiled to an empty program")
			}
			if !strings.Contains(p.Disassemble(), "; Code:") {
				t.Error("disassembly missing code section")
			}
		})
	}
}

func TestHelloScalar(t *testing.T) {
	var out bytes.Buffer
	res := vm.NewMachine(vm.WithOutput(&out)).Run(load(t, "hello/hello.kbt"))

	if out.String() != "42\n4\n" {
		t.Errorf("output = %q, want %q", out.String(), "42\n4\n")
	}
	if !reflect.DeepEqual(res.Printed, []uint8{42, 4}) {
		t.Errorf("Printed = %v", res.Printed)
	}
}

func TestFormSessionFromManifest(t *testing.T) {
	m, err := manifest.Load(filepath.Join(examplesDir, "form"))
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if m.Run.Mode != manifest.ModeUI {
		t.Fatalf("run.mode = %q, want ui", m.Run.Mode)
	}

	forest := ui.NewBuilder().Build(load(t, "form/form.kbt"))
	if len(forest.Roots) != 1 || len(forest.Orphans) != 0 {
		t.Fatalf("forest: %d roots, %d orphans", len(forest.Roots), len(forest.Orphans))
	}

	reg := handler.NewRegistry()
	session := ui.NewSession(forest, reg)

	var greeting string
	var changes int
	reg.Register(10, func(handler.Invocation) { changes++ })
	reg.Register(11, func(inv handler.Invocation) {
		name, _ := session.Value(2)
		greeting = "Hello, " + name
	})

	events, err := os.Open(m.Path(m.Run.Events))
	if err != nil {
		t.Fatal(err)
	}
	defer events.Close()

	var out bytes.Buffer
	if err := session.Serve(context.Background(), frontend.NewOutline(&out, events)); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	if greeting != "Hello, Ada" || changes != 1 {
		t.Errorf("greeting = %q, changes = %d", greeting, changes)
	}
	if !strings.Contains(out.String(), `  Button #3 "Greet" -> handler 11`) {
		t.Errorf("outline:\n%s", out.String())
	}
}

func TestNestedAttachment(t *testing.T) {
	checks := 0
	b := ui.NewBuilder(ui.WithUpdater(handler.UpdaterFuncs{Check: func() { checks++ }}))
	forest := b.Build(load(t, "nested/nested.kbt"))

	if len(forest.Roots) != 1 {
		t.Fatalf("Roots = %d, want 1", len(forest.Roots))
	}
	root := forest.Roots[0]
	if got := childIDs(root); !reflect.DeepEqual(got, []uint8{10, 20}) {
		t.Errorf("root children = %v, want [10 20]", got)
	}
	if got := childIDs(root.Children[0]); !reflect.DeepEqual(got, []uint8{11, 12}) {
		t.Errorf("#10 children = %v, want [11 12]", got)
	}
	if len(forest.Orphans) != 0 {
		t.Errorf("orphans = %v, want none", forest.Orphans)
	}
	if checks != 1 {
		t.Errorf("update checks = %d, want 1", checks)
	}

	s := ui.NewSession(forest, nil)
	if v, ok := s.Value(12); !ok || v != "8080" {
		t.Errorf("Value(12) = %q, %v; want 8080", v, ok)
	}
}

func TestWireRoundTrip(t *testing.T) {
	forest := ui.NewBuilder().Build(load(t, "form/form.kbt"))

	reg := handler.NewRegistry()
	var clicked []uint8
	reg.Register(11, func(inv handler.Invocation) { clicked = append(clicked, inv.ElementID) })
	session := ui.NewSession(forest, reg)

	var in bytes.Buffer
	for _, ef := range []frontend.EventFrame{
		{Element: 2, Kind: uint8(kbj.EventChange), Value: "Grace"},
		{Element: 3, Kind: uint8(kbj.EventClick)},
	} {
		data, err := frontend.MarshalEventFrame(&ef)
		if err != nil {
			t.Fatal(err)
		}
		in.Write(data)
	}

	var out bytes.Buffer
	if err := session.Serve(context.Background(), frontend.NewWire(&in, &out, session.ID())); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	rf, err := frontend.UnmarshalRenderFrame(out.Bytes())
	if err != nil {
		t.Fatalf("render frame: %v", err)
	}
	if rf.Session != session.ID() {
		t.Errorf("render frame session = %s, want %s", rf.Session, session.ID())
	}
	if v, _ := session.Value(2); v != "Grace" {
		t.Errorf("Value(2) = %q, want Grace", v)
	}
	if !reflect.DeepEqual(clicked, []uint8{3}) {
		t.Errorf("clicked = %v, want [3]", clicked)
	}
}

func TestScalarAndUIModesAgree(t *testing.T) {
	// The scalar interpreter only describes UI opcodes; building the same
	// program must not depend on having run it first.
	p := load(t, "form/form.kbt")
	res := vm.NewMachine().Run(p)
	if len(res.Printed) != 0 || len(res.Warnings()) != 0 {
		t.Errorf("scalar run of a UI program: %+v", res)
	}
	if got := len(ui.NewBuilder().Build(p).Roots); got != 1 {
		t.Errorf("Roots after scalar run = %d, want 1", got)
	}
}
