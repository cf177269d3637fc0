package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/nodeco/nodeco/frontend"
	"github.com/nodeco/nodeco/handler"
	"github.com/nodeco/nodeco/kbj"
	"github.com/nodeco/nodeco/manifest"
	"github.com/nodeco/nodeco/ui"
	"github.com/nodeco/nodeco/vm"
)

// runCommand processes `kbj run`.
// Usage:
//
//	kbj run app.kbj                         # scalar mode
//	kbj run app.kbj --ui                    # outline frontend
//	kbj run app.kbj --ui --events script    # scripted interactions
//	kbj run app.kbj --ui --frontend wire    # CBOR frames on stdout/stdin
func (a *app) runCommand(ctx context.Context, args []string) error {
	var verbose int
	var uiMode bool
	var frontendName string
	var events string

	fs := a.newFlagSet("run", &verbose)
	fs.BoolVar(&uiMode, "ui", false, "build and show the UI instead of running scalar mode")
	fs.StringVar(&frontendName, "frontend", "", "UI frontend: outline or wire (default: [run] frontend)")
	fs.StringVar(&events, "events", "", "scripted events for the outline frontend ('-' for stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, err := a.loadManifest()
	if err != nil {
		return err
	}
	configureLogging(m, verbose)

	if fs.NArg() != 1 {
		return fmt.Errorf("run: expected one .kbj file, got %d", fs.NArg())
	}

	p, err := kbj.ReadFile(a.resolve(fs.Arg(0)))
	if err != nil {
		return err
	}
	for _, w := range p.Warnings {
		logger().Warningf("decode: %s", w)
	}

	mode := m.Run.Mode
	if uiMode {
		mode = manifest.ModeUI
	}
	if mode == manifest.ModeScalar {
		vm.NewMachine(vm.WithOutput(a.stdout)).Run(p)
		return nil
	}

	if frontendName == "" {
		frontendName = m.Run.Frontend
	}
	if events == "" {
		events = m.Path(m.Run.Events)
	} else {
		events = a.resolve(events)
	}
	return a.serveUI(ctx, p, frontendName, events)
}

func (a *app) serveUI(ctx context.Context, p *kbj.Program, frontendName, events string) error {
	forest := ui.NewBuilder().Build(p)
	session := ui.NewSession(forest, handler.NewRegistry())
	logger().Infof("session %s: %d root(s), %d orphan(s)", session.ID(), len(forest.Roots), len(forest.Orphans))

	var fe ui.Frontend
	switch frontendName {
	case manifest.FrontendOutline:
		var script io.Reader
		switch events {
		case "":
		case "-":
			script = a.stdin
		default:
			f, err := os.Open(events)
			if err != nil {
				return fmt.Errorf("%w: %w", kbj.ErrIO, err)
			}
			defer f.Close()
			script = f
		}
		fe = frontend.NewOutline(a.stdout, script)
	case manifest.FrontendWire:
		fe = frontend.NewWire(a.stdin, a.stdout, session.ID())
	default:
		return fmt.Errorf("run: unknown frontend %q (expected %q or %q)",
			frontendName, manifest.FrontendOutline, manifest.FrontendWire)
	}

	return session.Serve(ctx, fe)
}
