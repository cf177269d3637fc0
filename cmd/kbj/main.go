// kbj CLI - assembles, runs and disassembles KBJ programs
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/nodeco/nodeco/manifest"
	"github.com/spf13/pflag"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

func logger() commonlog.Logger {
	return commonlog.GetLogger("kbj.cli")
}

// app carries the process environment so commands can run under test.
type app struct {
	dir    string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	a := &app{dir: wd, stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	err = a.run(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "compile":
		return a.compileCommand(args[1:])
	case "run":
		return a.runCommand(ctx, args[1:])
	case "disasm":
		return a.disasmCommand(args[1:])
	case "help", "-h", "--help":
		a.usage()
		return nil
	default:
		a.usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (a *app) usage() {
	fmt.Fprintf(a.stderr, "Usage: kbj <command> [options] [file]\n\n")
	fmt.Fprintf(a.stderr, "Commands:\n")
	fmt.Fprintf(a.stderr, "  compile <src.kbt> [-o out.kbj]   Assemble text source into KBJ\n")
	fmt.Fprintf(a.stderr, "  run <file.kbj> [--ui]            Run a program (scalar or UI mode)\n")
	fmt.Fprintf(a.stderr, "  disasm <file.kbj>                Print a program listing\n")
	fmt.Fprintf(a.stderr, "\nSettings are read from the nearest kbj.toml; flags override them.\n")
	fmt.Fprintf(a.stderr, "\nExamples:\n")
	fmt.Fprintf(a.stderr, "  kbj compile hello.kbt            # writes hello.kbj\n")
	fmt.Fprintf(a.stderr, "  kbj run hello.kbj                # prints values\n")
	fmt.Fprintf(a.stderr, "  kbj run form.kbj --ui --events script.txt\n")
	fmt.Fprintf(a.stderr, "  kbj run form.kbj --ui --frontend wire < events.cbor\n")
}

// newFlagSet returns a flag set carrying the flags every command shares.
func (a *app) newFlagSet(name string, verbose *int) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.CountVarP(verbose, "verbose", "v", "increase log verbosity (repeatable)")
	return fs
}

// loadManifest finds kbj.toml above the working directory, or returns the
// defaults when there is none.
func (a *app) loadManifest() (*manifest.Manifest, error) {
	m, err := manifest.FindAndLoad(a.dir)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return manifest.Default(a.dir), nil
	}
	return m, nil
}

func configureLogging(m *manifest.Manifest, verbose int) {
	commonlog.Configure(m.Log.Verbosity+verbose, nil)
}

// resolve makes p relative to the working directory.
func (a *app) resolve(p string) string {
	if p == "" || p == "-" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.dir, p)
}
