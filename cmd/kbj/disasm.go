package main

import (
	"fmt"
	"path/filepath"

	"github.com/nodeco/nodeco/kbj"
)

// disasmCommand processes `kbj disasm`.
func (a *app) disasmCommand(args []string) error {
	var verbose int
	fs := a.newFlagSet("disasm", &verbose)
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, err := a.loadManifest()
	if err != nil {
		return err
	}
	configureLogging(m, verbose)

	if fs.NArg() != 1 {
		return fmt.Errorf("disasm: expected one .kbj file, got %d", fs.NArg())
	}
	path := a.resolve(fs.Arg(0))
	p, err := kbj.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(a.stdout, p.DisassembleWithName(filepath.Base(path)))
	return err
}
