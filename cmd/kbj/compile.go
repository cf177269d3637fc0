package main

import (
	"fmt"
	"os"

	"github.com/nodeco/nodeco/compiler"
	"github.com/nodeco/nodeco/kbj"
	"github.com/nodeco/nodeco/manifest"
	"github.com/nodeco/nodeco/store"
)

// compileCommand processes `kbj compile`.
// Usage:
//
//	kbj compile app.kbt            # ./app.kbj
//	kbj compile app.kbt -o out.kbj
//	kbj compile                    # [build] source from kbj.toml
func (a *app) compileCommand(args []string) error {
	var verbose int
	var output string
	var version int
	var noCache bool

	fs := a.newFlagSet("compile", &verbose)
	fs.StringVarP(&output, "output", "o", "", "output path (default: source with .kbj extension)")
	fs.IntVar(&version, "version", -1, "header version byte, 0 to pick from the source (default: [build] version)")
	fs.BoolVar(&noCache, "no-cache", false, "bypass the artifact cache")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, err := a.loadManifest()
	if err != nil {
		return err
	}
	configureLogging(m, verbose)

	var src string
	switch fs.NArg() {
	case 0:
		if m.Build.Source == "" {
			return fmt.Errorf("compile: no source file given and no [build] source in %s", manifest.FileName)
		}
		src = m.Path(m.Build.Source)
		if output == "" {
			output = m.Path(m.Build.Output)
		}
	case 1:
		src = a.resolve(fs.Arg(0))
	default:
		return fmt.Errorf("compile: expected one source file, got %d", fs.NArg())
	}
	if output == "" {
		output = compiler.OutputPath(src)
	} else {
		output = a.resolve(output)
	}

	if version < 0 {
		version = m.Build.Version
	}
	if version > 255 {
		return fmt.Errorf("compile: --version %d is out of range 0-255", version)
	}

	source, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("%w: %w", kbj.ErrIO, err)
	}

	var cache *store.Store
	if m.Cache.Enabled && !noCache {
		cache, err = store.Open(m.CachePath())
		if err != nil {
			logger().Warningf("artifact cache disabled: %s", err)
		} else {
			defer cache.Close()
		}
	}

	data, err := a.compileSource(cache, src, source, uint8(version))
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", kbj.ErrIO, err)
	}
	logger().Infof("wrote %s (%d bytes)", output, len(data))
	return nil
}

// compileSource assembles source, consulting the cache first. A zero
// version lets the compiler choose and is cached under key version 0.
func (a *app) compileSource(cache *store.Store, path string, source []byte, version uint8) ([]byte, error) {
	if cache != nil {
		data, ok, err := cache.Get(source, version)
		if err != nil {
			logger().Warningf("artifact cache: %s", err)
		} else if ok {
			return data, nil
		}
	}

	var opts []compiler.Option
	if version != 0 {
		opts = append(opts, compiler.WithVersion(version))
	}
	data, err := compiler.Compile(string(source), opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if cache != nil {
		if d, err := cache.Put(source, version, data); err != nil {
			logger().Warningf("artifact cache: %s", err)
		} else {
			logger().Debugf("cached %s as %s", path, d.Short())
		}
	}
	return data, nil
}
