// Package manifest handles kbj.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file looked for in a project directory.
const FileName = "kbj.toml"

// Run modes.
const (
	ModeScalar = "scalar"
	ModeUI     = "ui"
)

// Frontends.
const (
	FrontendOutline = "outline"
	FrontendWire    = "wire"
)

// Manifest represents a kbj.toml project configuration.
type Manifest struct {
	Project Project `toml:"project"`
	Build   Build   `toml:"build"`
	Run     Run     `toml:"run"`
	Cache   Cache   `toml:"cache"`
	Log     Log     `toml:"log"`

	// Dir is the directory containing the kbj.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name string `toml:"name"`
}

// Build configures the assembler.
type Build struct {
	Source  string `toml:"source"`
	Output  string `toml:"output"`
	Version int    `toml:"version"` // 0 lets the compiler choose
}

// Run configures how compiled programs execute.
type Run struct {
	Mode     string `toml:"mode"`
	Frontend string `toml:"frontend"`
	Events   string `toml:"events"`
}

// Cache configures the compiled artifact store.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Log configures logging verbosity.
type Log struct {
	Verbosity int `toml:"verbosity"`
}

// Default returns the configuration used when no kbj.toml exists.
func Default(dir string) *Manifest {
	m := &Manifest{Dir: dir}
	m.applyDefaults()
	return m
}

func (m *Manifest) applyDefaults() {
	if m.Run.Mode == "" {
		m.Run.Mode = ModeScalar
	}
	if m.Run.Frontend == "" {
		m.Run.Frontend = FrontendOutline
	}
	if m.Cache.Path == "" {
		m.Cache.Path = filepath.Join(".kbj", "cache.db")
	}
}

// Validate reports the first out-of-range setting.
func (m *Manifest) Validate() error {
	if m.Build.Version < 0 || m.Build.Version > 255 {
		return fmt.Errorf("build.version %d is out of range 0-255", m.Build.Version)
	}
	switch m.Run.Mode {
	case ModeScalar, ModeUI:
	default:
		return fmt.Errorf("run.mode %q: expected %q or %q", m.Run.Mode, ModeScalar, ModeUI)
	}
	switch m.Run.Frontend {
	case FrontendOutline, FrontendWire:
	default:
		return fmt.Errorf("run.frontend %q: expected %q or %q", m.Run.Frontend, FrontendOutline, FrontendWire)
	}
	return nil
}

// Load parses a kbj.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a kbj.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// Path resolves p against the manifest directory. Absolute and empty
// paths are returned unchanged.
func (m *Manifest) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// CachePath returns the resolved path of the artifact store.
func (m *Manifest) CachePath() string {
	return m.Path(m.Cache.Path)
}
