// Package project locates and parses hookc.toml, the per-project manifest
// carrying default transpile options for the CLI.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"hookc/internal/debug"
	"hookc/internal/pipeline"
)

const ManifestName = "hookc.toml"

var ErrProjectSectionMissing = errors.New("missing [project] section")

// Manifest is the decoded hookc.toml.
type Manifest struct {
	Project   ProjectSection   `toml:"project"`
	Transpile TranspileSection `toml:"transpile"`
	Cache     CacheSection     `toml:"cache"`
}

type ProjectSection struct {
	Name string `toml:"name"`
}

type TranspileSection struct {
	TypeScript   bool   `toml:"typescript"`
	Target       string `toml:"target"`
	ModuleFormat string `toml:"module_format"`
	Factory      string `toml:"factory"`
	Debug        string `toml:"debug"`
}

type CacheSection struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Default returns the manifest used when no hookc.toml is found.
func Default() Manifest {
	return Manifest{
		Transpile: TranspileSection{
			Target:       "web",
			ModuleFormat: "host-bridge",
			Debug:        "off",
		},
		Cache: CacheSection{Enabled: true},
	}
}

// FindManifest walks up from startDir to locate hookc.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// FindRoot returns the directory containing hookc.toml, if any.
func FindRoot(startDir string) (root string, ok bool, err error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return "", ok, err
	}
	return filepath.Dir(path), true, nil
}

// Load parses a manifest file, filling unset fields with defaults.
func Load(path string) (Manifest, error) {
	m := Default()
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("project") {
		return Manifest{}, fmt.Errorf("%s: %w", path, ErrProjectSectionMissing)
	}
	if strings.TrimSpace(m.Project.Name) == "" {
		return Manifest{}, fmt.Errorf("%s: [project].name must be set", path)
	}
	return m, nil
}

// PipelineOptions validates the manifest's transpile section into concrete
// pipeline options. The debug context is built from the manifest's level
// unless the caller passes an override.
func (m Manifest) PipelineOptions(override *debug.Context) (pipeline.Options, error) {
	target, err := pipeline.ParsePlatform(m.Transpile.Target)
	if err != nil {
		return pipeline.Options{}, err
	}
	format, err := pipeline.ParseFormat(m.Transpile.ModuleFormat)
	if err != nil {
		return pipeline.Options{}, err
	}
	dbg := override
	if dbg == nil {
		level, err := debug.ParseLevel(m.Transpile.Debug)
		if err != nil {
			return pipeline.Options{}, err
		}
		dbg = debug.New(level)
	}
	return pipeline.Options{
		TypeScript:   m.Transpile.TypeScript,
		Target:       target,
		ModuleFormat: format,
		Factory:      m.Transpile.Factory,
		Debug:        dbg,
	}, nil
}

// WriteDefault creates a starter manifest for hookc init. It refuses to
// overwrite an existing file.
func WriteDefault(path, name string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	content := fmt.Sprintf(`[project]
name = %q

[transpile]
typescript = false
target = "web"
module_format = "host-bridge"
debug = "off"

[cache]
enabled = true
`, name)
	return os.WriteFile(path, []byte(content), 0o644)
}
