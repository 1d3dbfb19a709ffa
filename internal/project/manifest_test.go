package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hookc/internal/pipeline"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[project]
name = "demo-hooks"

[transpile]
typescript = true
target = "android"
module_format = "host-bridge"
factory = "h"
debug = "trace"

[cache]
enabled = false
dir = "/tmp/hookc-cache"
`)
	m, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Project.Name != "demo-hooks" || !m.Transpile.TypeScript || m.Transpile.Target != "android" {
		t.Errorf("got %+v", m)
	}
	if m.Cache.Enabled || m.Cache.Dir != "/tmp/hookc-cache" {
		t.Errorf("cache section %+v", m.Cache)
	}

	opts, err := m.PipelineOptions(nil)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Target != pipeline.PlatformAndroid || !opts.TypeScript || opts.Factory != "h" {
		t.Errorf("options %+v", opts)
	}
	if opts.Debug == nil {
		t.Error("debug context not built")
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "[project]\nname = \"x\"\n")
	m, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Transpile.Target != "web" || m.Transpile.ModuleFormat != "host-bridge" || m.Transpile.Debug != "off" {
		t.Errorf("defaults not applied: %+v", m.Transpile)
	}
	if !m.Cache.Enabled {
		t.Error("cache default not applied")
	}
}

func TestLoadRejectsMissingProject(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "[transpile]\ntarget = \"web\"\n")
	_, err := Load(path)
	if !errors.Is(err, ErrProjectSectionMissing) {
		t.Errorf("expected ErrProjectSectionMissing, got %v", err)
	}
}

func TestLoadRejectsEmptyName(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "[project]\nname = \"  \"\n")
	if _, err := Load(path); err == nil {
		t.Error("blank name accepted")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "[project]\nname = \"x\"\n[transpile]\ntarget = \"vax\"\n")
	m, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := m.PipelineOptions(nil); err == nil {
		t.Error("unknown target accepted")
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[project]\nname = \"x\"\n")
	nested := filepath.Join(root, "src", "hooks")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	path, ok, err := FindManifest(nested)
	if err != nil || !ok {
		t.Fatalf("find: ok=%v err=%v", ok, err)
	}
	if path != filepath.Join(root, ManifestName) {
		t.Errorf("found %q", path)
	}
	dir, ok, err := FindRoot(nested)
	if err != nil || !ok || dir != root {
		t.Errorf("root %q ok=%v err=%v", dir, ok, err)
	}
}

func TestFindManifestAbsent(t *testing.T) {
	_, ok, err := FindManifest(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("manifest found in empty dir")
	}
}

func TestWriteDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ManifestName)
	if err := WriteDefault(path, "starter"); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatalf("starter manifest does not load: %v", err)
	}
	if m.Project.Name != "starter" {
		t.Errorf("name %q", m.Project.Name)
	}
	if err := WriteDefault(path, "starter"); err == nil {
		t.Error("overwrite allowed")
	}
}
