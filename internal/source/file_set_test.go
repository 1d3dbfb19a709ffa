package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAddVirtualNormalizes(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("unit.js", []byte("\xEF\xBB\xBFa = 1;\r\nb = 2;\r\n"))
	f := fs.Get(id)
	if string(f.Content) != "a = 1;\nb = 2;\n" {
		t.Errorf("content %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 {
		t.Error("BOM flag not set")
	}
	if f.Flags&FileNormalizedCRLF == 0 {
		t.Error("CRLF flag not set")
	}
	if f.Flags&FileVirtual == 0 {
		t.Error("virtual flag not set")
	}
}

func TestPos(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("unit.js", []byte("one\ntwo\nthree\n"))
	tests := []struct {
		off       uint32
		line, col uint32
	}{
		{0, 1, 1},
		{2, 1, 3},
		{4, 2, 1},
		{6, 2, 3},
		{8, 3, 1},
		{12, 3, 5},
	}
	for _, tt := range tests {
		lc := fs.Pos(id, tt.off)
		if lc.Line != tt.line || lc.Col != tt.col {
			t.Errorf("Pos(%d) = %d:%d, want %d:%d", tt.off, lc.Line, lc.Col, tt.line, tt.col)
		}
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("unit.js", []byte("first\nsecond\nlast"))
	f := fs.Get(id)
	tests := []struct {
		n    uint32
		want string
	}{
		{1, "first"},
		{2, "second"},
		{3, "last"},
		{0, ""},
		{9, ""},
	}
	for _, tt := range tests {
		if got := f.GetLine(tt.n); got != tt.want {
			t.Errorf("GetLine(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hook.jsx")
	if err := os.WriteFile(path, []byte("x = 1;\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "x = 1;\n" {
		t.Errorf("content %q", f.Content)
	}
	got, ok := fs.GetByPath(path)
	if !ok || got.ID != id {
		t.Errorf("GetByPath lookup failed")
	}
	if _, err := fs.Load(filepath.Join(dir, "missing.js")); err == nil {
		t.Error("missing file loaded")
	}
}
