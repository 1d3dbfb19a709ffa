package pipeline

import (
	"errors"
	"strings"
	"testing"

	"hookc/internal/debug"
	"hookc/internal/jsx"
	"hookc/internal/scan"
)

const counterSrc = `import { useState } from 'react';

interface Props {
  initial: number;
}

export default function useCounter(props: Props) {
  const [count, setCount] = useState(props.initial ?? 0);
  return <div onPress={() => setCount(count + 1)}>{count}</div>;
}
`

func TestFullHookForAndroid(t *testing.T) {
	res, err := Transpile(counterSrc, "useCounter.tsx", Options{
		TypeScript: true,
		Target:     PlatformAndroid,
	})
	if err != nil {
		t.Fatalf("transpile failed: %v", err)
	}
	for _, frag := range []string{
		"var { useState } = require('react');",
		"module.exports.default = function useCounter(props)",
		`__hook_jsx_runtime.jsx("div", { onPress: () => setCount(count + 1) }, count)`,
		"(props.initial != null ? props.initial : 0)",
	} {
		if !strings.Contains(res.Code, frag) {
			t.Errorf("output missing %q:\n%s", frag, res.Code)
		}
	}
	for _, gone := range []string{"interface", "export ", "<div", "??", ": Props"} {
		if strings.Contains(res.Code, gone) {
			t.Errorf("output still contains %q:\n%s", gone, res.Code)
		}
	}
	if !res.HasJSX {
		t.Error("HasJSX not set")
	}
	if res.HasDynamicImport {
		t.Error("HasDynamicImport set without a dynamic import")
	}
	if len(res.Imports) != 1 || res.Imports[0].Specifier != "react" {
		t.Errorf("imports %+v", res.Imports)
	}
	if res.Version == "" {
		t.Error("Version empty")
	}
}

func TestWebSkipsDownlevel(t *testing.T) {
	src := "const v = a ?? b;\n"
	res, err := Transpile(src, "mod.js", Options{Target: PlatformWeb})
	if err != nil {
		t.Fatalf("transpile failed: %v", err)
	}
	if res.Code != src {
		t.Errorf("web target changed plain code: %q", res.Code)
	}
}

func TestPassthroughKeepsModuleSyntax(t *testing.T) {
	src := "import A from 'a';\nexport default A;\n"
	res, err := Transpile(src, "mod.js", Options{ModuleFormat: FormatSourcePassthrough})
	if err != nil {
		t.Fatalf("transpile failed: %v", err)
	}
	if res.Code != src {
		t.Errorf("passthrough changed module syntax: %q", res.Code)
	}
	if len(res.Imports) != 1 || res.Imports[0].Specifier != "a" {
		t.Errorf("extraction must still run: %+v", res.Imports)
	}
}

func TestJavaScriptSkipsTypeStrip(t *testing.T) {
	src := "const n = { type: 1, as: 2 };\n"
	res, err := Transpile(src, "plain.js", Options{})
	if err != nil {
		t.Fatalf("transpile failed: %v", err)
	}
	if res.Code != src {
		t.Errorf("plain js changed: %q", res.Code)
	}
}

func TestDynamicImportFlag(t *testing.T) {
	res, err := Transpile("const m = await import('./x');\n", "dyn.js", Options{})
	if err != nil {
		t.Fatalf("transpile failed: %v", err)
	}
	if !res.HasDynamicImport {
		t.Error("HasDynamicImport not set")
	}
	if !strings.Contains(res.Code, "__hook_import('./x')") {
		t.Errorf("dynamic call not bridged: %q", res.Code)
	}
}

func TestDebuggerStatementPreserved(t *testing.T) {
	src := "debugger;\nconst x = f?.();\n"
	res, err := Transpile(src, "dbg.js", Options{Target: PlatformIOS})
	if err != nil {
		t.Fatalf("transpile failed: %v", err)
	}
	if !strings.HasPrefix(res.Code, "debugger;\n") {
		t.Errorf("debugger statement lost: %q", res.Code)
	}
}

func TestCustomFactory(t *testing.T) {
	res, err := Transpile("el = <br />;\n", "f.jsx", Options{Factory: "MyRuntime.h"})
	if err != nil {
		t.Fatalf("transpile failed: %v", err)
	}
	if !strings.Contains(res.Code, `MyRuntime.h("br", null)`) {
		t.Errorf("custom factory not used: %q", res.Code)
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Transpile("ok();\nx = \"abc", "bad.js", Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if perr.Kind != KindParse {
		t.Errorf("kind %v", perr.Kind)
	}
	if perr.Line != 2 || perr.Column != 5 {
		t.Errorf("position %d:%d, want 2:5", perr.Line, perr.Column)
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		src  string
		opts Options
		kind ErrKind
	}{
		{"x = <div>open", Options{}, KindParse},
		{"import x 'y';", Options{}, KindImportResolution},
		{"x = a ??;", Options{Target: PlatformAndroid}, KindDownlevel},
	}
	for _, tt := range tests {
		_, err := Transpile(tt.src, "unit.js", tt.opts)
		var perr *Error
		if !errors.As(err, &perr) {
			t.Errorf("%q: expected *Error, got %v", tt.src, err)
			continue
		}
		if perr.Kind != tt.kind {
			t.Errorf("%q: kind %v, want %v", tt.src, perr.Kind, tt.kind)
		}
	}
}

func TestDebugCollection(t *testing.T) {
	dbg := debug.New(debug.LevelTrace)
	res, err := Transpile(counterSrc, "useCounter.tsx", Options{
		TypeScript: true,
		Target:     PlatformAndroid,
		Debug:      dbg,
	})
	if err != nil {
		t.Fatalf("transpile failed: %v", err)
	}
	if len(res.Debug) == 0 {
		t.Fatal("no debug entries at trace level")
	}
	seen := false
	for _, e := range res.Debug {
		if strings.Contains(e.Message, "entered emitted") {
			seen = true
		}
	}
	if !seen {
		t.Error("missing state transition entries")
	}

	off, err := Transpile("x = 1;\n", "q.js", Options{Debug: debug.New(debug.LevelOff)})
	if err != nil {
		t.Fatalf("transpile failed: %v", err)
	}
	if len(off.Debug) != 0 {
		t.Errorf("entries collected at level off: %+v", off.Debug)
	}
}

func TestCRLFNormalized(t *testing.T) {
	res, err := Transpile("a = 1;\r\nb = 2;\r\n", "crlf.js", Options{})
	if err != nil {
		t.Fatalf("transpile failed: %v", err)
	}
	if strings.Contains(res.Code, "\r") {
		t.Errorf("carriage returns survived: %q", res.Code)
	}
}

func TestParsePlatformAndFormat(t *testing.T) {
	if p, err := ParsePlatform(""); err != nil || p != PlatformWeb {
		t.Errorf("empty platform: %v %v", p, err)
	}
	if _, err := ParsePlatform("vax"); err == nil {
		t.Error("bad platform accepted")
	}
	if f, err := ParseFormat("passthrough"); err != nil || f != FormatSourcePassthrough {
		t.Errorf("passthrough alias: %v %v", f, err)
	}
	if !PlatformWeb.Modern() || PlatformAndroid.Modern() || PlatformIOS.Modern() {
		t.Error("Modern() wrong")
	}
}

type passBackend struct{}

func (passBackend) Name() string { return "pass" }

func (passBackend) Transform(src []byte, _ scan.Spans, _ jsx.Options, _ *debug.Context) (string, bool, error) {
	return string(src), false, nil
}

func TestBackendOverride(t *testing.T) {
	if DefaultBackend().Name() != "scanner" {
		t.Errorf("default backend %q", DefaultBackend().Name())
	}
	src := "el = <br />;\n"
	res, err := Transpile(src, "b.jsx", Options{Backend: passBackend{}})
	if err != nil {
		t.Fatalf("transpile failed: %v", err)
	}
	if res.Code != src || res.HasJSX {
		t.Errorf("override backend not used: %q (jsx=%v)", res.Code, res.HasJSX)
	}
}
