package imports

import (
	"testing"

	"hookc/internal/scan"
)

func extract(t *testing.T, src string) []Record {
	t.Helper()
	spans, err := scan.Scan([]byte(src))
	if err != nil {
		t.Fatalf("scan %q: %v", src, err)
	}
	recs, err := Extract([]byte(src), spans, nil)
	if err != nil {
		t.Fatalf("extract %q: %v", src, err)
	}
	return recs
}

func one(t *testing.T, src string) Record {
	t.Helper()
	recs := extract(t, src)
	if len(recs) != 1 {
		t.Fatalf("%q: expected 1 record, got %d", src, len(recs))
	}
	return recs[0]
}

func checkBindings(t *testing.T, src string, got, want []Binding) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("%q: expected %d bindings, got %d", src, len(want), len(got))
		return
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%q binding %d: got %+v, want %+v", src, i, got[i], want[i])
		}
	}
}

func TestDefaultImport(t *testing.T) {
	src := "import React from 'react';"
	rec := one(t, src)
	if rec.Specifier != "react" || rec.Kind != KindDefault || rec.Class != ClassBuiltin {
		t.Errorf("got %+v", rec)
	}
	checkBindings(t, src, rec.Bindings, []Binding{{Kind: BindDefault, Imported: "default", Local: "React"}})
	if rec.Start != 0 || rec.End != uint32(len(src)) {
		t.Errorf("offsets [%d,%d), want [0,%d)", rec.Start, rec.End, len(src))
	}
}

func TestNamedImports(t *testing.T) {
	src := "import { useState, useEffect as ue } from 'react';"
	rec := one(t, src)
	if rec.Kind != KindNamed {
		t.Errorf("kind %v", rec.Kind)
	}
	checkBindings(t, src, rec.Bindings, []Binding{
		{Kind: BindNamed, Imported: "useState", Local: "useState"},
		{Kind: BindNamed, Imported: "useEffect", Local: "ue"},
	})
}

func TestNamespaceImport(t *testing.T) {
	rec := one(t, "import * as RN from 'react-native';")
	if rec.Kind != KindNamespace || rec.Class != ClassBuiltin {
		t.Errorf("got %+v", rec)
	}
	checkBindings(t, "", rec.Bindings, []Binding{{Kind: BindNamespace, Imported: "*", Local: "RN"}})
}

func TestSideEffectImport(t *testing.T) {
	rec := one(t, "import './side.css';")
	if rec.Kind != KindSideEffect || !rec.HasSpecifier || rec.Specifier != "./side.css" {
		t.Errorf("got %+v", rec)
	}
	if rec.Class != ClassRelative {
		t.Errorf("class %v", rec.Class)
	}
	if len(rec.Bindings) != 0 {
		t.Errorf("unexpected bindings %+v", rec.Bindings)
	}
}

func TestMixedClausePrecedence(t *testing.T) {
	rec := one(t, "import D, { a } from '@scope/pkg';")
	if rec.Kind != KindDefault {
		t.Errorf("default binding must dominate named, got %v", rec.Kind)
	}
	if rec.Class != ClassScoped {
		t.Errorf("class %v", rec.Class)
	}
	checkBindings(t, "", rec.Bindings, []Binding{
		{Kind: BindDefault, Imported: "default", Local: "D"},
		{Kind: BindNamed, Imported: "a", Local: "a"},
	})
}

func TestTypeOnlyImport(t *testing.T) {
	rec := one(t, "import type { Props } from './types';")
	if !rec.TypeOnly {
		t.Error("expected TypeOnly")
	}
	rec = one(t, "import type Big from './types';")
	if !rec.TypeOnly {
		t.Error("expected TypeOnly for default-form type import")
	}
}

func TestTypeAsDefaultBinding(t *testing.T) {
	rec := one(t, "import type from 'mod';")
	if rec.TypeOnly {
		t.Error("'type' bound as default must not be type-only")
	}
	checkBindings(t, "", rec.Bindings, []Binding{{Kind: BindDefault, Imported: "default", Local: "type"}})
}

func TestDynamicImport(t *testing.T) {
	rec := one(t, "const m = await import('./lazy.js');")
	if !rec.Dynamic || rec.Kind != KindDynamic {
		t.Errorf("got %+v", rec)
	}
	if !rec.HasSpecifier || rec.Specifier != "./lazy.js" {
		t.Errorf("specifier %q (has=%v)", rec.Specifier, rec.HasSpecifier)
	}
	if rec.ArgText != "'./lazy.js'" {
		t.Errorf("arg text %q", rec.ArgText)
	}
}

func TestDynamicImportComputed(t *testing.T) {
	rec := one(t, "load(import(base + '/mod.js'));")
	if !rec.Dynamic || rec.HasSpecifier {
		t.Errorf("computed specifier must stay unresolved: %+v", rec)
	}
	if rec.ArgText != "base + '/mod.js'" {
		t.Errorf("arg text %q", rec.ArgText)
	}
}

func TestDynamicImportInTemplate(t *testing.T) {
	rec := one(t, "const u = `${import('./m.js')}`;")
	if !rec.Dynamic || rec.Specifier != "./m.js" {
		t.Errorf("got %+v", rec)
	}
}

func TestImportMetaSkipped(t *testing.T) {
	if recs := extract(t, "const u = import.meta.url;"); len(recs) != 0 {
		t.Errorf("import.meta produced records: %+v", recs)
	}
}

func TestProtectedRegionsIgnored(t *testing.T) {
	srcs := []string{
		`s = "import x from 'y'";`,
		"// import z from 'w'\nrun();",
		"/* import a from 'b' */ go();",
		"t = `import c from 'd'`;",
	}
	for _, src := range srcs {
		if recs := extract(t, src); len(recs) != 0 {
			t.Errorf("%q produced records: %+v", src, recs)
		}
	}
}

func TestWordBoundary(t *testing.T) {
	srcs := []string{
		"reimport('x');",
		"importer.load('x');",
		"obj.import('x');",
	}
	for _, src := range srcs {
		if recs := extract(t, src); len(recs) != 0 {
			t.Errorf("%q produced records: %+v", src, recs)
		}
	}
}

func TestMultilineClauseMatchesSingleLine(t *testing.T) {
	multi := "import {\n  alpha,\n  beta as b,\n} from 'pkg';"
	single := "import { alpha, beta as b } from 'pkg';"
	mr, sr := one(t, multi), one(t, single)
	if mr.Specifier != sr.Specifier || mr.Kind != sr.Kind {
		t.Errorf("multi %+v vs single %+v", mr, sr)
	}
	checkBindings(t, multi, mr.Bindings, sr.Bindings)
}

func TestMultipleStatements(t *testing.T) {
	src := "import A from 'a';\nimport { b } from 'b';\ncode();\nimport('./c');"
	recs := extract(t, src)
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if recs[0].Specifier != "a" || recs[1].Specifier != "b" || recs[2].Specifier != "./c" {
		t.Errorf("specifiers %q %q %q", recs[0].Specifier, recs[1].Specifier, recs[2].Specifier)
	}
}

func TestExtractErrors(t *testing.T) {
	srcs := []string{
		"import x 'y';",
		"import { a",
		"import * broken from 'm';",
	}
	for _, src := range srcs {
		spans, err := scan.Scan([]byte(src))
		if err != nil {
			t.Fatalf("scan %q: %v", src, err)
		}
		if _, err := Extract([]byte(src), spans, nil); err == nil {
			t.Errorf("%q: expected error", src)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		spec string
		want Class
	}{
		{"react", ClassBuiltin},
		{"react-dom", ClassBuiltin},
		{"react-native", ClassBuiltin},
		{"@hookrt/core", ClassBuiltin},
		{"@scope/pkg", ClassScoped},
		{"./local", ClassRelative},
		{"../up", ClassRelative},
		{"/abs/path", ClassRelative},
		{"lodash", ClassPackage},
	}
	for _, tt := range tests {
		if got := Classify(tt.spec); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.spec, got, tt.want)
		}
	}
}

func TestCommentsInsideClause(t *testing.T) {
	tests := []struct {
		src  string
		want []Binding
	}{
		{
			"import { a, /* note */ b } from 'm';",
			[]Binding{
				{Kind: BindNamed, Imported: "a", Local: "a"},
				{Kind: BindNamed, Imported: "b", Local: "b"},
			},
		},
		{
			"import def, // default binding\n  { x } from 'm';",
			[]Binding{
				{Kind: BindDefault, Imported: "default", Local: "def"},
				{Kind: BindNamed, Imported: "x", Local: "x"},
			},
		},
		{
			"import /* ns */ * as all from 'm';",
			[]Binding{{Kind: BindNamespace, Imported: "*", Local: "all"}},
		},
	}
	for _, tt := range tests {
		rec := one(t, tt.src)
		if rec.Specifier != "m" || !rec.HasSpecifier {
			t.Errorf("%q: specifier %q resolved=%t", tt.src, rec.Specifier, rec.HasSpecifier)
		}
		checkBindings(t, tt.src, rec.Bindings, tt.want)
	}
}

func TestDynamicImportTemplateArgUnresolved(t *testing.T) {
	src := "const m = import(`./mods/${name}`);"
	rec := one(t, src)
	if !rec.Dynamic || rec.HasSpecifier {
		t.Errorf("dynamic=%t resolved=%t, want dynamic and unresolved", rec.Dynamic, rec.HasSpecifier)
	}
	if rec.ArgText != "`./mods/${name}`" {
		t.Errorf("arg text %q", rec.ArgText)
	}
}

func TestDynamicImportPlainTemplateArg(t *testing.T) {
	rec := one(t, "import(`./fixed.js`);")
	if !rec.HasSpecifier || rec.Specifier != "./fixed.js" {
		t.Errorf("got %+v, want resolved ./fixed.js", rec)
	}
}
