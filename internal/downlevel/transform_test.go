package downlevel

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"hookc/internal/debug"
	"hookc/internal/diag"
	"hookc/internal/scan"
)

func rewrite(t *testing.T, src string, opts Options) (string, int) {
	t.Helper()
	spans, err := scan.Scan([]byte(src))
	if err != nil {
		t.Fatalf("scan %q: %v", src, err)
	}
	out, n, err := Transform([]byte(src), spans, opts, nil)
	if err != nil {
		t.Fatalf("transform %q: %v", src, err)
	}
	return out, n
}

func TestOptionalProperty(t *testing.T) {
	out, n := rewrite(t, "x = a?.b;", Options{})
	want := "x = (a != null ? a.b : undefined);"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
	if n != 1 {
		t.Errorf("expected 1 rewrite, got %d", n)
	}
}

func TestOptionalChainLinks(t *testing.T) {
	out, _ := rewrite(t, "x = a?.b?.c;", Options{})
	want := "x = ((a != null ? a.b : undefined) != null ? (a != null ? a.b : undefined).c : undefined);"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestOptionalCall(t *testing.T) {
	out, _ := rewrite(t, "y = f?.(1, 2);", Options{})
	want := "y = (f != null ? f(1, 2) : undefined);"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestOptionalIndex(t *testing.T) {
	out, _ := rewrite(t, "y = obj?.[key];", Options{})
	want := "y = (obj != null ? obj[key] : undefined);"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestNullishCoalescing(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"x = a ?? b;", "x = (a != null ? a : b);"},
		{"x = a ?? b", "x = (a != null ? a : b)"},
		{"x = a ?? b ?? c;", "x = (a != null ? a : (b != null ? b : c));"},
		{"f(a ?? b);", "f((a != null ? a : b));"},
		{"return a ?? b;", "return (a != null ? a : b);"},
	}
	for _, tt := range tests {
		out, _ := rewrite(t, tt.src, Options{})
		if out != tt.want {
			t.Errorf("%q: got %q, want %q", tt.src, out, tt.want)
		}
	}
}

func TestConditionalWithLeadingDotNumber(t *testing.T) {
	src := "x = c ?.5 : y;"
	out, n := rewrite(t, src, Options{})
	if out != src {
		t.Errorf("conditional changed: %q", out)
	}
	if n != 0 {
		t.Errorf("expected 0 rewrites, got %d", n)
	}
}

func TestTemplateSubstitution(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"v = `id=${a ?? b}`;", "v = `id=${(a != null ? a : b)}`;"},
		{"const msg = `Hello ${user?.name}`;", "const msg = `Hello ${(user != null ? user.name : undefined)}`;"},
	}
	for _, tt := range tests {
		out, _ := rewrite(t, tt.src, Options{})
		if out != tt.want {
			t.Errorf("%q: got %q, want %q", tt.src, out, tt.want)
		}
	}
}

func TestProtectedRegionsUntouched(t *testing.T) {
	tests := []string{
		`s = "a ?? b";`,
		`s = 'a?.b';`,
		"// a ?? b?.c",
		"/* value ?? fallback */ x = 1;",
		"t = `literal ?? text`;",
	}
	for _, src := range tests {
		out, n := rewrite(t, src, Options{})
		if out != src {
			t.Errorf("%q changed: %q", src, out)
		}
		if n != 0 {
			t.Errorf("%q: expected 0 rewrites, got %d", src, n)
		}
	}
}

func TestDeclarationRewrite(t *testing.T) {
	out, _ := rewrite(t, "const a = 1; let b = 2;", Options{RewriteDeclarations: true})
	want := "var a = 1; var b = 2;"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
	// Word boundaries: "letter" and "obj.const" stay.
	out, _ = rewrite(t, "letter = 1; x.let = 2;", Options{RewriteDeclarations: true})
	if out != "letter = 1; x.let = 2;" {
		t.Errorf("boundary leak: %q", out)
	}
}

func TestDeclarationsKeptByDefault(t *testing.T) {
	src := "const a = 1;"
	out, _ := rewrite(t, src, Options{})
	if out != src {
		t.Errorf("const rewritten without RewriteDeclarations: %q", out)
	}
}

func TestIdempotent(t *testing.T) {
	srcs := []string{
		"x = a?.b?.c;",
		"y = f?.(g ?? h);",
		"z = obj?.[k] ?? fallback;",
		"v = `${a ?? b}` + c?.d;",
	}
	for _, src := range srcs {
		once, _ := rewrite(t, src, Options{})
		twice, n := rewrite(t, once, Options{})
		if twice != once {
			t.Errorf("%q: second pass changed output\nonce:  %q\ntwice: %q", src, once, twice)
		}
		if n != 0 {
			t.Errorf("%q: second pass reported %d rewrites", src, n)
		}
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		src  string
		code diag.Code
	}{
		{"a ??= b;", diag.DownUnsafeRewrite},
		{"x = a ??;", diag.DownMissingRHS},
		{"x = a ??", diag.DownMissingRHS},
	}
	for _, tt := range tests {
		spans, err := scan.Scan([]byte(tt.src))
		if err != nil {
			t.Fatalf("scan %q: %v", tt.src, err)
		}
		_, _, err = Transform([]byte(tt.src), spans, Options{}, nil)
		var pe *diag.PosError
		if !errors.As(err, &pe) {
			t.Errorf("%q: expected PosError, got %v", tt.src, err)
			continue
		}
		if pe.Code != tt.code {
			t.Errorf("%q: expected %v, got %v", tt.src, tt.code, pe.Code)
		}
	}
}

// Operators planted in strings and comments must survive byte for byte no
// matter where they land.
func TestProtectedInsertionProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	frags := []string{`"x ?? y"`, `'p?.q'`, "/* a ?? b */", "`t ?? ${u}`"}
	for i := 0; i < 50; i++ {
		var b strings.Builder
		parts := rng.Intn(4) + 1
		for j := 0; j < parts; j++ {
			b.WriteString("v")
			b.WriteString(string(rune('a' + rng.Intn(26))))
			b.WriteString(" = ")
			b.WriteString(frags[rng.Intn(len(frags))])
			b.WriteString(";\n")
		}
		src := b.String()
		out, _ := rewrite(t, src, Options{})
		// Only the ?? inside the one template substitution may move; the
		// fragments used here keep substitutions operator-free except `${u}`.
		for _, f := range []string{`"x ?? y"`, `'p?.q'`, "/* a ?? b */"} {
			if strings.Count(src, f) != strings.Count(out, f) {
				t.Fatalf("fragment %q not preserved\nin:  %q\nout: %q", f, src, out)
			}
		}
	}
}

func TestDebugCounting(t *testing.T) {
	dbg := debug.New(debug.LevelTrace)
	spans, err := scan.Scan([]byte("x = a ?? b;"))
	if err != nil {
		t.Fatal(err)
	}
	if _, n, err := Transform([]byte("x = a ?? b;"), spans, Options{}, dbg); err != nil || n != 1 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}
