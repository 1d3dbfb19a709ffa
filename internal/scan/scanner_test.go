package scan

import (
	"errors"
	"testing"

	"hookc/internal/diag"
)

func mustScan(t *testing.T, src string) Spans {
	t.Helper()
	spans, err := Scan([]byte(src))
	if err != nil {
		t.Fatalf("Scan(%q) failed: %v", src, err)
	}
	if err := spans.Validate(uint32(len(src))); err != nil {
		t.Fatalf("Scan(%q) spans invalid: %v", src, err)
	}
	return spans
}

func TestScanPlainCode(t *testing.T) {
	spans := mustScan(t, "const x = 1;")
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Ctx != Code {
		t.Errorf("expected Code, got %v", spans[0].Ctx)
	}
}

func TestScanContexts(t *testing.T) {
	tests := []struct {
		src  string
		want []Context
	}{
		{`a = "str";`, []Context{Code, String, Code}},
		{`a = 'str';`, []Context{Code, String, Code}},
		{"a // comment", []Context{Code, LineComment}},
		{"a /* c */ b", []Context{Code, BlockComment, Code}},
		{"a // c\nb", []Context{Code, LineComment, Code}},
		{"x = `text`;", []Context{Code, TemplateText, Code}},
		{"x = `a${b}c`;", []Context{Code, TemplateText, TemplateSub, TemplateText, Code}},
		{`"ab\"cd"`, []Context{String}},
		{`'don\'t'`, []Context{String}},
	}
	for _, tt := range tests {
		spans := mustScan(t, tt.src)
		if len(spans) != len(tt.want) {
			t.Errorf("%q: expected %d spans, got %d (%v)", tt.src, len(tt.want), len(spans), spans)
			continue
		}
		for i, ctx := range tt.want {
			if spans[i].Ctx != ctx {
				t.Errorf("%q span %d: expected %v, got %v", tt.src, i, ctx, spans[i].Ctx)
			}
		}
	}
}

func TestScanStringWithCommentMarkers(t *testing.T) {
	src := `a = "// not a comment"; b = '/* neither */';`
	spans := mustScan(t, src)
	for _, sp := range spans {
		if sp.Ctx == LineComment || sp.Ctx == BlockComment {
			t.Errorf("comment span found inside string content: %v", sp)
		}
	}
}

func TestScanCommentWithQuote(t *testing.T) {
	src := "// it's fine\nx = 1;"
	spans := mustScan(t, src)
	if spans[0].Ctx != Code && spans[0].Ctx != LineComment {
		t.Fatalf("unexpected first span %v", spans[0])
	}
	// The apostrophe must not open a string.
	for _, sp := range spans {
		if sp.Ctx == String {
			t.Errorf("string span leaked out of comment: %v", sp)
		}
	}
}

func TestScanNestedSubstitution(t *testing.T) {
	src := "x = `a${ b + {c: '}'}['}'] }z`;"
	spans := mustScan(t, src)
	var sub *Span
	for i := range spans {
		if spans[i].Ctx == TemplateSub {
			sub = &spans[i]
		}
	}
	if sub == nil {
		t.Fatal("no TemplateSub span found")
	}
	got := src[sub.Start:sub.End]
	if got != "${ b + {c: '}'}['}'] }" {
		t.Errorf("substitution boundaries wrong: %q", got)
	}
}

func TestScanTemplateInsideSubstitution(t *testing.T) {
	src := "x = `a${`inner${y}`}b`;"
	spans := mustScan(t, src)
	count := 0
	for _, sp := range spans {
		if sp.Ctx == TemplateSub {
			count++
		}
	}
	// The nested template stays inside the single outer substitution.
	if count != 1 {
		t.Errorf("expected 1 TemplateSub, got %d", count)
	}
}

func TestScanErrors(t *testing.T) {
	tests := []struct {
		src  string
		code diag.Code
	}{
		{`x = "never closed`, diag.ScanUnterminatedString},
		{"x = /* forever", diag.ScanUnterminatedComment},
		{"x = `forever", diag.ScanUnterminatedTemplate},
		{"x = `a${b", diag.ScanUnterminatedSubstExpr},
	}
	for _, tt := range tests {
		_, err := Scan([]byte(tt.src))
		if err == nil {
			t.Errorf("%q: expected error, got none", tt.src)
			continue
		}
		var pe *diag.PosError
		if !errors.As(err, &pe) {
			t.Errorf("%q: expected PosError, got %T", tt.src, err)
			continue
		}
		if pe.Code != tt.code {
			t.Errorf("%q: expected code %v, got %v", tt.src, tt.code, pe.Code)
		}
	}
}

func TestScanEmptyInput(t *testing.T) {
	spans := mustScan(t, "")
	if len(spans) != 0 {
		t.Errorf("expected no spans for empty input, got %d", len(spans))
	}
}

func TestContextAt(t *testing.T) {
	src := `a = "str"; // tail`
	spans := mustScan(t, src)
	tests := []struct {
		off  uint32
		want Context
	}{
		{0, Code},
		{5, String},
		{12, LineComment},
		{uint32(len(src) + 10), Code},
	}
	for _, tt := range tests {
		if got := spans.ContextAt(tt.off); got != tt.want {
			t.Errorf("ContextAt(%d): expected %v, got %v", tt.off, tt.want, got)
		}
	}
}

func TestRewritable(t *testing.T) {
	if !Code.Rewritable() || !TemplateSub.Rewritable() {
		t.Error("Code and TemplateSub must be rewritable")
	}
	for _, ctx := range []Context{String, LineComment, BlockComment, TemplateText} {
		if ctx.Rewritable() {
			t.Errorf("%v must not be rewritable", ctx)
		}
	}
}

func TestValidateRejectsGaps(t *testing.T) {
	bad := Spans{{Ctx: Code, Start: 0, End: 2}, {Ctx: Code, Start: 3, End: 5}}
	if err := bad.Validate(5); err == nil {
		t.Error("expected gap to fail validation")
	}
	short := Spans{{Ctx: Code, Start: 0, End: 2}}
	if err := short.Validate(5); err == nil {
		t.Error("expected short coverage to fail validation")
	}
}
