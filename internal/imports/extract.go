package imports

import (
	"bytes"
	"strings"

	"hookc/internal/debug"
	"hookc/internal/diag"
	"hookc/internal/scan"
)

// Extract walks the source unit and collects one Record per static import
// statement and per dynamic import call. The import keyword is recognized
// only in Code spans (dynamic calls also in template substitutions);
// occurrences in strings and comments never match. Statements may span
// multiple lines; the clause is coalesced until its specifier terminates it.
func Extract(src []byte, spans scan.Spans, dbg *debug.Context) ([]Record, error) {
	e := &extractor{src: src, spans: spans, dbg: dbg}
	n := uint32(len(src))
	si := 0
	for i := uint32(0); i < n; {
		for si < len(spans) && spans[si].End <= i {
			si++
		}
		if si >= len(spans) {
			break
		}
		sp := spans[si]
		if sp.Ctx != scan.Code && sp.Ctx != scan.TemplateSub {
			i = sp.End
			continue
		}
		if i < sp.Start {
			i = sp.Start
		}
		j, found := findKeyword(src, i, sp.End)
		if !found {
			i = sp.End
			continue
		}
		next, err := e.statement(j, sp.Ctx)
		if err != nil {
			return nil, err
		}
		i = next
	}
	if e.dbg.Enabled(debug.LevelInfo) {
		e.dbg.Infof("extracted %d import records", len(e.records))
	}
	return e.records, nil
}

type extractor struct {
	src     []byte
	spans   scan.Spans
	dbg     *debug.Context
	records []Record
}

// findKeyword locates the next word-boundary "import" in src[i:end).
func findKeyword(src []byte, i, end uint32) (uint32, bool) {
	for i+6 <= end {
		k := bytes.Index(src[i:end], []byte("import"))
		if k < 0 {
			return 0, false
		}
		j := i + uint32(k)
		boundedLeft := j == 0 || (!isWord(src[j-1]) && src[j-1] != '.')
		boundedRight := j+6 >= uint32(len(src)) || !isWord(src[j+6])
		if boundedLeft && boundedRight {
			return j, true
		}
		i = j + 6
	}
	return 0, false
}

// statement parses the construct beginning at the import keyword and
// returns the offset just past it. import.meta is skipped, a '(' means a
// dynamic call, anything else is a static statement. Static statements
// inside template substitutions are not legal and fall through unrecorded.
func (e *extractor) statement(kw uint32, ctx scan.Context) (uint32, error) {
	i := e.skipSpace(kw + 6)
	n := uint32(len(e.src))
	if i >= n {
		return n, nil
	}
	switch {
	case e.src[i] == '.':
		return i + 1, nil
	case e.src[i] == '(':
		return e.dynamic(kw, i)
	case ctx == scan.TemplateSub:
		return kw + 6, nil
	}
	return e.static(kw, i)
}

func (e *extractor) static(kw, i uint32) (uint32, error) {
	rec := Record{Start: kw}

	if isQuote(e.src[i]) {
		spec, next, err := e.specifier(i)
		if err != nil {
			return 0, err
		}
		rec.Specifier = spec
		rec.HasSpecifier = true
		rec.Kind = KindSideEffect
		rec.Class = Classify(spec)
		rec.End = e.statementEnd(next)
		e.record(rec)
		return rec.End, nil
	}

	// "import type" marks a type-only statement unless "type" is itself
	// the default binding ("import type from 'm'").
	if word, wend := e.word(i); word == "type" {
		j := e.skipSpace(wend)
		nw, _ := e.word(j)
		if j < uint32(len(e.src)) && (e.src[j] == '{' || e.src[j] == '*' || (nw != "" && nw != "from")) {
			rec.TypeOnly = true
			i = j
		}
	}

	var err error
	i, err = e.clause(&rec, i)
	if err != nil {
		return 0, err
	}

	i = e.skipSpace(i)
	word, wend := e.word(i)
	if word != "from" {
		return 0, diag.Errorf(diag.ImpMissingFrom, kw, "import clause without a from specifier")
	}
	i = e.skipSpace(wend)
	if i >= uint32(len(e.src)) || !isQuote(e.src[i]) {
		return 0, diag.Errorf(diag.ImpBadSpecifier, i, "expected quoted specifier after from")
	}
	spec, next, err := e.specifier(i)
	if err != nil {
		return 0, err
	}
	rec.Specifier = spec
	rec.HasSpecifier = true
	rec.Class = Classify(spec)
	rec.Kind = clauseKind(rec.Bindings)
	rec.End = e.statementEnd(next)
	e.record(rec)
	return rec.End, nil
}

// clause parses default, namespace and named parts up to the from keyword.
func (e *extractor) clause(rec *Record, i uint32) (uint32, error) {
	n := uint32(len(e.src))
	for {
		i = e.skipSpace(i)
		if i >= n {
			return 0, diag.Errorf(diag.ImpUnterminatedClause, rec.Start, "import clause runs past end of input")
		}
		switch {
		case e.src[i] == '*':
			i = e.skipSpace(i + 1)
			word, wend := e.word(i)
			if word != "as" {
				return 0, diag.Errorf(diag.ImpUnterminatedClause, i, "expected as after * in import clause")
			}
			local, lend := e.word(e.skipSpace(wend))
			if local == "" {
				return 0, diag.Errorf(diag.ImpUnterminatedClause, i, "expected namespace binding name")
			}
			rec.Bindings = append(rec.Bindings, Binding{Kind: BindNamespace, Imported: "*", Local: local})
			i = lend

		case e.src[i] == '{':
			var err error
			i, err = e.named(rec, i+1)
			if err != nil {
				return 0, err
			}

		case isWordStart(e.src[i]):
			word, wend := e.word(i)
			if word == "from" {
				return i, nil
			}
			rec.Bindings = append(rec.Bindings, Binding{Kind: BindDefault, Imported: "default", Local: word})
			i = wend

		default:
			return 0, diag.Errorf(diag.ImpUnterminatedClause, i, "unexpected %q in import clause", string(e.src[i]))
		}

		i = e.skipSpace(i)
		if i < n && e.src[i] == ',' {
			i++
			continue
		}
		return i, nil
	}
}

func (e *extractor) named(rec *Record, i uint32) (uint32, error) {
	n := uint32(len(e.src))
	for {
		i = e.skipSpace(i)
		if i >= n {
			return 0, diag.Errorf(diag.ImpUnterminatedClause, rec.Start, "unterminated named import list")
		}
		if e.src[i] == '}' {
			return i + 1, nil
		}
		imported, wend := e.word(i)
		if imported == "" {
			return 0, diag.Errorf(diag.ImpUnterminatedClause, i, "expected binding name in import list")
		}
		local := imported
		i = e.skipSpace(wend)
		if word, aend := e.word(i); word == "as" {
			local, i = e.word(e.skipSpace(aend))
			if local == "" {
				return 0, diag.Errorf(diag.ImpUnterminatedClause, aend, "expected alias after as")
			}
		}
		rec.Bindings = append(rec.Bindings, Binding{Kind: BindNamed, Imported: imported, Local: local})
		i = e.skipSpace(i)
		if i < n && e.src[i] == ',' {
			i++
		}
	}
}

// dynamic records an import(...) call. A sole string-literal argument
// yields a resolvable specifier; anything else is metadata-only with the
// argument text preserved verbatim.
func (e *extractor) dynamic(kw, open uint32) (uint32, error) {
	closeOff, err := e.matchParen(open)
	if err != nil {
		return 0, err
	}
	args := string(e.src[open+1 : closeOff])
	rec := Record{
		Kind:    KindDynamic,
		Dynamic: true,
		ArgText: args,
		Start:   kw,
		End:     closeOff + 1,
	}
	if spec, sole := soleLiteral(args); sole {
		rec.Specifier = spec
		rec.HasSpecifier = true
		rec.Class = Classify(spec)
	} else {
		e.dbg.Warnf("dynamic import with non-literal specifier is unresolvable ahead of execution")
	}
	e.record(rec)
	return rec.End, nil
}

// matchParen finds the ')' closing the call, skipping string and template
// literals whole.
func (e *extractor) matchParen(open uint32) (uint32, error) {
	n := uint32(len(e.src))
	depth := 0
	for i := open; i < n; i++ {
		switch e.src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		case '\'', '"', '`':
			j := skipLiteral(e.src, i)
			if j == i {
				return 0, diag.Errorf(diag.ImpBadSpecifier, i, "unterminated literal in import call")
			}
			i = j - 1
		}
	}
	return 0, diag.Errorf(diag.ImpUnterminatedClause, open, "unterminated import call")
}

// soleLiteral reports whether args is exactly one string literal and
// returns its unescaped value.
func soleLiteral(args string) (string, bool) {
	s := strings.TrimSpace(args)
	if s == "" || !isQuote(s[0]) {
		return "", false
	}
	quote := s[0]
	var b strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			b.WriteByte(s[i+1])
			i += 2
			continue
		}
		if c == quote {
			return b.String(), strings.TrimSpace(s[i+1:]) == ""
		}
		// A substitution makes a backtick argument computed, not literal.
		if quote == '`' && c == '$' && i+1 < len(s) && s[i+1] == '{' {
			return "", false
		}
		b.WriteByte(c)
		i++
	}
	return "", false
}

// specifier parses a quoted module path, unescaping backslash escapes.
func (e *extractor) specifier(i uint32) (string, uint32, error) {
	return readSpecifier(e.src, i)
}

// statementEnd swallows trailing spaces and one semicolon.
func (e *extractor) statementEnd(i uint32) uint32 {
	n := uint32(len(e.src))
	j := i
	for j < n && (e.src[j] == ' ' || e.src[j] == '\t') {
		j++
	}
	if j < n && e.src[j] == ';' {
		return j + 1
	}
	return i
}

func (e *extractor) record(rec Record) {
	if lines := strings.Count(string(e.src[rec.Start:rec.End]), "\n"); lines > 0 && e.dbg.Enabled(debug.LevelTrace) {
		e.dbg.Tracef("import statement coalesced across %d lines", lines+1)
	}
	e.records = append(e.records, rec)
}

// skipSpace advances past whitespace and whole comment spans. Comments are
// legal between any two clause tokens.
func (e *extractor) skipSpace(i uint32) uint32 {
	n := uint32(len(e.src))
	for i < n {
		switch e.src[i] {
		case ' ', '\t', '\r', '\n':
			i++
		case '/':
			sp, ok := e.spans.At(i)
			if !ok || (sp.Ctx != scan.LineComment && sp.Ctx != scan.BlockComment) {
				return i
			}
			i = sp.End
		default:
			return i
		}
	}
	return i
}

func (e *extractor) word(i uint32) (string, uint32) {
	n := uint32(len(e.src))
	if i >= n || !isWordStart(e.src[i]) {
		return "", i
	}
	j := i
	for j < n && isWord(e.src[j]) {
		j++
	}
	return string(e.src[i:j]), j
}

func clauseKind(bindings []Binding) Kind {
	kind := KindSideEffect
	for _, b := range bindings {
		switch b.Kind {
		case BindNamespace:
			return KindNamespace
		case BindDefault:
			kind = KindDefault
		case BindNamed:
			if kind < KindNamed {
				kind = KindNamed
			}
		}
	}
	return kind
}

func skipLiteral(src []byte, i uint32) uint32 {
	quote := src[i]
	n := uint32(len(src))
	j := i + 1
	for j < n {
		if src[j] == '\\' {
			j += 2
			continue
		}
		if src[j] == quote {
			return j + 1
		}
		j++
	}
	return i
}

func isQuote(b byte) bool { return b == '\'' || b == '"' || b == '`' }

func isWordStart(b byte) bool {
	return b == '_' || b == '$' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isWord(b byte) bool {
	return isWordStart(b) || (b >= '0' && b <= '9')
}
