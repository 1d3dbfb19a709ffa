package scan

import (
	"fmt"

	"hookc/internal/diag"
)

// Span is a classified half-open byte range [Start, End).
type Span struct {
	Ctx   Context
	Start uint32
	End   uint32
}

// Spans is the ordered classification of one source unit: no gaps, no
// overlaps, covering the whole input.
type Spans []Span

// Scan classifies src into an ordered span sequence. It is a pure function:
// the result is shared read-only by the transform passes so none of them
// re-implements string or comment detection.
func Scan(src []byte) (Spans, error) {
	s := scanner{cur: NewCursor(src)}
	if err := s.run(); err != nil {
		return nil, err
	}
	return s.spans, nil
}

type scanner struct {
	cur   Cursor
	spans Spans
}

func (s *scanner) emit(ctx Context, start, end uint32) {
	if start >= end {
		return
	}
	s.spans = append(s.spans, Span{Ctx: ctx, Start: start, End: end})
}

func (s *scanner) run() error {
	codeStart := s.cur.Off()
	for !s.cur.EOF() {
		b := s.cur.Peek()
		switch {
		case b == '"' || b == '\'':
			start := s.cur.Off()
			s.emit(Code, codeStart, start)
			if err := s.skipString(b); err != nil {
				return err
			}
			s.emit(String, start, s.cur.Off())
			codeStart = s.cur.Off()

		case b == '/' && s.cur.PeekAt(1) == '/':
			start := s.cur.Off()
			s.emit(Code, codeStart, start)
			s.skipLineComment()
			s.emit(LineComment, start, s.cur.Off())
			codeStart = s.cur.Off()

		case b == '/' && s.cur.PeekAt(1) == '*':
			start := s.cur.Off()
			s.emit(Code, codeStart, start)
			if err := s.skipBlockComment(); err != nil {
				return err
			}
			s.emit(BlockComment, start, s.cur.Off())
			codeStart = s.cur.Off()

		case b == '`':
			start := s.cur.Off()
			s.emit(Code, codeStart, start)
			if err := s.scanTemplate(); err != nil {
				return err
			}
			codeStart = s.cur.Off()

		default:
			s.cur.Bump()
		}
	}
	s.emit(Code, codeStart, s.cur.Off())
	return nil
}

// skipString consumes a quoted literal including both quotes. Escaped quotes
// and backslashes inside do not terminate it.
func (s *scanner) skipString(quote byte) error {
	start := s.cur.Off()
	s.cur.Bump() // opening quote
	for !s.cur.EOF() {
		b := s.cur.Bump()
		if b == '\\' {
			s.cur.Bump() // escaped byte, whatever it is
			continue
		}
		if b == quote {
			return nil
		}
	}
	return &diag.PosError{Code: diag.ScanUnterminatedString, Offset: start, Msg: "unterminated string literal"}
}

// skipLineComment consumes up to, but not including, the terminating
// newline. EOF also terminates.
func (s *scanner) skipLineComment() {
	s.cur.Bump() // '/'
	s.cur.Bump() // '/'
	for !s.cur.EOF() && s.cur.Peek() != '\n' {
		s.cur.Bump()
	}
}

func (s *scanner) skipBlockComment() error {
	start := s.cur.Off()
	s.cur.Bump() // '/'
	s.cur.Bump() // '*'
	for !s.cur.EOF() {
		if s.cur.Peek() == '*' && s.cur.PeekAt(1) == '/' {
			s.cur.Bump()
			s.cur.Bump()
			return nil
		}
		s.cur.Bump()
	}
	return &diag.PosError{Code: diag.ScanUnterminatedComment, Offset: start, Msg: "unterminated block comment"}
}

// scanTemplate consumes a backtick template, emitting TemplateText spans for
// literal stretches and TemplateSub spans for ${...} regions (markers
// included). Substitution bodies are left raw; their ends are found by the
// brace-depth rule with nested strings, comments and templates skipped so an
// inner '}' cannot close the substitution early.
func (s *scanner) scanTemplate() error {
	start := s.cur.Off()
	textStart := start
	s.cur.Bump() // opening backtick
	for !s.cur.EOF() {
		b := s.cur.Peek()
		if b == '\\' {
			s.cur.Bump()
			s.cur.Bump()
			continue
		}
		if b == '`' {
			s.cur.Bump()
			s.emit(TemplateText, textStart, s.cur.Off())
			return nil
		}
		if b == '$' && s.cur.PeekAt(1) == '{' {
			subStart := s.cur.Off()
			s.emit(TemplateText, textStart, subStart)
			s.cur.Bump() // '$'
			s.cur.Bump() // '{'
			if err := s.skipSubstitutionBody(subStart); err != nil {
				return err
			}
			s.emit(TemplateSub, subStart, s.cur.Off())
			textStart = s.cur.Off()
			continue
		}
		s.cur.Bump()
	}
	return &diag.PosError{Code: diag.ScanUnterminatedTemplate, Offset: start, Msg: "unterminated template literal"}
}

// skipSubstitutionBody consumes a substitution body through its matching '}'.
// Brace depth starts at one for the '${' already consumed.
func (s *scanner) skipSubstitutionBody(subStart uint32) error {
	depth := 1
	for !s.cur.EOF() {
		b := s.cur.Peek()
		switch {
		case b == '"' || b == '\'':
			if err := s.skipString(b); err != nil {
				return err
			}
		case b == '/' && s.cur.PeekAt(1) == '/':
			s.skipLineComment()
		case b == '/' && s.cur.PeekAt(1) == '*':
			if err := s.skipBlockComment(); err != nil {
				return err
			}
		case b == '`':
			if err := s.skipNestedTemplate(); err != nil {
				return err
			}
		case b == '{':
			depth++
			s.cur.Bump()
		case b == '}':
			depth--
			s.cur.Bump()
			if depth == 0 {
				return nil
			}
		default:
			s.cur.Bump()
		}
	}
	return &diag.PosError{Code: diag.ScanUnterminatedSubstExpr, Offset: subStart, Msg: "unterminated template substitution"}
}

// skipNestedTemplate consumes a template inside a substitution without
// emitting spans; the substitution body stays a single raw region.
func (s *scanner) skipNestedTemplate() error {
	start := s.cur.Off()
	s.cur.Bump() // backtick
	for !s.cur.EOF() {
		b := s.cur.Peek()
		if b == '\\' {
			s.cur.Bump()
			s.cur.Bump()
			continue
		}
		if b == '`' {
			s.cur.Bump()
			return nil
		}
		if b == '$' && s.cur.PeekAt(1) == '{' {
			sub := s.cur.Off()
			s.cur.Bump()
			s.cur.Bump()
			if err := s.skipSubstitutionBody(sub); err != nil {
				return err
			}
			continue
		}
		s.cur.Bump()
	}
	return &diag.PosError{Code: diag.ScanUnterminatedTemplate, Offset: start, Msg: "unterminated template literal"}
}

// At returns the span covering byte offset off.
func (sp Spans) At(off uint32) (Span, bool) {
	lo, hi := 0, len(sp)-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		switch {
		case off < sp[mid].Start:
			hi = mid - 1
		case off >= sp[mid].End:
			lo = mid + 1
		default:
			return sp[mid], true
		}
	}
	return Span{}, false
}

// ContextAt returns the context covering byte offset off. Offsets past the
// end report Code.
func (sp Spans) ContextAt(off uint32) Context {
	if s, ok := sp.At(off); ok {
		return s.Ctx
	}
	return Code
}

// Validate checks the no-gap, no-overlap, full-coverage invariant against a
// source of length n.
func (sp Spans) Validate(n uint32) error {
	if n == 0 {
		if len(sp) != 0 {
			return fmt.Errorf("spans over empty input")
		}
		return nil
	}
	var at uint32
	for i, s := range sp {
		if s.Start != at {
			return fmt.Errorf("span %d starts at %d, want %d", i, s.Start, at)
		}
		if s.End <= s.Start {
			return fmt.Errorf("span %d is empty or inverted", i)
		}
		at = s.End
	}
	if at != n {
		return fmt.Errorf("spans end at %d, want %d", at, n)
	}
	return nil
}
