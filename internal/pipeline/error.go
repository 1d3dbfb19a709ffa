package pipeline

import (
	"fmt"

	"hookc/internal/diag"
)

// ErrKind is the public error taxonomy. Every pass failure maps onto one
// of these; callers never see a raw internal error.
type ErrKind uint8

const (
	KindParse ErrKind = iota
	KindImportResolution
	KindDownlevel
	KindInternal
)

func (k ErrKind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindImportResolution:
		return "import-resolution"
	case KindDownlevel:
		return "downlevel"
	case KindInternal:
		return "internal"
	}
	return "unknown"
}

// Error is the structured failure handed to callers. Line and Column are
// 1-based positions in the failing pass's input; zero means unknown.
type Error struct {
	Kind    ErrKind
	Message string
	Line    uint32
	Column  uint32
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s error at %d:%d: %s", e.Kind, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// kindOf buckets a diagnostic code into the public taxonomy.
func kindOf(c diag.Code) ErrKind {
	switch {
	case c >= 9000:
		return KindInternal
	case c >= 5000:
		return KindDownlevel
	case c >= 4000:
		return KindImportResolution
	case c >= 1000:
		return KindParse
	}
	return KindInternal
}
