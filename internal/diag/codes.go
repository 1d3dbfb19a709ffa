package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// Scanner (lexical context tracker)
	ScanInfo                  Code = 1000
	ScanUnterminatedString    Code = 1001
	ScanUnterminatedComment   Code = 1002
	ScanUnterminatedTemplate  Code = 1003
	ScanUnterminatedSubstExpr Code = 1004

	// JSX structural transform
	JsxInfo                Code = 2000
	JsxUnterminatedTag     Code = 2001
	JsxMismatchedClosing   Code = 2002
	JsxUnterminatedExpr    Code = 2003
	JsxExpectedPropValue   Code = 2004
	JsxUnexpectedClosing   Code = 2005
	JsxUnterminatedElement Code = 2006

	// TypeScript stripping
	TsInfo                  Code = 3000
	TsUnterminatedGenerics  Code = 3001
	TsUnterminatedTypeDecl  Code = 3002
	TsUnterminatedInterface Code = 3003

	// Import analysis
	ImpInfo               Code = 4000
	ImpUnterminatedClause Code = 4001
	ImpBadSpecifier       Code = 4002
	ImpMissingFrom        Code = 4003

	// Downlevel transform
	DownInfo          Code = 5000
	DownUnsafeRewrite Code = 5001
	DownMissingRHS    Code = 5002

	// Engine invariants
	IntInfo               Code = 9000
	IntSpanCoverageBroken Code = 9001
	IntBadPipelineState   Code = 9002
)

func (c Code) String() string {
	switch {
	case c >= 9000:
		return fmt.Sprintf("INT%04d", uint16(c))
	case c >= 5000:
		return fmt.Sprintf("DWN%04d", uint16(c))
	case c >= 4000:
		return fmt.Sprintf("IMP%04d", uint16(c))
	case c >= 3000:
		return fmt.Sprintf("TSX%04d", uint16(c))
	case c >= 2000:
		return fmt.Sprintf("JSX%04d", uint16(c))
	case c >= 1000:
		return fmt.Sprintf("SCN%04d", uint16(c))
	default:
		return fmt.Sprintf("UNK%04d", uint16(c))
	}
}
