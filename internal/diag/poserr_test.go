package diag

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeString(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{ScanUnterminatedString, "SCN1001"},
		{JsxMismatchedClosing, "JSX2002"},
		{TsUnterminatedInterface, "TSX3003"},
		{ImpMissingFrom, "IMP4003"},
		{DownUnsafeRewrite, "DWN5001"},
		{IntSpanCoverageBroken, "INT9001"},
		{UnknownCode, "UNK0000"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestErrorf(t *testing.T) {
	err := Errorf(ImpBadSpecifier, 42, "bad %q", "spec")
	if err.Code != ImpBadSpecifier || err.Offset != 42 {
		t.Errorf("got %+v", err)
	}
	want := `IMP4002 at offset 42: bad "spec"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorsAs(t *testing.T) {
	var err error = fmt.Errorf("wrapped: %w", Errorf(DownMissingRHS, 7, "no rhs"))
	var pe *PosError
	if !errors.As(err, &pe) {
		t.Fatal("errors.As failed through wrapping")
	}
	if pe.Code != DownMissingRHS || pe.Offset != 7 {
		t.Errorf("got %+v", pe)
	}
}
