package diag

import "fmt"

// PosError is a pass failure pinned to a byte offset. The pipeline resolves
// the offset into line/column before handing it to callers.
type PosError struct {
	Code   Code
	Offset uint32
	Msg    string
}

func (e *PosError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", e.Code, e.Offset, e.Msg)
}

// Errorf builds a PosError with a formatted message.
func Errorf(code Code, offset uint32, format string, args ...any) *PosError {
	return &PosError{Code: code, Offset: offset, Msg: fmt.Sprintf(format, args...)}
}
