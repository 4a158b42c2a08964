package mtx

import "fmt"

// FormatError describes a malformed Matrix Market file.
//
// Line is 1-based and refers to the physical line in the source file,
// counting comments and blanks.
type FormatError struct {
	Path string
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

func formatErrf(path string, line int, format string, args ...any) *FormatError {
	return &FormatError{Path: path, Line: line, Msg: fmt.Sprintf(format, args...)}
}
