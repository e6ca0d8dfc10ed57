package preprocess

import (
	"errors"
	"fmt"
)

var (
	ErrFileNotFound            = errors.New("file not found")
	ErrMalformedDirective      = errors.New("malformed directive")
	ErrUndefinedSymbol         = errors.New("undefined symbol")
	ErrUnbalancedConditional   = errors.New("else or endif without matching ifdef/ifndef")
	ErrUnterminatedConditional = errors.New("unterminated ifdef/ifndef")
	ErrIncludeCycle            = errors.New("include cycle")
	ErrIncludeDepth            = errors.New("include depth limit exceeded")
)

// Error locates a preprocessing failure. Err is one of the Err* sentinels,
// cause holds the underlying I/O error for ErrFileNotFound.
type Error struct {
	Path   string
	Line   int
	Err    error
	Detail string
	cause  error
}

func (e *Error) Error() string {
	loc := e.Path
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", loc, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", loc, e.Err, e.Detail)
}

func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Err, e.cause}
	}
	return []error{e.Err}
}

func newError(path string, line int, err error, format string, a ...any) *Error {
	return &Error{Path: path, Line: line, Err: err, Detail: fmt.Sprintf(format, a...)}
}
