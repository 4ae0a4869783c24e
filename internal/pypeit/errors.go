package pypeit

import (
	"errors"
	"fmt"
)

var (
	ErrSyntax          = errors.New("syntax error")
	ErrUnbalancedBlock = errors.New("unbalanced block")
	ErrDuplicateBlock  = errors.New("duplicate block")
	ErrColumnCount     = errors.New("column count mismatch")
)

// ParseError locates a parse failure. It unwraps to one of the Err* sentinels.
type ParseError struct {
	Line int
	Err  error
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v: %s", e.Line, e.Err, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErr(line int, kind error, format string, args ...any) error {
	return &ParseError{Line: line, Err: kind, Msg: fmt.Sprintf(format, args...)}
}
