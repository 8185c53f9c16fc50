package vm

import "fmt"

// SourceLocation names where in the call stack a RuntimeError originated,
// letting the top level walk Context.Parent to print a traceback the way
// spec.md §4.5's error-reporting note describes.
type SourceLocation struct {
	Context *Context
	LineNum int
}

// RuntimeError is any failure raised while stepping TAC: an undefined
// identifier, a type mismatch, or an out-of-range index.
type RuntimeError struct {
	Msg string
	Loc SourceLocation
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s (line %d)", e.Msg, e.Loc.LineNum)
}

// Traceback renders one line per frame, innermost first: the error
// itself, then "called from line N" for each calling context.
func (e *RuntimeError) Traceback() []string {
	var lines []string
	lines = append(lines, e.Error())
	for c := e.Loc.Context.Parent; c != nil; c = c.Parent {
		lines = append(lines, fmt.Sprintf("  called from line %d", c.here().LineNum))
	}
	return lines
}

func runtimeErrorf(c *Context, format string, args ...any) *RuntimeError {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...), Loc: c.here()}
}
