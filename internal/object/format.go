package object

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NumberString renders f the way spec.md §3 requires: an integer form
// when the fractional part is zero, and scientific notation once the
// magnitude falls outside [1e-6, 1e10].
func NumberString(f float64) string {
	if math.IsNaN(f) {
		return "nan"
	}
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-6 || abs > 1e10) {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		return fixExponent(s)
	}
	if f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// fixExponent normalises Go's "1.5e+08" into MiniScript-style "1.5E+08".
func fixExponent(s string) string {
	return strings.ToUpper(s)
}

// Display renders v the way `print`/implicit-result output does: bare
// text for strings, no surrounding quotes.
func Display(v Value) string {
	switch tv := v.(type) {
	case Null:
		return "null"
	case Number:
		return NumberString(float64(tv))
	case *String:
		return tv.Value
	case *List:
		parts := make([]string, len(tv.Items))
		for i, it := range tv.Items {
			parts[i] = CodeForm(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Map:
		parts := make([]string, 0, tv.Len())
		for i, k := range tv.keys {
			parts = append(parts, CodeForm(k)+": "+CodeForm(tv.vals[i]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *Function:
		return "FUNCTION"
	case *FunctionValue:
		return "FUNCTION"
	case Var:
		return tv.Name
	case Temp:
		return fmt.Sprintf("_t%d", tv.Index)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// CodeForm renders v the way it would need to look if pasted back into
// source: strings are quoted (with embedded quotes doubled), everything
// else matches Display. Used for nested list/map elements and for
// Machine.find_short_name's code-form output (spec.md §4.5).
func CodeForm(v Value) string {
	if s, ok := v.(*String); ok {
		return `"` + strings.ReplaceAll(s.Value, `"`, `""`) + `"`
	}
	return Display(v)
}
