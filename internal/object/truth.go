package object

// Truthy reports the fuzzy-logic boolean value of v per spec.md §3/§8:
// numbers are truthy iff nonzero, strings/lists/maps iff nonempty,
// functions always, and Null never.
func Truthy(v Value) bool {
	switch tv := v.(type) {
	case Null:
		return false
	case Number:
		return tv != 0
	case *String:
		return tv.Value != ""
	case *List:
		return len(tv.Items) > 0
	case *Map:
		return tv.Len() > 0
	case *Function, *FunctionValue:
		return true
	default:
		return true
	}
}

// IntValue coerces v to an integer the way the evaluator needs for
// GotoAifTrulyB (which branches on the *integer* value of a fuzzy
// number, not its boolean truthiness — spec.md §4.2 "Short-circuit
// or/and").
func IntValue(v Value) int64 {
	switch tv := v.(type) {
	case Number:
		return int64(tv)
	case Null:
		return 0
	default:
		if Truthy(v) {
			return 1
		}
		return 0
	}
}

// DoubleValue coerces v to a float64.
func DoubleValue(v Value) float64 {
	switch tv := v.(type) {
	case Number:
		return float64(tv)
	case Null:
		return 0
	default:
		if Truthy(v) {
			return 1
		}
		return 0
	}
}
