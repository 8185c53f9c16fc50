package object

// Equal computes the fuzzy equality score of a and b in [0,1], per
// spec.md §3/§8: 1 means equal, 0 means unequal, and a container
// comparison that runs out of recursion budget yields 0.5 rather than
// guessing. Container equality is the running product of its elements'
// scores, short-circuiting to 0 the moment one element's score is 0, so
// a single flatly-unequal element zeroes the whole container the way
// two elements' non-fuzzy equality already does, while several
// partially-fuzzy element scores still compound down together rather
// than being masked by the single worst one.
func Equal(a, b Value, depth int) float64 {
	_, aNull := a.(Null)
	_, bNull := b.(Null)
	if aNull || bNull {
		if aNull && bNull {
			return 1
		}
		return 0
	}

	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		if !ok {
			return 0
		}
		if av == bv {
			return 1
		}
		return 0
	case *String:
		bv, ok := b.(*String)
		if !ok {
			return 0
		}
		if av.Value == bv.Value {
			return 1
		}
		return 0
	case *List:
		bv, ok := b.(*List)
		if !ok {
			return 0
		}
		if av == bv {
			return 1
		}
		if depth <= 0 {
			return 0.5
		}
		if len(av.Items) != len(bv.Items) {
			return 0
		}
		if len(av.Items) == 0 {
			return 1
		}
		product := 1.0
		for i := range av.Items {
			s := Equal(av.Items[i], bv.Items[i], depth-1)
			if s == 0 {
				return 0
			}
			product *= s
		}
		return product
	case *Map:
		bv, ok := b.(*Map)
		if !ok {
			return 0
		}
		if av == bv {
			return 1
		}
		if depth <= 0 {
			return 0.5
		}
		if len(av.keys) != len(bv.keys) {
			return 0
		}
		if len(av.keys) == 0 {
			return 1
		}
		product := 1.0
		for i, k := range av.keys {
			otherVal, ok := bv.Get(k)
			if !ok {
				return 0
			}
			s := Equal(av.vals[i], otherVal, depth-1)
			if s == 0 {
				return 0
			}
			product *= s
		}
		return product
	case *Function:
		bv, ok := b.(*Function)
		if !ok {
			return 0
		}
		if av == bv {
			return 1
		}
		return 0
	case *FunctionValue:
		bv, ok := b.(*FunctionValue)
		if !ok {
			return 0
		}
		if av.Fn == bv.Fn {
			return 1
		}
		return 0
	case Temp:
		bv, ok := b.(Temp)
		return boolFloat(ok && av.Index == bv.Index)
	case Var:
		bv, ok := b.(Var)
		if ok && av.Name == bv.Name {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
