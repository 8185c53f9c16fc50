package object

import (
	"hash/fnv"
	"math"
	"reflect"
)

// depthExhaustedHash is the fixed marker used once a recursive hash
// computation runs out of budget, so that any two values which are
// equal only "up to depth D" (Equal returns 0.5 there) still hash to
// the same truncated value at that depth — the agreement invariant
// spec.md §8 asks for.
const depthExhaustedHash uint64 = 0x9e3779b97f4a7c15

// Hash returns a hash of v consistent with Equal at the same depth:
// Equal(a, b, depth) == 1 implies Hash(a, depth) == Hash(b, depth).
func Hash(v Value, depth int) uint64 {
	switch tv := v.(type) {
	case Null:
		return ^uint64(0) // stands in for hash == -1, per spec.md §3
	case Number:
		f := float64(tv)
		if f == 0 {
			return 0 // 0 and -0 are Equal, so they share a hash
		}
		return math.Float64bits(f)
	case *String:
		h := fnv.New64a()
		_, _ = h.Write([]byte(tv.Value))
		return h.Sum64()
	case *List:
		if depth <= 0 {
			return depthExhaustedHash
		}
		h := fnv.New64a()
		for _, item := range tv.Items {
			writeUint64(h, Hash(item, depth-1))
		}
		return h.Sum64()
	case *Map:
		if depth <= 0 {
			return depthExhaustedHash
		}
		// Order-independent combine: map equality doesn't care about
		// key order, so the hash must not either.
		var acc uint64
		for i, k := range tv.keys {
			acc ^= Hash(k, depth-1)*31 + Hash(tv.vals[i], depth-1)
		}
		return acc
	case *Function:
		return uint64(reflect.ValueOf(tv).Pointer())
	case *FunctionValue:
		return uint64(reflect.ValueOf(tv.Fn).Pointer())
	case Temp:
		return uint64(tv.Index) * 2654435761
	case Var:
		h := fnv.New64a()
		_, _ = h.Write([]byte(tv.Name))
		return h.Sum64()
	default:
		return 0
	}
}

func writeUint64(h interface{ Write([]byte) (int, error) }, v uint64) {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	_, _ = h.Write(buf[:])
}
