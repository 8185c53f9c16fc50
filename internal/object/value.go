// Package object implements the runtime value lattice: the tagged union
// of values a compiled mscript program manipulates, along with the
// virtual operations (equality, hash, truth, formatting) spec.md §3
// requires every value to support.
package object

// Type tags one of the ten concrete Value variants of spec.md §3.
type Type string

const (
	NullType         Type = "null"
	NumberType       Type = "number"
	StringType       Type = "string"
	ListType         Type = "list"
	MapType          Type = "map"
	FunctionType     Type = "function"
	FunctionValType  Type = "funcref"
	VarType          Type = "var"
	TempType         Type = "temp"
	SeqElemType      Type = "seqelem"
)

// MaxContainerLen is the string and list length limit named in spec.md
// §3/§6. No operation checks it: concatenation, repetition and list
// growth do not stop at this length.
const MaxContainerLen = 0x00FFFFFF

// MaxIsaDepth bounds __isa prototype-chain walks per spec.md §6.
const MaxIsaDepth = 1000

// DefaultEqualityDepth is the recursion budget used by Equal/Hash unless
// a caller asks for a shallower comparison, per spec.md §3/§8.
const DefaultEqualityDepth = 16

// Value is the common interface every runtime value satisfies. Behaviour
// that needs the call-frame (dotted lookup, deep evaluation, lvalue
// storage) lives in the vm package as free functions operating on these
// concrete types via type switches, per DESIGN.md.
type Value interface {
	Type() Type
}

// Null is the language's singleton absence-of-value. Its numeric value
// is 0, its boolean value is false, and its hash is fixed at ^uint64(0)
// (standing in for "-1", spec.md §3).
type Null struct{}

func (Null) Type() Type { return NullType }

// NullValue is the canonical Null instance; there is never a need to
// allocate a second one.
var NullValue = Null{}

// Number is an IEEE-754 double used as both number and boolean
// (nonzero is true). Per spec.md's Non-goals, precision never exceeds
// float64 — no decimal or big-number type is introduced.
type Number float64

func (Number) Type() Type { return NumberType }

// Zero and One are the shared constants spec.md §3 calls for so that
// common comparisons and boolean coercions don't allocate.
var (
	Zero = Number(0)
	One  = Number(1)
)

// NumberFor returns Zero or One for the common cases and a fresh Number
// otherwise, keeping the shared-constant optimisation transparent to
// callers that don't care.
func NumberFor(f float64) Number {
	if f == 0 {
		return Zero
	}
	if f == 1 {
		return One
	}
	return Number(f)
}

// BoolNumber maps a Go bool onto the canonical 0/1 Number encoding
// mscript uses for booleans.
func BoolNumber(b bool) Number {
	if b {
		return One
	}
	return Zero
}

// String is an immutable text value. EmptyString is the canonical empty
// instance spec.md §3 requires: constructing a string from empty input
// always yields it, so two empty strings are cheaply comparable objects
// as well as content-equal.
type String struct {
	Value string
}

func (*String) Type() Type { return StringType }

var emptyString = &String{Value: ""}

// NewString returns the canonical empty string for "" and a fresh
// *String otherwise.
func NewString(s string) *String {
	if s == "" {
		return emptyString
	}
	return &String{Value: s}
}

// EmptyString exposes the canonical empty-string singleton.
func EmptyString() *String { return emptyString }
