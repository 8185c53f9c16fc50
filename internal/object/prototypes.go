package object

// The five primitive-type prototype maps spec.md §4.4 describes:
// "on a list/string/number/function, jump to the corresponding
// lazily-initialised built-in prototype map." They are populated once
// by the intrinsics package (which knows the built-in function set) and
// consulted here and from the vm package's dotted-lookup resolver.
var (
	numberProto   = NewMap()
	stringProto   = NewMap()
	listProto     = NewMap()
	mapProto      = NewMap()
	functionProto = NewMap()
)

func NumberTypeProto() *Map   { return numberProto }
func StringTypeProto() *Map   { return stringProto }
func ListTypeProto() *Map     { return listProto }
func MapTypeProto() *Map      { return mapProto }
func FunctionTypeProto() *Map { return functionProto }

// PrototypeFor returns the built-in prototype map for v's primitive
// type, or nil if v is a Map (whose own __isa chain is walked instead)
// or a type with no prototype (Null, Var, Temp, SeqElem).
func PrototypeFor(v Value) *Map {
	switch v.(type) {
	case Number:
		return numberProto
	case *String:
		return stringProto
	case *List:
		return listProto
	case *Function, *FunctionValue:
		return functionProto
	default:
		return nil
	}
}
