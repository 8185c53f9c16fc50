// Package ir defines the three-address code the parser emits directly
// from tokens (spec.md §1, §4.2): each Line is one instruction with an
// opcode and up to three operand slots, plus the source line it came
// from for error reporting.
//
// Operands are typed as `any` rather than a concrete value type so this
// package has no dependency on the object package (which itself needs
// ir.Line to describe a Function's compiled body) — the vm and parser
// packages, which import both, are responsible for the type assertion
// back to object.Value.
package ir

// Op is a three-address-code opcode. Semantics for each are given in
// spec.md §4.4.
type Op int

const (
	AssignA Op = iota
	AssignImplicit
	CopyA
	ReturnA

	APlusB
	AMinusB
	ATimesB
	ADividedByB
	AModB
	APowB

	AEqualB
	ANotEqualB
	AGreaterThanB
	AGreatOrEqualB
	ALessThanB
	ALessOrEqualB

	AAndB
	AOrB
	AisaB
	NotA

	GotoA
	GotoAifB
	GotoAifTrulyB
	GotoAifNotB

	PushParam
	CallFunctionA
	CallIntrinsicA

	ElemBofA
	ElemBofIterA
	LengthOfA

	BindAssignA
)

var opNames = map[Op]string{
	AssignA:        "AssignA",
	AssignImplicit: "AssignImplicit",
	CopyA:          "CopyA",
	ReturnA:        "ReturnA",
	APlusB:         "APlusB",
	AMinusB:        "AMinusB",
	ATimesB:        "ATimesB",
	ADividedByB:    "ADividedByB",
	AModB:          "AModB",
	APowB:          "APowB",
	AEqualB:        "AEqualB",
	ANotEqualB:     "ANotEqualB",
	AGreaterThanB:  "AGreaterThanB",
	AGreatOrEqualB: "AGreatOrEqualB",
	ALessThanB:     "ALessThanB",
	ALessOrEqualB:  "ALessOrEqualB",
	AAndB:          "AAndB",
	AOrB:           "AOrB",
	AisaB:          "AisaB",
	NotA:           "NotA",
	GotoA:          "GotoA",
	GotoAifB:       "GotoAifB",
	GotoAifTrulyB:  "GotoAifTrulyB",
	GotoAifNotB:    "GotoAifNotB",
	PushParam:      "PushParam",
	CallFunctionA:  "CallFunctionA",
	CallIntrinsicA: "CallIntrinsicA",
	ElemBofA:       "ElemBofA",
	ElemBofIterA:   "ElemBofIterA",
	LengthOfA:      "LengthOfA",
	BindAssignA:    "BindAssignA",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "UNKNOWN_OP"
}

// Line is one TAC instruction: at most one destination and two source
// operands, plus the 1-based source line it was emitted from.
type Line struct {
	Op      Op
	Dest    any
	A       any
	B       any
	LineNum int
}

func New(op Op, dest, a, b any, lineNum int) Line {
	return Line{Op: op, Dest: dest, A: a, B: b, LineNum: lineNum}
}
