// Package vm implements the Context call-frame, the Machine stepper,
// and the per-opcode evaluator that gives each ir.Line its runtime
// meaning, per spec.md §4.3–§4.5.
package vm

import (
	"mscript/internal/intrinsics"
	"mscript/internal/ir"
	"mscript/internal/object"
)

// Context is one call frame: spec.md §4.3.
type Context struct {
	Code    []ir.Line
	PC      int
	Machine *Machine

	Variables *object.Map // locals
	OuterVars *object.Map // closure environment, nil if none
	SelfVal   object.Value
	Args      []object.Value // args stack being assembled for the next call

	Parent        *Context
	ResultStorage any // lvalue in Parent to receive the return: nil, or an object.Var/Temp/SeqElem

	PartialResult object.Value // in-flight intrinsic state, nil if none
	Intrinsic     *intrinsics.Intrinsic

	temps map[int]object.Value

	ImplicitResultCounter int
}

// NewRootContext builds the global context: the bottom of the machine's
// stack, per spec.md §4.5.
func NewRootContext(m *Machine, code []ir.Line) *Context {
	return &Context{
		Code:      code,
		Machine:   m,
		Variables: object.NewMap(),
		temps:     make(map[int]object.Value),
	}
}

func (c *Context) isRoot() bool { return c.Parent == nil }

func (c *Context) done() bool { return c.PC >= len(c.Code) && c.Intrinsic == nil }

// GetTemp/SetTemp implement the sparse temporary array, temp 0 being
// reserved for the return value (spec.md §4.2).
func (c *Context) GetTemp(i int) object.Value {
	if v, ok := c.temps[i]; ok {
		return v
	}
	return object.NullValue
}

func (c *Context) SetTemp(i int, v object.Value) { c.temps[i] = v }

// --- name resolution (spec.md §4.3) --------------------------------

// GetVar resolves name following the order spec.md §4.3 specifies.
func (c *Context) GetVar(name string) (object.Value, error) {
	switch name {
	case "self":
		if c.SelfVal == nil {
			return object.NullValue, nil
		}
		return c.SelfVal, nil
	case "locals":
		return c.Variables, nil
	case "globals":
		return c.Machine.Root().Variables, nil
	case "outer":
		if c.OuterVars != nil {
			return c.OuterVars, nil
		}
		return c.Machine.Root().Variables, nil
	}

	if v, ok := c.Variables.GetStr(name); ok {
		return v, nil
	}
	if c.OuterVars != nil {
		if v, ok := c.OuterVars.GetStr(name); ok {
			return v, nil
		}
	}
	if !c.isRoot() {
		if v, ok := c.Machine.Root().Variables.GetStr(name); ok {
			return v, nil
		}
	}
	if fv, ok := intrinsics.Global().FunctionValue(name); ok {
		return fv, nil
	}
	return nil, &RuntimeError{Msg: "Undefined identifier '" + name + "'", Loc: c.here()}
}

// SetVar assigns to a local (or specially-handled self/globals/locals
// name), per spec.md §4.3.
func (c *Context) SetVar(name string, v object.Value) error {
	switch name {
	case "globals", "locals":
		return &RuntimeError{Msg: "Assignment to read-only identifier '" + name + "'", Loc: c.here()}
	case "self":
		c.SelfVal = v
		return nil
	}
	c.Variables.Set(object.NewString(name), v)
	return nil
}

func (c *Context) here() SourceLocation {
	lineNum := 0
	if c.PC-1 >= 0 && c.PC-1 < len(c.Code) {
		lineNum = c.Code[c.PC-1].LineNum
	} else if c.PC < len(c.Code) {
		lineNum = c.Code[c.PC].LineNum
	}
	return SourceLocation{Context: c, LineNum: lineNum}
}

// --- intrinsics.Frame -------------------------------------------------

func (c *Context) Param(name string) object.Value {
	v, _ := c.Variables.GetStr(name)
	return v
}

func (c *Context) Self() object.Value { return c.SelfVal }

func (c *Context) Host() intrinsics.Host { return c.Machine }

var _ intrinsics.Frame = (*Context)(nil)
