package vm

import (
	"math"
	"strings"

	"mscript/internal/intrinsics"
	"mscript/internal/ir"
	"mscript/internal/object"
)

// evaluate executes one TAC line's opcode against c, mutating c (and,
// for calls, m.stack) as needed. It is the single dispatch point spec.md
// §4.4 describes as "each opcode's evaluate()".
func (m *Machine) evaluate(c *Context, line ir.Line) error {
	switch line.Op {
	case ir.AssignA:
		v, err := c.eval(line.A)
		if err != nil {
			return err
		}
		return storeInto(c, line.Dest, v)

	case ir.AssignImplicit:
		v, err := c.eval(line.A)
		if err != nil {
			return err
		}
		root := m.Root()
		root.Variables.Set(object.NewString("_"), v)
		if m.replMode {
			m.ImplicitOutput(v)
		}
		return nil

	case ir.CopyA:
		raw, ok := line.A.(object.Value)
		if !ok {
			return runtimeErrorf(c, "malformed CopyA operand")
		}
		v, err := cloneValue(c, raw)
		if err != nil {
			return err
		}
		return storeInto(c, line.Dest, v)

	case ir.ReturnA:
		v, err := c.eval(line.A)
		if err != nil {
			return err
		}
		c.SetTemp(0, v)
		c.PC = len(c.Code)
		return nil

	case ir.APlusB, ir.AMinusB, ir.ATimesB, ir.ADividedByB, ir.AModB, ir.APowB:
		a, b, err := c.eval2(line.A, line.B)
		if err != nil {
			return err
		}
		res, err := arith(c, line.Op, a, b)
		if err != nil {
			return err
		}
		return storeInto(c, line.Dest, res)

	case ir.AEqualB, ir.ANotEqualB, ir.AGreaterThanB, ir.AGreatOrEqualB, ir.ALessThanB, ir.ALessOrEqualB:
		a, b, err := c.eval2(line.A, line.B)
		if err != nil {
			return err
		}
		res, err := compare(c, line.Op, a, b)
		if err != nil {
			return err
		}
		return storeInto(c, line.Dest, res)

	case ir.AAndB:
		a, b, err := c.eval2(line.A, line.B)
		if err != nil {
			return err
		}
		fA, fB := object.DoubleValue(a), object.DoubleValue(b)
		return storeInto(c, line.Dest, object.NumberFor(absClamp01(fA*fB)))

	case ir.AOrB:
		a, b, err := c.eval2(line.A, line.B)
		if err != nil {
			return err
		}
		fA, fB := object.DoubleValue(a), object.DoubleValue(b)
		return storeInto(c, line.Dest, object.NumberFor(absClamp01(fA+fB-fA*fB)))

	case ir.AisaB:
		a, b, err := c.eval2(line.A, line.B)
		if err != nil {
			return err
		}
		return storeInto(c, line.Dest, object.BoolNumber(isaOf(a, b)))

	case ir.NotA:
		a, err := c.eval(line.A)
		if err != nil {
			return err
		}
		if n, ok := a.(object.Number); ok {
			return storeInto(c, line.Dest, object.NumberFor(1-absClamp01(float64(n))))
		}
		return storeInto(c, line.Dest, object.BoolNumber(!object.Truthy(a)))

	case ir.GotoA:
		target, ok := line.A.(int)
		if !ok {
			return runtimeErrorf(c, "malformed jump target")
		}
		c.PC = target
		return nil

	case ir.GotoAifB, ir.GotoAifTrulyB, ir.GotoAifNotB:
		target, ok := line.A.(int)
		if !ok {
			return runtimeErrorf(c, "malformed jump target")
		}
		cond, err := c.eval(line.B)
		if err != nil {
			return err
		}
		truth := object.Truthy(cond)
		if line.Op == ir.GotoAifTrulyB {
			truth = object.IntValue(cond) != 0
		}
		if line.Op == ir.GotoAifNotB {
			truth = !truth
		}
		if truth {
			c.PC = target
		}
		return nil

	case ir.PushParam:
		v, err := c.eval(line.A)
		if err != nil {
			return err
		}
		c.Args = append(c.Args, v)
		return nil

	case ir.CallFunctionA:
		return m.dispatchCall(c, line, false)

	case ir.CallIntrinsicA:
		return m.dispatchCall(c, line, true)

	case ir.ElemBofA:
		seq, idx, err := c.eval2(line.A, line.B)
		if err != nil {
			return err
		}
		v, err := resolveElem(c, seq, idx)
		if err != nil {
			return err
		}
		return storeInto(c, line.Dest, v)

	case ir.ElemBofIterA:
		seq, idx, err := c.eval2(line.A, line.B)
		if err != nil {
			return err
		}
		v, err := iterElem(c, seq, int(object.IntValue(idx)))
		if err != nil {
			return err
		}
		return storeInto(c, line.Dest, v)

	case ir.LengthOfA:
		a, err := c.eval(line.A)
		if err != nil {
			return err
		}
		n, err := seqLenOf(c, a)
		if err != nil {
			return err
		}
		return storeInto(c, line.Dest, object.NumberFor(float64(n)))

	case ir.BindAssignA:
		fnVal, ok := line.A.(object.Value)
		if !ok {
			return runtimeErrorf(c, "malformed function literal")
		}
		fn, ok := fnVal.(*object.Function)
		if !ok {
			return runtimeErrorf(c, "BindAssignA target is not a function")
		}
		fv := &object.FunctionValue{Fn: fn, Outer: c.Variables}
		return storeInto(c, line.Dest, fv)

	default:
		return runtimeErrorf(c, "unimplemented opcode %s", line.Op)
	}
}

// eval resolves one TAC operand to a runtime value. Operands are either
// object.Value (literals, Var/Temp/SeqElem lvalue descriptors) or,
// for jump targets and CallIntrinsicA's statically-known callee, a raw
// Go int/string embedded directly in the line — see internal/ir's
// package doc for why the operand type is `any`.
func (c *Context) eval(operand any) (object.Value, error) {
	if operand == nil {
		return object.NullValue, nil
	}
	v, ok := operand.(object.Value)
	if !ok {
		return object.NullValue, nil
	}
	return FullEval(c, v)
}

func (c *Context) eval2(a, b any) (object.Value, object.Value, error) {
	av, err := c.eval(a)
	if err != nil {
		return nil, nil, err
	}
	bv, err := c.eval(b)
	if err != nil {
		return nil, nil, err
	}
	return av, bv, nil
}

// FullEval resolves Var/Temp/SeqElem descriptors to concrete values,
// walking the __isa/prototype chain for dotted access and auto-invoking
// zero-required-parameter functions per spec.md §4.2's "fully evaluate"
// rule (suppressed by the "@" address-of NoInvoke marker).
func FullEval(c *Context, v object.Value) (object.Value, error) {
	switch tv := v.(type) {
	case object.Var:
		val, err := c.GetVar(tv.Name)
		if err != nil {
			return nil, err
		}
		return autoInvoke(c, val, tv.NoInvoke)
	case object.Temp:
		return c.GetTemp(tv.Index), nil
	case object.SeqElem:
		seq, err := FullEval(c, tv.Seq)
		if err != nil {
			return nil, err
		}
		idx, err := FullEval(c, tv.Index)
		if err != nil {
			return nil, err
		}
		val, container, err := resolveElemIn(c, seq, idx)
		if err != nil {
			return nil, err
		}
		self := seq
		if isSuperIdent(tv.Seq) {
			self = selfOrNull(c.SelfVal)
		}
		return autoInvokeMethod(c, val, self, container, tv.NoInvoke)
	default:
		return v, nil
	}
}

// autoInvoke is autoInvokeMethod for a bareword variable reference: no
// receiver, so self stays null and no "super" is bound, matching
// spec.md §4.2's plain "fully evaluate" rule.
func autoInvoke(c *Context, v object.Value, noInvoke bool) (object.Value, error) {
	return autoInvokeMethod(c, v, object.NullValue, nil, noInvoke)
}

// autoInvokeMethod implements spec.md §4.2's "fully evaluate" rule for a
// value that may have come from a dotted/indexed lookup: a
// zero-required-parameter function auto-invokes exactly as a
// parenthesized call would, with the same self/super binding
// dispatchCall gives an explicit call, per spec.md §4.4's method-call
// self/super rule.
func autoInvokeMethod(c *Context, v object.Value, self object.Value, container *object.Map, noInvoke bool) (object.Value, error) {
	if noInvoke {
		return v, nil
	}
	fv, ok := v.(*object.FunctionValue)
	if !ok {
		return v, nil
	}
	// An intrinsic parameter with no default is optional (it binds to
	// Go nil), so only script functions can have required parameters.
	if _, native := intrinsics.Global().Lookup(fv.Fn); !native {
		for _, p := range fv.Fn.Params {
			if p.Default == nil {
				return v, nil
			}
		}
	}
	superVal, hasSuper := containerSuper(container)
	return c.Machine.manuallyPushCall(fv, nil, self, superVal, hasSuper)
}

// isSuperIdent reports whether v is the raw, pre-resolution "super"
// identifier — the call-target sequence written literally as `super`,
// e.g. `super.method`. When it is, the called method's self stays the
// current context's self (the actual receiver) rather than becoming
// the parent prototype map itself, per spec.md §4.4's "super".
func isSuperIdent(v object.Value) bool {
	vv, ok := v.(object.Var)
	return ok && vv.Name == "super"
}

func selfOrNull(v object.Value) object.Value {
	if v == nil {
		return object.NullValue
	}
	return v
}

// containerSuper derives the "super" binding for a call whose target
// was found in container: the prototype directly above container in
// its own __isa chain, per spec.md §4.4. A nil container (the target
// came from a plain variable or a non-string-keyed index, not a
// dotted/proto lookup) binds no "super" at all.
func containerSuper(container *object.Map) (object.Value, bool) {
	if container == nil {
		return nil, false
	}
	if parent, ok := container.Isa(); ok {
		return parent, true
	}
	return object.NullValue, true
}

// cloneValue implements CopyA's "detach a fresh mutable copy" semantics
// (spec.md §4.4). For a list/map literal template built by the parser,
// this is also where the literal's elements are actually evaluated:
// the parser stashes each element as a lazy Var/Temp/SeqElem descriptor
// straight into the template's Items/entries, and cloning resolves them
// through FullEval, so a literal like "[x, f()]" reads x and calls f()
// fresh every time the CopyA line runs rather than once at parse time.
func cloneValue(c *Context, v object.Value) (object.Value, error) {
	switch tv := v.(type) {
	case *object.List:
		items := make([]object.Value, len(tv.Items))
		for i, it := range tv.Items {
			rv, err := FullEval(c, it)
			if err != nil {
				return nil, err
			}
			items[i] = rv
		}
		return object.NewList(items), nil
	case *object.Map:
		m := object.NewMap()
		for _, k := range tv.Keys() {
			val, _ := tv.Get(k)
			rk, err := FullEval(c, k)
			if err != nil {
				return nil, err
			}
			rv, err := FullEval(c, val)
			if err != nil {
				return nil, err
			}
			m.RawSet(rk, rv)
		}
		return m, nil
	default:
		return v, nil
	}
}

// --- dotted/indexed access --------------------------------------------

// resolveElem implements ElemBofA: sequence[index] for lists, strings
// and maps, falling back to the __isa chain and then the built-in
// prototype for string-keyed "dotted" access, per spec.md §4.4.
func resolveElem(c *Context, seq, idx object.Value) (object.Value, error) {
	v, _, err := resolveElemIn(c, seq, idx)
	return v, err
}

// resolveElemIn is resolveElem plus the map the value was actually
// found in — nil for a plain numeric/indexed lookup, otherwise seq
// itself, the __isa ancestor that answered the lookup, or the built-in
// type prototype a dotted primitive access fell through to. A call
// dispatched through that lookup binds "super" to this map's own
// __isa, per spec.md §4.4.
func resolveElemIn(c *Context, seq, idx object.Value) (object.Value, *object.Map, error) {
	switch s := seq.(type) {
	case *object.String:
		if key, ok := idx.(*object.String); ok {
			v, err := protoLookup(c, object.StringTypeProto(), key.Value, seq)
			return v, object.StringTypeProto(), err
		}
		runes := []rune(s.Value)
		i, ok := object.NormalizeIndex(int(object.IntValue(idx)), len(runes))
		if !ok {
			return nil, nil, runtimeErrorf(c, "Index Error: string index out of range")
		}
		return object.NewString(string(runes[i])), nil, nil

	case *object.List:
		if key, ok := idx.(*object.String); ok {
			v, err := protoLookup(c, object.ListTypeProto(), key.Value, seq)
			return v, object.ListTypeProto(), err
		}
		i, ok := object.NormalizeIndex(int(object.IntValue(idx)), len(s.Items))
		if !ok {
			return nil, nil, runtimeErrorf(c, "Index Error: list index out of range")
		}
		return s.Items[i], nil, nil

	case *object.Map:
		if v, ok := s.Get(idx); ok {
			return v, s, nil
		}
		cur := s
		for depth := 0; depth < object.MaxIsaDepth; depth++ {
			parent, ok := cur.Isa()
			if !ok {
				break
			}
			if v, ok := parent.Get(idx); ok {
				return v, parent, nil
			}
			cur = parent
		}
		if key, ok := idx.(*object.String); ok {
			if v, ok := object.MapTypeProto().GetStr(key.Value); ok {
				return v, object.MapTypeProto(), nil
			}
		}
		return object.NullValue, nil, nil

	case object.Number:
		if key, ok := idx.(*object.String); ok {
			v, err := protoLookup(c, object.NumberTypeProto(), key.Value, seq)
			return v, object.NumberTypeProto(), err
		}
		return nil, nil, runtimeErrorf(c, "cannot index a number")

	case *object.Function, *object.FunctionValue:
		if key, ok := idx.(*object.String); ok {
			v, err := protoLookup(c, object.FunctionTypeProto(), key.Value, seq)
			return v, object.FunctionTypeProto(), err
		}
		return nil, nil, runtimeErrorf(c, "cannot index a function")

	case object.Null:
		return nil, nil, runtimeErrorf(c, "Null Reference: can't index into null")

	default:
		return nil, nil, runtimeErrorf(c, "cannot index %s", seq.Type())
	}
}

func protoLookup(c *Context, proto *object.Map, name string, self object.Value) (object.Value, error) {
	if v, ok := proto.GetStr(name); ok {
		return v, nil
	}
	return nil, runtimeErrorf(c, "Index Not Found: %q not found in %s", name, self.Type())
}

// iterElem implements ElemBofIterA: the i-th element a "for" loop
// (spec.md §4.2's for-loop lowering) visits, iterating a list by
// position, a map by insertion-ordered key, and a string by rune.
func iterElem(c *Context, seq object.Value, i int) (object.Value, error) {
	switch s := seq.(type) {
	case *object.List:
		if i < 0 || i >= len(s.Items) {
			return nil, runtimeErrorf(c, "iterator index out of range")
		}
		return s.Items[i], nil
	case *object.Map:
		keys := s.Keys()
		if i < 0 || i >= len(keys) {
			return nil, runtimeErrorf(c, "iterator index out of range")
		}
		return keys[i], nil
	case *object.String:
		runes := []rune(s.Value)
		if i < 0 || i >= len(runes) {
			return nil, runtimeErrorf(c, "iterator index out of range")
		}
		return object.NewString(string(runes[i])), nil
	default:
		return nil, runtimeErrorf(c, "%s is not iterable", seq.Type())
	}
}

func seqLenOf(c *Context, v object.Value) (int, error) {
	switch tv := v.(type) {
	case *object.String:
		return len([]rune(tv.Value)), nil
	case *object.List:
		return len(tv.Items), nil
	case *object.Map:
		return tv.Len(), nil
	default:
		return 0, runtimeErrorf(c, "%s has no length", v.Type())
	}
}

// --- lvalue storage -----------------------------------------------------

// storeInto assigns val to dest, the raw ir.Line.Dest operand: nil for
// opcodes with no destination, or an object.Var/Temp/SeqElem lvalue
// descriptor, per spec.md §4.4.
func storeInto(c *Context, dest any, val object.Value) error {
	if dest == nil {
		return nil
	}
	dv, ok := dest.(object.Value)
	if !ok {
		return nil
	}
	switch tv := dv.(type) {
	case object.Var:
		return c.SetVar(tv.Name, val)
	case object.Temp:
		c.SetTemp(tv.Index, val)
		return nil
	case object.SeqElem:
		seq, err := FullEval(c, tv.Seq)
		if err != nil {
			return err
		}
		idx, err := FullEval(c, tv.Index)
		if err != nil {
			return err
		}
		return storeElem(c, seq, idx, val)
	default:
		return nil
	}
}

func storeElem(c *Context, seq, idx, val object.Value) error {
	switch s := seq.(type) {
	case *object.List:
		n := len(s.Items)
		if i, ok := object.NormalizeIndex(int(object.IntValue(idx)), n); ok {
			s.Items[i] = val
			return nil
		}
		if int(object.IntValue(idx)) == n {
			s.Items = append(s.Items, val)
			return nil
		}
		return runtimeErrorf(c, "Index Error: list index out of range")
	case *object.Map:
		s.Set(idx, val)
		return nil
	case *object.String:
		return runtimeErrorf(c, "strings are immutable")
	default:
		return runtimeErrorf(c, "cannot assign into %s", seq.Type())
	}
}

// --- arithmetic and comparison ------------------------------------------

// absClamp01 folds a fuzzy intermediate into the [0, 1] range the way
// and/or/not composition requires: negative results reflect back to
// positive, and anything past 1 saturates at 1.
func absClamp01(f float64) float64 {
	if f < 0 {
		f = -f
	}
	if f > 1 {
		return 1
	}
	return f
}

func arith(c *Context, op ir.Op, a, b object.Value) (object.Value, error) {
	if op == ir.APlusB {
		if v, ok := plus(a, b); ok {
			return v, nil
		}
	}
	if op == ir.ATimesB {
		if v, ok := repeat(a, b); ok {
			return v, nil
		}
	}
	an, aok := a.(object.Number)
	bn, bok := b.(object.Number)
	if !aok || !bok {
		return nil, runtimeErrorf(c, "cannot apply operator to %s and %s", a.Type(), b.Type())
	}
	x, y := float64(an), float64(bn)
	switch op {
	case ir.APlusB:
		return object.NumberFor(x + y), nil
	case ir.AMinusB:
		return object.NumberFor(x - y), nil
	case ir.ATimesB:
		return object.NumberFor(x * y), nil
	case ir.ADividedByB:
		if y == 0 {
			return nil, runtimeErrorf(c, "division by zero")
		}
		return object.NumberFor(x / y), nil
	case ir.AModB:
		if y == 0 {
			return nil, runtimeErrorf(c, "division by zero")
		}
		return object.NumberFor(math.Mod(x, y)), nil
	case ir.APowB:
		return object.NumberFor(math.Pow(x, y)), nil
	default:
		return nil, runtimeErrorf(c, "unsupported arithmetic op")
	}
}

func plus(a, b object.Value) (object.Value, bool) {
	switch av := a.(type) {
	case *object.String:
		return object.NewString(av.Value + object.Display(b)), true
	case *object.List:
		if bv, ok := b.(*object.List); ok {
			items := make([]object.Value, 0, len(av.Items)+len(bv.Items))
			items = append(items, av.Items...)
			items = append(items, bv.Items...)
			return object.NewList(items), true
		}
	case *object.Map:
		if bv, ok := b.(*object.Map); ok {
			m := av.Clone()
			for _, k := range bv.Keys() {
				v, _ := bv.Get(k)
				m.Set(k, v)
			}
			return m, true
		}
	}
	if bv, ok := b.(*object.String); ok {
		if _, isStr := a.(*object.String); !isStr {
			return object.NewString(object.Display(a) + bv.Value), true
		}
	}
	return nil, false
}

func repeat(a, b object.Value) (object.Value, bool) {
	if s, ok := a.(*object.String); ok {
		if n, ok := b.(object.Number); ok {
			return object.NewString(strings.Repeat(s.Value, int(n))), true
		}
	}
	if l, ok := a.(*object.List); ok {
		if n, ok := b.(object.Number); ok {
			out := make([]object.Value, 0, l.Len()*int(n))
			for i := 0; i < int(n); i++ {
				out = append(out, l.Items...)
			}
			return object.NewList(out), true
		}
	}
	return nil, false
}

func compare(c *Context, op ir.Op, a, b object.Value) (object.Value, error) {
	switch op {
	case ir.AEqualB:
		return object.NumberFor(object.Equal(a, b, object.DefaultEqualityDepth)), nil
	case ir.ANotEqualB:
		return object.NumberFor(1 - object.Equal(a, b, object.DefaultEqualityDepth)), nil
	}
	ord, err := order(c, a, b)
	if err != nil {
		return nil, err
	}
	switch op {
	case ir.AGreaterThanB:
		return object.BoolNumber(ord > 0), nil
	case ir.AGreatOrEqualB:
		return object.BoolNumber(ord >= 0), nil
	case ir.ALessThanB:
		return object.BoolNumber(ord < 0), nil
	case ir.ALessOrEqualB:
		return object.BoolNumber(ord <= 0), nil
	default:
		return nil, runtimeErrorf(c, "unsupported comparison op")
	}
}

// order returns -1/0/1 the way spec.md §3's ordering rule requires:
// numeric for two Numbers, lexicographic for two Strings, an error
// otherwise (lists/maps/functions have no total order).
func order(c *Context, a, b object.Value) (int, error) {
	if an, ok := a.(object.Number); ok {
		if bn, ok := b.(object.Number); ok {
			switch {
			case an < bn:
				return -1, nil
			case an > bn:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	if as, ok := a.(*object.String); ok {
		if bs, ok := b.(*object.String); ok {
			return strings.Compare(as.Value, bs.Value), nil
		}
	}
	return 0, runtimeErrorf(c, "cannot compare %s and %s", a.Type(), b.Type())
}

func isaOf(a, b object.Value) bool {
	am, ok := a.(*object.Map)
	if !ok {
		// Primitives don't carry their own __isa chain; a number/string/
		// list/function's type identity is the corresponding singleton
		// prototype map, compared by reference like the map case below.
		return object.PrototypeFor(a) != nil && object.PrototypeFor(a) == b
	}
	bm, ok := b.(*object.Map)
	if !ok {
		return false
	}
	cur := am
	for depth := 0; depth < object.MaxIsaDepth; depth++ {
		if cur == bm {
			return true
		}
		parent, ok := cur.Isa()
		if !ok {
			return false
		}
		cur = parent
	}
	return false
}

// --- calls ----------------------------------------------------------

// dispatchCall implements both CallFunctionA (an ordinary, possibly
// user-shadowable call resolved through get_var) and CallIntrinsicA
// (a direct call to a built-in named by a Go string operand, so a
// script-level redefinition of that name can't intercept it; the
// parser itself does not emit it), per spec.md §4.4. When the call target is
// a dotted/indexed SeqElem, self binds to the resolved receiver
// (unless the raw target is the literal "super", in which case self is
// inherited unchanged from the calling context) and "super" binds, as
// an ordinary local on the callee, to the container map's own __isa —
// the same binding autoInvokeMethod gives an implicit zero-arg call, so
// `obj.method` and `obj.method()` dispatch identically.
func (m *Machine) dispatchCall(c *Context, line ir.Line, directIntrinsic bool) error {
	args := c.Args
	c.Args = nil

	if directIntrinsic {
		name, ok := line.A.(string)
		if !ok {
			return runtimeErrorf(c, "malformed intrinsic call target")
		}
		in, ok := intrinsics.Global().ByName(name)
		if !ok {
			return runtimeErrorf(c, "no such intrinsic %q", name)
		}
		ctx := m.pushIntrinsicCall(in, args, object.NullValue, line.Dest, c)
		m.push(ctx)
		return nil
	}

	var self object.Value = object.NullValue
	var container *object.Map
	var target object.Value

	if seqOperand, ok := line.A.(object.SeqElem); ok {
		seq, err := FullEval(c, seqOperand.Seq)
		if err != nil {
			return err
		}
		idx, err := FullEval(c, seqOperand.Index)
		if err != nil {
			return err
		}
		val, cont, err := resolveElemIn(c, seq, idx)
		if err != nil {
			return err
		}
		container = cont
		if isSuperIdent(seqOperand.Seq) {
			self = selfOrNull(c.SelfVal)
		} else {
			self = seq
		}
		target = val
	} else {
		var err error
		target, err = c.eval(line.A)
		if err != nil {
			return err
		}
	}

	fv, ok := target.(*object.FunctionValue)
	if !ok {
		return runtimeErrorf(c, "%s is not a function", target.Type())
	}

	if in, ok := intrinsics.Global().Lookup(fv.Fn); ok {
		ctx := m.pushIntrinsicCall(in, args, self, line.Dest, c)
		m.push(ctx)
		return nil
	}
	child := m.newCall(fv, args, self, line.Dest, c)
	if superVal, hasSuper := containerSuper(container); hasSuper {
		child.Variables.Set(object.NewString("super"), superVal)
	}
	m.push(child)
	return nil
}
