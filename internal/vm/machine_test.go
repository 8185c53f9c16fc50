package vm

import (
	"math"
	"strings"
	"testing"
	"time"

	"mscript/internal/ir"
	"mscript/internal/object"
	"mscript/internal/parser"
)

// runSource compiles and runs src to completion, returning captured
// output, for tests that exercise the parser and machine together.
func runSource(t *testing.T, src string) string {
	t.Helper()
	lines, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m := New(lines)
	var out strings.Builder
	m.SetOutput(&out)
	done, err := m.RunUntilDone(2*time.Second, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !done {
		t.Fatalf("expected the program to finish")
	}
	return strings.TrimSpace(out.String())
}

// program builds a minimal TAC block: x = 2 + 3, print(x).
func program(t *testing.T) []ir.Line {
	t.Helper()
	x := object.Var{Name: "x"}
	return []ir.Line{
		ir.New(ir.APlusB, object.Temp{Index: 1}, object.NumberFor(2), object.NumberFor(3), 1),
		ir.New(ir.AssignA, x, object.Temp{Index: 1}, nil, 1),
		ir.New(ir.PushParam, nil, x, nil, 2),
		ir.New(ir.CallIntrinsicA, object.Temp{Index: 2}, "print", nil, 2),
	}
}

func TestMachineRunsArithmeticAndPrint(t *testing.T) {
	m := New(program(t))
	var out strings.Builder
	m.SetOutput(&out)

	done, err := m.RunUntilDone(0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !done {
		t.Fatalf("expected the program to finish")
	}
	if got := strings.TrimSpace(out.String()); got != "5" {
		t.Fatalf("got output %q, want %q", got, "5")
	}
	xv, err := m.Root().GetVar("x")
	if err != nil {
		t.Fatalf("GetVar: %v", err)
	}
	if xv != object.NumberFor(5) {
		t.Fatalf("x = %v, want 5", xv)
	}
}

func TestMachineListLiteralConcatenation(t *testing.T) {
	a := object.NewList([]object.Value{object.One})
	b := object.NewList([]object.Value{object.NumberFor(2)})
	dest := object.Var{Name: "combined"}
	code := []ir.Line{
		ir.New(ir.APlusB, dest, a, b, 1),
	}
	m := New(code)
	if _, err := m.RunUntilDone(0, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := m.Root().GetVar("combined")
	if err != nil {
		t.Fatalf("GetVar: %v", err)
	}
	l, ok := v.(*object.List)
	if !ok || l.Len() != 2 {
		t.Fatalf("combined = %v, want a two-element list", v)
	}
}

// TestFuzzyAndComposition checks that AAndB composes fuzzy truth as
// |a*b| rather than collapsing to a boolean: 0.5 and 0.6 must yield
// 0.3, not 0.6 or 1.
func TestFuzzyAndComposition(t *testing.T) {
	dest := object.Var{Name: "r"}
	code := []ir.Line{
		ir.New(ir.AAndB, dest, object.NumberFor(0.5), object.NumberFor(0.6), 1),
	}
	m := New(code)
	if _, err := m.RunUntilDone(0, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := m.Root().GetVar("r")
	if err != nil {
		t.Fatalf("GetVar: %v", err)
	}
	got, ok := v.(object.Number)
	if !ok || math.Abs(float64(got)-0.3) > 1e-9 {
		t.Fatalf("0.5 and 0.6 = %v, want 0.3", v)
	}
}

// TestFuzzyOrComposition checks that AOrB composes fuzzy truth as
// |a+b-a*b|, exercised with exact binary fractions so no epsilon is
// needed: 0.5 or 0.25 = 0.5+0.25-0.125 = 0.625.
func TestFuzzyOrComposition(t *testing.T) {
	dest := object.Var{Name: "r"}
	code := []ir.Line{
		ir.New(ir.AOrB, dest, object.NumberFor(0.5), object.NumberFor(0.25), 1),
	}
	m := New(code)
	if _, err := m.RunUntilDone(0, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := m.Root().GetVar("r")
	if err != nil {
		t.Fatalf("GetVar: %v", err)
	}
	if v != object.NumberFor(0.625) {
		t.Fatalf("0.5 or 0.25 = %v, want 0.625", v)
	}
}

// TestFuzzyNot checks NotA on a number computes 1-|clamp(a)| rather
// than a boolean negation: not 0.3 must be 0.7.
func TestFuzzyNot(t *testing.T) {
	dest := object.Var{Name: "r"}
	code := []ir.Line{
		ir.New(ir.NotA, dest, object.NumberFor(0.3), nil, 1),
	}
	m := New(code)
	if _, err := m.RunUntilDone(0, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := m.Root().GetVar("r")
	if err != nil {
		t.Fatalf("GetVar: %v", err)
	}
	got, ok := v.(object.Number)
	if !ok || math.Abs(float64(got)-0.7) > 1e-9 {
		t.Fatalf("not 0.3 = %v, want 0.7", v)
	}
}

// TestFuzzyNotOnNonNumber falls back to boolean negation for
// non-number operands, matching the reference's per-type NotA rules
// (a nonempty list/map/string negates to 0, not a fuzzy formula).
func TestFuzzyNotOnNonNumber(t *testing.T) {
	dest := object.Var{Name: "r"}
	code := []ir.Line{
		ir.New(ir.NotA, dest, object.NewList([]object.Value{object.One}), nil, 1),
	}
	m := New(code)
	if _, err := m.RunUntilDone(0, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := m.Root().GetVar("r")
	if err != nil {
		t.Fatalf("GetVar: %v", err)
	}
	if v != object.Zero {
		t.Fatalf("not [1] = %v, want 0", v)
	}
}

// TestRunUntilDoneYieldsOnPendingPartialResult checks that, with
// returnEarly set, the run loop bails the moment the top context has a
// pending partial result — not just when RequestYield or the wall-clock
// deadline fires — so a host can resume an in-flight intrinsic like
// "wait" later instead of the loop busy-spinning on it.
func TestRunUntilDoneYieldsOnPendingPartialResult(t *testing.T) {
	dest := object.Temp{Index: 1}
	code := []ir.Line{
		ir.New(ir.PushParam, nil, object.NumberFor(1_000_000), nil, 1),
		ir.New(ir.CallIntrinsicA, dest, "wait", nil, 1),
	}
	m := New(code)
	done, err := m.RunUntilDone(0, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done {
		t.Fatalf("expected RunUntilDone to yield on a pending partial result, not finish")
	}
	if m.Current().PartialResult == nil {
		t.Fatalf("expected the top context to still have a pending partial result")
	}
}

func TestMachineFunctionCallAndReturn(t *testing.T) {
	// function double(n): return n * 2
	fn := &object.Function{
		Params: []object.Param{{Name: "n"}},
		Code: []ir.Line{
			ir.New(ir.ATimesB, object.Temp{Index: 1}, object.Var{Name: "n"}, object.NumberFor(2), 1),
			ir.New(ir.ReturnA, nil, object.Temp{Index: 1}, nil, 1),
		},
	}
	fnVar := object.Var{Name: "double"}
	result := object.Var{Name: "result"}
	code := []ir.Line{
		ir.New(ir.BindAssignA, fnVar, fn, nil, 1),
		ir.New(ir.PushParam, nil, object.NumberFor(21), nil, 2),
		ir.New(ir.CallFunctionA, result, object.Var{Name: "double", NoInvoke: true}, nil, 2),
	}
	m := New(code)
	done, err := m.RunUntilDone(2*time.Second, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !done {
		t.Fatalf("expected completion")
	}
	v, err := m.Root().GetVar("result")
	if err != nil {
		t.Fatalf("GetVar: %v", err)
	}
	if v != object.NumberFor(42) {
		t.Fatalf("result = %v, want 42", v)
	}
}

// TestBarewordMethodBindsSelf reproduces spec.md's scenario 5: a
// zero-arg method reached with no parens (the auto-invoke path) must
// bind self the same way an explicit call would.
func TestBarewordMethodBindsSelf(t *testing.T) {
	got := runSource(t, `c = {}
c.__isa = {greet: function()
  print("hi " + self.name)
end function}
c.name = "x"
c.greet`)
	if got != "hi x" {
		t.Fatalf("c.greet = %q, want %q", got, "hi x")
	}
}

// TestExplicitMethodCallBindsSelf is TestBarewordMethodBindsSelf's
// explicit-parens counterpart, confirming both call shapes agree.
func TestExplicitMethodCallBindsSelf(t *testing.T) {
	got := runSource(t, `c = {}
c.__isa = {greet: function()
  print("hi " + self.name)
end function}
c.name = "x"
c.greet()`)
	if got != "hi x" {
		t.Fatalf("c.greet() = %q, want %q", got, "hi x")
	}
}

// TestSuperCallsParentImplementationOnSameReceiver checks that
// super.method() invokes the parent's implementation while keeping self
// bound to the actual receiver, not to the parent prototype map.
func TestSuperCallsParentImplementationOnSameReceiver(t *testing.T) {
	got := runSource(t, `base = {}
base.greet = function()
  print("base hi " + self.name)
end function
child = new base
child.greet = function()
  super.greet
end function
child.name = "x"
child.greet`)
	if got != "base hi x" {
		t.Fatalf("child.greet = %q, want %q", got, "base hi x")
	}
}

// TestIsaOfPrimitiveNumber checks that "5 isa number" walks the
// primitive-type singleton comparison, not just the Map-vs-Map isa
// chain.
func TestIsaOfPrimitiveNumber(t *testing.T) {
	got := runSource(t, `print(5 isa number)`)
	if got != "1" {
		t.Fatalf("5 isa number = %q, want %q", got, "1")
	}
}

// TestIsaOfPrimitiveStringMismatch checks the negative case: a number
// is not a string.
func TestIsaOfPrimitiveStringMismatch(t *testing.T) {
	got := runSource(t, `print(5 isa string)`)
	if got != "0" {
		t.Fatalf("5 isa string = %q, want %q", got, "0")
	}
}

// TestSortByKeyOnListOfLists checks that "sort"'s byKey parameter
// indexes into a list element (not just a map field) when the list
// being sorted is itself a list of lists.
func TestSortByKeyOnListOfLists(t *testing.T) {
	got := runSource(t, `rows = [[3, "c"], [1, "a"], [2, "b"]]
rows.sort(0)
for row in rows
  print(row[1])
end for`)
	want := "a\nb\nc"
	if got != want {
		t.Fatalf("sort by list index = %q, want %q", got, want)
	}
}

func TestMachineIsaChain(t *testing.T) {
	base := object.NewMap()
	base.RawSet(object.NewString("kind"), object.NewString("shape"))
	child := object.NewMap()
	child.RawSet(object.NewString(object.IsaKey), base)

	dest := object.Var{Name: "isShape"}
	code := []ir.Line{
		ir.New(ir.AisaB, dest, child, base, 1),
	}
	m := New(code)
	if _, err := m.RunUntilDone(0, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, _ := m.Root().GetVar("isShape")
	if v != object.One {
		t.Fatalf("isShape = %v, want 1", v)
	}
}
