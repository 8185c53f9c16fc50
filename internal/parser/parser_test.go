package parser

import (
	"testing"

	"mscript/internal/ir"
	"mscript/internal/object"
)

func opSeq(lines []ir.Line) []ir.Op {
	ops := make([]ir.Op, len(lines))
	for i, l := range lines {
		ops[i] = l.Op
	}
	return ops
}

func TestParseSimpleAssignment(t *testing.T) {
	lines, err := Parse("x = 2 + 3\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines (add, assign), got %d: %v", len(lines), opSeq(lines))
	}
	if lines[0].Op != ir.APlusB {
		t.Fatalf("expected first line to compute the sum, got %s", lines[0].Op)
	}
	if lines[1].Op != ir.AssignA {
		t.Fatalf("expected second line to assign, got %s", lines[1].Op)
	}
}

func TestParseExpressionStatementEmitsImplicit(t *testing.T) {
	lines, err := Parse("2 + 2\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := lines[len(lines)-1]
	if last.Op != ir.AssignImplicit {
		t.Fatalf("bare expression statement should emit AssignImplicit, got %s", last.Op)
	}
}

func TestParseIfElseIfElse(t *testing.T) {
	src := "if x == 1 then\n  y = 1\nelse if x == 2 then\n  y = 2\nelse\n  y = 3\nend if\n"
	lines, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var gotoCount, condJumpCount int
	for _, l := range lines {
		switch l.Op {
		case ir.GotoA:
			gotoCount++
		case ir.GotoAifNotB:
			condJumpCount++
		}
	}
	if condJumpCount != 2 {
		t.Fatalf("expected 2 conditional branches (if, else-if), got %d", condJumpCount)
	}
	if gotoCount != 2 {
		t.Fatalf("expected 2 unconditional end-jumps (if-body, else-if-body), got %d", gotoCount)
	}
}

func TestParseWhileLoopBackEdge(t *testing.T) {
	lines, err := Parse("while x < 10\n  x = x + 1\nend while\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := lines[len(lines)-1]
	if last.Op != ir.GotoA {
		t.Fatalf("expected loop body to end with a back-edge jump, got %s", last.Op)
	}
	target, ok := last.A.(int)
	if !ok || target != 0 {
		t.Fatalf("back-edge should jump to line 0 (the condition check), got %v", last.A)
	}
}

func TestParseForLoopLowering(t *testing.T) {
	lines, err := Parse("for i in [1, 2, 3]\n  print(i)\nend for\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sawLength, sawIter bool
	for _, l := range lines {
		if l.Op == ir.LengthOfA {
			sawLength = true
		}
		if l.Op == ir.ElemBofIterA {
			sawIter = true
		}
	}
	if !sawLength || !sawIter {
		t.Fatalf("for loop should lower via LengthOfA/ElemBofIterA, got ops %v", opSeq(lines))
	}
}

func TestParseBreakContinueOutsideLoopFails(t *testing.T) {
	if _, err := Parse("break\n"); err == nil {
		t.Fatalf("expected error for break outside a loop")
	}
	if _, err := Parse("continue\n"); err == nil {
		t.Fatalf("expected error for continue outside a loop")
	}
}

func TestParseFunctionLiteralBindAssign(t *testing.T) {
	lines, err := Parse("f = function(a, b = 2)\n  return a + b\nend function\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sawBind bool
	for _, l := range lines {
		if l.Op == ir.BindAssignA {
			sawBind = true
		}
	}
	if !sawBind {
		t.Fatalf("function literal should emit BindAssignA, got %v", opSeq(lines))
	}
}

func TestParseShortCircuitAnd(t *testing.T) {
	lines, err := Parse("z = a and b\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sawSkip, sawFuzzyAnd bool
	for _, l := range lines {
		if l.Op == ir.GotoAifNotB {
			sawSkip = true
		}
		if l.Op == ir.AAndB {
			sawFuzzyAnd = true
		}
	}
	if !sawSkip {
		t.Fatalf("'and' should short-circuit via GotoAifNotB, got %v", opSeq(lines))
	}
	if !sawFuzzyAnd {
		t.Fatalf("'and' should compose via AAndB, not collapse to a boolean, got %v", opSeq(lines))
	}
}

// TestParseShortCircuitOr checks that "or" short-circuits on
// GotoAifTrulyB (integer-truthiness, not ordinary fuzzy truthiness)
// so that a fuzzy-but-not-truly-true left operand still composes with
// AOrB instead of discarding the right operand.
func TestParseShortCircuitOr(t *testing.T) {
	lines, err := Parse("z = a or b\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sawTrulySkip, sawFuzzyOr, sawPlainGotoIfB bool
	for _, l := range lines {
		switch l.Op {
		case ir.GotoAifTrulyB:
			sawTrulySkip = true
		case ir.AOrB:
			sawFuzzyOr = true
		case ir.GotoAifB:
			sawPlainGotoIfB = true
		}
	}
	if !sawTrulySkip {
		t.Fatalf("'or' should short-circuit via GotoAifTrulyB, got %v", opSeq(lines))
	}
	if !sawFuzzyOr {
		t.Fatalf("'or' should compose via AOrB, not collapse to a boolean, got %v", opSeq(lines))
	}
	if sawPlainGotoIfB {
		t.Fatalf("'or' must not short-circuit on ordinary fuzzy truthiness (GotoAifB), got %v", opSeq(lines))
	}
}

func TestParseNewLowersToCopyAndIsaAssign(t *testing.T) {
	lines, err := Parse("obj = new Base\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lines[0].Op != ir.CopyA {
		t.Fatalf("'new' should start with CopyA to build a fresh map, got %s", lines[0].Op)
	}
	if lines[1].Op != ir.AssignA {
		t.Fatalf("'new' should assign __isa next, got %s", lines[1].Op)
	}
}

func TestParseDottedCallThreadsSelf(t *testing.T) {
	lines, err := Parse("obj.speak()\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sawCall bool
	for _, l := range lines {
		if l.Op == ir.CallFunctionA {
			sawCall = true
			target, ok := l.A.(object.SeqElem)
			if !ok || target.Seq != (object.Var{Name: "obj"}) {
				t.Fatalf("method call target should keep the receiver obj, got %#v", l.A)
			}
		}
	}
	if !sawCall {
		t.Fatalf("method call should emit CallFunctionA, got %v", opSeq(lines))
	}
}

func TestParseUnterminatedBlockFails(t *testing.T) {
	if _, err := Parse("if x == 1 then\n  y = 1\n"); err == nil {
		t.Fatalf("expected error for missing 'end if'")
	}
}
