// Package parser is a single-pass, recursive-descent, operator-precedence
// parser that emits three-address code directly from tokens — no AST is
// ever built. Each parse function returns the operand (a literal
// object.Value, or an object.Var/Temp/SeqElem lvalue descriptor) that
// represents where its subexpression's value lives once the emitted
// code has run, per spec.md §4.2.
package parser

import (
	"strconv"

	"github.com/pkg/errors"

	"mscript/internal/ir"
	"mscript/internal/lexer"
	"mscript/internal/object"
	"mscript/internal/token"
	"mscript/internal/util"
)

// Error is a parse failure annotated with its 1-based source line and,
// where the source text is available, a caret-marked context snippet
// (spec.md §7, "Parser error").
type Error struct {
	LineNum int
	Msg     string
	Context string
}

func (e *Error) Error() string {
	if e.Context == "" {
		return errors.Errorf("Parse Error: %s [line %d]", e.Msg, e.LineNum).Error()
	}
	return errors.Errorf("Parse Error: %s [line %d]\n%s", e.Msg, e.LineNum, e.Context).Error()
}

// funcScope accumulates the TAC lines and temp counter for one function
// body (or the top-level program), so nested function literals compile
// into their own independent object.Function.Code, per spec.md §4.2.
type funcScope struct {
	code    []ir.Line
	tempSeq int
}

func (s *funcScope) newTemp() object.Temp {
	// Numbering starts at 1: temp 0 holds the function's return value.
	s.tempSeq++
	return object.Temp{Index: s.tempSeq}
}

func (s *funcScope) emit(op ir.Op, dest, a, b any, lineNum int) int {
	s.code = append(s.code, ir.New(op, dest, a, b, lineNum))
	return len(s.code) - 1
}

// loopFrame collects break/continue jump sites awaiting the loop's exit
// and continuation labels, known only once its body has been parsed.
type loopFrame struct {
	breakPatches    []int
	continuePatches []int
}

// Parser drives token consumption and TAC emission over one source
// string. It is not safe for concurrent use.
type Parser struct {
	lex    *lexer.Lexer
	src    string
	cur    token.Token
	scopes []*funcScope
	loops  []*loopFrame
}

// New builds a Parser over src.
func New(src string) *Parser {
	p := &Parser{lex: lexer.New(src), src: src}
	p.scopes = []*funcScope{{}}
	p.advance()
	return p
}

// Parse compiles src into a flat TAC program (the root context's code),
// per spec.md §4.5.
func Parse(src string) ([]ir.Line, error) {
	p := New(src)
	if err := p.parseProgram(); err != nil {
		return nil, err
	}
	return p.scope().code, nil
}

func (p *Parser) scope() *funcScope { return p.scopes[len(p.scopes)-1] }

func (p *Parser) pushScope() { p.scopes = append(p.scopes, &funcScope{}) }

func (p *Parser) popScope() []ir.Line {
	s := p.scope()
	p.scopes = p.scopes[:len(p.scopes)-1]
	return s.code
}

func (p *Parser) advance() error {
	tok, err := p.lex.Dequeue()
	if err != nil {
		if lerr, ok := err.(*lexer.Error); ok {
			return p.failAt(lerr.LineNum, lerr.Msg)
		}
		return err
	}
	p.cur = tok
	return nil
}

func (p *Parser) fail(format string, a ...any) error {
	return p.failAt(p.cur.LineNum, errors.Errorf(format, a...).Error())
}

func (p *Parser) failAt(lineNum int, msg string) error {
	_, col := util.GetLineAndColumn(p.src, p.byteOffsetOfLine(lineNum))
	return &Error{LineNum: lineNum, Msg: msg, Context: util.GetContextLines(p.src, lineNum, col)}
}

// byteOffsetOfLine returns the offset of the start of the given 1-based
// line, a best-effort helper for error-context rendering only.
func (p *Parser) byteOffsetOfLine(lineNum int) int {
	line := 1
	for i, ch := range p.src {
		if line == lineNum {
			return i
		}
		if ch == '\n' {
			line++
		}
	}
	return len(p.src)
}

func (p *Parser) isKeyword(word string) bool { return p.cur.IsKeyword(word) }

func (p *Parser) is(typ token.Type) bool { return p.cur.Is(typ) }

// atEnd reports whether the lexer has reached the true end of source: an
// EOL token with empty text, as opposed to one produced by a real "\n".
func (p *Parser) atEnd() bool {
	return p.is(token.EOL) && p.cur.Text == ""
}

// skipEOLs consumes blank-line EOL tokens (real newlines) but leaves the
// end-of-source EOL marker in place, since the lexer re-emits it forever
// once reached.
func (p *Parser) skipEOLs() error {
	for p.is(token.EOL) && p.cur.Text != "" {
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) expectKeyword(word string) error {
	if !p.isKeyword(word) {
		if p.atEnd() {
			return p.fail("unexpected end of input; expected %q", word)
		}
		return p.fail("expected %q, got %q", word, p.cur.Text)
	}
	return p.advance()
}

func (p *Parser) expect(typ token.Type, what string) error {
	if !p.is(typ) {
		if p.atEnd() {
			return p.fail("unexpected end of input; expected %s", what)
		}
		return p.fail("expected %s, got %q", what, p.cur.Text)
	}
	return p.advance()
}

// --- program / statements -----------------------------------------------

func (p *Parser) parseProgram() error {
	for {
		if err := p.skipEOLs(); err != nil {
			return err
		}
		if p.atEnd() {
			break
		}
		if err := p.parseStatement(); err != nil {
			return err
		}
	}
	return nil
}

// atBlockEnd reports whether the current token starts one of the given
// terminating keywords ("end if", "else", "else if", "end while", ...),
// without consuming anything.
func (p *Parser) atBlockEnd(words ...string) bool {
	for _, w := range words {
		if p.isKeyword(w) {
			return true
		}
	}
	return false
}

func (p *Parser) parseBlock(terminators ...string) error {
	for {
		if err := p.skipEOLs(); err != nil {
			return err
		}
		if p.atBlockEnd(terminators...) {
			return nil
		}
		if p.atEnd() {
			return p.fail("unexpected end of input; expected one of %v", terminators)
		}
		if err := p.parseStatement(); err != nil {
			return err
		}
	}
}

func (p *Parser) parseStatement() error {
	switch {
	case p.isKeyword("if"):
		return p.parseIf()
	case p.isKeyword("while"):
		return p.parseWhile()
	case p.isKeyword("for"):
		return p.parseFor()
	case p.isKeyword("break"):
		return p.parseBreak()
	case p.isKeyword("continue"):
		return p.parseContinue()
	case p.isKeyword("return"):
		return p.parseReturn()
	default:
		return p.parseAssignOrExprStatement()
	}
}

func (p *Parser) parseAssignOrExprStatement() error {
	lineNum := p.cur.LineNum
	lhs, err := p.parseExpr()
	if err != nil {
		return err
	}
	if p.is(token.OpAssign) {
		if err := p.advance(); err != nil {
			return err
		}
		rhs, err := p.parseExpr()
		if err != nil {
			return err
		}
		p.scope().emit(ir.AssignA, lhs, rhs, nil, lineNum)
	} else {
		p.scope().emit(ir.AssignImplicit, nil, lhs, nil, lineNum)
	}
	return p.expect(token.EOL, "end of line")
}

func (p *Parser) parseReturn() error {
	lineNum := p.cur.LineNum
	if err := p.advance(); err != nil {
		return err
	}
	var val object.Value = object.NullValue
	if !p.is(token.EOL) {
		v, err := p.parseExpr()
		if err != nil {
			return err
		}
		val = v
	}
	p.scope().emit(ir.ReturnA, nil, val, nil, lineNum)
	return p.expect(token.EOL, "end of line")
}

func (p *Parser) parseBreak() error {
	lineNum := p.cur.LineNum
	if err := p.advance(); err != nil {
		return err
	}
	if len(p.loops) == 0 {
		return p.failAt(lineNum, "'break' outside a loop")
	}
	idx := p.scope().emit(ir.GotoA, nil, 0, nil, lineNum)
	top := p.loops[len(p.loops)-1]
	top.breakPatches = append(top.breakPatches, idx)
	return p.expect(token.EOL, "end of line")
}

func (p *Parser) parseContinue() error {
	lineNum := p.cur.LineNum
	if err := p.advance(); err != nil {
		return err
	}
	if len(p.loops) == 0 {
		return p.failAt(lineNum, "'continue' outside a loop")
	}
	idx := p.scope().emit(ir.GotoA, nil, 0, nil, lineNum)
	top := p.loops[len(p.loops)-1]
	top.continuePatches = append(top.continuePatches, idx)
	return p.expect(token.EOL, "end of line")
}

func (p *Parser) patchGoto(idx, target int) {
	p.scope().code[idx].A = target
}

// --- if / else if / else -------------------------------------------------

func (p *Parser) parseIf() error {
	lineNum := p.cur.LineNum
	if err := p.advance(); err != nil {
		return err
	}
	var endPatches []int

	for {
		cond, err := p.parseExpr()
		if err != nil {
			return err
		}
		if err := p.expectKeyword("then"); err != nil {
			return err
		}
		falseJump := p.scope().emit(ir.GotoAifNotB, nil, 0, cond, lineNum)
		if err := p.parseBlock("else", "end"); err != nil {
			return err
		}
		endJump := p.scope().emit(ir.GotoA, nil, 0, nil, lineNum)
		endPatches = append(endPatches, endJump)
		p.patchGoto(falseJump, len(p.scope().code))

		if p.isKeyword("else") {
			lineNum = p.cur.LineNum
			if err := p.advance(); err != nil {
				return err
			}
			if p.isKeyword("if") {
				if err := p.advance(); err != nil {
					return err
				}
				continue // "else if": loop around for another condition
			}
			if err := p.parseBlock("end"); err != nil {
				return err
			}
			break
		}
		break
	}

	if err := p.expectKeyword("end"); err != nil {
		return err
	}
	if err := p.expectKeyword("if"); err != nil {
		return err
	}
	for _, idx := range endPatches {
		p.patchGoto(idx, len(p.scope().code))
	}
	return p.expect(token.EOL, "end of line")
}

// --- while -----------------------------------------------------------

func (p *Parser) parseWhile() error {
	lineNum := p.cur.LineNum
	if err := p.advance(); err != nil {
		return err
	}
	loopStart := len(p.scope().code)
	cond, err := p.parseExpr()
	if err != nil {
		return err
	}
	exitJump := p.scope().emit(ir.GotoAifNotB, nil, 0, cond, lineNum)

	p.loops = append(p.loops, &loopFrame{})
	if err := p.parseBlock("end"); err != nil {
		return err
	}
	frame := p.loops[len(p.loops)-1]
	p.loops = p.loops[:len(p.loops)-1]

	continueLabel := len(p.scope().code)
	p.scope().emit(ir.GotoA, nil, loopStart, nil, lineNum)
	endLabel := len(p.scope().code)
	p.patchGoto(exitJump, endLabel)
	for _, idx := range frame.breakPatches {
		p.patchGoto(idx, endLabel)
	}
	for _, idx := range frame.continuePatches {
		p.patchGoto(idx, continueLabel)
	}

	if err := p.expectKeyword("end"); err != nil {
		return err
	}
	if err := p.expectKeyword("while"); err != nil {
		return err
	}
	return p.expect(token.EOL, "end of line")
}

// --- for -----------------------------------------------------------

func (p *Parser) parseFor() error {
	lineNum := p.cur.LineNum
	if err := p.advance(); err != nil {
		return err
	}
	if !p.is(token.Identifier) {
		return p.fail("expected loop variable name, got %q", p.cur.Text)
	}
	loopVar := object.Var{Name: p.cur.Text}
	if err := p.advance(); err != nil {
		return err
	}
	if err := p.expectKeyword("in"); err != nil {
		return err
	}
	seqExpr, err := p.parseExpr()
	if err != nil {
		return err
	}

	s := p.scope()
	seqTemp := s.newTemp()
	s.emit(ir.AssignA, seqTemp, seqExpr, nil, lineNum)
	lenTemp := s.newTemp()
	s.emit(ir.LengthOfA, lenTemp, seqTemp, nil, lineNum)
	idxTemp := s.newTemp()
	s.emit(ir.AssignA, idxTemp, object.Zero, nil, lineNum)

	loopStart := len(s.code)
	condTemp := s.newTemp()
	s.emit(ir.ALessThanB, condTemp, idxTemp, lenTemp, lineNum)
	exitJump := s.emit(ir.GotoAifNotB, nil, 0, condTemp, lineNum)
	s.emit(ir.ElemBofIterA, loopVar, seqTemp, idxTemp, lineNum)

	p.loops = append(p.loops, &loopFrame{})
	if err := p.parseBlock("end"); err != nil {
		return err
	}
	frame := p.loops[len(p.loops)-1]
	p.loops = p.loops[:len(p.loops)-1]

	continueLabel := len(s.code)
	s.emit(ir.APlusB, idxTemp, idxTemp, object.One, lineNum)
	s.emit(ir.GotoA, nil, loopStart, nil, lineNum)
	endLabel := len(s.code)
	p.patchGoto(exitJump, endLabel)
	for _, idx := range frame.breakPatches {
		p.patchGoto(idx, endLabel)
	}
	for _, idx := range frame.continuePatches {
		p.patchGoto(idx, continueLabel)
	}

	if err := p.expectKeyword("end"); err != nil {
		return err
	}
	if err := p.expectKeyword("for"); err != nil {
		return err
	}
	return p.expect(token.EOL, "end of line")
}

// --- expressions: precedence chain ---------------------------------------
//
// function -> or -> and -> not -> isa -> comparisons -> addSub -> multDiv
// -> unaryMinus -> new -> addressOf -> power -> callExpr -> atom
// (atom also parses map/list literals and quantities), per spec.md §4.2.

func (p *Parser) parseExpr() (object.Value, error) {
	if p.isKeyword("function") {
		return p.parseFunctionLiteral()
	}
	return p.parseOr()
}

// parseOr lowers a chain of "or" operands to fuzzy composition
// (|a+b-a*b|, clamped to [0,1]), not a boolean OR: each right operand
// still gets folded in with AOrB once evaluated. The only thing a
// short-circuit skips is evaluating (and fuzzy-composing) a right
// operand once the accumulated value is TRULY true — its integer value
// is nonzero, not merely its ordinary fuzzy truthiness — which is why
// the guard is GotoAifTrulyB rather than GotoAifB: an accumulated 0.3
// must still pull in the next operand and compose, since 0.3 isn't
// truly true even though it's fuzzy-truthy.
func (p *Parser) parseOr() (object.Value, error) {
	val, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	s := p.scope()
	var jumpLines []int
	for p.isKeyword("or") {
		lineNum := p.cur.LineNum
		if err := p.advance(); err != nil {
			return nil, err
		}
		jump := s.emit(ir.GotoAifTrulyB, nil, 0, val, lineNum)
		jumpLines = append(jumpLines, jump)

		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		temp := s.newTemp()
		s.emit(ir.AOrB, temp, val, right, lineNum)
		val = temp
	}
	if jumpLines != nil {
		lineNum := p.cur.LineNum
		skip := s.emit(ir.GotoA, nil, 0, nil, lineNum)
		s.emit(ir.AssignA, val, object.One, nil, lineNum)
		resultLine := len(s.code) - 1
		p.patchGoto(skip, len(s.code))
		for _, j := range jumpLines {
			p.patchGoto(j, resultLine)
		}
	}
	return val, nil
}

// parseAnd lowers a chain of "and" operands to fuzzy composition
// (|a*b|, clamped to [0,1]). The short-circuit here uses ordinary
// GotoAifNotB (skip once the accumulated value is fuzzy-false) since
// for AND, once one operand is exactly falsy the product is 0
// regardless of the rest of the chain.
func (p *Parser) parseAnd() (object.Value, error) {
	val, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	s := p.scope()
	var jumpLines []int
	for p.isKeyword("and") {
		lineNum := p.cur.LineNum
		if err := p.advance(); err != nil {
			return nil, err
		}
		jump := s.emit(ir.GotoAifNotB, nil, 0, val, lineNum)
		jumpLines = append(jumpLines, jump)

		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		temp := s.newTemp()
		s.emit(ir.AAndB, temp, val, right, lineNum)
		val = temp
	}
	if jumpLines != nil {
		lineNum := p.cur.LineNum
		skip := s.emit(ir.GotoA, nil, 0, nil, lineNum)
		s.emit(ir.AssignA, val, object.Zero, nil, lineNum)
		resultLine := len(s.code) - 1
		p.patchGoto(skip, len(s.code))
		for _, j := range jumpLines {
			p.patchGoto(j, resultLine)
		}
	}
	return val, nil
}

func (p *Parser) parseNot() (object.Value, error) {
	if p.isKeyword("not") {
		lineNum := p.cur.LineNum
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseIsa()
		if err != nil {
			return nil, err
		}
		s := p.scope()
		dest := s.newTemp()
		s.emit(ir.NotA, dest, operand, nil, lineNum)
		return dest, nil
	}
	return p.parseIsa()
}

func (p *Parser) parseIsa() (object.Value, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("isa") {
		lineNum := p.cur.LineNum
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		s := p.scope()
		dest := s.newTemp()
		s.emit(ir.AisaB, dest, left, right, lineNum)
		left = dest
	}
	return left, nil
}

var comparisonOps = map[token.Type]ir.Op{
	token.OpEqual:      ir.AEqualB,
	token.OpNotEqual:   ir.ANotEqualB,
	token.OpGreater:    ir.AGreaterThanB,
	token.OpGreatEqual: ir.AGreatOrEqualB,
	token.OpLesser:     ir.ALessThanB,
	token.OpLessEqual:  ir.ALessOrEqualB,
}

func (p *Parser) parseComparison() (object.Value, error) {
	left, err := p.parseAddSub()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := comparisonOps[p.cur.Type]
		if !ok {
			return left, nil
		}
		lineNum := p.cur.LineNum
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAddSub()
		if err != nil {
			return nil, err
		}
		s := p.scope()
		dest := s.newTemp()
		s.emit(op, dest, left, right, lineNum)
		left = dest
	}
}

func (p *Parser) parseAddSub() (object.Value, error) {
	left, err := p.parseMulDiv()
	if err != nil {
		return nil, err
	}
	for p.is(token.OpPlus) || p.is(token.OpMinus) {
		op := ir.APlusB
		if p.is(token.OpMinus) {
			op = ir.AMinusB
		}
		lineNum := p.cur.LineNum
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMulDiv()
		if err != nil {
			return nil, err
		}
		s := p.scope()
		dest := s.newTemp()
		s.emit(op, dest, left, right, lineNum)
		left = dest
	}
	return left, nil
}

func (p *Parser) parseMulDiv() (object.Value, error) {
	left, err := p.parseUnaryMinus()
	if err != nil {
		return nil, err
	}
	for p.is(token.OpTimes) || p.is(token.OpDivide) || p.is(token.OpMod) {
		var op ir.Op
		switch p.cur.Type {
		case token.OpTimes:
			op = ir.ATimesB
		case token.OpDivide:
			op = ir.ADividedByB
		default:
			op = ir.AModB
		}
		lineNum := p.cur.LineNum
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnaryMinus()
		if err != nil {
			return nil, err
		}
		s := p.scope()
		dest := s.newTemp()
		s.emit(op, dest, left, right, lineNum)
		left = dest
	}
	return left, nil
}

func (p *Parser) parseUnaryMinus() (object.Value, error) {
	if p.is(token.OpMinus) {
		lineNum := p.cur.LineNum
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseNew()
		if err != nil {
			return nil, err
		}
		s := p.scope()
		dest := s.newTemp()
		s.emit(ir.AMinusB, dest, object.Zero, operand, lineNum)
		return dest, nil
	}
	return p.parseNew()
}

// parseNew lowers "new Base" into a fresh empty map (via CopyA, so every
// evaluation gets its own instance) whose __isa points at Base, per
// spec.md §4.4.
func (p *Parser) parseNew() (object.Value, error) {
	if p.isKeyword("new") {
		lineNum := p.cur.LineNum
		if err := p.advance(); err != nil {
			return nil, err
		}
		proto, err := p.parseAddressOf()
		if err != nil {
			return nil, err
		}
		s := p.scope()
		dest := s.newTemp()
		s.emit(ir.CopyA, dest, object.NewMap(), nil, lineNum)
		s.emit(ir.AssignA, object.SeqElem{Seq: dest, Index: object.NewString(object.IsaKey)}, proto, nil, lineNum)
		return dest, nil
	}
	return p.parseAddressOf()
}

// parseAddressOf marks a Var/SeqElem lvalue NoInvoke so it evaluates to
// the function itself rather than auto-calling it, per spec.md §4.2's
// "@" operator.
func (p *Parser) parseAddressOf() (object.Value, error) {
	if p.is(token.AddressOf) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		v, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		return withNoInvoke(v), nil
	}
	return p.parsePower()
}

func withNoInvoke(v object.Value) object.Value {
	switch tv := v.(type) {
	case object.Var:
		tv.NoInvoke = true
		return tv
	case object.SeqElem:
		tv.NoInvoke = true
		return tv
	default:
		return v
	}
}

func (p *Parser) parsePower() (object.Value, error) {
	left, err := p.parseCallExpr()
	if err != nil {
		return nil, err
	}
	if p.is(token.OpPower) {
		lineNum := p.cur.LineNum
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parsePower() // right-associative
		if err != nil {
			return nil, err
		}
		s := p.scope()
		dest := s.newTemp()
		s.emit(ir.APowB, dest, left, right, lineNum)
		return dest, nil
	}
	return left, nil
}

// parseCallExpr parses an atom followed by any chain of ".field",
// "[index]" and "(args)" postfixes, per spec.md §4.2's call-expression
// grammar.
func (p *Parser) parseCallExpr() (object.Value, error) {
	operand, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.is(token.Dot):
			lineNum := p.cur.LineNum
			if err := p.advance(); err != nil {
				return nil, err
			}
			if !p.is(token.Identifier) && !p.is(token.Keyword) {
				return nil, p.fail("expected field name after '.', got %q", p.cur.Text)
			}
			name := p.cur.Text
			if err := p.advance(); err != nil {
				return nil, err
			}
			_ = lineNum
			operand = object.SeqElem{Seq: operand, Index: object.NewString(name)}

		case p.is(token.LSquare):
			if err := p.advance(); err != nil {
				return nil, err
			}
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(token.RSquare, "']'"); err != nil {
				return nil, err
			}
			operand = object.SeqElem{Seq: operand, Index: idx}

		case p.is(token.LParen):
			lineNum := p.cur.LineNum
			if err := p.advance(); err != nil {
				return nil, err
			}
			var args []object.Value
			if !p.is(token.RParen) {
				for {
					a, err := p.parseExpr()
					if err != nil {
						return nil, err
					}
					args = append(args, a)
					if p.is(token.Comma) {
						if err := p.advance(); err != nil {
							return nil, err
						}
						continue
					}
					break
				}
			}
			if err := p.expect(token.RParen, "')'"); err != nil {
				return nil, err
			}
			s := p.scope()
			for _, a := range args {
				s.emit(ir.PushParam, nil, a, nil, lineNum)
			}
			dest := s.newTemp()
			s.emit(ir.CallFunctionA, dest, withNoInvoke(operand), nil, lineNum)
			operand = dest

		default:
			return operand, nil
		}
	}
}

func (p *Parser) parseAtom() (object.Value, error) {
	switch {
	case p.is(token.Number):
		f, err := strconv.ParseFloat(p.cur.Text, 64)
		if err != nil {
			return nil, p.fail("invalid number literal %q", p.cur.Text)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return object.NumberFor(f), nil

	case p.is(token.String):
		s := object.NewString(p.cur.Text)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return s, nil

	case p.isKeyword("null"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return object.NullValue, nil

	case p.isKeyword("true"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return object.One, nil

	case p.isKeyword("false"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return object.Zero, nil

	case p.is(token.Identifier):
		name := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return object.Var{Name: name}, nil

	case p.is(token.LParen):
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil

	case p.is(token.LSquare):
		return p.parseListLiteral()

	case p.is(token.LCurly):
		return p.parseMapLiteral()

	default:
		if p.atEnd() {
			return nil, p.fail("unexpected end of input; expected an expression")
		}
		return nil, p.fail("unexpected token %q", p.cur.Text)
	}
}

// parseListLiteral builds a template list whose elements are the parsed
// operand descriptors; CopyA deep-resolves them (and clones the list)
// on every execution, per spec.md §4.4's CopyA semantics.
func (p *Parser) parseListLiteral() (object.Value, error) {
	lineNum := p.cur.LineNum
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.skipEOLs(); err != nil {
		return nil, err
	}
	var items []object.Value
	if !p.is(token.RSquare) {
		for {
			if err := p.skipEOLs(); err != nil {
				return nil, err
			}
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			items = append(items, e)
			if err := p.skipEOLs(); err != nil {
				return nil, err
			}
			if p.is(token.Comma) {
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
	}
	if err := p.skipEOLs(); err != nil {
		return nil, err
	}
	if err := p.expect(token.RSquare, "']'"); err != nil {
		return nil, err
	}
	s := p.scope()
	dest := s.newTemp()
	s.emit(ir.CopyA, dest, object.NewList(items), nil, lineNum)
	return dest, nil
}

// parseMapLiteral is parseListLiteral's counterpart for "{key: val, ...}".
func (p *Parser) parseMapLiteral() (object.Value, error) {
	lineNum := p.cur.LineNum
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.skipEOLs(); err != nil {
		return nil, err
	}
	template := object.NewMap()
	if !p.is(token.RCurly) {
		for {
			if err := p.skipEOLs(); err != nil {
				return nil, err
			}
			key, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			// A bare identifier key names the entry: {greet: ...} is keyed "greet".
			if kv, ok := key.(object.Var); ok && !kv.NoInvoke {
				key = object.NewString(kv.Name)
			}
			if err := p.expect(token.Colon, "':'"); err != nil {
				return nil, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			template.RawSet(key, val)
			if err := p.skipEOLs(); err != nil {
				return nil, err
			}
			if p.is(token.Comma) {
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
	}
	if err := p.skipEOLs(); err != nil {
		return nil, err
	}
	if err := p.expect(token.RCurly, "'}'"); err != nil {
		return nil, err
	}
	s := p.scope()
	dest := s.newTemp()
	s.emit(ir.CopyA, dest, template, nil, lineNum)
	return dest, nil
}

// parseFunctionLiteral parses "function(params) ... end function" into a
// fresh object.Function and binds it to a Temp via BindAssignA, so every
// evaluation captures a fresh closure over the enclosing scope, per
// spec.md §4.2/§4.4.
func (p *Parser) parseFunctionLiteral() (object.Value, error) {
	lineNum := p.cur.LineNum
	if err := p.advance(); err != nil {
		return nil, err
	}
	var params []object.Param
	if p.is(token.LParen) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if !p.is(token.RParen) {
			for {
				if !p.is(token.Identifier) {
					return nil, p.fail("expected parameter name, got %q", p.cur.Text)
				}
				name := p.cur.Text
				if err := p.advance(); err != nil {
					return nil, err
				}
				var def object.Value
				if p.is(token.OpAssign) {
					if err := p.advance(); err != nil {
						return nil, err
					}
					d, err := p.parseExpr()
					if err != nil {
						return nil, err
					}
					def = d
				}
				params = append(params, object.Param{Name: name, Default: def})
				if p.is(token.Comma) {
					if err := p.advance(); err != nil {
						return nil, err
					}
					continue
				}
				break
			}
		}
		if err := p.expect(token.RParen, "')'"); err != nil {
			return nil, err
		}
	}
	if err := p.expect(token.EOL, "end of line"); err != nil {
		return nil, err
	}

	p.pushScope()
	if err := p.parseBlock("end"); err != nil {
		return nil, err
	}
	body := p.popScope()

	if err := p.expectKeyword("end"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("function"); err != nil {
		return nil, err
	}

	fn := &object.Function{Params: params, Code: body}
	s := p.scope()
	dest := s.newTemp()
	s.emit(ir.BindAssignA, dest, fn, nil, lineNum)
	return dest, nil
}
