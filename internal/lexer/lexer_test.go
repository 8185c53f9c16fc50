package lexer

import (
	"testing"

	"mscript/internal/token"
)

func TestNextTokenBasics(t *testing.T) {
	input := `x = 6*7
print x`

	tests := []struct {
		expectedType token.Type
		expectedText string
	}{
		{token.Identifier, "x"},
		{token.OpAssign, "="},
		{token.Number, "6"},
		{token.OpTimes, "*"},
		{token.Number, "7"},
		{token.EOL, "\n"},
		{token.Identifier, "print"},
		{token.Identifier, "x"},
		{token.EOL, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok, err := l.Dequeue()
		if err != nil {
			t.Fatalf("test[%d] - unexpected error: %v", i, err)
		}
		if tok.Type != tt.expectedType {
			t.Fatalf("test[%d] - wrong type. expected=%q, got=%q", i, tt.expectedType, tok.Type)
		}
		if tok.Text != tt.expectedText {
			t.Fatalf("test[%d] - wrong text. expected=%q, got=%q", i, tt.expectedText, tok.Text)
		}
	}
}

func TestUnaryMinusAfterSpace(t *testing.T) {
	l := New("a -b")
	tok, _ := l.Dequeue() // a
	if tok.Text != "a" {
		t.Fatalf("expected identifier a, got %q", tok.Text)
	}
	minus, _ := l.Dequeue()
	if minus.Type != token.OpMinus || !minus.AfterSpace {
		t.Fatalf("expected minus token preceded by whitespace, got %+v", minus)
	}
	b, _ := l.Dequeue()
	if b.Text != "b" || b.AfterSpace {
		t.Fatalf("expected identifier b directly after minus, got %+v", b)
	}
}

func TestCompoundOperators(t *testing.T) {
	tests := map[string]token.Type{
		"==": token.OpEqual,
		"!=": token.OpNotEqual,
		">=": token.OpGreatEqual,
		"<=": token.OpLessEqual,
		">":  token.OpGreater,
		"<":  token.OpLesser,
	}
	for src, want := range tests {
		l := New(src)
		tok, err := l.Dequeue()
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", src, err)
		}
		if tok.Type != want {
			t.Errorf("%q: expected %q, got %q", src, want, tok.Type)
		}
	}
}

func TestStringWithEmbeddedQuote(t *testing.T) {
	l := New(`"say ""hi"""`)
	tok, err := l.Dequeue()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != token.String || tok.Text != `say "hi"` {
		t.Fatalf("expected string with embedded quote, got %+v", tok)
	}
}

func TestUnterminatedStringFails(t *testing.T) {
	l := New(`"never closed`)
	if _, err := l.Dequeue(); err == nil {
		t.Fatalf("expected an error for unterminated string")
	}
}

func TestKeywordVsIdentifier(t *testing.T) {
	l := New("if iffy")
	tok, _ := l.Dequeue()
	if tok.Type != token.Keyword || tok.Text != "if" {
		t.Fatalf("expected keyword if, got %+v", tok)
	}
	tok2, _ := l.Dequeue()
	if tok2.Type != token.Identifier || tok2.Text != "iffy" {
		t.Fatalf("expected identifier iffy, got %+v", tok2)
	}
}

func TestLastToken(t *testing.T) {
	last, ok := LastToken("a = 1 +")
	if !ok {
		t.Fatalf("expected a last token")
	}
	if last.Type != token.OpPlus {
		t.Fatalf("expected trailing +, got %+v", last)
	}
}

func TestTrimComment(t *testing.T) {
	got := TrimComment(`x = 1 // set x`)
	if got != "x = 1" {
		t.Fatalf("expected trimmed comment, got %q", got)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	l := New("abc")
	p1, _ := l.Peek()
	p2, _ := l.Peek()
	if p1 != p2 {
		t.Fatalf("expected repeated Peek to be stable, got %+v then %+v", p1, p2)
	}
	d, _ := l.Dequeue()
	if d != p1 {
		t.Fatalf("expected Dequeue to return the peeked token")
	}
}
