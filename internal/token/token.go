// Package token defines the lexical tokens produced by the lexer and
// consumed directly by the parser while it emits three-address code.
package token

type Type string

const (
	Unknown    Type = "UNKNOWN"
	Keyword    Type = "KEYWORD"
	Number     Type = "NUMBER"
	String     Type = "STRING"
	Identifier Type = "IDENTIFIER"

	OpAssign    Type = "="
	OpPlus      Type = "+"
	OpMinus     Type = "-"
	OpTimes     Type = "*"
	OpDivide    Type = "/"
	OpMod       Type = "%"
	OpPower     Type = "^"
	OpEqual     Type = "=="
	OpNotEqual  Type = "!="
	OpGreater   Type = ">"
	OpGreatEqual Type = ">="
	OpLesser    Type = "<"
	OpLessEqual Type = "<="

	LParen  Type = "("
	RParen  Type = ")"
	LSquare Type = "["
	RSquare Type = "]"
	LCurly  Type = "{"
	RCurly  Type = "}"

	AddressOf Type = "@"
	Comma     Type = ","
	Dot       Type = "."
	Colon     Type = ":"
	Comment   Type = "COMMENT"
	EOL       Type = "EOL"
)

// Keywords is the reserved-word set of the language. A keyword's Text is
// checked against this set by the lexer. Compound keywords are not joined:
// "end if" reaches the parser as two Keyword tokens, which it matches
// word by word.
var Keywords = map[string]bool{
	"break": true, "continue": true, "else": true, "end": true,
	"for": true, "function": true, "if": true, "in": true,
	"isa": true, "new": true, "null": true, "then": true,
	"repeat": true, "return": true, "while": true,
	"and": true, "or": true, "not": true, "true": true, "false": true,
}

// CompoundKeywords lists the two-word keyword pairs: "end function",
// "else if", "end if", "end while", "end for". Neither the lexer nor the
// parser consults it.
var CompoundKeywords = map[string]bool{
	"end function": true,
	"else if":      true,
	"end if":       true,
	"end while":    true,
	"end for":      true,
}

// Token is one lexical unit. AfterSpace records whether whitespace
// immediately preceded it. The parser does not read it: "a -b" and
// "a - b" both parse as subtraction.
type Token struct {
	Type       Type
	Text       string
	LineNum    int
	AfterSpace bool
}

func (t Token) Is(typ Type) bool { return t.Type == typ }

// IsKeyword reports whether the token is a Keyword token whose text
// matches the given reserved word.
func (t Token) IsKeyword(word string) bool {
	return t.Type == Keyword && t.Text == word
}

var EOLToken = Token{Type: EOL, Text: "\n"}
