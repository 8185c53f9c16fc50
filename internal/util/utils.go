// Package util holds small formatting helpers shared by the lexer,
// parser and vm packages that don't belong to any one of them.
package util

import (
	"bytes"
	"fmt"
	"strings"
)

// GetLineAndColumn converts a byte offset into src to a 1-based
// (line, column) pair, used to attach source locations to lex/parse
// errors before a Token's own LineNum is available.
func GetLineAndColumn(src string, pos int) (line int, column int) {
	line = 1
	column = 1
	for i, char := range src {
		if i == pos {
			break
		}
		if char == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return
}

// GetContextLines renders up to two lines of leading context plus the
// offending line with a caret under the error column, in the style
// compile errors have used throughout the corpus.
func GetContextLines(src string, errorLine, errorCol int) string {
	lines := strings.Split(src, "\n")

	startLine := errorLine - 2
	if startLine < 1 {
		startLine = 1
	}

	var result bytes.Buffer
	for i := startLine; i <= errorLine && i <= len(lines); i++ {
		lineContent := ""
		if i-1 < len(lines) {
			lineContent = lines[i-1]
		}
		if i == errorLine {
			margin := fmt.Sprintf("  >  %3d | ", i)
			result.WriteString(fmt.Sprintf("%s%s\n", margin, lineContent))
			col := errorCol - 1
			if col < 0 {
				col = 0
			}
			if col > len(lineContent) {
				col = len(lineContent)
			}
			result.WriteString(replaceVisibleWithSpaces(margin+lineContent[:col]) + "^ here")
		} else {
			result.WriteString(fmt.Sprintf("     %3d | %s\n", i, lineContent))
		}
	}
	return result.String()
}

// replaceVisibleWithSpaces replaces all non-whitespace characters with
// spaces while preserving tabs, so a caret line lines up under a
// tab-indented offender.
func replaceVisibleWithSpaces(s string) string {
	var buf bytes.Buffer
	for _, c := range s {
		if c == '\t' {
			buf.WriteRune('\t')
		} else {
			buf.WriteRune(' ')
		}
	}
	return buf.String()
}
