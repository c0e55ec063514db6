/*
NaiveSystems Analyze - A tool for static code analysis
Copyright (C) 2023  Naive Systems Ltd.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package lexer turns preprocessed source text into a token list.
//
// The input is expected to be comment free. "#file" and "#endfile"
// marker lines emitted by the preprocessor switch the current file
// index and line counter so that tokens keep the provenance of the
// header they were included from.
package lexer

import (
	"strings"

	"github.com/golang/glog"
	"naive.systems/nativecheck/token"
)

// multi-character operators, longest first per leading byte.
var operators3 = []string{"<<=", ">>=", "...", "->*"}
var operators2 = []string{
	"<<", ">>", "<=", ">=", "==", "!=", "&&", "||", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "->", "::", "##",
}

// Lexer carries the running position state of one tokenize pass.
type Lexer struct {
	list      *token.List
	fileIndex int
	line      int

	// file/line to return to at #endfile
	fileStack []int
	lineStack []int
}

// Tokenize lexes code into a fresh token list. path names the
// outermost file for the file table.
func Tokenize(code, path string) *token.List {
	lx := &Lexer{list: token.NewList(), line: 1}
	lx.fileIndex = lx.list.AppendFile(path)
	for _, rawLine := range strings.Split(code, "\n") {
		lx.tokenizeLine(rawLine)
		lx.line++
	}
	return lx.list
}

func (lx *Lexer) tokenizeLine(line string) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "#") {
		lx.directive(trimmed)
		return
	}
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '"':
			i = lx.lexString(line, i)
		case c == '\'':
			i = lx.lexChar(line, i)
		case isDigit(c) || (c == '.' && i+1 < len(line) && isDigit(line[i+1])):
			i = lx.lexNumber(line, i)
		case isNameChar(c):
			i = lx.lexName(line, i)
		default:
			i = lx.lexOperator(line, i)
		}
	}
}

// directive handles the residual preprocessor lines in expanded
// output. Only the #file/#endfile markers carry meaning here; anything
// else (e.g. #pragma) is dropped.
func (lx *Lexer) directive(line string) {
	switch {
	case strings.HasPrefix(line, "#file"):
		name := line[len("#file"):]
		name = strings.TrimSpace(name)
		name = strings.Trim(name, "\"")
		lx.fileStack = append(lx.fileStack, lx.fileIndex)
		lx.lineStack = append(lx.lineStack, lx.line)
		lx.fileIndex = lx.list.AppendFile(name)
		// The next line of the included file is its first line. The
		// outer loop increments before use, hence 0.
		lx.line = 0
	case strings.HasPrefix(line, "#endfile"):
		if n := len(lx.fileStack); n > 0 {
			lx.fileIndex = lx.fileStack[n-1]
			lx.line = lx.lineStack[n-1]
			lx.fileStack = lx.fileStack[:n-1]
			lx.lineStack = lx.lineStack[:n-1]
		} else {
			glog.V(1).Info("lexer: unbalanced #endfile")
		}
	default:
		glog.V(3).Infof("lexer: dropping directive %q", line)
	}
}

func (lx *Lexer) add(str string, kind token.Kind) *token.Token {
	tok := &token.Token{
		Str:       str,
		Kind:      kind,
		FileIndex: lx.fileIndex,
		Line:      lx.line,
	}
	switch kind {
	case token.Identifier, token.Keyword, token.TypeName:
		tok.IsName = true
	}
	if kind == token.TypeName {
		tok.IsStandardType = true
	}
	return lx.list.Append(tok)
}

func (lx *Lexer) lexString(line string, i int) int {
	j := i + 1
	for j < len(line) {
		if line[j] == '\\' && j+1 < len(line) {
			j += 2
			continue
		}
		if line[j] == '"' {
			j++
			break
		}
		j++
	}
	lx.add(line[i:j], token.String)
	return j
}

func (lx *Lexer) lexChar(line string, i int) int {
	j := i + 1
	for j < len(line) {
		if line[j] == '\\' && j+1 < len(line) {
			j += 2
			continue
		}
		if line[j] == '\'' {
			j++
			break
		}
		j++
	}
	lx.add(line[i:j], token.Char)
	return j
}

func (lx *Lexer) lexNumber(line string, i int) int {
	j := i
	hex := false
	if line[j] == '0' && j+1 < len(line) && (line[j+1] == 'x' || line[j+1] == 'X') {
		hex = true
		j += 2
	}
	for j < len(line) {
		c := line[j]
		switch {
		case isDigit(c) || c == '.':
			j++
		case hex && isHexDigit(c):
			j++
		case c == 'e' || c == 'E':
			if !hex && j+1 < len(line) && (line[j+1] == '+' || line[j+1] == '-' || isDigit(line[j+1])) {
				j += 2
			} else {
				j++
			}
		case c == 'u' || c == 'U' || c == 'l' || c == 'L' || c == 'f' || c == 'F':
			j++
		case c == 'b' || c == 'B':
			// 0b1010
			j++
		default:
			goto done
		}
	}
done:
	tok := lx.add(line[i:j], token.Number)
	lower := strings.ToLower(line[i:j])
	tok.IsUnsigned = strings.Contains(lower[1:]+" ", "u")
	tok.IsLong = strings.HasSuffix(lower, "l") || strings.HasSuffix(lower, "ll") ||
		strings.HasSuffix(lower, "lu") || strings.HasSuffix(lower, "ul")
	return j
}

func (lx *Lexer) lexName(line string, i int) int {
	j := i
	for j < len(line) && isNameChar(line[j]) {
		j++
	}
	word := line[i:j]
	switch {
	case token.IsStandardTypeName(word):
		lx.add(word, token.TypeName)
	case token.IsKeyword(word):
		lx.add(word, token.Keyword)
	default:
		lx.add(word, token.Identifier)
	}
	return j
}

func (lx *Lexer) lexOperator(line string, i int) int {
	rest := line[i:]
	for _, op := range operators3 {
		if strings.HasPrefix(rest, op) {
			lx.add(op, token.Operator)
			return i + 3
		}
	}
	for _, op := range operators2 {
		if strings.HasPrefix(rest, op) {
			lx.add(op, token.Operator)
			return i + 2
		}
	}
	lx.add(rest[:1], token.Operator)
	return i + 1
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isNameChar(c byte) bool {
	return c == '_' || isDigit(c) ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
