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

package token

import (
	"strings"
	"sync"

	"github.com/golang/glog"
)

// The pattern mini-language, one space separated element per token:
//
//	foo      the exact lexeme "foo"
//	%any%    any single token
//	%var%    an identifier (a name that is not a keyword)
//	%num%    a numeric literal
//	%str%    a string literal
//	%type%   a built-in or standard type name
//	%op%     any operator token
//	%or%     the "|" operator (bare | separates alternatives)
//	%oror%   the "||" operator
//	!!foo    any token except "foo" (also matches end of list)
//	a|b      either lexeme, any number of alternatives
//	[ab|cd]  same, bracketed form
//
// Patterns are compiled once and cached, so matching costs O(pattern
// length) per call with no backtracking beyond one alternative.

type stepKind int

const (
	stepLiteral stepKind = iota
	stepAny
	stepVar
	stepNum
	stepStr
	stepType
	stepOp
	stepNot
	stepAlt
)

type matchStep struct {
	kind stepKind
	str  string
	alts []string
}

type compiledPattern struct {
	steps []matchStep
}

var (
	patternMu    sync.Mutex
	patternCache = map[string]*compiledPattern{}
)

func compilePattern(pattern string) *compiledPattern {
	patternMu.Lock()
	defer patternMu.Unlock()
	if cp, ok := patternCache[pattern]; ok {
		return cp
	}
	cp := &compiledPattern{}
	for _, elem := range strings.Fields(pattern) {
		var step matchStep
		switch {
		case elem == "%any%":
			step = matchStep{kind: stepAny}
		case elem == "%var%":
			step = matchStep{kind: stepVar}
		case elem == "%num%":
			step = matchStep{kind: stepNum}
		case elem == "%str%":
			step = matchStep{kind: stepStr}
		case elem == "%type%":
			step = matchStep{kind: stepType}
		case elem == "%op%":
			step = matchStep{kind: stepOp}
		case elem == "%or%":
			step = matchStep{kind: stepLiteral, str: "|"}
		case elem == "%oror%":
			step = matchStep{kind: stepLiteral, str: "||"}
		case strings.HasPrefix(elem, "!!"):
			step = matchStep{kind: stepNot, str: elem[2:]}
		case strings.HasPrefix(elem, "[") && strings.HasSuffix(elem, "]") && strings.Contains(elem, "|"):
			step = matchStep{kind: stepAlt, alts: strings.Split(elem[1:len(elem)-1], "|")}
		case strings.Contains(elem, "|"):
			step = matchStep{kind: stepAlt, alts: strings.Split(elem, "|")}
		default:
			step = matchStep{kind: stepLiteral, str: elem}
		}
		cp.steps = append(cp.steps, step)
	}
	if len(cp.steps) == 0 {
		glog.V(2).Infof("token.compilePattern: empty pattern %q", pattern)
	}
	patternCache[pattern] = cp
	return cp
}

func (s *matchStep) matches(tok *Token) bool {
	if tok == nil {
		// Only !! accepts a missing token.
		return s.kind == stepNot
	}
	switch s.kind {
	case stepLiteral:
		return tok.Str == s.str
	case stepAny:
		return true
	case stepVar:
		return tok.Kind == Identifier && tok.IsName
	case stepNum:
		return tok.Kind == Number
	case stepStr:
		return tok.Kind == String
	case stepType:
		return tok.Kind == TypeName || tok.IsStandardType
	case stepOp:
		return tok.Kind == Operator
	case stepNot:
		return tok.Str != s.str
	case stepAlt:
		for _, a := range s.alts {
			if tok.Str == a {
				return true
			}
		}
		return false
	}
	return false
}

// Match matches the pattern against the tokens starting at tok and
// returns the number of tokens matched, or 0 when the pattern does not
// match.
func Match(tok *Token, pattern string) int {
	cp := compilePattern(pattern)
	if len(cp.steps) == 0 {
		return 0
	}
	count := 0
	cur := tok
	for i := range cp.steps {
		step := &cp.steps[i]
		if !step.matches(cur) {
			return 0
		}
		if cur == nil {
			// A trailing !! matched the end of the list.
			break
		}
		count++
		cur = cur.next
	}
	return count
}

// Matches reports whether the pattern matches at tok.
func Matches(tok *Token, pattern string) bool {
	return Match(tok, pattern) > 0
}

// FindPattern scans forward from tok for the first position where the
// pattern matches, returning that token or nil.
func FindPattern(tok *Token, pattern string) *Token {
	for cur := tok; cur != nil; cur = cur.next {
		if Match(cur, pattern) > 0 {
			return cur
		}
	}
	return nil
}

// FindPatternBefore scans forward from tok but stops at end
// (exclusive).
func FindPatternBefore(tok, end *Token, pattern string) *Token {
	for cur := tok; cur != nil && cur != end; cur = cur.next {
		if Match(cur, pattern) > 0 {
			return cur
		}
	}
	return nil
}
