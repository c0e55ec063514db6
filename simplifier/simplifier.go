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

// Package simplifier rewrites a raw token list into the canonical form
// the checkers pattern-match against. The phases run in a fixed order
// and each is idempotent against its own output; a phase that fails
// logs a debug diagnostic and leaves a best-effort result.
package simplifier

import (
	"fmt"

	"github.com/golang/glog"
	"naive.systems/nativecheck/errorlogger"
	"naive.systems/nativecheck/lexer"
	"naive.systems/nativecheck/settings"
	"naive.systems/nativecheck/token"
)

// Tokenizer turns expanded source text into a simplified token list.
type Tokenizer struct {
	Settings *settings.Settings
	Logger   errorlogger.ErrorLogger
}

// New builds a tokenizer for one configuration pass.
func New(set *settings.Settings, logger errorlogger.ErrorLogger) *Tokenizer {
	return &Tokenizer{Settings: set, Logger: logger}
}

// Tokenize lexes code, links brackets and runs all simplification
// phases. The returned list is frozen. A nil list with an error means
// the configuration had a fatal syntax problem.
func (t *Tokenizer) Tokenize(code, path string) (*token.List, error) {
	list := lexer.Tokenize(code, path)
	if err := t.createLinks(list, path); err != nil {
		return nil, err
	}
	t.Simplify(list)
	list.Freeze()
	return list, nil
}

// Simplify runs the rewrite phases on an already linked list.
func (t *Tokenizer) Simplify(list *token.List) {
	t.runPhase("angleBrackets", list, t.linkAngleBrackets)
	t.runPhase("typedef", list, t.simplifyTypedef)
	t.runPhase("templates", list, t.simplifyTemplates)
	t.runPhase("sugar", list, t.simplifySugar)
	t.runPhase("calculations", list, t.simplifyCalculations)
	t.runPhase("varid", list, t.setVarIDs)
}

// runPhase isolates one phase: a panic inside is converted to a debug
// diagnostic instead of escaping the simplifier boundary.
func (t *Tokenizer) runPhase(name string, list *token.List, fn func(*token.List)) {
	if t.Settings.Terminated() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			glog.Errorf("simplifier: phase %s failed: %v", name, r)
			if t.Settings.Debug {
				t.Logger.ReportErr(errorlogger.NewErrorMessage(
					errorlogger.Debug, "simplifier",
					fmt.Sprintf("simplification phase %s failed", name),
					list.FileAt(0), 0))
			}
		}
	}()
	fn(list)
}

// createLinks pairs (), [] and {}. Unbalanced brackets are a
// per-configuration fatal error.
func (t *Tokenizer) createLinks(list *token.List, path string) error {
	var stack []*token.Token
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		switch tok.Str {
		case "(", "[", "{":
			stack = append(stack, tok)
		case ")", "]", "}":
			if len(stack) == 0 {
				return t.linkError(list, tok, path)
			}
			open := stack[len(stack)-1]
			if open.Str != matchingOpen(tok.Str) {
				return t.linkError(list, tok, path)
			}
			stack = stack[:len(stack)-1]
			open.Link = tok
			tok.Link = open
		}
	}
	if len(stack) > 0 {
		return t.linkError(list, stack[len(stack)-1], path)
	}
	return nil
}

func matchingOpen(close string) string {
	switch close {
	case ")":
		return "("
	case "]":
		return "["
	case "}":
		return "{"
	}
	return ""
}

func (t *Tokenizer) linkError(list *token.List, tok *token.Token, path string) error {
	file := path
	line := 0
	if tok != nil {
		file = list.FileAt(tok.FileIndex)
		line = tok.Line
	}
	t.Logger.ReportErr(errorlogger.NewErrorMessage(
		errorlogger.Error, "syntaxError",
		"Invalid number of character ("+tok.Str+"). Can't process file.",
		file, line))
	return fmt.Errorf("simplifier: unbalanced %q in %s", tok.Str, file)
}

// stl names whose "<" always opens a template argument list.
var knownTemplates = map[string]bool{
	"vector": true, "list": true, "deque": true, "queue": true,
	"stack": true, "map": true, "multimap": true, "set": true,
	"multiset": true, "pair": true, "basic_string": true,
	"auto_ptr": true, "shared_ptr": true, "unique_ptr": true,
	"iterator": true,
}

// linkAngleBrackets pairs template "<" and ">". The heuristic of the
// reference: the "<" follows a known template name or the template
// keyword. ">>" closing two lists is split into "> >" here so linking
// stays possible.
func (t *Tokenizer) linkAngleBrackets(list *token.List) {
	names := map[string]bool{}
	for k := range knownTemplates {
		names[k] = true
	}
	// collect user template names
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if tok.Str != "template" {
			continue
		}
		gt := skipAngles(list, tok.Next())
		if gt == nil {
			continue
		}
		cur := gt.Next()
		if token.Match(cur, "class|struct %var%") > 0 {
			names[cur.StrAt(1)] = true
		} else {
			// function template: the name is right before "("
			for c := cur; c != nil && c.Str != ";" && c.Str != "{"; c = c.Next() {
				if c.IsOp("(") && c.Prev() != nil && c.Prev().Kind == token.Identifier {
					names[c.Prev().Str] = true
					break
				}
			}
		}
	}
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		open := tok.Next()
		if open == nil || open.Str != "<" || open.Link != nil {
			continue
		}
		if !(tok.Str == "template" || (tok.IsName && names[tok.Str])) {
			continue
		}
		linkAngleRange(list, open)
	}
}

// skipAngles returns the ">" closing the "<" at tok, linking the pair,
// or nil.
func skipAngles(list *token.List, open *token.Token) *token.Token {
	if open == nil || open.Str != "<" {
		return nil
	}
	if open.Link != nil {
		return open.Link
	}
	return linkAngleRange(list, open)
}

func linkAngleRange(list *token.List, open *token.Token) *token.Token {
	depth := 0
	for tok := open; tok != nil; tok = tok.Next() {
		switch tok.Str {
		case "<":
			depth++
		case ">>":
			if depth >= 2 {
				tok.Str = ">"
				nt := &token.Token{Str: ">", Kind: token.Operator,
					FileIndex: tok.FileIndex, Line: tok.Line}
				list.InsertAfter(tok, nt)
				depth--
				if depth == 1 {
					open.Link = nt
					nt.Link = open
					return nt
				}
			}
		case ">":
			depth--
			if depth == 0 {
				open.Link = tok
				tok.Link = open
				return tok
			}
		case ";", "{", "}":
			// not template syntax after all
			return nil
		case "(", "[":
			if tok.Link != nil {
				tok = tok.Link
			}
		}
	}
	return nil
}

// copyToken clones a token without its list neighbors. The Link is
// dropped; callers relink copies themselves.
func copyToken(src *token.Token) *token.Token {
	cp := *src
	cp.Link = nil
	return &cp
}
