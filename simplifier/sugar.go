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

package simplifier

import (
	"naive.systems/nativecheck/token"
)

// simplifySugar removes syntactic sugar: combined declarations are
// split, "else if" becomes a nested block, redundant parentheses and
// doubled braces go away. ">>" in template argument lists was already
// split by the linking phase, so a second run finds nothing to do.
func (t *Tokenizer) simplifySugar(list *token.List) {
	t.splitCombinedDeclarations(list)
	t.simplifyElseIf(list)
	t.removeRedundantParentheses(list)
	t.removeDoubledBraces(list)
}

// splitCombinedDeclarations rewrites "int a, b;" into "int a; int b;"
// including initializer forms. Declarations inside for headers keep
// their shape.
func (t *Tokenizer) splitCombinedDeclarations(list *token.List) {
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if tok.IsOp("(") && tok.Link != nil {
			// skip for(...) headers and argument lists
			tok = tok.Link
			continue
		}
		if !(tok.IsStandardType || tok.Kind == token.TypeName) {
			continue
		}
		if !atStatementStart(tok) {
			continue
		}
		// type tokens: "unsigned long", pointers, const
		typeFirst := tok
		cur := tok
		for token.Match(cur.Next(), "%type%") > 0 {
			cur = cur.Next()
		}
		typeLast := cur
		cur = cur.Next()
		for cur != nil && (cur.Str == "*" || cur.Str == "&" || cur.Str == "const") {
			cur = cur.Next()
		}
		if token.Match(cur, "%var%") == 0 {
			continue
		}
		// scan the declarator list for a top level comma
		depth := 0
		for c := cur.Next(); c != nil; c = c.Next() {
			if c.Str == "(" || c.Str == "[" {
				if c.Link == nil {
					break
				}
				c = c.Link
				continue
			}
			if c.Str == ";" || c.Str == "{" || c.Str == "}" || c.Str == ")" {
				break
			}
			if c.Str == "," && depth == 0 {
				// replace "," with "; <type tokens>"
				c.Str = ";"
				c.Kind = token.Operator
				insertAfter := c
				for tt := typeFirst; tt != nil; tt = tt.Next() {
					cp := copyToken(tt)
					cp.Line = c.Line
					cp.FileIndex = c.FileIndex
					insertAfter = list.InsertAfter(insertAfter, cp)
					if tt == typeLast {
						break
					}
				}
				break
			}
		}
	}
}

func atStatementStart(tok *token.Token) bool {
	prev := tok.Prev()
	if prev == nil {
		return true
	}
	switch prev.Str {
	case ";", "{", "}":
		return true
	case "static", "const":
		return atStatementStart(prev)
	}
	return false
}

// simplifyElseIf rewrites "else if ..." as "else { if ... }" so the
// checkers only ever see one nesting shape.
func (t *Tokenizer) simplifyElseIf(list *token.List) {
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if !(tok.Str == "else" && tok.Next() != nil && tok.Next().Str == "if") {
			continue
		}
		end := statementEnd(tok.Next())
		if end == nil {
			continue
		}
		open := &token.Token{Str: "{", Kind: token.Operator,
			FileIndex: tok.FileIndex, Line: tok.Line}
		close := &token.Token{Str: "}", Kind: token.Operator,
			FileIndex: end.FileIndex, Line: end.Line}
		open.Link = close
		close.Link = open
		list.InsertAfter(tok, open)
		list.InsertAfter(end, close)
	}
}

// statementEnd returns the last token of the statement starting at
// tok: the "}" of a compound body or the ";" of a simple one,
// following any else chains of an if.
func statementEnd(tok *token.Token) *token.Token {
	if tok == nil {
		return nil
	}
	if tok.Str == "if" || tok.Str == "while" || tok.Str == "for" || tok.Str == "switch" {
		cond := tok.Next()
		if cond == nil || cond.Str != "(" || cond.Link == nil {
			return nil
		}
		end := statementEnd(cond.Link.Next())
		if end == nil {
			return nil
		}
		if tok.Str == "if" && end.Next() != nil && end.Next().Str == "else" {
			return statementEnd(end.Next().Next())
		}
		return end
	}
	if tok.Str == "{" {
		return tok.Link
	}
	if tok.Str == "do" {
		// do ... while ( ... ) ;
		body := statementEnd(tok.Next())
		if body == nil {
			return nil
		}
		for c := body.Next(); c != nil; c = c.Next() {
			if c.Str == ";" {
				return c
			}
		}
		return nil
	}
	for c := tok; c != nil; c = c.Next() {
		if c.Str == "(" || c.Str == "[" {
			if c.Link == nil {
				return nil
			}
			c = c.Link
			continue
		}
		if c.Str == ";" {
			return c
		}
		if c.Str == "}" {
			return nil
		}
	}
	return nil
}

// removeRedundantParentheses drops "((...))" pairs and parentheses
// around a lone operand in return statements.
func (t *Tokenizer) removeRedundantParentheses(list *token.List) {
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if !tok.IsOp("(") || tok.Link == nil {
			continue
		}
		inner := tok.Next()
		if inner != nil && inner.IsOp("(") && inner.Link != nil &&
			inner.Link.Next() == tok.Link {
			// "( ( x ) )" -> "( x )"
			list.Delete(inner.Link)
			inner.Link = nil
			list.Delete(inner)
			tok = tok.Prev()
			if tok == nil {
				tok = list.Front()
			}
			continue
		}
		prev := tok.Prev()
		if prev != nil && prev.Str == "return" &&
			token.Match(tok.Next(), "%var%|%num%|%str% )") > 0 &&
			tok.Next().Next() == tok.Link {
			close := tok.Link
			tok2 := tok.Next()
			tok.Link = nil
			close.Link = nil
			list.Delete(close)
			list.Delete(tok)
			tok = tok2
		}
	}
}

// removeDoubledBraces drops "{ { ... } }" down to one pair.
func (t *Tokenizer) removeDoubledBraces(list *token.List) {
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if !tok.IsOp("{") || tok.Link == nil {
			continue
		}
		inner := tok.Next()
		if inner != nil && inner.IsOp("{") && inner.Link != nil &&
			inner.Link.Next() == tok.Link {
			// the outer pair holds nothing but the inner block, so
			// one pair is kept; the kind of the outer brace is not checked
			close := inner.Link
			inner.Link = nil
			close.Link = nil
			list.Delete(close)
			list.Delete(inner)
			tok = tok.Prev()
			if tok == nil {
				tok = list.Front()
			}
		}
	}
}
