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
	"strconv"

	"naive.systems/nativecheck/mathlib"
	"naive.systems/nativecheck/token"
)

// operator groups folded from highest to lowest precedence, so a pass
// over "1 + 2 * 3" folds the product first.
var foldGroups = [][]string{
	{"*", "/", "%"},
	{"+", "-"},
	{"<<", ">>"},
	{"<", "<=", ">", ">="},
	{"==", "!="},
	{"&"},
	{"^"},
	{"|"},
}

// simplifyCalculations folds constant arithmetic, comparisons and
// shifts over numeric literals, removes parentheses around a literal,
// and resolves sizeof of built-in types through the platform table.
// It iterates to a fixpoint, so running it twice is a no-op.
func (t *Tokenizer) simplifyCalculations(list *token.List) {
	t.simplifySizeof(list)
	for {
		if t.Settings.Terminated() {
			return
		}
		changed := false
		for _, group := range foldGroups {
			if t.foldGroup(list, group) {
				changed = true
			}
		}
		if t.dropLiteralParens(list) {
			changed = true
		}
		if !changed {
			return
		}
	}
}

// simplifySizeof rewrites "sizeof ( type )" for built-in types using
// the platform widths. "sizeof ( type * )" is a pointer.
func (t *Tokenizer) simplifySizeof(list *token.List) {
	p := t.Settings.Platform
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if tok.Str != "sizeof" {
			continue
		}
		open := tok.Next()
		if open == nil || !open.IsOp("(") || open.Link == nil {
			continue
		}
		size := 0
		switch {
		case token.Match(open.Next(), "%type% )") > 0:
			size = mathlib.Sizeof(open.StrAt(1), p.SizeofInt(), p.SizeofLong(), p.SizeofPointer())
		case token.Match(open.Next(), "%type% %type% )") > 0:
			size = mathlib.Sizeof(open.StrAt(1)+" "+open.StrAt(2),
				p.SizeofInt(), p.SizeofLong(), p.SizeofPointer())
		case token.Match(open.Next(), "%type% * )") > 0:
			size = p.SizeofPointer()
		}
		if size == 0 {
			continue
		}
		tok.Str = strconv.Itoa(size)
		tok.Kind = token.Number
		tok.IsName = false
		list.Delete(open) // removes through the linked ")"
	}
}

func (t *Tokenizer) foldGroup(list *token.List, ops []string) bool {
	changed := false
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if tok.Kind != token.Number {
			continue
		}
		op := tok.Next()
		if op == nil || op.Kind != token.Operator || !contains(ops, op.Str) {
			continue
		}
		rhs := op.Next()
		if rhs == nil || rhs.Kind != token.Number {
			continue
		}
		if !foldableContext(tok, rhs, op.Str) {
			continue
		}
		result, ok := mathlib.Calculate(tok.Str, rhs.Str, op.Str)
		if !ok {
			continue
		}
		tok.Str = result
		list.Delete(op)
		list.Delete(rhs)
		changed = true
		// stay on tok: it may fold again with what follows
		tok = tok.Prev()
		if tok == nil {
			tok = list.Front()
		}
	}
	return changed
}

// foldableContext rejects folds that would change evaluation order:
// the left operand must not belong to an equal or tighter binding on its
// left (binary operators associate left to right), and the right operand
// must not bind tighter to its right.
func foldableContext(lhs, rhs *token.Token, op string) bool {
	if prev := lhs.Prev(); prev != nil {
		switch prev.Str {
		case "++", "--":
			return false
		}
		if prev.Kind == token.Operator && (tighter(prev.Str, op) || opPrecedence[prev.Str] == opPrecedence[op]) {
			return false
		}
		// "f ( 1" is an argument, still foldable; "a [ 1" is an
		// index, also foldable. Only operators matter here.
	}
	if next := rhs.Next(); next != nil && next.Kind == token.Operator && tighter(next.Str, op) {
		return false
	}
	return true
}

// tighter reports whether operator a binds more tightly than b.
func tighter(a, b string) bool {
	pa, oka := opPrecedence[a]
	pb, okb := opPrecedence[b]
	return oka && okb && pa > pb
}

var opPrecedence = map[string]int{
	"*": 10, "/": 10, "%": 10,
	"+": 9, "-": 9,
	"<<": 8, ">>": 8,
	"<": 7, "<=": 7, ">": 7, ">=": 7,
	"==": 6, "!=": 6,
	"&": 5, "^": 4, "|": 3,
}

// dropLiteralParens removes "( 123 )" when the parentheses are not a
// call argument list.
func (t *Tokenizer) dropLiteralParens(list *token.List) bool {
	changed := false
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if !tok.IsOp("(") || tok.Link == nil {
			continue
		}
		num := tok.Next()
		if num == nil || num.Kind != token.Number || num.Next() != tok.Link {
			continue
		}
		prev := tok.Prev()
		if prev != nil && (prev.IsName || prev.Str == ")" || prev.Str == "]") {
			// function call or cast-like context
			continue
		}
		close := tok.Link
		tok.Link = nil
		close.Link = nil
		list.Delete(close)
		list.Delete(tok)
		changed = true
		tok = num
	}
	return changed
}

func contains(set []string, s string) bool {
	for _, e := range set {
		if e == s {
			return true
		}
	}
	return false
}
