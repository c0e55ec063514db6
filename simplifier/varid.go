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

// setVarIDs walks the scopes and assigns a dense id to every declared
// variable, then stamps that id on every use. Shadowing declarations
// get fresh ids. The pass is idempotent: re-running it reassigns the
// same ids in the same order.
func (t *Tokenizer) setVarIDs(list *token.List) {
	userTypes := collectUserTypes(list)
	nextID := 0
	type scope struct{ vars map[string]int }
	stack := []scope{{vars: map[string]int{}}}
	lookup := func(name string) int {
		for i := len(stack) - 1; i >= 0; i-- {
			if id, ok := stack[i].vars[name]; ok {
				return id
			}
		}
		return 0
	}
	declare := func(tok *token.Token) {
		nextID++
		stack[len(stack)-1].vars[tok.Str] = nextID
		tok.VarID = nextID
	}

	for tok := list.Front(); tok != nil; tok = tok.Next() {
		switch tok.Str {
		case "{":
			stack = append(stack, scope{vars: map[string]int{}})
			continue
		case "}":
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			continue
		}
		// function parameters: "name ( ... ) {" declares into the
		// body scope, so handle them when the "(" is seen
		if tok.IsOp("(") && tok.Link != nil &&
			tok.Link.Next() != nil && tok.Link.Next().Str == "{" &&
			tok.Prev() != nil && tok.Prev().Kind == token.Identifier {
			// open the body scope early and declare each parameter
			stack = append(stack, scope{vars: map[string]int{}})
			for cur := tok.Next(); cur != nil && cur != tok.Link; cur = cur.Next() {
				if cur.Kind != token.Identifier {
					continue
				}
				if next := cur.Next(); next != nil && (next.Str == "," || next.Str == ")" || next.Str == "[") {
					if prev := cur.Prev(); prev != nil &&
						(prev.IsStandardType || prev.Kind == token.TypeName ||
							prev.Str == "*" || prev.Str == "&" || userTypes[prev.Str]) {
						declare(cur)
					}
				}
			}
			// skip to the "{" and keep the already-open scope
			tok = tok.Link.Next()
			continue
		}
		if tok.Kind != token.Identifier {
			continue
		}
		if prev := tok.Prev(); prev != nil &&
			(prev.Str == "." || prev.Str == "->" || prev.Str == "::") {
			continue
		}
		if isDeclarationName(tok, userTypes) {
			declare(tok)
			continue
		}
		if id := lookup(tok.Str); id != 0 {
			tok.VarID = id
		}
	}
}

// libc handle types that declare variables without being defined in
// the translation unit.
var wellKnownTypes = []string{"FILE", "DIR", "va_list", "time_t", "off_t"}

// collectUserTypes gathers struct/class/union/enum names so "X * p;"
// is recognized as a declaration.
func collectUserTypes(list *token.List) map[string]bool {
	types := map[string]bool{}
	for _, name := range wellKnownTypes {
		types[name] = true
	}
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if token.Match(tok, "class|struct|union|enum %var%") > 0 {
			types[tok.StrAt(1)] = true
		}
	}
	return types
}

// isDeclarationName reports whether tok is the name being declared in
// a variable declaration like "int x", "char * p", "struct S s",
// "int a [ 10 ]".
func isDeclarationName(tok *token.Token, userTypes map[string]bool) bool {
	next := tok.Next()
	if next == nil {
		return false
	}
	switch next.Str {
	case ";", "=", ",", "[", ")":
	default:
		return false
	}
	// walk left over * & const
	prev := tok.Prev()
	for prev != nil && (prev.Str == "*" || prev.Str == "&" || prev.Str == "const") {
		prev = prev.Prev()
	}
	if prev == nil {
		return false
	}
	// "vector < int > v" declares v
	if prev.Str == ">" && prev.Link != nil {
		base := prev.Link.Prev()
		return base != nil && base.IsName
	}
	// "vector < int > :: iterator it" declares it
	if prev.Kind == token.Identifier && prev.StrAt(-1) == "::" {
		return true
	}
	if !(prev.IsStandardType || prev.Kind == token.TypeName ||
		(prev.Kind == token.Identifier && userTypes[prev.Str])) {
		return false
	}
	// "int x" where the type starts a statement, a parameter list or
	// another declaration
	first := prev
	for token.Match(first.Prev(), "%type%") > 0 || first.StrAt(-1) == "struct" ||
		first.StrAt(-1) == "const" || first.StrAt(-1) == "static" {
		first = first.Prev()
	}
	switch first.StrAt(-1) {
	case "", ";", "{", "}", "(", ",":
		return true
	}
	return false
}
