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
	"github.com/golang/glog"
	"naive.systems/nativecheck/token"
)

type typedefDef struct {
	name string
	// the replacement token sequence, e.g. "unsigned" "int"
	types []*token.Token
}

// simplifyTypedef resolves "typedef T N;" at file and namespace scope:
// every later use of N as a type becomes the token sequence of T.
// Shadowing declarations in inner scopes are honored. Function pointer
// and array typedefs are left alone.
func (t *Tokenizer) simplifyTypedef(list *token.List) {
	defs := t.collectTypedefs(list)
	if len(defs) == 0 {
		return
	}
	t.applyTypedefs(list, defs)
}

func (t *Tokenizer) collectTypedefs(list *token.List) map[string]*typedefDef {
	defs := map[string]*typedefDef{}
	depth := 0
	var braceIsNamespace []bool
	atTypedefScope := func() bool {
		for _, ns := range braceIsNamespace {
			if !ns {
				return false
			}
		}
		return true
	}
	tok := list.Front()
	for tok != nil {
		switch tok.Str {
		case "{":
			ns := token.Match(tok.Prev(), "%var%") > 0 &&
				tok.Prev().TokAt(-1) != nil && tok.Prev().TokAt(-1).Str == "namespace"
			braceIsNamespace = append(braceIsNamespace, ns)
			depth++
			tok = tok.Next()
			continue
		case "}":
			if depth > 0 {
				depth--
				braceIsNamespace = braceIsNamespace[:len(braceIsNamespace)-1]
			}
			tok = tok.Next()
			continue
		}
		if tok.Str != "typedef" || !atTypedefScope() {
			tok = tok.Next()
			continue
		}
		// find the terminating ";"
		var semi *token.Token
		for cur := tok.Next(); cur != nil; cur = cur.Next() {
			if cur.Str == ";" {
				semi = cur
				break
			}
			if cur.Str == "{" || cur.Str == "}" {
				break
			}
		}
		if semi == nil {
			glog.V(2).Info("simplifier: unterminated typedef")
			tok = tok.Next()
			continue
		}
		name := semi.Prev()
		if name == nil || name.Kind != token.Identifier {
			tok = semi.Next()
			continue
		}
		// reject function pointer / array forms
		simple := true
		var types []*token.Token
		for cur := tok.Next(); cur != name; cur = cur.Next() {
			if cur.Str == "(" || cur.Str == "[" || cur.Str == ")" {
				simple = false
				break
			}
			types = append(types, cur)
		}
		if !simple || len(types) == 0 {
			tok = semi.Next()
			continue
		}
		defs[name.Str] = &typedefDef{name: name.Str, types: types}
		// drop the typedef statement itself and continue after it
		tok = list.DeleteRange(tok, semi)
	}
	return defs
}

func (t *Tokenizer) applyTypedefs(list *token.List, defs map[string]*typedefDef) {
	type scope struct {
		shadowed map[string]bool
	}
	stack := []scope{{shadowed: map[string]bool{}}}
	shadowed := func(name string) bool {
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].shadowed[name] {
				return true
			}
		}
		return false
	}
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		switch tok.Str {
		case "{":
			stack = append(stack, scope{shadowed: map[string]bool{}})
			continue
		case "}":
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			continue
		}
		if tok.Kind != token.Identifier {
			continue
		}
		def, ok := defs[tok.Str]
		if !ok || shadowed(tok.Str) {
			continue
		}
		// a declaration of the same name shadows the typedef:
		// "int N ;" or "int N =" etc.
		prev := tok.Prev()
		if prev != nil && (prev.IsStandardType || prev.Kind == token.TypeName) &&
			token.Match(tok.Next(), ";|=|,|)") > 0 {
			stack[len(stack)-1].shadowed[tok.Str] = true
			continue
		}
		// not a type position after member access
		if prev != nil && (prev.Str == "." || prev.Str == "->" || prev.Str == "::") {
			continue
		}
		// substitute: replace tok with fresh copies of the sequence
		for _, src := range def.types {
			cp := copyToken(src)
			cp.FileIndex = tok.FileIndex
			cp.Line = tok.Line
			list.InsertBefore(tok, cp)
		}
		prevTok := tok.Prev()
		list.Delete(tok)
		if prevTok == nil {
			prevTok = list.Front()
		}
		tok = prevTok
	}
}
