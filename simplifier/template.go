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
	"strings"

	"github.com/golang/glog"
	"naive.systems/nativecheck/token"
)

// instantiation depth bound; beyond it the pass fails open and leaves
// the remaining uses untouched.
const maxInstantiationDepth = 100

type templateDecl struct {
	name   string
	params []string
	// declaration tokens from the keyword after "template<...>"
	// through the closing "}" or ";"
	first *token.Token
	last  *token.Token
}

// simplifyTemplates instantiates user template classes and functions:
// each instantiation point gets a mangled name like "A<int>" and a
// copy of the declaration body with the formal parameters substituted
// is appended to the list.
func (t *Tokenizer) simplifyTemplates(list *token.List) {
	decls := collectTemplateDecls(list)
	if len(decls) == 0 {
		return
	}
	done := map[string]bool{}
	for depth := 0; depth < maxInstantiationDepth; depth++ {
		if t.Settings.Terminated() {
			return
		}
		if !instantiateOnce(list, decls, done) {
			return
		}
	}
	glog.V(1).Info("simplifier: template instantiation depth exceeded")
}

func collectTemplateDecls(list *token.List) map[string]*templateDecl {
	decls := map[string]*templateDecl{}
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if tok.Str != "template" {
			continue
		}
		gt := skipAngles(list, tok.Next())
		if gt == nil {
			continue
		}
		decl := &templateDecl{}
		for cur := tok.Next().Next(); cur != nil && cur != gt; cur = cur.Next() {
			if token.Match(cur, "class|typename %var%") > 0 {
				decl.params = append(decl.params, cur.StrAt(1))
			}
		}
		if len(decl.params) == 0 {
			continue
		}
		start := gt.Next()
		if start == nil {
			continue
		}
		var nameTok *token.Token
		if token.Match(start, "class|struct %var%") > 0 {
			nameTok = start.Next()
		} else {
			// function template: name right before the "("
			for c := start; c != nil && c.Str != ";" && c.Str != "{"; c = c.Next() {
				if c.IsOp("(") && c.Prev() != nil && c.Prev().Kind == token.Identifier {
					nameTok = c.Prev()
					break
				}
			}
		}
		if nameTok == nil {
			continue
		}
		// the declaration runs to the "}" of the body (plus a
		// trailing ";" for classes) or a bare ";"
		var last *token.Token
		for c := start; c != nil; c = c.Next() {
			if c.Str == "{" && c.Link != nil {
				last = c.Link
				if last.Next() != nil && last.Next().Str == ";" {
					last = last.Next()
				}
				break
			}
			if c.Str == ";" {
				last = c
				break
			}
		}
		if last == nil {
			continue
		}
		decl.name = nameTok.Str
		decl.first = start
		decl.last = last
		decls[decl.name] = decl
	}
	return decls
}

// instantiateOnce rewrites one round of instantiation points. It
// returns false when nothing changed.
func instantiateOnce(list *token.List, decls map[string]*templateDecl, done map[string]bool) bool {
	changed := false
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if tok.Kind != token.Identifier {
			continue
		}
		decl, ok := decls[tok.Str]
		if !ok {
			continue
		}
		open := tok.Next()
		if open == nil || open.Str != "<" || open.Link == nil {
			continue
		}
		// skip the declaration itself
		if inRange(decl.first, decl.last, tok) || isDeclHead(tok) {
			continue
		}
		gt := open.Link
		args := splitTemplateArgs(open, gt)
		if len(args) != len(decl.params) {
			glog.V(2).Infof("simplifier: %s: %d template args, want %d",
				tok.Str, len(args), len(decl.params))
			continue
		}
		mangled := mangleName(tok.Str, args)
		if !done[mangled] {
			done[mangled] = true
			appendInstance(list, decl, args, mangled)
		}
		// replace "Name < args >" with the mangled identifier
		tok.Str = mangled
		list.DeleteRange(open, gt)
		changed = true
	}
	return changed
}

func inRange(first, last, tok *token.Token) bool {
	for c := first; c != nil; c = c.Next() {
		if c == tok {
			return true
		}
		if c == last {
			break
		}
	}
	return false
}

// isDeclHead reports whether tok sits right after the ">" of a
// "template<...>" head, i.e. is part of a declaration, not a use.
func isDeclHead(tok *token.Token) bool {
	prev := tok.Prev()
	for prev != nil && (prev.Str == "class" || prev.Str == "struct") {
		prev = prev.Prev()
	}
	return prev != nil && prev.Str == ">" && prev.Link != nil &&
		prev.Link.Prev() != nil && prev.Link.Prev().Str == "template"
}

// splitTemplateArgs returns the argument token strings between "<"
// and ">", split on top level commas.
func splitTemplateArgs(open, close *token.Token) [][]*token.Token {
	var args [][]*token.Token
	var cur []*token.Token
	depth := 0
	for tok := open.Next(); tok != nil && tok != close; tok = tok.Next() {
		switch tok.Str {
		case "<", "(", "[":
			depth++
		case ">", ")", "]":
			depth--
		case ",":
			if depth == 0 {
				args = append(args, cur)
				cur = nil
				continue
			}
		}
		cur = append(cur, tok)
	}
	if len(cur) > 0 {
		args = append(args, cur)
	}
	return args
}

func mangleName(name string, args [][]*token.Token) string {
	var parts []string
	for _, arg := range args {
		var words []string
		for _, tok := range arg {
			words = append(words, tok.Str)
		}
		parts = append(parts, strings.Join(words, " "))
	}
	return name + "<" + strings.Join(parts, ",") + ">"
}

// appendInstance copies the declaration to the end of the list with
// the template name mangled and the formal parameters replaced by the
// argument tokens. Bracket links inside the copy are rebuilt.
func appendInstance(list *token.List, decl *templateDecl, args [][]*token.Token, mangled string) {
	subst := map[string][]*token.Token{}
	for i, p := range decl.params {
		subst[p] = args[i]
	}
	var stack []*token.Token
	for src := decl.first; src != nil; src = src.Next() {
		if rep, ok := subst[src.Str]; ok && src.Kind == token.Identifier {
			for _, r := range rep {
				list.Append(copyToken(r))
			}
		} else {
			cp := copyToken(src)
			if cp.Str == decl.name && src.Kind == token.Identifier {
				cp.Str = mangled
			}
			cp.VarID = 0
			added := list.Append(cp)
			switch added.Str {
			case "(", "[", "{":
				stack = append(stack, added)
			case ")", "]", "}":
				if len(stack) > 0 {
					open := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					open.Link = added
					added.Link = open
				}
			}
		}
		if src == decl.last {
			break
		}
	}
}
