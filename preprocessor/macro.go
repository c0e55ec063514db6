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

package preprocessor

import (
	"strings"

	"github.com/golang/glog"
)

// macro is one parsed #define.
type macro struct {
	name   string
	isFunc bool
	params []string
	body   string
}

// parseMacro splits the stored "value" form: either a plain body or
// "(a, b) body" for function-like macros.
func parseMacro(name, value string) macro {
	m := macro{name: name}
	if !strings.HasPrefix(value, "(") {
		m.body = value
		return m
	}
	end := strings.IndexByte(value, ')')
	if end < 0 {
		m.body = value
		return m
	}
	m.isFunc = true
	for _, param := range strings.Split(value[1:end], ",") {
		param = strings.TrimSpace(param)
		if param != "" {
			m.params = append(m.params, param)
		}
	}
	m.body = strings.TrimSpace(value[end+1:])
	return m
}

// expandMacros processes the #define/#undef lines that survived the
// conditional slice and expands macro uses in every non-directive line.
// Line counts are preserved; #define and #undef lines become empty, other
// directives pass through unchanged.
func (p *Preprocessor) expandMacros(code, path string) string {
	defs := map[string]string{}
	lines := strings.Split(code, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if p.Settings.Terminated() {
			break
		}
		switch directiveName(line) {
		case "define":
			name, value := parseDefine(directiveRest(line))
			if name != "" {
				defs[name] = value
			}
			out = append(out, "")
		case "undef":
			delete(defs, strings.TrimSpace(directiveRest(line)))
			out = append(out, "")
		case "file", "endfile":
			out = append(out, line)
		case "":
			if strings.TrimSpace(line) == "" || len(defs) == 0 {
				out = append(out, line)
			} else {
				out = append(out, expandText(line, defs, nil))
			}
		default:
			// residual #pragma and friends; nothing to expand
			out = append(out, line)
		}
	}
	for len(out) < len(lines) {
		out = append(out, "")
	}
	return strings.Join(out, "\n")
}

// expandText rewrites one line, expanding every macro use. hide names
// the macros currently being expanded; their uses stay plain
// identifiers, which stops self-recursion.
func expandText(text string, defs map[string]string, hide map[string]bool) string {
	var sb strings.Builder
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '"' || c == '\'':
			j := skipLiteral(text, i)
			sb.WriteString(text[i:j])
			i = j
		case isSymbolStart(c):
			j := i
			for j < len(text) && isSymbolChar(text[j]) {
				j++
			}
			word := text[i:j]
			value, isMacro := defs[word]
			if !isMacro || hide[word] {
				sb.WriteString(word)
				i = j
				continue
			}
			m := parseMacro(word, value)
			if !m.isFunc {
				sb.WriteString(expandText(m.body, defs, with(hide, word)))
				i = j
				continue
			}
			// function-like: require an argument list on this line
			k := j
			for k < len(text) && (text[k] == ' ' || text[k] == '\t') {
				k++
			}
			if k >= len(text) || text[k] != '(' {
				sb.WriteString(word)
				i = j
				continue
			}
			args, end, ok := collectArgs(text, k)
			if !ok {
				glog.V(2).Infof("preprocessor: unterminated macro call %q", word)
				sb.WriteString(word)
				i = j
				continue
			}
			body := substituteParams(m, args, defs, hide)
			sb.WriteString(expandText(body, defs, with(hide, word)))
			i = end
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String()
}

func with(hide map[string]bool, name string) map[string]bool {
	out := map[string]bool{name: true}
	for k := range hide {
		out[k] = true
	}
	return out
}

func skipLiteral(text string, i int) int {
	quote := text[i]
	j := i + 1
	for j < len(text) {
		if text[j] == '\\' && j+1 < len(text) {
			j += 2
			continue
		}
		if text[j] == quote {
			return j + 1
		}
		j++
	}
	return j
}

// collectArgs reads a balanced argument list starting at the "(" at
// position i. Returns the raw argument texts and the index after ")".
func collectArgs(text string, i int) (args []string, end int, ok bool) {
	depth := 0
	start := i + 1
	for j := i; j < len(text); j++ {
		c := text[j]
		switch c {
		case '"', '\'':
			j = skipLiteral(text, j) - 1
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				args = append(args, strings.TrimSpace(text[start:j]))
				return args, j + 1, true
			}
		case ',':
			if depth == 1 {
				args = append(args, strings.TrimSpace(text[start:j]))
				start = j + 1
			}
		}
	}
	return nil, 0, false
}

// tokenizeBody splits a macro body into elements, each a word, a literal, "#",
// "##" or a single punctuation character.
func tokenizeBody(body string) []string {
	var out []string
	i := 0
	for i < len(body) {
		c := body[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '"' || c == '\'':
			j := skipLiteral(body, i)
			out = append(out, body[i:j])
			i = j
		case isSymbolChar(c):
			j := i
			for j < len(body) && isSymbolChar(body[j]) {
				j++
			}
			out = append(out, body[i:j])
			i = j
		case c == '#' && i+1 < len(body) && body[i+1] == '#':
			out = append(out, "##")
			i += 2
		default:
			out = append(out, string(c))
			i++
		}
	}
	return out
}

// substituteParams performs parameter substitution with "#" stringize
// and "##" paste, then returns the body text for rescanning. Arguments
// are macro-expanded before substitution except as operands of # and
// ##.
func substituteParams(m macro, args []string, defs map[string]string, hide map[string]bool) string {
	argOf := func(name string) (string, bool) {
		for i, p := range m.params {
			if p == name {
				if i < len(args) {
					return args[i], true
				}
				return "", true
			}
		}
		return "", false
	}
	toks := tokenizeBody(m.body)
	var out []string
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		// stringize
		if t == "#" && i+1 < len(toks) {
			if raw, isParam := argOf(toks[i+1]); isParam {
				out = append(out, "\""+strings.ReplaceAll(strings.ReplaceAll(raw, "\\", "\\\\"), "\"", "\\\"")+"\"")
				i++
				continue
			}
		}
		// paste with the previous output token
		if t == "##" && len(out) > 0 && i+1 < len(toks) {
			rhs := toks[i+1]
			if raw, isParam := argOf(rhs); isParam {
				rhs = raw
			}
			out[len(out)-1] += rhs
			i++
			continue
		}
		if raw, isParam := argOf(t); isParam {
			// raw when the next token pastes, expanded otherwise
			if i+1 < len(toks) && toks[i+1] == "##" {
				out = append(out, raw)
			} else {
				out = append(out, expandText(raw, defs, hide))
			}
			continue
		}
		out = append(out, t)
	}
	return strings.Join(out, " ")
}
