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
	"fmt"
	"strings"

	"github.com/golang/glog"
	"naive.systems/nativecheck/errorlogger"
)

// enumeration never considers more than this many interesting symbols;
// the search space is 2^n.
const maxConfigSymbols = 20

// getConfigs enumerates the configuration names for one translation
// unit: subsets of the interesting symbols, in bitmask counting order
// over the symbols' first-encounter order, deduplicated by the textual
// slice each subset produces, capped by MaxConfigs unless Force.
func (p *Preprocessor) getConfigs(code string) []string {
	syms := p.interestingSymbols(code)
	if len(syms) > maxConfigSymbols {
		glog.V(1).Infof("preprocessor: %d conditional symbols, considering the first %d",
			len(syms), maxConfigSymbols)
		syms = syms[:maxConfigSymbols]
	}

	userSyms := p.configSymbols("")
	var cfgs []string
	seen := map[string]bool{}
	truncated := false
	for mask := 0; mask < 1<<len(syms); mask++ {
		if p.Settings.Terminated() {
			break
		}
		if !p.Settings.Force && len(cfgs) >= p.Settings.MaxConfigs {
			truncated = true
			break
		}
		var parts []string
		slice := map[string]string{}
		for k, v := range userSyms {
			slice[k] = v
		}
		for i, sym := range syms {
			if mask&(1<<i) != 0 {
				parts = append(parts, sym)
				k, v, found := strings.Cut(sym, "=")
				if !found {
					v = "1"
				}
				slice[k] = v
			}
		}
		text, err := p.conditionalSlice(code, slice, "")
		if err != nil {
			continue
		}
		if seen[text] {
			continue
		}
		seen[text] = true
		cfgs = append(cfgs, strings.Join(parts, ";"))
	}
	if truncated && p.Settings.IsEnabled("information") {
		p.Logger.ReportErr(errorlogger.NewErrorMessage(
			errorlogger.Information, "tooManyConfigs",
			fmt.Sprintf("Too many #ifdef configurations - only %d were checked.", p.Settings.MaxConfigs),
			"", 0))
	}
	return cfgs
}

// interestingSymbols collects macro names used in #if conditions and
// not defined by the file before their first use, in encounter order.
// The classic "#ifndef GUARD / #define GUARD" include guard pattern is
// not interesting.
func (p *Preprocessor) interestingSymbols(code string) []string {
	defined := map[string]bool{}
	for _, def := range p.Settings.UserDefines {
		name, _, _ := strings.Cut(def, "=")
		defined[name] = true
	}
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		if name == "" || defined[name] || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		switch directiveName(line) {
		case "define":
			name := strings.TrimSpace(directiveRest(line))
			for j := 0; j < len(name); j++ {
				if !isSymbolChar(name[j]) {
					name = name[:j]
					break
				}
			}
			defined[name] = true
		case "ifdef":
			add(strings.TrimSpace(directiveRest(line)))
		case "ifndef":
			name := strings.TrimSpace(directiveRest(line))
			if isIncludeGuard(lines, i, name) {
				defined[name] = true
				continue
			}
			add(name)
		case "if", "elif":
			for _, name := range conditionSymbols(directiveRest(line)) {
				add(name)
			}
		}
	}
	return out
}

// isIncludeGuard reports whether lines[i] starts the "#ifndef X" /
// "#define X" guard idiom.
func isIncludeGuard(lines []string, i int, name string) bool {
	for j := i + 1; j < len(lines); j++ {
		t := strings.TrimSpace(lines[j])
		if t == "" {
			continue
		}
		if directiveName(lines[j]) != "define" {
			return false
		}
		rest := strings.TrimSpace(directiveRest(lines[j]))
		return rest == name
	}
	return false
}

// conditionSymbols extracts the identifiers of an #if condition.
func conditionSymbols(cond string) []string {
	var out []string
	i := 0
	for i < len(cond) {
		c := cond[i]
		if isSymbolStart(c) {
			j := i
			for j < len(cond) && isSymbolChar(cond[j]) {
				j++
			}
			word := cond[i:j]
			i = j
			if word == "defined" || mathKeyword(word) {
				continue
			}
			out = append(out, word)
			continue
		}
		if c == '\'' || c == '"' {
			quote := c
			i++
			for i < len(cond) && cond[i] != quote {
				if cond[i] == '\\' {
					i++
				}
				i++
			}
		}
		i++
	}
	return out
}

func mathKeyword(word string) bool {
	// pp-numbers starting with a digit never reach here; these are the
	// alphabetic operators.
	return word == "true" || word == "false"
}

func isSymbolStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isSymbolChar(c byte) bool {
	return isSymbolStart(c) || c >= '0' && c <= '9'
}

type ifFrame struct {
	active   bool // this branch is live
	everTrue bool // some earlier branch of this #if was taken
	inElse   bool
}

// conditionalSlice evaluates the conditional directives of code under
// the given symbol values. Live lines are kept, dead lines become
// empty, so line numbers survive. #define/#undef of live regions are
// kept for the macro expander; #file/#endfile markers always pass
// through.
func (p *Preprocessor) conditionalSlice(code string, syms map[string]string, path string) (string, error) {
	defs := map[string]string{}
	for k, v := range syms {
		defs[k] = v
	}
	var stack []ifFrame
	live := func() bool {
		for _, f := range stack {
			if !f.active {
				return false
			}
		}
		return true
	}
	parentLive := func() bool {
		for _, f := range stack[:len(stack)-1] {
			if !f.active {
				return false
			}
		}
		return true
	}

	lines := strings.Split(code, "\n")
	out := make([]string, 0, len(lines))
	lineNo := 0
	for _, line := range lines {
		lineNo++
		d := directiveName(line)
		switch d {
		case "file", "endfile":
			out = append(out, line)
			continue
		case "ifdef", "ifndef":
			name := strings.TrimSpace(directiveRest(line))
			_, isdef := defs[name]
			active := isdef == (d == "ifdef")
			if !live() {
				active = false
			}
			stack = append(stack, ifFrame{active: active, everTrue: active})
			out = append(out, "")
			continue
		case "if":
			active := false
			if live() {
				active = p.evalCondition(directiveRest(line), defs, path, lineNo)
			}
			stack = append(stack, ifFrame{active: active, everTrue: active})
			out = append(out, "")
			continue
		case "elif":
			if len(stack) == 0 {
				p.syntaxError(path, lineNo, "#elif without #if")
				return "", fmt.Errorf("preprocessor: stray #elif")
			}
			f := &stack[len(stack)-1]
			f.active = false
			if !f.everTrue && parentLive() {
				f.active = p.evalCondition(directiveRest(line), defs, path, lineNo)
				f.everTrue = f.active
			}
			out = append(out, "")
			continue
		case "else":
			if len(stack) == 0 {
				p.syntaxError(path, lineNo, "#else without #if")
				return "", fmt.Errorf("preprocessor: stray #else")
			}
			f := &stack[len(stack)-1]
			f.inElse = true
			f.active = !f.everTrue && parentLive()
			out = append(out, "")
			continue
		case "endif":
			if len(stack) == 0 {
				p.syntaxError(path, lineNo, "#endif without #if")
				return "", fmt.Errorf("preprocessor: stray #endif")
			}
			stack = stack[:len(stack)-1]
			out = append(out, "")
			continue
		}
		if !live() {
			out = append(out, "")
			continue
		}
		switch d {
		case "define":
			name, value := parseDefine(directiveRest(line))
			if name != "" {
				defs[name] = value
			}
			out = append(out, line)
		case "undef":
			delete(defs, strings.TrimSpace(directiveRest(line)))
			out = append(out, line)
		case "error":
			if path != "" {
				p.Logger.ReportErr(errorlogger.NewErrorMessage(
					errorlogger.Error, "preprocessorErrorDirective",
					"#error "+directiveRest(line), path, lineNo))
			}
			out = append(out, "")
		default:
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n"), nil
}

// parseDefine splits "NAME value" or "NAME(args) body". The value of
// a function-like macro is everything including the parameter list.
func parseDefine(rest string) (name, value string) {
	i := 0
	for i < len(rest) && isSymbolChar(rest[i]) {
		i++
	}
	name = rest[:i]
	if i < len(rest) && rest[i] == '(' {
		// function-like: keep the whole tail as the value
		return name, rest[i:]
	}
	return name, strings.TrimSpace(rest[i:])
}
