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

// Package preprocessor expands one translation unit into the set of
// interesting preprocessor configurations.
//
// The pipeline for one file is: read (comments, continuations,
// inline suppressions), #include inlining, configuration enumeration,
// then per configuration conditional slicing and macro expansion. The
// output of every stage is plain text with the original line counts
// preserved, so diagnostics keep their provenance.
package preprocessor

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"naive.systems/nativecheck/errorlogger"
	"naive.systems/nativecheck/filelister"
	"naive.systems/nativecheck/settings"
)

// Config is one enumerated preprocessor configuration: the name (the
// ";"-joined symbols that distinguish it) and the fully expanded
// source text.
type Config struct {
	Name string
	Code string
}

// Preprocessor drives preprocessing for one or more files.
type Preprocessor struct {
	Settings *settings.Settings
	Logger   errorlogger.ErrorLogger
	Lister   *filelister.Lister

	// headers already reported as missing, by name
	missingIncludes map[string]bool
}

// New builds a preprocessor reporting into logger.
func New(set *settings.Settings, logger errorlogger.ErrorLogger, lister *filelister.Lister) *Preprocessor {
	return &Preprocessor{
		Settings:        set,
		Logger:          logger,
		Lister:          lister,
		missingIncludes: map[string]bool{},
	}
}

// Preprocess runs the whole pipeline on one file and returns the kept
// configurations in deterministic order. A nil slice with a nil error
// means the run was cancelled.
func (p *Preprocessor) Preprocess(path, content string) ([]Config, error) {
	code := p.read(content, path)
	code = p.handleIncludes(code, path, map[string]bool{path: true})
	if err := p.checkBalance(code, path); err != nil {
		return nil, err
	}
	names := p.getConfigs(code)
	var out []Config
	for _, name := range names {
		if p.Settings.Terminated() {
			return nil, nil
		}
		sliced, err := p.conditionalSlice(code, p.configSymbols(name), path)
		if err != nil {
			return nil, err
		}
		expanded := p.expandMacros(sliced, path)
		out = append(out, Config{Name: name, Code: expanded})
	}
	return out, nil
}

// read strips comments and joins backslash continuations, keeping the
// line count intact. Inline "cppcheck-suppress <id>" comments are
// harvested into the settings while the comment text is still around.
func (p *Preprocessor) read(content, path string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = joinContinuations(content)
	return p.removeComments(content, path)
}

func joinContinuations(content string) string {
	lines := strings.Split(content, "\n")
	var out []string
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		blanks := 0
		for strings.HasSuffix(line, "\\") && i+1 < len(lines) {
			line = line[:len(line)-1] + lines[i+1]
			i++
			blanks++
		}
		out = append(out, line)
		for ; blanks > 0; blanks-- {
			out = append(out, "")
		}
	}
	return strings.Join(out, "\n")
}

func (p *Preprocessor) removeComments(content, path string) string {
	var sb strings.Builder
	sb.Grow(len(content))
	line := 1
	i := 0
	for i < len(content) {
		c := content[i]
		switch {
		case c == '\n':
			line++
			sb.WriteByte(c)
			i++
		case c == '"' || c == '\'':
			quote := c
			sb.WriteByte(c)
			i++
			for i < len(content) && content[i] != quote && content[i] != '\n' {
				if content[i] == '\\' && i+1 < len(content) && content[i+1] != '\n' {
					sb.WriteByte(content[i])
					i++
				}
				sb.WriteByte(content[i])
				i++
			}
			if i < len(content) && content[i] == quote {
				sb.WriteByte(quote)
				i++
			}
		case c == '/' && i+1 < len(content) && content[i+1] == '/':
			j := strings.IndexByte(content[i:], '\n')
			var comment string
			if j < 0 {
				comment = content[i+2:]
				i = len(content)
			} else {
				comment = content[i+2 : i+j]
				i += j
			}
			p.harvestSuppression(comment, path, line)
		case c == '/' && i+1 < len(content) && content[i+1] == '*':
			end := strings.Index(content[i+2:], "*/")
			var comment string
			if end < 0 {
				comment = content[i+2:]
			} else {
				comment = content[i+2 : i+2+end]
			}
			p.harvestSuppression(comment, path, line)
			sb.WriteByte(' ')
			if end < 0 {
				// Unterminated block comment runs to the end.
				for _, ch := range []byte(content[i:]) {
					if ch == '\n' {
						sb.WriteByte('\n')
						line++
					}
				}
				i = len(content)
			} else {
				for _, ch := range []byte(content[i : i+2+end+2]) {
					if ch == '\n' {
						sb.WriteByte('\n')
						line++
					}
				}
				i += 2 + end + 2
			}
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String()
}

// harvestSuppression records "cppcheck-suppress <id>" comments. The
// suppression applies to the line after the comment.
func (p *Preprocessor) harvestSuppression(comment, path string, line int) {
	fields := strings.Fields(comment)
	if len(fields) >= 2 && fields[0] == "cppcheck-suppress" {
		p.Settings.NoFailNomsg.Add(fields[1], path, line+1)
	}
}

// handleIncludes inlines resolved headers wrapped in #file/#endfile
// markers. open guards against include cycles.
func (p *Preprocessor) handleIncludes(code, path string, open map[string]bool) string {
	var out []string
	for _, line := range strings.Split(code, "\n") {
		name, isQuote, ok := parseIncludeLine(line)
		if !ok {
			out = append(out, line)
			continue
		}
		resolved, content, found := p.resolveInclude(name, path, isQuote)
		if !found {
			if !p.missingIncludes[name] {
				p.missingIncludes[name] = true
				p.Logger.ReportErr(errorlogger.NewErrorMessage(
					errorlogger.Information, "missingInclude",
					fmt.Sprintf("Include file: \"%s\" not found.", name),
					path, 0))
			}
			out = append(out, "")
			continue
		}
		if open[resolved] {
			glog.V(1).Infof("preprocessor: include cycle at %s", resolved)
			out = append(out, "")
			continue
		}
		open[resolved] = true
		inner := p.read(content, resolved)
		inner = p.handleIncludes(inner, resolved, open)
		delete(open, resolved)
		out = append(out, "#file \""+resolved+"\"")
		out = append(out, strings.Split(inner, "\n")...)
		out = append(out, "#endfile")
	}
	return strings.Join(out, "\n")
}

func parseIncludeLine(line string) (name string, isQuote bool, ok bool) {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "#") {
		return "", false, false
	}
	t = strings.TrimSpace(t[1:])
	if !strings.HasPrefix(t, "include") {
		return "", false, false
	}
	t = strings.TrimSpace(t[len("include"):])
	if len(t) >= 2 && t[0] == '"' {
		end := strings.IndexByte(t[1:], '"')
		if end >= 0 {
			return t[1 : 1+end], true, true
		}
	}
	if len(t) >= 2 && t[0] == '<' {
		end := strings.IndexByte(t, '>')
		if end > 0 {
			return t[1:end], false, true
		}
	}
	return "", false, false
}

// resolveInclude searches the quote form in the including file's
// directory first, then the -I roots; the angle form searches only the
// -I roots.
func (p *Preprocessor) resolveInclude(name, from string, isQuote bool) (string, string, bool) {
	var candidates []string
	if isQuote {
		candidates = append(candidates, filepath.Join(filepath.Dir(from), name))
	}
	for _, dir := range p.Settings.IncludePaths {
		candidates = append(candidates, filepath.Join(dir, name))
	}
	for _, cand := range candidates {
		content, err := p.Lister.ReadFile(cand)
		if err == nil {
			return cand, content, true
		}
	}
	return "", "", false
}

// checkBalance verifies #if/#endif nesting before any slicing starts.
func (p *Preprocessor) checkBalance(code, path string) error {
	depth := 0
	line := 0
	for _, l := range strings.Split(code, "\n") {
		line++
		d := directiveName(l)
		switch d {
		case "if", "ifdef", "ifndef":
			depth++
		case "endif":
			depth--
			if depth < 0 {
				p.syntaxError(path, line, "#endif without #if")
				return fmt.Errorf("preprocessor: unbalanced #endif in %s", path)
			}
		}
	}
	if depth != 0 {
		p.syntaxError(path, line, "#if without matching #endif")
		return fmt.Errorf("preprocessor: unbalanced #if in %s", path)
	}
	return nil
}

func (p *Preprocessor) syntaxError(path string, line int, what string) {
	p.Logger.ReportErr(errorlogger.NewErrorMessage(
		errorlogger.Error, "syntaxError", what, path, line))
}

// directiveName returns the word after "#", "" for non-directives.
func directiveName(line string) string {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "#") {
		return ""
	}
	t = strings.TrimSpace(t[1:])
	for i := 0; i < len(t); i++ {
		c := t[i]
		if !(c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return t[:i]
		}
	}
	return t
}

// directiveRest returns the text after the directive keyword.
func directiveRest(line string) string {
	t := strings.TrimSpace(line)
	t = strings.TrimSpace(t[1:])
	name := directiveName(line)
	return strings.TrimSpace(t[len(name):])
}

// configSymbols turns a configuration name like "A;B=2" into a macro
// value map.
func (p *Preprocessor) configSymbols(name string) map[string]string {
	syms := map[string]string{}
	for _, def := range p.Settings.UserDefines {
		k, v, found := strings.Cut(def, "=")
		if !found {
			v = "1"
		}
		syms[k] = v
	}
	if name != "" {
		for _, part := range strings.Split(name, ";") {
			k, v, found := strings.Cut(part, "=")
			if !found {
				v = "1"
			}
			syms[k] = v
		}
	}
	for _, undef := range p.Settings.UserUndefs {
		delete(syms, undef)
	}
	return syms
}
