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

// Package checks holds the analyses that walk the simplified token
// stream, the registry that owns them and the execution-path engine
// the flow-sensitive ones are built on.
package checks

import (
	"naive.systems/nativecheck/errorlogger"
	"naive.systems/nativecheck/settings"
	"naive.systems/nativecheck/token"
)

// Check is one analysis. Implementations must be safe against
// malformed input: never walk past list ends, never assume a bracket
// is linked, stay silent on anomalies.
type Check interface {
	// Name identifies the check in logs and --errorlist output.
	Name() string
	// RunSimplified analyzes one simplified token list.
	RunSimplified(list *token.List, set *settings.Settings, logger errorlogger.ErrorLogger)
	// RunRaw analyzes the raw (pre-simplification) token list. Most
	// checks have nothing to do here.
	RunRaw(list *token.List, set *settings.Settings, logger errorlogger.ErrorLogger)
	// ErrorMessages reports one example of every diagnostic the check
	// can produce, for the documentation dump.
	ErrorMessages(logger errorlogger.ErrorLogger)
}

// Registry is the explicit list of checks for one run. Tests build
// their own with just the checks under test.
type Registry struct {
	Checks []Check

	// cross-file state for the unused function analysis
	UnusedFunctions *CheckUnusedFunctions
}

// NewRegistry builds the full registry.
func NewRegistry() *Registry {
	unused := NewCheckUnusedFunctions()
	return &Registry{
		Checks: []Check{
			NewCheckMemoryLeak(),
			NewCheckBufferOverrun(),
			NewCheckUninitVar(),
			NewCheckClass(),
			NewCheckSTL(),
			NewCheckAutoVariables(),
			NewCheckObsoleteFunctions(),
			NewCheckExceptionSafety(),
			NewCheckOther(),
			unused,
		},
		UnusedFunctions: unused,
	}
}

// RunSimplified dispatches all checks over one simplified list,
// honoring the terminate flag between checks.
func (r *Registry) RunSimplified(list *token.List, set *settings.Settings, logger errorlogger.ErrorLogger) {
	for _, c := range r.Checks {
		if set.Terminated() {
			return
		}
		c.RunSimplified(list, set, logger)
	}
}

// RunRaw dispatches the raw-stream hooks.
func (r *Registry) RunRaw(list *token.List, set *settings.Settings, logger errorlogger.ErrorLogger) {
	for _, c := range r.Checks {
		if set.Terminated() {
			return
		}
		c.RunRaw(list, set, logger)
	}
}

// Finalize runs the whole-program analyses after the last file.
func (r *Registry) Finalize(set *settings.Settings, logger errorlogger.ErrorLogger) {
	if r.UnusedFunctions != nil {
		r.UnusedFunctions.Finalize(set, logger)
	}
}

// Function is one function definition found in a token list.
type Function struct {
	NameTok  *token.Token
	ArgOpen  *token.Token // "("
	ArgClose *token.Token // ")"
	BodyOpen *token.Token // "{"
	BodyEnd  *token.Token // "}"
}

// Functions scans a list for function definitions: a name directly
// before a linked "(" whose ")" is followed by "{".
func Functions(list *token.List) []Function {
	var out []Function
	depth := 0
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		switch tok.Str {
		case "{":
			depth++
		case "}":
			if depth > 0 {
				depth--
			}
		}
		if depth != 0 {
			continue
		}
		if tok.Kind != token.Identifier || tok.VarID != 0 {
			continue
		}
		open := tok.Next()
		if open == nil || !open.IsOp("(") || open.Link == nil {
			continue
		}
		body := open.Link.Next()
		// allow "const" between ")" and "{"
		for body != nil && body.Str == "const" {
			body = body.Next()
		}
		if body == nil || !body.IsOp("{") || body.Link == nil {
			continue
		}
		out = append(out, Function{
			NameTok:  tok,
			ArgOpen:  open,
			ArgClose: open.Link,
			BodyOpen: body,
			BodyEnd:  body.Link,
		})
	}
	return out
}

// FunctionsAnyDepth also reports definitions nested inside classes
// and namespaces.
func FunctionsAnyDepth(list *token.List) []Function {
	var out []Function
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if tok.Kind != token.Identifier || tok.VarID != 0 {
			continue
		}
		open := tok.Next()
		if open == nil || !open.IsOp("(") || open.Link == nil {
			continue
		}
		body := open.Link.Next()
		for body != nil && body.Str == "const" {
			body = body.Next()
		}
		if body == nil || !body.IsOp("{") || body.Link == nil {
			continue
		}
		out = append(out, Function{
			NameTok:  tok,
			ArgOpen:  open,
			ArgClose: open.Link,
			BodyOpen: body,
			BodyEnd:  body.Link,
		})
	}
	return out
}

// report emits a single-location diagnostic.
func report(logger errorlogger.ErrorLogger, list *token.List, tok *token.Token,
	severity errorlogger.Severity, id, msg string) {
	file := ""
	line := 0
	if tok != nil {
		file = list.FileAt(tok.FileIndex)
		line = tok.Line
	}
	logger.ReportErr(errorlogger.NewErrorMessage(severity, id, msg, file, line))
}
