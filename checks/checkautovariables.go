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

package checks

import (
	"naive.systems/nativecheck/errorlogger"
	"naive.systems/nativecheck/settings"
	"naive.systems/nativecheck/token"
)

// CheckAutoVariables reports the address of a local escaping the
// function: stored through an out-parameter or returned.
type CheckAutoVariables struct{ noRaw }

func NewCheckAutoVariables() *CheckAutoVariables { return &CheckAutoVariables{} }

func (c *CheckAutoVariables) Name() string { return "AutoVariables" }

func (c *CheckAutoVariables) RunSimplified(list *token.List, set *settings.Settings, logger errorlogger.ErrorLogger) {
	for _, fn := range FunctionsAnyDepth(list) {
		if set.Terminated() {
			return
		}
		params := map[int]bool{}
		for tok := fn.ArgOpen.Next(); tok != nil && tok != fn.ArgClose; tok = tok.Next() {
			if tok.VarID != 0 {
				params[tok.VarID] = true
			}
		}
		locals := map[int]bool{}
		for tok := fn.BodyOpen.Next(); tok != nil && tok != fn.BodyEnd; tok = tok.Next() {
			if tok.VarID != 0 && !params[tok.VarID] && isDeclaredHere(tok) {
				locals[tok.VarID] = true
			}
		}
		for tok := fn.BodyOpen.Next(); tok != nil && tok != fn.BodyEnd; tok = tok.Next() {
			// "*p = &x;" and "p[0] = &x;" with parameter p, local x
			if token.Match(tok, "* %var% = & %var% ;") > 0 &&
				params[tok.TokAt(1).VarID] && locals[tok.TokAt(4).VarID] {
				c.reportAuto(list, tok, logger)
				continue
			}
			if token.Match(tok, "%var% [ %any% ] = & %var% ;") > 0 &&
				params[tok.VarID] && locals[tok.TokAt(6).VarID] {
				c.reportAuto(list, tok, logger)
				continue
			}
			// "return &x;" with local x
			if token.Match(tok, "return & %var% ;") > 0 && locals[tok.TokAt(2).VarID] {
				report(logger, list, tok, errorlogger.Error, "returnAddressOfAutoVariable",
					"Return of the address of an auto-variable")
			}
		}
	}
}

// isDeclaredHere reports whether tok is the declaration site of its
// variable, i.e. preceded by type tokens.
func isDeclaredHere(tok *token.Token) bool {
	prev := tok.Prev()
	for prev != nil && (prev.Str == "*" || prev.Str == "&" || prev.Str == "const") {
		prev = prev.Prev()
	}
	return prev != nil && (prev.IsStandardType || prev.Kind == token.TypeName)
}

func (c *CheckAutoVariables) reportAuto(list *token.List, tok *token.Token, logger errorlogger.ErrorLogger) {
	report(logger, list, tok, errorlogger.Error, "autoVariables",
		"Wrong assignment of an auto-variable to an effective parameter of a function")
}

func (c *CheckAutoVariables) ErrorMessages(logger errorlogger.ErrorLogger) {
	logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Error, "autoVariables",
		"Wrong assignment of an auto-variable to an effective parameter of a function", "", 0))
	logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Error, "returnAddressOfAutoVariable",
		"Return of the address of an auto-variable", "", 0))
}
