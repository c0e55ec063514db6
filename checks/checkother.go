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
	"fmt"

	"naive.systems/nativecheck/errorlogger"
	"naive.systems/nativecheck/settings"
	"naive.systems/nativecheck/token"
)

// CheckOther collects the small pattern checks that need no state:
// division by a literal zero, self assignment, redundant null checks
// before deallocation.
type CheckOther struct{ noRaw }

func NewCheckOther() *CheckOther { return &CheckOther{} }

func (c *CheckOther) Name() string { return "Other" }

func (c *CheckOther) RunSimplified(list *token.List, set *settings.Settings, logger errorlogger.ErrorLogger) {
	c.zeroDivision(list, logger)
	if set.SeverityEnabled(errorlogger.Warning) {
		c.selfAssignment(list, logger)
	}
	if set.SeverityEnabled(errorlogger.Style) {
		c.redundantNullCheck(list, logger)
	}
}

// zeroDivision reports "/ 0" and "% 0" with a literal zero.
func (c *CheckOther) zeroDivision(list *token.List, logger errorlogger.ErrorLogger) {
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if token.Match(tok, "/|% 0") == 0 {
			continue
		}
		// the simplifier folds constant divisions except this one
		report(logger, list, tok, errorlogger.Error, "zerodiv",
			"Division by zero")
	}
}

// selfAssignment reports "x = x;".
func (c *CheckOther) selfAssignment(list *token.List, logger errorlogger.ErrorLogger) {
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if token.Match(tok, "%var% = %var% ;") == 0 {
			continue
		}
		if tok.VarID == 0 || tok.VarID != tok.TokAt(2).VarID {
			continue
		}
		report(logger, list, tok, errorlogger.Warning, "selfAssignment",
			fmt.Sprintf("Redundant assignment of '%s' to itself", tok.Str))
	}
}

// redundantNullCheck reports "if (p) delete p;" and friends: deleting
// a null pointer is already safe.
func (c *CheckOther) redundantNullCheck(list *token.List, logger errorlogger.ErrorLogger) {
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if token.Match(tok, "if ( %var% ) { delete %var% ; }") > 0 &&
			tok.TokAt(2).VarID != 0 && tok.TokAt(2).VarID == tok.TokAt(6).VarID {
			report(logger, list, tok, errorlogger.Style, "redundantCondition",
				"Redundant condition. It is safe to deallocate a NULL pointer")
			continue
		}
		if token.Match(tok, "if ( %var% ) { free ( %var% ) ; }") > 0 &&
			tok.TokAt(2).VarID != 0 && tok.TokAt(2).VarID == tok.TokAt(7).VarID {
			report(logger, list, tok, errorlogger.Style, "redundantCondition",
				"Redundant condition. It is safe to deallocate a NULL pointer")
		}
	}
}

func (c *CheckOther) ErrorMessages(logger errorlogger.ErrorLogger) {
	logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Error, "zerodiv",
		"Division by zero", "", 0))
	logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Warning, "selfAssignment",
		"Redundant assignment of 'x' to itself", "", 0))
	logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Style, "redundantCondition",
		"Redundant condition. It is safe to deallocate a NULL pointer", "", 0))
}
