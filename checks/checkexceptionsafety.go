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

// CheckExceptionSafety finds code that throws at the wrong moment:
// inside destructors, or after memory has been released.
type CheckExceptionSafety struct{ noRaw }

func NewCheckExceptionSafety() *CheckExceptionSafety { return &CheckExceptionSafety{} }

func (c *CheckExceptionSafety) Name() string { return "ExceptionSafety" }

func (c *CheckExceptionSafety) RunSimplified(list *token.List, set *settings.Settings, logger errorlogger.ErrorLogger) {
	c.destructors(list, logger)
	c.deallocThrow(list, set, logger)
}

// destructors reports throw expressions inside "~X() { ... }".
func (c *CheckExceptionSafety) destructors(list *token.List, logger errorlogger.ErrorLogger) {
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if token.Match(tok, "~ %var% ( ) ") == 0 {
			continue
		}
		body := tok.TokAt(4)
		for body != nil && body.Str != "{" && body.Str != ";" {
			body = body.Next()
		}
		if body == nil || body.Str != "{" || body.Link == nil {
			continue
		}
		for cur := body.Next(); cur != nil && cur != body.Link; cur = cur.Next() {
			if cur.Str == "throw" {
				// a throw inside a nested try block is caught locally
				if insideTry(body, cur) {
					continue
				}
				report(logger, list, cur, errorlogger.Error, "exceptThrowInDestructor",
					"Throwing exception in destructor")
				break
			}
		}
	}
}

// insideTry reports whether tok sits inside a try block within the
// scope opened at bodyOpen.
func insideTry(bodyOpen, tok *token.Token) bool {
	for cur := bodyOpen.Next(); cur != nil && cur != tok; cur = cur.Next() {
		if cur.Str == "try" && cur.Next() != nil && cur.Next().IsOp("{") &&
			cur.Next().Link != nil {
			// does the try block contain tok?
			for t := cur.Next(); t != nil && t != cur.Next().Link; t = t.Next() {
				if t == tok {
					return true
				}
			}
		}
	}
	return false
}

// deallocThrow reports "delete p; ... throw ..." before p is cleared
// or reassigned: unwinding leaves a dangling pointer behind.
func (c *CheckExceptionSafety) deallocThrow(list *token.List, set *settings.Settings, logger errorlogger.ErrorLogger) {
	if !set.SeverityEnabled(errorlogger.Warning) {
		return
	}
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		varid := 0
		name := ""
		switch {
		case token.Match(tok, "delete %var% ;") > 0 && tok.TokAt(1).VarID != 0:
			varid = tok.TokAt(1).VarID
			name = tok.StrAt(1)
		case token.Match(tok, "free ( %var% ) ;") > 0 && tok.TokAt(2).VarID != 0:
			varid = tok.TokAt(2).VarID
			name = tok.StrAt(2)
		default:
			continue
		}
		for cur := tok.Next(); cur != nil && cur.Str != "}"; cur = cur.Next() {
			if cur.VarID == varid && token.Match(cur, "%var% =") > 0 {
				break // reset before any throw
			}
			if cur.Str == "throw" {
				report(logger, list, cur, errorlogger.Warning, "exceptDeallocThrow",
					fmt.Sprintf("Throwing exception in invalid state, '%s' points at deallocated memory.", name))
				break
			}
		}
	}
}

func (c *CheckExceptionSafety) ErrorMessages(logger errorlogger.ErrorLogger) {
	logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Error, "exceptThrowInDestructor",
		"Throwing exception in destructor", "", 0))
	logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Warning, "exceptDeallocThrow",
		"Throwing exception in invalid state, 'p' points at deallocated memory.", "", 0))
}
