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

// CheckSTL finds iterator misuse and slow container idioms.
type CheckSTL struct{ noRaw }

func NewCheckSTL() *CheckSTL { return &CheckSTL{} }

func (c *CheckSTL) Name() string { return "STL" }

func (c *CheckSTL) RunSimplified(list *token.List, set *settings.Settings, logger errorlogger.ErrorLogger) {
	c.checkErase(list, logger)
	c.checkIteratorMismatch(list, logger)
	if set.SeverityEnabled(errorlogger.Performance) {
		c.checkSizeComparison(list, logger)
	}
}

// checkErase reports iterators dereferenced after erase() without
// being reassigned first.
func (c *CheckSTL) checkErase(list *token.List, logger errorlogger.ErrorLogger) {
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if token.Match(tok, "%var% . erase ( %var% )") == 0 {
			continue
		}
		arg := tok.TokAt(4)
		if arg == nil || arg.VarID == 0 {
			continue
		}
		itID := arg.VarID
		// "it = l.erase(it)" refreshes the iterator
		if tok.Prev().IsOp("=") {
			if lhs := tok.TokAt(-2); lhs != nil && lhs.VarID == itID {
				continue
			}
		}
		// scan to the end of the enclosing scope
		end := tok
		for end != nil && end.Str != "}" {
			end = end.Next()
		}
		afterCall := tok.TokAt(3)
		if afterCall == nil || afterCall.Link == nil {
			continue
		}
		for cur := afterCall.Link.Next(); cur != nil && cur != end; cur = cur.Next() {
			if cur.VarID != itID {
				continue
			}
			// "it = ..." makes it valid again; "*it = ..." does not
			if token.Match(cur, "%var% =") > 0 && !cur.Prev().IsOp("*") {
				break
			}
			report(logger, list, cur, errorlogger.Error, "eraseDereference",
				fmt.Sprintf("Dangerous iterator usage after erase()-method: %s", cur.Str))
			break
		}
	}
}

// checkIteratorMismatch reports loops that take begin() from one
// container and end() from another.
func (c *CheckSTL) checkIteratorMismatch(list *token.List, logger errorlogger.ErrorLogger) {
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if token.Match(tok, "%var% = %var% . begin ( ) ; %var% !=|< %var% . end ( )") == 0 {
			continue
		}
		it1 := tok
		c1 := tok.TokAt(2)
		it2 := tok.TokAt(8)
		c2 := tok.TokAt(10)
		if it1.VarID == 0 || it1.VarID != it2.VarID {
			continue
		}
		if c1.VarID != 0 && c2.VarID != 0 && c1.VarID != c2.VarID {
			report(logger, list, tok, errorlogger.Error, "iterators",
				fmt.Sprintf("Same iterator is used with two different containers '%s' and '%s'",
					c1.Str, c2.Str))
		}
	}
}

// checkSizeComparison suggests empty() over size()==0.
func (c *CheckSTL) checkSizeComparison(list *token.List, logger errorlogger.ErrorLogger) {
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if token.Match(tok, "%var% . size ( ) ==|!=|> 0") > 0 {
			report(logger, list, tok, errorlogger.Performance, "stlSize",
				fmt.Sprintf("Use %s.empty() instead of %s.size() to guarantee fast code.",
					tok.Str, tok.Str))
			continue
		}
		if token.Match(tok, "0 ==|!=|< %var% . size ( )") > 0 && tok.TokAt(2).VarID != 0 {
			name := tok.StrAt(2)
			report(logger, list, tok, errorlogger.Performance, "stlSize",
				fmt.Sprintf("Use %s.empty() instead of %s.size() to guarantee fast code.",
					name, name))
		}
	}
}

func (c *CheckSTL) ErrorMessages(logger errorlogger.ErrorLogger) {
	logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Error, "eraseDereference",
		"Dangerous iterator usage after erase()-method: it", "", 0))
	logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Error, "iterators",
		"Same iterator is used with two different containers 'a' and 'b'", "", 0))
	logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Performance, "stlSize",
		"Use x.empty() instead of x.size() to guarantee fast code.", "", 0))
}
