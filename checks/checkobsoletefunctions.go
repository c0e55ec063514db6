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
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"naive.systems/nativecheck/errorlogger"
	"naive.systems/nativecheck/settings"
	"naive.systems/nativecheck/token"
)

// obsoleteMessages maps each obsolete function to the advice text of
// the reference tool.
var obsoleteMessages = map[string]string{
	"gets":    "Obsolete function 'gets' called. It is recommended to use the function 'fgets' instead.",
	"mktemp":  "Obsolete function 'mktemp' called. It is recommended to use the function 'mkstemp' instead.",
	"tmpnam":  "Obsolete function 'tmpnam' called. It is recommended to use the function 'tmpfile' instead.",
	"index":   "Obsolete function 'index' called. It is recommended to use the function 'strchr' instead.",
	"rindex":  "Obsolete function 'rindex' called. It is recommended to use the function 'strrchr' instead.",
	"usleep":  "Obsolete function 'usleep' called. It is recommended to use the 'nanosleep' or 'setitimer' function instead.",
	"bcopy":   "Obsolete function 'bcopy' called. It is recommended to use the function 'memmove' instead.",
	"bzero":   "Obsolete function 'bzero' called. It is recommended to use the function 'memset' instead.",
	"gethostbyname": "Obsolete function 'gethostbyname' called. It is recommended to use the function 'getaddrinfo' instead.",
}

// CheckObsoleteFunctions is a pure pattern match against a list of
// functions that should not be used anymore.
type CheckObsoleteFunctions struct{ noRaw }

func NewCheckObsoleteFunctions() *CheckObsoleteFunctions { return &CheckObsoleteFunctions{} }

func (c *CheckObsoleteFunctions) Name() string { return "ObsoleteFunctions" }

func (c *CheckObsoleteFunctions) RunSimplified(list *token.List, set *settings.Settings, logger errorlogger.ErrorLogger) {
	if !set.SeverityEnabled(errorlogger.Style) {
		return
	}
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if tok.Kind != token.Identifier || tok.VarID != 0 {
			continue
		}
		msg, obsolete := obsoleteMessages[tok.Str]
		if !obsolete {
			continue
		}
		if token.Match(tok.Next(), "(") == 0 {
			continue
		}
		// a preceding name or member access means this is not the
		// libc function
		if prev := tok.Prev(); prev != nil {
			if prev.Str == "." || prev.Str == "->" || prev.Str == "::" {
				continue
			}
			if prev.IsStandardType || prev.Kind == token.TypeName {
				// a declaration of a same-named function
				continue
			}
		}
		report(logger, list, tok, errorlogger.Style, "obsoleteFunctions"+tok.Str, msg)
	}
}

func (c *CheckObsoleteFunctions) ErrorMessages(logger errorlogger.ErrorLogger) {
	names := maps.Keys(obsoleteMessages)
	slices.Sort(names)
	for _, name := range names {
		logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Style,
			"obsoleteFunctions"+name, obsoleteMessages[name], "", 0))
	}
}
