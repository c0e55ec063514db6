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

// CheckUninitVar reports scalar locals whose first use on some path
// precedes any store.
type CheckUninitVar struct{ noRaw }

func NewCheckUninitVar() *CheckUninitVar { return &CheckUninitVar{} }

func (c *CheckUninitVar) Name() string { return "UninitVar" }

func (c *CheckUninitVar) RunSimplified(list *token.List, set *settings.Settings, logger errorlogger.ErrorLogger) {
	for _, fn := range FunctionsAnyDepth(list) {
		if set.Terminated() {
			return
		}
		state := &uninitVarState{
			list:     list,
			logger:   logger,
			uninit:   map[int]string{},
			reported: map[int]bool{},
		}
		WalkPaths(fn.BodyOpen, state, set)
	}
}

// uninitVarState tracks variables that are declared but not yet
// stored to on the current path.
type uninitVarState struct {
	list     *token.List
	logger   errorlogger.ErrorLogger
	uninit   map[int]string // varid -> name
	reported map[int]bool   // shared across clones
}

func (s *uninitVarState) Copy() PathState {
	cp := &uninitVarState{
		list:     s.list,
		logger:   s.logger,
		uninit:   make(map[int]string, len(s.uninit)),
		reported: s.reported,
	}
	for k, v := range s.uninit {
		cp.uninit[k] = v
	}
	return cp
}

// Merge keeps a variable uninitialized when either branch left it so:
// "a use on some path" is what gets reported.
func (s *uninitVarState) Merge(other PathState) {
	o, ok := other.(*uninitVarState)
	if !ok {
		return
	}
	for k, v := range o.uninit {
		s.uninit[k] = v
	}
}

func (s *uninitVarState) Parse(tok *token.Token) *token.Token {
	// declaration without initializer: "int x ;" / "char * p ;"
	if token.Match(tok, "%type% %var% ;") > 0 && tok.TokAt(1).VarID != 0 {
		s.uninit[tok.TokAt(1).VarID] = tok.StrAt(1)
		return tok.TokAt(2)
	}
	if token.Match(tok, "%type% * %var% ;") > 0 && tok.TokAt(2).VarID != 0 {
		s.uninit[tok.TokAt(2).VarID] = tok.StrAt(2)
		return tok.TokAt(3)
	}
	// assignment: report uninitialized reads on the right side, then
	// mark the left side stored
	if token.Match(tok, "%var% =") > 0 && tok.VarID != 0 && tok.StrAt(1) == "=" {
		end := tok.Next()
		for end != nil && end.Str != ";" {
			if end.VarID != 0 && end != tok {
				s.use(end)
			}
			if end.Str == "&" {
				// the address of a variable may be handed to an
				// initializer; treat the operand as stored
				if v := end.Next(); v != nil && v.VarID != 0 {
					delete(s.uninit, v.VarID)
				}
			}
			end = end.Next()
		}
		delete(s.uninit, tok.VarID)
		if end == nil {
			return tok
		}
		return end
	}
	// "&x" passes the address out; assume the callee initializes
	if tok.Str == "&" {
		if v := tok.Next(); v != nil && v.VarID != 0 {
			delete(s.uninit, v.VarID)
			return v
		}
	}
	// "scanf-style" or any call with the bare name: reading it
	if tok.VarID != 0 {
		s.use(tok)
	}
	return tok
}

func (s *uninitVarState) use(tok *token.Token) {
	name, bad := s.uninit[tok.VarID]
	if !bad || s.reported[tok.VarID] {
		return
	}
	s.reported[tok.VarID] = true
	delete(s.uninit, tok.VarID)
	report(s.logger, s.list, tok, errorlogger.Error, "uninitvar",
		fmt.Sprintf("Uninitialized variable: %s", name))
}

// End checks the return expression: "return x;" with x never stored.
func (s *uninitVarState) End(tok *token.Token) {
	if tok == nil || tok.Str != "return" {
		return
	}
	for cur := tok.Next(); cur != nil && cur.Str != ";"; cur = cur.Next() {
		if cur.VarID != 0 && !cur.Prev().IsOp("&") {
			s.use(cur)
		}
	}
}

func (c *CheckUninitVar) ErrorMessages(logger errorlogger.ErrorLogger) {
	logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Error, "uninitvar",
		"Uninitialized variable: x", "", 0))
}
