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
	"naive.systems/nativecheck/mathlib"
	"naive.systems/nativecheck/settings"
	"naive.systems/nativecheck/token"
)

// CheckBufferOverrun finds out-of-bounds accesses of constant-size
// arrays: constant indexes directly, loop-bound indexes through the
// execution-path engine.
type CheckBufferOverrun struct{ noRaw }

func NewCheckBufferOverrun() *CheckBufferOverrun { return &CheckBufferOverrun{} }

func (c *CheckBufferOverrun) Name() string { return "BufferOverrun" }

func (c *CheckBufferOverrun) RunSimplified(list *token.List, set *settings.Settings, logger errorlogger.ErrorLogger) {
	arrays := collectArraySizes(list)
	if len(arrays) == 0 {
		return
	}
	c.checkConstantIndexes(list, arrays, logger)
	for _, fn := range FunctionsAnyDepth(list) {
		if set.Terminated() {
			return
		}
		state := &arrayBoundsState{
			check:    c,
			list:     list,
			logger:   logger,
			arrays:   arrays,
			ranges:   map[int]int64{},
			reported: map[*token.Token]bool{},
		}
		WalkPaths(fn.BodyOpen, state, set)
	}
}

// collectArraySizes maps the varid of every "T a[N];" declaration to
// its element count.
func collectArraySizes(list *token.List) map[int]int64 {
	arrays := map[int]int64{}
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if token.Match(tok, "%type% %var% [ %num% ]") > 0 && tok.TokAt(1).VarID != 0 {
			arrays[tok.TokAt(1).VarID] = mathlib.ToLongNumber(tok.StrAt(3))
		}
	}
	return arrays
}

// checkConstantIndexes reports "a[N]" with constant N outside [0, N).
func (c *CheckBufferOverrun) checkConstantIndexes(list *token.List, arrays map[int]int64, logger errorlogger.ErrorLogger) {
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if token.Match(tok, "%var% [ %num% ]") == 0 || tok.VarID == 0 {
			continue
		}
		size, known := arrays[tok.VarID]
		if !known {
			continue
		}
		// skip the declaration itself
		if prev := tok.Prev(); prev != nil && (prev.IsStandardType || prev.Kind == token.TypeName) {
			continue
		}
		index := mathlib.ToLongNumber(tok.StrAt(2))
		if index < 0 || index >= size {
			report(logger, list, tok, errorlogger.Error, "arrayIndexOutOfBounds",
				fmt.Sprintf("Array '%s[%d]' index %d out of bounds", tok.Str, size, index))
		}
	}
}

// arrayBoundsState tracks the upper bounds of induction variables so
// loop accesses like "for (i = 0; i <= 10; i++) a[i] = 0;" can be
// judged against the array size.
type arrayBoundsState struct {
	check    *CheckBufferOverrun
	list     *token.List
	logger   errorlogger.ErrorLogger
	arrays   map[int]int64
	ranges   map[int]int64 // varid -> maximum value, inclusive
	reported map[*token.Token]bool
}

func (s *arrayBoundsState) Copy() PathState {
	cp := &arrayBoundsState{
		check:    s.check,
		list:     s.list,
		logger:   s.logger,
		arrays:   s.arrays,
		ranges:   make(map[int]int64, len(s.ranges)),
		reported: s.reported,
	}
	for k, v := range s.ranges {
		cp.ranges[k] = v
	}
	return cp
}

func (s *arrayBoundsState) Merge(other PathState) {
	o, ok := other.(*arrayBoundsState)
	if !ok {
		return
	}
	for k, v := range o.ranges {
		if cur, exists := s.ranges[k]; !exists || v > cur {
			s.ranges[k] = v
		}
	}
}

func (s *arrayBoundsState) End(tok *token.Token) {}

func (s *arrayBoundsState) Parse(tok *token.Token) *token.Token {
	// loop header: "i = 0 ; i < 10" or "i = 0 ; i <= 10"
	if token.Match(tok, "%var% = %num% ; %var% <|<= %num%") > 0 &&
		tok.VarID != 0 && tok.VarID == tok.TokAt(4).VarID {
		bound := mathlib.ToLongNumber(tok.StrAt(6))
		if tok.StrAt(5) == "<" {
			bound--
		}
		lower := mathlib.ToLongNumber(tok.StrAt(2))
		if lower > bound {
			bound = lower
		}
		s.ranges[tok.VarID] = bound
		return tok.TokAt(3)
	}
	// a new assignment invalidates the tracked range
	if token.Match(tok, "%var% =") > 0 && tok.VarID != 0 {
		delete(s.ranges, tok.VarID)
		return tok
	}
	// indexed access with a tracked induction variable
	if token.Match(tok, "%var% [ %var% ]") > 0 && tok.VarID != 0 {
		size, known := s.arrays[tok.VarID]
		idx := tok.TokAt(2)
		max, tracked := s.ranges[idx.VarID]
		if known && tracked && idx.VarID != 0 && max >= size && !s.reported[tok] {
			s.reported[tok] = true
			report(s.logger, s.list, tok, errorlogger.Error, "bufferAccessOutOfBounds",
				fmt.Sprintf("Buffer access out-of-bounds: %s", tok.Str))
		}
	}
	return tok
}

func (c *CheckBufferOverrun) ErrorMessages(logger errorlogger.ErrorLogger) {
	logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Error, "arrayIndexOutOfBounds",
		"Array 'a[10]' index 10 out of bounds", "", 0))
	logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Error, "bufferAccessOutOfBounds",
		"Buffer access out-of-bounds: a", "", 0))
}
