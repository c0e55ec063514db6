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
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"naive.systems/nativecheck/errorlogger"
	"naive.systems/nativecheck/settings"
	"naive.systems/nativecheck/token"
)

// CheckUnusedFunctions is the one cross-file analysis: it accumulates
// defined and called function names over every checked file and
// reports the difference at the very end of the run. The workers of a
// -j run share one instance; the mutex serializes their access. Merge
// folds a separately filled instance into this one.
type CheckUnusedFunctions struct {
	noRaw

	mu      sync.Mutex
	defined map[string]errorlogger.Location
	used    map[string]bool
}

func NewCheckUnusedFunctions() *CheckUnusedFunctions {
	return &CheckUnusedFunctions{
		defined: map[string]errorlogger.Location{},
		used:    map[string]bool{},
	}
}

func (c *CheckUnusedFunctions) Name() string { return "UnusedFunctions" }

func (c *CheckUnusedFunctions) RunSimplified(list *token.List, set *settings.Settings, logger errorlogger.ErrorLogger) {
	if !set.IsEnabled("unusedFunction") {
		return
	}
	defTokens := map[*token.Token]bool{}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, fn := range Functions(list) {
		defTokens[fn.NameTok] = true
		if fn.NameTok.Str == "main" {
			continue
		}
		// static functions are file-local; a simple heuristic scan
		// backwards over the declaration tokens finds the keyword
		static := false
		for prev := fn.NameTok.Prev(); prev != nil && prev.Str != ";" && prev.Str != "}"; prev = prev.Prev() {
			if prev.Str == "static" {
				static = true
				break
			}
		}
		if static {
			continue
		}
		if _, exists := c.defined[fn.NameTok.Str]; !exists {
			c.defined[fn.NameTok.Str] = errorlogger.Location{
				File: list.FileAt(fn.NameTok.FileIndex),
				Line: fn.NameTok.Line,
			}
		}
	}
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if tok.Kind != token.Identifier || tok.VarID != 0 || defTokens[tok] {
			continue
		}
		if prev := tok.Prev(); prev != nil && (prev.Str == "." || prev.Str == "->") {
			continue
		}
		// calls and taken addresses both count as uses
		c.used[tok.Str] = true
	}
}

// Merge folds the accumulators of another worker into this one.
func (c *CheckUnusedFunctions) Merge(other *CheckUnusedFunctions) {
	if other == nil || other == c {
		return
	}
	other.mu.Lock()
	defer other.mu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, loc := range other.defined {
		if _, exists := c.defined[name]; !exists {
			c.defined[name] = loc
		}
	}
	for name := range other.used {
		c.used[name] = true
	}
}

// Finalize reports every defined, never used, non-static function.
func (c *CheckUnusedFunctions) Finalize(set *settings.Settings, logger errorlogger.ErrorLogger) {
	if !set.IsEnabled("unusedFunction") {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	names := maps.Keys(c.defined)
	slices.Sort(names)
	for _, name := range names {
		if c.used[name] {
			continue
		}
		loc := c.defined[name]
		logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Style, "unusedFunction",
			fmt.Sprintf("The function '%s' is never used.", name), loc.File, loc.Line))
	}
}

func (c *CheckUnusedFunctions) ErrorMessages(logger errorlogger.ErrorLogger) {
	logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Style, "unusedFunction",
		"The function 'f' is never used.", "", 0))
}
