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

type allocKind int

const (
	noAlloc allocKind = iota
	allocMalloc
	allocNew
	allocNewArray
	allocFile
	allocDir
)

var allocFunctions = map[string]allocKind{
	"malloc": allocMalloc, "calloc": allocMalloc, "realloc": allocMalloc,
	"strdup": allocMalloc, "strndup": allocMalloc,
	"fopen": allocFile, "tmpfile": allocFile, "fdopen": allocFile,
	"opendir": allocDir, "fdopendir": allocDir,
}

// CheckMemoryLeak finds allocations bound to a local variable where no
// path to the function return passes ownership onward.
type CheckMemoryLeak struct{ noRaw }

func NewCheckMemoryLeak() *CheckMemoryLeak { return &CheckMemoryLeak{} }

func (c *CheckMemoryLeak) Name() string { return "MemoryLeak" }

func (c *CheckMemoryLeak) RunSimplified(list *token.List, set *settings.Settings, logger errorlogger.ErrorLogger) {
	for _, fn := range FunctionsAnyDepth(list) {
		if set.Terminated() {
			return
		}
		c.checkFunction(list, fn, logger)
	}
}

type allocation struct {
	nameTok *token.Token
	kind    allocKind
}

func (c *CheckMemoryLeak) checkFunction(list *token.List, fn Function, logger errorlogger.ErrorLogger) {
	var allocs []*allocation
	seen := map[int]bool{}
	for tok := fn.BodyOpen.Next(); tok != nil && tok != fn.BodyEnd; tok = tok.Next() {
		kind, ok := c.allocAt(tok)
		if !ok || tok.VarID == 0 || seen[tok.VarID] {
			continue
		}
		seen[tok.VarID] = true
		allocs = append(allocs, &allocation{nameTok: tok, kind: kind})
	}
	for _, alloc := range allocs {
		c.followVariable(list, fn, alloc.nameTok.VarID, alloc, logger)
	}
}

// allocAt matches "p = malloc(...)", "p = new T", "p = new T[...]" at
// tok and returns the allocation kind.
func (c *CheckMemoryLeak) allocAt(tok *token.Token) (allocKind, bool) {
	if token.Match(tok, "%var% = %var% (") > 0 {
		if kind, ok := allocFunctions[tok.StrAt(2)]; ok {
			return kind, true
		}
		return noAlloc, false
	}
	if token.Match(tok, "%var% = new") > 0 {
		// "new T [ n ]" is an array allocation
		cur := tok.TokAt(3)
		for cur != nil && (cur.IsName || cur.Str == "*" || cur.Str == "::") {
			cur = cur.Next()
		}
		if cur != nil && cur.Str == "[" {
			return allocNewArray, true
		}
		return allocNew, true
	}
	return noAlloc, false
}

var deallocOf = map[allocKind]string{
	allocMalloc:   "free",
	allocFile:     "fclose",
	allocDir:      "closedir",
	allocNew:      "delete",
	allocNewArray: "delete[]",
}

func (c *CheckMemoryLeak) followVariable(list *token.List, fn Function, varid int,
	alloc *allocation, logger errorlogger.ErrorLogger) {
	start := alloc.nameTok.TokAt(2)
	for tok := start; tok != nil && tok != fn.BodyEnd; tok = tok.Next() {
		switch {
		case token.Match(tok, "free|fclose|closedir ( %var% )") > 0 && tok.TokAt(2).VarID == varid:
			want := deallocOf[alloc.kind]
			if want != tok.Str {
				c.mismatch(list, tok, alloc, logger)
			}
			return
		case tok.Str == "delete" && tok.VarID == 0:
			del := tok.Next()
			isArray := false
			if del != nil && del.Str == "[" {
				// "delete [ ] p"
				if del.Link != nil {
					del = del.Link.Next()
				} else {
					del = del.TokAt(2)
				}
				isArray = true
			}
			if del == nil || del.VarID != varid {
				continue
			}
			want := deallocOf[alloc.kind]
			got := "delete"
			if isArray {
				got = "delete[]"
			}
			if want != got {
				c.mismatch(list, tok, alloc, logger)
			}
			return
		case tok.Str == "return":
			// ownership passes out if the variable appears in the
			// return expression
			for cur := tok.Next(); cur != nil && cur.Str != ";"; cur = cur.Next() {
				if cur.VarID == varid {
					return
				}
			}
		case tok.VarID == varid && token.Match(tok.Next(), "=") > 0 && tok != alloc.nameTok:
			// reassigned before any release: the original block is
			// unreachable from here; inconclusive, stay silent
			return
		case tok.VarID == varid && isOwnershipTransfer(tok):
			return
		}
	}
	report(logger, list, fn.BodyEnd, errorlogger.Error, "memleak",
		fmt.Sprintf("Memory leak: %s", alloc.nameTok.Str))
}

// isOwnershipTransfer reports uses that pass the pointer out of the
// function's hands: stored somewhere, or handed to a callee that is
// not a recognized deallocator.
func isOwnershipTransfer(tok *token.Token) bool {
	prev := tok.Prev()
	if prev == nil {
		return false
	}
	// "x = p" stores the pointer elsewhere
	if prev.Str == "=" {
		return true
	}
	// "f(p)" with unknown f may keep the pointer
	if prev.Str == "(" || prev.Str == "," {
		open := prev
		for open != nil && !open.IsOp("(") {
			open = open.Prev()
		}
		if open != nil && open.Prev() != nil && open.Prev().Kind == token.Identifier {
			name := open.Prev().Str
			if _, isAlloc := allocFunctions[name]; !isAlloc &&
				name != "free" && name != "fclose" && name != "closedir" {
				return true
			}
		}
	}
	return false
}

func (c *CheckMemoryLeak) mismatch(list *token.List, tok *token.Token,
	alloc *allocation, logger errorlogger.ErrorLogger) {
	report(logger, list, tok, errorlogger.Error, "mismatchAllocDealloc",
		fmt.Sprintf("Mismatching allocation and deallocation: %s", alloc.nameTok.Str))
}

func (c *CheckMemoryLeak) ErrorMessages(logger errorlogger.ErrorLogger) {
	logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Error, "memleak",
		"Memory leak: p", "", 0))
	logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Error, "mismatchAllocDealloc",
		"Mismatching allocation and deallocation: p", "", 0))
}

// noRaw provides the empty raw-stream hook most checks share.
type noRaw struct{}

func (noRaw) RunRaw(list *token.List, set *settings.Settings, logger errorlogger.ErrorLogger) {}
