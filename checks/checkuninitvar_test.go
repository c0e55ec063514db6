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

package checks_test

import (
	"testing"

	"naive.systems/nativecheck/errorlogger"
)

func TestUninitVarReturn(t *testing.T) {
	msgs := check(t, "int f(){ int x; return x; }", nil)
	msg := expectOne(t, msgs, "uninitvar", 1)
	if msg.Severity != errorlogger.Error {
		t.Errorf("severity %v, want error", msg.Severity)
	}
}

func TestUninitVarAssignedFirst(t *testing.T) {
	msgs := check(t, "int f(){ int x; x = 1; return x; }", nil)
	expectNone(t, msgs, "uninitvar")
}

func TestUninitVarInitialized(t *testing.T) {
	msgs := check(t, "int f(){ int x = 0; return x; }", nil)
	expectNone(t, msgs, "uninitvar")
}

func TestUninitVarUseInExpression(t *testing.T) {
	msgs := check(t, "int f(){ int x; int y; y = x + 1; return y; }", nil)
	expectOne(t, msgs, "uninitvar", 1)
}

func TestUninitVarBranchSomePath(t *testing.T) {
	code := "int f(int c){ int x; if (c) { x = 1; } return x; }"
	msgs := check(t, code, nil)
	expectOne(t, msgs, "uninitvar", 1)
}

func TestUninitVarBothBranchesAssign(t *testing.T) {
	code := "int f(int c){ int x; if (c) { x = 1; } else { x = 2; } return x; }"
	msgs := check(t, code, nil)
	expectNone(t, msgs, "uninitvar")
}

func TestUninitVarAddressTaken(t *testing.T) {
	msgs := check(t, "int f(){ int x; init(&x); return x; }", nil)
	expectNone(t, msgs, "uninitvar")
}

func TestUninitVarParameter(t *testing.T) {
	msgs := check(t, "int f(int x){ return x; }", nil)
	expectNone(t, msgs, "uninitvar")
}
