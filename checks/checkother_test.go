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

	"naive.systems/nativecheck/settings"
)

func TestZeroDivision(t *testing.T) {
	msgs := check(t, "void f(){ int x = 1 / 0; }", nil)
	if len(byID(msgs, "zerodiv")) != 1 {
		t.Fatalf("zerodiv not reported: %+v", msgs)
	}
}

func TestZeroDivisionModulo(t *testing.T) {
	msgs := check(t, "void f(){ int x = 7 % 0; }", nil)
	if len(byID(msgs, "zerodiv")) != 1 {
		t.Fatalf("zerodiv not reported: %+v", msgs)
	}
}

func TestNoZeroDivision(t *testing.T) {
	msgs := check(t, "void f(){ int x = 10 / 5; }", nil)
	expectNone(t, msgs, "zerodiv")
}

func TestSelfAssignment(t *testing.T) {
	code := "void f(){ int x = 0; x = x; }"
	msgs := check(t, code, func(set *settings.Settings) {
		set.AddEnabled("warning")
	})
	if len(byID(msgs, "selfAssignment")) != 1 {
		t.Fatalf("selfAssignment not reported: %+v", msgs)
	}
}

func TestAssignmentOfOtherVariable(t *testing.T) {
	code := "void f(){ int x = 0; int y = 0; x = y; }"
	msgs := check(t, code, func(set *settings.Settings) {
		set.AddEnabled("warning")
	})
	expectNone(t, msgs, "selfAssignment")
}

func TestRedundantNullCheckDelete(t *testing.T) {
	code := "void f(int* p){ if (p) { delete p; } }"
	msgs := check(t, code, enableStyle)
	if len(byID(msgs, "redundantCondition")) != 1 {
		t.Fatalf("redundantCondition not reported: %+v", msgs)
	}
}
