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

func TestArrayIndexOutOfBounds(t *testing.T) {
	msgs := check(t, "void f(){ int a[10]; a[10]=0; }", nil)
	msg := expectOne(t, msgs, "arrayIndexOutOfBounds", 1)
	if msg.Severity != errorlogger.Error {
		t.Errorf("severity %v, want error", msg.Severity)
	}
}

func TestArrayIndexInBounds(t *testing.T) {
	msgs := check(t, "void f(){ int a[10]; a[9]=0; a[0]=1; }", nil)
	expectNone(t, msgs, "arrayIndexOutOfBounds")
}

func TestArrayIndexFoldedExpression(t *testing.T) {
	// 5 + 5 folds to 10, which is out of bounds
	msgs := check(t, "void f(){ int a[10]; a[5 + 5]=0; }", nil)
	expectOne(t, msgs, "arrayIndexOutOfBounds", 1)
}

func TestLoopOverrun(t *testing.T) {
	code := "void f(){ int a[10]; int i; for (i = 0; i <= 10; i++) a[i] = 0; }"
	msgs := check(t, code, nil)
	expectOne(t, msgs, "bufferAccessOutOfBounds", 1)
}

func TestLoopInBounds(t *testing.T) {
	code := "void f(){ int a[10]; int i; for (i = 0; i < 10; i++) a[i] = 0; }"
	msgs := check(t, code, nil)
	expectNone(t, msgs, "bufferAccessOutOfBounds")
}

func TestLoopStrictUpperBound(t *testing.T) {
	code := "void f(){ int a[10]; int i; for (i = 0; i < 11; i++) a[i] = 0; }"
	msgs := check(t, code, nil)
	expectOne(t, msgs, "bufferAccessOutOfBounds", 1)
}

func TestUnknownArrayNotReported(t *testing.T) {
	msgs := check(t, "void f(int* a){ a[10]=0; }", nil)
	expectNone(t, msgs, "arrayIndexOutOfBounds")
}
