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
	"strings"
	"testing"

	"naive.systems/nativecheck/errorlogger"
)

func TestMemleakSimple(t *testing.T) {
	msgs := check(t, "void f(){ char* p = malloc(10); }", nil)
	msg := expectOne(t, msgs, "memleak", 1)
	if msg.Severity != errorlogger.Error {
		t.Errorf("severity %v, want error", msg.Severity)
	}
	if !strings.Contains(msg.Msg, "p") {
		t.Errorf("message does not name the variable: %q", msg.Msg)
	}
}

func TestMemleakFreed(t *testing.T) {
	msgs := check(t, "void f(){ char* p = malloc(10); free(p); }", nil)
	expectNone(t, msgs, "memleak")
}

func TestMemleakReturned(t *testing.T) {
	msgs := check(t, "char* f(){ char* p = malloc(10); return p; }", nil)
	expectNone(t, msgs, "memleak")
}

func TestMemleakPassedOn(t *testing.T) {
	msgs := check(t, "void f(){ char* p = malloc(10); store(p); }", nil)
	expectNone(t, msgs, "memleak")
}

func TestMemleakNewDelete(t *testing.T) {
	msgs := check(t, "void f(){ int* p = new int; delete p; }", nil)
	expectNone(t, msgs, "memleak")
	expectNone(t, msgs, "mismatchAllocDealloc")
}

func TestMismatchNewArrayDelete(t *testing.T) {
	msgs := check(t, "void f(){ int* p = new int[10]; delete p; }", nil)
	expectOne(t, msgs, "mismatchAllocDealloc", 1)
}

func TestMismatchMallocDelete(t *testing.T) {
	msgs := check(t, "void f(){ int* p = malloc(40); delete p; }", nil)
	expectOne(t, msgs, "mismatchAllocDealloc", 1)
}

func TestMemleakFopen(t *testing.T) {
	msgs := check(t, "void f(){ FILE* fp = fopen(\"x\", \"r\"); }", nil)
	if len(byID(msgs, "memleak")) != 1 {
		t.Fatalf("fopen leak not found: %+v", msgs)
	}
}

func TestMemleakMultiLine(t *testing.T) {
	code := "void f()\n{\n  char* p = malloc(10);\n}\n"
	msgs := check(t, code, nil)
	expectOne(t, msgs, "memleak", 4)
}
