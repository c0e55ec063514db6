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

func TestObsoleteGets(t *testing.T) {
	code := "#include <stdio.h>\nvoid f(char*b){gets(b);}"
	msgs := check(t, code, enableStyle)
	msg := expectOne(t, msgs, "obsoleteFunctionsgets", 2)
	if msg.Severity != errorlogger.Style {
		t.Errorf("severity %v, want style", msg.Severity)
	}
	if !strings.Contains(msg.Msg, "fgets") {
		t.Errorf("message lacks the replacement hint: %q", msg.Msg)
	}
}

func TestObsoleteRequiresStyle(t *testing.T) {
	code := "void f(char*b){gets(b);}"
	msgs := check(t, code, nil)
	expectNone(t, msgs, "obsoleteFunctionsgets")
}

func TestObsoleteMktemp(t *testing.T) {
	msgs := check(t, "void f(char*t){ mktemp(t); }", enableStyle)
	if len(byID(msgs, "obsoleteFunctionsmktemp")) != 1 {
		t.Fatalf("obsoleteFunctionsmktemp not reported: %+v", msgs)
	}
}

func TestObsoleteMemberCallNotReported(t *testing.T) {
	msgs := check(t, "void f(S* s, char* b){ s->gets(b); }", enableStyle)
	expectNone(t, msgs, "obsoleteFunctionsgets")
}

func TestObsoleteOwnDefinitionNotReported(t *testing.T) {
	msgs := check(t, "int gets(char* b) { return 0; }", enableStyle)
	expectNone(t, msgs, "obsoleteFunctionsgets")
}
