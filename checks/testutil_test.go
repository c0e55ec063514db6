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

	"naive.systems/nativecheck/analyzer"
	"naive.systems/nativecheck/errorlogger"
	"naive.systems/nativecheck/settings"
)

type recorder struct {
	errs []errorlogger.ErrorMessage
	out  []string
}

func (r *recorder) ReportErr(msg errorlogger.ErrorMessage) { r.errs = append(r.errs, msg) }
func (r *recorder) ReportOut(line string)                  { r.out = append(r.out, line) }

// check runs the full pipeline over one unreal file and returns the
// diagnostics.
func check(t *testing.T, code string, configure func(*settings.Settings)) []errorlogger.ErrorMessage {
	t.Helper()
	set := settings.New()
	set.ErrorsOnly = true
	if configure != nil {
		configure(set)
	}
	rec := &recorder{}
	a := analyzer.New(set, rec)
	a.AddFileContent("test.c", code)
	a.Check()
	return rec.errs
}

// byID filters diagnostics with the given id.
func byID(msgs []errorlogger.ErrorMessage, id string) []errorlogger.ErrorMessage {
	var out []errorlogger.ErrorMessage
	for _, msg := range msgs {
		if msg.ID == id {
			out = append(out, msg)
		}
	}
	return out
}

// expectOne asserts exactly one diagnostic with the id, at the given
// line, and returns it.
func expectOne(t *testing.T, msgs []errorlogger.ErrorMessage, id string, line int) errorlogger.ErrorMessage {
	t.Helper()
	got := byID(msgs, id)
	if len(got) != 1 {
		t.Fatalf("want exactly one %q, got %d (all: %+v)", id, len(got), msgs)
	}
	if len(got[0].Callstack) == 0 || got[0].Callstack[0].Line != line {
		t.Fatalf("%q at %+v, want line %d", id, got[0].Callstack, line)
	}
	return got[0]
}

// expectNone asserts that no diagnostic with the id was emitted.
func expectNone(t *testing.T, msgs []errorlogger.ErrorMessage, id string) {
	t.Helper()
	if got := byID(msgs, id); len(got) != 0 {
		t.Fatalf("unexpected %q diagnostics: %+v", id, got)
	}
}
