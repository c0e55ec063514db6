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

	"naive.systems/nativecheck/analyzer"
	"naive.systems/nativecheck/checks"
	"naive.systems/nativecheck/errorlogger"
	"naive.systems/nativecheck/settings"
)

func checkFiles(t *testing.T, files map[string]string) *recorder {
	t.Helper()
	set := settings.New()
	set.ErrorsOnly = true
	set.AddEnabled("unusedFunction")
	rec := &recorder{}
	a := analyzer.New(set, rec)
	for path, content := range files {
		a.AddFileContent(path, content)
	}
	a.Check()
	return rec
}

func TestUnusedFunctionAcrossFiles(t *testing.T) {
	rec := checkFiles(t, map[string]string{
		"a.c": "void foo() { }\n",
		"b.c": "int main() { return 0; }\n",
	})
	unused := byID(rec.errs, "unusedFunction")
	if len(unused) != 1 {
		t.Fatalf("want one unusedFunction, got %+v", rec.errs)
	}
	if !strings.Contains(unused[0].Msg, "'foo'") {
		t.Errorf("wrong function named: %q", unused[0].Msg)
	}
}

func TestCalledFunctionNotReported(t *testing.T) {
	rec := checkFiles(t, map[string]string{
		"a.c": "void foo() { }\n",
		"b.c": "int main() { foo(); return 0; }\n",
	})
	expectNone(t, rec.errs, "unusedFunction")
}

func TestMainNeverReported(t *testing.T) {
	rec := checkFiles(t, map[string]string{
		"b.c": "int main() { return 0; }\n",
	})
	expectNone(t, rec.errs, "unusedFunction")
}

func TestStaticFunctionNotReported(t *testing.T) {
	rec := checkFiles(t, map[string]string{
		"a.c": "static void helper() { }\nint main() { return 0; }\n",
	})
	expectNone(t, rec.errs, "unusedFunction")
}

// Two accumulators filled by separate runs report as one after Merge.
func TestWorkerAccumulatorMerge(t *testing.T) {
	set := settings.New()
	set.AddEnabled("unusedFunction")

	// worker 1 saw the definition, worker 2 saw the call
	w1 := checks.NewCheckUnusedFunctions()
	w2 := checks.NewCheckUnusedFunctions()
	runOn := func(c *checks.CheckUnusedFunctions, code string) {
		rec := &recorder{}
		a := analyzer.New(set, rec)
		a.Registry = &checks.Registry{Checks: []checks.Check{c}, UnusedFunctions: nil}
		a.AddFileContent("w.c", code)
		a.Check()
	}
	runOn(w1, "void foo() { }\nvoid bar() { }\n")
	runOn(w2, "int main() { foo(); return 0; }\n")

	w1.Merge(w2)
	rec := &recorder{}
	w1.Finalize(set, rec)
	unused := byID(rec.errs, "unusedFunction")
	if len(unused) != 1 || !strings.Contains(unused[0].Msg, "'bar'") {
		t.Fatalf("merged accumulators reported %+v", rec.errs)
	}
	for _, msg := range unused {
		if msg.Severity != errorlogger.Style {
			t.Errorf("severity %v, want style", msg.Severity)
		}
	}
}

func TestUnusedFunctionNeedsEnable(t *testing.T) {
	set := settings.New()
	set.ErrorsOnly = true
	rec := &recorder{}
	a := analyzer.New(set, rec)
	a.AddFileContent("a.c", "void foo() { }\n")
	a.Check()
	expectNone(t, rec.errs, "unusedFunction")
}
