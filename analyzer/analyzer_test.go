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

package analyzer_test

import (
	"bytes"
	"strings"
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

func newAnalyzer(configure func(*settings.Settings)) (*analyzer.Analyzer, *recorder, *settings.Settings) {
	set := settings.New()
	set.ErrorsOnly = true
	if configure != nil {
		configure(set)
	}
	rec := &recorder{}
	return analyzer.New(set, rec), rec, set
}

func TestMemleakEndToEnd(t *testing.T) {
	a, rec, _ := newAnalyzer(nil)
	a.AddFileContent("leak.c", "void f(){ char* p = malloc(10); }")
	exit := a.Check()
	if exit != 1 {
		t.Errorf("exit code %d, want 1", exit)
	}
	if len(rec.errs) != 1 || rec.errs[0].ID != "memleak" {
		t.Fatalf("diagnostics: %+v", rec.errs)
	}
	if rec.errs[0].Callstack[0].File != "leak.c" || rec.errs[0].Callstack[0].Line != 1 {
		t.Errorf("location: %+v", rec.errs[0].Callstack)
	}
}

func TestInlineSuppression(t *testing.T) {
	code := "// cppcheck-suppress memleak\nvoid f(){ char* p = malloc(10); }"
	a, rec, _ := newAnalyzer(func(set *settings.Settings) {
		set.InlineSuppressions = true
	})
	a.AddFileContent("leak.c", code)
	exit := a.Check()
	if exit != 0 {
		t.Errorf("exit code %d, want 0", exit)
	}
	if len(rec.errs) != 0 {
		t.Errorf("suppressed diagnostic still emitted: %+v", rec.errs)
	}
}

func TestInlineSuppressionNeedsFlag(t *testing.T) {
	code := "// cppcheck-suppress memleak\nvoid f(){ char* p = malloc(10); }"
	a, rec, _ := newAnalyzer(nil)
	a.AddFileContent("leak.c", code)
	if exit := a.Check(); exit != 1 {
		t.Errorf("exit code %d, want 1", exit)
	}
	if len(rec.errs) != 1 {
		t.Errorf("diagnostic missing without --inline-suppr: %+v", rec.errs)
	}
}

func TestUserSuppression(t *testing.T) {
	a, rec, set := newAnalyzer(nil)
	if err := set.Nomsg.Parse("memleak"); err != nil {
		t.Fatal(err)
	}
	a.AddFileContent("leak.c", "void f(){ char* p = malloc(10); }")
	if exit := a.Check(); exit != 0 {
		t.Errorf("exit code %d, want 0", exit)
	}
	if len(rec.errs) != 0 {
		t.Errorf("suppressed diagnostic emitted: %+v", rec.errs)
	}
}

func TestEmptyInput(t *testing.T) {
	a, rec, _ := newAnalyzer(nil)
	a.AddFileContent("empty.c", "")
	if exit := a.Check(); exit != 0 {
		t.Errorf("exit code %d, want 0", exit)
	}
	if len(rec.errs) != 0 {
		t.Errorf("empty input produced diagnostics: %+v", rec.errs)
	}
}

func TestCommentOnlyInput(t *testing.T) {
	a, rec, _ := newAnalyzer(nil)
	a.AddFileContent("c.c", "// just a comment\n/* and\nanother */\n\n")
	if exit := a.Check(); exit != 0 {
		t.Errorf("exit code %d, want 0", exit)
	}
	if len(rec.errs) != 0 {
		t.Errorf("comment-only input produced diagnostics: %+v", rec.errs)
	}
}

func TestSeverityFiltering(t *testing.T) {
	// obsoleteFunctionsgets is style; without --enable=style nothing
	// may be emitted
	a, rec, _ := newAnalyzer(nil)
	a.AddFileContent("g.c", "void f(char*b){gets(b);}")
	if exit := a.Check(); exit != 0 {
		t.Errorf("exit code %d, want 0", exit)
	}
	if len(rec.errs) != 0 {
		t.Errorf("filtered severity emitted: %+v", rec.errs)
	}
}

func TestStyleFindingDoesNotAffectExitCode(t *testing.T) {
	a, rec, set := newAnalyzer(nil)
	set.AddEnabled("style")
	a.AddFileContent("g.c", "void f(char*b){gets(b);}")
	if exit := a.Check(); exit != 0 {
		t.Errorf("style finding changed exit code to %d", exit)
	}
	if len(rec.errs) != 1 || rec.errs[0].ID != "obsoleteFunctionsgets" {
		t.Fatalf("diagnostics: %+v", rec.errs)
	}
}

func TestDeterministicOutput(t *testing.T) {
	code := "void f(){ char* p = malloc(10); int a[3]; a[5] = 0; int x; g(x); }"
	run := func() string {
		var buf bytes.Buffer
		set := settings.New()
		set.ErrorsOnly = true
		set.AddEnabled("all")
		logger := &errorlogger.TextLogger{Outw: &buf, Errw: &buf}
		a := analyzer.New(set, logger)
		a.AddFileContent("d.c", code)
		a.Check()
		return buf.String()
	}
	first := run()
	second := run()
	if first != second {
		t.Errorf("output differs between runs:\n%s\n---\n%s", first, second)
	}
	if first == "" {
		t.Error("expected at least one diagnostic")
	}
}

func TestDiagnosticsInSourceOrder(t *testing.T) {
	code := "void f(){ int a[3]; int x;\nif (x) { }\na[5] = 0;\n}"
	a, rec, _ := newAnalyzer(nil)
	a.AddFileContent("o.c", code)
	a.Check()
	lastLine := 0
	for _, msg := range rec.errs {
		if len(msg.Callstack) == 0 {
			continue
		}
		if msg.Callstack[0].Line < lastLine {
			t.Fatalf("diagnostics out of order: %+v", rec.errs)
		}
		lastLine = msg.Callstack[0].Line
	}
}

func TestTerminateFlag(t *testing.T) {
	a, rec, set := newAnalyzer(nil)
	set.Terminate()
	a.AddFileContent("leak.c", "void f(){ char* p = malloc(10); }")
	if exit := a.Check(); exit != 0 {
		t.Errorf("terminated run exit code %d", exit)
	}
	if len(rec.errs) != 0 {
		t.Errorf("terminated run emitted diagnostics: %+v", rec.errs)
	}
}

func TestUnreadableFile(t *testing.T) {
	a, rec, _ := newAnalyzer(nil)
	a.AddFile("/no/such/path/file.c")
	if exit := a.Check(); exit != 0 {
		t.Errorf("unreadable file exit code %d", exit)
	}
	for _, msg := range rec.errs {
		if msg.Severity == errorlogger.Error {
			t.Errorf("unreadable file produced an error: %+v", msg)
		}
	}
}

func TestDuplicatesAcrossConfigurationsEmittedOnce(t *testing.T) {
	code := "#ifdef A\nint unused_branch;\n#endif\nvoid f(){ char* p = malloc(10); }"
	a, rec, _ := newAnalyzer(nil)
	a.AddFileContent("leak.c", code)
	a.Check()
	if got := len(rec.errs); got != 1 {
		t.Fatalf("duplicate diagnostics across configurations: %+v", rec.errs)
	}
}

func TestMultipleFilesExitCode(t *testing.T) {
	a, _, _ := newAnalyzer(nil)
	a.AddFileContent("a.c", "void f(){ char* p = malloc(10); }")
	a.AddFileContent("b.c", "void g(){ int ok = 0; }")
	a.AddFileContent("c.c", "void h(){ char* q = malloc(1); }")
	if exit := a.Check(); exit != 2 {
		t.Errorf("exit code %d, want 2", exit)
	}
}

func TestClearFiles(t *testing.T) {
	a, rec, _ := newAnalyzer(nil)
	a.AddFileContent("leak.c", "void f(){ char* p = malloc(10); }")
	a.ClearFiles()
	if exit := a.Check(); exit != 0 {
		t.Errorf("exit code after ClearFiles: %d", exit)
	}
	if len(rec.errs) != 0 {
		t.Errorf("cleared files still checked: %+v", rec.errs)
	}
}

func TestVersion(t *testing.T) {
	if analyzer.Version() == "" {
		t.Error("version must not be empty")
	}
}

func TestXMLEndToEnd(t *testing.T) {
	var buf bytes.Buffer
	set := settings.New()
	set.ErrorsOnly = true
	set.XML = true
	set.XMLVersion = 2
	xml := &errorlogger.XMLLogger{Outw: &buf, Errw: &buf, Version: 2}
	a := analyzer.New(set, xml)
	a.AddFileContent("leak.c", "void f(){ char* p = malloc(10); }")
	xml.Begin()
	a.Check()
	xml.End()
	out := buf.String()
	if !strings.Contains(out, `id="memleak"`) || !strings.Contains(out, `file="leak.c"`) {
		t.Errorf("XML output incomplete:\n%s", out)
	}
}
