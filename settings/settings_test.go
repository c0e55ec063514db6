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

package settings

import (
	"os"
	"path/filepath"
	"testing"

	"naive.systems/nativecheck/errorlogger"
)

func TestAddEnabled(t *testing.T) {
	s := New()
	if !s.AddEnabled("style,performance") {
		t.Fatal("valid enable list rejected")
	}
	if !s.IsEnabled("style") || !s.IsEnabled("performance") {
		t.Error("enables not recorded")
	}
	if s.IsEnabled("unusedFunction") {
		t.Error("unrequested enable on")
	}
	if s.AddEnabled("nonsense") {
		t.Error("unknown enable accepted")
	}
	s2 := New()
	if !s2.AddEnabled("all") {
		t.Fatal("all rejected")
	}
	for _, name := range []string{"style", "warning", "performance", "portability",
		"information", "unusedFunction", "missingInclude"} {
		if !s2.IsEnabled(name) {
			t.Errorf("all did not enable %s", name)
		}
	}
}

func TestSeverityEnabled(t *testing.T) {
	s := New()
	if !s.SeverityEnabled(errorlogger.Error) {
		t.Error("error severity must always be on")
	}
	if s.SeverityEnabled(errorlogger.Style) {
		t.Error("style on without --enable")
	}
	s.AddEnabled("style")
	if !s.SeverityEnabled(errorlogger.Style) {
		t.Error("style off after --enable=style")
	}
	if !s.SeverityEnabled(errorlogger.Warning) {
		t.Error("style implies warning")
	}
	if s.SeverityEnabled(errorlogger.Information) {
		t.Error("information on without --enable")
	}
}

func TestTerminateFlag(t *testing.T) {
	s := New()
	if s.Terminated() {
		t.Fatal("fresh settings already terminated")
	}
	s.Terminate()
	if !s.Terminated() {
		t.Fatal("Terminate did not set the flag")
	}
}

func TestPlatformWidths(t *testing.T) {
	if Unix64.SizeofLong() != 8 || Unix32.SizeofLong() != 4 {
		t.Error("long widths wrong")
	}
	if Win64.SizeofPointer() != 8 || Win32A.SizeofPointer() != 4 {
		t.Error("pointer widths wrong")
	}
	if _, ok := PlatformFromString("win64"); !ok {
		t.Error("win64 not recognized")
	}
	if _, ok := PlatformFromString("vax"); ok {
		t.Error("unknown platform accepted")
	}
}

func TestSuppressionsParse(t *testing.T) {
	var s Suppressions
	if err := s.Parse("memleak"); err != nil {
		t.Fatal(err)
	}
	if err := s.Parse("uninitvar:x.c:10"); err != nil {
		t.Fatal(err)
	}
	if err := s.Parse(""); err == nil {
		t.Error("empty suppression accepted")
	}
	if !s.IsSuppressed("memleak", "whatever.c", 3) {
		t.Error("bare id must match any file and line")
	}
	if !s.IsSuppressed("uninitvar", "x.c", 10) {
		t.Error("exact match failed")
	}
	if s.IsSuppressed("uninitvar", "x.c", 11) {
		t.Error("line mismatch suppressed")
	}
	if s.IsSuppressed("uninitvar", "y.c", 10) {
		t.Error("file mismatch suppressed")
	}
}

func TestSuppressionsGlob(t *testing.T) {
	var s Suppressions
	if err := s.Parse("memleak:src/*.c"); err != nil {
		t.Fatal(err)
	}
	if !s.IsSuppressed("memleak", "src/a.c", 1) {
		t.Error("glob did not match")
	}
	if s.IsSuppressed("memleak", "other/a.c", 1) {
		t.Error("glob matched the wrong directory")
	}
}

func TestProjectFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nativecheck.yml")
	content := `defines:
  - FOO=1
include_paths:
  - inc
enable:
  - style
suppress:
  - memleak:x.c
max_configs: 5
platform: unix64
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	s := New()
	if err := LoadProjectFile(s, path); err != nil {
		t.Fatal(err)
	}
	if len(s.UserDefines) != 1 || s.UserDefines[0] != "FOO=1" {
		t.Errorf("defines: %v", s.UserDefines)
	}
	if len(s.IncludePaths) != 1 || s.IncludePaths[0] != "inc" {
		t.Errorf("include paths: %v", s.IncludePaths)
	}
	if !s.IsEnabled("style") {
		t.Error("enable not applied")
	}
	if !s.Nomsg.IsSuppressed("memleak", "x.c", 9) {
		t.Error("suppression not applied")
	}
	if s.MaxConfigs != 5 {
		t.Errorf("max configs: %d", s.MaxConfigs)
	}
	if s.Platform != Unix64 {
		t.Errorf("platform: %v", s.Platform)
	}
}

func TestProjectFileMissing(t *testing.T) {
	s := New()
	if err := LoadProjectFile(s, filepath.Join(t.TempDir(), "absent.yml")); err != nil {
		t.Errorf("missing project file must not be an error: %v", err)
	}
}
