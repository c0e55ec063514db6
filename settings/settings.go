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

// Package settings holds the immutable per-run options the front-end
// builds and every core component reads.
package settings

import (
	"strings"
	"sync/atomic"

	"naive.systems/nativecheck/errorlogger"
)

// Platform selects the int/long/pointer widths used by sizeof folding.
type Platform int

const (
	Unspecified Platform = iota
	Unix32
	Unix64
	Win32A
	Win32W
	Win64
)

// PlatformFromString parses a --platform argument.
func PlatformFromString(s string) (Platform, bool) {
	switch s {
	case "unix32":
		return Unix32, true
	case "unix64":
		return Unix64, true
	case "win32A":
		return Win32A, true
	case "win32W":
		return Win32W, true
	case "win64":
		return Win64, true
	case "unspecified", "":
		return Unspecified, true
	}
	return Unspecified, false
}

// SizeofInt returns the width of int in bytes.
func (p Platform) SizeofInt() int { return 4 }

// SizeofLong returns the width of long in bytes.
func (p Platform) SizeofLong() int {
	switch p {
	case Unix64:
		return 8
	default:
		return 4
	}
}

// SizeofPointer returns the width of a data pointer in bytes.
func (p Platform) SizeofPointer() int {
	switch p {
	case Unix64, Win64:
		return 8
	default:
		return 4
	}
}

// Standards names the header sets considered known.
type Standards struct {
	C     bool
	CPP   bool
	Posix bool
}

// Settings is constructed by the front-end, then treated as read-only
// by the core. The terminate flag is the single exception.
type Settings struct {
	// enabled extra checks: style, warning, performance, portability,
	// information, unusedFunction, missingInclude. Severity "error" is
	// always on.
	enabled map[string]bool

	Inconclusive       bool
	InlineSuppressions bool
	Force              bool
	MaxConfigs         int
	Debug              bool
	Verbose            bool
	ErrorsOnly         bool // --quiet
	XML                bool
	XMLVersion         int
	ErrorList          bool

	UserDefines  []string // -D, "NAME" or "NAME=VALUE"
	UserUndefs   []string // -U
	IncludePaths []string // -I search roots
	IgnorePaths  []string // --ignore glob patterns

	Standards Standards
	Platform  Platform

	JobCount int

	ResultsDir string // --debug dump destination

	Nomsg       Suppressions // --suppress and suppression files
	NoFailNomsg Suppressions // inline cppcheck-suppress comments

	terminated int32
}

// New returns settings with the defaults of the reference tool.
func New() *Settings {
	return &Settings{
		enabled:    map[string]bool{},
		MaxConfigs: 12,
		XMLVersion: 1,
		JobCount:   1,
		Standards:  Standards{C: true, CPP: true},
	}
}

// AddEnabled turns on extra checks from an --enable argument, a comma
// separated list or "all".
func (s *Settings) AddEnabled(arg string) bool {
	all := []string{"style", "warning", "performance", "portability",
		"information", "unusedFunction", "missingInclude"}
	for _, name := range strings.Split(arg, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if name == "all" {
			for _, a := range all {
				s.enabled[a] = true
			}
			continue
		}
		known := false
		for _, a := range all {
			if a == name {
				known = true
				break
			}
		}
		if !known {
			return false
		}
		s.enabled[name] = true
	}
	return true
}

// IsEnabled reports whether a named check class was enabled.
func (s *Settings) IsEnabled(name string) bool {
	return s.enabled[name]
}

// SeverityEnabled reports whether diagnostics of the given severity
// may be emitted under the current settings.
func (s *Settings) SeverityEnabled(sev errorlogger.Severity) bool {
	switch sev {
	case errorlogger.Error:
		return true
	case errorlogger.Warning:
		return s.enabled["warning"] || s.enabled["style"]
	case errorlogger.Style:
		return s.enabled["style"]
	case errorlogger.Performance:
		return s.enabled["performance"] || s.enabled["style"]
	case errorlogger.Portability:
		return s.enabled["portability"]
	case errorlogger.Information:
		return s.enabled["information"]
	case errorlogger.Debug:
		return s.Debug
	}
	return false
}

// Terminate requests cooperative cancellation. Safe from any
// goroutine.
func (s *Settings) Terminate() {
	atomic.StoreInt32(&s.terminated, 1)
}

// Terminated polls the cancellation flag. Long loops in the
// preprocessor, the simplifier and the path engine check this between
// iterations.
func (s *Settings) Terminated() bool {
	return atomic.LoadInt32(&s.terminated) != 0
}
