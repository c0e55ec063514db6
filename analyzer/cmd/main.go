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

// The nativecheck command line front-end: it translates argv into a
// settings struct and a file list, then hands both to the analyzer.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/google/shlex"
	"naive.systems/nativecheck/analyzer"
	"naive.systems/nativecheck/errorlogger"
	"naive.systems/nativecheck/settings"
	"naive.systems/nativecheck/stats"
)

const usage = `nativecheck [options] [files or directories]

Options:
  -D<name>[=<value>]       define a preprocessor symbol
  -U<name>                 undefine a preprocessor symbol
  -I<path>                 add an include search path
  --enable=<list>          enable extra checks: all, style, warning,
                           performance, portability, information,
                           unusedFunction, missingInclude
  --inconclusive           report lower-confidence findings too
  --force                  check all configurations
  --max-configs=<N>        maximum configurations per file (default 12)
  --platform=<p>           unix32, unix64, win32A, win32W, win64
  --std=<s>                c89, c99, c++03, posix
  --suppress=<id[:file[:line]]>  suppress a diagnostic
  --suppressions-list=<file>     read suppressions from a file
  --inline-suppr           honor // cppcheck-suppress comments
  --ignore=<glob>          skip matching paths
  --xml                    write diagnostics as XML
  --xml-version=<1|2>      XML format version
  --errorlist              print all possible diagnostics and exit
  -j<N>                    number of worker threads
  -q, --quiet              only print diagnostics
  -v, --verbose            print statistics
  --debug                  dump expanded configurations
  --results-dir=<dir>      where dumps and run metadata are written
  --version                print version and exit
  -h, --help               print this help and exit

Response files: an argument @file is replaced by the arguments read
from that file.`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	set := settings.New()
	var paths []string

	expanded, err := expandResponseFiles(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	errorList := false
	for i := 0; i < len(expanded); i++ {
		arg := expanded[i]
		switch {
		case arg == "-h" || arg == "--help":
			fmt.Println(usage)
			return 0
		case arg == "--version":
			fmt.Printf("NativeCheck %s\n", analyzer.Version())
			return 0
		case strings.HasPrefix(arg, "-D") && len(arg) > 2:
			set.UserDefines = append(set.UserDefines, arg[2:])
		case strings.HasPrefix(arg, "-U") && len(arg) > 2:
			set.UserUndefs = append(set.UserUndefs, arg[2:])
		case strings.HasPrefix(arg, "-I") && len(arg) > 2:
			set.IncludePaths = append(set.IncludePaths, arg[2:])
		case arg == "-I" && i+1 < len(expanded):
			i++
			set.IncludePaths = append(set.IncludePaths, expanded[i])
		case strings.HasPrefix(arg, "--enable="):
			if !set.AddEnabled(arg[len("--enable="):]) {
				fmt.Fprintf(os.Stderr, "nativecheck: unknown --enable value: %s\n", arg)
				return 1
			}
		case arg == "--inconclusive":
			set.Inconclusive = true
		case arg == "--force" || arg == "-f":
			set.Force = true
		case strings.HasPrefix(arg, "--max-configs="):
			n, err := strconv.Atoi(arg[len("--max-configs="):])
			if err != nil || n < 1 {
				fmt.Fprintf(os.Stderr, "nativecheck: bad --max-configs value: %s\n", arg)
				return 1
			}
			set.MaxConfigs = n
		case strings.HasPrefix(arg, "--platform="):
			p, ok := settings.PlatformFromString(arg[len("--platform="):])
			if !ok {
				fmt.Fprintf(os.Stderr, "nativecheck: unknown platform: %s\n", arg)
				return 1
			}
			set.Platform = p
		case strings.HasPrefix(arg, "--std="):
			if !applyStandard(set, arg[len("--std="):]) {
				fmt.Fprintf(os.Stderr, "nativecheck: unknown standard: %s\n", arg)
				return 1
			}
		case strings.HasPrefix(arg, "--suppress="):
			if err := set.Nomsg.Parse(arg[len("--suppress="):]); err != nil {
				fmt.Fprintf(os.Stderr, "nativecheck: %v\n", err)
				return 1
			}
		case strings.HasPrefix(arg, "--suppressions-list="):
			if err := loadSuppressionsList(set, arg[len("--suppressions-list="):]); err != nil {
				fmt.Fprintf(os.Stderr, "nativecheck: %v\n", err)
				return 1
			}
		case arg == "--inline-suppr":
			set.InlineSuppressions = true
		case strings.HasPrefix(arg, "--ignore="):
			set.IgnorePaths = append(set.IgnorePaths, arg[len("--ignore="):])
		case arg == "--xml":
			set.XML = true
		case strings.HasPrefix(arg, "--xml-version="):
			v, err := strconv.Atoi(arg[len("--xml-version="):])
			if err != nil || (v != 1 && v != 2) {
				fmt.Fprintf(os.Stderr, "nativecheck: bad --xml-version value: %s\n", arg)
				return 1
			}
			set.XML = true
			set.XMLVersion = v
		case strings.HasPrefix(arg, "-j"):
			n, err := strconv.Atoi(arg[2:])
			if err != nil || n < 1 {
				fmt.Fprintf(os.Stderr, "nativecheck: bad -j value: %s\n", arg)
				return 1
			}
			set.JobCount = n
		case arg == "-q" || arg == "--quiet":
			set.ErrorsOnly = true
		case arg == "-v" || arg == "--verbose":
			set.Verbose = true
		case arg == "--debug":
			set.Debug = true
		case strings.HasPrefix(arg, "--results-dir="):
			set.ResultsDir = arg[len("--results-dir="):]
		case arg == "--errorlist":
			errorList = true
		case strings.HasPrefix(arg, "-"):
			fmt.Fprintf(os.Stderr, "nativecheck: unknown option: %s\n", arg)
			return 1
		default:
			paths = append(paths, arg)
		}
	}

	if err := settings.LoadProjectFile(set, "nativecheck.yml"); err != nil {
		glog.Warningf("main: %v", err)
	}

	var logger errorlogger.ErrorLogger
	var xml *errorlogger.XMLLogger
	if set.XML {
		xml = &errorlogger.XMLLogger{Outw: os.Stdout, Errw: os.Stderr, Version: set.XMLVersion}
		logger = xml
	} else {
		logger = &errorlogger.TextLogger{Outw: os.Stdout, Errw: os.Stderr}
	}

	a := analyzer.New(set, logger)
	if errorList {
		a.ErrorList()
		return 0
	}
	if len(paths) == 0 {
		fmt.Println(usage)
		return 0
	}
	for _, p := range paths {
		a.AddFile(p)
	}

	if xml != nil {
		xml.Begin()
	}
	exitCode := a.Check()
	if xml != nil {
		xml.End()
	}
	if set.Verbose {
		printStatistics(a, logger)
	}
	return exitCode
}

// expandResponseFiles replaces "@file" arguments by the
// shell-splitted contents of the file.
func expandResponseFiles(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if !strings.HasPrefix(arg, "@") {
			out = append(out, arg)
			continue
		}
		content, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, fmt.Errorf("cannot read response file %s: %v", arg[1:], err)
		}
		words, err := shlex.Split(string(content))
		if err != nil {
			return nil, fmt.Errorf("cannot parse response file %s: %v", arg[1:], err)
		}
		out = append(out, words...)
	}
	return out, nil
}

func applyStandard(set *settings.Settings, std string) bool {
	switch std {
	case "c89", "c99", "c11":
		set.Standards.C = true
	case "c++03", "c++11", "c++":
		set.Standards.CPP = true
	case "posix":
		set.Standards.Posix = true
	default:
		return false
	}
	return true
}

func loadSuppressionsList(set *settings.Settings, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot read suppressions list %s: %v", path, err)
	}
	defer f.Close()
	return set.Nomsg.ParseFile(bufio.NewScanner(f))
}

func printStatistics(a *analyzer.Analyzer, logger errorlogger.ErrorLogger) {
	files, err := a.Lister.List(a.Filenames(), true)
	if err != nil {
		return
	}
	var onDisk []string
	for _, f := range files {
		if !a.Lister.HasContent(f) {
			onDisk = append(onDisk, f)
		}
	}
	loc, err := stats.CountLOC(onDisk)
	if err != nil {
		glog.V(1).Infof("main: %v", err)
		return
	}
	logger.ReportOut(fmt.Sprintf("Checked %d files, %d lines of code", len(files), loc))
	logger.ReportOut(a.Stats.String())
}
