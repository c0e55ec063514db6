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

// Package analyzer drives the whole pipeline: for every file and every
// preprocessor configuration it tokenizes, simplifies and runs the
// check registry, then reports the collected diagnostics.
package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"golang.org/x/exp/slices"
	"naive.systems/nativecheck/atomic"
	"naive.systems/nativecheck/checks"
	"naive.systems/nativecheck/errorlogger"
	"naive.systems/nativecheck/filelister"
	"naive.systems/nativecheck/preprocessor"
	"naive.systems/nativecheck/settings"
	"naive.systems/nativecheck/simplifier"
	"naive.systems/nativecheck/stats"
)

// version of the analyzer core.
const version = "1.0"

// Version returns the version string printed by --version.
func Version() string { return version }

// exit codes never exceed this; shells truncate anyway.
const maxExitCode = 255

// Analyzer checks a set of files against one settings struct.
type Analyzer struct {
	Settings *settings.Settings
	Logger   errorlogger.ErrorLogger
	Registry *checks.Registry
	Lister   *filelister.Lister

	// Stats counts the emitted diagnostics per severity.
	Stats stats.SeverityCount

	filenames []string
}

// New builds an analyzer with a full registry and an empty file list.
func New(set *settings.Settings, logger errorlogger.ErrorLogger) *Analyzer {
	return &Analyzer{
		Settings: set,
		Logger:   logger,
		Registry: checks.NewRegistry(),
		Lister:   filelister.New(set.IgnorePaths),
	}
}

// AddFile queues a path; directories are expanded by the lister when
// the check starts.
func (a *Analyzer) AddFile(path string) {
	a.filenames = append(a.filenames, path)
}

// AddFileContent queues an unreal file: path is used for reporting,
// content is checked instead of anything on disk.
func (a *Analyzer) AddFileContent(path, content string) {
	a.Lister.AddContent(path, content)
	a.filenames = append(a.filenames, path)
}

// ClearFiles drops every queued file.
func (a *Analyzer) ClearFiles() {
	a.filenames = nil
}

// Filenames returns the queued paths.
func (a *Analyzer) Filenames() []string {
	return a.filenames
}

// Terminate requests cooperative cancellation of a running Check.
func (a *Analyzer) Terminate() {
	a.Settings.Terminate()
}

// fileResult is one file's collected output.
type fileResult struct {
	msgs     []errorlogger.ErrorMessage
	hasError bool
}

// Check runs the analysis and returns the number of files that got at
// least one error severity diagnostic, capped at 255.
func (a *Analyzer) Check() int {
	// an unreadable path is a per-file failure: report, skip, go on
	var reachable []string
	for _, p := range a.filenames {
		if a.Lister.HasContent(p) {
			reachable = append(reachable, p)
			continue
		}
		if _, err := os.Stat(p); err != nil {
			glog.Warningf("analyzer: %v", err)
			if a.Settings.SeverityEnabled(errorlogger.Information) {
				a.Logger.ReportErr(errorlogger.NewErrorMessage(
					errorlogger.Information, "fileError",
					fmt.Sprintf("File cannot be read: %s", p), p, 0))
			}
			continue
		}
		reachable = append(reachable, p)
	}
	files, err := a.Lister.List(reachable, true)
	if err != nil {
		glog.Errorf("analyzer: %v", err)
		return 0
	}
	slices.Sort(files)

	results := make([]*fileResult, len(files))
	jobs := a.Settings.JobCount
	if jobs < 1 {
		jobs = 1
	}
	if jobs == 1 {
		for i, path := range files {
			if a.Settings.Terminated() {
				break
			}
			results[i] = a.checkFile(path)
			a.reportStatus(i+1, len(files))
		}
	} else {
		var wg sync.WaitGroup
		indexes := make(chan int)
		for w := 0; w < jobs; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range indexes {
					results[i] = a.checkFile(files[i])
				}
			}()
		}
		for i := range files {
			if a.Settings.Terminated() {
				break
			}
			indexes <- i
		}
		close(indexes)
		wg.Wait()
	}

	errorCount := 0
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, msg := range res.msgs {
			a.Stats.Accumulate(msg.Severity)
			a.Logger.ReportErr(msg)
		}
		if res.hasError {
			errorCount++
		}
	}

	// whole-program analyses run after the last file
	final := newCollector(a.Settings)
	a.Registry.Finalize(a.Settings, final)
	for _, msg := range final.sorted() {
		a.Stats.Accumulate(msg.Severity)
		a.Logger.ReportErr(msg)
	}

	if a.Settings.ResultsDir != "" {
		a.Stats.WriteTo(a.Settings.ResultsDir)
	}
	if errorCount > maxExitCode {
		errorCount = maxExitCode
	}
	return errorCount
}

// checkFile runs preprocessing, every configuration pass and all
// checks for one file. All failure kinds inside degrade to diagnostics
// or early returns; nothing escapes.
func (a *Analyzer) checkFile(path string) *fileResult {
	col := newCollector(a.Settings)
	content, err := a.Lister.ReadFile(path)
	if err != nil {
		glog.Warningf("analyzer: %v", err)
		col.ReportErr(errorlogger.NewErrorMessage(
			errorlogger.Information, "fileError",
			fmt.Sprintf("File cannot be read: %s", path), path, 0))
		return col.result()
	}
	pre := preprocessor.New(a.Settings, col, a.Lister)
	cfgs, err := pre.Preprocess(path, content)
	if err != nil {
		// syntaxError has been reported by the preprocessor
		return col.result()
	}
	for _, cfg := range cfgs {
		if a.Settings.Terminated() {
			break
		}
		a.dumpConfig(path, cfg)
		tokenizer := simplifier.New(a.Settings, col)
		list, err := tokenizer.Tokenize(cfg.Code, path)
		if err != nil {
			// per configuration fatal; try the next one
			continue
		}
		a.Registry.RunRaw(list, a.Settings, col)
		a.Registry.RunSimplified(list, a.Settings, col)
	}
	return col.result()
}

// dumpConfig writes the expanded source of one configuration under
// the results dir when debugging.
func (a *Analyzer) dumpConfig(path string, cfg preprocessor.Config) {
	if !a.Settings.Debug || a.Settings.ResultsDir == "" {
		return
	}
	name := fmt.Sprintf("%s.%s.dump", filepath.Base(path), uuid.NewString())
	dumpPath := filepath.Join(a.Settings.ResultsDir, name)
	header := fmt.Sprintf("// configuration: %q\n", cfg.Name)
	if err := atomic.WriteString(dumpPath, header+cfg.Code); err != nil {
		glog.Errorf("analyzer: cannot write dump: %v", err)
	}
}

func (a *Analyzer) reportStatus(index, max int) {
	if a.Settings.ErrorsOnly || max == 0 {
		return
	}
	a.Logger.ReportOut(fmt.Sprintf("%d/%d files checked %d%% done",
		index, max, 100*index/max))
}

// ErrorList dumps an example of every diagnostic the registry can
// produce, wrapped in the XML skeleton.
func (a *Analyzer) ErrorList() {
	xml := &errorlogger.XMLLogger{Outw: os.Stdout, Errw: os.Stdout, Version: a.Settings.XMLVersion}
	xml.Begin()
	for _, c := range a.Registry.Checks {
		c.ErrorMessages(xml)
	}
	xml.End()
}

// collector buffers one file's diagnostics: it filters severities,
// applies suppressions, deduplicates across configurations and sorts
// by source position before anything reaches the real logger.
type collector struct {
	set      *settings.Settings
	mu       sync.Mutex
	msgs     []errorlogger.ErrorMessage
	seen     map[string]bool
	hasError bool
	out      []string
}

func newCollector(set *settings.Settings) *collector {
	return &collector{set: set, seen: map[string]bool{}}
}

func (c *collector) ReportErr(msg errorlogger.ErrorMessage) {
	// the two named check classes are gated by their own enable
	// switch, not by severity
	switch msg.ID {
	case "unusedFunction":
		if !c.set.IsEnabled("unusedFunction") {
			return
		}
	case "missingInclude":
		if !c.set.IsEnabled("missingInclude") {
			return
		}
	default:
		if !c.set.SeverityEnabled(msg.Severity) {
			return
		}
	}
	file := ""
	line := 0
	if len(msg.Callstack) > 0 {
		file = msg.Callstack[0].File
		line = msg.Callstack[0].Line
	}
	// --suppress wins over --enable
	if c.set.Nomsg.IsSuppressed(msg.ID, file, line) {
		return
	}
	if c.set.InlineSuppressions && c.set.NoFailNomsg.IsSuppressed(msg.ID, file, line) {
		return
	}
	key := fmt.Sprintf("%s|%d|%s|%d|%s", file, line, msg.ID, msg.Severity, msg.Msg)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.msgs = append(c.msgs, msg)
	if msg.Severity == errorlogger.Error {
		c.hasError = true
	}
}

func (c *collector) ReportOut(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, line)
}

// sorted returns the diagnostics in source order: file, then line.
func (c *collector) sorted() []errorlogger.ErrorMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	sort.SliceStable(c.msgs, func(i, j int) bool {
		a, b := c.msgs[i], c.msgs[j]
		af, al := primaryLocation(&a)
		bf, bl := primaryLocation(&b)
		if af != bf {
			return af < bf
		}
		return al < bl
	})
	return c.msgs
}

func primaryLocation(msg *errorlogger.ErrorMessage) (string, int) {
	if len(msg.Callstack) == 0 {
		return "", 0
	}
	return msg.Callstack[0].File, msg.Callstack[0].Line
}

func (c *collector) result() *fileResult {
	return &fileResult{msgs: c.sorted(), hasError: c.hasError}
}
