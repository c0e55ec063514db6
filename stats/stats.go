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

// Package stats accumulates run statistics: lines of code checked and
// diagnostics per severity.
package stats

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/hhatto/gocloc"
	"naive.systems/nativecheck/atomic"
	"naive.systems/nativecheck/errorlogger"
)

// SeverityCount tallies emitted diagnostics by severity.
type SeverityCount struct {
	Error       int `json:"error"`
	Warning     int `json:"warning"`
	Style       int `json:"style"`
	Performance int `json:"performance"`
	Portability int `json:"portability"`
	Information int `json:"information"`
	Debug       int `json:"debug"`
}

// Accumulate counts one diagnostic.
func (cnt *SeverityCount) Accumulate(sev errorlogger.Severity) {
	switch sev {
	case errorlogger.Error:
		cnt.Error++
	case errorlogger.Warning:
		cnt.Warning++
	case errorlogger.Style:
		cnt.Style++
	case errorlogger.Performance:
		cnt.Performance++
	case errorlogger.Portability:
		cnt.Portability++
	case errorlogger.Information:
		cnt.Information++
	case errorlogger.Debug:
		cnt.Debug++
	default:
		glog.Warningf("stats: undefined severity %d", sev)
	}
}

// JSON renders the counters for the metadata dump.
func (cnt *SeverityCount) JSON() ([]byte, error) {
	statsBytes, err := json.Marshal(cnt)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %v", err)
	}
	return statsBytes, nil
}

// String renders the one line summary printed under -v.
func (cnt *SeverityCount) String() string {
	return fmt.Sprintf("error: %d, warning: %d, style: %d, performance: %d, portability: %d, information: %d",
		cnt.Error, cnt.Warning, cnt.Style, cnt.Performance, cnt.Portability, cnt.Information)
}

// WriteTo stores the counters as severity_stats.json under the
// results dir. Errors are logged, not returned; metadata is best
// effort.
func (cnt *SeverityCount) WriteTo(resultDir string) {
	raw, err := cnt.JSON()
	if err != nil {
		glog.Errorf("stats: %v", err)
		return
	}
	path := filepath.Join(resultDir, "severity_stats.json")
	if err := atomic.Write(path, raw); err != nil {
		glog.Errorf("stats: failed to write %s: %v", path, err)
	}
}

// CountLOC counts the code lines of the given files. Every path is handed
// to gocloc as is; printStatistics leaves out paths backed by in-memory
// content before calling.
func CountLOC(paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	languages := gocloc.NewDefinedLanguages()
	options := gocloc.NewClocOptions()
	processor := gocloc.NewProcessor(languages, options)
	result, err := processor.Analyze(paths)
	if err != nil {
		return 0, fmt.Errorf("stats.CountLOC: %v", err)
	}
	total := 0
	for _, lang := range result.Languages {
		total += int(lang.Code)
	}
	return total, nil
}
