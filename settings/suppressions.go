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
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/golang/glog"
)

// Suppression mutes one diagnostic id, optionally narrowed to a file
// (glob allowed) and a line. Line 0 means any line.
type Suppression struct {
	ID   string
	File string
	Line int
}

// Suppressions is an ordered list of suppression rules. The inline
// suppression table is appended to while files preprocess, possibly
// from several workers, hence the lock.
type Suppressions struct {
	mu      sync.Mutex
	entries []Suppression
}

// Add registers one suppression.
func (s *Suppressions) Add(id, file string, line int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, Suppression{ID: id, File: file, Line: line})
}

// Parse accepts the --suppress syntax "id[:file[:line]]".
func (s *Suppressions) Parse(arg string) error {
	parts := strings.Split(arg, ":")
	if parts[0] == "" {
		return fmt.Errorf("suppressions.Parse: empty id in %q", arg)
	}
	sup := Suppression{ID: parts[0]}
	if len(parts) > 1 {
		sup.File = parts[1]
	}
	if len(parts) > 2 {
		line, err := strconv.Atoi(parts[2])
		if err != nil {
			return fmt.Errorf("suppressions.Parse: bad line in %q: %v", arg, err)
		}
		sup.Line = line
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, sup)
	return nil
}

// ParseFile reads one suppression per line; blank lines and lines
// starting with "#" or "//" are skipped.
func (s *Suppressions) ParseFile(r *bufio.Scanner) error {
	for r.Scan() {
		line := strings.TrimSpace(r.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		if err := s.Parse(line); err != nil {
			return err
		}
	}
	return r.Err()
}

// IsSuppressed reports whether a diagnostic at (id, file, line) is
// muted by any rule.
func (s *Suppressions) IsSuppressed(id, file string, line int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sup := range s.entries {
		if sup.ID != id && sup.ID != "*" {
			continue
		}
		if sup.File != "" && sup.File != file {
			matched, err := doublestar.Match(sup.File, file)
			if err != nil {
				glog.V(2).Infof("suppressions: bad file pattern %q: %v", sup.File, err)
				continue
			}
			if !matched {
				continue
			}
		}
		if sup.Line != 0 && sup.Line != line {
			continue
		}
		return true
	}
	return false
}

// Empty reports whether no rules were registered.
func (s *Suppressions) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries) == 0
}
