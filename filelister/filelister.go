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

// Package filelister expands path arguments into checkable source
// files and reads their contents. An in-memory overlay backs both the
// tests and the (path, content) pairs of the core API.
package filelister

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/golang/glog"
	"golang.org/x/exp/slices"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var sourceSuffixes = []string{".c", ".cc", ".cpp", ".cxx", ".c++"}

// AcceptFile reports whether path names a checkable translation unit.
func AcceptFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range sourceSuffixes {
		if ext == s {
			return true
		}
	}
	return false
}

// Lister lists and reads source files. Paths present in the overlay
// shadow the filesystem.
type Lister struct {
	overlay map[string]string
	ignore  []string
}

// New returns a lister honoring the given doublestar ignore patterns.
func New(ignore []string) *Lister {
	return &Lister{overlay: map[string]string{}, ignore: ignore}
}

// AddContent registers an in-memory file.
func (l *Lister) AddContent(path, content string) {
	l.overlay[path] = content
}

// HasContent reports whether path is backed by the overlay.
func (l *Lister) HasContent(path string) bool {
	_, ok := l.overlay[path]
	return ok
}

func (l *Lister) ignored(path string) bool {
	for _, pattern := range l.ignore {
		matched, err := doublestar.Match(pattern, filepath.ToSlash(path))
		if err != nil {
			glog.Warningf("filelister: bad ignore pattern %q: %v", pattern, err)
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// List expands the given paths: files are taken as is, directories are
// walked (recursively when asked). The result is sorted and free of
// duplicates and ignored entries.
func (l *Lister) List(paths []string, recursive bool) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if !seen[p] && !l.ignored(p) {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, path := range paths {
		if l.HasContent(path) {
			add(path)
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("filelister.List: %v", err)
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if !recursive && p != path {
					return fs.SkipDir
				}
				return nil
			}
			if AcceptFile(p) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("filelister.List: %v", err)
		}
	}
	slices.Sort(out)
	return out, nil
}

// ReadFile returns the decoded text of path. UTF-8 and UTF-16 byte
// order marks are honored; everything else is read as is.
func (l *Lister) ReadFile(path string) (string, error) {
	if content, ok := l.overlay[path]; ok {
		return content, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("filelister.ReadFile: %v", err)
	}
	return decode(raw)
}

func decode(raw []byte) (string, error) {
	switch {
	case bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}):
		return string(raw[3:]), nil
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE}) || bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		decoded, _, err := transform.Bytes(dec, raw)
		if err != nil {
			return "", fmt.Errorf("filelister.decode: %v", err)
		}
		return string(decoded), nil
	default:
		return string(raw), nil
	}
}
