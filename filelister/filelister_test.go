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

package filelister

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAcceptFile(t *testing.T) {
	for _, tc := range []struct {
		path string
		want bool
	}{
		{"a.c", true},
		{"a.cpp", true},
		{"a.cc", true},
		{"a.cxx", true},
		{"A.CPP", true},
		{"a.h", false},
		{"a.txt", false},
		{"noext", false},
	} {
		if got := AcceptFile(tc.path); got != tc.want {
			t.Errorf("AcceptFile(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestOverlay(t *testing.T) {
	l := New(nil)
	l.AddContent("virtual.c", "int x;")
	if !l.HasContent("virtual.c") {
		t.Fatal("overlay content missing")
	}
	got, err := l.ReadFile("virtual.c")
	if err != nil {
		t.Fatal(err)
	}
	if got != "int x;" {
		t.Errorf("ReadFile = %q", got)
	}
	files, err := l.List([]string{"virtual.c"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != "virtual.c" {
		t.Errorf("List = %v", files)
	}
}

func TestListDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.c", "a.cpp", "skip.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("int x;"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "c.cc"), []byte("int y;"), 0644); err != nil {
		t.Fatal(err)
	}
	l := New(nil)
	files, err := l.List([]string{dir}, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("List found %v", files)
	}
	// sorted output
	for i := 1; i < len(files); i++ {
		if files[i-1] > files[i] {
			t.Errorf("unsorted output: %v", files)
		}
	}
	flat, err := l.List([]string{dir}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(flat) != 2 {
		t.Errorf("non-recursive List found %v", flat)
	}
}

func TestIgnorePatterns(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "keep.c"), []byte(""), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "drop.c"), []byte(""), 0644); err != nil {
		t.Fatal(err)
	}
	l := New([]string{"**/drop.c"})
	files, err := l.List([]string{dir}, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "keep.c" {
		t.Errorf("ignore pattern not honored: %v", files)
	}
}

func TestBOMDecoding(t *testing.T) {
	utf8bom := append([]byte{0xEF, 0xBB, 0xBF}, []byte("int x;")...)
	got, err := decode(utf8bom)
	if err != nil || got != "int x;" {
		t.Errorf("utf-8 BOM: %q, %v", got, err)
	}
	// "int" in UTF-16LE with BOM
	utf16 := []byte{0xFF, 0xFE, 'i', 0, 'n', 0, 't', 0}
	got, err = decode(utf16)
	if err != nil || got != "int" {
		t.Errorf("utf-16 BOM: %q, %v", got, err)
	}
	got, err = decode([]byte("plain"))
	if err != nil || got != "plain" {
		t.Errorf("plain: %q, %v", got, err)
	}
}
