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

package token

import "testing"

func link(open, close *Token) {
	open.Link = close
	close.Link = open
}

func TestInsertDelete(t *testing.T) {
	list := makeList(t, "a b d")
	b := list.Front().Next()
	list.InsertAfter(b, &Token{Str: "c", Kind: Identifier})
	if got := list.Stringify(list.Front(), nil); got != "a b c d" {
		t.Fatalf("InsertAfter: got %q", got)
	}
	list.InsertBefore(list.Front(), &Token{Str: "x", Kind: Identifier})
	if got := list.Stringify(list.Front(), nil); got != "x a b c d" {
		t.Fatalf("InsertBefore: got %q", got)
	}
	list.Delete(list.Front())
	if got := list.Stringify(list.Front(), nil); got != "a b c d" {
		t.Fatalf("Delete front: got %q", got)
	}
	if list.Back().Str != "d" {
		t.Fatalf("Back = %q, want d", list.Back().Str)
	}
}

func TestDeleteLinkedPair(t *testing.T) {
	list := makeList(t, "f ( a , b ) ;")
	open := list.Front().Next()
	close := list.Back().Prev()
	link(open, close)
	// deleting the open bracket removes the whole bracketed range
	list.Delete(open)
	if got := list.Stringify(list.Front(), nil); got != "f ;" {
		t.Fatalf("Delete(open) left %q", got)
	}
}

func TestDeleteRangeDetachesLinks(t *testing.T) {
	list := makeList(t, "a ( b ) c")
	open := list.Front().Next()
	close := open.TokAt(2)
	link(open, close)
	list.DeleteRange(list.Front(), open)
	// the close must not point at a token outside the list anymore
	if close.Link != nil {
		t.Error("DeleteRange left a dangling link")
	}
	if got := list.Stringify(list.Front(), nil); got != "b ) c" {
		t.Fatalf("DeleteRange left %q", got)
	}
}

func TestFrozenListRejectsEdits(t *testing.T) {
	list := makeList(t, "a b")
	list.Freeze()
	if !list.Frozen() {
		t.Fatal("Freeze did not mark the list")
	}
	list.Delete(list.Front())
	if got := list.Stringify(list.Front(), nil); got != "a b" {
		t.Fatalf("frozen list was edited: %q", got)
	}
}

func TestTokAt(t *testing.T) {
	list := makeList(t, "a b c")
	front := list.Front()
	if front.TokAt(2).Str != "c" {
		t.Error("TokAt(2) wrong")
	}
	if front.TokAt(5) != nil {
		t.Error("TokAt past end must be nil")
	}
	if list.Back().TokAt(-2) != front {
		t.Error("negative TokAt wrong")
	}
	if front.StrAt(9) != "" {
		t.Error("StrAt past end must be empty")
	}
}

func TestAppendFile(t *testing.T) {
	list := NewList()
	a := list.AppendFile("a.c")
	b := list.AppendFile("b.h")
	if a == b {
		t.Fatal("distinct files must get distinct indexes")
	}
	if list.AppendFile("a.c") != a {
		t.Error("re-adding a path must keep its index")
	}
	if list.FileAt(b) != "b.h" {
		t.Errorf("FileAt(%d) = %q", b, list.FileAt(b))
	}
	if list.FileAt(99) != "" {
		t.Error("FileAt out of range must be empty")
	}
}
