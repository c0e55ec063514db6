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

import (
	"strings"

	"github.com/golang/glog"
)

// List owns an ordered sequence of tokens. It is created by the lexer,
// mutated by the simplifier, then frozen before the checkers run.
type List struct {
	head   *Token
	tail   *Token
	files  []string
	frozen bool
}

// NewList returns an empty list.
func NewList() *List {
	return &List{}
}

// Front returns the first token, nil when empty.
func (l *List) Front() *Token { return l.head }

// Back returns the last token, nil when empty.
func (l *List) Back() *Token { return l.tail }

// Files returns the file table; Token.FileIndex indexes into it.
func (l *List) Files() []string { return l.files }

// AppendFile registers a source path and returns its index. A path
// already in the table keeps its old index.
func (l *List) AppendFile(path string) int {
	for i, f := range l.files {
		if f == path {
			return i
		}
	}
	l.files = append(l.files, path)
	return len(l.files) - 1
}

// FileAt returns the path for a file index, "" when out of range.
func (l *List) FileAt(index int) string {
	if index < 0 || index >= len(l.files) {
		return ""
	}
	return l.files[index]
}

// Freeze makes the list read-only. Further structural edits are
// rejected and logged.
func (l *List) Freeze() { l.frozen = true }

// Frozen reports whether the list has been frozen.
func (l *List) Frozen() bool { return l.frozen }

func (l *List) editable(op string) bool {
	if l.frozen {
		glog.Errorf("token.List.%s: list is frozen", op)
		return false
	}
	return true
}

// Append adds a token at the end of the list and returns it.
func (l *List) Append(tok *Token) *Token {
	if !l.editable("Append") {
		return nil
	}
	tok.next = nil
	tok.prev = l.tail
	if l.tail != nil {
		l.tail.next = tok
	} else {
		l.head = tok
	}
	l.tail = tok
	return tok
}

// InsertAfter places a new token after cur and returns it.
func (l *List) InsertAfter(cur *Token, tok *Token) *Token {
	if cur == nil || !l.editable("InsertAfter") {
		return nil
	}
	tok.prev = cur
	tok.next = cur.next
	if cur.next != nil {
		cur.next.prev = tok
	} else {
		l.tail = tok
	}
	cur.next = tok
	return tok
}

// InsertBefore places a new token before cur and returns it.
func (l *List) InsertBefore(cur *Token, tok *Token) *Token {
	if cur == nil || !l.editable("InsertBefore") {
		return nil
	}
	tok.next = cur
	tok.prev = cur.prev
	if cur.prev != nil {
		cur.prev.next = tok
	} else {
		l.head = tok
	}
	cur.prev = tok
	return tok
}

// unlink removes a single token without touching its Link pair.
func (l *List) unlink(tok *Token) *Token {
	next := tok.next
	if tok.prev != nil {
		tok.prev.next = tok.next
	} else {
		l.head = tok.next
	}
	if tok.next != nil {
		tok.next.prev = tok.prev
	} else {
		l.tail = tok.prev
	}
	tok.next = nil
	tok.prev = nil
	return next
}

// Delete removes tok and returns the token that followed it. When tok
// opens a linked bracket pair the whole range through the close goes
// too, so link annotations stay consistent.
func (l *List) Delete(tok *Token) *Token {
	if tok == nil || !l.editable("Delete") {
		return nil
	}
	if tok.Link != nil && isOpenBracket(tok.Str) {
		return l.DeleteRange(tok, tok.Link)
	}
	if tok.Link != nil {
		// Deleting a lone close end: detach the partner first.
		tok.Link.Link = nil
		tok.Link = nil
	}
	return l.unlink(tok)
}

// DeleteRange removes from..to inclusive and returns the token after
// to. Links pointing out of the range are detached.
func (l *List) DeleteRange(from, to *Token) *Token {
	if from == nil || to == nil || !l.editable("DeleteRange") {
		return nil
	}
	next := to.next
	for tok := from; tok != nil; {
		stop := tok == to
		if tok.Link != nil {
			tok.Link.Link = nil
			tok.Link = nil
		}
		cur := tok
		tok = tok.next
		l.unlink(cur)
		if stop {
			break
		}
	}
	return next
}

func isOpenBracket(s string) bool {
	return s == "(" || s == "[" || s == "{" || s == "<"
}

// Stringify renders the range [from, to) as space separated lexemes.
// A nil to means "to the end of the list".
func (l *List) Stringify(from, to *Token) string {
	var sb strings.Builder
	for tok := from; tok != nil && tok != to; tok = tok.next {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok.Str)
	}
	return sb.String()
}

// FindMatch returns the close token paired with an open bracket, nil
// when the open token carries no link.
func FindMatch(open *Token) *Token {
	if open == nil {
		return nil
	}
	return open.Link
}
