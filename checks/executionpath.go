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

package checks

import (
	"github.com/golang/glog"
	"naive.systems/nativecheck/settings"
	"naive.systems/nativecheck/token"
)

// maxPathStates bounds the states visited per function; beyond it the
// walk bails out silently.
const maxPathStates = 10000

// PathState is the per-check symbolic state of the execution-path
// engine. The engine clones it at branches and merges it at joins.
type PathState interface {
	// Copy returns an independent clone.
	Copy() PathState
	// Parse consumes the construct at tok and returns the token the
	// walk should continue after, usually tok itself. Returning nil
	// prunes this path.
	Parse(tok *token.Token) *token.Token
	// Merge folds the state of the other branch into the receiver.
	Merge(other PathState)
	// End fires the end-of-life checks at a return from the function;
	// tok is the "return" or the closing "}".
	End(tok *token.Token)
}

// pathWalker carries the bookkeeping of one function walk.
type pathWalker struct {
	set     *settings.Settings
	visited int
	bailed  bool
}

// WalkPaths drives state over one function body, cloning at branches
// and merging at joins. body is the "{" of the function.
func WalkPaths(body *token.Token, state PathState, set *settings.Settings) {
	if body == nil || body.Link == nil || state == nil {
		return
	}
	w := &pathWalker{set: set}
	end := w.walk(body.Next(), body.Link, state)
	if !w.bailed && end != nil {
		state.End(body.Link)
	}
}

// walk runs state over [tok, stop). It returns nil when the path was
// pruned or the walk bailed out.
func (w *pathWalker) walk(tok, stop *token.Token, state PathState) *token.Token {
	for tok != nil && tok != stop {
		if w.bailed || w.set.Terminated() {
			w.bailed = true
			return nil
		}
		w.visited++
		if w.visited > maxPathStates {
			glog.V(2).Info("checks: execution path state budget exceeded")
			w.bailed = true
			return nil
		}
		switch tok.Str {
		case "if":
			tok = w.walkIf(tok, stop, state)
			continue
		case "while", "for", "switch":
			tok = w.walkLoop(tok, stop, state)
			continue
		case "return":
			state.End(tok)
			// skip the rest of this statement, the path ends here
			for tok != nil && tok != stop && tok.Str != ";" {
				tok = tok.Next()
			}
			return nil
		case "goto", "break", "continue":
			// path leaves the straight line; stop tracking it
			return nil
		case "{":
			if tok.Link == nil {
				return nil
			}
		}
		next := state.Parse(tok)
		if next == nil {
			return nil
		}
		tok = next.Next()
	}
	return tok
}

// walkIf clones the state for the two arms of an if/else and merges
// at the join. The condition tokens run through Parse linearly first.
func (w *pathWalker) walkIf(ifTok, stop *token.Token, state PathState) *token.Token {
	cond := ifTok.Next()
	if cond == nil || !cond.IsOp("(") || cond.Link == nil {
		return advance(ifTok, stop)
	}
	if w.walk(cond.Next(), cond.Link, state) == nil && w.bailed {
		return nil
	}
	thenStart := cond.Link.Next()
	thenEnd := stmtEnd(thenStart)
	if thenStart == nil || thenEnd == nil {
		return advance(cond.Link, stop)
	}
	// the then arm runs on the state itself; the else arm (or the
	// fall-through when there is none) runs on a copy of the state as
	// it was before the branch. Merging the two yields the join.
	other := state.Copy()
	w.walkStmt(thenStart, thenEnd, state)

	after := thenEnd.Next()
	if after != nil && after.Str == "else" {
		elseStart := after.Next()
		elseEnd := stmtEnd(elseStart)
		if elseStart != nil && elseEnd != nil {
			w.walkStmt(elseStart, elseEnd, other)
			state.Merge(other)
			return elseEnd.Next()
		}
	}
	state.Merge(other)
	return thenEnd.Next()
}

// walkLoop walks a loop or switch body once with a cloned state and
// merges the result: facts established inside may or may not hold.
// The back edge is not followed again and no state is compared at the
// loop head.
func (w *pathWalker) walkLoop(head, stop *token.Token, state PathState) *token.Token {
	cond := head.Next()
	if cond == nil || !cond.IsOp("(") || cond.Link == nil {
		return advance(head, stop)
	}
	if w.walk(cond.Next(), cond.Link, state) == nil && w.bailed {
		return nil
	}
	bodyStart := cond.Link.Next()
	bodyEnd := stmtEnd(bodyStart)
	if bodyStart == nil || bodyEnd == nil {
		return advance(cond.Link, stop)
	}
	bodyState := state.Copy()
	w.walkStmt(bodyStart, bodyEnd, bodyState)
	state.Merge(bodyState)
	return bodyEnd.Next()
}

// walkStmt walks one statement, brace-delimited or simple.
func (w *pathWalker) walkStmt(start, end *token.Token, state PathState) {
	if start.IsOp("{") {
		w.walk(start.Next(), end, state)
		return
	}
	w.walk(start, end.Next(), state)
}

// stmtEnd finds the last token of the statement starting at tok: the
// linked "}" or the ";".
func stmtEnd(tok *token.Token) *token.Token {
	if tok == nil {
		return nil
	}
	if tok.IsOp("{") {
		return tok.Link
	}
	depth := 0
	for cur := tok; cur != nil; cur = cur.Next() {
		switch cur.Str {
		case "(", "[":
			if cur.Link == nil {
				return nil
			}
			cur = cur.Link
		case "{":
			if cur.Link == nil {
				return nil
			}
			cur = cur.Link
		case ";":
			if depth == 0 {
				return cur
			}
		case "}":
			return nil
		}
	}
	return nil
}

func advance(tok, stop *token.Token) *token.Token {
	if tok == nil || tok == stop {
		return stop
	}
	return tok.Next()
}
