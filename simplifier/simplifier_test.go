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

package simplifier

import (
	"strings"
	"testing"

	"naive.systems/nativecheck/errorlogger"
	"naive.systems/nativecheck/lexer"
	"naive.systems/nativecheck/mathlib"
	"naive.systems/nativecheck/settings"
	"naive.systems/nativecheck/token"
)

type recorder struct {
	errs []errorlogger.ErrorMessage
}

func (r *recorder) ReportErr(msg errorlogger.ErrorMessage) { r.errs = append(r.errs, msg) }
func (r *recorder) ReportOut(line string)                  {}

// simplify runs the full pipeline on code and returns the list and
// its rendering.
func simplify(t *testing.T, code string) (*token.List, string) {
	t.Helper()
	tk := New(settings.New(), &recorder{})
	list, err := tk.Tokenize(code, "test.c")
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", code, err)
	}
	return list, list.Stringify(list.Front(), nil)
}

func TestBracketLinks(t *testing.T) {
	list, _ := simplify(t, "void f(int a) { if (a) { g(a); } }")
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		switch tok.Str {
		case "(", "[", "{":
			if tok.Link == nil {
				t.Fatalf("open %q at line %d unlinked", tok.Str, tok.Line)
			}
			if tok.Link.Link != tok {
				t.Fatalf("link of %q is not symmetric", tok.Str)
			}
		case ")", "]", "}":
			if tok.Link == nil {
				t.Fatalf("close %q unlinked", tok.Str)
			}
		}
	}
}

func TestUnbalancedBraceIsSyntaxError(t *testing.T) {
	rec := &recorder{}
	tk := New(settings.New(), rec)
	_, err := tk.Tokenize("void f() { ", "test.c")
	if err == nil {
		t.Fatal("unbalanced brace must fail the configuration")
	}
	if len(rec.errs) == 0 || rec.errs[0].ID != "syntaxError" {
		t.Error("syntaxError diagnostic not emitted")
	}
}

func TestTypedefResolution(t *testing.T) {
	_, got := simplify(t, "typedef unsigned int uint; uint x;")
	if strings.Contains(got, "typedef") {
		t.Errorf("typedef statement survived: %q", got)
	}
	if !strings.Contains(got, "unsigned int x ;") {
		t.Errorf("typedef not substituted: %q", got)
	}
}

func TestTypedefShadowing(t *testing.T) {
	_, got := simplify(t, "typedef int T; void f() { float T; T = 1; }")
	// inside f, T is a float variable, not the typedef
	if strings.Contains(got, "float int") {
		t.Errorf("shadowed typedef substituted: %q", got)
	}
}

func TestTemplateInstantiation(t *testing.T) {
	_, got := simplify(t, "template <class T> class A { T x; }; A<int> a;")
	if !strings.Contains(got, "A<int> a ;") {
		t.Errorf("instantiation site not rewritten: %q", got)
	}
	if !strings.Contains(got, "class A<int> { int x ; }") {
		t.Errorf("instantiated body not appended: %q", got)
	}
}

func TestElseIfRewrite(t *testing.T) {
	_, got := simplify(t, "void f(int a) { if (a) { } else if (a) { } }")
	if !strings.Contains(got, "else { if") {
		t.Errorf("else-if not rewritten: %q", got)
	}
}

func TestCombinedDeclarationSplit(t *testing.T) {
	_, got := simplify(t, "void f() { int a, b; }")
	if !strings.Contains(got, "int a ; int b ;") {
		t.Errorf("combined declaration not split: %q", got)
	}
}

func TestConstantFolding(t *testing.T) {
	for _, tc := range []struct {
		code string
		want string
	}{
		{"int x = 1 + 2;", "x = 3"},
		{"int x = 2 * 3 + 1;", "x = 7"},
		{"int x = 1 + 2 * 3;", "x = 7"},
		{"int x = (1 + 2);", "x = 3"},
		{"int x = 10 / 2;", "x = 5"},
		{"int x = 1 << 4;", "x = 16"},
		{"int x = 7 & 3;", "x = 3"},
	} {
		_, got := simplify(t, tc.code)
		if !strings.Contains(got, tc.want) {
			t.Errorf("simplify(%q) = %q, want substring %q", tc.code, got, tc.want)
		}
	}
}

func TestDivisionByZeroNotFolded(t *testing.T) {
	_, got := simplify(t, "int x = 1 / 0;")
	if !strings.Contains(got, "1 / 0") {
		t.Errorf("division by zero folded away: %q", got)
	}
}

// Folding must agree with what the math library computes directly.
func TestFoldingMatchesMathlib(t *testing.T) {
	ops := []string{"+", "-", "*", "/", "%", "<<", ">>", "&", "|", "^"}
	for _, op := range ops {
		want, ok := mathlib.Calculate("13", "5", op)
		if !ok {
			t.Fatalf("mathlib cannot fold 13 %s 5", op)
		}
		_, got := simplify(t, "int x = 13 "+op+" 5;")
		if !strings.Contains(got, "x = "+want+" ;") {
			t.Errorf("13 %s 5: simplifier produced %q, mathlib says %s", op, got, want)
		}
	}
}

func TestSizeofFolding(t *testing.T) {
	_, got := simplify(t, "int x = sizeof(char);")
	if !strings.Contains(got, "x = 1 ;") {
		t.Errorf("sizeof(char) not folded: %q", got)
	}
}

func TestVarIDAssignment(t *testing.T) {
	list, _ := simplify(t, "void f(int a) { int b; b = a; }")
	ids := map[string][]int{}
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if tok.VarID != 0 {
			ids[tok.Str] = append(ids[tok.Str], tok.VarID)
		}
	}
	if len(ids["a"]) != 2 || len(ids["b"]) != 2 {
		t.Fatalf("varids missing: %v", ids)
	}
	if ids["a"][0] != ids["a"][1] || ids["b"][0] != ids["b"][1] {
		t.Errorf("uses got different ids than declarations: %v", ids)
	}
	if ids["a"][0] == ids["b"][0] {
		t.Errorf("distinct variables share an id: %v", ids)
	}
}

func TestVarIDShadowing(t *testing.T) {
	list, _ := simplify(t, "void f() { int x; { int x; x = 1; } x = 2; }")
	var ids []int
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if tok.Str == "x" && tok.VarID != 0 {
			ids = append(ids, tok.VarID)
		}
	}
	if len(ids) != 4 {
		t.Fatalf("expected 4 x tokens with ids, got %v", ids)
	}
	outer, inner := ids[0], ids[1]
	if outer == inner {
		t.Fatal("shadowing did not produce a fresh id")
	}
	if ids[2] != inner {
		t.Error("inner use bound to the wrong declaration")
	}
	if ids[3] != outer {
		t.Error("outer use after the block bound to the wrong declaration")
	}
}

func TestVarIDsUniquePerScope(t *testing.T) {
	list, _ := simplify(t, "void f() { int a; int b; int c; }")
	seen := map[int]string{}
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if tok.VarID == 0 {
			continue
		}
		if prev, ok := seen[tok.VarID]; ok && prev != tok.Str {
			t.Fatalf("id %d assigned to both %q and %q", tok.VarID, prev, tok.Str)
		}
		seen[tok.VarID] = tok.Str
	}
}

// Running the simplification phases on already simplified output must
// not change anything.
func TestSimplifyFixpoint(t *testing.T) {
	codes := []string{
		"typedef int myint; void f(int a) { myint b, c; if (a) { } else if (a) { b = 1 + 2; } }",
		"template <class T> class A { T x; }; A<int> a;",
		"void f() { int a[10]; a[2] = sizeof(int); }",
	}
	for _, code := range codes {
		set := settings.New()
		tk := New(set, &recorder{})
		list := lexer.Tokenize(code, "test.c")
		if err := tk.createLinks(list, "test.c"); err != nil {
			t.Fatalf("createLinks(%q): %v", code, err)
		}
		tk.Simplify(list)
		first := list.Stringify(list.Front(), nil)
		tk.Simplify(list)
		second := list.Stringify(list.Front(), nil)
		if first != second {
			t.Errorf("not a fixpoint:\nfirst:  %q\nsecond: %q", first, second)
		}
	}
}

func TestTerminatedSkipsPhases(t *testing.T) {
	set := settings.New()
	set.Terminate()
	tk := New(set, &recorder{})
	list := lexer.Tokenize("typedef int myint; myint x;", "test.c")
	if err := tk.createLinks(list, "test.c"); err != nil {
		t.Fatal(err)
	}
	tk.Simplify(list)
	got := list.Stringify(list.Front(), nil)
	if !strings.Contains(got, "typedef") {
		t.Errorf("terminated simplifier still rewrote the list: %q", got)
	}
}
