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

package preprocessor

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
	"naive.systems/nativecheck/mathlib"
)

// evalCondition evaluates an #if/#elif condition under the current
// macro values. Undefined identifiers are 0, per the standard. A
// malformed condition is logged and treated as false.
func (p *Preprocessor) evalCondition(cond string, defs map[string]string, path string, line int) bool {
	cond = resolveDefined(cond, defs)
	cond = expandText(cond, defs, nil)
	val, err := evalExpr(cond)
	if err != nil {
		glog.V(1).Infof("preprocessor: %s:%d: cannot evaluate %q: %v", path, line, cond, err)
		return false
	}
	return val != 0
}

// resolveDefined rewrites "defined(X)" and "defined X" to 1 or 0
// before any macro expansion touches the condition.
func resolveDefined(cond string, defs map[string]string) string {
	var sb strings.Builder
	toks := tokenizeBody(cond)
	for i := 0; i < len(toks); i++ {
		if toks[i] != "defined" {
			sb.WriteString(toks[i])
			sb.WriteByte(' ')
			continue
		}
		name := ""
		j := i + 1
		if j < len(toks) && toks[j] == "(" {
			if j+2 < len(toks) && toks[j+2] == ")" {
				name = toks[j+1]
				j += 3
			}
		} else if j < len(toks) {
			name = toks[j]
			j++
		}
		if _, ok := defs[name]; ok {
			sb.WriteString("1 ")
		} else {
			sb.WriteString("0 ")
		}
		i = j - 1
	}
	return sb.String()
}

// exprParser is a recursive descent parser over the condition tokens.
type exprParser struct {
	toks []string
	pos  int
}

func evalExpr(cond string) (int64, error) {
	ep := &exprParser{toks: tokenizeCondition(cond)}
	if len(ep.toks) == 0 {
		return 0, fmt.Errorf("empty condition")
	}
	val, err := ep.ternary()
	if err != nil {
		return 0, err
	}
	if ep.pos != len(ep.toks) {
		return 0, fmt.Errorf("trailing tokens at %q", ep.peek())
	}
	return val, nil
}

// tokenizeCondition reuses the body tokenizer but glues the two
// character operators back together.
func tokenizeCondition(cond string) []string {
	raw := tokenizeBody(cond)
	var out []string
	for i := 0; i < len(raw); i++ {
		t := raw[i]
		if i+1 < len(raw) {
			pair := t + raw[i+1]
			switch pair {
			case "&&", "||", "<<", ">>", "<=", ">=", "==", "!=":
				out = append(out, pair)
				i++
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

func (ep *exprParser) peek() string {
	if ep.pos < len(ep.toks) {
		return ep.toks[ep.pos]
	}
	return ""
}

func (ep *exprParser) next() string {
	t := ep.peek()
	ep.pos++
	return t
}

func (ep *exprParser) expect(t string) error {
	if ep.peek() != t {
		return fmt.Errorf("expected %q, found %q", t, ep.peek())
	}
	ep.pos++
	return nil
}

func (ep *exprParser) ternary() (int64, error) {
	cond, err := ep.binary(1)
	if err != nil {
		return 0, err
	}
	if ep.peek() != "?" {
		return cond, nil
	}
	ep.next()
	a, err := ep.ternary()
	if err != nil {
		return 0, err
	}
	if err := ep.expect(":"); err != nil {
		return 0, err
	}
	b, err := ep.ternary()
	if err != nil {
		return 0, err
	}
	if cond != 0 {
		return a, nil
	}
	return b, nil
}

var precedence = map[string]int{
	"||": 1, "&&": 2,
	"|": 3, "^": 4, "&": 5,
	"==": 6, "!=": 6,
	"<": 7, "<=": 7, ">": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

func (ep *exprParser) binary(minPrec int) (int64, error) {
	lhs, err := ep.unary()
	if err != nil {
		return 0, err
	}
	for {
		op := ep.peek()
		prec, ok := precedence[op]
		if !ok || prec < minPrec {
			return lhs, nil
		}
		ep.next()
		rhs, err := ep.binary(prec + 1)
		if err != nil {
			return 0, err
		}
		lhs, err = applyBinary(lhs, rhs, op)
		if err != nil {
			return 0, err
		}
	}
}

func applyBinary(a, b int64, op string) (int64, error) {
	switch op {
	case "||":
		if a != 0 || b != 0 {
			return 1, nil
		}
		return 0, nil
	case "&&":
		if a != 0 && b != 0 {
			return 1, nil
		}
		return 0, nil
	case "|":
		return a | b, nil
	case "^":
		return a ^ b, nil
	case "&":
		return a & b, nil
	case "==":
		return b2i(a == b), nil
	case "!=":
		return b2i(a != b), nil
	case "<":
		return b2i(a < b), nil
	case "<=":
		return b2i(a <= b), nil
	case ">":
		return b2i(a > b), nil
	case ">=":
		return b2i(a >= b), nil
	case "<<":
		if b < 0 || b > 63 {
			return 0, fmt.Errorf("bad shift count %d", b)
		}
		return a << uint(b), nil
	case ">>":
		if b < 0 || b > 63 {
			return 0, fmt.Errorf("bad shift count %d", b)
		}
		return a >> uint(b), nil
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return a / b, nil
	case "%":
		if b == 0 {
			return 0, fmt.Errorf("modulo by zero")
		}
		return a % b, nil
	}
	return 0, fmt.Errorf("unknown operator %q", op)
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (ep *exprParser) unary() (int64, error) {
	switch ep.peek() {
	case "+":
		ep.next()
		return ep.unary()
	case "-":
		ep.next()
		v, err := ep.unary()
		return -v, err
	case "!":
		ep.next()
		v, err := ep.unary()
		return b2i(v == 0), err
	case "~":
		ep.next()
		v, err := ep.unary()
		return ^v, err
	case "(":
		ep.next()
		v, err := ep.ternary()
		if err != nil {
			return 0, err
		}
		return v, ep.expect(")")
	}
	t := ep.next()
	if t == "" {
		return 0, fmt.Errorf("unexpected end of condition")
	}
	if mathlib.IsNumber(t) || t[0] == '\'' {
		return mathlib.ToLongNumber(t), nil
	}
	if isSymbolStart(t[0]) {
		// undefined identifier
		if t == "true" {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("unexpected token %q", t)
}
