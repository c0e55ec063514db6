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

// Package mathlib parses C numeric literals of any radix and folds
// constant arithmetic over their string representations.
package mathlib

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/glog"
)

// stripSuffix removes integer suffixes (u, U, l, L, ll, LL and
// combinations) from a literal.
func stripSuffix(s string) string {
	for len(s) > 0 {
		c := s[len(s)-1]
		if c == 'u' || c == 'U' || c == 'l' || c == 'L' {
			s = s[:len(s)-1]
			continue
		}
		break
	}
	return s
}

// IsInt reports whether s is an integer literal: decimal, hex (0x),
// octal (leading 0), binary (0b) or a character constant.
func IsInt(s string) bool {
	s = stripSuffix(s)
	if s == "" {
		return false
	}
	if s[0] == '\'' {
		return len(s) >= 3 && s[len(s)-1] == '\''
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		_, err := strconv.ParseUint(s[2:], 16, 64)
		return err == nil
	}
	if strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B") {
		_, err := strconv.ParseUint(s[2:], 2, 64)
		return err == nil
	}
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsFloat reports whether s is a floating point literal.
func IsFloat(s string) bool {
	if s == "" || IsInt(s) {
		return false
	}
	t := strings.TrimRight(s, "fFlL")
	_, err := strconv.ParseFloat(t, 64)
	return err == nil
}

// IsNumber reports whether s is any numeric literal.
func IsNumber(s string) bool {
	return IsInt(s) || IsFloat(s)
}

// charValue evaluates a character constant such as 'a' or '\n'.
func charValue(s string) int64 {
	body := s[1 : len(s)-1]
	if body == "" {
		return 0
	}
	if body[0] != '\\' {
		return int64(body[0])
	}
	if len(body) < 2 {
		return 0
	}
	switch body[1] {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	case '\\':
		return '\\'
	case '\'':
		return '\''
	case 'a':
		return 7
	case 'b':
		return 8
	case 'f':
		return 12
	case 'v':
		return 11
	case 'x':
		v, err := strconv.ParseInt(body[2:], 16, 64)
		if err != nil {
			return 0
		}
		return v
	default:
		return int64(body[1])
	}
}

// ToLongNumber converts an integer literal of any radix to its value.
// Malformed input yields 0.
func ToLongNumber(s string) int64 {
	s = stripSuffix(s)
	if s == "" {
		return 0
	}
	if s[0] == '\'' && len(s) >= 3 && s[len(s)-1] == '\'' {
		return charValue(s)
	}
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	} else if s[0] == '+' {
		s = s[1:]
	}
	var v uint64
	var err error
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		v, err = strconv.ParseUint(s[2:], 16, 64)
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		v, err = strconv.ParseUint(s[2:], 2, 64)
	case len(s) > 1 && s[0] == '0':
		v, err = strconv.ParseUint(s[1:], 8, 64)
	default:
		v, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		// Floats passed by mistake are truncated.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		v = uint64(f)
	}
	if neg {
		return -int64(v)
	}
	return int64(v)
}

// ToDoubleNumber converts any numeric literal to a float64.
func ToDoubleNumber(s string) float64 {
	if IsInt(s) {
		return float64(ToLongNumber(s))
	}
	t := strings.TrimRight(s, "fFlL")
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0
	}
	return f
}

// ToString formats an integer result as a literal.
func ToString(v int64) string {
	return strconv.FormatInt(v, 10)
}

// FloatToString formats a floating result the shortest way that
// round-trips.
func FloatToString(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	return s
}

// Calculate folds "a op b" where both operands are numeric literals.
// The second return value is false when the operation cannot be folded
// (unknown operator, division by zero, shift of a float).
func Calculate(a, b, op string) (string, bool) {
	if !IsNumber(a) || !IsNumber(b) {
		return "", false
	}
	if IsInt(a) && IsInt(b) {
		x := ToLongNumber(a)
		y := ToLongNumber(b)
		var r int64
		switch op {
		case "+":
			r = x + y
		case "-":
			r = x - y
		case "*":
			r = x * y
		case "/":
			if y == 0 {
				return "", false
			}
			r = x / y
		case "%":
			if y == 0 {
				return "", false
			}
			r = x % y
		case "<<":
			if y < 0 || y > 63 {
				return "", false
			}
			r = x << uint(y)
		case ">>":
			if y < 0 || y > 63 {
				return "", false
			}
			r = x >> uint(y)
		case "&":
			r = x & y
		case "|":
			r = x | y
		case "^":
			r = x ^ y
		case "<":
			r = bool2int(x < y)
		case "<=":
			r = bool2int(x <= y)
		case ">":
			r = bool2int(x > y)
		case ">=":
			r = bool2int(x >= y)
		case "==":
			r = bool2int(x == y)
		case "!=":
			r = bool2int(x != y)
		default:
			glog.V(3).Infof("mathlib.Calculate: unknown operator %q", op)
			return "", false
		}
		return ToString(r), true
	}
	// Mixed or float operands.
	x := ToDoubleNumber(a)
	y := ToDoubleNumber(b)
	var r float64
	switch op {
	case "+":
		r = x + y
	case "-":
		r = x - y
	case "*":
		r = x * y
	case "/":
		if y == 0 {
			return "", false
		}
		r = x / y
	case "<":
		return ToString(bool2int(x < y)), true
	case "<=":
		return ToString(bool2int(x <= y)), true
	case ">":
		return ToString(bool2int(x > y)), true
	case ">=":
		return ToString(bool2int(x >= y)), true
	case "==":
		return ToString(bool2int(x == y)), true
	case "!=":
		return ToString(bool2int(x != y)), true
	default:
		return "", false
	}
	return FloatToString(r), true
}

func bool2int(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// IsGreater compares two numeric literals.
func IsGreater(a, b string) bool {
	return ToDoubleNumber(a) > ToDoubleNumber(b)
}

// IsLess compares two numeric literals.
func IsLess(a, b string) bool {
	return ToDoubleNumber(a) < ToDoubleNumber(b)
}

// IsEqual compares two numeric literals by value, so "0x10" equals "16".
func IsEqual(a, b string) bool {
	return ToDoubleNumber(a) == ToDoubleNumber(b)
}

// Sizeof returns the width in bytes of a built-in type name for the
// given int, long and pointer widths. Unknown names yield 0.
func Sizeof(typ string, sizeofInt, sizeofLong, sizeofPointer int) int {
	switch typ {
	case "char", "bool", "signed char", "unsigned char":
		return 1
	case "short", "unsigned short", "wchar_t":
		return 2
	case "int", "unsigned int", "unsigned", "signed", "float":
		return sizeofInt
	case "long", "unsigned long":
		return sizeofLong
	case "long long", "unsigned long long", "double":
		return 8
	case "size_t", "ptrdiff_t":
		return sizeofPointer
	default:
		return 0
	}
}

// ErrString formats an internal conversion failure for debug output.
func ErrString(fn, s string) string {
	return fmt.Sprintf("mathlib.%s: cannot convert %q", fn, s)
}
