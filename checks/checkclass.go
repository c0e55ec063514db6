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
	"fmt"

	"naive.systems/nativecheck/errorlogger"
	"naive.systems/nativecheck/settings"
	"naive.systems/nativecheck/token"
)

// CheckClass verifies class invariants: constructors initializing all
// members, virtual destructors, copy constructors for classes owning
// pointers, and unused private methods.
type CheckClass struct{ noRaw }

func NewCheckClass() *CheckClass { return &CheckClass{} }

func (c *CheckClass) Name() string { return "Class" }

// classInfo is what one "class X { ... }" scan gathers.
type classInfo struct {
	nameTok    *token.Token
	bodyOpen   *token.Token
	bodyEnd    *token.Token
	isStruct   bool
	members    []*token.Token // member variable names
	ptrMembers []*token.Token
	hasVirtual bool
	hasVirtDtor bool
	hasDtor     bool
	hasCopyCtor bool
	ctors       []Function
	privMethods []*token.Token
}

func (c *CheckClass) RunSimplified(list *token.List, set *settings.Settings, logger errorlogger.ErrorLogger) {
	for tok := list.Front(); tok != nil; tok = tok.Next() {
		if set.Terminated() {
			return
		}
		if token.Match(tok, "class|struct %var%") == 0 {
			continue
		}
		// skip forward declarations and inheritance lists
		open := tok.TokAt(2)
		for open != nil && open.Str != "{" && open.Str != ";" {
			open = open.Next()
		}
		if open == nil || open.Str != "{" || open.Link == nil {
			continue
		}
		info := c.parseClass(tok, open)
		c.checkConstructors(list, info, set, logger)
		c.checkVirtualDestructor(list, info, logger)
		c.checkCopyConstructor(list, info, set, logger)
		c.checkUnusedPrivateFunctions(list, info, set, logger)
		tok = open // descend into the body so nested classes are seen
	}
}

func (c *CheckClass) parseClass(classTok, open *token.Token) *classInfo {
	info := &classInfo{
		nameTok:  classTok.Next(),
		bodyOpen: open,
		bodyEnd:  open.Link,
		isStruct: classTok.Str == "struct",
	}
	name := info.nameTok.Str
	private := !info.isStruct
	depth := 0
	for tok := open.Next(); tok != nil && tok != info.bodyEnd; tok = tok.Next() {
		switch tok.Str {
		case "{":
			depth++
			if tok.Link != nil {
				tok = tok.Link
				depth--
			}
			continue
		case "}":
			if depth > 0 {
				depth--
			}
			continue
		case "public", "protected":
			if tok.Next() != nil && tok.Next().Str == ":" {
				private = false
			}
			continue
		case "private":
			if tok.Next() != nil && tok.Next().Str == ":" {
				private = true
			}
			continue
		case "virtual":
			info.hasVirtual = true
			if token.Match(tok.Next(), "~") > 0 {
				info.hasVirtDtor = true
			}
			continue
		case "~":
			if token.Match(tok.Next(), "%var% (") > 0 && tok.StrAt(1) == name {
				info.hasDtor = true
			}
			continue
		}
		if depth != 0 {
			continue
		}
		// member variable: "T m ;" or "T * m ;"
		if token.Match(tok, "%type% %var% ;") > 0 {
			info.members = append(info.members, tok.Next())
			tok = tok.TokAt(2)
			continue
		}
		if token.Match(tok, "%type% * %var% ;") > 0 {
			m := tok.TokAt(2)
			info.members = append(info.members, m)
			info.ptrMembers = append(info.ptrMembers, m)
			tok = tok.TokAt(3)
			continue
		}
		// constructor: "X ( ... )" possibly with a body; "~X" is the
		// destructor, not a constructor
		if tok.Kind == token.Identifier && tok.Str == name &&
			tok.StrAt(-1) != "~" &&
			token.Match(tok.Next(), "(") > 0 && tok.Next().Link != nil {
			argClose := tok.Next().Link
			// copy constructor: "X ( const X & ... )"
			if token.Match(tok.TokAt(2), "const %var% &") > 0 && tok.StrAt(3) == name {
				info.hasCopyCtor = true
			}
			body := argClose.Next()
			for body != nil && body.Str != "{" && body.Str != ";" {
				body = body.Next()
			}
			if body != nil && body.IsOp("{") && body.Link != nil {
				info.ctors = append(info.ctors, Function{
					NameTok: tok, ArgOpen: tok.Next(), ArgClose: argClose,
					BodyOpen: body, BodyEnd: body.Link,
				})
				tok = body.Link
			} else {
				tok = argClose
			}
			continue
		}
		// private method declaration or definition
		if private && token.Match(tok, "%type% %var% (") > 0 && tok.Next().Str != name {
			info.privMethods = append(info.privMethods, tok.Next())
			continue
		}
	}
	return info
}

// checkConstructors reports members no constructor initializes.
func (c *CheckClass) checkConstructors(list *token.List, info *classInfo,
	set *settings.Settings, logger errorlogger.ErrorLogger) {
	if len(info.ctors) == 0 || len(info.members) == 0 {
		return
	}
	if !set.SeverityEnabled(errorlogger.Warning) {
		return
	}
	for _, member := range info.members {
		initialized := false
		for _, ctor := range info.ctors {
			// the init list between ")" and "{" plus the body
			for tok := ctor.ArgClose; tok != nil && tok != ctor.BodyEnd; tok = tok.Next() {
				if tok.IsName && tok.Str == member.Str &&
					token.Match(tok.Next(), "(|=") > 0 {
					initialized = true
					break
				}
			}
			if initialized {
				break
			}
		}
		if !initialized {
			report(logger, list, info.ctors[0].NameTok, errorlogger.Warning, "uninitMemberVar",
				fmt.Sprintf("Member variable '%s::%s' is not initialized in the constructor.",
					info.nameTok.Str, member.Str))
		}
	}
}

// checkVirtualDestructor: a class with virtual methods needs a
// virtual destructor.
func (c *CheckClass) checkVirtualDestructor(list *token.List, info *classInfo, logger errorlogger.ErrorLogger) {
	if !info.hasVirtual || info.hasVirtDtor {
		return
	}
	report(logger, list, info.nameTok, errorlogger.Error, "virtualDestructor",
		fmt.Sprintf("Class '%s' which has virtual members does not have a virtual destructor.",
			info.nameTok.Str))
}

// checkCopyConstructor: pointer members without a copy constructor
// invite double frees.
func (c *CheckClass) checkCopyConstructor(list *token.List, info *classInfo,
	set *settings.Settings, logger errorlogger.ErrorLogger) {
	if len(info.ptrMembers) == 0 || info.hasCopyCtor || len(info.ctors) == 0 {
		return
	}
	if !set.SeverityEnabled(errorlogger.Style) {
		return
	}
	report(logger, list, info.nameTok, errorlogger.Style, "noCopyConstructor",
		fmt.Sprintf("Class '%s' does not have a copy constructor which is recommended since the class contains a pointer member.",
			info.nameTok.Str))
}

// checkUnusedPrivateFunctions reports private methods never called
// anywhere in the translation unit.
func (c *CheckClass) checkUnusedPrivateFunctions(list *token.List, info *classInfo,
	set *settings.Settings, logger errorlogger.ErrorLogger) {
	if !set.SeverityEnabled(errorlogger.Style) {
		return
	}
	for _, method := range info.privMethods {
		used := false
		for tok := list.Front(); tok != nil; tok = tok.Next() {
			if tok == method || !tok.IsName || tok.Str != method.Str {
				continue
			}
			// a later "T name (" or "A :: name (" is the definition,
			// not a call
			if prev := tok.Prev(); prev != nil &&
				(prev.IsStandardType || prev.Kind == token.TypeName || prev.Str == "::") {
				continue
			}
			used = true
			break
		}
		if !used {
			report(logger, list, method, errorlogger.Style, "unusedPrivateFunction",
				fmt.Sprintf("Unused private function: '%s::%s'",
					info.nameTok.Str, method.Str))
		}
	}
}

func (c *CheckClass) ErrorMessages(logger errorlogger.ErrorLogger) {
	logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Warning, "uninitMemberVar",
		"Member variable 'X::m' is not initialized in the constructor.", "", 0))
	logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Error, "virtualDestructor",
		"Class 'X' which has virtual members does not have a virtual destructor.", "", 0))
	logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Style, "noCopyConstructor",
		"Class 'X' does not have a copy constructor which is recommended since the class contains a pointer member.", "", 0))
	logger.ReportErr(errorlogger.NewErrorMessage(errorlogger.Style, "unusedPrivateFunction",
		"Unused private function: 'X::f'", "", 0))
}
