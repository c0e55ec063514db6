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

package errorlogger

import (
	"fmt"
	"io"
	"strings"
)

// TextLogger prints diagnostics in the classic one line form to errw
// and progress output to outw.
type TextLogger struct {
	Outw io.Writer
	Errw io.Writer
}

func (l *TextLogger) ReportErr(msg ErrorMessage) {
	fmt.Fprintln(l.Errw, msg.Text())
}

func (l *TextLogger) ReportOut(line string) {
	fmt.Fprintln(l.Outw, line)
}

func xmlEscape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}

// XMLLogger prints diagnostics as XML, version 1 (flat) or 2
// (results/errors/error with location children).
type XMLLogger struct {
	Outw    io.Writer
	Errw    io.Writer
	Version int
}

// Begin writes the XML prologue. Call once before any diagnostic.
func (l *XMLLogger) Begin() {
	fmt.Fprintln(l.Errw, `<?xml version="1.0" encoding="UTF-8"?>`)
	if l.Version == 2 {
		fmt.Fprintln(l.Errw, `<results version="2">`)
		fmt.Fprintln(l.Errw, `    <errors>`)
	} else {
		fmt.Fprintln(l.Errw, `<results>`)
	}
}

// End closes the document. Call once after the last diagnostic.
func (l *XMLLogger) End() {
	if l.Version == 2 {
		fmt.Fprintln(l.Errw, `    </errors>`)
	}
	fmt.Fprintln(l.Errw, `</results>`)
}

func (l *XMLLogger) ReportErr(msg ErrorMessage) {
	if l.Version == 2 {
		fmt.Fprintf(l.Errw, "        <error id=\"%s\" severity=\"%s\" msg=\"%s\" verbose=\"%s\"",
			xmlEscape(msg.ID), msg.Severity.String(), xmlEscape(msg.Msg), xmlEscape(msg.Verbose))
		if len(msg.Callstack) == 0 {
			fmt.Fprintln(l.Errw, "/>")
			return
		}
		fmt.Fprintln(l.Errw, ">")
		// Innermost location first.
		for _, loc := range msg.Callstack {
			fmt.Fprintf(l.Errw, "            <location file=\"%s\" line=\"%d\"/>\n",
				xmlEscape(loc.File), loc.Line)
		}
		fmt.Fprintln(l.Errw, "        </error>")
		return
	}
	file := ""
	line := 0
	if len(msg.Callstack) > 0 {
		file = msg.Callstack[0].File
		line = msg.Callstack[0].Line
	}
	fmt.Fprintf(l.Errw, "    <error file=\"%s\" line=\"%d\" id=\"%s\" severity=\"%s\" msg=\"%s\"/>\n",
		xmlEscape(file), line, xmlEscape(msg.ID), msg.Severity.String(), xmlEscape(msg.Msg))
}

func (l *XMLLogger) ReportOut(line string) {
	fmt.Fprintln(l.Outw, line)
}
