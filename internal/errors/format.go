package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
	ansiBold   = "\033[1m"
)

var colorEnabled = true

// DisableColors turns off ANSI styling in Format and Fprint.
func DisableColors() {
	colorEnabled = false
}

// EnableColors turns ANSI styling back on.
func EnableColors() {
	colorEnabled = true
}

func paint(style, text string) string {
	if !colorEnabled || text == "" {
		return text
	}
	return style + text + ansiReset
}

func red(text string) string    { return paint(ansiRed, text) }
func yellow(text string) string { return paint(ansiYellow, text) }
func blue(text string) string   { return paint(ansiBlue, text) }
func cyan(text string) string   { return paint(ansiCyan, text) }
func gray(text string) string   { return paint(ansiGray, text) }
func bold(text string) string   { return paint(ansiBold, text) }

// subject names what failed: "route /, asset /co2.csv".
func (e *SiteError) subject() string {
	var parts []string
	if e.Route != "" {
		parts = append(parts, "route "+e.Route)
	}
	if e.Asset != "" {
		parts = append(parts, "asset "+e.Asset)
	}
	return strings.Join(parts, ", ")
}

// Format renders the error for a terminal:
//
//	error[E220]: Asset not found (route /, asset /missing.csv)
//	  --> index.html:2:10
//	      1 | <h1>Home</h1>
//	>     2 | <img src="/missing.csv">
//	        |          ^
//
//	  hint: Add missing.csv to static/
func (e *SiteError) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	if e.Code != "" {
		b.WriteString(red(bold("error[" + e.Code + "]")))
	} else {
		b.WriteString(red(bold("error")))
	}
	b.WriteString(bold(": " + e.Message))
	if s := e.subject(); s != "" {
		b.WriteString(" (")
		b.WriteString(yellow(s))
		b.WriteString(")")
	}
	b.WriteString("\n")

	if e.Location != nil {
		fmt.Fprintf(&b, "  %s %s\n", gray("-->"), cyan(e.Location.String()))
		e.writeSource(&b)
	}
	b.WriteString("\n")

	for _, line := range wrapText(e.Detail, 72) {
		b.WriteString("  " + line + "\n")
	}
	if e.Wrapped != nil {
		fmt.Fprintf(&b, "  %s %s\n", gray("cause:"), e.Wrapped.Error())
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s %s\n", cyan("hint:"), e.Suggestion)
	}
	if e.DocURL != "" {
		fmt.Fprintf(&b, "  %s %s\n", gray("docs:"), blue(e.DocURL))
	}
	return b.String()
}

// writeSource prints the context lines with the error line marked and a
// caret under the column.
func (e *SiteError) writeSource(b *strings.Builder) {
	if len(e.Context) == 0 {
		return
	}
	first := e.ContextStart
	if first <= 0 {
		first = e.Location.Line - len(e.Context)/2
	}
	for i, line := range e.Context {
		n := first + i
		if n != e.Location.Line {
			fmt.Fprintf(b, "   %4d %s %s\n", n, gray("|"), line)
			continue
		}
		fmt.Fprintf(b, "%s  %4d %s %s\n", red(">"), n, gray("|"), line)
		if e.Location.Column > 0 {
			fmt.Fprintf(b, "        %s %s%s\n", gray("|"), strings.Repeat(" ", e.Location.Column-1), red("^"))
		}
	}
}

// FormatCompact returns the error on one line, prefixed by its location:
// "index.html:3:7: E210: Route failed to render (route /)".
func (e *SiteError) FormatCompact() string {
	var b strings.Builder
	if e.Location != nil {
		b.WriteString(e.Location.String() + ": ")
	}
	if e.Code != "" {
		b.WriteString(e.Code + ": ")
	}
	b.WriteString(e.Message)
	if s := e.subject(); s != "" {
		b.WriteString(" (" + s + ")")
	}
	return b.String()
}

type jsonLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

type jsonError struct {
	Code       string        `json:"code,omitempty"`
	Category   Category      `json:"category,omitempty"`
	Message    string        `json:"message"`
	Detail     string        `json:"detail,omitempty"`
	Route      string        `json:"route,omitempty"`
	Asset      string        `json:"asset,omitempty"`
	Location   *jsonLocation `json:"location,omitempty"`
	Cause      string        `json:"cause,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
	DocURL     string        `json:"docUrl,omitempty"`
}

// FormatJSON returns the error as a single-line JSON object.
func (e *SiteError) FormatJSON() string {
	v := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Route:      e.Route,
		Asset:      e.Asset,
		Suggestion: e.Suggestion,
		DocURL:     e.DocURL,
	}
	if e.Location != nil {
		v.Location = &jsonLocation{File: e.Location.File, Line: e.Location.Line, Column: e.Location.Column}
	}
	if e.Wrapped != nil {
		v.Cause = e.Wrapped.Error()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Error())
	}
	return string(data)
}

// wrapText breaks text into lines of at most width bytes, splitting on
// whitespace. A single longer word gets a line of its own.
func wrapText(text string, width int) []string {
	var (
		lines []string
		line  string
	)
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) > width:
			lines = append(lines, line)
			line = word
		default:
			line += " " + word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// Fprint writes err to w in the terminal format. Errors that are not
// SiteErrors are printed as a bare error line.
func Fprint(w io.Writer, err error) {
	if se, ok := As(err); ok {
		fmt.Fprint(w, se.Format())
		return
	}
	fmt.Fprintf(w, "\n%s: %s\n", red(bold("error")), err)
}

// FprintJSON writes err to w as one JSON object per line.
func FprintJSON(w io.Writer, err error) {
	se, ok := As(err)
	if !ok {
		se = &SiteError{Message: err.Error()}
	}
	fmt.Fprintln(w, se.FormatJSON())
}
