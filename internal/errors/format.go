package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// style is an ANSI escape sequence.
type style string

const (
	styleReset   style = "\033[0m"
	styleError   style = "\033[1;31m"
	styleWarning style = "\033[1;33m"
	styleTitle   style = "\033[1;37m"
	styleLink    style = "\033[34m"
	styleHint    style = "\033[36m"
	styleMuted   style = "\033[90m"
	styleMarker  style = "\033[31m"
)

// colorEnabled controls whether ANSI colors are used.
var colorEnabled = true

// DisableColors disables ANSI color output.
func DisableColors() {
	colorEnabled = false
}

// EnableColors enables ANSI color output.
func EnableColors() {
	colorEnabled = true
}

// paint wraps text in s unless colors are disabled.
func (s style) paint(text string) string {
	if !colorEnabled {
		return text
	}
	return string(s) + text + string(styleReset)
}

// textWidth is the column at which detail paragraphs wrap.
const textWidth = 70

// Format returns a multi-line message for terminal display.
func (e *StoreError) Format() string {
	var b strings.Builder
	e.writeHeader(&b)
	e.writeSource(&b)
	e.writeBody(&b)
	return b.String()
}

func (e *StoreError) writeHeader(b *strings.Builder) {
	label := styleError.paint("ERROR")
	if e.Severity == SeverityWarning {
		label = styleWarning.paint("WARNING")
	}

	title := ": " + e.Message
	if e.Code != "" {
		title = " " + e.Code + title
	}
	fmt.Fprintf(b, "\n%s%s\n\n", label, styleTitle.paint(title))
}

// writeSource prints the location and the surrounding lines, marking the
// offending one.
func (e *StoreError) writeSource(b *strings.Builder) {
	if e.Location == nil {
		return
	}
	fmt.Fprintf(b, "  %s\n\n", styleHint.paint(e.Location.String()))
	if len(e.Context) == 0 {
		return
	}

	first := max(e.Location.Line-len(e.Context)/2, 1)
	for i, line := range e.Context {
		n := first + i
		marker := "    "
		if n == e.Location.Line {
			marker = "  " + styleMarker.paint("→ ")
		}
		fmt.Fprintf(b, "%s%4d%s%s\n", marker, n, styleMuted.paint(" │ "), line)
	}
	b.WriteString("\n")
}

func (e *StoreError) writeBody(b *strings.Builder) {
	if e.Detail != "" {
		for _, para := range strings.Split(e.Detail, "\n") {
			for _, line := range wrap(para, textWidth) {
				fmt.Fprintf(b, "  %s\n", line)
			}
		}
		b.WriteString("\n")
	}
	if e.Wrapped != nil {
		fmt.Fprintf(b, "  %s%s\n\n", styleMuted.paint("Cause: "), e.Wrapped.Error())
	}
	if e.Suggestion != "" {
		fmt.Fprintf(b, "  %s%s\n\n", styleHint.paint("Hint: "), e.Suggestion)
	}
	if e.DocURL != "" {
		fmt.Fprintf(b, "  %s%s\n", styleMuted.paint("Learn more: "), styleLink.paint(e.DocURL))
	}
}

// FormatCompact returns "file:line:col: code: message", omitting the parts
// that are not set.
func (e *StoreError) FormatCompact() string {
	parts := make([]string, 0, 3)
	if e.Location != nil {
		parts = append(parts, e.Location.String())
	}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, ": ")
}

type jsonLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

type jsonError struct {
	Code       string        `json:"code,omitempty"`
	Category   Category      `json:"category"`
	Severity   string        `json:"severity"`
	Message    string        `json:"message"`
	Detail     string        `json:"detail,omitempty"`
	Location   *jsonLocation `json:"location,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
	DocURL     string        `json:"docUrl,omitempty"`
	Cause      string        `json:"cause,omitempty"`
}

// FormatJSON returns the error as a JSON object.
func (e *StoreError) FormatJSON() string {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Severity:   e.Severity.String(),
		Message:    e.Message,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
		DocURL:     e.DocURL,
	}
	if e.Location != nil {
		out.Location = &jsonLocation{File: e.Location.File, Line: e.Location.Line, Column: e.Location.Column}
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Message)
	}
	return string(data)
}

// wrap splits text into lines of at most width bytes, breaking at spaces.
// A single word longer than width gets a line of its own.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	lines := []string{words[0]}
	for _, word := range words[1:] {
		last := &lines[len(lines)-1]
		if len(*last)+1+len(word) > width {
			lines = append(lines, word)
			continue
		}
		*last += " " + word
	}
	return lines
}

// PrintError prints a formatted error to stderr.
func PrintError(err error) {
	Fprint(os.Stderr, err)
}

// Fprint prints a formatted error to w. A StoreError anywhere in err's
// chain is printed in full.
func Fprint(w io.Writer, err error) {
	var se *StoreError
	if stderrors.As(err, &se) {
		fmt.Fprint(w, se.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", styleError.paint("ERROR:"), err.Error())
}
