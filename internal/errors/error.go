package errors

import (
	"bufio"
	"fmt"
	"os"
)

// Category groups codes by the layer that reports them.
type Category string

const (
	CategoryRuntime  Category = "runtime"
	CategoryConfig   Category = "config"
	CategoryPersist  Category = "persist"
	CategoryScenario Category = "scenario"
	CategoryCLI      Category = "cli"
)

// Severity distinguishes advisory warnings from hard errors.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// String returns the lower-case severity name.
func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Location represents a source location, usually a line in a scenario file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns "file:line" or "file:line:column".
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// StoreError is a structured error with an optional location, suggestion and
// documentation link.
type StoreError struct {
	// Code is a unique identifier (e.g., "W101", "E120").
	Code string

	Category Category
	Severity Severity

	// Message is a short description.
	Message string

	// Detail is a longer explanation.
	Detail string

	Location *Location

	// Context contains surrounding source lines.
	Context []string

	// Suggestion is a hint on how to fix the problem.
	Suggestion string

	DocURL string

	// Wrapped is the cause, if any.
	Wrapped error
}

// Error returns "code: message", followed by the cause if there is one.
func (e *StoreError) Error() string {
	msg := e.Message
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the cause.
func (e *StoreError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds a source location and reads the surrounding lines.
func (e *StoreError) WithLocation(file string, line, column int) *StoreError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, 5)
	return e
}

// WithSuggestion adds a fix suggestion.
func (e *StoreError) WithSuggestion(s string) *StoreError {
	e.Suggestion = s
	return e
}

// WithDetail replaces the detailed explanation.
func (e *StoreError) WithDetail(d string) *StoreError {
	e.Detail = d
	return e
}

// WithMessage replaces the short message.
func (e *StoreError) WithMessage(m string) *StoreError {
	e.Message = m
	return e
}

// Wrap records err as the cause.
func (e *StoreError) Wrap(err error) *StoreError {
	e.Wrapped = err
	return e
}

// readContextLines returns up to contextSize lines of filename centred on
// targetLine. Unreadable files yield nil.
func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines
}

// New creates a StoreError from a registered code.
func New(code string) *StoreError {
	template, ok := registry[code]
	if !ok {
		return &StoreError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &StoreError{
		Code:     code,
		Category: template.Category,
		Severity: template.Severity,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a StoreError with a formatted message and no code.
func Newf(category Category, format string, args ...any) *StoreError {
	return &StoreError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a StoreError.
func FromError(err error, code string) *StoreError {
	if err == nil {
		return nil
	}
	if se, ok := err.(*StoreError); ok {
		return se
	}
	return New(code).Wrap(err)
}
