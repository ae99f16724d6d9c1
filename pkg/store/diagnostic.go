package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vango-dev/controlstore/internal/errors"
)

// DiagnosticsEnabled is the default for stores created without
// WithDiagnostics. It is true unless the module is built with
// -tags production.
var DiagnosticsEnabled = developmentBuild

// Diagnostic codes emitted by stores.
const (
	CodeControlledSet   = "W101"
	CodeControlledApply = "W102"
	CodeModeSwitch      = "W103"
	CodeMissingOnChange = "W104"
)

// Diagnostic is an advisory message about store misuse.
type Diagnostic struct {
	Code  string
	Level slog.Level

	// Store is the name of the reporting store, if it has one.
	Store string

	// Key is the property involved.
	Key string

	Message string
	Detail  string
	DocURL  string
}

// String returns "code: message".
func (d Diagnostic) String() string {
	return d.Code + ": " + d.Message
}

// Reporter receives diagnostics.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(d Diagnostic)

// Report calls f(d).
func (f ReporterFunc) Report(d Diagnostic) {
	f(d)
}

// LogReporter writes diagnostics to a slog.Logger.
// A nil Logger uses slog.Default().
type LogReporter struct {
	Logger *slog.Logger
}

// Report logs d at its level.
func (r LogReporter) Report(d Diagnostic) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{"code", d.Code, "key", d.Key}
	if d.Store != "" {
		attrs = append(attrs, "store", d.Store)
	}
	logger.Log(context.Background(), d.Level, d.Message, attrs...)
}

// newDiagnostic builds a Diagnostic from a registered code.
func newDiagnostic(code, key, message string) Diagnostic {
	tmpl := errors.New(code)
	level := slog.LevelWarn
	if tmpl.Severity == errors.SeverityError {
		level = slog.LevelError
	}
	return Diagnostic{
		Code:    code,
		Level:   level,
		Key:     key,
		Message: message,
		Detail:  tmpl.Detail,
		DocURL:  tmpl.DocURL,
	}
}

func controlledWriteDiagnostic(code, key string) Diagnostic {
	var msg string
	if code == CodeControlledApply {
		msg = fmt.Sprintf("controlstore: Attempted to apply change to controlled property %q. Use the appropriate setter method instead.", key)
	} else {
		msg = fmt.Sprintf("controlstore: Attempted to set controlled property %q. Use the appropriate setter method instead.", key)
	}
	return newDiagnostic(code, key, msg)
}

// modeSwitchDiagnostic describes a switch away from the mode a key had when
// it was first configured.
func modeSwitchDiagnostic(key string, wasControlled bool, cfg PropertyConfig) Diagnostic {
	from, to := "un", ""
	if wasControlled {
		from, to = "", "un"
	}
	stateName := cfg.State
	if stateName == "" {
		stateName = key
	}
	msg := fmt.Sprintf("controlstore: A component is changing the %scontrolled %s state of %s to be %scontrolled.\n", from, stateName, cfg.Name, to) +
		"Elements should not switch from uncontrolled to controlled (or vice versa).\n" +
		fmt.Sprintf("Decide between using a controlled or uncontrolled %s element for the lifetime of the component.\n", cfg.Name) +
		"The nature of the state is determined during the first configuration. It's considered controlled if a value is supplied."
	return newDiagnostic(CodeModeSwitch, key, msg)
}

func missingOnChangeDiagnostic(key string) Diagnostic {
	return newDiagnostic(CodeMissingOnChange, key,
		fmt.Sprintf("controlstore: Setter called for controlled property %q, but no OnChange was configured. The value was dropped.", key))
}
