// Package diagnostics implements the compiler's error taxonomy and the
// single-line "<file>:<line>: <kind>: <message>" rendering that both the
// accumulated InvalidCommand list and the aborting error kinds share.
package diagnostics

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Kind is one member of the compiler's error taxonomy (spec §7).
type Kind string

const (
	KindInvalidInput        Kind = "invalid-input"
	KindInvalidCommand      Kind = "invalid-command"
	KindDuplicateOutput     Kind = "duplicate-output"
	KindUnboundPlaceholder  Kind = "unbound-placeholder"
	KindOutputWriteFailure  Kind = "output-write-failure"
	KindConfigError         Kind = "config-error"
	KindMissingCallee       Kind = "missing-callee"
	KindInvalidCallee       Kind = "invalid-callee"
)

// Severity distinguishes diagnostics that abort compilation from ones that
// only accumulate and are reported at the end.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// severityOf implements the propagation policy of spec §7: InvalidCommand,
// MissingCallee and InvalidCallee accumulate and never change the exit
// code; every other kind aborts with exit 1.
func severityOf(k Kind) Severity {
	switch k {
	case KindInvalidCommand, KindMissingCallee, KindInvalidCallee:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// Diagnostic is one user-visible compiler finding.
type Diagnostic struct {
	File    string
	Line    int
	Kind    Kind
	Message string
}

// Severity reports whether d changes the process exit code.
func (d Diagnostic) Severity() Severity {
	return severityOf(d.Kind)
}

// String renders "<file>:<line>: <kind>: <message>", the fixed uncolored
// format automated tooling can rely on. A zero Line omits the ":<line>"
// segment (used for diagnostics with no single associated source line,
// e.g. DuplicateOutput).
func (d Diagnostic) String() string {
	if d.Line == 0 {
		return fmt.Sprintf("%s: %s: %s", d.File, d.Kind, d.Message)
	}
	return fmt.Sprintf("%s:%d: %s: %s", d.File, d.Line, d.Kind, d.Message)
}

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)

// Report is the accumulated diagnostics of one compilation.
type Report struct {
	Diagnostics []Diagnostic
}

// Add appends d to the report.
func (r *Report) Add(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}

// HasErrors reports whether any accumulated diagnostic has SeverityError.
func (r *Report) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity() == SeverityError {
			return true
		}
	}
	return false
}

// ExitCode maps the report to the process exit code of spec §6: 0 if
// nothing aborts, 1 if any diagnostic has SeverityError.
func (r *Report) ExitCode() int {
	if r.HasErrors() {
		return 1
	}
	return 0
}

// WriteTo prints one diagnostic per line to w. colorize should be true only
// when w is a terminal and color has not been suppressed (NO_COLOR,
// --no-color); it wraps the "<kind>" token in a severity color without
// altering the literal diagnostic text underneath.
func (r *Report) WriteTo(w io.Writer, colorize bool) {
	for _, d := range r.Diagnostics {
		if !colorize {
			fmt.Fprintln(w, d.String())
			continue
		}
		style := errorStyle
		if d.Severity() == SeverityWarning {
			style = warnStyle
		}
		kind := style.Render(string(d.Kind))
		if d.Line == 0 {
			fmt.Fprintf(w, "%s: %s: %s\n", d.File, kind, d.Message)
		} else {
			fmt.Fprintf(w, "%s:%d: %s: %s\n", d.File, d.Line, kind, d.Message)
		}
	}
}

// ShouldColorize reports whether stderr-directed diagnostic output should
// be colorized: it must be a terminal, NO_COLOR must be unset, and the
// caller's own --no-color flag (noColor) must be false.
func ShouldColorize(noColor bool) bool {
	if noColor {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
