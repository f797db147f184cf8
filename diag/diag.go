// Package diag collects recoverable problems found while extracting and
// mapping a header. Diagnostics never abort a platform run; they are returned
// next to the partial result so the caller decides whether they block success.
package diag

import (
	"fmt"
	"sort"
)

// Severity of a diagnostic
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Code identifies the kind of problem
type Code string

const (
	CodeBitField         Code = "bitfield"
	CodeVariadic         Code = "variadic"
	CodeIgnoredType      Code = "ignored-type"
	CodeExcluded         Code = "excluded"
	CodeDuplicateMacro   Code = "duplicate-macro"
	CodeForwardReference Code = "forward-reference"
	CodeMacroEval        Code = "macro-eval"
	CodeFrontend         Code = "frontend"
)

// DefaultSeverity returns the severity used when a code is reported
func (c Code) DefaultSeverity() Severity {
	switch c {
	case CodeIgnoredType:
		return SeverityError
	case CodeExcluded:
		return SeverityInfo
	default:
		return SeverityWarning
	}
}

// Diagnostic is one recoverable problem
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`
	Message  string   `json:"message"`
	Entity   string   `json:"entity,omitempty"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Platform string   `json:"platform,omitempty"`
}

// Position renders file:line, or an empty string when unknown
func (d Diagnostic) Position() string {
	if d.File == "" {
		return ""
	}
	if d.Line <= 0 {
		return d.File
	}
	return fmt.Sprintf("%s:%d", d.File, d.Line)
}

func (d Diagnostic) String() string {
	pos := d.Position()
	if pos != "" {
		pos += ": "
	}
	return fmt.Sprintf("%s%s [%s] %s", pos, d.Severity, d.Code, d.Message)
}

// Sink accumulates diagnostics for one platform run.
// A Sink is owned by a single run and is not safe for concurrent use.
type Sink struct {
	platform string
	items    []Diagnostic
}

// NewSink creates a sink that stamps every diagnostic with platform
func NewSink(platform string) *Sink {
	return &Sink{platform: platform}
}

// Report adds d to the sink
func (s *Sink) Report(d Diagnostic) {
	if d.Platform == "" {
		d.Platform = s.platform
	}
	s.items = append(s.items, d)
}

// Reportf adds a diagnostic with the code's default severity
func (s *Sink) Reportf(code Code, entity, file string, line int, format string, args ...interface{}) {
	s.Report(Diagnostic{
		Severity: code.DefaultSeverity(),
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Entity:   entity,
		File:     file,
		Line:     line,
	})
}

// Items returns the diagnostics in the order they were reported
func (s *Sink) Items() []Diagnostic {
	out := make([]Diagnostic, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of diagnostics
func (s *Sink) Len() int {
	return len(s.items)
}

// Count returns how many diagnostics carry code
func (s *Sink) Count(code Code) int {
	n := 0
	for _, d := range s.items {
		if d.Code == code {
			n++
		}
	}
	return n
}

// HasErrors reports whether any error-severity diagnostic was reported
func (s *Sink) HasErrors() bool {
	return HasErrors(s.items)
}

// HasErrors reports whether ds contains an error-severity diagnostic
func HasErrors(ds []Diagnostic) bool {
	for _, d := range ds {
		if d.Severity >= SeverityError {
			return true
		}
	}
	return false
}

// Sorted returns ds ordered by platform, file, line, then code.
// Ties keep their reported order.
func Sorted(ds []Diagnostic) []Diagnostic {
	out := make([]Diagnostic, len(ds))
	copy(out, ds)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Platform != b.Platform {
			return a.Platform < b.Platform
		}
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Code < b.Code
	})
	return out
}
