package diagnostic

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"dtfabric/dterr"
)

// DiagnosticSeverity classifies a Diagnostic.
type DiagnosticSeverity int

const (
	DiagnosticInfo DiagnosticSeverity = iota
	DiagnosticWarning
	DiagnosticError
)

func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticInfo:
		return "info"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticError:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is one reported failure, traced back to the definition and
// (when applicable) the member and byte offset it occurred at.
type Diagnostic struct {
	Severity   DiagnosticSeverity
	Kind       string // dterr.Kind.String(), or "internal" for a bare error
	Definition string
	Member     string
	Offset     int // -1 when not applicable
	Message    string
}

func (d Diagnostic) String() string {
	var where []string

	if d.Definition != "" {
		ref := d.Definition
		if d.Member != "" {
			ref += "." + d.Member
		}

		where = append(where, "["+ref+"]")
	}

	if d.Offset >= 0 {
		where = append(where, fmt.Sprintf("offset %d", d.Offset))
	}

	msg := fmt.Sprintf("[%s] %s", d.Kind, d.Message)
	if len(where) > 0 {
		return strings.Join(where, " ") + ": " + msg
	}

	return msg
}

// Diagnostics is a severity-partitioned batch of Diagnostic, typically one
// whole schema.Read or dtmap.Map decode's worth of failures.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

func (d *Diagnostics) AddError(diag Diagnostic) {
	diag.Severity = DiagnosticError
	d.Errors = append(d.Errors, diag)
}

func (d *Diagnostics) AddWarning(diag Diagnostic) {
	diag.Severity = DiagnosticWarning
	d.Warnings = append(d.Warnings, diag)
}

func (d *Diagnostics) AddInfo(diag Diagnostic) {
	diag.Severity = DiagnosticInfo
	d.Infos = append(d.Infos, diag)
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (d *Diagnostics) HasErrors() bool { return len(d.Errors) > 0 }

// IsValid reports the absence of error-severity diagnostics.
func (d *Diagnostics) IsValid() bool { return len(d.Errors) == 0 }

// Merge appends other's diagnostics onto d.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// Error returns a combined error built from every error-severity
// diagnostic, or nil if there are none.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	parts := make([]string, 0, len(d.Errors))
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return fmt.Errorf("%s", strings.Join(parts, "; "))
}

// FromError flattens err into Diagnostics: a multierr.Errors aggregate (as
// produced by schema.Read) becomes one Diagnostic per constituent error,
// each as Error severity. A *dterr.Error keeps its Kind/Definition/Member/
// Offset; any other error becomes a bare "internal" diagnostic.
func FromError(err error) Diagnostics {
	var out Diagnostics

	if err == nil {
		return out
	}

	for _, e := range multierr.Errors(err) {
		out.AddError(diagnosticFromError(e))
	}

	return out
}

func diagnosticFromError(err error) Diagnostic {
	if de, ok := err.(*dterr.Error); ok {
		return Diagnostic{
			Kind:       de.Kind.String(),
			Definition: de.Definition,
			Member:     de.Member,
			Offset:     de.Offset,
			Message:    de.Message,
		}
	}

	return Diagnostic{Kind: "internal", Offset: -1, Message: err.Error()}
}
