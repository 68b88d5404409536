// Package validate turns loosely typed parameter bags into model payloads
// and lints catalog schemas.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/everstacklabs/kai/internal/catalog"
)

// Severity classifies catalog lint findings.
type Severity int

const (
	SeverityError   Severity = iota // Schema cannot be used as declared
	SeverityWarning                 // Usable, but likely a data mistake
)

// Finding is one problem in a catalog entry.
type Finding struct {
	Severity Severity
	Model    string
	Field    string
	Message  string
}

func (f Finding) String() string {
	sev := "ERROR"
	if f.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s: %s: %s", sev, f.Model, f.Field, f.Message)
}

// Report holds all lint findings.
type Report struct {
	Findings []Finding
}

// HasErrors returns true if there are any blocking findings.
func (r *Report) HasErrors() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only error-severity findings.
func (r *Report) Errors() []Finding {
	return r.filter(SeverityError)
}

// Warnings returns only warning-severity findings.
func (r *Report) Warnings() []Finding {
	return r.filter(SeverityWarning)
}

func (r *Report) filter(s Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// LintModel checks a single catalog entry. Struct tags on catalog.Model
// cover field presence and kind names; the rest are cross-field checks.
func LintModel(m *catalog.Model) *Report {
	r := &Report{}
	id := m.ID
	if id == "" {
		id = "<unnamed>"
	}

	if err := structValidator.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			r.Findings = append(r.Findings, Finding{SeverityError, id, "", err.Error()})
		}
		for _, fe := range verrs {
			r.Findings = append(r.Findings, Finding{SeverityError, id, fieldPath(fe), tagMessage(fe)})
		}
	}

	seen := make(map[string]bool, len(m.Params))
	for _, p := range m.Params {
		field := "params." + p.Name
		if seen[p.Name] {
			r.Findings = append(r.Findings, Finding{SeverityError, id, field, "duplicate parameter name"})
		}
		seen[p.Name] = true

		for _, alias := range CallbackAliases {
			if p.Name == alias {
				r.Findings = append(r.Findings, Finding{SeverityError, id, field, "parameter name collides with the callback URL alias"})
			}
		}
		if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
			r.Findings = append(r.Findings, Finding{SeverityError, id, field,
				fmt.Sprintf("min %s exceeds max %s", formatNumber(*p.Min), formatNumber(*p.Max))})
		}
		if p.Required && p.HasDefault() {
			r.Findings = append(r.Findings, Finding{SeverityWarning, id, field,
				"required parameter has a default; it is filled in when omitted"})
		}
		if p.HasDefault() && p.Kind != catalog.KindEnum && len(p.Options) > 0 && !inOptions(&p, stringify(p.Default)) {
			r.Findings = append(r.Findings, Finding{SeverityWarning, id, field,
				fmt.Sprintf("default %q is not among the options", stringify(p.Default))})
		}
		if p.Kind == catalog.KindEnum && p.HasDefault() && len(p.Options) > 0 && !inOptions(&p, stringify(p.Default)) {
			r.Findings = append(r.Findings, Finding{SeverityError, id, field,
				fmt.Sprintf("default %q is not among the options", stringify(p.Default))})
		}
		if p.MaxLength != nil && p.Kind != catalog.KindString {
			r.Findings = append(r.Findings, Finding{SeverityWarning, id, field,
				fmt.Sprintf("max_length has no effect on %s parameters", p.Kind)})
		}
	}

	return r
}

// LintCatalog checks every model in the registry.
func LintCatalog(reg *catalog.Registry) *Report {
	r := &Report{}
	for _, m := range reg.All() {
		r.Findings = append(r.Findings, LintModel(m).Findings...)
	}
	return r
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required field is empty"
	case "required_if":
		return "enum parameters must declare options"
	case "oneof":
		return fmt.Sprintf("%q is not one of: %s", fmt.Sprint(fe.Value()), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return "must be a URL"
	case "gt":
		return "must be greater than " + fe.Param()
	}
	return fmt.Sprintf("failed %q check", fe.Tag())
}

// FormatReport renders lint findings for terminal output.
func FormatReport(r *Report) string {
	if len(r.Findings) == 0 {
		return "Catalog is valid."
	}

	var b strings.Builder
	errs := r.Errors()
	warns := r.Warnings()

	if len(errs) > 0 {
		fmt.Fprintf(&b, "Errors (%d):\n", len(errs))
		for _, f := range errs {
			fmt.Fprintf(&b, "  %s\n", f)
		}
	}
	if len(warns) > 0 {
		if len(errs) > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Warnings (%d):\n", len(warns))
		for _, f := range warns {
			fmt.Fprintf(&b, "  %s\n", f)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatIssues renders a validation failure with one line per field.
func FormatIssues(err *ValidationError) string {
	var b strings.Builder
	b.WriteString(err.Error())
	for _, i := range err.Issues {
		fmt.Fprintf(&b, "\n  - %s", i)
	}
	return b.String()
}
