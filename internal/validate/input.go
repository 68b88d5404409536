package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/everstacklabs/kai/internal/catalog"
)

// Issue is one field-level problem found while building an input payload.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// ValidationError carries every issue found in one BuildInput pass.
type ValidationError struct {
	Model  *catalog.Model
	Issues []Issue
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("input validation failed for model %q", e.Model.ID)
}

// CallbackAliases are the accepted spellings of the completion callback
// URL, checked in order.
var CallbackAliases = []string{"callBackUrl", "callbackUrl", "callback_url"}

// BuiltInput is a validated, coerced payload ready to send upstream.
type BuiltInput struct {
	Input       map[string]any
	CallbackURL string
}

// BuildInput validates raw against the model schema and coerces each
// declared parameter to its kind. All problems are collected and returned
// together as a *ValidationError; on success the payload holds only
// declared fields, with defaults filled in for omitted ones.
func BuildInput(model *catalog.Model, raw map[string]any) (*BuiltInput, error) {
	var issues []Issue
	out := &BuiltInput{
		Input:       make(map[string]any, len(model.Params)),
		CallbackURL: callbackURL(raw),
	}

	declared := make(map[string]bool, len(model.Params))
	for i := range model.Params {
		p := &model.Params[i]
		declared[p.Name] = true

		v, ok := raw[p.Name]
		if !ok || notProvided(v) {
			switch {
			case p.HasDefault():
				out.Input[p.Name] = p.Default
			case p.Required:
				issues = append(issues, Issue{p.Name, "Required parameter is missing"})
			}
			continue
		}

		value, paramIssues := coerce(p, v)
		if len(paramIssues) > 0 {
			issues = append(issues, paramIssues...)
			continue
		}
		out.Input[p.Name] = value
	}

	var unknown []string
	for k := range raw {
		if !declared[k] && !isCallbackAlias(k) {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		issues = append(issues, Issue{k, "Unknown parameter for this model"})
	}

	if len(issues) > 0 {
		return nil, &ValidationError{Model: model, Issues: issues}
	}
	return out, nil
}

func notProvided(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func callbackURL(raw map[string]any) string {
	for _, k := range CallbackAliases {
		if s, ok := raw[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func isCallbackAlias(k string) bool {
	for _, a := range CallbackAliases {
		if k == a {
			return true
		}
	}
	return false
}

type coerceFunc func(p *catalog.Param, v any) (any, []Issue)

var coercers = map[catalog.Kind]coerceFunc{
	catalog.KindString:  coerceString,
	catalog.KindNumber:  coerceNumber,
	catalog.KindInteger: coerceInteger,
	catalog.KindBoolean: coerceBoolean,
	catalog.KindEnum:    coerceEnum,
	catalog.KindArray:   coerceArray,
}

func coerce(p *catalog.Param, v any) (any, []Issue) {
	fn, ok := coercers[p.Kind]
	if !ok {
		return nil, []Issue{{p.Name, fmt.Sprintf("Unsupported parameter kind %q", p.Kind)}}
	}
	return fn(p, v)
}

func typeIssue(p *catalog.Param, kind catalog.Kind) []Issue {
	return []Issue{{p.Name, "Expected " + string(kind)}}
}

func optionsIssue(p *catalog.Param) Issue {
	return Issue{p.Name, "Value must be one of: " + strings.Join(p.Options, ", ")}
}

func inOptions(p *catalog.Param, s string) bool {
	for _, o := range p.Options {
		if o == s {
			return true
		}
	}
	return false
}

func coerceString(p *catalog.Param, v any) (any, []Issue) {
	s, ok := v.(string)
	if !ok {
		return nil, typeIssue(p, catalog.KindString)
	}
	if p.MaxLength != nil && len([]rune(s)) > *p.MaxLength {
		return nil, []Issue{{p.Name, fmt.Sprintf("Must be at most %d characters", *p.MaxLength)}}
	}
	if len(p.Options) > 0 && !inOptions(p, s) {
		return nil, []Issue{optionsIssue(p)}
	}
	return s, nil
}

func checkBounds(p *catalog.Param, f float64) []Issue {
	var issues []Issue
	if p.Min != nil && f < *p.Min {
		issues = append(issues, Issue{p.Name, "Must be at least " + formatNumber(*p.Min)})
	}
	if p.Max != nil && f > *p.Max {
		issues = append(issues, Issue{p.Name, "Must be at most " + formatNumber(*p.Max)})
	}
	if len(p.Options) > 0 && !inOptions(p, formatNumber(f)) {
		issues = append(issues, optionsIssue(p))
	}
	return issues
}

func coerceNumber(p *catalog.Param, v any) (any, []Issue) {
	f, ok := ToNumber(v)
	if !ok {
		return nil, typeIssue(p, catalog.KindNumber)
	}
	if issues := checkBounds(p, f); len(issues) > 0 {
		return nil, issues
	}
	return f, nil
}

func coerceInteger(p *catalog.Param, v any) (any, []Issue) {
	n, ok := ToInteger(v)
	if !ok {
		return nil, typeIssue(p, catalog.KindInteger)
	}
	if issues := checkBounds(p, float64(n)); len(issues) > 0 {
		return nil, issues
	}
	return n, nil
}

func coerceBoolean(p *catalog.Param, v any) (any, []Issue) {
	b, ok := ToBoolean(v)
	if !ok {
		return nil, typeIssue(p, catalog.KindBoolean)
	}
	return b, nil
}

// coerceEnum always yields a string. A declaration without options accepts
// any value.
func coerceEnum(p *catalog.Param, v any) (any, []Issue) {
	s := stringify(v)
	if len(p.Options) > 0 && !inOptions(p, s) {
		return nil, []Issue{optionsIssue(p)}
	}
	return s, nil
}

func coerceArray(p *catalog.Param, v any) (any, []Issue) {
	arr, ok := ToArray(v)
	if !ok {
		return nil, typeIssue(p, catalog.KindArray)
	}
	var issues []Issue
	if p.Min != nil && float64(len(arr)) < *p.Min {
		issues = append(issues, Issue{p.Name, fmt.Sprintf("Must contain at least %s item(s)", formatNumber(*p.Min))})
	}
	if p.Max != nil && float64(len(arr)) > *p.Max {
		issues = append(issues, Issue{p.Name, fmt.Sprintf("Must contain at most %s item(s)", formatNumber(*p.Max))})
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return arr, nil
}
