package autotune

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonschema"

	"github.com/compozy/autotune/engine/document"
	"github.com/compozy/autotune/engine/schema"
	"github.com/compozy/autotune/pkg/logger"
)

// Validator checks documents against the embedded schema. It is safe for
// concurrent use.
type Validator struct {
	schema   *jsonschema.Schema
	warnings bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithWarnings toggles the advisory lint pass on valid documents.
func WithWarnings(enabled bool) Option {
	return func(v *Validator) {
		v.warnings = enabled
	}
}

// NewValidator compiles the embedded schema, once per process.
func NewValidator(opts ...Option) (*Validator, error) {
	s, err := compiled()
	if err != nil {
		return nil, err
	}
	v := &Validator{schema: s, warnings: true}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Validate checks a decoded JSON value and reports every violation.
func (v *Validator) Validate(ctx context.Context, value any) *Report {
	return v.validate(ctx, "", value)
}

// ValidateBytes parses data in the given format and validates it.
func (v *Validator) ValidateBytes(ctx context.Context, name string, data []byte, format document.Format) *Report {
	doc, err := document.Parse(name, data, format)
	if err != nil {
		return invalidDocumentReport(name, err)
	}
	return v.validate(ctx, name, doc.Value)
}

// ValidateDocument validates an already parsed document.
func (v *Validator) ValidateDocument(ctx context.Context, doc *document.Document) *Report {
	return v.validate(ctx, doc.Path, doc.Value)
}

// ValidateOverrides validates a typed value through its JSON form.
func (v *Validator) ValidateOverrides(ctx context.Context, overrides Overrides) *Report {
	data, err := json.Marshal(overrides)
	if err != nil {
		return invalidDocumentReport("", fmt.Errorf("failed to encode overrides: %w", err))
	}
	return v.ValidateBytes(ctx, "", data, document.FormatJSON)
}

func (v *Validator) validate(ctx context.Context, source string, value any) *Report {
	log := logger.FromContext(ctx).With("source", source)

	evalMu.Lock()
	result := v.schema.Validate(value)
	evalMu.Unlock()

	report := &Report{Source: source, Valid: result.Valid}
	if !result.Valid {
		report.Violations = violationsFrom(result)
		log.Debug("document rejected", "violations", len(report.Violations))
		return report
	}
	if v.warnings {
		report.Warnings = lintValue(value)
	}
	log.Debug("document accepted", "warnings", len(report.Warnings))
	return report
}

// violationsFrom classifies the validator's keyword errors.
func violationsFrom(result *schema.Result) []Violation {
	failures := schema.Failures(result)
	seen := make(map[string]struct{})
	var violations []Violation
	for _, f := range failures {
		kind, ok := kindForKeyword(f.Keyword)
		if !ok {
			continue
		}
		for _, pv := range pointViolations(kind, f) {
			key := string(pv.Kind) + "\x00" + pv.Location
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			violations = append(violations, pv)
		}
	}
	if len(violations) == 0 {
		// Nothing classifiable; surface the raw errors rather than nothing.
		for _, f := range failures {
			instance, field := splitLocation(f.InstanceLocation)
			violations = append(violations, Violation{
				Kind:     KindSchema,
				Location: f.InstanceLocation,
				Instance: instance,
				Field:    field,
				Keyword:  f.Keyword,
				Message:  f.Message,
			})
		}
		if len(violations) == 0 {
			violations = append(violations, Violation{Kind: KindSchema, Message: "document does not match the schema"})
		}
	}
	sortViolations(violations)
	return violations
}

// pointViolations turns one keyword error into violations. Errors naming
// extra properties yield one violation per property.
func pointViolations(kind Kind, f schema.Failure) []Violation {
	names := propertyNames(f)
	if len(names) == 0 {
		instance, field := splitLocation(f.InstanceLocation)
		return []Violation{{
			Kind:     kind,
			Location: f.InstanceLocation,
			Instance: instance,
			Field:    field,
			Keyword:  f.Keyword,
			Message:  f.Message,
		}}
	}
	violations := make([]Violation, 0, len(names))
	for _, name := range names {
		location := f.InstanceLocation + "/" + escapePointer(name)
		instance, field := splitLocation(location)
		message := f.Message
		if len(names) > 1 {
			message = fmt.Sprintf("additional property '%s' is not allowed", name)
		}
		violations = append(violations, Violation{
			Kind:     kind,
			Location: location,
			Instance: instance,
			Field:    field,
			Keyword:  f.Keyword,
			Message:  message,
		})
	}
	return violations
}

// propertyNames extracts the property names of an additionalProperties or
// propertyNames error. The validator reports them as "'a', 'b'".
func propertyNames(f schema.Failure) []string {
	if f.Keyword != "additionalProperties" && f.Keyword != "propertyNames" {
		return nil
	}
	var names []string
	for _, param := range []string{"property", "properties"} {
		switch value := f.Params[param].(type) {
		case string:
			parts := []string{value}
			if param == "properties" {
				parts = strings.Split(value, ",")
			}
			for _, part := range parts {
				if name := strings.Trim(strings.TrimSpace(part), `'"`); name != "" {
					names = append(names, name)
				}
			}
		case []string:
			names = append(names, value...)
		case []any:
			for _, item := range value {
				if name, ok := item.(string); ok && name != "" {
					names = append(names, name)
				}
			}
		}
	}
	return names
}

func escapePointer(token string) string {
	out := make([]rune, 0, len(token))
	for _, r := range token {
		switch r {
		case '~':
			out = append(out, '~', '0')
		case '/':
			out = append(out, '~', '1')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
