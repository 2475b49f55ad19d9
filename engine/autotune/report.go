package autotune

import (
	"sort"
	"strings"
)

// Warning is advisory and never makes a document invalid.
type Warning struct {
	Instance string `json:"instance" yaml:"instance"`
	Message  string `json:"message"  yaml:"message"`
}

// Report is the outcome of validating one document.
type Report struct {
	Source     string      `json:"source"               yaml:"source"`
	Valid      bool        `json:"valid"                yaml:"valid"`
	Violations []Violation `json:"violations,omitempty" yaml:"violations,omitempty"`
	Warnings   []Warning   `json:"warnings,omitempty"   yaml:"warnings,omitempty"`
}

// Err returns nil for a valid report and a *ValidationError otherwise.
func (r *Report) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	return &ValidationError{Source: r.Source, Violations: r.Violations}
}

// HasKind reports whether any violation has kind k.
func (r *Report) HasKind(k Kind) bool {
	for _, v := range r.Violations {
		if v.Kind == k {
			return true
		}
	}
	return false
}

// Kinds returns the distinct violation kinds, sorted.
func (r *Report) Kinds() []Kind {
	seen := make(map[Kind]struct{})
	var kinds []Kind
	for _, v := range r.Violations {
		if _, ok := seen[v.Kind]; ok {
			continue
		}
		seen[v.Kind] = struct{}{}
		kinds = append(kinds, v.Kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func invalidDocumentReport(source string, err error) *Report {
	return &Report{
		Source: source,
		Valid:  false,
		Violations: []Violation{{
			Kind:    KindInvalidDocument,
			Message: err.Error(),
		}},
	}
}

func sortViolations(violations []Violation) {
	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].Location != violations[j].Location {
			return violations[i].Location < violations[j].Location
		}
		if violations[i].Kind != violations[j].Kind {
			return violations[i].Kind < violations[j].Kind
		}
		return violations[i].Message < violations[j].Message
	})
}

// splitLocation extracts the instance key and field name from a JSON pointer.
func splitLocation(location string) (instance, field string) {
	parts := strings.Split(strings.TrimPrefix(location, "/"), "/")
	for i, p := range parts {
		parts[i] = unescapePointer(p)
	}
	if len(parts) > 0 {
		instance = parts[0]
	}
	if len(parts) > 1 {
		field = parts[1]
	}
	return instance, field
}

func unescapePointer(token string) string {
	return strings.ReplaceAll(strings.ReplaceAll(token, "~1", "/"), "~0", "~")
}
