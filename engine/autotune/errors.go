package autotune

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a violation.
type Kind string

const (
	KindUnknownKey      Kind = "unknown_key"
	KindEmptyObject     Kind = "empty_object"
	KindTypeMismatch    Kind = "type_mismatch"
	KindRangeViolation  Kind = "range_violation"
	KindInvalidDocument Kind = "invalid_document"
	// KindSchema covers validator errors that fit no other kind.
	KindSchema Kind = "schema"
)

var (
	ErrUnknownKey      = errors.New("unknown key")
	ErrEmptyObject     = errors.New("empty object")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrRangeViolation  = errors.New("range violation")
	ErrInvalidDocument = errors.New("invalid document")
	ErrSchema          = errors.New("schema violation")

	// ErrInvalidOverrides matches every *ValidationError.
	ErrInvalidOverrides = errors.New("invalid autotune overrides")
)

func (k Kind) sentinel() error {
	switch k {
	case KindUnknownKey:
		return ErrUnknownKey
	case KindEmptyObject:
		return ErrEmptyObject
	case KindTypeMismatch:
		return ErrTypeMismatch
	case KindRangeViolation:
		return ErrRangeViolation
	case KindInvalidDocument:
		return ErrInvalidDocument
	default:
		return ErrSchema
	}
}

// kindForKeyword maps JSON Schema keywords to violation kinds. Keywords that
// only report that a child failed are absent and yield ok == false.
func kindForKeyword(keyword string) (Kind, bool) {
	switch keyword {
	case "additionalProperties", "propertyNames", "pattern", "unevaluatedProperties":
		return KindUnknownKey, true
	case "minProperties", "required":
		return KindEmptyObject, true
	case "type":
		return KindTypeMismatch, true
	case "minimum", "exclusiveMinimum", "maximum", "exclusiveMaximum", "multipleOf":
		return KindRangeViolation, true
	default:
		return "", false
	}
}

// Violation is one reason a document was rejected.
type Violation struct {
	Kind Kind `json:"kind"              yaml:"kind"`
	// Location is a JSON pointer into the document, "" for the root.
	Location string `json:"location"          yaml:"location"`
	Instance string `json:"instance,omitempty" yaml:"instance,omitempty"`
	Field    string `json:"field,omitempty"    yaml:"field,omitempty"`
	Keyword  string `json:"keyword,omitempty"  yaml:"keyword,omitempty"`
	Message  string `json:"message"           yaml:"message"`
}

func (v Violation) Error() string {
	location := v.Location
	if location == "" {
		location = "/"
	}
	return fmt.Sprintf("%s: %s (%s)", location, v.Message, v.Kind)
}

func (v Violation) Is(target error) bool {
	return target == v.Kind.sentinel()
}

// ValidationError aggregates every violation of a rejected document.
type ValidationError struct {
	Source     string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Error())
	}
	source := e.Source
	if source == "" {
		source = "document"
	}
	return fmt.Sprintf("%s: %d violation(s): %s", source, len(e.Violations), strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidOverrides
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Violations))
	for _, v := range e.Violations {
		errs = append(errs, v)
	}
	return errs
}
