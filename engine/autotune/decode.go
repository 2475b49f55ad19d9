package autotune

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/compozy/autotune/engine/schema"
)

// overridesDocument wraps Overrides so the struct validator can dive into it.
type overridesDocument struct {
	Instances Overrides `validate:"dive,keys,instance_key,endkeys,required"`
}

func newStructValidator(doc *overridesDocument) (*schema.StructValidator, error) {
	structs := schema.NewStructValidator(validator.New(validator.WithRequiredStructEnabled()), doc)
	if err := structs.RegisterValidation("instance_key", func(fl validator.FieldLevel) bool {
		return IsValidInstanceKey(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("failed to register instance_key validation: %w", err)
	}
	structs.RegisterStructValidation(func(sl validator.StructLevel) {
		override, ok := sl.Current().Interface().(ResourceOverride)
		if ok && override.IsEmpty() {
			sl.ReportError(override, "ResourceOverride", "ResourceOverride", "nonempty", "")
		}
	}, ResourceOverride{})
	return structs, nil
}

// Decode parses a JSON document into typed overrides, applying the same
// rules as the schema. Integer fields only accept integer literals.
func Decode(ctx context.Context, data []byte) (Overrides, error) {
	records, err := decodeRecords(data)
	if err != nil {
		return nil, err
	}
	doc := &overridesDocument{Instances: make(Overrides, len(records))}
	structs, err := newStructValidator(doc)
	if err != nil {
		return nil, err
	}
	checks := schema.NewCompositeValidator(
		schema.ValidatorFunc(func(context.Context) error {
			return decodeInto(records, doc.Instances)
		}),
		structs,
	)
	if err := checks.Validate(ctx); err != nil {
		violations := violationsOf(err)
		sortViolations(violations)
		return nil, &ValidationError{Violations: violations}
	}
	return doc.Instances, nil
}

// DecodeValue decodes an already parsed JSON value.
func DecodeValue(ctx context.Context, value any) (Overrides, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	return Decode(ctx, data)
}

// decodeRecords splits the document into raw per-instance records.
func decodeRecords(data []byte) (map[string]json.RawMessage, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	var records map[string]json.RawMessage
	if err := decoder.Decode(&records); err != nil {
		return nil, &ValidationError{Violations: decodeViolations("", err)}
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, &ValidationError{Violations: []Violation{{
			Kind:    KindInvalidDocument,
			Message: "unexpected data after top-level value",
		}}}
	}
	if records == nil {
		return nil, &ValidationError{Violations: []Violation{{
			Kind:    KindTypeMismatch,
			Message: "document must be an object",
		}}}
	}
	if len(records) == 0 {
		return nil, &ValidationError{Violations: []Violation{{
			Kind:    KindEmptyObject,
			Keyword: "min",
			Message: "must contain at least one instance",
		}}}
	}
	return records, nil
}

// decodeInto decodes every record into overrides. Records with null values,
// unknown fields or mistyped values are reported and left out.
func decodeInto(records map[string]json.RawMessage, overrides Overrides) error {
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)
	var violations []Violation
	for _, name := range names {
		override, recordViolations := decodeRecord(name, records[name])
		if len(recordViolations) > 0 {
			violations = append(violations, recordViolations...)
			continue
		}
		overrides[name] = override
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func decodeRecord(name string, raw json.RawMessage) (ResourceOverride, []Violation) {
	var override ResourceOverride
	if isNull(raw) {
		return override, []Violation{fieldViolation(KindTypeMismatch, name, "", "type", "override must be an object, got null")}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return override, decodeViolations(name, err)
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var violations []Violation
	for _, key := range keys {
		switch {
		case !slices.Contains(Fields, key):
			violations = append(violations, fieldViolation(KindUnknownKey, name, key, "additionalProperties",
				fmt.Sprintf("unknown field %q", key)))
		case isNull(fields[key]):
			violations = append(violations, fieldViolation(KindTypeMismatch, name, key, "type",
				"value must be a number, got null"))
		}
	}
	if len(violations) > 0 {
		return override, violations
	}
	if err := json.Unmarshal(raw, &override); err != nil {
		return override, decodeViolations(name, err)
	}
	return override, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func fieldViolation(kind Kind, instance, field, keyword, message string) Violation {
	location := ""
	if instance != "" {
		location = "/" + escapePointer(instance)
		if field != "" {
			location += "/" + escapePointer(field)
		}
	}
	return Violation{
		Kind:     kind,
		Location: location,
		Instance: instance,
		Field:    field,
		Keyword:  keyword,
		Message:  message,
	}
}

// decodeViolations classifies an encoding/json error raised while decoding
// the record of instance, or the whole document when instance is empty.
func decodeViolations(instance string, err error) []Violation {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if instance == "" {
			field = ""
		}
		return []Violation{fieldViolation(KindTypeMismatch, instance, field, "type",
			fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value))}
	case errors.As(err, &syntaxErr):
		return []Violation{{Kind: KindInvalidDocument, Message: err.Error()}}
	default:
		return []Violation{{Kind: KindInvalidDocument, Message: err.Error()}}
	}
}

// violationsOf flattens the errors of the decode and struct passes.
func violationsOf(err error) []Violation {
	var validationErr *ValidationError
	var fieldErrs validator.ValidationErrors
	switch e := err.(type) {
	case *ValidationError:
		return e.Violations
	case validator.ValidationErrors:
		return structViolations(e)
	case interface{ Unwrap() []error }:
		var violations []Violation
		for _, inner := range e.Unwrap() {
			violations = append(violations, violationsOf(inner)...)
		}
		return violations
	}
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Violations
	case errors.As(err, &fieldErrs):
		return structViolations(fieldErrs)
	default:
		return []Violation{{Kind: KindSchema, Message: err.Error()}}
	}
}

func structViolations(fieldErrs validator.ValidationErrors) []Violation {
	violations := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		instance, field := namespaceParts(fe.Namespace())
		v := fieldViolation(kindForTag(fe.Tag()), instance, field, fe.Tag(), structMessage(fe))
		violations = append(violations, v)
	}
	return violations
}

func kindForTag(tag string) Kind {
	switch tag {
	case "instance_key":
		return KindUnknownKey
	case "min", "required", "nonempty":
		return KindEmptyObject
	case "gt", "gte":
		return KindRangeViolation
	default:
		return KindSchema
	}
}

// namespaceParts turns "overridesDocument.Instances[main].CPUs" into
// ("main", "cpus").
func namespaceParts(ns string) (instance, field string) {
	open := strings.Index(ns, "[")
	closeIdx := strings.LastIndex(ns, "]")
	if open < 0 || closeIdx < open {
		return "", ""
	}
	instance = ns[open+1 : closeIdx]
	rest := strings.TrimPrefix(ns[closeIdx+1:], ".")
	if rest != "" && rest != "ResourceOverride" {
		field = jsonFieldName(rest)
	}
	return instance, field
}

var goFieldToJSON = map[string]string{
	"CPUs":         FieldCPUs,
	"CPUBurstAdd":  FieldCPUBurstAdd,
	"Disk":         FieldDisk,
	"MinInstances": FieldMinInstances,
	"MaxInstances": FieldMaxInstances,
	"Mem":          FieldMem,
}

func jsonFieldName(goName string) string {
	if name, ok := goFieldToJSON[goName]; ok {
		return name
	}
	return goName
}

func structMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "required", "nonempty":
		return "override must set at least one field"
	case "instance_key":
		return fmt.Sprintf("instance key must match %s", InstanceKeyPattern)
	default:
		return fe.Error()
	}
}
