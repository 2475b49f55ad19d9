package autotune

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/autotune/engine/document"
)

func newTestValidator(t *testing.T, opts ...Option) *Validator {
	t.Helper()
	v, err := NewValidator(opts...)
	require.NoError(t, err)
	return v
}

func validateJSON(t *testing.T, v *Validator, doc string) *Report {
	t.Helper()
	return v.ValidateBytes(context.Background(), "test.json", []byte(doc), document.FormatJSON)
}

func TestValidator_Scenarios(t *testing.T) {
	v := newTestValidator(t)

	t.Run("Should accept a valid override", func(t *testing.T) {
		report := validateJSON(t, v, `{"main": {"cpus": 1.5, "mem": 512}}`)

		assert.True(t, report.Valid)
		assert.Empty(t, report.Violations)
		assert.NoError(t, report.Err())
	})

	t.Run("Should reject an empty override object", func(t *testing.T) {
		report := validateJSON(t, v, `{"main": {}}`)

		assert.False(t, report.Valid)
		assert.True(t, report.HasKind(KindEmptyObject), "kinds: %v", report.Kinds())
		assert.ErrorIs(t, report.Err(), ErrEmptyObject)
	})

	t.Run("Should reject an unknown field", func(t *testing.T) {
		report := validateJSON(t, v, `{"main": {"cpus": 1, "bogus": 1}}`)

		assert.False(t, report.Valid)
		assert.True(t, report.HasKind(KindUnknownKey), "kinds: %v", report.Kinds())
		assert.ErrorIs(t, report.Err(), ErrUnknownKey)
	})

	t.Run("Should report every unknown field separately", func(t *testing.T) {
		report := validateJSON(t, v, `{"main": {"cpus": 1, "bogus": 1, "other": 2}}`)

		assert.False(t, report.Valid)
		fields := make([]string, 0, len(report.Violations))
		for _, violation := range report.Violations {
			assert.Equal(t, KindUnknownKey, violation.Kind)
			assert.Equal(t, "main", violation.Instance)
			fields = append(fields, violation.Field)
		}
		assert.ElementsMatch(t, []string{"bogus", "other"}, fields)
	})

	t.Run("Should reject a key that breaks the instance pattern", func(t *testing.T) {
		report := validateJSON(t, v, `{"Main-Service": {"cpus": 1}}`)

		assert.False(t, report.Valid)
		assert.True(t, report.HasKind(KindUnknownKey), "kinds: %v", report.Kinds())
	})

	t.Run("Should reject a negative min_instances", func(t *testing.T) {
		report := validateJSON(t, v, `{"main": {"min_instances": -1}}`)

		assert.False(t, report.Valid)
		assert.True(t, report.HasKind(KindRangeViolation), "kinds: %v", report.Kinds())
		assert.ErrorIs(t, report.Err(), ErrRangeViolation)
	})
}

func TestValidator_Boundaries(t *testing.T) {
	v := newTestValidator(t)
	testCases := []struct {
		name  string
		doc   string
		valid bool
	}{
		{"cpus at zero", `{"main": {"cpus": 0}}`, false},
		{"cpus just above zero", `{"main": {"cpus": 0.0001}}`, true},
		{"mem at 32", `{"main": {"mem": 32}}`, false},
		{"mem just above 32", `{"main": {"mem": 32.01}}`, true},
		{"disk at 128", `{"main": {"disk": 128}}`, false},
		{"disk just above 128", `{"main": {"disk": 128.01}}`, true},
		{"cpu_burst_add at zero", `{"main": {"cpu_burst_add": 0}}`, true},
		{"cpu_burst_add negative", `{"main": {"cpu_burst_add": -0.5}}`, false},
		{"min_instances at zero", `{"main": {"min_instances": 0}}`, true},
		{"max_instances at zero", `{"main": {"max_instances": 0}}`, true},
		{"max_instances negative", `{"main": {"max_instances": -3}}`, false},
	}
	for _, tc := range testCases {
		t.Run("Should handle "+tc.name, func(t *testing.T) {
			report := validateJSON(t, v, tc.doc)

			assert.Equal(t, tc.valid, report.Valid, "violations: %v", report.Violations)
			if !tc.valid {
				assert.True(t, report.HasKind(KindRangeViolation), "kinds: %v", report.Kinds())
			}
		})
	}
}

func TestValidator_Types(t *testing.T) {
	v := newTestValidator(t)

	t.Run("Should reject a string where a number is expected", func(t *testing.T) {
		report := validateJSON(t, v, `{"main": {"cpus": "2"}}`)

		assert.False(t, report.Valid)
		assert.True(t, report.HasKind(KindTypeMismatch), "kinds: %v", report.Kinds())
		assert.ErrorIs(t, report.Err(), ErrTypeMismatch)
	})

	t.Run("Should reject a fractional instance count", func(t *testing.T) {
		report := validateJSON(t, v, `{"main": {"min_instances": 1.5}}`)

		assert.False(t, report.Valid)
		assert.True(t, report.HasKind(KindTypeMismatch), "kinds: %v", report.Kinds())
	})

	t.Run("Should accept a whole-number instance count", func(t *testing.T) {
		report := validateJSON(t, v, `{"main": {"min_instances": 3, "max_instances": 10}}`)
		assert.True(t, report.Valid, "violations: %v", report.Violations)
	})

	t.Run("Should reject a non-object override", func(t *testing.T) {
		report := validateJSON(t, v, `{"main": 4}`)

		assert.False(t, report.Valid)
		assert.True(t, report.HasKind(KindTypeMismatch), "kinds: %v", report.Kinds())
	})

	t.Run("Should reject a non-object document", func(t *testing.T) {
		report := validateJSON(t, v, `["main"]`)

		assert.False(t, report.Valid)
		assert.True(t, report.HasKind(KindTypeMismatch), "kinds: %v", report.Kinds())
	})
}

func TestValidator_Document(t *testing.T) {
	v := newTestValidator(t)

	t.Run("Should reject an empty top-level mapping", func(t *testing.T) {
		report := validateJSON(t, v, `{}`)

		assert.False(t, report.Valid)
		assert.True(t, report.HasKind(KindEmptyObject), "kinds: %v", report.Kinds())
	})

	t.Run("Should accept instance keys with inner separators", func(t *testing.T) {
		report := validateJSON(t, v, `{"main": {"cpus": 1}, "canary_2": {"mem": 64}, "a-b": {"disk": 200}, "x": {"cpus": 3}}`)
		assert.True(t, report.Valid, "violations: %v", report.Violations)
	})

	t.Run("Should reject keys with leading or trailing separators", func(t *testing.T) {
		for _, key := range []string{"-main", "main_", "ma.in"} {
			report := validateJSON(t, v, `{"`+key+`": {"cpus": 1}}`)
			assert.False(t, report.Valid, "key %q", key)
		}
	})

	t.Run("Should report every violation, not only the first", func(t *testing.T) {
		report := validateJSON(t, v, `{"main": {"cpus": 0, "mem": "lots"}, "canary": {}}`)

		assert.False(t, report.Valid)
		assert.True(t, report.HasKind(KindRangeViolation))
		assert.True(t, report.HasKind(KindTypeMismatch))
		assert.True(t, report.HasKind(KindEmptyObject))
		assert.GreaterOrEqual(t, len(report.Violations), 3)
	})

	t.Run("Should locate violations by instance and field", func(t *testing.T) {
		report := validateJSON(t, v, `{"main": {"cpus": 0}}`)

		require.NotEmpty(t, report.Violations)
		violation := report.Violations[0]
		assert.Equal(t, "/main/cpus", violation.Location)
		assert.Equal(t, "main", violation.Instance)
		assert.Equal(t, FieldCPUs, violation.Field)
		assert.NotEmpty(t, violation.Message)
	})

	t.Run("Should report parse failures as invalid documents", func(t *testing.T) {
		report := validateJSON(t, v, `{"main": `)

		assert.False(t, report.Valid)
		assert.Equal(t, []Kind{KindInvalidDocument}, report.Kinds())
		assert.ErrorIs(t, report.Err(), ErrInvalidDocument)
	})

	t.Run("Should validate YAML documents", func(t *testing.T) {
		report := v.ValidateBytes(context.Background(), "a.yaml", []byte("main:\n  cpus: 1.5\n  mem: 512\n"), document.FormatYAML)
		assert.True(t, report.Valid, "violations: %v", report.Violations)
	})

	t.Run("Should validate already decoded values", func(t *testing.T) {
		report := v.Validate(context.Background(), map[string]any{
			"main": map[string]any{"cpus": float64(2)},
		})
		assert.True(t, report.Valid)
	})
}

func TestValidator_RoundTrip(t *testing.T) {
	v := newTestValidator(t)
	accepted := []string{
		`{"main": {"cpus": 1.5, "mem": 512}}`,
		`{"main": {"cpus": 0.25, "cpu_burst_add": 0, "disk": 1024, "min_instances": 1, "max_instances": 5, "mem": 33}}`,
		`{"canary": {"max_instances": 0}, "main": {"disk": 128.5}}`,
	}

	t.Run("Should accept re-serialized accepted documents", func(t *testing.T) {
		for _, doc := range accepted {
			first := validateJSON(t, v, doc)
			require.True(t, first.Valid, doc)

			parsed, err := document.Parse("doc.json", []byte(doc), document.FormatJSON)
			require.NoError(t, err)
			data, err := json.Marshal(parsed.Value)
			require.NoError(t, err)

			second := validateJSON(t, v, string(data))
			assert.Equal(t, first.Valid, second.Valid, doc)
		}
	})

	t.Run("Should give the same answer on repeated validation", func(t *testing.T) {
		doc := `{"main": {"cpus": 0}}`
		first := validateJSON(t, v, doc)
		second := validateJSON(t, v, doc)

		assert.Equal(t, first.Valid, second.Valid)
		assert.Equal(t, first.Violations, second.Violations)
	})
}

func TestValidator_TypedOverrides(t *testing.T) {
	v := newTestValidator(t)

	t.Run("Should accept typed overrides within bounds", func(t *testing.T) {
		report := v.ValidateOverrides(context.Background(), Overrides{
			"main": {CPUs: Float(1.5), Mem: Float(512), MinInstances: Int(1)},
		})
		assert.True(t, report.Valid, "violations: %v", report.Violations)
	})

	t.Run("Should reject typed overrides out of bounds", func(t *testing.T) {
		report := v.ValidateOverrides(context.Background(), Overrides{
			"main": {Disk: Float(128)},
		})
		assert.False(t, report.Valid)
		assert.True(t, report.HasKind(KindRangeViolation))
	})

	t.Run("Should reject an empty typed record", func(t *testing.T) {
		report := v.ValidateOverrides(context.Background(), Overrides{"main": {}})

		assert.False(t, report.Valid)
		assert.True(t, report.HasKind(KindEmptyObject))
	})
}

func TestValidator_Warnings(t *testing.T) {
	doc := `{"main": {"min_instances": 5, "max_instances": 2}}`

	t.Run("Should warn when min_instances exceeds max_instances without rejecting", func(t *testing.T) {
		report := validateJSON(t, newTestValidator(t), doc)

		assert.True(t, report.Valid)
		require.Len(t, report.Warnings, 1)
		assert.Equal(t, "main", report.Warnings[0].Instance)
	})

	t.Run("Should warn for Go integer values", func(t *testing.T) {
		value := map[string]any{"main": map[string]any{FieldMinInstances: 5, FieldMaxInstances: int64(2)}}

		report := newTestValidator(t).Validate(context.Background(), value)

		assert.True(t, report.Valid)
		require.Len(t, report.Warnings, 1)
		assert.Contains(t, report.Warnings[0].Message, "min_instances (5) is greater than max_instances (2)")
	})

	t.Run("Should skip warnings when disabled", func(t *testing.T) {
		report := validateJSON(t, newTestValidator(t, WithWarnings(false)), doc)

		assert.True(t, report.Valid)
		assert.Empty(t, report.Warnings)
	})
}

func TestValidationError(t *testing.T) {
	t.Run("Should expose every violation through errors.Is", func(t *testing.T) {
		err := (&Report{
			Source: "main.yaml",
			Violations: []Violation{
				{Kind: KindRangeViolation, Location: "/main/cpus", Message: "too small"},
				{Kind: KindUnknownKey, Location: "/main", Message: "bogus"},
			},
		}).Err()

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidOverrides)
		assert.ErrorIs(t, err, ErrRangeViolation)
		assert.ErrorIs(t, err, ErrUnknownKey)
		assert.False(t, errors.Is(err, ErrTypeMismatch))
		assert.Contains(t, err.Error(), "main.yaml: 2 violation(s)")
		assert.Contains(t, err.Error(), "/main/cpus: too small (range_violation)")
	})

	t.Run("Should return nil for valid reports", func(t *testing.T) {
		assert.NoError(t, (&Report{Valid: true}).Err())
		var report *Report
		assert.NoError(t, report.Err())
	})
}

func TestSchema(t *testing.T) {
	t.Run("Should expose a copy of the embedded schema", func(t *testing.T) {
		raw := Schema()
		require.True(t, json.Valid(raw))
		raw[0] = 'x'

		assert.True(t, json.Valid(Schema()))
	})

	t.Run("Should declare every override field", func(t *testing.T) {
		var doc map[string]any
		require.NoError(t, json.Unmarshal(Schema(), &doc))
		patterns := doc["patternProperties"].(map[string]any)
		record := patterns[InstanceKeyPattern].(map[string]any)
		props := record["properties"].(map[string]any)

		for _, field := range Fields {
			assert.Contains(t, props, field)
		}
		assert.Len(t, props, len(Fields))
	})
}

func TestIsValidInstanceKey(t *testing.T) {
	t.Run("Should follow the instance key pattern", func(t *testing.T) {
		for _, key := range []string{"main", "a", "canary-2", "batch_daily", "0"} {
			assert.True(t, IsValidInstanceKey(key), key)
		}
		for _, key := range []string{"Main", "-main", "main-", "_x", "a b", "a.b"} {
			assert.False(t, IsValidInstanceKey(key), key)
		}
	})
}
