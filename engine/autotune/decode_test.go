package autotune

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/autotune/engine/document"
)

func TestDecode(t *testing.T) {
	ctx := context.Background()

	t.Run("Should decode a valid document into typed overrides", func(t *testing.T) {
		overrides, err := Decode(ctx, []byte(`{"main": {"cpus": 1.5, "mem": 512, "min_instances": 2}}`))

		require.NoError(t, err)
		main := overrides["main"]
		require.NotNil(t, main.CPUs)
		assert.Equal(t, 1.5, *main.CPUs)
		assert.Equal(t, 512.0, *main.Mem)
		assert.Equal(t, 2, *main.MinInstances)
		assert.Nil(t, main.Disk)
	})

	testCases := []struct {
		name string
		doc  string
		kind Kind
	}{
		{"empty record", `{"main": {}}`, KindEmptyObject},
		{"empty mapping", `{}`, KindEmptyObject},
		{"unknown field", `{"main": {"cpus": 1, "bogus": 1}}`, KindUnknownKey},
		{"bad key", `{"Main-Service": {"cpus": 1}}`, KindUnknownKey},
		{"negative min_instances", `{"main": {"min_instances": -1}}`, KindRangeViolation},
		{"cpus at zero", `{"main": {"cpus": 0}}`, KindRangeViolation},
		{"mem at bound", `{"main": {"mem": 32}}`, KindRangeViolation},
		{"disk at bound", `{"main": {"disk": 128}}`, KindRangeViolation},
		{"string cpus", `{"main": {"cpus": "1"}}`, KindTypeMismatch},
		{"fractional instances", `{"main": {"max_instances": 1.5}}`, KindTypeMismatch},
		{"array document", `[]`, KindTypeMismatch},
		{"null document", `null`, KindTypeMismatch},
		{"malformed", `{"main"`, KindInvalidDocument},
		{"trailing data", `{"main": {"cpus": 1}} {"x": 1}`, KindInvalidDocument},
		{"null record", `{"main": null}`, KindTypeMismatch},
		{"null field", `{"main": {"cpus": null}}`, KindTypeMismatch},
		{"non-object record", `{"main": 5}`, KindTypeMismatch},
	}
	for _, tc := range testCases {
		t.Run("Should reject "+tc.name, func(t *testing.T) {
			_, err := Decode(ctx, []byte(tc.doc))

			require.Error(t, err)
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			require.NotEmpty(t, validationErr.Violations)
			kinds := make([]Kind, 0, len(validationErr.Violations))
			for _, v := range validationErr.Violations {
				kinds = append(kinds, v.Kind)
			}
			assert.Contains(t, kinds, tc.kind)
		})
	}

	t.Run("Should locate struct violations by instance and field", func(t *testing.T) {
		_, err := Decode(ctx, []byte(`{"main": {"cpus": 0}}`))

		var validationErr *ValidationError
		require.True(t, errors.As(err, &validationErr))
		require.Len(t, validationErr.Violations, 1)
		assert.Equal(t, "/main/cpus", validationErr.Violations[0].Location)
		assert.Equal(t, FieldCPUs, validationErr.Violations[0].Field)
	})

	t.Run("Should locate type mismatches by instance and field", func(t *testing.T) {
		_, err := Decode(ctx, []byte(`{"canary": {"cpus": 1}, "main": {"min_instances": 1e20}}`))

		var validationErr *ValidationError
		require.True(t, errors.As(err, &validationErr))
		require.Len(t, validationErr.Violations, 1)
		violation := validationErr.Violations[0]
		assert.Equal(t, KindTypeMismatch, violation.Kind)
		assert.Equal(t, "/main/min_instances", violation.Location)
		assert.Equal(t, "main", violation.Instance)
		assert.Equal(t, FieldMinInstances, violation.Field)
	})

	t.Run("Should report violations from every record", func(t *testing.T) {
		_, err := Decode(ctx, []byte(`{"api": {"cpus": null}, "main": {"bogus": 1}, "web": {"mem": 16}}`))

		var validationErr *ValidationError
		require.True(t, errors.As(err, &validationErr))
		locations := make([]string, 0, len(validationErr.Violations))
		for _, v := range validationErr.Violations {
			locations = append(locations, v.Location)
		}
		assert.Equal(t, []string{"/api/cpus", "/main/bogus", "/web/mem"}, locations)
	})
}

func TestDecode_AgreesWithSchema(t *testing.T) {
	ctx := context.Background()
	v := newTestValidator(t)
	docs := []string{
		`{"main": {"cpus": 1.5, "mem": 512}}`,
		`{"main": {}}`,
		`{"main": {"cpus": 1, "bogus": 1}}`,
		`{"Main-Service": {"cpus": 1}}`,
		`{"main": {"min_instances": -1}}`,
		`{"main": {"cpus": 0.0001}}`,
		`{"main": {"mem": 32.01}, "canary": {"disk": 128.01}}`,
		`{"main": {"cpu_burst_add": 0, "max_instances": 0}}`,
		`{"a-b_c": {"disk": 127}}`,
		`{}`,
		`{"main": {"cpus": null}}`,
		`{"main": null}`,
		`{"main": {"min_instances": 2.5}}`,
		`{"main": {"cpus": 1}} {"x": 1}`,
	}

	t.Run("Should accept what the schema accepts and reject with the same kinds", func(t *testing.T) {
		for _, doc := range docs {
			report := v.ValidateBytes(ctx, "doc.json", []byte(doc), document.FormatJSON)
			_, err := Decode(ctx, []byte(doc))

			require.Equal(t, report.Valid, err == nil, doc)
			if err == nil {
				continue
			}
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr), doc)
			decoded := &Report{Violations: validationErr.Violations}
			assert.Equal(t, report.Kinds(), decoded.Kinds(), doc)
		}
	})

	t.Run("Should decode already parsed values", func(t *testing.T) {
		overrides, err := DecodeValue(ctx, map[string]any{"main": map[string]any{"disk": float64(256)}})

		require.NoError(t, err)
		assert.Equal(t, 256.0, *overrides["main"].Disk)
	})
}

func TestResourceOverride_IsEmpty(t *testing.T) {
	t.Run("Should report whether any field is set", func(t *testing.T) {
		assert.True(t, ResourceOverride{}.IsEmpty())
		assert.False(t, ResourceOverride{MaxInstances: Int(0)}.IsEmpty())
	})
}

func TestNamespaceParts(t *testing.T) {
	t.Run("Should split validator namespaces", func(t *testing.T) {
		instance, field := namespaceParts("overridesDocument.Instances[main].CPUBurstAdd")
		assert.Equal(t, "main", instance)
		assert.Equal(t, FieldCPUBurstAdd, field)

		instance, field = namespaceParts("overridesDocument.Instances[canary].ResourceOverride")
		assert.Equal(t, "canary", instance)
		assert.Empty(t, field)

		instance, field = namespaceParts("overridesDocument.Instances")
		assert.Empty(t, instance)
		assert.Empty(t, field)
	})
}
