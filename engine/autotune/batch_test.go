package autotune

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/autotune/engine/document"
)

func TestValidator_ValidateFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/soa/web/autotuned_defaults/kubernetes-norcal.yaml": "main:\n  cpus: 1.5\n  mem: 512\n",
		"/soa/web/autotuned_defaults/kubernetes-pnw.json":    `{"main": {"cpus": 0}}`,
		"/soa/api/autotuned_defaults/kubernetes-norcal.yaml": "main: [broken\n",
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	loader := document.NewLoader(fs)
	v := newTestValidator(t)
	paths := []string{
		"/soa/web/autotuned_defaults/kubernetes-norcal.yaml",
		"/soa/web/autotuned_defaults/kubernetes-pnw.json",
		"/soa/api/autotuned_defaults/kubernetes-norcal.yaml",
		"/soa/missing.yaml",
	}

	t.Run("Should validate every file and keep input order", func(t *testing.T) {
		reports, err := v.ValidateFiles(context.Background(), loader, paths, 2)

		require.NoError(t, err)
		require.Len(t, reports, len(paths))
		for i, report := range reports {
			assert.Equal(t, paths[i], report.Source)
		}
		assert.True(t, reports[0].Valid)
		assert.True(t, reports[1].HasKind(KindRangeViolation))
		assert.Equal(t, []Kind{KindInvalidDocument}, reports[2].Kinds())
		assert.Equal(t, []Kind{KindInvalidDocument}, reports[3].Kinds())
		assert.False(t, AllValid(reports))
	})

	t.Run("Should treat a non-positive concurrency as one", func(t *testing.T) {
		reports, err := v.ValidateFiles(context.Background(), loader, paths[:1], 0)

		require.NoError(t, err)
		assert.True(t, AllValid(reports))
	})

	t.Run("Should stop on context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := v.ValidateFiles(ctx, loader, paths, 2)

		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Should report an empty batch as valid", func(t *testing.T) {
		reports, err := v.ValidateFiles(context.Background(), loader, nil, 4)

		require.NoError(t, err)
		assert.Empty(t, reports)
		assert.True(t, AllValid(reports))
	})
}
