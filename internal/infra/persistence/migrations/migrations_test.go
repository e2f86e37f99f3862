package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource(t *testing.T) {
	for _, store := range []Store{StoreLocal, StoreIdentity} {
		t.Run(string(store), func(t *testing.T) {
			source, err := Source(store)
			require.NoError(t, err)

			files, err := fs.Glob(source, "*.sql")
			require.NoError(t, err)
			require.NotEmpty(t, files)

			for _, name := range files {
				body, err := fs.ReadFile(source, name)
				require.NoError(t, err)
				assert.True(t, strings.Contains(string(body), "-- +goose Up"), name)
				assert.True(t, strings.Contains(string(body), "-- +goose Down"), name)
			}
		})
	}

	_, err := Source("reports")
	assert.Error(t, err)
}

func TestLocalSchemaDeclaresConstraintNames(t *testing.T) {
	source, err := Source(StoreLocal)
	require.NoError(t, err)

	var schema strings.Builder
	files, err := fs.Glob(source, "*.sql")
	require.NoError(t, err)
	for _, name := range files {
		body, err := fs.ReadFile(source, name)
		require.NoError(t, err)
		schema.Write(body)
	}

	// repositories translate these names into conflicts
	for _, name := range []string{"uq_users_email", "uq_users_external_identity_ref", "uq_users_store_name_lower", "uq_roles_name"} {
		assert.Contains(t, schema.String(), name)
	}
}
