package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsDiscovered(t *testing.T) {
	names, err := fs.Glob(FS, "*.up.sql")
	require.NoError(t, err)
	assert.NotEmpty(t, names)

	sorted := Migrations.Sorted()
	require.Len(t, sorted, len(names))
	assert.Equal(t, "20250301000000", sorted[0].Name)
}
