package pgstore

import (
	"context"
	"os"
	"testing"

	"github.com/PaulFidika/vipbridge/entitlements"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	dsn := os.Getenv("VIP_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("VIP_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	b, _, err := Open(ctx, dsn)
	require.NoError(t, err)
	_, err = b.pg.Exec(ctx, `TRUNCATE `+b.table)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestPostgresUpsertAndLookup(t *testing.T) {
	ctx := context.Background()
	s := entitlements.NewStore(newTestBackend(t))

	assert.True(t, s.Upsert(ctx, "1", "roblox_user1", "100").Created)
	assert.False(t, s.Upsert(ctx, "1", "renamed", "100").Created)
	assert.Equal(t, 1, s.Count(ctx))

	rec, ok := s.FindByUsername(ctx, "roblox_user1")
	require.True(t, ok)
	assert.Equal(t, "100", rec.GamePass)
}

func TestPostgresUpdateOnDuplicate(t *testing.T) {
	ctx := context.Background()
	s := entitlements.NewStore(newTestBackend(t), entitlements.WithUpdateOnDuplicate(true))

	s.Upsert(ctx, "1", "roblox_user1", "100")
	res := s.Upsert(ctx, "1", "renamed", "100")
	assert.True(t, res.Updated)
	assert.Equal(t, "renamed", res.Record.Username)
}
