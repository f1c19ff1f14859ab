package sqlitestore

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/PaulFidika/vipbridge/entitlements"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := Open(filepath.Join(t.TempDir(), "vip.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestSQLiteUpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	s := entitlements.NewStore(b)

	assert.True(t, s.Upsert(ctx, "1", "roblox_user1", "100").Created)
	res := s.Upsert(ctx, "1", "renamed", "100")
	assert.False(t, res.Created)
	assert.False(t, res.Updated)
	assert.Equal(t, "roblox_user1", res.Record.Username)
	assert.Equal(t, 1, s.Count(ctx))
}

func TestSQLiteUpdateOnDuplicate(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	s := entitlements.NewStore(b, entitlements.WithUpdateOnDuplicate(true))

	s.Upsert(ctx, "1", "roblox_user1", "100")
	assert.True(t, s.Upsert(ctx, "1", "renamed", "100").Updated)

	rec, ok := s.FindByUsername(ctx, "renamed")
	require.True(t, ok)
	assert.Equal(t, "100", rec.GamePass)
	_, ok = s.FindByUsername(ctx, "roblox_user1")
	assert.False(t, ok)
}

func TestSQLiteConcurrentUpsertsKeepAll(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	s := entitlements.NewStore(b, entitlements.WithSerializedUpserts(false))

	var wg sync.WaitGroup
	for _, pass := range []string{"100", "200", "300", "400"} {
		wg.Add(1)
		go func(pass string) {
			defer wg.Done()
			s.Upsert(ctx, "1", "roblox_user1", pass)
		}(pass)
	}
	wg.Wait()
	assert.Equal(t, 4, s.Count(ctx))
}

func TestSQLiteSnapshotReplace(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	in := []entitlements.Record{
		{UserID: "2", Username: "b", GamePass: "100"},
		{UserID: "1", Username: "a", GamePass: "100"},
	}
	require.NoError(t, b.Save(ctx, in))
	out, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	require.NoError(t, b.Ping(ctx))
}
