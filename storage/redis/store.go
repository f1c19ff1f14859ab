package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/PaulFidika/vipbridge/entitlements"
	"github.com/redis/go-redis/v9"
)

// Backend stores the entitlement snapshot as one JSON value under a single key.
// The key has no TTL: entitlements are never revoked by this system.
type Backend struct {
	rdb *redis.Client
	key string
}

func New(rdb *redis.Client, key string) *Backend {
	if key == "" {
		key = "vip:entitlements"
	}
	return &Backend{rdb: rdb, key: key}
}

func (b *Backend) Load(ctx context.Context) ([]entitlements.Record, error) {
	val, err := b.rdb.Get(ctx, b.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("key %s: %w", b.key, err)
	}
	if err != nil {
		return nil, err
	}
	var recs []entitlements.Record
	if err := json.Unmarshal(val, &recs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", b.key, err)
	}
	return recs, nil
}

func (b *Backend) Save(ctx context.Context, records []entitlements.Record) error {
	if records == nil {
		records = []entitlements.Record{}
	}
	v, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return b.rdb.Set(ctx, b.key, v, 0).Err()
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}
