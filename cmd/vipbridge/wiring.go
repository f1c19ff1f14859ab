package main

import (
	"context"
	"fmt"
	"time"

	"github.com/PaulFidika/vipbridge/adapters/ginutil"
	"github.com/PaulFidika/vipbridge/config"
	"github.com/PaulFidika/vipbridge/core"
	"github.com/PaulFidika/vipbridge/entitlements"
	memorylimiter "github.com/PaulFidika/vipbridge/ratelimit/memory"
	redislimiter "github.com/PaulFidika/vipbridge/ratelimit/redis"
	filestore "github.com/PaulFidika/vipbridge/storage/file"
	memorystore "github.com/PaulFidika/vipbridge/storage/memory"
	pgstore "github.com/PaulFidika/vipbridge/storage/postgres"
	redisstore "github.com/PaulFidika/vipbridge/storage/redis"
	sqlitestore "github.com/PaulFidika/vipbridge/storage/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func openRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if !cfg.NeedsRedis() {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return rdb, nil
}

func openBackend(ctx context.Context, cfg *config.Config, rdb *redis.Client, log logrus.FieldLogger) (entitlements.Backend, error) {
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("using in-memory entitlement store, records are lost on restart")
		return memorystore.New(), nil
	case config.StoreSQLite:
		return sqlitestore.Open(cfg.SQLitePath)
	case config.StorePostgres:
		b, applied, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if len(applied) > 0 {
			log.WithField("migrations", applied).Info("postgres migrations applied")
		}
		return b, nil
	case config.StoreRedis:
		return redisstore.New(rdb, cfg.RedisKey), nil
	default:
		return filestore.New(cfg.DataFile), nil
	}
}

func openStore(ctx context.Context, cfg *config.Config, rdb *redis.Client, log logrus.FieldLogger) (*entitlements.Store, error) {
	b, err := openBackend(ctx, cfg, rdb, log)
	if err != nil {
		return nil, fmt.Errorf("open %s entitlement store: %w", cfg.Store, err)
	}
	return entitlements.NewStore(b,
		entitlements.WithUpdateOnDuplicate(cfg.UpdateOnDuplicate),
		entitlements.WithSerializedUpserts(cfg.SerializeUpserts),
		entitlements.WithLogger(log),
	), nil
}

// buildLimiter returns nil when both limits are off. With Redis available the
// limits are shared across processes.
func buildLimiter(cfg *config.Config, rdb *redis.Client) (ginutil.RateLimiter, *memorylimiter.Limiter) {
	if cfg.IngestPerMinute <= 0 && cfg.GrantPerMinute <= 0 {
		return nil, nil
	}
	if rdb != nil {
		return redislimiter.New(rdb, "", map[string]redislimiter.Limit{
			ginutil.RLUpdateVIP: {Limit: cfg.IngestPerMinute, Window: time.Minute},
			core.BucketGrant:    {Limit: cfg.GrantPerMinute, Window: time.Minute},
		}), nil
	}
	ml := memorylimiter.New(map[string]memorylimiter.Limit{
		ginutil.RLUpdateVIP: memorylimiter.PerMinute(cfg.IngestPerMinute),
		core.BucketGrant:    memorylimiter.PerMinute(cfg.GrantPerMinute),
	})
	return ml, ml
}
