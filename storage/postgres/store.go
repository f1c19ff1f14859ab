package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PaulFidika/vipbridge/entitlements"
	migrations "github.com/PaulFidika/vipbridge/migrations/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// Backend keeps entitlements in Postgres. The unique index on (user_id, game_pass)
// enforces the uniqueness invariant across processes, so upserts need no
// in-process lock.
type Backend struct {
	pg    *pgxpool.Pool
	table string
}

func New(pg *pgxpool.Pool, schema string) *Backend {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "public"
	}
	return &Backend{pg: pg, table: s + ".vip_entitlements"}
}

// Open connects to dsn and applies pending migrations.
func Open(ctx context.Context, dsn string) (*Backend, []string, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqldb := stdlib.OpenDBFromPool(pool)
	applied, err := migrations.Up(ctx, sqldb)
	_ = sqldb.Close()
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return New(pool, ""), applied, nil
}

func (b *Backend) Ping(ctx context.Context) error { return b.pg.Ping(ctx) }

func (b *Backend) Close() error {
	b.pg.Close()
	return nil
}

func (b *Backend) Load(ctx context.Context) ([]entitlements.Record, error) {
	rows, err := b.pg.Query(ctx, `SELECT user_id, username, game_pass FROM `+b.table+` ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []entitlements.Record{}
	for rows.Next() {
		var r entitlements.Record
		if err := rows.Scan(&r.UserID, &r.Username, &r.GamePass); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Save replaces the table contents with records in one transaction.
func (b *Backend) Save(ctx context.Context, records []entitlements.Record) error {
	tx, err := b.pg.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, `DELETE FROM `+b.table); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`INSERT INTO `+b.table+` (user_id, username, game_pass) VALUES ($1, $2, $3)`, r.UserID, r.Username, r.GamePass)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (b *Backend) UpsertRecord(ctx context.Context, rec entitlements.Record, updateOnDuplicate bool) (entitlements.Result, error) {
	tag, err := b.pg.Exec(ctx,
		`INSERT INTO `+b.table+` (user_id, username, game_pass) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, game_pass) DO NOTHING`,
		rec.UserID, rec.Username, rec.GamePass)
	if err != nil {
		return entitlements.Result{}, err
	}
	if tag.RowsAffected() == 1 {
		return entitlements.Result{Created: true, Record: rec}, nil
	}
	if updateOnDuplicate {
		tag, err := b.pg.Exec(ctx,
			`UPDATE `+b.table+` SET username=$3, updated_at=NOW() WHERE user_id=$1 AND game_pass=$2 AND username <> $3`,
			rec.UserID, rec.GamePass, rec.Username)
		if err != nil {
			return entitlements.Result{}, err
		}
		if tag.RowsAffected() == 1 {
			return entitlements.Result{Updated: true, Record: rec}, nil
		}
	}
	var stored entitlements.Record
	err = b.pg.QueryRow(ctx,
		`SELECT user_id, username, game_pass FROM `+b.table+` WHERE user_id=$1 AND game_pass=$2`,
		rec.UserID, rec.GamePass).Scan(&stored.UserID, &stored.Username, &stored.GamePass)
	if err != nil {
		return entitlements.Result{}, err
	}
	return entitlements.Result{Record: stored}, nil
}

func (b *Backend) FindByUsername(ctx context.Context, username string) (entitlements.Record, bool, error) {
	var r entitlements.Record
	err := b.pg.QueryRow(ctx,
		`SELECT user_id, username, game_pass FROM `+b.table+` WHERE username=$1 ORDER BY seq LIMIT 1`,
		username).Scan(&r.UserID, &r.Username, &r.GamePass)
	if errors.Is(err, pgx.ErrNoRows) {
		return entitlements.Record{}, false, nil
	}
	if err != nil {
		return entitlements.Record{}, false, err
	}
	return r, true, nil
}
