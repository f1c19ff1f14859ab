package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/PaulFidika/vipbridge/entitlements"
	_ "modernc.org/sqlite"
)

// Backend keeps entitlements in a SQLite table with a unique index on
// (user_id, game_pass) and a secondary index on username.
type Backend struct {
	db *sql.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*Backend, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	dsn := path + "?" + url.Values{
		"_pragma": []string{
			"busy_timeout(30000)",
			"journal_mode(WAL)",
			"synchronous(NORMAL)",
		},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open entitlement db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	b := &Backend{db: db}
	if err := b.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

func (b *Backend) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS vip_entitlements (
		seq       INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id   TEXT NOT NULL,
		username  TEXT NOT NULL,
		game_pass TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_vip_entitlements_key ON vip_entitlements(user_id, game_pass);
	CREATE INDEX IF NOT EXISTS idx_vip_entitlements_username ON vip_entitlements(username);
	`
	if _, err := b.db.Exec(schema); err != nil {
		return fmt.Errorf("init entitlement schema: %w", err)
	}
	return nil
}

func (b *Backend) Ping(ctx context.Context) error { return b.db.PingContext(ctx) }

func (b *Backend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *Backend) Load(ctx context.Context) ([]entitlements.Record, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT user_id, username, game_pass FROM vip_entitlements ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list entitlements: %w", err)
	}
	defer rows.Close()
	out := []entitlements.Record{}
	for rows.Next() {
		var r entitlements.Record
		if err := rows.Scan(&r.UserID, &r.Username, &r.GamePass); err != nil {
			return nil, fmt.Errorf("scan entitlement: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Save replaces the table contents with records inside one transaction.
func (b *Backend) Save(ctx context.Context, records []entitlements.Record) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM vip_entitlements`); err != nil {
		return fmt.Errorf("clear entitlements: %w", err)
	}
	for _, r := range records {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vip_entitlements (user_id, username, game_pass) VALUES (?, ?, ?)`,
			r.UserID, r.Username, r.GamePass); err != nil {
			return fmt.Errorf("insert entitlement: %w", err)
		}
	}
	return tx.Commit()
}

func (b *Backend) UpsertRecord(ctx context.Context, rec entitlements.Record, updateOnDuplicate bool) (entitlements.Result, error) {
	res, err := b.db.ExecContext(ctx,
		`INSERT INTO vip_entitlements (user_id, username, game_pass) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, game_pass) DO NOTHING`,
		rec.UserID, rec.Username, rec.GamePass)
	if err != nil {
		return entitlements.Result{}, fmt.Errorf("insert entitlement: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return entitlements.Result{Created: true, Record: rec}, nil
	}

	var stored entitlements.Record
	err = b.db.QueryRowContext(ctx,
		`SELECT user_id, username, game_pass FROM vip_entitlements WHERE user_id = ? AND game_pass = ?`,
		rec.UserID, rec.GamePass).Scan(&stored.UserID, &stored.Username, &stored.GamePass)
	if err != nil {
		return entitlements.Result{}, fmt.Errorf("read existing entitlement: %w", err)
	}
	if !updateOnDuplicate || stored.Username == rec.Username {
		return entitlements.Result{Record: stored}, nil
	}
	if _, err := b.db.ExecContext(ctx,
		`UPDATE vip_entitlements SET username = ? WHERE user_id = ? AND game_pass = ?`,
		rec.Username, rec.UserID, rec.GamePass); err != nil {
		return entitlements.Result{}, fmt.Errorf("update entitlement username: %w", err)
	}
	return entitlements.Result{Updated: true, Record: rec}, nil
}

// FindByUsername returns the earliest record carrying username.
func (b *Backend) FindByUsername(ctx context.Context, username string) (entitlements.Record, bool, error) {
	var r entitlements.Record
	err := b.db.QueryRowContext(ctx,
		`SELECT user_id, username, game_pass FROM vip_entitlements WHERE username = ? ORDER BY seq LIMIT 1`,
		username).Scan(&r.UserID, &r.Username, &r.GamePass)
	if errors.Is(err, sql.ErrNoRows) {
		return entitlements.Record{}, false, nil
	}
	if err != nil {
		return entitlements.Record{}, false, fmt.Errorf("find entitlement by username: %w", err)
	}
	return r, true, nil
}
