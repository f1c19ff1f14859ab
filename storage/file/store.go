package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/PaulFidika/vipbridge/entitlements"
)

// DefaultPath is the snapshot file used when none is configured.
const DefaultPath = "vipPlayers.json"

// Backend keeps the entitlement snapshot in a single pretty-printed JSON array.
// Every Save rewrites the whole document through a temp file and rename, so a
// concurrent Load sees either the old or the new snapshot, never a partial one.
type Backend struct {
	path string
	mu   sync.Mutex // serializes temp-file writes within this process
}

func New(path string) *Backend {
	p := strings.TrimSpace(path)
	if p == "" {
		p = DefaultPath
	}
	return &Backend{path: p}
}

// Path returns the snapshot file path.
func (b *Backend) Path() string { return b.path }

func (b *Backend) Load(ctx context.Context) ([]entitlements.Record, error) {
	_ = ctx
	data, err := os.ReadFile(b.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}
	var recs []entitlements.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", b.path, err)
	}
	return recs, nil
}

func (b *Backend) Save(ctx context.Context, records []entitlements.Record) error {
	_ = ctx
	if records == nil {
		records = []entitlements.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	dir := filepath.Dir(b.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", b.path, err)
	}
	return nil
}
