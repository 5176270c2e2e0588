package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parleybot/parley/pkg/logger"
)

// MigrateFunc steps a raw document one schema version forward. It returns
// the updated raw document and true, or false when no migration path exists
// for the version found in raw.
type MigrateFunc func(raw map[string]any) (map[string]any, bool)

// Document persists one versioned JSON record. The stored object must carry
// its schema version in a top-level "version" field.
type Document struct {
	path    string
	version int
	migrate MigrateFunc
}

func New(path string, version int, migrate MigrateFunc) *Document {
	return &Document{path: path, version: version, migrate: migrate}
}

func (d *Document) Path() string { return d.path }

// Load reads the document into v. A missing file writes v as the initial
// state. A corrupt file or a failed migration falls back to the defaults
// already present in v and overwrites the file with them; neither is an
// error to the caller.
func (d *Document) Load(v any) error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return d.Save(v)
		}
		return fmt.Errorf("read %s: %w", d.path, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.WarnCF("store", "State could not be loaded, reinitializing", map[string]any{
			"path":  d.path,
			"error": err.Error(),
		})
		return d.Save(v)
	}

	if rawVersion(raw) != d.version {
		migrated, ok := d.runMigration(raw)
		if !ok {
			return d.Save(v)
		}
		raw = migrated
	}

	normalized, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("normalize %s: %w", d.path, err)
	}
	if err := json.Unmarshal(normalized, v); err != nil {
		logger.WarnCF("store", "State could not be loaded, reinitializing", map[string]any{
			"path":  d.path,
			"error": err.Error(),
		})
		return d.Save(v)
	}

	// Re-save immediately so obsolete fields are dropped from disk.
	return d.Save(v)
}

func (d *Document) runMigration(raw map[string]any) (map[string]any, bool) {
	if d.migrate == nil {
		logger.WarnCF("store", "Migration not possible, no migration profile available", map[string]any{
			"path":    d.path,
			"found":   rawVersion(raw),
			"current": d.version,
		})
		return nil, false
	}

	for rawVersion(raw) != d.version {
		before := rawVersion(raw)
		next, ok := d.migrate(raw)
		if !ok {
			logger.WarnCF("store", "Migration declared impossible", map[string]any{
				"path":    d.path,
				"stuck":   before,
				"current": d.version,
			})
			return nil, false
		}
		raw = next
		if rawVersion(raw) == before {
			logger.WarnCF("store", "Migration made no progress, giving up", map[string]any{
				"path":    d.path,
				"version": before,
			})
			return nil, false
		}
	}
	return raw, true
}

// Save writes v as indented JSON via a temp file rename, so a crash mid-write
// never leaves a truncated state file behind.
func (d *Document) Save(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", d.path, err)
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", d.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", d.path, err)
	}
	return nil
}

func rawVersion(raw map[string]any) int {
	switch v := raw["version"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
