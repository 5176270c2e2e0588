// Package transcript keeps every utterance the classifier has seen so that
// low-confidence inputs can later be reviewed and turned into training data.
package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Utterance is one recorded classification attempt.
type Utterance struct {
	ID         string
	CreatedAt  time.Time
	Content    string
	TopIntent  string
	Score      float64
	Classified bool
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create transcript db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single writer process. One shared connection avoids SQLite writer
	// lock contention between goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS utterances (
			id TEXT PRIMARY KEY,
			created_at_ms INTEGER NOT NULL,
			content TEXT NOT NULL,
			top_intent TEXT NOT NULL DEFAULT '',
			score REAL NOT NULL DEFAULT 0,
			classified INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS utterances_classified_idx ON utterances(classified, created_at_ms DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init transcript db: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record satisfies the recognizer's recorder hook.
func (s *Store) Record(content, topIntent string, score float64, classified bool) error {
	_, err := s.db.Exec(
		`INSERT INTO utterances (id, created_at_ms, content, top_intent, score, classified)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), time.Now().UnixMilli(), content, topIntent, score, boolToInt(classified),
	)
	if err != nil {
		return fmt.Errorf("record utterance: %w", err)
	}
	return nil
}

// RecentUnclassified returns the newest utterances the classifier was not
// confident about, newest first.
func (s *Store) RecentUnclassified(ctx context.Context, limit int) ([]Utterance, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at_ms, content, top_intent, score, classified
		 FROM utterances WHERE classified = 0
		 ORDER BY created_at_ms DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unclassified utterances: %w", err)
	}
	defer rows.Close()

	var out []Utterance
	for rows.Next() {
		var u Utterance
		var createdMs int64
		var classified int
		if err := rows.Scan(&u.ID, &createdMs, &u.Content, &u.TopIntent, &u.Score, &classified); err != nil {
			return nil, fmt.Errorf("scan utterance: %w", err)
		}
		u.CreatedAt = time.UnixMilli(createdMs)
		u.Classified = classified != 0
		out = append(out, u)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
