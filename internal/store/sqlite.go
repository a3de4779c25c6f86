package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS report_documents (
			path TEXT PRIMARY KEY,
			body BLOB NOT NULL,
			size_bytes INTEGER NOT NULL,
			fetched_utc TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS recent_paths (
			query TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			visit_count INTEGER NOT NULL DEFAULT 1,
			visited_utc TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_recent_paths_visited ON recent_paths(visited_utc);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}
	return nil
}
