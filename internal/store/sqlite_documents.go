package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type DocumentInfo struct {
	Path       string    `json:"path"`
	SizeBytes  int64     `json:"size_bytes"`
	FetchedUTC time.Time `json:"fetched_utc"`
}

func (s *Store) GetDocument(path string) ([]byte, bool, error) {
	var body []byte
	err := s.db.QueryRow(`SELECT body FROM report_documents WHERE path = ?`, path).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get report document: %w", err)
	}
	return body, true, nil
}

// PutDocument keeps the first stored body for a path; documents are immutable.
func (s *Store) PutDocument(path string, body []byte) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	err := retrySQLiteBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO report_documents (path, body, size_bytes, fetched_utc)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(path) DO NOTHING
		`, path, body, len(body), now)
		return err
	})
	if err != nil {
		return fmt.Errorf("put report document: %w", err)
	}
	return nil
}

func (s *Store) ListDocuments() ([]DocumentInfo, error) {
	rows, err := s.db.Query(`SELECT path, size_bytes, fetched_utc FROM report_documents ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list report documents: %w", err)
	}
	defer rows.Close()
	var out []DocumentInfo
	for rows.Next() {
		var (
			info    DocumentInfo
			fetched string
		)
		if err := rows.Scan(&info.Path, &info.SizeBytes, &fetched); err != nil {
			return nil, fmt.Errorf("scan report document: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, fetched); err == nil {
			info.FetchedUTC = t
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report documents: %w", err)
	}
	return out, nil
}

func (s *Store) PurgeDocuments() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM report_documents`)
	if err != nil {
		return 0, fmt.Errorf("purge report documents: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
