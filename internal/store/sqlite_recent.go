package store

import (
	"fmt"
	"time"
)

type RecentPath struct {
	Query      string    `json:"query"`
	Label      string    `json:"label"`
	VisitCount int       `json:"visit_count"`
	VisitedUTC time.Time `json:"visited_utc"`
}

func (s *Store) RecordVisit(query, label string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	err := retrySQLiteBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO recent_paths (query, label, visit_count, visited_utc)
			VALUES (?, ?, 1, ?)
			ON CONFLICT(query) DO UPDATE SET label=excluded.label, visit_count=recent_paths.visit_count+1, visited_utc=excluded.visited_utc
		`, query, label, now)
		return err
	})
	if err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	return nil
}

func (s *Store) RecentPaths(limit int) ([]RecentPath, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT query, label, visit_count, visited_utc
		FROM recent_paths
		ORDER BY visited_utc DESC, query ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent paths: %w", err)
	}
	defer rows.Close()
	out := []RecentPath{}
	for rows.Next() {
		var (
			rp      RecentPath
			visited string
		)
		if err := rows.Scan(&rp.Query, &rp.Label, &rp.VisitCount, &visited); err != nil {
			return nil, fmt.Errorf("scan recent path: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, visited); err == nil {
			rp.VisitedUTC = t
		}
		out = append(out, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent paths: %w", err)
	}
	return out, nil
}
