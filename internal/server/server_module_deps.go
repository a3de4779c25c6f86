package server

import (
	"context"

	"github.com/izzyreal/reportviewer/internal/store"
)

// cacheStore is the slice of the sqlite store the HTTP handlers depend on.
type cacheStore interface {
	Ping(ctx context.Context) error
	RecordVisit(query, label string) error
	RecentPaths(limit int) ([]store.RecentPath, error)
	ListDocuments() ([]store.DocumentInfo, error)
	PurgeDocuments() (int64, error)
}

var _ cacheStore = (*store.Store)(nil)
