// Package reportstore loads report documents on demand and caches them for
// the lifetime of the process. Documents are immutable once produced, so a
// cached entry is never re-fetched.
package reportstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/izzyreal/reportviewer/internal/protocol"
)

const ManifestPath = "manifest.json"

// DocumentCache persists raw documents across process restarts.
type DocumentCache interface {
	GetDocument(path string) ([]byte, bool, error)
	PutDocument(path string, body []byte) error
}

type Store struct {
	fetcher Fetcher
	persist DocumentCache

	group singleflight.Group

	mu   sync.Mutex
	docs map[string]any
}

type Option func(*Store)

// WithDocumentCache persists backend result documents. Manifests and
// summaries grow as new builds are published, so they stay memory-only.
func WithDocumentCache(c DocumentCache) Option {
	return func(s *Store) { s.persist = c }
}

func New(fetcher Fetcher, opts ...Option) *Store {
	s := &Store{fetcher: fetcher, docs: make(map[string]any)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Manifest(ctx context.Context) (protocol.Manifest, error) {
	doc, err := load(ctx, s, ManifestPath, false, func(data []byte) (protocol.Manifest, error) {
		var m protocol.Manifest
		err := json.Unmarshal(data, &m)
		return m, err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// SummaryPath resolves where a version's summary lives according to the manifest.
func (s *Store) SummaryPath(ctx context.Context, component, testType, version string) (string, error) {
	m, err := s.Manifest(ctx)
	if err != nil {
		return "", err
	}
	entry, ok := m.Lookup(component, testType, version)
	if !ok {
		p, _ := docPath(component, testType, version, protocol.DefaultSummaryFileName)
		return "", &LoadError{Kind: NotFound, Path: p, Err: errors.New("not listed in manifest")}
	}
	return docPath(component, testType, version, entry.FileName())
}

func (s *Store) Summary(ctx context.Context, component, testType, version string) (*protocol.Summary, error) {
	p, err := s.SummaryPath(ctx, component, testType, version)
	if err != nil {
		return nil, err
	}
	return load(ctx, s, p, false, func(data []byte) (*protocol.Summary, error) {
		var sum protocol.Summary
		if err := json.Unmarshal(data, &sum); err != nil {
			return nil, err
		}
		if sum.Builds == nil {
			sum.Builds = map[string]protocol.BuildRecord{}
		}
		return &sum, nil
	})
}

func BackendResultPath(component, testType, version, build, backend string) (string, error) {
	return docPath(component, testType, version, build, backend+".json")
}

func (s *Store) BackendResult(ctx context.Context, component, testType, version, build, backend string) (*protocol.BackendResultDocument, error) {
	p, err := BackendResultPath(component, testType, version, build, backend)
	if err != nil {
		return nil, err
	}
	return load(ctx, s, p, true, func(data []byte) (*protocol.BackendResultDocument, error) {
		var doc protocol.BackendResultDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return &doc, nil
	})
}

// Cached reports whether a document is already held in memory.
func (s *Store) Cached(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.docs[path]
	return ok
}

func load[T any](ctx context.Context, s *Store, path string, persistent bool, decode func([]byte) (T, error)) (T, error) {
	var zero T
	if v, ok := s.cached(path); ok {
		if doc, ok := v.(T); ok {
			return doc, nil
		}
	}

	// The shared load must not die with the first caller's context: other
	// callers may be waiting on the same key.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(path, func() (any, error) {
		if v, ok := s.cached(path); ok {
			return v, nil
		}
		data, fromDisk, err := s.fetch(shared, path, persistent)
		if err != nil {
			return nil, err
		}
		doc, err := decode(data)
		if err != nil {
			return nil, &LoadError{Kind: ParseError, Path: path, Err: err}
		}
		if persistent && !fromDisk && s.persist != nil {
			if err := s.persist.PutDocument(path, data); err != nil {
				slog.Warn("persist report document failed", "path", path, "error", err)
			}
		}
		s.mu.Lock()
		s.docs[path] = doc
		s.mu.Unlock()
		return doc, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		doc, ok := res.Val.(T)
		if !ok {
			return zero, &LoadError{Kind: ParseError, Path: path, Err: fmt.Errorf("unexpected cached type %T", res.Val)}
		}
		return doc, nil
	}
}

func (s *Store) cached(path string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.docs[path]
	return v, ok
}

func (s *Store) fetch(ctx context.Context, path string, persistent bool) ([]byte, bool, error) {
	if persistent && s.persist != nil {
		data, ok, err := s.persist.GetDocument(path)
		if err != nil {
			slog.Warn("read persisted report document failed", "path", path, "error", err)
		} else if ok {
			return data, true, nil
		}
	}
	slog.Debug("fetch report document", "path", path)
	data, err := s.fetcher.Fetch(ctx, path)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, false, err
		}
		return nil, false, asLoadError(path, err)
	}
	return data, false, nil
}

func docPath(segments ...string) (string, error) {
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." || strings.ContainsAny(seg, "/\\") {
			return "", &LoadError{Kind: NotFound, Path: strings.Join(segments, "/"), Err: fmt.Errorf("invalid path segment %q", seg)}
		}
	}
	return strings.Join(segments, "/"), nil
}
