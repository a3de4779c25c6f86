package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "reportviewer-test.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestDocumentsPutGetAndImmutability(t *testing.T) {
	s := openTestStore(t)

	if _, ok, err := s.GetDocument("core/e2e/1.0/b1/doris.json"); err != nil || ok {
		t.Fatalf("expected miss on empty store, ok=%v err=%v", ok, err)
	}
	if err := s.PutDocument("core/e2e/1.0/b1/doris.json", []byte(`{"results":{}}`)); err != nil {
		t.Fatalf("put document: %v", err)
	}
	if err := s.PutDocument("core/e2e/1.0/b1/doris.json", []byte(`{"results":null}`)); err != nil {
		t.Fatalf("second put document: %v", err)
	}
	body, ok, err := s.GetDocument("core/e2e/1.0/b1/doris.json")
	if err != nil || !ok {
		t.Fatalf("get document: ok=%v err=%v", ok, err)
	}
	if string(body) != `{"results":{}}` {
		t.Fatalf("expected first stored body to win, got %s", body)
	}

	docs, err := s.ListDocuments()
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	if len(docs) != 1 || docs[0].SizeBytes != int64(len(`{"results":{}}`)) || docs[0].FetchedUTC.IsZero() {
		t.Fatalf("unexpected document listing: %+v", docs)
	}

	n, err := s.PurgeDocuments()
	if err != nil || n != 1 {
		t.Fatalf("purge documents: n=%d err=%v", n, err)
	}
	if _, ok, _ := s.GetDocument("core/e2e/1.0/b1/doris.json"); ok {
		t.Fatalf("expected purged document to be gone")
	}
}

func TestRecentPathsOrderAndCounts(t *testing.T) {
	s := openTestStore(t)

	if err := s.RecordVisit("component=core&testType=e2e", "core/e2e"); err != nil {
		t.Fatalf("record visit: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := s.RecordVisit("component=core&testType=unit", "core/unit"); err != nil {
		t.Fatalf("record visit: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := s.RecordVisit("component=core&testType=e2e", "core/e2e"); err != nil {
		t.Fatalf("record visit: %v", err)
	}

	recent, err := s.RecentPaths(10)
	if err != nil {
		t.Fatalf("recent paths: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent paths, got %+v", recent)
	}
	if recent[0].Query != "component=core&testType=e2e" || recent[0].VisitCount != 2 {
		t.Fatalf("unexpected most recent entry: %+v", recent[0])
	}
	if recent[1].Label != "core/unit" {
		t.Fatalf("unexpected second entry: %+v", recent[1])
	}

	limited, err := s.RecentPaths(1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("limited recent paths: %+v err=%v", limited, err)
	}
}

func TestRetrySQLiteBusy(t *testing.T) {
	calls := 0
	err := retrySQLiteBusy(func() error {
		calls++
		if calls < 2 {
			return errors.New("database is locked (5) (SQLITE_BUSY)")
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("expected success on second attempt, calls=%d err=%v", calls, err)
	}

	calls = 0
	plain := errors.New("constraint failed")
	if err := retrySQLiteBusy(func() error { calls++; return plain }); err != plain || calls != 1 {
		t.Fatalf("expected non-busy error without retry, calls=%d err=%v", calls, err)
	}
}

func TestPing(t *testing.T) {
	s := openTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
