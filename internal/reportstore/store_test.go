package reportstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"
)

const testManifest = `{"core":{"e2e":{"1.0":{"summary":"summary.json"},"2.0":{"summaryFileName":"summary-2.json"}}}}`

const testSummary = `{"builds":{"b1":{"buildTime":"2025-09-09T09:09:08Z","revision":"c281bd8","dbTypes":{"doris":{"totalTests":10,"totalFailures":1,"totalTime":5.0}}}}}`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"manifest.json":               {Data: []byte(testManifest)},
		"core/e2e/1.0/summary.json":   {Data: []byte(testSummary)},
		"core/e2e/2.0/summary-2.json": {Data: []byte(`{not json`)},
		"core/e2e/1.0/b1/doris.json":  {Data: []byte(`{"results":{"pkg.Suite":{"testcases":[{"name":"t1","time":0.5}]}}}`)},
	}
}

type countingFetcher struct {
	inner Fetcher
	mu    sync.Mutex
	calls map[string]int
	gate  chan struct{}
}

func newCountingFetcher(inner Fetcher) *countingFetcher {
	return &countingFetcher{inner: inner, calls: map[string]int{}}
}

func (f *countingFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	f.calls[path]++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.inner.Fetch(ctx, path)
}

func (f *countingFetcher) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func TestSummaryIsCachedPerVersion(t *testing.T) {
	fetcher := newCountingFetcher(&DirFetcher{FS: testFS()})
	s := New(fetcher)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		sum, err := s.Summary(ctx, "core", "e2e", "1.0")
		if err != nil {
			t.Fatalf("summary: %v", err)
		}
		if _, ok := sum.Builds["b1"]; !ok {
			t.Fatalf("expected build b1 in summary: %+v", sum)
		}
	}
	if got := fetcher.count("manifest.json"); got != 1 {
		t.Fatalf("manifest fetches: got %d want 1", got)
	}
	if got := fetcher.count("core/e2e/1.0/summary.json"); got != 1 {
		t.Fatalf("summary fetches: got %d want 1", got)
	}
	if !s.Cached("core/e2e/1.0/summary.json") {
		t.Fatalf("expected summary to be cached")
	}
}

func TestLoadErrorKinds(t *testing.T) {
	s := New(&DirFetcher{FS: testFS()})
	ctx := context.Background()

	if _, err := s.Summary(ctx, "core", "e2e", "2.0"); !IsKind(err, ParseError) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if _, err := s.Summary(ctx, "core", "e2e", "9.9"); !IsNotFound(err) {
		t.Fatalf("expected not found for unlisted version, got %v", err)
	}
	if _, err := s.BackendResult(ctx, "core", "e2e", "1.0", "b1", "postgres"); !IsNotFound(err) {
		t.Fatalf("expected not found for missing backend file, got %v", err)
	}
	if _, err := s.BackendResult(ctx, "core", "e2e", "..", "b1", "doris"); !IsNotFound(err) {
		t.Fatalf("expected traversal segment to be rejected, got %v", err)
	}
}

func TestFailedLoadIsNotCached(t *testing.T) {
	fsys := testFS()
	fetcher := newCountingFetcher(&DirFetcher{FS: fsys})
	s := New(fetcher)
	ctx := context.Background()

	if _, err := s.BackendResult(ctx, "core", "e2e", "1.0", "b1", "postgres"); err == nil {
		t.Fatalf("expected error for missing document")
	}
	fsys["core/e2e/1.0/b1/postgres.json"] = &fstest.MapFile{Data: []byte(`{"results":{}}`)}
	if _, err := s.BackendResult(ctx, "core", "e2e", "1.0", "b1", "postgres"); err != nil {
		t.Fatalf("expected second load to fetch again and succeed: %v", err)
	}
	if got := fetcher.count("core/e2e/1.0/b1/postgres.json"); got != 2 {
		t.Fatalf("fetches: got %d want 2", got)
	}
}

func TestConcurrentLoadsAreDeduplicated(t *testing.T) {
	fetcher := newCountingFetcher(&DirFetcher{FS: testFS()})
	fetcher.gate = make(chan struct{})
	s := New(fetcher)

	const callers = 8
	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := s.BackendResult(context.Background(), "core", "e2e", "1.0", "b1", "doris")
			if err != nil || len(doc.Results) != 1 {
				failures.Add(1)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(fetcher.gate)
	wg.Wait()

	if failures.Load() != 0 {
		t.Fatalf("%d callers failed", failures.Load())
	}
	if got := fetcher.count("core/e2e/1.0/b1/doris.json"); got != 1 {
		t.Fatalf("backend fetches: got %d want 1", got)
	}
}

func TestCancelledWaiterDoesNotAbortSharedLoad(t *testing.T) {
	fetcher := newCountingFetcher(&DirFetcher{FS: testFS()})
	fetcher.gate = make(chan struct{})
	s := New(fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := s.Manifest(ctx)
		errCh <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	if err := <-errCh; err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	close(fetcher.gate)

	if _, err := s.Manifest(context.Background()); err != nil {
		t.Fatalf("manifest after cancel: %v", err)
	}
	if got := fetcher.count("manifest.json"); got != 1 {
		t.Fatalf("manifest fetches: got %d want 1", got)
	}
}

type memCache struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func (c *memCache) GetDocument(path string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.docs[path]
	return v, ok, nil
}

func (c *memCache) PutDocument(path string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[path] = body
	return nil
}

func TestDocumentCacheServesBackendResults(t *testing.T) {
	cache := &memCache{docs: map[string][]byte{}}
	first := newCountingFetcher(&DirFetcher{FS: testFS()})
	if _, err := New(first, WithDocumentCache(cache)).BackendResult(context.Background(), "core", "e2e", "1.0", "b1", "doris"); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if _, ok := cache.docs["core/e2e/1.0/b1/doris.json"]; !ok {
		t.Fatalf("expected backend result to be persisted")
	}

	second := newCountingFetcher(&DirFetcher{FS: fstest.MapFS{}})
	doc, err := New(second, WithDocumentCache(cache)).BackendResult(context.Background(), "core", "e2e", "1.0", "b1", "doris")
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if len(doc.Results) != 1 || second.count("core/e2e/1.0/b1/doris.json") != 0 {
		t.Fatalf("expected persisted document without fetch, got %+v", doc)
	}
}

func TestHTTPFetcherStatusMapping(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/reports/manifest.json":
			_, _ = w.Write([]byte(testManifest))
		case "/reports/core/e2e/1.0/summary.json":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	f, err := NewHTTPFetcher(ts.URL+"/reports/", ts.Client())
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	s := New(f)
	ctx := context.Background()
	if _, err := s.Manifest(ctx); err != nil {
		t.Fatalf("manifest: %v", err)
	}
	_, err = s.Summary(ctx, "core", "e2e", "1.0")
	if !IsKind(err, HTTPError) {
		t.Fatalf("expected http error, got %v", err)
	}
	if le := err.(*LoadError); le.Status != http.StatusInternalServerError {
		t.Fatalf("status: got %d", le.Status)
	}
	if _, err := s.Summary(ctx, "core", "e2e", "2.0"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNewFetcherRejectsBadSources(t *testing.T) {
	if _, err := NewFetcher("", nil); err == nil {
		t.Fatalf("expected error for empty source")
	}
	if _, err := NewFetcher(t.TempDir()+"/missing", nil); err == nil {
		t.Fatalf("expected error for missing directory")
	}
	f, err := NewFetcher("https://example.com/reports", nil)
	if err != nil {
		t.Fatalf("http source: %v", err)
	}
	if _, ok := f.(*HTTPFetcher); !ok {
		t.Fatalf("expected HTTPFetcher, got %T", f)
	}
}
