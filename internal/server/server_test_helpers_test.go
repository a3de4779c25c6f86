package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/izzyreal/reportviewer/internal/config"
	"github.com/izzyreal/reportviewer/internal/merger"
	"github.com/izzyreal/reportviewer/internal/reportstore"
	"github.com/izzyreal/reportviewer/internal/store"
	"github.com/izzyreal/reportviewer/internal/testutil"
)

type viewBody struct {
	Path     map[string]string `json:"path"`
	Query    string            `json:"query"`
	Level    string            `json:"level"`
	Versions []struct {
		Version string `json:"version"`
		Error   string `json:"error"`
	} `json:"versions"`
	Errors map[string]string `json:"errors"`
	Detail *struct {
		Backend     string       `json:"backend"`
		Counterpart string       `json:"counterpart"`
		Compared    bool         `json:"compared"`
		Rows        []merger.Row `json:"rows"`
		Problems    int          `json:"problems"`
		Focused     *merger.Row  `json:"focused"`
	} `json:"detail"`
	History historyAction `json:"history"`
}

func newTestServer(t *testing.T, cfg config.File, withCache bool) (*httptest.Server, *store.Store) {
	t.Helper()
	var (
		cache *store.Store
		opts  []reportstore.Option
	)
	if withCache {
		var err error
		cache, err = store.Open(filepath.Join(t.TempDir(), "reportviewer.db"))
		if err != nil {
			t.Fatalf("open cache: %v", err)
		}
		t.Cleanup(func() { _ = cache.Close() })
		opts = append(opts, reportstore.WithDocumentCache(cache))
	}
	reports := reportstore.New(&reportstore.DirFetcher{FS: testutil.ReportFS()}, opts...)
	ts := httptest.NewServer(New(Options{Reports: reports, Config: cfg, Cache: cache}).Handler())
	t.Cleanup(ts.Close)
	return ts, cache
}

func getJSON(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		var body httpErrorBody
		_ = json.NewDecoder(resp.Body).Decode(&body)
		t.Fatalf("GET %s: status %d want %d (%s)", url, resp.StatusCode, wantStatus, body.Error)
	}
	if out == nil {
		return
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}

type httpErrorBody struct {
	Error string `json:"error"`
}
