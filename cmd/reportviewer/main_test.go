package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/izzyreal/reportviewer/internal/store"
	"github.com/izzyreal/reportviewer/internal/version"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != version.String() {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestCacheCommands(t *testing.T) {
	if _, err := run(t, "cache", "list"); err == nil || !strings.Contains(err.Error(), "--cache-db") {
		t.Fatalf("expected missing flag error, got %v", err)
	}

	db := filepath.Join(t.TempDir(), "cache.db")
	st, err := store.Open(db)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.PutDocument("core/e2e/1.0/b1/doris.json", []byte(`{"results":{}}`)); err != nil {
		t.Fatalf("put document: %v", err)
	}
	_ = st.Close()

	out, err := run(t, "cache", "list", "--cache-db", db)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	if !strings.Contains(out, "core/e2e/1.0/b1/doris.json") {
		t.Fatalf("list output missing document: %q", out)
	}

	out, err = run(t, "cache", "purge", "--cache-db", db)
	if err != nil {
		t.Fatalf("cache purge: %v", err)
	}
	if !strings.Contains(out, "purged 1 documents") {
		t.Fatalf("unexpected purge output: %q", out)
	}
}

func TestServeRequiresSource(t *testing.T) {
	t.Setenv("REPORTVIEWER_SOURCE", "")
	t.Setenv("REPORTVIEWER_CONFIG", "")
	if _, err := run(t, "serve"); err == nil || !strings.Contains(err.Error(), "source is required") {
		t.Fatalf("expected missing source error, got %v", err)
	}
}
