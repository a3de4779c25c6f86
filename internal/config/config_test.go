package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/izzyreal/reportviewer/internal/protocol"
)

func TestParseValidConfig(t *testing.T) {
	cfg, err := Parse([]byte(`
version: 1
source: https://reports.example.com/e2e/
cache_db: reportviewer.db
counterparts:
  doris: postgres
include:
  - "core/**"
exclude:
  - "core/*/*-snapshot"
`), "test-valid")
	if err != nil {
		t.Fatalf("parse valid config: %v", err)
	}
	if cfg.Source != "https://reports.example.com/e2e/" || cfg.CacheDB != "reportviewer.db" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Counterparts["doris"] != "postgres" {
		t.Fatalf("unexpected counterparts: %+v", cfg.Counterparts)
	}
}

func TestParseRejectsUnsupportedVersion(t *testing.T) {
	_, err := Parse([]byte(`
version: 2
source: ./reports
`), "test-version")
	if err == nil || !strings.Contains(err.Error(), "unsupported config version") {
		t.Fatalf("expected unsupported version error, got: %v", err)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(`
version: 1
sauce: ./reports
`), "test-unknown")
	if err == nil || !strings.Contains(err.Error(), "sauce") {
		t.Fatalf("expected unknown field error, got: %v", err)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := File{
		Version:      1,
		Source:       "ftp://reports",
		Counterparts: map[string]string{"doris": "doris", "mysql": ""},
		Include:      []string{"core/[e2e"},
	}
	errs := cfg.Validate()
	want := []string{
		`source "ftp://reports" must be an http(s) URL or a directory`,
		`counterparts["doris"] must name a different backend`,
		`counterparts["mysql"] must not be empty`,
		`include[0] invalid pattern "core/[e2e"`,
	}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Fatalf("validation errors (-want +got):\n%s", diff)
	}
}

func TestValidateSourceRequired(t *testing.T) {
	if errs := Default().Validate(); len(errs) != 0 {
		t.Fatalf("default config should validate without source: %v", errs)
	}
	if errs := Default().ValidateSource(); len(errs) != 1 {
		t.Fatalf("expected missing source error, got %v", errs)
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reportviewer.yaml")
	if err := os.WriteFile(path, []byte("version: 1\nsource: ./reports\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Source != "./reports" {
		t.Fatalf("source: got %q", cfg.Source)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestFilterAllowsAndApply(t *testing.T) {
	f := File{
		Include: []string{"core/**"},
		Exclude: []string{"core/*/*-snapshot"},
	}.Filter()

	if !f.Allows("core", "e2e", "1.0") {
		t.Fatalf("expected core/e2e/1.0 to be allowed")
	}
	if f.Allows("core", "e2e", "243-snapshot") {
		t.Fatalf("expected snapshot to be excluded")
	}
	if f.Allows("tools", "unit", "1.0") {
		t.Fatalf("expected tools to be outside include")
	}

	m := protocol.Manifest{
		"core": {
			"e2e":  {"1.0": {}, "243-snapshot": {}},
			"perf": {"nightly-snapshot": {}},
		},
		"tools": {"unit": {"1.0": {}}},
	}
	got := f.Apply(m)
	want := protocol.Manifest{"core": {"e2e": {"1.0": {}}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("filtered manifest (-want +got):\n%s", diff)
	}
}

func TestEmptyFilterReturnsManifestUnchanged(t *testing.T) {
	m := protocol.Manifest{"core": {"e2e": {"1.0": {}}}}
	if got := (Filter{}).Apply(m); len(got["core"]["e2e"]) != 1 {
		t.Fatalf("unexpected manifest: %+v", got)
	}
}
