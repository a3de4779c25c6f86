package protocol

import (
	"encoding/json"
	"testing"
	"time"
)

func TestManifestAcceptsLegacySummaryKey(t *testing.T) {
	var m Manifest
	data := []byte(`{"core":{"e2e":{"1.0":{"summary":"summary.json"},"1.1":{"summaryFileName":"s-1.1.json"},"1.2":{}}}}`)
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	cases := map[string]string{"1.0": "summary.json", "1.1": "s-1.1.json", "1.2": DefaultSummaryFileName}
	for version, want := range cases {
		entry, ok := m.Lookup("core", "e2e", version)
		if !ok {
			t.Fatalf("version %s missing from manifest", version)
		}
		if got := entry.FileName(); got != want {
			t.Fatalf("version %s file name: got %q want %q", version, got, want)
		}
	}
	if _, ok := m.Lookup("core", "e2e", "9.9"); ok {
		t.Fatalf("unexpected lookup hit for unknown version")
	}
	if !m.HasTestType("core", "e2e") || m.HasTestType("core", "unit") {
		t.Fatalf("unexpected HasTestType result")
	}
}

func TestBackendResultDocumentToleratesMalformedResults(t *testing.T) {
	var doc BackendResultDocument
	if err := json.Unmarshal([]byte(`{"results":["not","a","map"]}`), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Results != nil {
		t.Fatalf("expected nil results for malformed mapping, got %+v", doc.Results)
	}

	if err := json.Unmarshal([]byte(`{"results":{"pkg.Suite":{"testcases":[{"name":"t1","time":0.5,"skipped":{"message":"later"}}]}}}`), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	tc := doc.Results["pkg.Suite"].TestCases[0]
	if tc.Name != "t1" || tc.Time == nil || *tc.Time != 0.5 || tc.Skipped == nil {
		t.Fatalf("unexpected testcase: %+v", tc)
	}
}

func TestParsedBuildTime(t *testing.T) {
	want := time.Date(2025, 9, 2, 8, 10, 26, 0, time.UTC)
	for _, raw := range []string{"2025-09-02T08:10:26.000", "2025-09-02T08:10:26Z", "2025-09-02T10:10:26+02:00"} {
		got, ok := BuildRecord{BuildTime: raw}.ParsedBuildTime()
		if !ok || !got.Equal(want) {
			t.Fatalf("parse %q: got %v ok=%v", raw, got, ok)
		}
	}
	if _, ok := (BuildRecord{BuildTime: "yesterday"}).ParsedBuildTime(); ok {
		t.Fatalf("expected garbage build time to be rejected")
	}
}

func TestTestCaseProblemPrefersFailure(t *testing.T) {
	tc := TestCase{Failure: &TestFailure{Type: "AssertionError"}, Error: &TestFailure{Type: "IOException"}}
	if got := tc.Problem(); got == nil || got.Type != "AssertionError" {
		t.Fatalf("unexpected problem: %+v", got)
	}
	tc.Failure = nil
	if got := tc.Problem(); got == nil || got.Type != "IOException" {
		t.Fatalf("unexpected problem: %+v", got)
	}
}

func TestOrderedBuildKeys(t *testing.T) {
	s := &Summary{Builds: map[string]BuildRecord{
		"b-old":   {BuildTime: "2025-01-01T00:00:00Z"},
		"b-new":   {BuildTime: "2025-03-01T00:00:00Z"},
		"b-tie-b": {BuildTime: "2025-02-01T00:00:00Z"},
		"b-tie-a": {BuildTime: "2025-02-01T00:00:00Z"},
		"b-bad":   {BuildTime: "n/a"},
	}}
	newest := s.OrderedBuildKeys(true)
	want := []string{"b-new", "b-tie-a", "b-tie-b", "b-old", "b-bad"}
	for i := range want {
		if newest[i] != want[i] {
			t.Fatalf("newest-first order: got %v want %v", newest, want)
		}
	}
	oldest := s.OrderedBuildKeys(false)
	want = []string{"b-old", "b-tie-a", "b-tie-b", "b-new", "b-bad"}
	for i := range want {
		if oldest[i] != want[i] {
			t.Fatalf("oldest-first order: got %v want %v", oldest, want)
		}
	}
}
