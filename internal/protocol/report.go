package protocol

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

const DefaultSummaryFileName = "summary.json"

// Manifest maps component -> test type -> version -> summary location.
type Manifest map[string]map[string]map[string]VersionEntry

type VersionEntry struct {
	SummaryFileName string `json:"summaryFileName"`
}

// UnmarshalJSON accepts both the current "summaryFileName" key and the
// "summary" key written by older manifest generators.
func (e *VersionEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		SummaryFileName string `json:"summaryFileName"`
		Summary         string `json:"summary"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.SummaryFileName = strings.TrimSpace(raw.SummaryFileName)
	if e.SummaryFileName == "" {
		e.SummaryFileName = strings.TrimSpace(raw.Summary)
	}
	return nil
}

func (e VersionEntry) FileName() string {
	if e.SummaryFileName == "" {
		return DefaultSummaryFileName
	}
	return e.SummaryFileName
}

// Lookup returns the entry for a version, if the manifest lists it.
func (m Manifest) Lookup(component, testType, version string) (VersionEntry, bool) {
	types, ok := m[component]
	if !ok {
		return VersionEntry{}, false
	}
	versions, ok := types[testType]
	if !ok {
		return VersionEntry{}, false
	}
	entry, ok := versions[version]
	return entry, ok
}

func (m Manifest) HasTestType(component, testType string) bool {
	types, ok := m[component]
	if !ok {
		return false
	}
	_, ok = types[testType]
	return ok
}

type Summary struct {
	Version string                 `json:"version,omitempty"`
	Builds  map[string]BuildRecord `json:"builds"`
}

type BuildRecord struct {
	BuildTime string                  `json:"buildTime"`
	Revision  string                  `json:"revision"`
	DBTypes   map[string]BackendStats `json:"dbTypes"`
}

// ParsedBuildTime parses BuildTime. Report producers emit RFC 3339 as well as
// zone-less timestamps like "2025-09-02T08:10:26.000"; the latter are read as UTC.
func (b BuildRecord) ParsedBuildTime() (time.Time, bool) {
	raw := strings.TrimSpace(b.BuildTime)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

type BackendStats struct {
	TestSuites    int     `json:"testSuites"`
	TotalTests    int     `json:"totalTests"`
	TotalErrors   int     `json:"totalErrors"`
	TotalFailures int     `json:"totalFailures"`
	TotalSkipped  int     `json:"totalSkipped"`
	TotalTime     float64 `json:"totalTime"`
	Timestamp     string  `json:"timestamp,omitempty"`
	OutputFile    string  `json:"outputFile,omitempty"`
}

type BackendResultDocument struct {
	SystemInfo map[string]any         `json:"system_info,omitempty"`
	Results    map[string]SuiteResult `json:"results"`
}

// UnmarshalJSON tolerates a malformed "results" value: the document still
// decodes, with no suites, so viewers can show "no data" instead of failing.
func (d *BackendResultDocument) UnmarshalJSON(data []byte) error {
	var raw struct {
		SystemInfo map[string]any  `json:"system_info,omitempty"`
		Results    json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.SystemInfo = raw.SystemInfo
	d.Results = nil
	if len(raw.Results) == 0 {
		return nil
	}
	var results map[string]SuiteResult
	if err := json.Unmarshal(raw.Results, &results); err == nil {
		d.Results = results
	}
	return nil
}

type SuiteResult struct {
	Name      string     `json:"name,omitempty"`
	TestCases []TestCase `json:"testcases"`
}

type TestCase struct {
	Name      string       `json:"name"`
	ClassName string       `json:"classname,omitempty"`
	Time      *float64     `json:"time,omitempty"`
	Failure   *TestFailure `json:"failure,omitempty"`
	Error     *TestFailure `json:"error,omitempty"`
	Skipped   *TestSkipped `json:"skipped,omitempty"`
}

type TestFailure struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
	Text    string `json:"text,omitempty"`
}

type TestSkipped struct {
	Message string `json:"message,omitempty"`
}

// Problem returns the failure detail, preferring failure over error.
func (tc TestCase) Problem() *TestFailure {
	if tc.Failure != nil {
		return tc.Failure
	}
	return tc.Error
}

// OrderedBuildKeys orders builds by build time, newest first unless
// newestFirst is false. Builds with unparseable times go last; ties break by
// key so the order is deterministic.
func (s *Summary) OrderedBuildKeys(newestFirst bool) []string {
	if s == nil {
		return nil
	}
	type entry struct {
		key string
		ts  time.Time
		ok  bool
	}
	entries := make([]entry, 0, len(s.Builds))
	for key, rec := range s.Builds {
		ts, ok := rec.ParsedBuildTime()
		entries = append(entries, entry{key: key, ts: ts, ok: ok})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.ok != b.ok {
			return a.ok
		}
		if !a.ts.Equal(b.ts) {
			if newestFirst {
				return a.ts.After(b.ts)
			}
			return a.ts.Before(b.ts)
		}
		return a.key < b.key
	})
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.key
	}
	return keys
}

// Backends lists the backend names of a build in name order.
func (b BuildRecord) Backends() []string {
	out := make([]string, 0, len(b.DBTypes))
	for name := range b.DBTypes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
