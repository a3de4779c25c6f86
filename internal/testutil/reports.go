// Package testutil provides a small report tree shared by package tests.
package testutil

import (
	"context"
	"sync"
	"testing/fstest"

	"github.com/izzyreal/reportviewer/internal/protocol"
)

const Manifest = `{
  "core": {
    "e2e": {
      "1.0": {"summary": "summary.json"},
      "1.1": {"summaryFileName": "summary.json"},
      "2.0": {"summaryFileName": "summary.json"}
    },
    "unit": {
      "0.9": {"summary": "summary.json"}
    }
  }
}`

// Summary for core/e2e/1.0. Build b1 has both backends with result files;
// b2's postgres file is missing.
const Summary = `{
  "version": "1.0",
  "builds": {
    "b1": {
      "buildTime": "2025-09-09T09:09:08.000",
      "revision": "c281bd8",
      "dbTypes": {
        "doris": {"testSuites": 2, "totalTests": 10, "totalErrors": 0, "totalFailures": 1, "totalSkipped": 0, "totalTime": 5.0},
        "postgres": {"testSuites": 2, "totalTests": 10, "totalErrors": 0, "totalFailures": 0, "totalSkipped": 0, "totalTime": 4.0}
      }
    },
    "b2": {
      "buildTime": "2025-09-10T10:00:00.000",
      "revision": "d00f1e5",
      "dbTypes": {
        "doris": {"testSuites": 1, "totalTests": 1, "totalErrors": 0, "totalFailures": 0, "totalSkipped": 0, "totalTime": 0.4},
        "postgres": {"testSuites": 1, "totalTests": 1, "totalErrors": 0, "totalFailures": 0, "totalSkipped": 0, "totalTime": 0.5}
      }
    }
  }
}`

const DorisB1 = `{
  "results": {
    "pkg.Suite": {"testcases": [
      {"name": "t1", "time": 0.5, "failure": {"type": "AssertionError", "message": "x", "text": "stack"}},
      {"name": "t2", "time": 0.1}
    ]},
    "other.Suite": {"testcases": [
      {"name": "t3", "skipped": {"message": "not on doris"}}
    ]}
  }
}`

const PostgresB1 = `{
  "results": {
    "pkg.Suite": {"testcases": [
      {"name": "t1", "time": 0.3},
      {"name": "t2", "time": 0.2}
    ]}
  }
}`

const DorisB2 = `{"results": {"pkg.Suite": {"testcases": [{"name": "t1", "time": 0.4}]}}}`

func ReportFS() fstest.MapFS {
	return fstest.MapFS{
		"manifest.json":                 {Data: []byte(Manifest)},
		"core/e2e/1.0/summary.json":     {Data: []byte(Summary)},
		"core/e2e/1.0/b1/doris.json":    {Data: []byte(DorisB1)},
		"core/e2e/1.0/b1/postgres.json": {Data: []byte(PostgresB1)},
		"core/e2e/1.0/b2/doris.json":    {Data: []byte(DorisB2)},
		"core/e2e/1.1/summary.json":     {Data: []byte(`{"builds": {}}`)},
		"core/unit/0.9/summary.json":    {Data: []byte(`{"builds": {}}`)},
	}
}

type Loader interface {
	Manifest(ctx context.Context) (protocol.Manifest, error)
	Summary(ctx context.Context, component, testType, version string) (*protocol.Summary, error)
	BackendResult(ctx context.Context, component, testType, version, build, backend string) (*protocol.BackendResultDocument, error)
}

// RecordingLoader wraps a loader, records every request and can hold
// backend result loads for one build until released.
type RecordingLoader struct {
	Inner Loader

	mu        sync.Mutex
	requests  []string
	holdBuild string
	hold      chan struct{}
	held      chan struct{}
}

func (l *RecordingLoader) record(req string) {
	l.mu.Lock()
	l.requests = append(l.requests, req)
	l.mu.Unlock()
}

func (l *RecordingLoader) Requests() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.requests...)
}

// Hold blocks backend result loads for build until the returned release
// func is called. The second return value is closed once a load is waiting.
func (l *RecordingLoader) Hold(build string) (release func(), waiting <-chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.holdBuild = build
	l.hold = make(chan struct{})
	l.held = make(chan struct{})
	hold := l.hold
	var once sync.Once
	return func() { once.Do(func() { close(hold) }) }, l.held
}

func (l *RecordingLoader) Manifest(ctx context.Context) (protocol.Manifest, error) {
	l.record("manifest")
	return l.Inner.Manifest(ctx)
}

func (l *RecordingLoader) Summary(ctx context.Context, component, testType, version string) (*protocol.Summary, error) {
	l.record("summary " + component + "/" + testType + "/" + version)
	return l.Inner.Summary(ctx, component, testType, version)
}

func (l *RecordingLoader) BackendResult(ctx context.Context, component, testType, version, build, backend string) (*protocol.BackendResultDocument, error) {
	l.record("backend " + component + "/" + testType + "/" + version + "/" + build + "/" + backend)
	l.mu.Lock()
	var hold, held chan struct{}
	if build == l.holdBuild {
		hold, held = l.hold, l.held
		l.held = nil
	}
	l.mu.Unlock()
	if hold != nil {
		if held != nil {
			close(held)
		}
		<-hold
	}
	return l.Inner.BackendResult(ctx, component, testType, version, build, backend)
}
