// Package chart prepares per-backend time series from a version summary and
// renders them with go-chart.
package chart

import (
	"errors"
	"fmt"
	"sort"

	"github.com/izzyreal/reportviewer/internal/protocol"
)

var (
	ErrNoData  = errors.New("no builds to chart")
	ErrNoPoint = errors.New("no such chart point")
)

const labelLayout = "2006-01-02 15:04"

// Series is one backend's history across builds, oldest first. All slices
// are aligned with Labels; a click index refers to a position in them.
type Series struct {
	Backend   string    `json:"backend"`
	Labels    []string  `json:"labels"`
	BuildKeys []string  `json:"build_keys"`
	Skipped   []float64 `json:"skipped"`
	Failures  []float64 `json:"failures"`
	Errors    []float64 `json:"errors"`
	Total     []float64 `json:"total"`
}

func Prepare(summary *protocol.Summary) []Series {
	if summary == nil {
		return []Series{}
	}
	keys := summary.OrderedBuildKeys(false)
	byBackend := map[string]*Series{}
	for _, key := range keys {
		rec := summary.Builds[key]
		label := BuildLabel(rec)
		for _, backend := range rec.Backends() {
			stats := rec.DBTypes[backend]
			s, ok := byBackend[backend]
			if !ok {
				s = &Series{Backend: backend}
				byBackend[backend] = s
			}
			s.Labels = append(s.Labels, label)
			s.BuildKeys = append(s.BuildKeys, key)
			s.Skipped = append(s.Skipped, float64(stats.TotalSkipped))
			s.Failures = append(s.Failures, float64(stats.TotalFailures))
			s.Errors = append(s.Errors, float64(stats.TotalErrors))
			s.Total = append(s.Total, float64(stats.TotalTests))
		}
	}
	names := make([]string, 0, len(byBackend))
	for name := range byBackend {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Series, 0, len(names))
	for _, name := range names {
		out = append(out, *byBackend[name])
	}
	return out
}

// Resolve maps a click on a backend's series back to the build it shows.
func Resolve(series []Series, backend string, index int) (string, error) {
	for _, s := range series {
		if s.Backend != backend {
			continue
		}
		if index < 0 || index >= len(s.BuildKeys) {
			return "", fmt.Errorf("point %d of backend %q (%d points): %w", index, backend, len(s.BuildKeys), ErrNoPoint)
		}
		return s.BuildKeys[index], nil
	}
	return "", fmt.Errorf("backend %q: %w", backend, ErrNoPoint)
}

// BuildLabel formats a build as "YYYY-MM-DD HH:MM" (UTC), falling back to the
// raw build time when it does not parse.
func BuildLabel(rec protocol.BuildRecord) string {
	if ts, ok := rec.ParsedBuildTime(); ok {
		return ts.Format(labelLayout)
	}
	return rec.BuildTime
}

type Metric string

const (
	MetricTotal    Metric = "total"
	MetricFailures Metric = "failures"
	MetricErrors   Metric = "errors"
	MetricSkipped  Metric = "skipped"
)

func ParseMetric(raw string) (Metric, error) {
	switch m := Metric(raw); m {
	case "":
		return MetricFailures, nil
	case MetricTotal, MetricFailures, MetricErrors, MetricSkipped:
		return m, nil
	default:
		return "", fmt.Errorf("unknown chart metric %q", raw)
	}
}

func (s Series) Values(m Metric) []float64 {
	switch m {
	case MetricTotal:
		return s.Total
	case MetricErrors:
		return s.Errors
	case MetricSkipped:
		return s.Skipped
	default:
		return s.Failures
	}
}
