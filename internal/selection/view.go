package selection

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/izzyreal/reportviewer/internal/chart"
	"github.com/izzyreal/reportviewer/internal/merger"
	"github.com/izzyreal/reportviewer/internal/pathstate"
	"github.com/izzyreal/reportviewer/internal/protocol"
)

type Level int

const (
	LevelRoot Level = iota
	LevelTestType
	LevelVersion
	LevelBuild
	LevelBackendDetail
)

func (l Level) String() string {
	switch l {
	case LevelRoot:
		return "root"
	case LevelTestType:
		return "test_type"
	case LevelVersion:
		return "version"
	case LevelBuild:
		return "build"
	case LevelBackendDetail:
		return "backend_detail"
	default:
		return "unknown"
	}
}

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

type Panel string

const (
	PanelNav     Panel = "nav"
	PanelSummary Panel = "summary"
	PanelDetail  Panel = "detail"
)

type VersionItem struct {
	Version     string `json:"version"`
	Builds      int    `json:"builds"`
	LatestBuild string `json:"latest_build,omitempty"`
	LatestLabel string `json:"latest_label,omitempty"`
	Error       string `json:"error,omitempty"`
}

type BuildItem struct {
	Key       string   `json:"key"`
	BuildTime string   `json:"build_time"`
	Label     string   `json:"label"`
	Revision  string   `json:"revision"`
	Backends  []string `json:"backends"`
}

type BackendSummary struct {
	Backend     string                `json:"backend"`
	Stats       protocol.BackendStats `json:"stats"`
	SuccessRate *float64              `json:"success_rate"`
	RateLabel   string                `json:"rate_label"`
	RateClass   string                `json:"rate_class"`
}

type BuildSummary struct {
	Key       string           `json:"key"`
	Title     string           `json:"title"`
	BuildTime string           `json:"build_time"`
	Revision  string           `json:"revision"`
	Backends  []BackendSummary `json:"backends"`
}

type Detail struct {
	Backend     string        `json:"backend"`
	Counterpart string        `json:"counterpart,omitempty"`
	Compared    bool          `json:"compared"`
	Filter      merger.Filter `json:"filter"`
	Sort        merger.Sort   `json:"sort"`
	Rows        []merger.Row  `json:"rows"`
	Tally       merger.Tally  `json:"tally"`
	Problems    int           `json:"problems"`
	FocusIndex  int           `json:"focus_index"`
	Focused     *merger.Row   `json:"focused,omitempty"`
}

// View is a snapshot of everything the page renders for the current path.
type View struct {
	Path     pathstate.State  `json:"path"`
	Query    string           `json:"query"`
	Level    Level            `json:"level"`
	Versions []VersionItem    `json:"versions,omitempty"`
	Builds   []BuildItem      `json:"builds,omitempty"`
	Series   []chart.Series   `json:"series,omitempty"`
	Build    *BuildSummary    `json:"build,omitempty"`
	Detail   *Detail          `json:"detail,omitempty"`
	Errors   map[Panel]string `json:"errors,omitempty"`
	Notices  map[Panel]string `json:"notices,omitempty"`
}

// SuccessRate is the share of tests without errors or failures, rounded to
// one decimal. It is undefined for a backend that ran no tests.
func SuccessRate(s protocol.BackendStats) (float64, bool) {
	if s.TotalTests <= 0 {
		return 0, false
	}
	rate := float64(s.TotalTests-s.TotalErrors-s.TotalFailures) / float64(s.TotalTests) * 100
	return math.Round(rate*10) / 10, true
}

func summarizeBackend(name string, stats protocol.BackendStats) BackendSummary {
	out := BackendSummary{Backend: name, Stats: stats, RateLabel: "N/A"}
	if rate, ok := SuccessRate(stats); ok {
		out.SuccessRate = &rate
		out.RateLabel = fmt.Sprintf("%.1f%%", rate)
		out.RateClass = "warn"
		if rate >= 100 {
			out.RateClass = "ok"
		}
	}
	return out
}

func summarizeBuild(key string, rec protocol.BuildRecord) *BuildSummary {
	out := &BuildSummary{
		Key:       key,
		Title:     fmt.Sprintf("Build: %s • rev %s", chart.BuildLabel(rec), rec.Revision),
		BuildTime: rec.BuildTime,
		Revision:  rec.Revision,
	}
	for _, name := range rec.Backends() {
		out.Backends = append(out.Backends, summarizeBackend(name, rec.DBTypes[name]))
	}
	return out
}

// OrderBuilds lists builds newest first; identical timestamps order by key.
func OrderBuilds(summary *protocol.Summary) []BuildItem {
	keys := summary.OrderedBuildKeys(true)
	out := make([]BuildItem, 0, len(keys))
	for _, key := range keys {
		rec := summary.Builds[key]
		out = append(out, BuildItem{
			Key:       key,
			BuildTime: rec.BuildTime,
			Label:     chart.BuildLabel(rec),
			Revision:  rec.Revision,
			Backends:  rec.Backends(),
		})
	}
	return out
}

// SortVersions orders newest first: semantic versions by precedence, then
// anything else by descending string order.
func SortVersions(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		a, b := canonicalSemver(versions[i]), canonicalSemver(versions[j])
		aOK, bOK := semver.IsValid(a), semver.IsValid(b)
		switch {
		case aOK && bOK:
			if c := semver.Compare(a, b); c != 0 {
				return c > 0
			}
			return versions[i] > versions[j]
		case aOK != bOK:
			return aOK
		default:
			return versions[i] > versions[j]
		}
	})
}

func canonicalSemver(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
