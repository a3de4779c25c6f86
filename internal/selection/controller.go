// Package selection drives navigation through the report tree. Every
// transition either commits its whole target path and view, or leaves the
// previous path and view in place.
package selection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/izzyreal/reportviewer/internal/chart"
	"github.com/izzyreal/reportviewer/internal/errnav"
	"github.com/izzyreal/reportviewer/internal/merger"
	"github.com/izzyreal/reportviewer/internal/pathstate"
	"github.com/izzyreal/reportviewer/internal/protocol"
)

var (
	// ErrSuperseded is returned when a newer transition started while this
	// one was loading; its results were discarded.
	ErrSuperseded = errors.New("navigation superseded")
	// ErrUnknownNode means the requested node is not in the manifest or
	// summary. The tree simply does not expand; no panel error is shown.
	ErrUnknownNode = errors.New("node not found")
)

const summaryFanout = 4

// Loader is the document source; *reportstore.Store satisfies it.
type Loader interface {
	Manifest(ctx context.Context) (protocol.Manifest, error)
	Summary(ctx context.Context, component, testType, version string) (*protocol.Summary, error)
	BackendResult(ctx context.Context, component, testType, version, build, backend string) (*protocol.BackendResultDocument, error)
}

type Origin int

const (
	OriginUser Origin = iota
	OriginRestore
)

type originKey struct{}

// WithOrigin marks transitions issued with ctx, so commit observers can tell
// user selections from history restoration.
func WithOrigin(ctx context.Context, o Origin) context.Context {
	return context.WithValue(ctx, originKey{}, o)
}

func originFrom(ctx context.Context) Origin {
	if o, ok := ctx.Value(originKey{}).(Origin); ok {
		return o
	}
	return OriginUser
}

type Observer func(path pathstate.State, origin Origin)

type Options struct {
	// Counterparts maps a backend to the backend it is compared against.
	Counterparts map[string]string
	Observer     Observer
}

type Controller struct {
	loader       Loader
	counterparts map[string]string
	observer     Observer

	mu    sync.Mutex
	token uint64
	path  pathstate.State
	level Level

	versions []VersionItem
	summary  *protocol.Summary
	builds   []BuildItem
	series   []chart.Series
	build    *BuildSummary

	primary         *protocol.BackendResultDocument
	counterpart     *protocol.BackendResultDocument
	counterpartName string
	filter          merger.Filter
	sort            merger.Sort
	rows            []merger.Row
	nav             *errnav.Navigator

	errs    map[Panel]string
	notices map[Panel]string
}

func New(loader Loader, opts Options) *Controller {
	return &Controller{
		loader:       loader,
		counterparts: opts.Counterparts,
		observer:     opts.Observer,
		filter:       merger.FilterAll,
		nav:          errnav.New(nil),
		errs:         map[Panel]string{},
		notices:      map[Panel]string{},
	}
}

// SetObserver replaces the commit observer.
func (c *Controller) SetObserver(o Observer) {
	c.mu.Lock()
	c.observer = o
	c.mu.Unlock()
}

func (c *Controller) Path() pathstate.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

func (c *Controller) Level() Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

type versionState struct {
	versions []VersionItem
	summary  *protocol.Summary
	builds   []BuildItem
	series   []chart.Series
}

func (c *Controller) SelectTestType(ctx context.Context, component, testType string) error {
	target, err := pathstate.New(component, testType, "", "", "")
	if err != nil {
		return err
	}
	tok := c.begin()

	versions, err := c.enumerateVersions(ctx, component, testType)
	if err != nil {
		return c.fail(tok, PanelNav, err)
	}
	return c.commit(ctx, tok, func() {
		c.resetBelow(LevelTestType)
		c.path = target
		c.level = LevelTestType
		c.versions = versions
	})
}

func (c *Controller) SelectVersion(ctx context.Context, component, testType, version string) error {
	target, err := pathstate.New(component, testType, version, "", "")
	if err != nil {
		return err
	}
	tok := c.begin()

	vs, err := c.loadVersion(ctx, component, testType, version)
	if err != nil {
		return c.fail(tok, PanelSummary, err)
	}
	return c.commit(ctx, tok, func() {
		c.resetBelow(LevelVersion)
		c.applyVersion(vs)
		c.path = target
		c.level = LevelVersion
		if len(vs.builds) == 0 {
			c.notices[PanelSummary] = "No builds found."
		}
	})
}

func (c *Controller) SelectBuild(ctx context.Context, component, testType, version, build string) error {
	target, err := pathstate.New(component, testType, version, build, "")
	if err != nil {
		return err
	}
	tok := c.begin()

	vs, err := c.loadVersion(ctx, component, testType, version)
	if err != nil {
		return c.fail(tok, PanelSummary, err)
	}
	rec, ok := vs.summary.Builds[build]
	if !ok {
		return fmt.Errorf("build %q in %s: %w", build, target.Truncate(3), ErrUnknownNode)
	}
	return c.commit(ctx, tok, func() {
		c.resetBelow(LevelBuild)
		c.applyVersion(vs)
		c.build = summarizeBuild(build, rec)
		c.path = target
		c.level = LevelBuild
		if len(rec.DBTypes) == 0 {
			c.notices[PanelSummary] = "No backends recorded for this build."
		}
	})
}

// ShowBackendDetail opens one backend's test cases. The counterpart backend
// is loaded alongside; if it fails, rows simply carry no delta.
func (c *Controller) ShowBackendDetail(ctx context.Context, component, testType, version, build, backend string) error {
	target, err := pathstate.New(component, testType, version, build, backend)
	if err != nil {
		return err
	}
	tok := c.begin()

	vs, err := c.loadVersion(ctx, component, testType, version)
	if err != nil {
		return c.fail(tok, PanelSummary, err)
	}
	rec, ok := vs.summary.Builds[build]
	if !ok {
		return fmt.Errorf("build %q in %s: %w", build, target.Truncate(3), ErrUnknownNode)
	}
	if _, ok := rec.DBTypes[backend]; !ok {
		return fmt.Errorf("backend %q in %s: %w", backend, target.Truncate(4), ErrUnknownNode)
	}
	counterpartName := c.counterpartFor(backend, rec)

	var primary, counterpart *protocol.BackendResultDocument
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := c.loader.BackendResult(gctx, component, testType, version, build, backend)
		if err != nil {
			return err
		}
		primary = doc
		return nil
	})
	if counterpartName != "" {
		g.Go(func() error {
			doc, err := c.loader.BackendResult(gctx, component, testType, version, build, counterpartName)
			if err != nil {
				slog.Debug("counterpart backend unavailable", "path", target.String(), "counterpart", counterpartName, "error", err)
				return nil
			}
			counterpart = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return c.fail(tok, PanelDetail, err)
	}

	return c.commit(ctx, tok, func() {
		c.resetBelow(LevelBackendDetail)
		c.applyVersion(vs)
		c.build = summarizeBuild(build, rec)
		c.primary = primary
		c.counterpart = counterpart
		c.counterpartName = counterpartName
		c.path = target
		c.level = LevelBackendDetail
		c.recomputeLocked()
	})
}

// ReturnToSummary leaves the backend detail and goes back to its build.
func (c *Controller) ReturnToSummary(ctx context.Context) error {
	c.mu.Lock()
	if c.level != LevelBackendDetail {
		c.mu.Unlock()
		return pathstate.ErrInvalidTransition
	}
	c.mu.Unlock()
	tok := c.begin()
	return c.commit(ctx, tok, func() {
		c.resetBelow(LevelBuild)
		c.path.Clear(pathstate.Backend)
		c.level = LevelBuild
	})
}

// SelectChartPoint resolves a click on a backend's series to its build and
// opens that backend's detail.
func (c *Controller) SelectChartPoint(ctx context.Context, backend string, index int) error {
	c.mu.Lock()
	path, series := c.path, c.series
	c.mu.Unlock()
	if path.Depth() < 3 {
		return pathstate.ErrInvalidTransition
	}
	build, err := chart.Resolve(series, backend, index)
	if err != nil {
		return fmt.Errorf("resolve chart point: %w", err)
	}
	return c.ShowBackendDetail(ctx, path.Component(), path.TestType(), path.Version(), build, backend)
}

func (c *Controller) SetFilter(f merger.Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = f
	c.recomputeLocked()
}

func (c *Controller) SetSort(s merger.Sort) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sort = s
	c.recomputeLocked()
}

// Focus selects a failed or skipped row for the inspector; -1 if none matches.
func (c *Controller) Focus(suiteName, testName string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nav.Focus(suiteName, testName)
}

// Step moves the inspector by n problem rows, wrapping at both ends.
func (c *Controller) Step(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nav.Step(n)
}

func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Path:     c.path,
		Query:    c.path.Encode(),
		Level:    c.level,
		Versions: c.versions,
		Builds:   c.builds,
		Series:   c.series,
		Build:    c.build,
		Errors:   copyPanels(c.errs),
		Notices:  copyPanels(c.notices),
	}
	if c.level == LevelBackendDetail {
		d := &Detail{
			Backend:     c.path.Backend(),
			Counterpart: c.counterpartName,
			Compared:    c.counterpart != nil,
			Filter:      c.filter,
			Sort:        c.sort,
			Rows:        c.rows,
			Tally:       merger.Count(c.rows),
			Problems:    c.nav.Len(),
			FocusIndex:  c.nav.Index(),
		}
		if row, ok := c.nav.Current(); ok {
			d.Focused = &row
		}
		v.Detail = d
	}
	return v
}

func (c *Controller) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token++
	return c.token
}

func (c *Controller) commit(ctx context.Context, tok uint64, apply func()) error {
	c.mu.Lock()
	if tok != c.token {
		c.mu.Unlock()
		return ErrSuperseded
	}
	apply()
	clear(c.errs)
	path, observer := c.path, c.observer
	c.mu.Unlock()

	if observer != nil {
		observer(path, originFrom(ctx))
	}
	return nil
}

// fail records a load error against the panel being loaded. A stale failure
// for a superseded transition is dropped so it cannot mask a newer view.
func (c *Controller) fail(tok uint64, panel Panel, err error) error {
	if errors.Is(err, ErrUnknownNode) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if tok != c.token {
		return ErrSuperseded
	}
	c.errs[panel] = err.Error()
	slog.Warn("navigation load failed", "panel", string(panel), "path", c.path.String(), "error", err)
	return err
}

func (c *Controller) enumerateVersions(ctx context.Context, component, testType string) ([]VersionItem, error) {
	m, err := c.loader.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	types, ok := m[component]
	if !ok {
		return nil, fmt.Errorf("component %q: %w", component, ErrUnknownNode)
	}
	versions, ok := types[testType]
	if !ok {
		return nil, fmt.Errorf("test type %q in %q: %w", testType, component, ErrUnknownNode)
	}
	names := make([]string, 0, len(versions))
	for v := range versions {
		names = append(names, v)
	}
	SortVersions(names)

	items := make([]VersionItem, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryFanout)
	for i, v := range names {
		i, v := i, v
		g.Go(func() error {
			item := VersionItem{Version: v}
			sum, err := c.loader.Summary(gctx, component, testType, v)
			if err != nil {
				item.Error = err.Error()
				items[i] = item
				return nil
			}
			item.Builds = len(sum.Builds)
			if keys := sum.OrderedBuildKeys(true); len(keys) > 0 {
				item.LatestBuild = keys[0]
				item.LatestLabel = chart.BuildLabel(sum.Builds[keys[0]])
			}
			items[i] = item
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Controller) loadVersion(ctx context.Context, component, testType, version string) (versionState, error) {
	m, err := c.loader.Manifest(ctx)
	if err != nil {
		return versionState{}, err
	}
	if _, ok := m.Lookup(component, testType, version); !ok {
		return versionState{}, fmt.Errorf("version %q in %s/%s: %w", version, component, testType, ErrUnknownNode)
	}

	c.mu.Lock()
	versions := c.versions
	sameType := c.path.Depth() >= 2 && c.path.Component() == component && c.path.TestType() == testType
	c.mu.Unlock()
	if !sameType {
		if versions, err = c.enumerateVersions(ctx, component, testType); err != nil {
			return versionState{}, err
		}
	}

	sum, err := c.loader.Summary(ctx, component, testType, version)
	if err != nil {
		return versionState{}, err
	}
	return versionState{
		versions: versions,
		summary:  sum,
		builds:   OrderBuilds(sum),
		series:   chart.Prepare(sum),
	}, nil
}

func (c *Controller) applyVersion(vs versionState) {
	c.versions = vs.versions
	c.summary = vs.summary
	c.builds = vs.builds
	c.series = vs.series
}

// resetBelow drops view state that belongs to levels deeper than l.
func (c *Controller) resetBelow(l Level) {
	if l < LevelVersion {
		c.summary, c.builds, c.series = nil, nil, nil
	}
	if l < LevelBuild {
		c.build = nil
	}
	if l < LevelBackendDetail {
		c.primary, c.counterpart, c.counterpartName = nil, nil, ""
		c.rows = nil
		c.nav.Reset(nil)
	}
	clear(c.notices)
}

func (c *Controller) recomputeLocked() {
	if c.level != LevelBackendDetail {
		return
	}
	c.rows = merger.ComputeRows(c.primary, c.counterpart, c.filter, c.sort)
	c.nav.Reset(c.rows)
	if len(c.rows) == 0 {
		c.notices[PanelDetail] = "No test cases."
	} else {
		delete(c.notices, PanelDetail)
	}
}

// counterpartFor picks the comparison backend: the configured one when the
// build has it, otherwise the other backend of a two-backend build.
func (c *Controller) counterpartFor(backend string, rec protocol.BuildRecord) string {
	if cp, ok := c.counterparts[backend]; ok {
		if _, present := rec.DBTypes[cp]; present && cp != backend {
			return cp
		}
		return ""
	}
	if len(rec.DBTypes) != 2 {
		return ""
	}
	for name := range rec.DBTypes {
		if name != backend {
			return name
		}
	}
	return ""
}

func copyPanels(in map[Panel]string) map[Panel]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[Panel]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
