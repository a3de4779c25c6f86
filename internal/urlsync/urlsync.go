// Package urlsync keeps the browser location and the selection controller in
// step: committed transitions become history entries, and a location is
// replayed into the controller level by level.
package urlsync

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/izzyreal/reportviewer/internal/pathstate"
	"github.com/izzyreal/reportviewer/internal/selection"
)

type History interface {
	Push(query string)
	Replace(query string)
}

// Navigator is the part of *selection.Controller that Sync drives.
type Navigator interface {
	SetObserver(selection.Observer)
	Path() pathstate.State
	SelectTestType(ctx context.Context, component, testType string) error
	SelectVersion(ctx context.Context, component, testType, version string) error
	SelectBuild(ctx context.Context, component, testType, version, build string) error
	ShowBackendDetail(ctx context.Context, component, testType, version, build, backend string) error
}

func ToURL(s pathstate.State) string { return s.Encode() }

func FromURL(query string) pathstate.State { return pathstate.Parse(query) }

type Sync struct {
	nav     Navigator
	history History

	// Restore walks are serialized so two overlapping replays cannot
	// interleave their steps.
	mu sync.Mutex
}

// Attach registers Sync as the navigator's commit observer.
func Attach(nav Navigator, history History) *Sync {
	s := &Sync{nav: nav, history: history}
	nav.SetObserver(s.observe)
	return s
}

func (s *Sync) observe(path pathstate.State, origin selection.Origin) {
	q := ToURL(path)
	if origin == selection.OriginRestore {
		s.history.Replace(q)
		return
	}
	s.history.Push(q)
}

// Restore replays query into the navigator as a back/forward or reload
// would: every step replaces the current history entry. It stops without
// error at the first node that no longer exists and returns the path reached.
func (s *Sync) Restore(ctx context.Context, query string) (pathstate.State, error) {
	return s.walk(ctx, FromURL(query), selection.OriginRestore)
}

// Navigate replays query like Restore, except that the deepest step is
// recorded as a user selection and therefore pushes a new history entry.
func (s *Sync) Navigate(ctx context.Context, query string) (pathstate.State, error) {
	return s.walk(ctx, FromURL(query), selection.OriginUser)
}

func (s *Sync) walk(ctx context.Context, target pathstate.State, last selection.Origin) (pathstate.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, t, v, b := target.Component(), target.TestType(), target.Version(), target.Build()
	steps := []func(context.Context) error{
		func(ctx context.Context) error { return s.nav.SelectTestType(ctx, c, t) },
		func(ctx context.Context) error { return s.nav.SelectVersion(ctx, c, t, v) },
		func(ctx context.Context) error { return s.nav.SelectBuild(ctx, c, t, v, b) },
		func(ctx context.Context) error { return s.nav.ShowBackendDetail(ctx, c, t, v, b, target.Backend()) },
	}
	// Depth 1 is a component alone, which the controller has no level for.
	n := target.Depth() - 1
	for i := 0; i < n; i++ {
		origin := selection.OriginRestore
		if i == n-1 {
			origin = last
		}
		err := steps[i](selection.WithOrigin(ctx, origin))
		if errors.Is(err, selection.ErrUnknownNode) {
			slog.Debug("restore halted", "target", target.String(), "reached", s.nav.Path().String(), "error", err)
			break
		}
		if err != nil {
			return s.nav.Path(), err
		}
	}
	return s.nav.Path(), nil
}
