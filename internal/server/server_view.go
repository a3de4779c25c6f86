package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/izzyreal/reportviewer/internal/merger"
	"github.com/izzyreal/reportviewer/internal/pathstate"
	"github.com/izzyreal/reportviewer/internal/reportstore"
	"github.com/izzyreal/reportviewer/internal/selection"
	"github.com/izzyreal/reportviewer/internal/server/httpx"
	"github.com/izzyreal/reportviewer/internal/urlsync"
)

// historyRecorder keeps the last history instruction issued while a request
// replays its path.
type historyRecorder struct {
	mu   sync.Mutex
	last historyAction
}

func (h *historyRecorder) Push(query string)    { h.set("push", query) }
func (h *historyRecorder) Replace(query string) { h.set("replace", query) }

func (h *historyRecorder) set(action, query string) {
	h.mu.Lock()
	h.last = historyAction{Action: action, Query: query}
	h.mu.Unlock()
}

func (h *historyRecorder) action() historyAction {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last.Action == "" {
		return historyAction{Action: "none"}
	}
	return h.last
}

type viewParams struct {
	filter     merger.Filter
	sort       merger.Sort
	focusSuite string
	focusTest  string
	step       int
}

func parseViewParams(q url.Values) (viewParams, error) {
	var p viewParams
	var err error
	if p.filter, err = merger.ParseFilter(q.Get("filter")); err != nil {
		return p, err
	}
	if col := q.Get("sort"); col != "" || q.Get("order") != "" {
		if p.sort, err = merger.ParseSort(col, q.Get("order")); err != nil {
			return p, err
		}
	}
	p.focusSuite, p.focusTest = q.Get("suite"), q.Get("test")
	switch raw := strings.TrimSpace(q.Get("step")); raw {
	case "":
	case "next":
		p.step = 1
	case "prev":
		p.step = -1
	default:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, fmt.Errorf("invalid step %q", raw)
		}
		p.step = n
	}
	return p, nil
}

func (p viewParams) apply(ctrl *selection.Controller) {
	if ctrl.Level() != selection.LevelBackendDetail {
		return
	}
	ctrl.SetFilter(p.filter)
	ctrl.SetSort(p.sort)
	if p.focusSuite != "" || p.focusTest != "" {
		ctrl.Focus(p.focusSuite, p.focusTest)
	}
	if p.step != 0 {
		ctrl.Step(p.step)
	}
}

func (s *Server) newSession() (*selection.Controller, *historyRecorder, *urlsync.Sync) {
	ctrl := selection.New(s.loader, selection.Options{Counterparts: s.counterparts})
	hist := &historyRecorder{}
	return ctrl, hist, urlsync.Attach(ctrl, hist)
}

// viewHandler replays the requested path from scratch. With nav=push the
// deepest level counts as a user selection; otherwise the request restores
// a location the browser already holds.
func (s *Server) viewHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params, err := parseViewParams(q)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err)
		return
	}

	ctrl, hist, nav := s.newSession()
	walk := nav.Restore
	if q.Get("nav") == "push" {
		walk = nav.Navigate
	}
	target := pathstate.FromValues(q)
	reached, err := walk(r.Context(), urlsync.ToURL(target))
	if err != nil && !isPanelError(r.Context(), err) {
		writeLoadError(w, err)
		return
	}
	params.apply(ctrl)
	s.recordVisit(reached)

	writeJSON(w, http.StatusOK, viewResponse{View: ctrl.Snapshot(), History: hist.action()})
}

func (s *Server) chartClickHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	index, err := strconv.Atoi(q.Get("index"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid index %q", q.Get("index")))
		return
	}
	backend := strings.TrimSpace(q.Get("backend"))
	if backend == "" {
		httpx.WriteError(w, http.StatusBadRequest, errors.New("backend is required"))
		return
	}
	target := pathstate.FromValues(q).Truncate(3)
	if target.Depth() < 3 {
		httpx.WriteError(w, http.StatusBadRequest, errors.New("component, testType and version are required"))
		return
	}

	ctrl, hist, nav := s.newSession()
	reached, err := nav.Restore(r.Context(), urlsync.ToURL(target))
	if err != nil && !isPanelError(r.Context(), err) {
		writeLoadError(w, err)
		return
	}
	if reached.Depth() < 3 {
		writeLoadError(w, fmt.Errorf("version %q: %w", target.Version(), selection.ErrUnknownNode))
		return
	}
	if err := ctrl.SelectChartPoint(r.Context(), backend, index); err != nil && !isPanelError(r.Context(), err) {
		writeLoadError(w, err)
		return
	}
	s.recordVisit(ctrl.Path())

	writeJSON(w, http.StatusOK, viewResponse{View: ctrl.Snapshot(), History: hist.action()})
}

// isPanelError reports whether the controller already recorded err as a
// panel error, in which case the view is still served.
func isPanelError(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var le *reportstore.LoadError
	return errors.As(err, &le)
}

func (s *Server) recordVisit(p pathstate.State) {
	if s.cache == nil || p.Depth() < 2 {
		return
	}
	if err := s.cache.RecordVisit(urlsync.ToURL(p), p.String()); err != nil {
		slog.Warn("record recent path failed", "path", p.String(), "error", err)
	}
}
