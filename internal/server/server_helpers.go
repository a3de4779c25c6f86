package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/izzyreal/reportviewer/internal/chart"
	"github.com/izzyreal/reportviewer/internal/protocol"
	"github.com/izzyreal/reportviewer/internal/reportstore"
	"github.com/izzyreal/reportviewer/internal/selection"
	"github.com/izzyreal/reportviewer/internal/server/httpx"
)

func (s *Server) healthzHandler(w http.ResponseWriter, r *http.Request) {
	if s.cache != nil {
		if err := s.cache.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, healthzResponse{Status: "degraded", Cache: err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthzResponse{Status: "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	httpx.WriteJSON(w, status, v)
}

// writeLoadError maps report loading failures onto HTTP statuses. Missing
// documents are the client's problem; everything else is upstream's.
func writeLoadError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case reportstore.IsNotFound(err), errors.Is(err, selection.ErrUnknownNode), errors.Is(err, chart.ErrNoData):
		status = http.StatusNotFound
	case errors.Is(err, chart.ErrNoPoint):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		status = http.StatusRequestTimeout
	}
	httpx.WriteError(w, status, err)
}

// versionSummary loads a summary only if the version is visible through the
// configured filter.
func (s *Server) versionSummary(ctx context.Context, component, testType, version string) (*protocol.Summary, error) {
	m, err := s.loader.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := m.Lookup(component, testType, version); !ok {
		return nil, fmt.Errorf("version %q in %s/%s: %w", version, component, testType, selection.ErrUnknownNode)
	}
	return s.reports.Summary(ctx, component, testType, version)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
