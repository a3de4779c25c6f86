package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/izzyreal/reportviewer/internal/server/httpx"
	"github.com/izzyreal/reportviewer/internal/store"
)

var errCacheDisabled = errors.New("persistent cache is not configured")

func (s *Server) recentHandler(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeJSON(w, http.StatusOK, recentResponse{Recent: []store.RecentPath{}})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	recent, err := s.cache.RecentPaths(limit)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, recentResponse{Recent: recent})
}

func (s *Server) cacheHandler(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		httpx.WriteError(w, http.StatusNotFound, errCacheDisabled)
		return
	}
	docs, err := s.cache.ListDocuments()
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	if docs == nil {
		docs = []store.DocumentInfo{}
	}
	writeJSON(w, http.StatusOK, cacheResponse{Documents: docs})
}

// cachePurgeHandler empties the persistent cache. Documents already held in
// memory by the running process are unaffected.
func (s *Server) cachePurgeHandler(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		httpx.WriteError(w, http.StatusNotFound, errCacheDisabled)
		return
	}
	n, err := s.cache.PurgeDocuments()
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	slog.Info("purged persistent report cache", "documents", n)
	writeJSON(w, http.StatusOK, purgeResponse{Purged: n})
}
