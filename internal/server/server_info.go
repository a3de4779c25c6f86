package server

import (
	"net/http"
	"os"
	"strings"

	"github.com/izzyreal/reportviewer/internal/version"
)

func (s *Server) serverInfoHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	host = strings.TrimSpace(host)
	writeJSON(w, http.StatusOK, serverInfoResponse{
		Name:       "reportviewer",
		APIVersion: 1,
		Version:    currentVersion(),
		Revision:   version.Revision(),
		Hostname:   host,
		Source:     s.source,
		CacheDB:    s.cache != nil,
	})
}

func currentVersion() string {
	return version.Current()
}
