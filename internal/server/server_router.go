package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func buildRouter(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// UI
	r.Get("/", s.uiHandler)

	r.Get("/healthz", s.healthzHandler)

	r.Route(apiBasePath, func(r chi.Router) {
		r.Get("/server-info", s.serverInfoHandler)

		// Report tree and navigation
		r.Get("/tree", s.treeHandler)
		r.Get("/view", s.viewHandler)
		r.Get("/series", s.seriesHandler)
		r.Get("/chart.png", s.chartPNGHandler)
		r.Get("/chart-click", s.chartClickHandler)

		// Persistent cache
		r.Get("/recent", s.recentHandler)
		r.Get("/cache", s.cacheHandler)
		r.Post("/cache/purge", s.cachePurgeHandler)
	})

	return r
}
