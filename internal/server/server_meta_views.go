package server

import (
	"github.com/izzyreal/reportviewer/internal/chart"
	"github.com/izzyreal/reportviewer/internal/selection"
	"github.com/izzyreal/reportviewer/internal/store"
)

type serverInfoResponse struct {
	Name       string `json:"name"`
	APIVersion int    `json:"api_version"`
	Version    string `json:"version"`
	Revision   string `json:"revision,omitempty"`
	Hostname   string `json:"hostname,omitempty"`
	Source     string `json:"source"`
	CacheDB    bool   `json:"cache_db"`
}

type healthzResponse struct {
	Status string `json:"status"`
	Cache  string `json:"cache,omitempty"`
}

type treeResponse struct {
	Components []treeComponent `json:"components"`
}

type treeComponent struct {
	Name      string         `json:"name"`
	TestTypes []treeTestType `json:"test_types"`
}

type treeTestType struct {
	Name     string   `json:"name"`
	Query    string   `json:"query"`
	Versions []string `json:"versions"`
}

// historyAction tells the page what to do with its location after a view
// request: push a new entry, replace the current one, or nothing.
type historyAction struct {
	Action string `json:"action"`
	Query  string `json:"query"`
}

type viewResponse struct {
	selection.View
	History historyAction `json:"history"`
}

type seriesResponse struct {
	Series []chart.Series `json:"series"`
}

type recentResponse struct {
	Recent []store.RecentPath `json:"recent"`
}

type cacheResponse struct {
	Documents []store.DocumentInfo `json:"documents"`
}

type purgeResponse struct {
	Purged int64 `json:"purged"`
}
