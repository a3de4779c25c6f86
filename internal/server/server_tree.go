package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/izzyreal/reportviewer/internal/chart"
	"github.com/izzyreal/reportviewer/internal/pathstate"
	"github.com/izzyreal/reportviewer/internal/selection"
	"github.com/izzyreal/reportviewer/internal/server/httpx"
)

func (s *Server) treeHandler(w http.ResponseWriter, r *http.Request) {
	m, err := s.loader.Manifest(r.Context())
	if err != nil {
		writeLoadError(w, err)
		return
	}
	resp := treeResponse{Components: []treeComponent{}}
	components := make([]string, 0, len(m))
	for c := range m {
		components = append(components, c)
	}
	sort.Strings(components)
	for _, c := range components {
		node := treeComponent{Name: c, TestTypes: []treeTestType{}}
		types := make([]string, 0, len(m[c]))
		for t := range m[c] {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			versions := make([]string, 0, len(m[c][t]))
			for v := range m[c][t] {
				versions = append(versions, v)
			}
			selection.SortVersions(versions)
			p, _ := pathstate.New(c, t, "", "", "")
			node.TestTypes = append(node.TestTypes, treeTestType{Name: t, Query: p.Encode(), Versions: versions})
		}
		resp.Components = append(resp.Components, node)
	}
	writeJSON(w, http.StatusOK, resp)
}

func versionTarget(r *http.Request) (pathstate.State, error) {
	p := pathstate.FromValues(r.URL.Query()).Truncate(3)
	if p.Depth() < 3 {
		return p, errors.New("component, testType and version are required")
	}
	return p, nil
}

func (s *Server) seriesHandler(w http.ResponseWriter, r *http.Request) {
	p, err := versionTarget(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err)
		return
	}
	sum, err := s.versionSummary(r.Context(), p.Component(), p.TestType(), p.Version())
	if err != nil {
		writeLoadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seriesResponse{Series: chart.Prepare(sum)})
}

func (s *Server) chartPNGHandler(w http.ResponseWriter, r *http.Request) {
	p, err := versionTarget(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err)
		return
	}
	metric, err := chart.ParseMetric(r.URL.Query().Get("metric"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err)
		return
	}
	sum, err := s.versionSummary(r.Context(), p.Component(), p.TestType(), p.Version())
	if err != nil {
		writeLoadError(w, err)
		return
	}

	var buf bytes.Buffer
	title := fmt.Sprintf("%s %s %s: %s", p.Component(), p.TestType(), p.Version(), metric)
	if err := chart.RenderPNG(&buf, sum, metric, title); err != nil {
		writeLoadError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
