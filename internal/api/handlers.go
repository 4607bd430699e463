package api

import (
	"net/http"

	"github.com/matzehuels/erlayout/pkg/buildinfo"
	"github.com/matzehuels/erlayout/pkg/core/er"
	"github.com/matzehuels/erlayout/pkg/core/layout"
	errs "github.com/matzehuels/erlayout/pkg/errors"
	"github.com/matzehuels/erlayout/pkg/graph"
	"github.com/matzehuels/erlayout/pkg/httputil"
	"github.com/matzehuels/erlayout/pkg/pipeline"
)

// =============================================================================
// Request / Response Types
// =============================================================================

// LayoutRequest is the body of POST /api/v1/layout.
type LayoutRequest struct {
	Document er.Document      `json:"document"`
	Options  pipeline.Options `json:"options"`
}

// LayoutResponse is the result of POST /api/v1/layout.
type LayoutResponse struct {
	Layout  graph.Layout `json:"layout"`
	Issues  []er.Issue   `json:"issues,omitempty"`
	DocHash string       `json:"doc_hash"`
	Cached  bool         `json:"cached"`
}

// ValidateResponse is the result of POST /api/v1/validate.
type ValidateResponse struct {
	Valid    bool       `json:"valid"`
	Problems []string   `json:"problems,omitempty"`
	Issues   []er.Issue `json:"issues,omitempty"`
	Stats    er.Stats   `json:"stats"`
	Tier     string     `json:"tier"`
}

// TierInfo describes one tier preset.
type TierInfo struct {
	Name   string        `json:"name"`
	Config layout.Config `json:"config"`
}

// TiersResponse is the result of GET /api/v1/tiers.
type TiersResponse struct {
	Tiers      []TierInfo `json:"tiers"`
	Thresholds Thresholds `json:"thresholds"`
}

// Thresholds are the tier selection limits.
type Thresholds struct {
	MediumNodes    int `json:"medium_nodes"`
	HeavyNodes     int `json:"heavy_nodes"`
	HeavyAttribute int `json:"heavy_attributes_per_entity"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := buildinfo.Get()
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": info.Version,
		"commit":  info.Commit,
	})
}

func (s *Server) handleTiers(w http.ResponseWriter, r *http.Request) {
	resp := TiersResponse{
		Thresholds: Thresholds{
			MediumNodes:    layout.MediumNodeThreshold,
			HeavyNodes:     layout.HeavyNodeThreshold,
			HeavyAttribute: layout.HeavyAttributeThreshold,
		},
	}
	for _, l := range layout.Levels {
		resp.Tiers = append(resp.Tiers, TierInfo{Name: l.String(), Config: s.settings.Preset(l)})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var doc er.Document
	if err := httputil.DecodeJSON(w, r, &doc); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	g, issues := er.Build(doc, s.settings.NodeSizes())
	stats := g.Stats()
	resp := ValidateResponse{
		Valid:  true,
		Issues: issues,
		Stats:  stats,
		Tier:   layout.SelectLevel(stats).String(),
	}
	if err := er.Validate(doc); err != nil {
		resp.Valid = false
		for _, p := range errs.Problems(err) {
			resp.Problems = append(resp.Problems, p.Error())
		}
		if len(resp.Problems) == 0 {
			resp.Problems = []string{errs.UserMessage(err)}
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	opts := req.Options
	opts.Formats = []string{pipeline.FormatJSON}
	opts.Settings = s.settings

	res, err := s.runner.Execute(r.Context(), req.Document, opts)
	if err != nil {
		if r.Context().Err() != nil {
			err = errs.Wrap(errs.ErrCodeTimeout, err, "layout did not finish in time")
		}
		s.logger.Warn("layout failed",
			"error", err,
			"request_id", httputil.GetRequestID(r.Context()))
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, LayoutResponse{
		Layout:  res.Layout,
		Issues:  res.Issues,
		DocHash: res.DocHash,
		Cached:  res.CacheInfo.LayoutHit,
	})
}
