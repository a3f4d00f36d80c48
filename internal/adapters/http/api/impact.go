package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/eventmap/internal/domain/impact"
	"github.com/okian/eventmap/internal/domain/model"
	"github.com/okian/eventmap/internal/domain/types"
)

type impactRequest struct {
	Event model.Event `json:"event"`
}

type impactResponse struct {
	impact.Metrics
	Rank int `json:"rank,omitempty"`
}

// handlePostImpact handles POST /impact for a caller-supplied event.
func (s *Server) handlePostImpact(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_impact"
	var req impactRequest
	if err := s.decode(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	m, err := s.deps.EstimateImpact(r.Context(), req.Event)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, impactResponse{Metrics: m})
}

// handleGetImpact handles GET /impact/{eventID}.
func (s *Server) handleGetImpact(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_impact"
	id := chi.URLParam(r, "eventID")
	if id == "" {
		writeError(w, NewKind(op, ErrBadRequest))
		return
	}
	m, err := s.deps.Impact(r.Context(), id)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	entry, err := s.deps.ImpactRank(r.Context(), id)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, impactResponse{Metrics: m, Rank: entry.Rank})
}

// handleGetLeaderboard handles GET /impact/leaderboard?limit=N.
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	n := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, NewKind(op, ErrBadRequest))
			return
		}
		n = v
	}
	entries, err := s.deps.ImpactTop(r.Context(), n)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	if entries == nil {
		entries = []types.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleGetSummary handles GET /impact/summary.
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.deps.ImpactSummary(r.Context())
	if err != nil {
		writeError(w, Wrap("api.get_impact_summary", err))
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
