package api

import (
	"net/http"

	"github.com/okian/eventmap/internal/domain/model"
	"github.com/okian/eventmap/internal/domain/types"
)

// recommendRequest mirrors the OpenAPI schema for POST /recommendations.
// Omitted top_n and threshold use the server defaults.
type recommendRequest struct {
	Profile   model.UserProfile `json:"profile"`
	TopN      int               `json:"top_n,omitempty" validate:"gte=0"`
	Threshold *float64          `json:"threshold,omitempty" validate:"omitempty,gte=0,lte=100"`
	Events    []model.Event     `json:"events,omitempty"`
}

// handlePostRecommendations handles POST /recommendations.
func (s *Server) handlePostRecommendations(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_recommendations"
	var req recommendRequest
	if err := s.decode(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.deps.Recommend(r.Context(), types.RecommendQuery{
		Profile:   req.Profile,
		TopN:      req.TopN,
		Threshold: req.Threshold,
		Events:    req.Events,
	})
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
