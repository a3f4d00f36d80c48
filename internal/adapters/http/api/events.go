package api

import (
	"net/http"

	"github.com/okian/eventmap/internal/domain/model"
)

// IdempotencyHeader lets clients retry an upload safely.
const IdempotencyHeader = "Idempotency-Key"

// eventsRequest mirrors the OpenAPI schema for PUT /events.
type eventsRequest struct {
	Events []model.Event `json:"events"`
}

// handlePutEvents handles PUT /events. 202 means a new snapshot version was
// stored; 200 means the upload changed nothing.
func (s *Server) handlePutEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_events"
	var req eventsRequest
	if err := s.decode(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}

	up, err := s.deps.ReplaceEventsWithKey(r.Context(), r.Header.Get(IdempotencyHeader), req.Events)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	status := http.StatusAccepted
	if up.Duplicate || up.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, up)
}

// handleGetEvents handles GET /events.
func (s *Server) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	set, err := s.deps.Events(r.Context())
	if err != nil {
		writeError(w, Wrap("api.get_events", err))
		return
	}
	writeJSON(w, http.StatusOK, set)
}
