package server

import (
	"encoding/json"
	"net/http"

	"FableStudio/core/timeline"
	"FableStudio/model"
)

// GetMarkersHandler lists the chapter markers of a project.
func (h *APIHandler) GetMarkersHandler(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}
	s.Lock()
	defer s.Unlock()
	respondJSON(w, http.StatusOK, map[string]interface{}{"markers": s.Model.Markers()})
}

// ReplaceMarkersHandler replaces the full marker set of a project. Markers
// have no partial update.
func (h *APIHandler) ReplaceMarkersHandler(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	var req struct {
		Markers []*model.ChapterMarker `json:"markers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.Lock()
	defer s.Unlock()

	intents, err := s.Model.Apply(timeline.SetMarkers{Markers: req.Markers})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to set markers")
		return
	}
	persistErr := s.Persist(r.Context(), intents)
	h.hub.BroadcastTimeline(s)
	respondJSON(w, http.StatusOK, sessionPayload(s, persistErr))
}
