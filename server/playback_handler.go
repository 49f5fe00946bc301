package server

import (
	"encoding/json"
	"net/http"

	"FableStudio/core/timeline"
)

type playbackStatus struct {
	Playing    bool  `json:"playing"`
	PositionMs int64 `json:"positionMs"`
}

func (h *APIHandler) playbackPayload(s *EditorSession) playbackStatus {
	return playbackStatus{
		Playing:    s.Scheduler.IsPlaying(),
		PositionMs: s.Scheduler.PositionMs(),
	}
}

// PlayHandler starts playback from the request offset, defaulting to the
// current playhead. Starting while playing restarts from the new offset.
func (h *APIHandler) PlayHandler(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	var req struct {
		OffsetMs *int64 `json:"offsetMs"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	s.Lock()
	offsetMs := s.Model.PlayheadMs()
	if req.OffsetMs != nil && *req.OffsetMs >= 0 {
		offsetMs = *req.OffsetMs
		s.Model.Apply(timeline.SetPlayhead{PositionMs: offsetMs})
	}
	tracks := s.Model.SnapshotTracks()
	s.Unlock()

	projectID := s.ProjectID
	s.Scheduler.SetTickFunc(func(positionMs int64) {
		h.hub.BroadcastPosition(projectID, positionMs)
	})
	s.Scheduler.Start(tracks, offsetMs)

	respondJSON(w, http.StatusOK, h.playbackPayload(s))
}

// StopHandler stops playback, leaving the playhead where it landed.
// Stopping while already stopped is a no-op.
func (h *APIHandler) StopHandler(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	s.Scheduler.Stop()
	position := s.Scheduler.PositionMs()

	s.Lock()
	s.Model.Apply(timeline.SetPlayhead{PositionMs: position})
	s.Unlock()
	h.hub.BroadcastPosition(s.ProjectID, position)

	respondJSON(w, http.StatusOK, h.playbackPayload(s))
}

// SeekHandler moves the playhead. While playing, playback restarts from the
// new position over the current timeline snapshot.
func (h *APIHandler) SeekHandler(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	var req struct {
		PositionMs int64 `json:"positionMs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.Lock()
	s.Model.Apply(timeline.SetPlayhead{PositionMs: req.PositionMs})
	tracks := s.Model.SnapshotTracks()
	playhead := s.Model.PlayheadMs()
	s.Unlock()

	if s.Scheduler.IsPlaying() {
		s.Scheduler.Start(tracks, playhead)
	}
	h.hub.BroadcastPosition(s.ProjectID, playhead)

	respondJSON(w, http.StatusOK, h.playbackPayload(s))
}

// PlaybackStatusHandler reports whether the project is playing and where.
func (h *APIHandler) PlaybackStatusHandler(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}
	respondJSON(w, http.StatusOK, h.playbackPayload(s))
}
