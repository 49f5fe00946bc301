package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"FableStudio/core/timeline"
	"FableStudio/logger"
	"FableStudio/model"
)

// timelinePayload is the editor state returned after every read or edit.
type timelinePayload struct {
	Tracks         []*model.Track         `json:"tracks"`
	Markers        []*model.ChapterMarker `json:"markers"`
	DurationMs     int64                  `json:"durationMs"`
	PlayheadMs     int64                  `json:"playheadMs"`
	CanUndo        bool                   `json:"canUndo"`
	CanRedo        bool                   `json:"canRedo"`
	PersistWarning string                 `json:"persistWarning,omitempty"`
}

func sessionPayload(s *EditorSession, persistErr error) timelinePayload {
	p := timelinePayload{
		Tracks:     s.Model.Tracks(),
		Markers:    s.Model.Markers(),
		DurationMs: s.Model.DurationMs(),
		PlayheadMs: s.Model.PlayheadMs(),
		CanUndo:    s.History.CanUndo(),
		CanRedo:    s.History.CanRedo(),
	}
	if persistErr != nil {
		// The model is intentionally not rolled back; the client is told
		// the store lagged behind.
		p.PersistWarning = "Changes applied but could not be saved; retry or reload."
	}
	return p
}

// GetTimelineHandler returns the full timeline of a project.
func (h *APIHandler) GetTimelineHandler(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}
	s.Lock()
	defer s.Unlock()
	respondJSON(w, http.StatusOK, sessionPayload(s, nil))
}

// opRequest is the wire form of one edit operation; Op selects the variant
// and the remaining fields parameterize it.
type opRequest struct {
	Op string `json:"op"`

	ClipID  int64 `json:"clipId,omitempty"`
	TrackID int64 `json:"trackId,omitempty"`

	DeltaMs    int64 `json:"deltaMs,omitempty"`
	OffsetMs   int64 `json:"offsetMs,omitempty"`
	PositionMs int64 `json:"positionMs,omitempty"`

	// create_clip parameters
	AssetID     string  `json:"assetId,omitempty"`
	SegmentID   string  `json:"segmentId,omitempty"`
	TrimStartMs int64   `json:"trimStartMs,omitempty"`
	TrimEndMs   int64   `json:"trimEndMs,omitempty"`
	GainDB      float64 `json:"gainDb,omitempty"`
	FadeInMs    int64   `json:"fadeInMs,omitempty"`
	FadeOutMs   int64   `json:"fadeOutMs,omitempty"`
	Notes       string  `json:"notes,omitempty"`

	// create_track parameters
	Name  string          `json:"name,omitempty"`
	Type  model.TrackType `json:"type,omitempty"`
	Color string          `json:"color,omitempty"`

	ClipUpdate  *model.ClipUpdate  `json:"clipUpdate,omitempty"`
	TrackUpdate *model.TrackUpdate `json:"trackUpdate,omitempty"`
}

func (req *opRequest) toOp() (timeline.Op, error) {
	switch req.Op {
	case "move_clip":
		return timeline.MoveClip{ClipID: req.ClipID, DeltaMs: req.DeltaMs}, nil
	case "trim_clip_left":
		return timeline.TrimClipLeft{ClipID: req.ClipID, DeltaMs: req.DeltaMs}, nil
	case "trim_clip_right":
		return timeline.TrimClipRight{ClipID: req.ClipID, DeltaMs: req.DeltaMs}, nil
	case "split_clip":
		return timeline.SplitClip{ClipID: req.ClipID, OffsetMs: req.OffsetMs}, nil
	case "duplicate_clip":
		return timeline.DuplicateClip{ClipID: req.ClipID}, nil
	case "copy_clip":
		return timeline.CopyClip{ClipID: req.ClipID}, nil
	case "cut_clip":
		return timeline.CutClip{ClipID: req.ClipID}, nil
	case "paste":
		return timeline.Paste{}, nil
	case "create_clip":
		return timeline.CreateClip{
			TrackID:     req.TrackID,
			AssetID:     req.AssetID,
			SegmentID:   req.SegmentID,
			PositionMs:  req.PositionMs,
			TrimStartMs: req.TrimStartMs,
			TrimEndMs:   req.TrimEndMs,
			GainDB:      req.GainDB,
			FadeInMs:    req.FadeInMs,
			FadeOutMs:   req.FadeOutMs,
			Notes:       req.Notes,
		}, nil
	case "delete_clip":
		return timeline.DeleteClip{ClipID: req.ClipID}, nil
	case "update_clip":
		if req.ClipUpdate == nil {
			return nil, errors.New("update_clip requires clipUpdate")
		}
		return timeline.UpdateClipFields{ClipID: req.ClipID, Update: *req.ClipUpdate}, nil
	case "create_track":
		return timeline.CreateTrack{Name: req.Name, Type: req.Type, Color: req.Color}, nil
	case "delete_track":
		return timeline.DeleteTrack{TrackID: req.TrackID}, nil
	case "update_track":
		if req.TrackUpdate == nil {
			return nil, errors.New("update_track requires trackUpdate")
		}
		return timeline.UpdateTrackFields{TrackID: req.TrackID, Update: *req.TrackUpdate}, nil
	case "set_playhead":
		return timeline.SetPlayhead{PositionMs: req.PositionMs}, nil
	default:
		return nil, errors.New("unknown op: " + req.Op)
	}
}

// ApplyOpHandler decodes one edit operation, applies it to the model and
// persists the resulting intents.
func (h *APIHandler) ApplyOpHandler(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	var req opRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	op, err := req.toOp()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.Lock()
	defer s.Unlock()

	intents, err := s.Model.Apply(op)
	if err != nil {
		switch {
		case errors.Is(err, timeline.ErrClipNotFound), errors.Is(err, timeline.ErrTrackNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, timeline.ErrSplitOutOfRange), errors.Is(err, timeline.ErrTrackLocked):
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			logger.Error("Edit operation failed", logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, "Edit operation failed")
		}
		return
	}

	persistErr := s.Persist(r.Context(), intents)
	h.hub.BroadcastTimeline(s)
	respondJSON(w, http.StatusOK, sessionPayload(s, persistErr))
}

// UndoHandler restores the previous timeline state; a no-op with an empty
// stack.
func (h *APIHandler) UndoHandler(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}
	s.Lock()
	defer s.Unlock()

	intents, restored := s.History.Undo(s.Model)
	var persistErr error
	if restored {
		persistErr = s.Persist(r.Context(), intents)
		h.hub.BroadcastTimeline(s)
	}
	respondJSON(w, http.StatusOK, sessionPayload(s, persistErr))
}

// RedoHandler restores the next timeline state; a no-op with an empty
// stack.
func (h *APIHandler) RedoHandler(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}
	s.Lock()
	defer s.Unlock()

	intents, restored := s.History.Redo(s.Model)
	var persistErr error
	if restored {
		persistErr = s.Persist(r.Context(), intents)
		h.hub.BroadcastTimeline(s)
	}
	respondJSON(w, http.StatusOK, sessionPayload(s, persistErr))
}

// --- Drag gestures ---

type dragRequest struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	PxPerMs float64 `json:"pxPerMs"`
}

// DragBeginHandler resolves a pointer press into a drag session.
func (h *APIHandler) DragBeginHandler(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	var req dragRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PxPerMs <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid drag parameters")
		return
	}

	s.Lock()
	defer s.Unlock()

	s.drag = s.Resolver.BeginDrag(s.Model, s.History, req.X, req.Y, req.PxPerMs)
	respondJSON(w, http.StatusOK, map[string]bool{"dragging": s.drag != nil})
}

// DragMoveHandler applies a pointer move as a live preview.
func (h *APIHandler) DragMoveHandler(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	var req dragRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid drag parameters")
		return
	}

	s.Lock()
	defer s.Unlock()

	if s.drag == nil {
		respondError(w, http.StatusConflict, "No drag in progress")
		return
	}
	if err := s.drag.Move(s.Model, req.X); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.hub.BroadcastTimeline(s)
	respondJSON(w, http.StatusOK, sessionPayload(s, nil))
}

// DragEndHandler finishes the gesture, persisting its final state once.
func (h *APIHandler) DragEndHandler(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	s.Lock()
	defer s.Unlock()

	if s.drag == nil {
		respondJSON(w, http.StatusOK, sessionPayload(s, nil))
		return
	}

	intents, err := s.drag.End(s.Model)
	s.drag = nil
	var persistErr error
	if err == nil {
		persistErr = s.Persist(r.Context(), intents)
	}
	respondJSON(w, http.StatusOK, sessionPayload(s, persistErr))
}
