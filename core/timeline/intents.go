package timeline

import "FableStudio/model"

// ClipChange pairs a persisted clip id with the fields that changed.
type ClipChange struct {
	ClipID int64
	Update model.ClipUpdate
}

// TrackChange pairs a persisted track id with the fields that changed.
type TrackChange struct {
	TrackID int64
	Update  model.TrackUpdate
}

// Intents describe what the persistence layer must do after an operation
// was applied to the in-memory model. Created records point into the live
// model so the store-assigned ids can be written back.
type Intents struct {
	CreatedTracks []*model.Track
	UpdatedTracks []TrackChange
	DeletedTracks []int64

	CreatedClips []*model.Clip
	UpdatedClips []ClipChange
	DeletedClips []int64

	// MarkersReplaced signals that the project's full marker set must be
	// rewritten (markers have no partial update).
	MarkersReplaced bool

	// ReplaceAll signals that the whole timeline was swapped wholesale
	// (undo/redo restore or external reload) and the store must follow.
	ReplaceAll bool
}

// Empty reports whether nothing needs persisting.
func (i Intents) Empty() bool {
	return len(i.CreatedTracks) == 0 && len(i.UpdatedTracks) == 0 && len(i.DeletedTracks) == 0 &&
		len(i.CreatedClips) == 0 && len(i.UpdatedClips) == 0 && len(i.DeletedClips) == 0 &&
		!i.MarkersReplaced && !i.ReplaceAll
}
