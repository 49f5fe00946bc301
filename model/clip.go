package model

import (
	"database/sql"
	"time"
)

// MinClipMs is the smallest effective duration a clip may have. Edits that
// would shrink a clip below this are clamped, never rejected.
const MinClipMs int64 = 50

// Clip is a placed, trimmed reference to an audio asset on a track.
// [TrimStartMs, TrimEndMs] selects the sub-range of the asset that plays;
// PositionMs is the absolute timeline start of that sub-range.
type Clip struct {
	ID          int64          `json:"id"`
	TrackID     int64          `json:"trackId"`
	AssetID     string         `json:"assetId"`
	SegmentID   sql.NullString `json:"segmentId"` // traceability to a source text unit
	PositionMs  int64          `json:"positionMs"`
	TrimStartMs int64          `json:"trimStartMs"`
	TrimEndMs   int64          `json:"trimEndMs"`
	GainDB      float64        `json:"gainDb"`
	FadeInMs    int64          `json:"fadeInMs"`
	FadeOutMs   int64          `json:"fadeOutMs"`
	Notes       string         `json:"notes"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// EffectiveDurationMs is the audible length of the clip on the timeline.
func (c *Clip) EffectiveDurationMs() int64 {
	return c.TrimEndMs - c.TrimStartMs
}

// EndMs is the absolute timeline position where the clip ends.
func (c *Clip) EndMs() int64 {
	return c.PositionMs + c.EffectiveDurationMs()
}

// Clone returns a deep copy of the clip.
func (c *Clip) Clone() *Clip {
	cp := *c
	return &cp
}

// ClipUpdate carries a partial clip update; nil fields are left unchanged.
type ClipUpdate struct {
	PositionMs  *int64   `json:"positionMs,omitempty"`
	TrimStartMs *int64   `json:"trimStartMs,omitempty"`
	TrimEndMs   *int64   `json:"trimEndMs,omitempty"`
	GainDB      *float64 `json:"gainDb,omitempty"`
	FadeInMs    *int64   `json:"fadeInMs,omitempty"`
	FadeOutMs   *int64   `json:"fadeOutMs,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
}
