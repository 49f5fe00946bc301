package model

import "time"

// TrackType classifies the content a track lane carries.
type TrackType string

const (
	TrackNarration TrackType = "narration"
	TrackDialogue  TrackType = "dialogue"
	TrackSFX       TrackType = "sfx"
	TrackMusic     TrackType = "music"
	TrackImported  TrackType = "imported"
)

// Track is an ordered, typed lane of clips within a project.
type Track struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"projectId"`
	Name      string    `json:"name"`
	Type      TrackType `json:"type"`
	Position  int       `json:"position"` // vertical order within the project, unique per project
	GainDB    float64   `json:"gainDb"`
	Pan       float64   `json:"pan"`
	Muted     bool      `json:"muted"`
	Solo      bool      `json:"solo"`
	Locked    bool      `json:"locked"`
	Color     string    `json:"color"`
	Clips     []*Clip   `json:"clips"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TrackUpdate carries a partial track update; nil fields are left unchanged.
type TrackUpdate struct {
	Name   *string  `json:"name,omitempty"`
	GainDB *float64 `json:"gainDb,omitempty"`
	Pan    *float64 `json:"pan,omitempty"`
	Muted  *bool    `json:"muted,omitempty"`
	Solo   *bool    `json:"solo,omitempty"`
	Locked *bool    `json:"locked,omitempty"`
	Color  *string  `json:"color,omitempty"`
}
