package model

import (
	"database/sql"
	"time"
)

// ChapterMarker is a labeled timeline position used for navigation.
// Markers are independent of tracks and have no effect on playback.
type ChapterMarker struct {
	ID         int64         `json:"id" gorm:"primaryKey;autoIncrement"`
	ProjectID  int64         `json:"projectId" gorm:"index;not null"`
	ChapterID  sql.NullInt64 `json:"chapterId" gorm:"column:chapter_id"`
	PositionMs int64         `json:"positionMs" gorm:"not null"`
	Label      string        `json:"label" gorm:"size:255"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// TableName sets the GORM table name for chapter markers.
func (ChapterMarker) TableName() string {
	return "chapter_markers"
}
