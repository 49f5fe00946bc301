package repository

import (
	"fmt"

	"FableStudio/db"
	"FableStudio/model"

	"gorm.io/gorm"
)

// MarkerRepository defines the interface for chapter marker persistence.
// There is no partial update: the full marker set of a project is listed
// and replaced wholesale.
type MarkerRepository interface {
	GetMarkersByProjectID(projectID int64) ([]*model.ChapterMarker, error)
	ReplaceProjectMarkers(projectID int64, markers []*model.ChapterMarker) error
}

// gormMarkerRepository implements MarkerRepository on GORM.
type gormMarkerRepository struct {
	db *gorm.DB
}

// NewGormMarkerRepository creates a new instance of gormMarkerRepository.
func NewGormMarkerRepository() MarkerRepository {
	return &gormMarkerRepository{db: db.GormDB}
}

// GetMarkersByProjectID retrieves all chapter markers of a project ordered
// by timeline position.
func (r *gormMarkerRepository) GetMarkersByProjectID(projectID int64) ([]*model.ChapterMarker, error) {
	var markers []*model.ChapterMarker
	err := r.db.Where("project_id = ?", projectID).Order("position_ms ASC").Find(&markers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query markers for project ID %d: %w", projectID, err)
	}
	return markers, nil
}

// ReplaceProjectMarkers replaces the full marker set of a project:
// delete-all-then-insert inside one transaction.
func (r *gormMarkerRepository) ReplaceProjectMarkers(projectID int64, markers []*model.ChapterMarker) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&model.ChapterMarker{}).Error; err != nil {
			return fmt.Errorf("failed to clear markers for project ID %d: %w", projectID, err)
		}
		for _, marker := range markers {
			marker.ProjectID = projectID
			if err := tx.Create(marker).Error; err != nil {
				return fmt.Errorf("failed to insert marker for project ID %d: %w", projectID, err)
			}
		}
		return nil
	})
}
