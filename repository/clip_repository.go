package repository

import (
	"database/sql"
	"fmt"
	"time"

	"FableStudio/db"
	"FableStudio/model"
)

// ClipRepository defines the interface for clip persistence. Updates accept
// a partial field set; only supplied fields change.
type ClipRepository interface {
	CreateClip(clip *model.Clip) (int64, error)
	GetClipByID(id int64) (*model.Clip, error)
	GetClipsByTrackID(trackID int64) ([]*model.Clip, error)
	UpdateClipFields(clipID int64, update model.ClipUpdate) error
	DeleteClip(clipID int64) error
}

// mysqlClipRepository implements ClipRepository for MySQL.
type mysqlClipRepository struct {
	DB *sql.DB
}

// NewMySQLClipRepository creates a new instance of mysqlClipRepository.
func NewMySQLClipRepository() ClipRepository {
	return &mysqlClipRepository{DB: db.DB}
}

const clipColumns = `id, track_id, asset_id, segment_id, position_ms, trim_start_ms, trim_end_ms, gain_db, fade_in_ms, fade_out_ms, notes, created_at, updated_at`

func scanClip(row interface{ Scan(...interface{}) error }) (*model.Clip, error) {
	clip := &model.Clip{}
	var notes sql.NullString
	err := row.Scan(&clip.ID, &clip.TrackID, &clip.AssetID, &clip.SegmentID,
		&clip.PositionMs, &clip.TrimStartMs, &clip.TrimEndMs, &clip.GainDB,
		&clip.FadeInMs, &clip.FadeOutMs, &notes, &clip.CreatedAt, &clip.UpdatedAt)
	if err != nil {
		return nil, err
	}
	clip.Notes = notes.String
	return clip, nil
}

// CreateClip adds a new clip to the database.
func (r *mysqlClipRepository) CreateClip(clip *model.Clip) (int64, error) {
	query := `INSERT INTO clips (track_id, asset_id, segment_id, position_ms, trim_start_ms, trim_end_ms, gain_db, fade_in_ms, fade_out_ms, notes, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateClip: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	res, err := stmt.Exec(clip.TrackID, clip.AssetID, clip.SegmentID, clip.PositionMs,
		clip.TrimStartMs, clip.TrimEndMs, clip.GainDB, clip.FadeInMs, clip.FadeOutMs,
		clip.Notes, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateClip: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateClip: %w", err)
	}
	return id, nil
}

// GetClipByID retrieves a clip by its ID.
func (r *mysqlClipRepository) GetClipByID(id int64) (*model.Clip, error) {
	query := `SELECT ` + clipColumns + ` FROM clips WHERE id = ?`
	clip, err := scanClip(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Clip not found
		}
		return nil, fmt.Errorf("failed to scan clip by ID %d: %w", id, err)
	}
	return clip, nil
}

// GetClipsByTrackID retrieves all clips on a track ordered by their
// timeline position.
func (r *mysqlClipRepository) GetClipsByTrackID(trackID int64) ([]*model.Clip, error) {
	query := `SELECT ` + clipColumns + ` FROM clips WHERE track_id = ? ORDER BY position_ms ASC`
	rows, err := r.DB.Query(query, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query clips for track ID %d: %w", trackID, err)
	}
	defer rows.Close()

	clips := make([]*model.Clip, 0)
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clip in GetClipsByTrackID: %w", err)
		}
		clips = append(clips, clip)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetClipsByTrackID: %w", err)
	}
	return clips, nil
}

// UpdateClipFields updates only the supplied fields of a clip.
func (r *mysqlClipRepository) UpdateClipFields(clipID int64, update model.ClipUpdate) error {
	set := ""
	args := make([]interface{}, 0, 8)
	add := func(col string, val interface{}) {
		if set != "" {
			set += ", "
		}
		set += col + " = ?"
		args = append(args, val)
	}

	if update.PositionMs != nil {
		add("position_ms", *update.PositionMs)
	}
	if update.TrimStartMs != nil {
		add("trim_start_ms", *update.TrimStartMs)
	}
	if update.TrimEndMs != nil {
		add("trim_end_ms", *update.TrimEndMs)
	}
	if update.GainDB != nil {
		add("gain_db", *update.GainDB)
	}
	if update.FadeInMs != nil {
		add("fade_in_ms", *update.FadeInMs)
	}
	if update.FadeOutMs != nil {
		add("fade_out_ms", *update.FadeOutMs)
	}
	if update.Notes != nil {
		add("notes", *update.Notes)
	}
	if len(args) == 0 {
		return nil // nothing to update
	}

	add("updated_at", time.Now())
	args = append(args, clipID)

	_, err := r.DB.Exec(`UPDATE clips SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to execute UpdateClipFields for clip ID %d: %w", clipID, err)
	}
	return nil
}

// DeleteClip removes a clip from the database.
func (r *mysqlClipRepository) DeleteClip(clipID int64) error {
	_, err := r.DB.Exec(`DELETE FROM clips WHERE id = ?`, clipID)
	if err != nil {
		return fmt.Errorf("failed to execute DeleteClip for clip ID %d: %w", clipID, err)
	}
	return nil
}
