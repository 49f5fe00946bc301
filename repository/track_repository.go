package repository

import (
	"database/sql"
	"fmt"
	"time"

	"FableStudio/db"
	"FableStudio/model"
)

// TrackRepository defines the interface for track persistence. Listing a
// project's tracks includes each track's clips ordered by position_ms.
type TrackRepository interface {
	CreateTrack(track *model.Track) (int64, error)
	GetTrackByID(id int64) (*model.Track, error)
	GetTracksByProjectID(projectID int64) ([]*model.Track, error)
	NextTrackPosition(projectID int64) (int, error)
	UpdateTrackFields(trackID int64, update model.TrackUpdate) error
	DeleteTrack(trackID int64) error
	ReplaceProjectTimeline(projectID int64, tracks []*model.Track) error
}

// mysqlTrackRepository implements TrackRepository for MySQL.
type mysqlTrackRepository struct {
	DB    *sql.DB
	clips ClipRepository
}

// NewMySQLTrackRepository creates a new instance of mysqlTrackRepository.
func NewMySQLTrackRepository(clips ClipRepository) TrackRepository {
	return &mysqlTrackRepository{DB: db.DB, clips: clips}
}

// CreateTrack adds a new track to the database.
func (r *mysqlTrackRepository) CreateTrack(track *model.Track) (int64, error) {
	query := `INSERT INTO tracks (project_id, name, type, position, gain_db, pan, muted, solo, locked, color, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateTrack: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	res, err := stmt.Exec(track.ProjectID, track.Name, track.Type, track.Position,
		track.GainDB, track.Pan, track.Muted, track.Solo, track.Locked, track.Color, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateTrack: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateTrack: %w", err)
	}
	return id, nil
}

const trackColumns = `id, project_id, name, type, position, gain_db, pan, muted, solo, locked, color, created_at, updated_at`

func scanTrack(row interface{ Scan(...interface{}) error }) (*model.Track, error) {
	track := &model.Track{}
	var color sql.NullString
	err := row.Scan(&track.ID, &track.ProjectID, &track.Name, &track.Type, &track.Position,
		&track.GainDB, &track.Pan, &track.Muted, &track.Solo, &track.Locked, &color,
		&track.CreatedAt, &track.UpdatedAt)
	if err != nil {
		return nil, err
	}
	track.Color = color.String
	return track, nil
}

// GetTrackByID retrieves a track by its ID, including its clips.
func (r *mysqlTrackRepository) GetTrackByID(id int64) (*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`
	track, err := scanTrack(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Track not found
		}
		return nil, fmt.Errorf("failed to scan track by ID %d: %w", id, err)
	}

	clips, err := r.clips.GetClipsByTrackID(track.ID)
	if err != nil {
		return nil, err
	}
	track.Clips = clips
	return track, nil
}

// GetTracksByProjectID retrieves all tracks of a project ordered by their
// vertical position, each carrying its clips ordered by position_ms.
func (r *mysqlTrackRepository) GetTracksByProjectID(projectID int64) ([]*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE project_id = ? ORDER BY position ASC`
	rows, err := r.DB.Query(query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks for project ID %d: %w", projectID, err)
	}
	defer rows.Close()

	tracks := make([]*model.Track, 0)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track in GetTracksByProjectID: %w", err)
		}
		tracks = append(tracks, track)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetTracksByProjectID: %w", err)
	}

	for _, track := range tracks {
		clips, err := r.clips.GetClipsByTrackID(track.ID)
		if err != nil {
			return nil, err
		}
		track.Clips = clips
	}
	return tracks, nil
}

// NextTrackPosition returns the next free ordering index within a project.
func (r *mysqlTrackRepository) NextTrackPosition(projectID int64) (int, error) {
	var pos sql.NullInt64
	err := r.DB.QueryRow(`SELECT MAX(position) FROM tracks WHERE project_id = ?`, projectID).Scan(&pos)
	if err != nil {
		return 0, fmt.Errorf("failed to query max track position for project ID %d: %w", projectID, err)
	}
	if !pos.Valid {
		return 0, nil
	}
	return int(pos.Int64) + 1, nil
}

// UpdateTrackFields updates only the supplied fields of a track.
func (r *mysqlTrackRepository) UpdateTrackFields(trackID int64, update model.TrackUpdate) error {
	set := ""
	args := make([]interface{}, 0, 8)
	add := func(col string, val interface{}) {
		if set != "" {
			set += ", "
		}
		set += col + " = ?"
		args = append(args, val)
	}

	if update.Name != nil {
		add("name", *update.Name)
	}
	if update.GainDB != nil {
		add("gain_db", *update.GainDB)
	}
	if update.Pan != nil {
		add("pan", *update.Pan)
	}
	if update.Muted != nil {
		add("muted", *update.Muted)
	}
	if update.Solo != nil {
		add("solo", *update.Solo)
	}
	if update.Locked != nil {
		add("locked", *update.Locked)
	}
	if update.Color != nil {
		add("color", *update.Color)
	}
	if len(args) == 0 {
		return nil // nothing to update
	}

	add("updated_at", time.Now())
	args = append(args, trackID)

	_, err := r.DB.Exec(`UPDATE tracks SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to execute UpdateTrackFields for track ID %d: %w", trackID, err)
	}
	return nil
}

// DeleteTrack removes a track; its clips cascade via the FK constraint.
func (r *mysqlTrackRepository) DeleteTrack(trackID int64) error {
	_, err := r.DB.Exec(`DELETE FROM tracks WHERE id = ?`, trackID)
	if err != nil {
		return fmt.Errorf("failed to execute DeleteTrack for track ID %d: %w", trackID, err)
	}
	return nil
}

// ReplaceProjectTimeline replaces every track and clip of a project inside
// one transaction, keeping the in-memory IDs. Used when an undo or redo
// restores a whole snapshot and the store must follow.
func (r *mysqlTrackRepository) ReplaceProjectTimeline(projectID int64, tracks []*model.Track) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for ReplaceProjectTimeline: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tracks WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("failed to clear tracks for project ID %d: %w", projectID, err)
	}

	now := time.Now()
	trackStmt, err := tx.Prepare(`INSERT INTO tracks (id, project_id, name, type, position, gain_db, pan, muted, solo, locked, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare track insert for ReplaceProjectTimeline: %w", err)
	}
	defer trackStmt.Close()

	clipStmt, err := tx.Prepare(`INSERT INTO clips (id, track_id, asset_id, segment_id, position_ms, trim_start_ms, trim_end_ms, gain_db, fade_in_ms, fade_out_ms, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare clip insert for ReplaceProjectTimeline: %w", err)
	}
	defer clipStmt.Close()

	for _, track := range tracks {
		if _, err := trackStmt.Exec(track.ID, projectID, track.Name, track.Type, track.Position,
			track.GainDB, track.Pan, track.Muted, track.Solo, track.Locked, track.Color, now, now); err != nil {
			return fmt.Errorf("failed to insert track %d in ReplaceProjectTimeline: %w", track.ID, err)
		}
		for _, clip := range track.Clips {
			if _, err := clipStmt.Exec(clip.ID, track.ID, clip.AssetID, clip.SegmentID,
				clip.PositionMs, clip.TrimStartMs, clip.TrimEndMs, clip.GainDB,
				clip.FadeInMs, clip.FadeOutMs, clip.Notes, now, now); err != nil {
				return fmt.Errorf("failed to insert clip %d in ReplaceProjectTimeline: %w", clip.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ReplaceProjectTimeline: %w", err)
	}
	return nil
}
