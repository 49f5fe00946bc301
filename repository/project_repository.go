package repository

import (
	"database/sql"
	"fmt"
	"time"

	"FableStudio/db"
	"FableStudio/model"
)

// ProjectRepository defines the interface for project persistence.
type ProjectRepository interface {
	CreateProject(project *model.Project) (int64, error)
	GetProjectByID(id int64) (*model.Project, error)
	GetProjectsByUserID(userID int64) ([]*model.Project, error)
	DeleteProject(id int64) error
}

// mysqlProjectRepository implements ProjectRepository for MySQL.
type mysqlProjectRepository struct {
	DB *sql.DB
}

// NewMySQLProjectRepository creates a new instance of mysqlProjectRepository.
func NewMySQLProjectRepository() ProjectRepository {
	return &mysqlProjectRepository{DB: db.DB}
}

// CreateProject adds a new project to the database.
func (r *mysqlProjectRepository) CreateProject(project *model.Project) (int64, error) {
	query := `INSERT INTO projects (user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`
	now := time.Now()
	res, err := r.DB.Exec(query, project.UserID, project.Title, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateProject: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateProject: %w", err)
	}
	return id, nil
}

// GetProjectByID retrieves a project by its ID.
func (r *mysqlProjectRepository) GetProjectByID(id int64) (*model.Project, error) {
	query := `SELECT id, user_id, title, created_at, updated_at FROM projects WHERE id = ?`
	project := &model.Project{}
	err := r.DB.QueryRow(query, id).Scan(&project.ID, &project.UserID, &project.Title,
		&project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Project not found
		}
		return nil, fmt.Errorf("failed to scan project by ID %d: %w", id, err)
	}
	return project, nil
}

// GetProjectsByUserID retrieves all projects owned by a user.
func (r *mysqlProjectRepository) GetProjectsByUserID(userID int64) ([]*model.Project, error) {
	query := `SELECT id, user_id, title, created_at, updated_at FROM projects WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.DB.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects for user ID %d: %w", userID, err)
	}
	defer rows.Close()

	projects := make([]*model.Project, 0)
	for rows.Next() {
		project := &model.Project{}
		err := rows.Scan(&project.ID, &project.UserID, &project.Title,
			&project.CreatedAt, &project.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project in GetProjectsByUserID: %w", err)
		}
		projects = append(projects, project)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetProjectsByUserID: %w", err)
	}
	return projects, nil
}

// DeleteProject removes a project; tracks and clips cascade via FK constraints.
func (r *mysqlProjectRepository) DeleteProject(id int64) error {
	_, err := r.DB.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to execute DeleteProject for project ID %d: %w", id, err)
	}
	return nil
}
