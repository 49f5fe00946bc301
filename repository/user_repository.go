package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"FableStudio/db"
	"FableStudio/model"
)

// ErrDuplicateUser is returned when a username or email already exists.
var ErrDuplicateUser = errors.New("username or email already exists")

// UserRepository defines the interface for user persistence.
type UserRepository interface {
	CreateUser(user *model.User) (int64, error)
	GetUserByUsername(username string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
}

// mysqlUserRepository implements UserRepository for MySQL.
type mysqlUserRepository struct {
	DB *sql.DB
}

// NewMySQLUserRepository creates a new instance of mysqlUserRepository.
func NewMySQLUserRepository() UserRepository {
	return &mysqlUserRepository{DB: db.DB}
}

// CreateUser adds a new user to the database.
func (r *mysqlUserRepository) CreateUser(user *model.User) (int64, error) {
	query := `INSERT INTO users (username, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	now := time.Now()
	res, err := r.DB.Exec(query, user.Username, user.Email, user.PasswordHash, now, now)
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return 0, ErrDuplicateUser
		}
		return 0, fmt.Errorf("failed to execute CreateUser: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateUser: %w", err)
	}
	return id, nil
}

func (r *mysqlUserRepository) getUserBy(where string, arg interface{}) (*model.User, error) {
	query := `SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE ` + where
	user := &model.User{}
	err := r.DB.QueryRow(query, arg).Scan(&user.ID, &user.Username, &user.Email,
		&user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *mysqlUserRepository) GetUserByUsername(username string) (*model.User, error) {
	return r.getUserBy("username = ?", username)
}

// GetUserByEmail retrieves a user by email.
func (r *mysqlUserRepository) GetUserByEmail(email string) (*model.User, error) {
	return r.getUserBy("email = ?", email)
}
