package db

import (
	"database/sql"
	"fmt"
	"log"

	"FableStudio/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
func InitDB() error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createProjectsTable(); err != nil {
		return err
	}
	if err := createTracksTable(); err != nil {
		return err
	}
	if err := createClipsTable(); err != nil {
		return err
	}
	log.Println("Database initialization completed.")
	return nil
}

func createUsersTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(100) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

func createProjectsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS projects (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		title VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_user_projects FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create projects table: %w", err)
	}
	return nil
}

func createTracksTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS tracks (
		id INT AUTO_INCREMENT PRIMARY KEY,
		project_id INT NOT NULL,
		name VARCHAR(255) NOT NULL,
		type VARCHAR(32) NOT NULL,
		position INT NOT NULL,
		gain_db DOUBLE NOT NULL DEFAULT 0,
		pan DOUBLE NOT NULL DEFAULT 0,
		muted TINYINT(1) NOT NULL DEFAULT 0,
		solo TINYINT(1) NOT NULL DEFAULT 0,
		locked TINYINT(1) NOT NULL DEFAULT 0,
		color VARCHAR(32),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_project_tracks FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE,
		CONSTRAINT uq_project_position UNIQUE (project_id, position)
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create tracks table: %w", err)
	}
	return nil
}

func createClipsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS clips (
		id INT AUTO_INCREMENT PRIMARY KEY,
		track_id INT NOT NULL,
		asset_id VARCHAR(128) NOT NULL,
		segment_id VARCHAR(128),
		position_ms BIGINT NOT NULL DEFAULT 0,
		trim_start_ms BIGINT NOT NULL DEFAULT 0,
		trim_end_ms BIGINT NOT NULL,
		gain_db DOUBLE NOT NULL DEFAULT 0,
		fade_in_ms BIGINT NOT NULL DEFAULT 0,
		fade_out_ms BIGINT NOT NULL DEFAULT 0,
		notes TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_track_clips FOREIGN KEY (track_id) REFERENCES tracks(id) ON DELETE CASCADE
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create clips table: %w", err)
	}
	return nil
}
