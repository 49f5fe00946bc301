package server

import (
	"encoding/json"
	"net/http"

	"FableStudio/cache"
	"FableStudio/logger"
	"FableStudio/model"
)

// ListProjectsHandler lists the authenticated user's projects.
func (h *APIHandler) ListProjectsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	projects, err := h.projectRepo.GetProjectsByUserID(userID)
	if err != nil {
		logger.Error("Failed to list projects", logger.Int64("userId", userID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list projects")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"projects": projects})
}

// CreateProjectHandler creates an empty project for the authenticated user.
func (h *APIHandler) CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		respondError(w, http.StatusBadRequest, "Project title is required")
		return
	}

	project := &model.Project{UserID: userID, Title: req.Title}
	id, err := h.projectRepo.CreateProject(project)
	if err != nil {
		logger.Error("Failed to create project", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to create project")
		return
	}
	project.ID = id

	logger.Info("Project created", logger.Int64("projectId", id), logger.Int64("userId", userID))
	respondJSON(w, http.StatusOK, project)
}

// GetProjectHandler returns one project's metadata.
func (h *APIHandler) GetProjectHandler(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "project_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid project id")
		return
	}

	project, err := h.projectRepo.GetProjectByID(projectID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load project")
		return
	}
	if project == nil {
		respondError(w, http.StatusNotFound, "Project not found")
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// DeleteProjectHandler removes a project. Its open session, if any, is
// closed first so playback stops.
func (h *APIHandler) DeleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "project_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid project id")
		return
	}

	h.sessions.Close(projectID)
	if err := h.projectRepo.DeleteProject(projectID); err != nil {
		logger.Error("Failed to delete project", logger.Int64("projectId", projectID), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete project")
		return
	}
	if err := cache.DropTimeline(r.Context(), projectID); err != nil {
		logger.Warn("Failed to drop cached timeline", logger.Int64("projectId", projectID), logger.ErrorField(err))
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// CloseSessionHandler releases a project's editor session.
func (h *APIHandler) CloseSessionHandler(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "project_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid project id")
		return
	}
	h.sessions.Close(projectID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}
