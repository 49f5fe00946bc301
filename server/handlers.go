package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"FableStudio/config"
	"FableStudio/repository"

	"github.com/gorilla/mux"
)

// APIHandler carries the dependencies of every HTTP handler.
type APIHandler struct {
	cfg         *config.Config
	sessions    *SessionManager
	hub         *TimelineHub
	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
}

// NewAPIHandler creates the API handler set.
func NewAPIHandler(
	cfg *config.Config,
	sessions *SessionManager,
	hub *TimelineHub,
	userRepo repository.UserRepository,
	projectRepo repository.ProjectRepository,
) *APIHandler {
	return &APIHandler{
		cfg:         cfg,
		sessions:    sessions,
		hub:         hub,
		userRepo:    userRepo,
		projectRepo: projectRepo,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// pathID extracts a numeric path variable from the request.
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

// session resolves the editor session for the project in the request path.
func (h *APIHandler) session(w http.ResponseWriter, r *http.Request) *EditorSession {
	projectID, err := pathID(r, "project_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid project id")
		return nil
	}
	s, err := h.sessions.Open(r.Context(), projectID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to open project session")
		return nil
	}
	return s
}
