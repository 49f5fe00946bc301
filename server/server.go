package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FableStudio/config"
	"FableStudio/core/auth"
	"FableStudio/core/ingest"
	"FableStudio/core/playback"
	"FableStudio/db"
	"FableStudio/logger"
	"FableStudio/repository"
	"FableStudio/storage"

	"github.com/gorilla/mux"
)

// Start initializes every subsystem and runs the HTTP server until an
// interrupt arrives.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	auth.SetJWTSecret(cfg.JWTSecret)

	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
	}

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database schema", logger.ErrorField(err))
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()

	clipRepo := repository.NewMySQLClipRepository()
	trackRepo := repository.NewMySQLTrackRepository(clipRepo)
	markerRepo := repository.NewGormMarkerRepository()
	userRepo := repository.NewMySQLUserRepository()
	projectRepo := repository.NewMySQLProjectRepository()

	sessions := NewSessionManager(cfg, playback.NewLogEngine(), trackRepo, clipRepo, markerRepo)
	hub := NewTimelineHub()
	apiHandler := NewAPIHandler(cfg, sessions, hub, userRepo, projectRepo)

	watcher := ingest.NewWatcher(cfg, func(assetID, filename string) {
		logger.Info("Watch folder asset registered",
			logger.String("assetId", assetID),
			logger.String("filename", filename))
	})
	if err := watcher.Start(); err != nil {
		logger.Warn("Asset ingest watcher failed to start", logger.ErrorField(err))
	} else {
		defer watcher.Stop()
	}

	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Auth
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)

	// Projects
	router.HandleFunc("/api/projects", apiHandler.AuthMiddleware(apiHandler.ListProjectsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/projects", apiHandler.AuthMiddleware(apiHandler.CreateProjectHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/projects/{project_id}", apiHandler.AuthMiddleware(apiHandler.GetProjectHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/projects/{project_id}", apiHandler.AuthMiddleware(apiHandler.DeleteProjectHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/projects/{project_id}/session", apiHandler.AuthMiddleware(apiHandler.CloseSessionHandler)).Methods(http.MethodDelete)

	// Timeline editing
	router.HandleFunc("/api/projects/{project_id}/timeline", apiHandler.AuthMiddleware(apiHandler.GetTimelineHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/projects/{project_id}/timeline/op", apiHandler.AuthMiddleware(apiHandler.ApplyOpHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/projects/{project_id}/timeline/undo", apiHandler.AuthMiddleware(apiHandler.UndoHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/projects/{project_id}/timeline/redo", apiHandler.AuthMiddleware(apiHandler.RedoHandler)).Methods(http.MethodPost)

	// Drag gestures
	router.HandleFunc("/api/projects/{project_id}/drag/begin", apiHandler.AuthMiddleware(apiHandler.DragBeginHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/projects/{project_id}/drag/move", apiHandler.AuthMiddleware(apiHandler.DragMoveHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/projects/{project_id}/drag/end", apiHandler.AuthMiddleware(apiHandler.DragEndHandler)).Methods(http.MethodPost)

	// Chapter markers
	router.HandleFunc("/api/projects/{project_id}/markers", apiHandler.AuthMiddleware(apiHandler.GetMarkersHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/projects/{project_id}/markers", apiHandler.AuthMiddleware(apiHandler.ReplaceMarkersHandler)).Methods(http.MethodPut)

	// Playback
	router.HandleFunc("/api/projects/{project_id}/playback/play", apiHandler.AuthMiddleware(apiHandler.PlayHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/projects/{project_id}/playback/stop", apiHandler.AuthMiddleware(apiHandler.StopHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/projects/{project_id}/playback/seek", apiHandler.AuthMiddleware(apiHandler.SeekHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/projects/{project_id}/playback/status", apiHandler.AuthMiddleware(apiHandler.PlaybackStatusHandler)).Methods(http.MethodGet)

	// Assets
	router.HandleFunc("/api/assets/upload", apiHandler.AuthMiddleware(apiHandler.UploadAssetHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/assets/{asset_id}", apiHandler.StreamAssetHandler).Methods(http.MethodGet)

	// Live timeline subscription. Browsers cannot set websocket headers, so
	// this endpoint skips the bearer middleware like the asset stream does.
	router.HandleFunc("/ws/projects/{project_id}/timeline", apiHandler.TimelineWSHandler)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}
