package server

import (
	"context"
	"fmt"
	"io"
	"sync"

	"FableStudio/cache"
	"FableStudio/config"
	"FableStudio/core/asset"
	"FableStudio/core/playback"
	"FableStudio/core/timeline"
	"FableStudio/logger"
	"FableStudio/model"
	"FableStudio/repository"
	"FableStudio/storage"
)

// EditorSession is the per-open-project editing context: the timeline
// model, its undo history, the session asset cache, the playback scheduler
// and the in-flight drag gesture. Each project gets its own history, so
// editing two projects never cross-contaminates their undo stacks.
type EditorSession struct {
	ProjectID int64

	// mu serializes all access; handlers are the single mutator of the
	// model, the scheduler only reads snapshots taken under the lock.
	mu sync.Mutex

	Model     *timeline.Model
	History   *timeline.History
	Resolver  timeline.Resolver
	Assets    *asset.Cache
	Scheduler *playback.Scheduler

	drag *timeline.Drag

	trackRepo  repository.TrackRepository
	clipRepo   repository.ClipRepository
	markerRepo repository.MarkerRepository
}

// Lock acquires the session for one handler invocation.
func (s *EditorSession) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *EditorSession) Unlock() { s.mu.Unlock() }

// SessionManager owns the open editor sessions, one per project.
type SessionManager struct {
	cfg    *config.Config
	engine playback.Engine

	trackRepo  repository.TrackRepository
	clipRepo   repository.ClipRepository
	markerRepo repository.MarkerRepository

	mu       sync.Mutex
	sessions map[int64]*EditorSession
}

// NewSessionManager creates a session manager over the persistence
// repositories and the platform audio engine.
func NewSessionManager(
	cfg *config.Config,
	engine playback.Engine,
	trackRepo repository.TrackRepository,
	clipRepo repository.ClipRepository,
	markerRepo repository.MarkerRepository,
) *SessionManager {
	return &SessionManager{
		cfg:        cfg,
		engine:     engine,
		trackRepo:  trackRepo,
		clipRepo:   clipRepo,
		markerRepo: markerRepo,
		sessions:   make(map[int64]*EditorSession),
	}
}

// Open returns the session for a project, creating and loading it on first
// use. The timeline comes from the Redis cache when present, else from
// MySQL; asset buffers resolve in the background.
func (sm *SessionManager) Open(ctx context.Context, projectID int64) (*EditorSession, error) {
	sm.mu.Lock()
	if s, ok := sm.sessions[projectID]; ok {
		sm.mu.Unlock()
		return s, nil
	}
	sm.mu.Unlock()

	tracks, markers, err := sm.loadTimeline(ctx, projectID)
	if err != nil {
		return nil, err
	}

	assets := asset.NewCache(sm.assetLoader())
	m := timeline.NewModel(projectID, assets)
	if _, err := m.Apply(timeline.ReplaceTimeline{Tracks: tracks, Markers: markers}); err != nil {
		return nil, fmt.Errorf("failed to load timeline into model: %w", err)
	}

	session := &EditorSession{
		ProjectID:  projectID,
		Model:      m,
		History:    timeline.NewHistory(m),
		Resolver:   timeline.NewResolver(),
		Assets:     assets,
		Scheduler:  playback.NewScheduler(sm.engine, assets),
		trackRepo:  sm.trackRepo,
		clipRepo:   sm.clipRepo,
		markerRepo: sm.markerRepo,
	}

	// Warm the asset cache off the request path; scheduling silently skips
	// clips whose buffer isn't resolved yet.
	ids := make([]string, 0)
	seen := make(map[string]bool)
	for _, t := range tracks {
		for _, c := range t.Clips {
			if !seen[c.AssetID] {
				seen[c.AssetID] = true
				ids = append(ids, c.AssetID)
			}
		}
	}
	go session.Assets.ResolveAll(context.Background(), ids)

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if existing, ok := sm.sessions[projectID]; ok {
		return existing, nil
	}
	sm.sessions[projectID] = session
	logger.Info("Editor session opened", logger.Int64("projectId", projectID))
	return session, nil
}

// Close tears down a project's session, stopping playback.
func (sm *SessionManager) Close(projectID int64) {
	sm.mu.Lock()
	s, ok := sm.sessions[projectID]
	delete(sm.sessions, projectID)
	sm.mu.Unlock()
	if ok {
		s.Scheduler.Stop()
		logger.Info("Editor session closed", logger.Int64("projectId", projectID))
	}
}

func (sm *SessionManager) loadTimeline(ctx context.Context, projectID int64) ([]*model.Track, []*model.ChapterMarker, error) {
	if state, err := cache.LoadTimeline(ctx, projectID); err == nil && state != nil {
		logger.Debug("Timeline loaded from cache", logger.Int64("projectId", projectID))
		return state.Tracks, state.Markers, nil
	} else if err != nil {
		logger.Warn("Timeline cache lookup failed", logger.ErrorField(err))
	}

	tracks, err := sm.trackRepo.GetTracksByProjectID(projectID)
	if err != nil {
		return nil, nil, err
	}
	markers, err := sm.markerRepo.GetMarkersByProjectID(projectID)
	if err != nil {
		return nil, nil, err
	}
	return tracks, markers, nil
}

func (sm *SessionManager) assetLoader() asset.Loader {
	bucket := sm.cfg.MinioBucket
	return func(ctx context.Context, assetID string) (io.ReadCloser, error) {
		r, _, err := storage.FetchAsset(ctx, bucket, assetID)
		return r, err
	}
}

// Persist applies the intents an operation emitted to the store. A failure
// is logged and returned but the in-memory model is never rolled back; the
// session simply runs ahead of the store until the next successful write.
func (s *EditorSession) Persist(ctx context.Context, intents timeline.Intents) error {
	if intents.Empty() {
		return nil
	}

	var firstErr error
	fail := func(err error) {
		if err != nil {
			logger.Error("Persistence failed, in-memory timeline is ahead of the store",
				logger.Int64("projectId", s.ProjectID),
				logger.ErrorField(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if intents.ReplaceAll {
		fail(s.trackRepo.ReplaceProjectTimeline(s.ProjectID, s.Model.SnapshotTracks()))
	} else {
		for _, track := range intents.CreatedTracks {
			provisional := track.ID
			id, err := s.trackRepo.CreateTrack(track)
			if err != nil {
				fail(err)
				continue
			}
			s.Model.SetTrackID(provisional, id)
		}
		for _, clip := range intents.CreatedClips {
			provisional := clip.ID
			id, err := s.clipRepo.CreateClip(clip)
			if err != nil {
				fail(err)
				continue
			}
			s.Model.SetClipID(provisional, id)
		}
		for _, change := range intents.UpdatedTracks {
			if change.TrackID > 0 {
				fail(s.trackRepo.UpdateTrackFields(change.TrackID, change.Update))
			}
		}
		for _, change := range intents.UpdatedClips {
			if change.ClipID > 0 {
				fail(s.clipRepo.UpdateClipFields(change.ClipID, change.Update))
			}
		}
		for _, id := range intents.DeletedClips {
			if id > 0 {
				fail(s.clipRepo.DeleteClip(id))
			}
		}
		for _, id := range intents.DeletedTracks {
			if id > 0 {
				fail(s.trackRepo.DeleteTrack(id))
			}
		}
	}

	if intents.MarkersReplaced {
		fail(s.markerRepo.ReplaceProjectMarkers(s.ProjectID, s.Model.Markers()))
	}

	// Refresh the cached timeline; best effort.
	state := &cache.TimelineState{Tracks: s.Model.SnapshotTracks(), Markers: s.Model.Markers()}
	if err := cache.SaveTimeline(ctx, s.ProjectID, state); err != nil {
		logger.Warn("Failed to refresh timeline cache", logger.ErrorField(err))
	}

	return firstErr
}
