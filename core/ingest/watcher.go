package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"FableStudio/config"
	"FableStudio/logger"
	"FableStudio/storage"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// RegisterFunc is told about every asset the watcher imported, with the
// new asset id and the source filename.
type RegisterFunc func(assetID, filename string)

var audioExtensions = map[string]string{
	".wav": "audio/wav",
	".mp3": "audio/mpeg",
	".m4a": "audio/mp4",
}

// Watcher imports audio files dropped into a local folder: each new file is
// uploaded to object storage under a fresh asset id.
type Watcher struct {
	cfg      *config.Config
	register RegisterFunc
	done     chan struct{}
}

// NewWatcher creates a watch-folder importer. register may be nil.
func NewWatcher(cfg *config.Config, register RegisterFunc) *Watcher {
	return &Watcher{cfg: cfg, register: register, done: make(chan struct{})}
}

// Start begins watching the configured drop folder. No-op when the folder
// is not configured.
func (w *Watcher) Start() error {
	if w.cfg.IngestWatchDir == "" {
		return nil
	}
	if err := os.MkdirAll(w.cfg.IngestWatchDir, 0755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.cfg.IngestWatchDir); err != nil {
		watcher.Close()
		return err
	}

	logger.Info("Asset ingest watcher started", logger.String("dir", w.cfg.IngestWatchDir))

	processed := make(map[string]bool)
	go func() {
		defer watcher.Close()
		for {
			select {
			case event := <-watcher.Events:
				if event.Op&fsnotify.Create != fsnotify.Create {
					continue
				}
				contentType, ok := audioExtensions[strings.ToLower(filepath.Ext(event.Name))]
				if !ok || processed[event.Name] {
					continue
				}
				processed[event.Name] = true
				w.importFile(event.Name, contentType)
			case err := <-watcher.Errors:
				logger.Warn("Ingest watcher error", logger.ErrorField(err))
			case <-w.done:
				return
			}
		}
	}()
	return nil
}

// Stop halts the watcher.
func (w *Watcher) Stop() {
	close(w.done)
}

func (w *Watcher) importFile(path, contentType string) {
	// The create event fires before the writer finishes; give it a moment.
	time.Sleep(500 * time.Millisecond)

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("Failed to open dropped asset", logger.String("path", path), logger.ErrorField(err))
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		logger.Warn("Failed to stat dropped asset", logger.String("path", path), logger.ErrorField(err))
		return
	}

	assetID := uuid.New().String()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := storage.PutAsset(ctx, w.cfg.MinioBucket, assetID, f, stat.Size(), contentType); err != nil {
		logger.Error("Failed to upload dropped asset", logger.String("path", path), logger.ErrorField(err))
		return
	}

	logger.Info("Asset imported from watch folder",
		logger.String("assetId", assetID),
		logger.String("file", filepath.Base(path)))

	if w.register != nil {
		w.register(assetID, filepath.Base(path))
	}
}
