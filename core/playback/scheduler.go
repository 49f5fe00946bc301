package playback

import (
	"math"
	"sync"
	"time"

	"FableStudio/core/asset"
	"FableStudio/logger"
	"FableStudio/model"
)

// tickInterval is the playhead update cadence, roughly one display refresh.
const tickInterval = 33 * time.Millisecond

// BufferSource resolves an asset id to its decoded buffer, or nil when the
// asset is unresolved. The session asset cache satisfies this.
type BufferSource interface {
	Get(assetID string) *asset.Buffer
}

// Scheduler converts a timeline snapshot into scheduled audio output
// synchronized to a moving playhead. It only ever reads the snapshot taken
// at Start; edits made afterwards do not affect in-flight playback.
type Scheduler struct {
	engine  Engine
	buffers BufferSource

	mu        sync.Mutex
	playing   bool
	clockRef  float64 // engine time at Start
	offsetMs  int64   // logical timeline position at clockRef
	scheduled []CancelFunc
	stopTick  chan struct{}

	onTick func(positionMs int64)
}

// NewScheduler creates a scheduler on the given engine and buffer source.
func NewScheduler(engine Engine, buffers BufferSource) *Scheduler {
	return &Scheduler{engine: engine, buffers: buffers}
}

// SetTickFunc installs the playhead callback, invoked on every tick while
// playing. Must be set before Start.
func (s *Scheduler) SetTickFunc(fn func(positionMs int64)) {
	s.mu.Lock()
	s.onTick = fn
	s.mu.Unlock()
}

// dbToGain converts decibels to a linear gain factor.
func dbToGain(db float64) float64 {
	return math.Pow(10, db/20)
}

// Start schedules playback of a timeline snapshot from a logical offset.
// Anything already scheduled is stopped first. Muted tracks are skipped;
// when any track is solo, only solo tracks play. Clips without a resolved
// buffer are silently skipped.
func (s *Scheduler) Start(tracks []*model.Track, offsetMs int64) {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.clockRef = s.engine.Now()
	s.offsetMs = offsetMs
	offsetSec := float64(offsetMs) / 1000

	anySolo := false
	for _, t := range tracks {
		if t.Solo {
			anySolo = true
			break
		}
	}

	scheduled := 0
	for _, track := range tracks {
		if track.Muted || (anySolo && !track.Solo) {
			continue
		}
		trackGain := dbToGain(track.GainDB)

		for _, clip := range track.Clips {
			buf := s.buffers.Get(clip.AssetID)
			if buf == nil {
				continue
			}

			clipStartSec := float64(clip.PositionMs) / 1000
			trimStartSec := float64(clip.TrimStartMs) / 1000
			trimEndSec := float64(clip.TrimEndMs) / 1000
			audibleSec := trimEndSec - trimStartSec
			whenSec := clipStartSec - offsetSec
			gain := trackGain * dbToGain(clip.GainDB)

			var cancel CancelFunc
			var err error
			switch {
			case whenSec+audibleSec < 0:
				// Entirely in the past relative to the offset.
				continue
			case whenSec >= 0:
				cancel, err = s.engine.PlayBuffer(buf, s.clockRef+whenSec, trimStartSec, audibleSec, gain)
			default:
				// The offset falls inside the clip: start immediately,
				// partway into the trimmed range.
				cancel, err = s.engine.PlayBuffer(buf, s.clockRef, trimStartSec-whenSec, audibleSec+whenSec, gain)
			}
			if err != nil {
				logger.Warn("Failed to schedule clip",
					logger.Int64("clipId", clip.ID),
					logger.ErrorField(err))
				continue
			}
			s.scheduled = append(s.scheduled, cancel)
			scheduled++
		}
	}

	s.playing = true
	s.stopTick = make(chan struct{})
	go s.tickLoop(s.stopTick)

	logger.Info("Playback started",
		logger.Int64("offsetMs", offsetMs),
		logger.Int("scheduledClips", scheduled))
}

func (s *Scheduler) tickLoop(stop chan struct{}) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			fn := s.onTick
			pos := s.positionLocked()
			s.mu.Unlock()
			if fn != nil {
				fn(pos)
			}
		}
	}
}

// Stop cancels every scheduled source and halts the playhead updates,
// freezing the playhead at its current position. Idempotent; safe with
// nothing scheduled.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.playing {
		return
	}

	s.offsetMs = s.positionLocked()
	for _, cancel := range s.scheduled {
		cancel()
	}
	s.scheduled = nil
	close(s.stopTick)
	s.stopTick = nil
	s.playing = false

	logger.Info("Playback stopped", logger.Int64("positionMs", s.offsetMs))
}

// IsPlaying reports whether playback is running.
func (s *Scheduler) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// PositionMs returns the current playhead position: the start offset plus
// the engine time elapsed since the clock reference.
func (s *Scheduler) PositionMs() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionLocked()
}

func (s *Scheduler) positionLocked() int64 {
	if !s.playing {
		return s.offsetMs
	}
	return s.offsetMs + int64((s.engine.Now()-s.clockRef)*1000)
}
