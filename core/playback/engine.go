package playback

import (
	"time"

	"FableStudio/core/asset"
	"FableStudio/logger"
)

// CancelFunc cancels one scheduled audio source. Safe to call more than
// once.
type CancelFunc func()

// Engine is the platform audio subsystem the scheduler drives. Now is a
// monotonic clock in seconds; PlayBuffer schedules a buffer slice to start
// at an absolute engine time, reading from offsetSec for durationSec, with
// a flat linear gain on its output path.
type Engine interface {
	Now() float64
	PlayBuffer(buf *asset.Buffer, startAtSec, offsetSec, durationSec, gain float64) (CancelFunc, error)
}

// logEngine is the default engine: a wall-clock timebase that logs each
// scheduled source instead of producing sound. Real output engines are
// supplied by the embedding platform.
type logEngine struct {
	epoch time.Time
}

// NewLogEngine returns an engine that logs scheduled sources against a
// monotonic wall clock.
func NewLogEngine() Engine {
	return &logEngine{epoch: time.Now()}
}

func (e *logEngine) Now() float64 {
	return time.Since(e.epoch).Seconds()
}

func (e *logEngine) PlayBuffer(buf *asset.Buffer, startAtSec, offsetSec, durationSec, gain float64) (CancelFunc, error) {
	logger.Debug("Scheduled audio source",
		logger.Float64("startAtSec", startAtSec),
		logger.Float64("offsetSec", offsetSec),
		logger.Float64("durationSec", durationSec),
		logger.Float64("gain", gain),
		logger.Int("samples", len(buf.Samples)))
	return func() {}, nil
}
