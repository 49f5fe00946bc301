package timeline

import (
	"FableStudio/model"
)

// Timeline display bounds: the derived duration never drops below the
// floor, and always leaves trailing room after the last clip or marker.
const (
	minTimelineMs int64 = 60_000
	tailPadMs     int64 = 5_000
)

// DurationSource resolves an asset id to its total duration. The session
// asset cache satisfies this; tests use stubs.
type DurationSource interface {
	DurationMs(assetID string) int64
}

// Model is the authoritative in-memory timeline of one project: tracks
// (each carrying its clips), chapter markers, the playhead and the single
// clipboard slot. All mutation flows through Apply, so the undo history can
// intercept every change. The model has no UI or storage dependency.
type Model struct {
	projectID int64
	tracks    []*model.Track
	markers   []*model.ChapterMarker
	playhead  int64
	clipboard *model.ClipboardEntry

	durations DurationSource

	// beforeMutate runs ahead of every recordable op; the history manager
	// hooks in here to push the pre-mutation snapshot.
	beforeMutate func()

	observers map[int]func()
	nextObs   int

	// Clips and tracks created in memory get provisional negative ids until
	// the store assigns real ones.
	nextTempID int64
}

// NewModel creates an empty timeline model for a project.
func NewModel(projectID int64, durations DurationSource) *Model {
	return &Model{
		projectID:  projectID,
		durations:  durations,
		observers:  make(map[int]func()),
		nextTempID: -1,
	}
}

// ProjectID returns the owning project id.
func (m *Model) ProjectID() int64 {
	return m.projectID
}

// SetBeforeMutate installs the pre-mutation hook. At most one hook is
// supported; the undo history owns it.
func (m *Model) SetBeforeMutate(fn func()) {
	m.beforeMutate = fn
}

// Subscribe registers an observer invoked after every applied operation.
// The returned function unsubscribes.
func (m *Model) Subscribe(fn func()) func() {
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	return func() {
		delete(m.observers, id)
	}
}

func (m *Model) notify() {
	for _, fn := range m.observers {
		fn()
	}
}

// Apply is the single mutation entry point. Recordable operations trigger
// the pre-mutation hook first; observers are notified after a successful
// apply. The returned intents tell the persistence layer what changed.
func (m *Model) Apply(op Op) (Intents, error) {
	if op.recordable() && m.beforeMutate != nil {
		m.beforeMutate()
	}
	intents, err := op.apply(m)
	if err != nil {
		return Intents{}, err
	}
	m.notify()
	return intents, nil
}

// Tracks returns the track list in vertical order. Callers must not mutate
// the returned structures; all edits go through Apply.
func (m *Model) Tracks() []*model.Track {
	return m.tracks
}

// Markers returns the chapter marker list.
func (m *Model) Markers() []*model.ChapterMarker {
	return m.markers
}

// PlayheadMs returns the current logical playhead position.
func (m *Model) PlayheadMs() int64 {
	return m.playhead
}

// Clipboard returns the current clipboard entry, or nil.
func (m *Model) Clipboard() *model.ClipboardEntry {
	return m.clipboard
}

// TrackByID finds a track by id.
func (m *Model) TrackByID(id int64) *model.Track {
	for _, t := range m.tracks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// ClipByID finds a clip and its owning track.
func (m *Model) ClipByID(id int64) (*model.Clip, *model.Track) {
	for _, t := range m.tracks {
		for _, c := range t.Clips {
			if c.ID == id {
				return c, t
			}
		}
	}
	return nil, nil
}

// SetClipID rewrites a clip's provisional id once the store has assigned a
// real one.
func (m *Model) SetClipID(oldID, newID int64) {
	if c, _ := m.ClipByID(oldID); c != nil {
		c.ID = newID
	}
}

// SetTrackID rewrites a track's provisional id once the store has assigned
// a real one, carrying the change into the track's clips.
func (m *Model) SetTrackID(oldID, newID int64) {
	if t := m.TrackByID(oldID); t != nil {
		t.ID = newID
		for _, c := range t.Clips {
			c.TrackID = newID
		}
	}
}

// DurationMs derives the total timeline duration: at least the display
// floor, and the furthest clip end or marker plus trailing padding.
func (m *Model) DurationMs() int64 {
	total := minTimelineMs
	for _, t := range m.tracks {
		for _, c := range t.Clips {
			if end := c.EndMs() + tailPadMs; end > total {
				total = end
			}
		}
	}
	for _, mk := range m.markers {
		if end := mk.PositionMs + tailPadMs; end > total {
			total = end
		}
	}
	return total
}

// SnapshotTracks returns a deep copy of the track list, detached from the
// live model. The playback scheduler and the undo history read these.
func (m *Model) SnapshotTracks() []*model.Track {
	return cloneTracks(m.tracks)
}

func cloneTracks(tracks []*model.Track) []*model.Track {
	out := make([]*model.Track, len(tracks))
	for i, t := range tracks {
		tc := *t
		tc.Clips = make([]*model.Clip, len(t.Clips))
		for j, c := range t.Clips {
			tc.Clips[j] = c.Clone()
		}
		out[i] = &tc
	}
	return out
}

func (m *Model) tempID() int64 {
	id := m.nextTempID
	m.nextTempID--
	return id
}

// assetDurationMs returns the known total duration of a clip's asset. With
// no duration source the current trim end is the only safe upper bound.
func (m *Model) assetDurationMs(c *model.Clip) int64 {
	if m.durations != nil {
		return m.durations.DurationMs(c.AssetID)
	}
	return c.TrimEndMs
}
