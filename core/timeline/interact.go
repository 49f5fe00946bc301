package timeline

import "FableStudio/model"

// Layout constants for pointer hit-testing. Horizontal scale is dynamic
// (pixels per millisecond, driven by zoom) and passed per call.
const (
	// TrackRowHeightPx is the height of one track lane.
	TrackRowHeightPx = 64.0
	// EdgeGrabPx is the tolerance around a clip edge that turns a press
	// into a trim instead of a move.
	EdgeGrabPx = 8.0
)

// DragMode classifies what a pointer press on a clip manipulates.
type DragMode int

const (
	DragMove DragMode = iota
	DragTrimLeft
	DragTrimRight
)

// HitTarget identifies the clip and edit mode under a pointer position.
type HitTarget struct {
	TrackID int64
	ClipID  int64
	Mode    DragMode
}

// Resolver maps pointer coordinates onto timeline targets. The zero value
// is not usable; NewResolver applies the default layout constants.
type Resolver struct {
	RowHeightPx float64
	EdgeGrabPx  float64
}

// NewResolver returns a resolver with the default layout constants.
func NewResolver() Resolver {
	return Resolver{RowHeightPx: TrackRowHeightPx, EdgeGrabPx: EdgeGrabPx}
}

// TimeAtX converts a horizontal pixel position to a timeline millisecond.
func (r Resolver) TimeAtX(x, pxPerMs float64) int64 {
	if pxPerMs <= 0 {
		return 0
	}
	ms := int64(x / pxPerMs)
	if ms < 0 {
		return 0
	}
	return ms
}

// TrackAtY converts a vertical pixel position to a track, or nil when the
// position is outside every lane.
func (r Resolver) TrackAtY(m *Model, y float64) *model.Track {
	if y < 0 {
		return nil
	}
	idx := int(y / r.RowHeightPx)
	tracks := m.Tracks()
	if idx >= len(tracks) {
		return nil
	}
	return tracks[idx]
}

// Resolve maps a pointer position to a clip and drag mode. Clips on one
// track are scanned in insertion order; overlapping clips resolve to the
// first match.
func (r Resolver) Resolve(m *Model, x, y, pxPerMs float64) (HitTarget, bool) {
	track := r.TrackAtY(m, y)
	if track == nil {
		return HitTarget{}, false
	}

	ms := r.TimeAtX(x, pxPerMs)
	for _, clip := range track.Clips {
		if ms < clip.PositionMs || ms > clip.EndMs() {
			continue
		}

		mode := DragMove
		leftPx := float64(clip.PositionMs) * pxPerMs
		rightPx := float64(clip.EndMs()) * pxPerMs
		switch {
		case x-leftPx <= r.EdgeGrabPx:
			mode = DragTrimLeft
		case rightPx-x <= r.EdgeGrabPx:
			mode = DragTrimRight
		}

		return HitTarget{TrackID: track.ID, ClipID: clip.ID, Mode: mode}, true
	}
	return HitTarget{}, false
}

// Drag is one pointer gesture over a clip. It remembers the press origin
// and the clip's original placement; every Move recomputes the delta from
// that origin and previews it on the live model. Only End emits
// persistence intents, so the store is written once per gesture.
type Drag struct {
	target  HitTarget
	startX  float64
	pxPerMs float64

	origPositionMs  int64
	origTrimStartMs int64
	origTrimEndMs   int64

	history *History
}

// BeginDrag resolves the press position and opens a drag session. The
// pre-gesture state is recorded once, so the whole gesture undoes as one
// step. Returns nil when nothing (or a locked track) is under the pointer.
func (r Resolver) BeginDrag(m *Model, h *History, x, y, pxPerMs float64) *Drag {
	target, ok := r.Resolve(m, x, y, pxPerMs)
	if !ok {
		return nil
	}
	clip, track := m.ClipByID(target.ClipID)
	if clip == nil || track.Locked {
		return nil
	}

	if h != nil {
		h.RecordIfChanged(m)
	}

	return &Drag{
		target:          target,
		startX:          x,
		pxPerMs:         pxPerMs,
		origPositionMs:  clip.PositionMs,
		origTrimStartMs: clip.TrimStartMs,
		origTrimEndMs:   clip.TrimEndMs,
		history:         h,
	}
}

// Move applies the current pointer position as a live preview. The model
// changes; the store does not.
func (d *Drag) Move(m *Model, x float64) error {
	deltaMs := int64((x - d.startX) / d.pxPerMs)
	_, err := m.Apply(dragPreview{drag: d, deltaMs: deltaMs})
	return err
}

// End finishes the gesture and returns the intents persisting its final
// state.
func (d *Drag) End(m *Model) (Intents, error) {
	clip, _ := m.ClipByID(d.target.ClipID)
	if clip == nil {
		return Intents{}, ErrClipNotFound
	}

	pos, start, end := clip.PositionMs, clip.TrimStartMs, clip.TrimEndMs
	update := model.ClipUpdate{}
	switch d.target.Mode {
	case DragMove:
		update.PositionMs = &pos
	case DragTrimLeft:
		update.PositionMs = &pos
		update.TrimStartMs = &start
	case DragTrimRight:
		update.TrimEndMs = &end
	}
	return Intents{UpdatedClips: []ClipChange{{ClipID: clip.ID, Update: update}}}, nil
}

// dragPreview is the live in-gesture edit. It is deliberately not
// recordable: the history snapshot for the whole gesture was pushed at
// BeginDrag.
type dragPreview struct {
	drag    *Drag
	deltaMs int64
}

func (dragPreview) name() string     { return "drag_preview" }
func (dragPreview) recordable() bool { return false }

func (op dragPreview) apply(m *Model) (Intents, error) {
	d := op.drag
	clip, track := m.ClipByID(d.target.ClipID)
	if clip == nil {
		return Intents{}, ErrClipNotFound
	}
	if track.Locked {
		return Intents{}, ErrTrackLocked
	}

	switch d.target.Mode {
	case DragMove:
		applyMove(clip, d.origPositionMs+op.deltaMs)
	case DragTrimLeft:
		// Reset to the origin, then apply the full delta, so every Move is
		// computed from the gesture start rather than compounding.
		clip.PositionMs = d.origPositionMs
		clip.TrimStartMs = d.origTrimStartMs
		applyTrimLeft(clip, op.deltaMs)
	case DragTrimRight:
		applyTrimRight(clip, d.origTrimEndMs+op.deltaMs, m.assetDurationMs(clip))
	}
	return Intents{}, nil
}
