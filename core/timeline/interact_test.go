package timeline

import (
	"testing"

	"FableStudio/model"
)

// One pixel per millisecond keeps the coordinate math readable.
const testPxPerMs = 1.0

func interactModel(t *testing.T) *Model {
	t.Helper()
	durs := stubDurations{"asset-a": 10_000}
	return newTestModel(t, durs,
		testTrack(1, model.TrackNarration, testClip(10, 1000, 0, 3000)),
		testTrack(2, model.TrackMusic, testClip(20, 0, 0, 2000)),
	)
}

func TestTimeAtX(t *testing.T) {
	r := NewResolver()
	if got := r.TimeAtX(250, 0.5); got != 500 {
		t.Errorf("TimeAtX(250, 0.5) = %d, want 500", got)
	}
	if got := r.TimeAtX(-10, 1); got != 0 {
		t.Errorf("TimeAtX(-10, 1) = %d, want 0", got)
	}
	if got := r.TimeAtX(100, 0); got != 0 {
		t.Errorf("TimeAtX with zero scale = %d, want 0", got)
	}
}

func TestTrackAtY(t *testing.T) {
	m := interactModel(t)
	r := NewResolver()

	cases := []struct {
		y    float64
		want int64 // 0 means no track
	}{
		{0, 1},
		{TrackRowHeightPx - 1, 1},
		{TrackRowHeightPx, 2},
		{2*TrackRowHeightPx - 1, 2},
		{2 * TrackRowHeightPx, 0},
		{-5, 0},
	}
	for _, c := range cases {
		track := r.TrackAtY(m, c.y)
		switch {
		case c.want == 0 && track != nil:
			t.Errorf("TrackAtY(%v) = track %d, want none", c.y, track.ID)
		case c.want != 0 && (track == nil || track.ID != c.want):
			t.Errorf("TrackAtY(%v) = %v, want track %d", c.y, track, c.want)
		}
	}
}

func TestResolveClassifiesEdges(t *testing.T) {
	m := interactModel(t)
	r := NewResolver()

	// Clip 10 spans x [1000, 4000] on row 0.
	cases := []struct {
		name string
		x    float64
		mode DragMode
	}{
		{"left edge", 1000, DragTrimLeft},
		{"inside grab of left edge", 1000 + EdgeGrabPx, DragTrimLeft},
		{"body", 2500, DragMove},
		{"just past left grab", 1000 + EdgeGrabPx + 1, DragMove},
		{"inside grab of right edge", 4000 - EdgeGrabPx, DragTrimRight},
		{"right edge", 4000, DragTrimRight},
	}
	for _, c := range cases {
		target, ok := r.Resolve(m, c.x, 10, testPxPerMs)
		if !ok {
			t.Errorf("%s: no hit at x=%v", c.name, c.x)
			continue
		}
		if target.ClipID != 10 {
			t.Errorf("%s: hit clip %d, want 10", c.name, target.ClipID)
		}
		if target.Mode != c.mode {
			t.Errorf("%s: mode = %d, want %d", c.name, target.Mode, c.mode)
		}
	}

	if _, ok := r.Resolve(m, 500, 10, testPxPerMs); ok {
		t.Errorf("hit reported on empty space before the clip")
	}
	if _, ok := r.Resolve(m, 2500, 3*TrackRowHeightPx, testPxPerMs); ok {
		t.Errorf("hit reported below the last track")
	}
}

func TestDragMovePreviewsFromOrigin(t *testing.T) {
	m := interactModel(t)
	h := NewHistory(m)
	r := NewResolver()

	d := r.BeginDrag(m, h, 2500, 10, testPxPerMs)
	if d == nil {
		t.Fatalf("BeginDrag returned nil over a clip body")
	}
	if !h.CanUndo() {
		t.Fatalf("drag begin did not record the pre-gesture state")
	}

	clip, _ := m.ClipByID(10)
	if err := d.Move(m, 2700); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if clip.PositionMs != 1200 {
		t.Errorf("PositionMs after first move = %d, want 1200", clip.PositionMs)
	}

	// Deltas are absolute from the press origin, not compounding.
	if err := d.Move(m, 2600); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if clip.PositionMs != 1100 {
		t.Errorf("PositionMs after second move = %d, want 1100", clip.PositionMs)
	}

	// The whole gesture is one undo step and previews were not recorded.
	intents, err := d.End(m)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if len(intents.UpdatedClips) != 1 || intents.UpdatedClips[0].Update.PositionMs == nil {
		t.Fatalf("End intents = %+v, want one position update", intents)
	}
	if *intents.UpdatedClips[0].Update.PositionMs != 1100 {
		t.Errorf("End position = %d, want 1100", *intents.UpdatedClips[0].Update.PositionMs)
	}

	h.Undo(m)
	if got := clipPosition(t, m, 10); got != 1000 {
		t.Errorf("position after undoing the gesture = %d, want 1000", got)
	}
	if h.CanUndo() {
		t.Errorf("gesture recorded more than one undo step")
	}
}

func TestDragTrimLeftPreview(t *testing.T) {
	m := interactModel(t)
	r := NewResolver()

	d := r.BeginDrag(m, nil, 1000, 10, testPxPerMs)
	if d == nil {
		t.Fatalf("BeginDrag returned nil on the left edge")
	}
	if d.target.Mode != DragTrimLeft {
		t.Fatalf("mode = %d, want DragTrimLeft", d.target.Mode)
	}

	clip, _ := m.ClipByID(10)
	if err := d.Move(m, 1400); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if clip.TrimStartMs != 400 || clip.PositionMs != 1400 {
		t.Errorf("trim-left preview = pos %d start %d, want 1400/400", clip.PositionMs, clip.TrimStartMs)
	}

	// Dragging back past the asset start clamps at the origin trim.
	if err := d.Move(m, 200); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if clip.TrimStartMs != 0 || clip.PositionMs != 1000 {
		t.Errorf("clamped preview = pos %d start %d, want 1000/0", clip.PositionMs, clip.TrimStartMs)
	}

	intents, err := d.End(m)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	u := intents.UpdatedClips[0].Update
	if u.PositionMs == nil || u.TrimStartMs == nil || u.TrimEndMs != nil {
		t.Errorf("trim-left gesture should persist position and trim start only, got %+v", u)
	}
}

func TestDragTrimRightPreview(t *testing.T) {
	m := interactModel(t)
	r := NewResolver()

	d := r.BeginDrag(m, nil, 4000, 10, testPxPerMs)
	if d == nil {
		t.Fatalf("BeginDrag returned nil on the right edge")
	}
	if d.target.Mode != DragTrimRight {
		t.Fatalf("mode = %d, want DragTrimRight", d.target.Mode)
	}

	clip, _ := m.ClipByID(10)
	if err := d.Move(m, 4500); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if clip.TrimEndMs != 3500 {
		t.Errorf("TrimEndMs = %d, want 3500", clip.TrimEndMs)
	}
	if clip.PositionMs != 1000 {
		t.Errorf("PositionMs = %d, want unchanged 1000", clip.PositionMs)
	}

	intents, err := d.End(m)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	u := intents.UpdatedClips[0].Update
	if u.TrimEndMs == nil || u.PositionMs != nil {
		t.Errorf("trim-right gesture should persist trim end only, got %+v", u)
	}
}

func TestBeginDragIgnoresLockedTracksAndEmptySpace(t *testing.T) {
	m := interactModel(t)
	r := NewResolver()

	if d := r.BeginDrag(m, nil, 500, 10, testPxPerMs); d != nil {
		t.Errorf("drag opened over empty space")
	}

	locked := true
	mustApply(t, m, UpdateTrackFields{TrackID: 1, Update: model.TrackUpdate{Locked: &locked}})
	if d := r.BeginDrag(m, nil, 2500, 10, testPxPerMs); d != nil {
		t.Errorf("drag opened on a locked track")
	}
}
