package timeline

import (
	"errors"
	"math/rand"
	"testing"

	"FableStudio/model"
)

type stubDurations map[string]int64

func (s stubDurations) DurationMs(assetID string) int64 {
	if d, ok := s[assetID]; ok {
		return d
	}
	return 3000
}

func testClip(id, pos, trimStart, trimEnd int64) *model.Clip {
	return &model.Clip{ID: id, AssetID: "asset-a", PositionMs: pos, TrimStartMs: trimStart, TrimEndMs: trimEnd}
}

func testTrack(id int64, typ model.TrackType, clips ...*model.Clip) *model.Track {
	for _, c := range clips {
		c.TrackID = id
	}
	return &model.Track{ID: id, ProjectID: 1, Name: "t", Type: typ, Clips: clips}
}

func newTestModel(t *testing.T, durations DurationSource, tracks ...*model.Track) *Model {
	t.Helper()
	m := NewModel(1, durations)
	if _, err := m.Apply(ReplaceTimeline{Tracks: tracks}); err != nil {
		t.Fatalf("ReplaceTimeline: %v", err)
	}
	return m
}

func mustApply(t *testing.T, m *Model, op Op) Intents {
	t.Helper()
	intents, err := m.Apply(op)
	if err != nil {
		t.Fatalf("Apply(%T): %v", op, err)
	}
	return intents
}

func TestMoveClipClampsAtZero(t *testing.T) {
	durs := stubDurations{"asset-a": 10_000}
	m := newTestModel(t, durs, testTrack(1, model.TrackNarration, testClip(10, 1000, 0, 5000)))

	intents := mustApply(t, m, MoveClip{ClipID: 10, DeltaMs: -5000})
	clip, _ := m.ClipByID(10)
	if clip.PositionMs != 0 {
		t.Errorf("PositionMs = %d, want 0", clip.PositionMs)
	}
	if len(intents.UpdatedClips) != 1 || intents.UpdatedClips[0].Update.PositionMs == nil {
		t.Fatalf("expected one clip update carrying the position")
	}
	if got := *intents.UpdatedClips[0].Update.PositionMs; got != 0 {
		t.Errorf("intent PositionMs = %d, want the clamped 0", got)
	}

	mustApply(t, m, MoveClip{ClipID: 10, DeltaMs: 2500})
	if clip.PositionMs != 2500 {
		t.Errorf("PositionMs = %d, want 2500", clip.PositionMs)
	}
}

func TestMoveClipUnknownClip(t *testing.T) {
	m := newTestModel(t, nil, testTrack(1, model.TrackNarration))
	if _, err := m.Apply(MoveClip{ClipID: 99, DeltaMs: 10}); !errors.Is(err, ErrClipNotFound) {
		t.Errorf("err = %v, want ErrClipNotFound", err)
	}
}

func TestTrimLeftKeepsRightEdgeFixed(t *testing.T) {
	durs := stubDurations{"asset-a": 10_000}
	m := newTestModel(t, durs, testTrack(1, model.TrackNarration, testClip(10, 1000, 500, 4500)))
	clip, _ := m.ClipByID(10)
	end := clip.EndMs()

	mustApply(t, m, TrimClipLeft{ClipID: 10, DeltaMs: 300})
	if clip.TrimStartMs != 800 {
		t.Errorf("TrimStartMs = %d, want 800", clip.TrimStartMs)
	}
	if clip.PositionMs != 1300 {
		t.Errorf("PositionMs = %d, want 1300", clip.PositionMs)
	}
	if clip.EndMs() != end {
		t.Errorf("EndMs = %d, want unchanged %d", clip.EndMs(), end)
	}
}

func TestTrimLeftFloorsAtMinimumDuration(t *testing.T) {
	durs := stubDurations{"asset-a": 10_000}
	m := newTestModel(t, durs, testTrack(1, model.TrackNarration, testClip(10, 1000, 0, 2000)))
	clip, _ := m.ClipByID(10)

	mustApply(t, m, TrimClipLeft{ClipID: 10, DeltaMs: 100_000})
	if got := clip.EffectiveDurationMs(); got != model.MinClipMs {
		t.Errorf("EffectiveDurationMs = %d, want floor %d", got, model.MinClipMs)
	}
}

func TestTrimLeftClampsAtTrimStartAndPosition(t *testing.T) {
	durs := stubDurations{"asset-a": 10_000}

	// Trim start is the tighter bound.
	m := newTestModel(t, durs, testTrack(1, model.TrackNarration, testClip(10, 1000, 200, 4000)))
	clip, _ := m.ClipByID(10)
	mustApply(t, m, TrimClipLeft{ClipID: 10, DeltaMs: -100_000})
	if clip.TrimStartMs != 0 {
		t.Errorf("TrimStartMs = %d, want 0", clip.TrimStartMs)
	}
	if clip.PositionMs != 800 {
		t.Errorf("PositionMs = %d, want 800", clip.PositionMs)
	}

	// Position is the tighter bound.
	m = newTestModel(t, durs, testTrack(1, model.TrackNarration, testClip(10, 100, 500, 4000)))
	clip, _ = m.ClipByID(10)
	mustApply(t, m, TrimClipLeft{ClipID: 10, DeltaMs: -100_000})
	if clip.PositionMs != 0 {
		t.Errorf("PositionMs = %d, want 0", clip.PositionMs)
	}
	if clip.TrimStartMs != 400 {
		t.Errorf("TrimStartMs = %d, want 400", clip.TrimStartMs)
	}
}

func TestTrimRightClampsToAssetAndFloor(t *testing.T) {
	durs := stubDurations{"asset-a": 6000}
	m := newTestModel(t, durs, testTrack(1, model.TrackNarration, testClip(10, 0, 1000, 4000)))
	clip, _ := m.ClipByID(10)

	mustApply(t, m, TrimClipRight{ClipID: 10, DeltaMs: 100_000})
	if clip.TrimEndMs != 6000 {
		t.Errorf("TrimEndMs = %d, want asset duration 6000", clip.TrimEndMs)
	}

	mustApply(t, m, TrimClipRight{ClipID: 10, DeltaMs: -100_000})
	if clip.TrimEndMs != clip.TrimStartMs+model.MinClipMs {
		t.Errorf("TrimEndMs = %d, want floor %d", clip.TrimEndMs, clip.TrimStartMs+model.MinClipMs)
	}
	if clip.PositionMs != 0 {
		t.Errorf("PositionMs = %d, want unchanged 0", clip.PositionMs)
	}
}

// Random trims in both directions must never break the clip invariants:
// position and trim start stay non-negative, trim end stays within the
// asset, and the effective duration never dips below the floor.
func TestTrimInvariantsUnderRandomDeltas(t *testing.T) {
	const assetDur = 8000
	durs := stubDurations{"asset-a": assetDur}
	m := newTestModel(t, durs, testTrack(1, model.TrackNarration, testClip(10, 2000, 1000, 7000)))
	clip, _ := m.ClipByID(10)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		delta := rng.Int63n(4000) - 2000
		if rng.Intn(2) == 0 {
			mustApply(t, m, TrimClipLeft{ClipID: 10, DeltaMs: delta})
		} else {
			mustApply(t, m, TrimClipRight{ClipID: 10, DeltaMs: delta})
		}

		if clip.PositionMs < 0 {
			t.Fatalf("step %d: PositionMs = %d, went negative", i, clip.PositionMs)
		}
		if clip.TrimStartMs < 0 {
			t.Fatalf("step %d: TrimStartMs = %d, went negative", i, clip.TrimStartMs)
		}
		if clip.TrimEndMs > assetDur {
			t.Fatalf("step %d: TrimEndMs = %d, exceeds asset %d", i, clip.TrimEndMs, assetDur)
		}
		if clip.EffectiveDurationMs() < model.MinClipMs {
			t.Fatalf("step %d: EffectiveDurationMs = %d, below floor", i, clip.EffectiveDurationMs())
		}
	}
}

func TestSplitClipConservesAudibleRange(t *testing.T) {
	durs := stubDurations{"asset-a": 10_000}
	clip := testClip(10, 1000, 500, 4500)
	clip.FadeInMs = 200
	clip.FadeOutMs = 300
	m := newTestModel(t, durs, testTrack(1, model.TrackNarration, clip))

	left, _ := m.ClipByID(10)
	origEnd := left.EndMs()

	intents := mustApply(t, m, SplitClip{ClipID: 10, OffsetMs: 1500})
	if len(intents.CreatedClips) != 1 {
		t.Fatalf("CreatedClips = %d, want 1", len(intents.CreatedClips))
	}
	right := intents.CreatedClips[0]

	if left.EffectiveDurationMs() != 1500 {
		t.Errorf("left duration = %d, want 1500", left.EffectiveDurationMs())
	}
	if right.EffectiveDurationMs() != 2500 {
		t.Errorf("right duration = %d, want 2500", right.EffectiveDurationMs())
	}
	if right.PositionMs != left.EndMs() {
		t.Errorf("right starts at %d, want left end %d", right.PositionMs, left.EndMs())
	}
	if right.TrimStartMs != left.TrimEndMs {
		t.Errorf("right TrimStartMs = %d, want left TrimEndMs %d", right.TrimStartMs, left.TrimEndMs)
	}
	if right.EndMs() != origEnd {
		t.Errorf("right ends at %d, want original end %d", right.EndMs(), origEnd)
	}

	// The cut is a hard edge.
	if left.FadeInMs != 200 || left.FadeOutMs != 0 {
		t.Errorf("left fades = %d/%d, want 200/0", left.FadeInMs, left.FadeOutMs)
	}
	if right.FadeInMs != 0 || right.FadeOutMs != 300 {
		t.Errorf("right fades = %d/%d, want 0/300", right.FadeInMs, right.FadeOutMs)
	}

	if right.ID >= 0 {
		t.Errorf("right.ID = %d, want a provisional negative id", right.ID)
	}

	track := m.TrackByID(1)
	if len(track.Clips) != 2 {
		t.Fatalf("track has %d clips, want 2", len(track.Clips))
	}
}

func TestSplitClipOutOfRange(t *testing.T) {
	durs := stubDurations{"asset-a": 10_000}
	m := newTestModel(t, durs, testTrack(1, model.TrackNarration, testClip(10, 0, 0, 1000)))

	for _, offset := range []int64{0, model.MinClipMs, 1000 - model.MinClipMs, 1000, 5000} {
		if _, err := m.Apply(SplitClip{ClipID: 10, OffsetMs: offset}); !errors.Is(err, ErrSplitOutOfRange) {
			t.Errorf("offset %d: err = %v, want ErrSplitOutOfRange", offset, err)
		}
	}

	// Just inside the bounds succeeds.
	if _, err := m.Apply(SplitClip{ClipID: 10, OffsetMs: model.MinClipMs + 1}); err != nil {
		t.Errorf("offset %d: unexpected error %v", model.MinClipMs+1, err)
	}
}

func TestDuplicateClipLeavesGap(t *testing.T) {
	durs := stubDurations{"asset-a": 10_000}
	m := newTestModel(t, durs, testTrack(1, model.TrackNarration, testClip(10, 1000, 0, 3000)))
	clip, _ := m.ClipByID(10)

	intents := mustApply(t, m, DuplicateClip{ClipID: 10})
	if len(intents.CreatedClips) != 1 {
		t.Fatalf("CreatedClips = %d, want 1", len(intents.CreatedClips))
	}
	dup := intents.CreatedClips[0]
	if want := clip.EndMs() + DuplicateGapMs; dup.PositionMs != want {
		t.Errorf("dup.PositionMs = %d, want %d", dup.PositionMs, want)
	}
	if dup.TrimStartMs != clip.TrimStartMs || dup.TrimEndMs != clip.TrimEndMs {
		t.Errorf("dup trims = %d..%d, want %d..%d", dup.TrimStartMs, dup.TrimEndMs, clip.TrimStartMs, clip.TrimEndMs)
	}
	if dup.ID >= 0 {
		t.Errorf("dup.ID = %d, want a provisional negative id", dup.ID)
	}
}

func TestCopyPasteTargetsMatchingTrackType(t *testing.T) {
	durs := stubDurations{"asset-a": 10_000}
	src := testClip(10, 1000, 100, 2100)
	src.GainDB = -3
	src.Notes = "breath before"
	m := newTestModel(t, durs,
		testTrack(1, model.TrackNarration),
		testTrack(2, model.TrackMusic, src),
		testTrack(3, model.TrackMusic),
	)

	intents := mustApply(t, m, CopyClip{ClipID: 10})
	if !intents.Empty() {
		t.Errorf("copy emitted intents: %+v", intents)
	}

	mustApply(t, m, SetPlayhead{PositionMs: 42_000})
	intents = mustApply(t, m, Paste{})
	if len(intents.CreatedClips) != 1 {
		t.Fatalf("CreatedClips = %d, want 1", len(intents.CreatedClips))
	}
	pasted := intents.CreatedClips[0]

	// First track of the matching type, not the first track overall.
	if pasted.TrackID != 2 {
		t.Errorf("pasted.TrackID = %d, want 2", pasted.TrackID)
	}
	if pasted.PositionMs != 42_000 {
		t.Errorf("pasted.PositionMs = %d, want the playhead 42000", pasted.PositionMs)
	}
	if pasted.GainDB != -3 || pasted.Notes != "breath before" {
		t.Errorf("pasted lost fields: gain %v notes %q", pasted.GainDB, pasted.Notes)
	}
	if pasted.TrimStartMs != 100 || pasted.TrimEndMs != 2100 {
		t.Errorf("pasted trims = %d..%d, want 100..2100", pasted.TrimStartMs, pasted.TrimEndMs)
	}
}

func TestPasteFallsBackToFirstTrack(t *testing.T) {
	durs := stubDurations{"asset-a": 10_000}
	m := newTestModel(t, durs,
		testTrack(1, model.TrackNarration),
		testTrack(2, model.TrackMusic, testClip(10, 0, 0, 1000)),
	)

	mustApply(t, m, CopyClip{ClipID: 10})
	// Remove every music track, leaving no type match.
	mustApply(t, m, DeleteTrack{TrackID: 2})

	intents := mustApply(t, m, Paste{})
	if len(intents.CreatedClips) != 1 || intents.CreatedClips[0].TrackID != 1 {
		t.Fatalf("paste should land on the first track, got %+v", intents.CreatedClips)
	}
}

func TestPasteWithEmptyClipboardIsNoOp(t *testing.T) {
	m := newTestModel(t, nil, testTrack(1, model.TrackNarration))
	intents := mustApply(t, m, Paste{})
	if !intents.Empty() {
		t.Errorf("paste emitted intents with empty clipboard: %+v", intents)
	}
}

func TestCutClipRemovesSourceAndPastes(t *testing.T) {
	durs := stubDurations{"asset-a": 10_000}
	m := newTestModel(t, durs, testTrack(1, model.TrackNarration, testClip(10, 500, 0, 1500)))

	intents := mustApply(t, m, CutClip{ClipID: 10})
	if len(intents.DeletedClips) != 1 || intents.DeletedClips[0] != 10 {
		t.Fatalf("cut should delete clip 10, got %+v", intents.DeletedClips)
	}
	if c, _ := m.ClipByID(10); c != nil {
		t.Fatalf("clip 10 still on the timeline after cut")
	}

	intents = mustApply(t, m, Paste{})
	if len(intents.CreatedClips) != 1 {
		t.Fatalf("paste after cut created %d clips, want 1", len(intents.CreatedClips))
	}
	if got := intents.CreatedClips[0].EffectiveDurationMs(); got != 1500 {
		t.Errorf("pasted duration = %d, want 1500", got)
	}
}

func TestLockedTrackRejectsEdits(t *testing.T) {
	durs := stubDurations{"asset-a": 10_000}
	track := testTrack(1, model.TrackNarration, testClip(10, 0, 0, 1000))
	track.Locked = true
	m := newTestModel(t, durs, track)

	ops := []Op{
		MoveClip{ClipID: 10, DeltaMs: 100},
		TrimClipLeft{ClipID: 10, DeltaMs: 100},
		TrimClipRight{ClipID: 10, DeltaMs: 100},
		SplitClip{ClipID: 10, OffsetMs: 500},
		DuplicateClip{ClipID: 10},
		CutClip{ClipID: 10},
		DeleteClip{ClipID: 10},
		CreateClip{TrackID: 1, AssetID: "asset-a"},
		UpdateClipFields{ClipID: 10, Update: model.ClipUpdate{}},
	}
	for _, op := range ops {
		if _, err := m.Apply(op); !errors.Is(err, ErrTrackLocked) {
			t.Errorf("%T: err = %v, want ErrTrackLocked", op, err)
		}
	}

	// The lock itself can still be toggled.
	locked := false
	if _, err := m.Apply(UpdateTrackFields{TrackID: 1, Update: model.TrackUpdate{Locked: &locked}}); err != nil {
		t.Errorf("unlocking failed: %v", err)
	}
	if m.TrackByID(1).Locked {
		t.Errorf("track still locked after update")
	}
}

func TestCreateClipDefaultsToFullAsset(t *testing.T) {
	durs := stubDurations{"asset-a": 7000}
	m := newTestModel(t, durs, testTrack(1, model.TrackNarration))

	intents := mustApply(t, m, CreateClip{TrackID: 1, AssetID: "asset-a", PositionMs: -500})
	clip := intents.CreatedClips[0]
	if clip.PositionMs != 0 {
		t.Errorf("PositionMs = %d, want clamped 0", clip.PositionMs)
	}
	if clip.TrimStartMs != 0 || clip.TrimEndMs != 7000 {
		t.Errorf("trims = %d..%d, want 0..7000", clip.TrimStartMs, clip.TrimEndMs)
	}
	if clip.ID >= 0 {
		t.Errorf("ID = %d, want a provisional negative id", clip.ID)
	}
}

func TestUpdateClipFieldsEchoesClampedValues(t *testing.T) {
	durs := stubDurations{"asset-a": 5000}
	m := newTestModel(t, durs, testTrack(1, model.TrackNarration, testClip(10, 1000, 0, 4000)))

	end := int64(90_000) // beyond the asset
	fadeIn := int64(-20)
	intents := mustApply(t, m, UpdateClipFields{ClipID: 10, Update: model.ClipUpdate{
		TrimEndMs: &end,
		FadeInMs:  &fadeIn,
	}})

	u := intents.UpdatedClips[0].Update
	if u.TrimEndMs == nil || *u.TrimEndMs != 5000 {
		t.Errorf("echoed TrimEndMs = %v, want clamped 5000", u.TrimEndMs)
	}
	if u.FadeInMs == nil || *u.FadeInMs != 0 {
		t.Errorf("echoed FadeInMs = %v, want clamped 0", u.FadeInMs)
	}
}

func TestCreateTrackAssignsNextPosition(t *testing.T) {
	m := newTestModel(t, nil)

	i1 := mustApply(t, m, CreateTrack{Name: "Narration", Type: model.TrackNarration})
	i2 := mustApply(t, m, CreateTrack{Name: "Music", Type: model.TrackMusic})

	t1, t2 := i1.CreatedTracks[0], i2.CreatedTracks[0]
	if t1.Position != 0 || t2.Position != 1 {
		t.Errorf("positions = %d, %d, want 0, 1", t1.Position, t2.Position)
	}
	if t1.GainDB != 0 || t1.Muted {
		t.Errorf("new track should be unmuted at unity gain, got gain %v muted %v", t1.GainDB, t1.Muted)
	}
	if t1.ID >= 0 {
		t.Errorf("ID = %d, want a provisional negative id", t1.ID)
	}
}

func TestUpdateTrackFieldsClampsPan(t *testing.T) {
	m := newTestModel(t, nil, testTrack(1, model.TrackNarration))

	pan := 3.5
	intents := mustApply(t, m, UpdateTrackFields{TrackID: 1, Update: model.TrackUpdate{Pan: &pan}})
	if m.TrackByID(1).Pan != 1 {
		t.Errorf("Pan = %v, want clamped 1", m.TrackByID(1).Pan)
	}
	if got := *intents.UpdatedTracks[0].Update.Pan; got != 1 {
		t.Errorf("echoed Pan = %v, want clamped 1", got)
	}
}

func TestDeleteTrackDropsClips(t *testing.T) {
	durs := stubDurations{"asset-a": 10_000}
	m := newTestModel(t, durs, testTrack(1, model.TrackNarration, testClip(10, 0, 0, 1000)))

	intents := mustApply(t, m, DeleteTrack{TrackID: 1})
	if len(intents.DeletedTracks) != 1 || intents.DeletedTracks[0] != 1 {
		t.Fatalf("DeletedTracks = %+v, want [1]", intents.DeletedTracks)
	}
	if c, _ := m.ClipByID(10); c != nil {
		t.Errorf("clip survived its track's deletion")
	}
	if _, err := m.Apply(DeleteTrack{TrackID: 1}); !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("second delete: err = %v, want ErrTrackNotFound", err)
	}
}

func TestSetMarkersClampsNegativePositions(t *testing.T) {
	m := newTestModel(t, nil)

	intents := mustApply(t, m, SetMarkers{Markers: []*model.ChapterMarker{
		{ProjectID: 1, Label: "Chapter 1", PositionMs: -100},
		{ProjectID: 1, Label: "Chapter 2", PositionMs: 90_000},
	}})
	if !intents.MarkersReplaced {
		t.Errorf("MarkersReplaced not set")
	}
	markers := m.Markers()
	if markers[0].PositionMs != 0 {
		t.Errorf("marker position = %d, want clamped 0", markers[0].PositionMs)
	}
}
