package timeline

import (
	"testing"

	"FableStudio/model"
)

func TestDurationMsFloorAndPadding(t *testing.T) {
	durs := stubDurations{"asset-a": 10_000}
	m := newTestModel(t, durs, testTrack(1, model.TrackNarration))

	if got := m.DurationMs(); got != minTimelineMs {
		t.Errorf("empty timeline duration = %d, want floor %d", got, minTimelineMs)
	}

	// A short clip keeps the floor.
	mustApply(t, m, CreateClip{TrackID: 1, AssetID: "asset-a", PositionMs: 1000})
	if got := m.DurationMs(); got != minTimelineMs {
		t.Errorf("duration = %d, want floor %d", got, minTimelineMs)
	}

	// A clip past the floor extends it with tail padding.
	intents := mustApply(t, m, CreateClip{TrackID: 1, AssetID: "asset-a", PositionMs: 100_000})
	clip := intents.CreatedClips[0]
	if got, want := m.DurationMs(), clip.EndMs()+tailPadMs; got != want {
		t.Errorf("duration = %d, want clip end plus padding %d", got, want)
	}

	// A marker beyond every clip extends it too.
	mustApply(t, m, SetMarkers{Markers: []*model.ChapterMarker{{ProjectID: 1, Label: "end", PositionMs: 400_000}}})
	if got := m.DurationMs(); got != 400_000+tailPadMs {
		t.Errorf("duration = %d, want marker plus padding %d", got, 400_000+tailPadMs)
	}
}

func TestObserversFireAfterApply(t *testing.T) {
	m := newTestModel(t, nil, testTrack(1, model.TrackNarration))

	calls := 0
	unsubscribe := m.Subscribe(func() { calls++ })

	mustApply(t, m, SetPlayhead{PositionMs: 100})
	mustApply(t, m, CreateTrack{Name: "Music", Type: model.TrackMusic})
	if calls != 2 {
		t.Errorf("observer calls = %d, want 2", calls)
	}

	// A failing op notifies nobody.
	if _, err := m.Apply(DeleteTrack{TrackID: 999}); err == nil {
		t.Fatalf("expected an error")
	}
	if calls != 2 {
		t.Errorf("observer fired on a failed apply")
	}

	unsubscribe()
	mustApply(t, m, SetPlayhead{PositionMs: 200})
	if calls != 2 {
		t.Errorf("observer fired after unsubscribe")
	}
}

func TestSetClipIDAndSetTrackID(t *testing.T) {
	durs := stubDurations{"asset-a": 5000}
	m := newTestModel(t, durs)

	trackIntents := mustApply(t, m, CreateTrack{Name: "Narration", Type: model.TrackNarration})
	provTrack := trackIntents.CreatedTracks[0].ID
	clipIntents := mustApply(t, m, CreateClip{TrackID: provTrack, AssetID: "asset-a"})
	provClip := clipIntents.CreatedClips[0].ID

	m.SetTrackID(provTrack, 77)
	if m.TrackByID(77) == nil {
		t.Fatalf("track id not rewritten")
	}
	clip, track := m.ClipByID(provClip)
	if clip == nil {
		t.Fatalf("clip lost during track id rewrite")
	}
	if clip.TrackID != 77 || track.ID != 77 {
		t.Errorf("clip.TrackID = %d on track %d, want 77", clip.TrackID, track.ID)
	}

	m.SetClipID(provClip, 501)
	if c, _ := m.ClipByID(501); c == nil {
		t.Errorf("clip id not rewritten")
	}
}

func TestSnapshotTracksIsDetached(t *testing.T) {
	durs := stubDurations{"asset-a": 5000}
	m := newTestModel(t, durs, testTrack(1, model.TrackNarration, testClip(10, 1000, 0, 3000)))

	snap := m.SnapshotTracks()
	mustApply(t, m, MoveClip{ClipID: 10, DeltaMs: 500})

	if snap[0].Clips[0].PositionMs != 1000 {
		t.Errorf("snapshot moved with the live model")
	}
	live, _ := m.ClipByID(10)
	if live.PositionMs != 1500 {
		t.Errorf("live clip = %d, want 1500", live.PositionMs)
	}
}

func TestAssetDurationFallbackWithoutSource(t *testing.T) {
	m := newTestModel(t, nil, testTrack(1, model.TrackNarration, testClip(10, 0, 0, 2000)))
	clip, _ := m.ClipByID(10)

	// With no duration source the trim end is the only safe bound, so
	// trimming right cannot extend the clip.
	mustApply(t, m, TrimClipRight{ClipID: 10, DeltaMs: 5000})
	if clip.TrimEndMs != 2000 {
		t.Errorf("TrimEndMs = %d, want capped 2000", clip.TrimEndMs)
	}
}
