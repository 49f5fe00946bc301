package timeline

import (
	"errors"

	"FableStudio/model"
)

// DuplicateGapMs is the gap left between a clip and its duplicate.
const DuplicateGapMs int64 = 100

var (
	ErrTrackNotFound = errors.New("track not found")
	ErrClipNotFound  = errors.New("clip not found")
	ErrTrackLocked   = errors.New("track is locked")
	// ErrSplitOutOfRange is returned when the split point leaves less than
	// the minimum clip duration on either side.
	ErrSplitOutOfRange = errors.New("split offset out of range")
)

// Op is one of the closed set of timeline operations. Every op is a total
// function over the model: out-of-range inputs are clamped to the nearest
// valid value, never rejected. Ops whose recordable method returns true are
// preceded by an undo snapshot.
type Op interface {
	name() string
	recordable() bool
	apply(m *Model) (Intents, error)
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// --- Clip placement ---

// MoveClip shifts a clip along the timeline, clamped at zero.
type MoveClip struct {
	ClipID  int64
	DeltaMs int64
}

func (MoveClip) name() string     { return "move_clip" }
func (MoveClip) recordable() bool { return true }

func (op MoveClip) apply(m *Model) (Intents, error) {
	clip, track := m.ClipByID(op.ClipID)
	if clip == nil {
		return Intents{}, ErrClipNotFound
	}
	if track.Locked {
		return Intents{}, ErrTrackLocked
	}
	applyMove(clip, clip.PositionMs+op.DeltaMs)
	pos := clip.PositionMs
	return Intents{UpdatedClips: []ClipChange{{ClipID: clip.ID, Update: model.ClipUpdate{PositionMs: &pos}}}}, nil
}

func applyMove(clip *model.Clip, newPositionMs int64) {
	clip.PositionMs = maxInt64(0, newPositionMs)
}

// TrimClipLeft moves the clip's audible left edge. The trimmed-in point and
// the timeline position shift together, keeping the right edge fixed.
type TrimClipLeft struct {
	ClipID  int64
	DeltaMs int64
}

func (TrimClipLeft) name() string     { return "trim_clip_left" }
func (TrimClipLeft) recordable() bool { return true }

func (op TrimClipLeft) apply(m *Model) (Intents, error) {
	clip, track := m.ClipByID(op.ClipID)
	if clip == nil {
		return Intents{}, ErrClipNotFound
	}
	if track.Locked {
		return Intents{}, ErrTrackLocked
	}
	applyTrimLeft(clip, op.DeltaMs)
	pos, start := clip.PositionMs, clip.TrimStartMs
	return Intents{UpdatedClips: []ClipChange{{ClipID: clip.ID, Update: model.ClipUpdate{
		PositionMs:  &pos,
		TrimStartMs: &start,
	}}}}, nil
}

func applyTrimLeft(clip *model.Clip, deltaMs int64) {
	// The applied delta is bounded three ways: trim start cannot go below
	// zero, the position cannot go negative, and the clip keeps at least
	// the minimum effective duration.
	lo := -minInt64(clip.TrimStartMs, clip.PositionMs)
	hi := clip.TrimEndMs - model.MinClipMs - clip.TrimStartMs
	applied := clampInt64(deltaMs, lo, hi)
	clip.TrimStartMs += applied
	clip.PositionMs += applied
	clampFades(clip)
}

// TrimClipRight moves the clip's audible right edge; position is unchanged.
type TrimClipRight struct {
	ClipID  int64
	DeltaMs int64
}

func (TrimClipRight) name() string     { return "trim_clip_right" }
func (TrimClipRight) recordable() bool { return true }

func (op TrimClipRight) apply(m *Model) (Intents, error) {
	clip, track := m.ClipByID(op.ClipID)
	if clip == nil {
		return Intents{}, ErrClipNotFound
	}
	if track.Locked {
		return Intents{}, ErrTrackLocked
	}
	applyTrimRight(clip, clip.TrimEndMs+op.DeltaMs, m.assetDurationMs(clip))
	end := clip.TrimEndMs
	return Intents{UpdatedClips: []ClipChange{{ClipID: clip.ID, Update: model.ClipUpdate{TrimEndMs: &end}}}}, nil
}

func applyTrimRight(clip *model.Clip, newTrimEndMs, assetDurationMs int64) {
	floor := clip.TrimStartMs + model.MinClipMs
	clip.TrimEndMs = minInt64(assetDurationMs, maxInt64(floor, newTrimEndMs))
	// An asset shorter than the minimum clip length still cannot shrink the
	// clip below the floor.
	if clip.TrimEndMs < floor {
		clip.TrimEndMs = floor
	}
	clampFades(clip)
}

func clampFades(clip *model.Clip) {
	dur := clip.EffectiveDurationMs()
	clip.FadeInMs = clampInt64(clip.FadeInMs, 0, dur)
	clip.FadeOutMs = clampInt64(clip.FadeOutMs, 0, dur)
}

// SplitClip cuts a clip in two at a local offset measured from the clip's
// timeline start. Both halves share the asset; the cut point is a hard
// edge, so the left half loses its fade-out and the right half its fade-in.
type SplitClip struct {
	ClipID   int64
	OffsetMs int64
}

func (SplitClip) name() string     { return "split_clip" }
func (SplitClip) recordable() bool { return true }

func (op SplitClip) apply(m *Model) (Intents, error) {
	clip, track := m.ClipByID(op.ClipID)
	if clip == nil {
		return Intents{}, ErrClipNotFound
	}
	if track.Locked {
		return Intents{}, ErrTrackLocked
	}

	dur := clip.EffectiveDurationMs()
	if op.OffsetMs <= model.MinClipMs || op.OffsetMs >= dur-model.MinClipMs {
		return Intents{}, ErrSplitOutOfRange
	}

	right := clip.Clone()
	right.ID = m.tempID()
	right.PositionMs = clip.PositionMs + op.OffsetMs
	right.TrimStartMs = clip.TrimStartMs + op.OffsetMs
	right.TrimEndMs = clip.TrimEndMs
	right.FadeInMs = 0

	clip.TrimEndMs = clip.TrimStartMs + op.OffsetMs
	clip.FadeOutMs = 0

	insertClipAfter(track, clip, right)

	leftEnd, leftFadeOut := clip.TrimEndMs, clip.FadeOutMs
	return Intents{
		UpdatedClips: []ClipChange{{ClipID: clip.ID, Update: model.ClipUpdate{
			TrimEndMs: &leftEnd,
			FadeOutMs: &leftFadeOut,
		}}},
		CreatedClips: []*model.Clip{right},
	}, nil
}

func insertClipAfter(track *model.Track, after, clip *model.Clip) {
	for i, c := range track.Clips {
		if c == after {
			track.Clips = append(track.Clips[:i+1], append([]*model.Clip{clip}, track.Clips[i+1:]...)...)
			return
		}
	}
	track.Clips = append(track.Clips, clip)
}

// DuplicateClip places a copy of a clip on the same track, one gap after
// the original's end.
type DuplicateClip struct {
	ClipID int64
}

func (DuplicateClip) name() string     { return "duplicate_clip" }
func (DuplicateClip) recordable() bool { return true }

func (op DuplicateClip) apply(m *Model) (Intents, error) {
	clip, track := m.ClipByID(op.ClipID)
	if clip == nil {
		return Intents{}, ErrClipNotFound
	}
	if track.Locked {
		return Intents{}, ErrTrackLocked
	}

	dup := clip.Clone()
	dup.ID = m.tempID()
	dup.PositionMs = clip.PositionMs + clip.EffectiveDurationMs() + DuplicateGapMs
	insertClipAfter(track, clip, dup)

	return Intents{CreatedClips: []*model.Clip{dup}}, nil
}

// --- Clipboard ---

// CopyClip stores a full copy of a clip in the clipboard slot. The model is
// otherwise untouched, so nothing is recorded or persisted.
type CopyClip struct {
	ClipID int64
}

func (CopyClip) name() string     { return "copy_clip" }
func (CopyClip) recordable() bool { return false }

func (op CopyClip) apply(m *Model) (Intents, error) {
	clip, track := m.ClipByID(op.ClipID)
	if clip == nil {
		return Intents{}, ErrClipNotFound
	}
	m.clipboard = &model.ClipboardEntry{
		Clip:            *clip.Clone(),
		Action:          model.ClipboardCopy,
		SourceTrackType: track.Type,
	}
	return Intents{}, nil
}

// CutClip stores the clipboard entry, then deletes the source clip.
type CutClip struct {
	ClipID int64
}

func (CutClip) name() string     { return "cut_clip" }
func (CutClip) recordable() bool { return true }

func (op CutClip) apply(m *Model) (Intents, error) {
	clip, track := m.ClipByID(op.ClipID)
	if clip == nil {
		return Intents{}, ErrClipNotFound
	}
	if track.Locked {
		return Intents{}, ErrTrackLocked
	}
	m.clipboard = &model.ClipboardEntry{
		Clip:            *clip.Clone(),
		Action:          model.ClipboardCut,
		SourceTrackType: track.Type,
	}
	removeClip(track, clip.ID)
	return Intents{DeletedClips: []int64{clip.ID}}, nil
}

func removeClip(track *model.Track, clipID int64) {
	for i, c := range track.Clips {
		if c.ID == clipID {
			track.Clips = append(track.Clips[:i], track.Clips[i+1:]...)
			return
		}
	}
}

// Paste creates a clip from the clipboard at the current playhead. The
// destination is the first track whose type matches the entry's source
// track, else the first track; with no tracks (or an empty clipboard) the
// paste is a no-op.
type Paste struct{}

func (Paste) name() string     { return "paste" }
func (Paste) recordable() bool { return true }

func (op Paste) apply(m *Model) (Intents, error) {
	entry := m.clipboard
	if entry == nil || len(m.tracks) == 0 {
		return Intents{}, nil
	}

	target := m.tracks[0]
	for _, t := range m.tracks {
		if t.Type == entry.SourceTrackType {
			target = t
			break
		}
	}

	clip := entry.Clip.Clone()
	clip.ID = m.tempID()
	clip.TrackID = target.ID
	clip.PositionMs = m.playhead
	target.Clips = append(target.Clips, clip)

	return Intents{CreatedClips: []*model.Clip{clip}}, nil
}

// --- Clip lifecycle and fields ---

// CreateClip places a new clip referencing an asset. Trim bounds are
// clamped against the asset's known duration.
type CreateClip struct {
	TrackID     int64
	AssetID     string
	SegmentID   string
	PositionMs  int64
	TrimStartMs int64
	TrimEndMs   int64 // zero means the full asset
	GainDB      float64
	FadeInMs    int64
	FadeOutMs   int64
	Notes       string
}

func (CreateClip) name() string     { return "create_clip" }
func (CreateClip) recordable() bool { return true }

func (op CreateClip) apply(m *Model) (Intents, error) {
	track := m.TrackByID(op.TrackID)
	if track == nil {
		return Intents{}, ErrTrackNotFound
	}
	if track.Locked {
		return Intents{}, ErrTrackLocked
	}

	clip := &model.Clip{
		ID:       m.tempID(),
		TrackID:  track.ID,
		AssetID:  op.AssetID,
		GainDB:   op.GainDB,
		Notes:    op.Notes,
		FadeInMs: maxInt64(0, op.FadeInMs),
	}
	if op.SegmentID != "" {
		clip.SegmentID.String = op.SegmentID
		clip.SegmentID.Valid = true
	}

	assetDur := m.assetDurationMs(clip)
	clip.PositionMs = maxInt64(0, op.PositionMs)
	clip.TrimStartMs = clampInt64(op.TrimStartMs, 0, maxInt64(0, assetDur-model.MinClipMs))
	end := op.TrimEndMs
	if end == 0 {
		end = assetDur
	}
	applyTrimRight(clip, end, assetDur)
	clip.FadeOutMs = maxInt64(0, op.FadeOutMs)
	clampFades(clip)

	track.Clips = append(track.Clips, clip)
	return Intents{CreatedClips: []*model.Clip{clip}}, nil
}

// DeleteClip removes a clip from its track.
type DeleteClip struct {
	ClipID int64
}

func (DeleteClip) name() string     { return "delete_clip" }
func (DeleteClip) recordable() bool { return true }

func (op DeleteClip) apply(m *Model) (Intents, error) {
	clip, track := m.ClipByID(op.ClipID)
	if clip == nil {
		return Intents{}, ErrClipNotFound
	}
	if track.Locked {
		return Intents{}, ErrTrackLocked
	}
	removeClip(track, clip.ID)
	return Intents{DeletedClips: []int64{clip.ID}}, nil
}

// UpdateClipFields replaces individual clip fields, clamping values into
// their valid ranges.
type UpdateClipFields struct {
	ClipID int64
	Update model.ClipUpdate
}

func (UpdateClipFields) name() string     { return "update_clip_fields" }
func (UpdateClipFields) recordable() bool { return true }

func (op UpdateClipFields) apply(m *Model) (Intents, error) {
	clip, track := m.ClipByID(op.ClipID)
	if clip == nil {
		return Intents{}, ErrClipNotFound
	}
	if track.Locked {
		return Intents{}, ErrTrackLocked
	}

	u := op.Update
	if u.PositionMs != nil {
		applyMove(clip, *u.PositionMs)
	}
	if u.TrimStartMs != nil {
		applyTrimLeft(clip, *u.TrimStartMs-clip.TrimStartMs)
	}
	if u.TrimEndMs != nil {
		applyTrimRight(clip, *u.TrimEndMs, m.assetDurationMs(clip))
	}
	if u.GainDB != nil {
		clip.GainDB = *u.GainDB
	}
	if u.FadeInMs != nil {
		clip.FadeInMs = maxInt64(0, *u.FadeInMs)
	}
	if u.FadeOutMs != nil {
		clip.FadeOutMs = maxInt64(0, *u.FadeOutMs)
	}
	clampFades(clip)
	if u.Notes != nil {
		clip.Notes = *u.Notes
	}

	// Echo the clamped values back so the store matches the model.
	pos, start, end := clip.PositionMs, clip.TrimStartMs, clip.TrimEndMs
	fadeIn, fadeOut := clip.FadeInMs, clip.FadeOutMs
	gain, notes := clip.GainDB, clip.Notes
	return Intents{UpdatedClips: []ClipChange{{ClipID: clip.ID, Update: model.ClipUpdate{
		PositionMs:  &pos,
		TrimStartMs: &start,
		TrimEndMs:   &end,
		GainDB:      &gain,
		FadeInMs:    &fadeIn,
		FadeOutMs:   &fadeOut,
		Notes:       &notes,
	}}}}, nil
}

// --- Tracks ---

// CreateTrack appends a new track at the next ordering index, unmuted with
// gain 0.
type CreateTrack struct {
	Name  string
	Type  model.TrackType
	Color string
}

func (CreateTrack) name() string     { return "create_track" }
func (CreateTrack) recordable() bool { return true }

func (op CreateTrack) apply(m *Model) (Intents, error) {
	position := 0
	for _, t := range m.tracks {
		if t.Position >= position {
			position = t.Position + 1
		}
	}

	track := &model.Track{
		ID:        m.tempID(),
		ProjectID: m.projectID,
		Name:      op.Name,
		Type:      op.Type,
		Position:  position,
		Color:     op.Color,
		Clips:     []*model.Clip{},
	}
	m.tracks = append(m.tracks, track)
	return Intents{CreatedTracks: []*model.Track{track}}, nil
}

// DeleteTrack removes a track and all of its clips.
type DeleteTrack struct {
	TrackID int64
}

func (DeleteTrack) name() string     { return "delete_track" }
func (DeleteTrack) recordable() bool { return true }

func (op DeleteTrack) apply(m *Model) (Intents, error) {
	for i, t := range m.tracks {
		if t.ID == op.TrackID {
			m.tracks = append(m.tracks[:i], m.tracks[i+1:]...)
			return Intents{DeletedTracks: []int64{t.ID}}, nil
		}
	}
	return Intents{}, ErrTrackNotFound
}

// UpdateTrackFields replaces individual track fields.
type UpdateTrackFields struct {
	TrackID int64
	Update  model.TrackUpdate
}

func (UpdateTrackFields) name() string     { return "update_track_fields" }
func (UpdateTrackFields) recordable() bool { return true }

func (op UpdateTrackFields) apply(m *Model) (Intents, error) {
	track := m.TrackByID(op.TrackID)
	if track == nil {
		return Intents{}, ErrTrackNotFound
	}

	u := op.Update
	if u.Name != nil {
		track.Name = *u.Name
	}
	if u.GainDB != nil {
		track.GainDB = *u.GainDB
	}
	if u.Pan != nil {
		pan := *u.Pan
		if pan < -1 {
			pan = -1
		}
		if pan > 1 {
			pan = 1
		}
		track.Pan = pan
		u.Pan = &pan
	}
	if u.Muted != nil {
		track.Muted = *u.Muted
	}
	if u.Solo != nil {
		track.Solo = *u.Solo
	}
	if u.Locked != nil {
		track.Locked = *u.Locked
	}
	if u.Color != nil {
		track.Color = *u.Color
	}
	return Intents{UpdatedTracks: []TrackChange{{TrackID: track.ID, Update: u}}}, nil
}

// --- Markers, playhead, wholesale replace ---

// SetMarkers replaces the project's full chapter marker set. Markers are
// navigational only and outside the undo history.
type SetMarkers struct {
	Markers []*model.ChapterMarker
}

func (SetMarkers) name() string     { return "set_markers" }
func (SetMarkers) recordable() bool { return false }

func (op SetMarkers) apply(m *Model) (Intents, error) {
	markers := make([]*model.ChapterMarker, 0, len(op.Markers))
	for _, mk := range op.Markers {
		c := *mk
		if c.PositionMs < 0 {
			c.PositionMs = 0
		}
		markers = append(markers, &c)
	}
	m.markers = markers
	return Intents{MarkersReplaced: true}, nil
}

// SetPlayhead seeks the playhead. Pure navigation: never recorded and never
// persisted.
type SetPlayhead struct {
	PositionMs int64
}

func (SetPlayhead) name() string     { return "set_playhead" }
func (SetPlayhead) recordable() bool { return false }

func (op SetPlayhead) apply(m *Model) (Intents, error) {
	m.playhead = maxInt64(0, op.PositionMs)
	return Intents{}, nil
}

// ReplaceTimeline swaps the whole track (and optionally marker) set. Used
// by undo/redo restores and external reloads; those callers mark the
// history to skip recording first, so the swap itself stays out of history.
type ReplaceTimeline struct {
	Tracks  []*model.Track
	Markers []*model.ChapterMarker // nil leaves markers untouched
	Persist bool                   // true when the store must follow (undo/redo restore)
}

func (ReplaceTimeline) name() string     { return "replace_timeline" }
func (ReplaceTimeline) recordable() bool { return true }

func (op ReplaceTimeline) apply(m *Model) (Intents, error) {
	m.tracks = cloneTracks(op.Tracks)
	if op.Markers != nil {
		m.markers = op.Markers
	}
	return Intents{ReplaceAll: op.Persist}, nil
}
