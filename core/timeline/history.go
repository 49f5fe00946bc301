package timeline

import (
	"bytes"
	"encoding/json"

	"FableStudio/logger"
	"FableStudio/model"
)

// MaxHistoryDepth bounds both the undo and the redo stack; the oldest
// snapshot is evicted on overflow.
const MaxHistoryDepth = 50

// snapshot is an opaque serialization of the whole timeline (all tracks and
// their clips) at a point in time.
type snapshot []byte

func takeSnapshot(m *Model) snapshot {
	data, err := json.Marshal(m.Tracks())
	if err != nil {
		// Track/clip structs marshal unconditionally; this cannot happen
		// with well-formed models.
		logger.Error("Failed to serialize timeline snapshot", logger.ErrorField(err))
		return nil
	}
	return data
}

func (s snapshot) restore() ([]*model.Track, error) {
	var tracks []*model.Track
	if err := json.Unmarshal(s, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// History is the per-session undo/redo manager: two bounded snapshot stacks
// over one timeline model. It hooks the model's pre-mutation callback, so
// every recordable operation pushes the state it is about to destroy.
type History struct {
	undo     []snapshot
	redo     []snapshot
	skipNext bool
}

// NewHistory creates a history manager and attaches it to the model.
func NewHistory(m *Model) *History {
	h := &History{}
	m.SetBeforeMutate(func() {
		h.RecordIfChanged(m)
	})
	return h
}

// MarkSkipNext suppresses recording of the next mutation. Used when the
// model is replaced wholesale by an undo/redo restore or an external
// reload, so the restore itself doesn't pollute the history.
func (h *History) MarkSkipNext() {
	h.skipNext = true
}

// RecordIfChanged pushes the model's current state onto the undo stack,
// unless skip-next is set or the state equals the stack top. Any genuinely
// new mutation clears the redo stack.
func (h *History) RecordIfChanged(m *Model) {
	if h.skipNext {
		h.skipNext = false
		return
	}

	snap := takeSnapshot(m)
	if snap == nil {
		return
	}
	if len(h.undo) > 0 && bytes.Equal(h.undo[len(h.undo)-1], snap) {
		return
	}

	h.undo = append(h.undo, snap)
	if len(h.undo) > MaxHistoryDepth {
		h.undo = h.undo[1:]
	}
	h.redo = h.redo[:0]
}

// CanUndo reports whether an undo step is available.
func (h *History) CanUndo() bool {
	return len(h.undo) > 0
}

// CanRedo reports whether a redo step is available.
func (h *History) CanRedo() bool {
	return len(h.redo) > 0
}

// Undo restores the previous timeline state. With an empty stack it is a
// no-op returning false. The restored state is re-persisted by the caller
// via the returned intents.
func (h *History) Undo(m *Model) (Intents, bool) {
	if len(h.undo) == 0 {
		return Intents{}, false
	}

	current := takeSnapshot(m)
	snap := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]

	h.redo = append(h.redo, current)
	if len(h.redo) > MaxHistoryDepth {
		h.redo = h.redo[1:]
	}

	return h.restore(m, snap)
}

// Redo restores the next timeline state; symmetric to Undo.
func (h *History) Redo(m *Model) (Intents, bool) {
	if len(h.redo) == 0 {
		return Intents{}, false
	}

	current := takeSnapshot(m)
	snap := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]

	h.undo = append(h.undo, current)
	if len(h.undo) > MaxHistoryDepth {
		h.undo = h.undo[1:]
	}

	return h.restore(m, snap)
}

func (h *History) restore(m *Model, snap snapshot) (Intents, bool) {
	tracks, err := snap.restore()
	if err != nil {
		logger.Error("Failed to decode timeline snapshot", logger.ErrorField(err))
		return Intents{}, false
	}

	h.MarkSkipNext()
	intents, err := m.Apply(ReplaceTimeline{Tracks: tracks, Persist: true})
	if err != nil {
		logger.Error("Failed to restore timeline snapshot", logger.ErrorField(err))
		return Intents{}, false
	}
	return intents, true
}
