package model

// ClipboardAction records whether a clipboard entry came from copy or cut.
type ClipboardAction string

const (
	ClipboardCopy ClipboardAction = "copy"
	ClipboardCut  ClipboardAction = "cut"
)

// ClipboardEntry is the single transient clipboard slot. It holds a full
// copy of one clip plus the type of the track it came from, which picks a
// compatible destination track on paste. Never persisted.
type ClipboardEntry struct {
	Clip            Clip            `json:"clip"`
	Action          ClipboardAction `json:"action"`
	SourceTrackType TrackType       `json:"sourceTrackType"`
}
