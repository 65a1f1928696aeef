package protocol

import "time"

// Fragment is one positioned run of raw text extracted from a document page.
type Fragment struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	EndsLine bool   `json:"ends_line"`
}

// PageFragments carries one page of extracted fragments from the stream adapter.
type PageFragments struct {
	DocumentID string     `json:"document_id"`
	PageNumber int        `json:"page_number"`
	Fragments  []Fragment `json:"fragments"`
	Final      bool       `json:"final"`
}

// FragmentFraction is the exact substring of one fragment belonging to a segment.
type FragmentFraction struct {
	FragmentID string `json:"fragment_id"`
	Text       string `json:"text"`
}

// SegmentInfo is the wire form of a catalog segment, published for the
// highlighting collaborator after a document is loaded.
type SegmentInfo struct {
	Index       int                `json:"index"`
	ID          string             `json:"id"`
	Text        string             `json:"text"`
	PageNumber  int                `json:"page_number"`
	FragmentIDs []string           `json:"fragment_ids"`
	Fractions   []FragmentFraction `json:"fractions"`
}

// DocumentLoaded announces a freshly assembled segment catalog.
type DocumentLoaded struct {
	DocumentID string        `json:"document_id"`
	Pages      int           `json:"pages"`
	Segments   []SegmentInfo `json:"segments"`
	Timestamp  time.Time     `json:"timestamp"`
}

// PlaybackControl is a user-driven playback command.
type PlaybackControl struct {
	Action string `json:"action"` // play, pause, resume, next, jump, prefetch
	Index  int    `json:"index,omitempty"`
}

// PlaybackCue is the orchestrator's desired state for the audio renderer.
type PlaybackCue struct {
	Status       string `json:"status"`
	SegmentIndex int    `json:"segment_index"`
	SegmentID    string `json:"segment_id,omitempty"`
	Text         string `json:"text,omitempty"`
	Payload      []byte `json:"payload,omitempty"`
	UseFallback  bool   `json:"use_fallback,omitempty"`
	Voice        string `json:"voice,omitempty"`
}

// PlaybackEvent is an asynchronous report from the audio renderer.
type PlaybackEvent struct {
	Type         string `json:"type"` // started, ended, error
	SegmentIndex int    `json:"segment_index"`
	Error        string `json:"error,omitempty"`
}

const (
	SubjectPageFragments   = "document.page"
	SubjectDocumentLoaded  = "document.loaded"
	SubjectPlaybackControl = "playback.control"
	SubjectPlaybackCue     = "playback.cue"
	SubjectPlaybackEvent   = "playback.event"
)
