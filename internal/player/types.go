package player

import "time"

// Status is the playback state machine's phase.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusPlaying Status = "playing"
	StatusPaused  Status = "paused"
)

// Cue is the orchestrator's desired state for the audio rendering
// collaborator. Payload carries resolved audio; when UseFallback is set the
// renderer speaks the text through its own on-device voice instead.
type Cue struct {
	Status       Status
	SegmentIndex int
	SegmentID    string
	Text         string
	Voice        string
	Payload      []byte
	UseFallback  bool
}

// Renderer consumes cues and owns the actual sound-producing primitives. It
// reports back through the orchestrator's OnStarted/OnEnded/OnError methods.
// Render may be invoked while the orchestrator holds its state lock and must
// not call back into the orchestrator synchronously.
type Renderer interface {
	Render(cue Cue)
}

// Options carries the voice parameters and tuning knobs for one orchestrator.
type Options struct {
	Voice         string
	Speed         float64
	Locale        string
	PrefetchAhead int
	SynthTimeout  time.Duration
}
