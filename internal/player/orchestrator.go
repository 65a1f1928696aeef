package player

import (
	"context"
	"log/slog"
	"sync"

	"github.com/imranpollob/document-echo/internal/audiocache"
	"github.com/imranpollob/document-echo/internal/segment"
	"github.com/imranpollob/document-echo/internal/speech"
)

// Orchestrator owns the playback state for one document session: the current
// segment index, the status, and the per-segment fallback marker. All mutation
// goes through its methods. Every asynchronous resolution is tagged with a
// generation; a resolution whose generation no longer matches may still warm
// the cache but must not touch status or index.
type Orchestrator struct {
	cache    *audiocache.Cache
	synth    speech.Synthesizer
	renderer Renderer
	opts     Options
	log      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	catalog       *segment.Catalog
	index         int
	status        Status
	generation    uint64
	resolved      bool
	resolvedAudio []byte
	resolvedFall  bool
}

// NewOrchestrator builds an orchestrator around the preferred synthesizer.
// When the preferred backend fails for a segment, the cue asks the renderer
// to use its own on-device voice for that segment only.
func NewOrchestrator(parent context.Context, cache *audiocache.Cache, synth speech.Synthesizer, renderer Renderer, opts Options, log *slog.Logger) *Orchestrator {
	ctx, cancel := context.WithCancel(parent)
	return &Orchestrator{
		cache:    cache,
		synth:    synth,
		renderer: renderer,
		opts:     opts,
		log:      log.With(slog.String("component", "orchestrator")),
		ctx:      ctx,
		cancel:   cancel,
		status:   StatusIdle,
		index:    -1,
	}
}

// Close stops the orchestrator and waits for in-flight resolutions.
func (o *Orchestrator) Close() {
	o.cancel()
	o.wg.Wait()
}

// Snapshot returns the current status and segment index.
func (o *Orchestrator) Snapshot() (Status, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status, o.index
}

// LoadSegments replaces the catalog wholesale and resets playback state.
// Bumping the generation makes any in-flight resolution from the previous
// catalog inert.
func (o *Orchestrator) LoadSegments(catalog *segment.Catalog) {
	o.mu.Lock()
	o.generation++
	o.catalog = catalog
	o.index = 0
	o.status = StatusIdle
	o.resolved = false
	o.resolvedAudio = nil
	o.resolvedFall = false
	o.mu.Unlock()

	o.renderer.Render(Cue{Status: StatusIdle, SegmentIndex: 0})
	o.log.Info("catalog loaded", slog.Int("segments", catalog.Len()))
}

// PlaySegment selects a segment and resolves its audio. It supersedes any
// previous in-flight resolution; the previous one may still finish writing
// cache entries but can no longer move status or index.
func (o *Orchestrator) PlaySegment(index int) {
	o.mu.Lock()
	seg, ok := o.catalog.At(index)
	if !ok {
		o.mu.Unlock()
		return
	}
	o.generation++
	gen := o.generation
	o.index = index
	o.status = StatusLoading
	o.resolved = false
	o.resolvedAudio = nil
	o.resolvedFall = false
	o.mu.Unlock()

	// A segment with no text must never reach a backend; skip forward.
	if seg.Text == "" {
		o.Next()
		return
	}

	o.renderer.Render(Cue{Status: StatusLoading, SegmentIndex: index, SegmentID: seg.ID, Text: seg.Text, Voice: o.opts.Voice})

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.resolve(gen, index, seg)
	}()
}

func (o *Orchestrator) resolve(gen uint64, index int, seg segment.Segment) {
	ctx, cancel := context.WithTimeout(o.ctx, o.opts.SynthTimeout)
	defer cancel()

	payload, useFallback := o.resolvePayload(ctx, seg.Text)

	o.mu.Lock()
	if o.generation != gen {
		o.mu.Unlock()
		o.log.Debug("discarding stale resolution", slog.Int("segment", index))
		return
	}
	o.resolved = true
	o.resolvedAudio = payload
	o.resolvedFall = useFallback
	// A resolution landing while paused keeps its payload for Resume but
	// must not restart sound output. The playing cue goes out under the
	// state lock, so a concurrent Pause orders strictly after it.
	if o.status != StatusPaused {
		o.status = StatusPlaying
		o.renderer.Render(Cue{
			Status:       StatusPlaying,
			SegmentIndex: index,
			SegmentID:    seg.ID,
			Text:         seg.Text,
			Voice:        o.opts.Voice,
			Payload:      payload,
			UseFallback:  useFallback,
		})
	}
	o.mu.Unlock()

	for i := 1; i <= o.opts.PrefetchAhead; i++ {
		o.PrefetchSegment(index + i)
	}
}

// resolvePayload walks memory tier, durable tier, then the preferred backend.
// A backend failure is recovered by flagging the renderer's fallback voice; it
// is never surfaced as a fatal error.
func (o *Orchestrator) resolvePayload(ctx context.Context, text string) ([]byte, bool) {
	fingerprint := audiocache.Fingerprint(text, o.opts.Voice, o.opts.Speed, o.opts.Locale)
	if payload, ok := o.cache.Get(ctx, fingerprint); ok {
		return payload, false
	}

	payload, err := o.synth.Synthesize(ctx, speech.Request{
		Text:   text,
		Voice:  o.opts.Voice,
		Speed:  o.opts.Speed,
		Locale: o.opts.Locale,
	})
	if err != nil {
		o.log.Warn("synthesis failed, using fallback voice for this segment", slog.String("error", err.Error()))
		return nil, true
	}

	o.cache.Put(ctx, fingerprint, o.opts.Voice, payload)
	return payload, false
}

// Next advances to the following segment, or goes idle at the end of the
// document. The index is left on the last segment so playback can restart.
func (o *Orchestrator) Next() {
	o.mu.Lock()
	next := o.index + 1
	if next < o.catalog.Len() {
		o.mu.Unlock()
		o.PlaySegment(next)
		return
	}
	o.generation++
	o.status = StatusIdle
	index := o.index
	o.mu.Unlock()

	o.renderer.Render(Cue{Status: StatusIdle, SegmentIndex: index})
	o.log.Info("end of document reached", slog.Int("segment", index))
}

// Play starts (or restarts) the current segment, re-resolving its audio.
func (o *Orchestrator) Play() {
	o.mu.Lock()
	index := o.index
	o.mu.Unlock()
	if index < 0 {
		index = 0
	}
	o.PlaySegment(index)
}

// Pause suspends sound output without invalidating the in-flight resolution
// or the cache.
func (o *Orchestrator) Pause() {
	o.mu.Lock()
	if o.status != StatusPlaying && o.status != StatusLoading {
		o.mu.Unlock()
		return
	}
	o.status = StatusPaused
	index := o.index
	o.mu.Unlock()

	o.renderer.Render(Cue{Status: StatusPaused, SegmentIndex: index})
}

// Resume returns from paused to playing when the segment's audio is already
// resolved, or back to loading when the resolution is still in flight. The
// renderer restarts the current sentence.
func (o *Orchestrator) Resume() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status != StatusPaused {
		return
	}
	index := o.index
	seg, _ := o.catalog.At(index)
	if !o.resolved {
		o.status = StatusLoading
		o.renderer.Render(Cue{Status: StatusLoading, SegmentIndex: index, SegmentID: seg.ID, Text: seg.Text, Voice: o.opts.Voice})
		return
	}
	// As in resolve, the playing cue is sent under the state lock so a
	// concurrent Pause orders after it.
	o.status = StatusPlaying
	o.renderer.Render(Cue{
		Status:       StatusPlaying,
		SegmentIndex: index,
		SegmentID:    seg.ID,
		Text:         seg.Text,
		Voice:        o.opts.Voice,
		Payload:      o.resolvedAudio,
		UseFallback:  o.resolvedFall,
	})
}

// PrefetchSegment warms the cache for a future segment. It is best-effort:
// idempotent, silent on failure, and it never touches status or index.
func (o *Orchestrator) PrefetchSegment(index int) {
	o.mu.Lock()
	seg, ok := o.catalog.At(index)
	o.mu.Unlock()
	if !ok || seg.Text == "" {
		return
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ctx, cancel := context.WithTimeout(o.ctx, o.opts.SynthTimeout)
		defer cancel()

		fingerprint := audiocache.Fingerprint(seg.Text, o.opts.Voice, o.opts.Speed, o.opts.Locale)
		if _, ok := o.cache.Get(ctx, fingerprint); ok {
			return
		}
		payload, err := o.synth.Synthesize(ctx, speech.Request{
			Text:   seg.Text,
			Voice:  o.opts.Voice,
			Speed:  o.opts.Speed,
			Locale: o.opts.Locale,
		})
		if err != nil {
			o.log.Debug("prefetch failed", slog.Int("segment", index), slog.String("error", err.Error()))
			return
		}
		o.cache.Put(ctx, fingerprint, o.opts.Voice, payload)
	}()
}

// OnStarted is the renderer's acknowledgment that sound output began.
func (o *Orchestrator) OnStarted(index int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if index == o.index && o.status == StatusLoading {
		o.status = StatusPlaying
	}
}

// OnEnded advances playback when the active segment finished sounding.
// Stale completions for superseded segments are ignored.
func (o *Orchestrator) OnEnded(index int) {
	o.mu.Lock()
	current := o.index
	status := o.status
	o.mu.Unlock()
	if index != current || status != StatusPlaying {
		return
	}
	o.Next()
}

// OnError records a renderer failure. The orchestrator drops to idle with the
// index unchanged, so a user retry through Play or PlaySegment succeeds.
func (o *Orchestrator) OnError(index int, message string) {
	o.log.Warn("renderer reported playback error", slog.Int("segment", index), slog.String("error", message))

	o.mu.Lock()
	if index != o.index || (o.status != StatusPlaying && o.status != StatusLoading) {
		o.mu.Unlock()
		return
	}
	o.generation++
	o.status = StatusIdle
	o.mu.Unlock()

	o.renderer.Render(Cue{Status: StatusIdle, SegmentIndex: index})
}
