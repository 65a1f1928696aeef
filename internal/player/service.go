package player

import (
	"encoding/json"
	"log/slog"

	"github.com/imranpollob/document-echo/internal/bus"
	"github.com/imranpollob/document-echo/internal/protocol"
	"github.com/nats-io/nats.go"
)

// Service is the bus-facing shell around the orchestrator. Control commands
// and renderer events arrive over NATS; the orchestrator itself stays free of
// transport concerns.
type Service struct {
	bus        *bus.Client
	orch       *Orchestrator
	logger     *slog.Logger
	subControl *nats.Subscription
	subEvents  *nats.Subscription
}

func NewService(busClient *bus.Client, orch *Orchestrator, log *slog.Logger) *Service {
	return &Service{
		bus:    busClient,
		orch:   orch,
		logger: log.With(slog.String("component", "player-service")),
	}
}

func (s *Service) Start() error {
	sub, err := s.bus.Conn().Subscribe(protocol.SubjectPlaybackControl, s.handleControl)
	if err != nil {
		return err
	}
	s.subControl = sub

	subEvents, err := s.bus.Conn().Subscribe(protocol.SubjectPlaybackEvent, s.handleEvent)
	if err != nil {
		s.subControl.Drain()
		return err
	}
	s.subEvents = subEvents
	return nil
}

func (s *Service) Close() {
	if s.subControl != nil {
		_ = s.subControl.Drain()
	}
	if s.subEvents != nil {
		_ = s.subEvents.Drain()
	}
}

func (s *Service) Healthy() bool {
	return s.subControl != nil && s.subEvents != nil
}

func (s *Service) handleControl(msg *nats.Msg) {
	var control protocol.PlaybackControl
	if err := json.Unmarshal(msg.Data, &control); err != nil {
		s.logger.Warn("failed to decode playback control", slogError(err))
		return
	}

	switch control.Action {
	case "play":
		s.orch.Play()
	case "pause":
		s.orch.Pause()
	case "resume":
		s.orch.Resume()
	case "next":
		s.orch.Next()
	case "jump":
		s.orch.PlaySegment(control.Index)
	case "prefetch":
		s.orch.PrefetchSegment(control.Index)
	default:
		s.logger.Warn("unknown playback action", slog.String("action", control.Action))
	}
}

func (s *Service) handleEvent(msg *nats.Msg) {
	var event protocol.PlaybackEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.logger.Warn("failed to decode playback event", slogError(err))
		return
	}

	switch event.Type {
	case "started":
		s.orch.OnStarted(event.SegmentIndex)
	case "ended":
		s.orch.OnEnded(event.SegmentIndex)
	case "error":
		s.orch.OnError(event.SegmentIndex, event.Error)
	default:
		s.logger.Warn("unknown playback event", slog.String("type", event.Type))
	}
}

// BusRenderer forwards orchestrator cues to the audio rendering collaborator
// over the bus.
type BusRenderer struct {
	bus    *bus.Client
	logger *slog.Logger
}

func NewBusRenderer(busClient *bus.Client, log *slog.Logger) *BusRenderer {
	return &BusRenderer{
		bus:    busClient,
		logger: log.With(slog.String("component", "bus-renderer")),
	}
}

func (r *BusRenderer) Render(cue Cue) {
	packet := protocol.PlaybackCue{
		Status:       string(cue.Status),
		SegmentIndex: cue.SegmentIndex,
		SegmentID:    cue.SegmentID,
		Text:         cue.Text,
		Payload:      cue.Payload,
		UseFallback:  cue.UseFallback,
		Voice:        cue.Voice,
	}
	data, err := json.Marshal(packet)
	if err != nil {
		r.logger.Warn("failed to marshal playback cue", slogError(err))
		return
	}
	if err := r.bus.Conn().Publish(protocol.SubjectPlaybackCue, data); err != nil {
		r.logger.Warn("failed to publish playback cue", slogError(err))
	}
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
