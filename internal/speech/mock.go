package speech

import (
	"context"
	"time"
)

type mockSynth struct {
	delay time.Duration
}

// NewMockSynth returns a synthesizer producing a placeholder payload after a
// short delay, used for tests and as the default device backend.
func NewMockSynth() Synthesizer {
	return &mockSynth{delay: 10 * time.Millisecond}
}

func (m *mockSynth) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(m.delay):
	}
	return []byte("audio:" + req.Voice + ":" + req.Text), nil
}
