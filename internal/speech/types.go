package speech

import "context"

// Request contains parameters to synthesize one segment of speech.
type Request struct {
	Text   string
	Voice  string
	Speed  float64
	Locale string
}

// Synthesizer is the contract for producing an audio payload from text.
// Segments are synthesized whole; the payload encoding is opaque to callers.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}
