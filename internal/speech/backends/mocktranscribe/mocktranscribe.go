// Package mocktranscribe implements a Transcriber backend that returns a
// fixed transcript regardless of input, for use when TESTING is enabled.
package mocktranscribe

import (
	"context"

	"github.com/voicetyped/vad-gateway/internal/speech/engine"
	"github.com/voicetyped/vad-gateway/internal/speech/registry"
)

func init() {
	registry.Transcriber.Register("mock", func(config map[string]string) (engine.Transcriber, error) {
		return &Transcriber{}, nil
	})
}

// Transcriber always returns the same placeholder transcript.
type Transcriber struct{}

func (t *Transcriber) Transcribe(ctx context.Context, wav []byte, model string) (engine.TranscriptionResult, error) {
	return engine.TranscriptionResult{
		Text:       "this is a mock transcription result",
		Confidence: 1,
		Language:   "en",
	}, nil
}

func (t *Transcriber) Models() []string {
	return []string{"mock-model"}
}
