// Package whisper implements a local Transcriber backend intended for
// whisper.cpp bindings. The transcription call itself is a placeholder until
// the cgo bindings are vendored; the pool-sizing and lifecycle plumbing
// around it is real.
package whisper

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/voicetyped/vad-gateway/internal/speech/engine"
	"github.com/voicetyped/vad-gateway/internal/speech/registry"
)

func init() {
	registry.Transcriber.Register("whisper", func(config map[string]string) (engine.Transcriber, error) {
		modelPath := config["model_path"]
		if modelPath == "" {
			if m := config["model"]; m != "" {
				modelPath = "./models/" + m + ".bin"
			} else {
				modelPath = "./models/ggml-base.bin"
			}
		}
		poolSize := 2
		if s := config["pool_size"]; s != "" {
			if v, err := strconv.Atoi(s); err == nil && v > 0 {
				poolSize = v
			}
		}
		return NewTranscriber(modelPath, poolSize), nil
	})
}

// Transcriber runs transcriptions against a local whisper.cpp model. The
// underlying library only supports a bounded number of concurrent inference
// calls per loaded model, so the backend gates access with a pool-sized
// semaphore rather than leaving that to the caller.
type Transcriber struct {
	modelPath string
	sem       chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewTranscriber creates a Whisper transcriber backed by poolSize concurrent
// inference slots.
func NewTranscriber(modelPath string, poolSize int) *Transcriber {
	if poolSize <= 0 {
		poolSize = 2
	}
	return &Transcriber{
		modelPath: modelPath,
		sem:       make(chan struct{}, poolSize),
	}
}

func (t *Transcriber) Transcribe(ctx context.Context, wav []byte, model string) (engine.TranscriptionResult, error) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return engine.TranscriptionResult{}, fmt.Errorf("whisper transcriber: closed")
	}

	select {
	case t.sem <- struct{}{}:
	case <-ctx.Done():
		return engine.TranscriptionResult{}, ctx.Err()
	}
	defer func() { <-t.sem }()

	// Placeholder: the real implementation feeds wav's PCM payload into the
	// whisper.cpp context loaded from t.modelPath.
	return engine.TranscriptionResult{
		Text:       "[whisper transcription placeholder]",
		Confidence: 0,
		Language:   "en",
	}, nil
}

func (t *Transcriber) Models() []string {
	return []string{"ggml-base", "ggml-small", "ggml-medium", "ggml-large-v3"}
}

// Close releases whisper model resources. Not part of engine.Transcriber;
// called directly by anything that constructed this backend outside the
// registry.
func (t *Transcriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}
