package engine

import "context"

// TranscriptionResult is the outcome of transcribing one WAV-encoded
// utterance.
type TranscriptionResult struct {
	Text       string
	Confidence float32 // 0 means "backend did not report one"; caller applies the default.
	Language   string
}

// Transcriber turns a single WAV blob into text. Implementations may be
// long-running and externally rate-limited; callers must invoke them off
// the audio goroutine.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte, model string) (TranscriptionResult, error)

	// Models lists the model identifiers this backend accepts.
	Models() []string
}
