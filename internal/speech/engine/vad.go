package engine

import "context"

// VoiceActivityDetector scores one fixed-size PCM frame. Implementations
// must be safe to call synchronously from the audio goroutine: they should
// not block on network I/O. The production adapter wraps a neural VAD
// model; the mock returns a configured constant probability.
type VoiceActivityDetector interface {
	// Predict scores a single frame. threshold is the configured decision
	// boundary; probability is returned regardless, for observability.
	Predict(ctx context.Context, frame []byte, sampleRate int, threshold float64) (isSpeech bool, probability float64, err error)

	// HealthCheck reports whether the detector is ready to serve Predict
	// calls, e.g. by running one inference against synthetic input.
	HealthCheck(ctx context.Context) error
}
