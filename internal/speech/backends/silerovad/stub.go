//go:build !silero

package silerovad

import (
	"context"

	"github.com/voicetyped/vad-gateway/internal/speech/engine"
	"github.com/voicetyped/vad-gateway/internal/speech/registry"
)

func init() {
	registry.VAD.Register("silero", func(config map[string]string) (engine.VoiceActivityDetector, error) {
		return &stubDetector{}, nil
	})
}

// stubDetector toggles speech/silence every stubToggleInterval calls. It
// stands in for the real ONNX-backed detector in builds without -tags silero,
// so the gateway links without the ONNX Runtime dependency.
const stubToggleInterval = 50

type stubDetector struct {
	counter  int
	speaking bool
}

func (d *stubDetector) Predict(ctx context.Context, frame []byte, sampleRate int, threshold float64) (bool, float64, error) {
	d.counter++
	if d.counter >= stubToggleInterval {
		d.counter = 0
		d.speaking = !d.speaking
	}
	return d.speaking, 0.42, nil
}

func (d *stubDetector) HealthCheck(ctx context.Context) error {
	return nil
}
