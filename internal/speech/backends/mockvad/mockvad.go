// Package mockvad implements a VoiceActivityDetector backend that returns a
// fixed probability regardless of input, for use when TESTING is enabled.
package mockvad

import (
	"context"
	"strconv"

	"github.com/voicetyped/vad-gateway/internal/speech/engine"
	"github.com/voicetyped/vad-gateway/internal/speech/registry"
)

func init() {
	registry.VAD.Register("mock", func(config map[string]string) (engine.VoiceActivityDetector, error) {
		prob := 0.8
		if s := config["fixed_probability"]; s != "" {
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				prob = v
			}
		}
		return &Detector{fixedProbability: prob}, nil
	})
}

// Detector always reports the same speech probability.
type Detector struct {
	fixedProbability float64
}

func (d *Detector) Predict(ctx context.Context, frame []byte, sampleRate int, threshold float64) (bool, float64, error) {
	if len(frame) == 0 {
		return false, 0, nil
	}
	return d.fixedProbability > threshold, d.fixedProbability, nil
}

func (d *Detector) HealthCheck(ctx context.Context) error {
	return nil
}
