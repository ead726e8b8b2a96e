//go:build silero

package silerovad

import (
	"context"
	"fmt"
	"sync"

	"github.com/voicetyped/vad-gateway/internal/speech/engine"
	"github.com/voicetyped/vad-gateway/internal/speech/registry"
	ort "github.com/yalue/onnxruntime_go"
)

func init() {
	registry.VAD.Register("silero", func(config map[string]string) (engine.VoiceActivityDetector, error) {
		return newDetector()
	})
}

const (
	// windowSize is the number of float32 samples per inference call. Silero
	// VAD v5 at 16kHz requires exactly 512 samples, which is also the gateway's
	// fixed frame size, so no cross-call buffering is needed.
	windowSize = 512
	stateSize  = 128
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// Detector runs Silero VAD v5 inference via ONNX Runtime. It is not safe for
// concurrent use: a session must own one instance for its lifetime, since the
// RNN hidden state carries across Predict calls.
type Detector struct {
	mu sync.Mutex

	session *ort.AdvancedSession

	inputTensor *ort.Tensor[float32]
	stateTensor *ort.Tensor[float32]
	srTensor    *ort.Tensor[int64]

	outputTensor *ort.Tensor[float32]
	stateNTensor *ort.Tensor[float32]
}

func newDetector() (*Detector, error) {
	if len(modelData) == 0 {
		return nil, fmt.Errorf("silerovad: model data is empty (built without -tags silero?)")
	}

	ortInitOnce.Do(func() {
		libPath, err := resolveORTLibPath()
		if err != nil {
			ortInitErr = fmt.Errorf("resolve ORT lib: %w", err)
			return
		}
		ort.SetSharedLibraryPath(libPath)
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("silerovad: %w", ortInitErr)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, windowSize))
	if err != nil {
		return nil, fmt.Errorf("silerovad: create input tensor: %w", err)
	}
	stateTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(2, 1, stateSize))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("silerovad: create state tensor: %w", err)
	}
	srTensor, err := ort.NewTensor(ort.NewShape(1), []int64{16000})
	if err != nil {
		inputTensor.Destroy()
		stateTensor.Destroy()
		return nil, fmt.Errorf("silerovad: create sample-rate tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		inputTensor.Destroy()
		stateTensor.Destroy()
		srTensor.Destroy()
		return nil, fmt.Errorf("silerovad: create output tensor: %w", err)
	}
	stateNTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(2, 1, stateSize))
	if err != nil {
		inputTensor.Destroy()
		stateTensor.Destroy()
		srTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("silerovad: create stateN tensor: %w", err)
	}

	session, err := ort.NewAdvancedSessionWithONNXData(
		modelData,
		[]string{"input", "state", "sr"},
		[]string{"output", "stateN"},
		[]ort.Value{inputTensor, stateTensor, srTensor},
		[]ort.Value{outputTensor, stateNTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		stateTensor.Destroy()
		srTensor.Destroy()
		outputTensor.Destroy()
		stateNTensor.Destroy()
		return nil, fmt.Errorf("silerovad: create session: %w", err)
	}

	return &Detector{
		session:      session,
		inputTensor:  inputTensor,
		stateTensor:  stateTensor,
		srTensor:     srTensor,
		outputTensor: outputTensor,
		stateNTensor: stateNTensor,
	}, nil
}

func (d *Detector) Predict(ctx context.Context, frame []byte, sampleRate int, threshold float64) (bool, float64, error) {
	if sampleRate != 16000 {
		return false, 0, fmt.Errorf("silerovad: unsupported sample rate %d, want 16000", sampleRate)
	}
	samples := len(frame) / 2
	if samples != windowSize {
		return false, 0, fmt.Errorf("silerovad: frame has %d samples, want %d", samples, windowSize)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	dst := d.inputTensor.GetData()
	for i := 0; i < windowSize; i++ {
		u := uint16(frame[2*i]) | uint16(frame[2*i+1])<<8
		dst[i] = float32(int16(u)) / 32768.0
	}

	if err := d.session.Run(); err != nil {
		return false, 0, fmt.Errorf("silerovad: inference: %w", err)
	}

	prob := float64(d.outputTensor.GetData()[0])
	copy(d.stateTensor.GetData(), d.stateNTensor.GetData())

	return prob >= threshold, prob, nil
}

func (d *Detector) HealthCheck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session == nil {
		return fmt.Errorf("silerovad: session closed")
	}
	return nil
}

// Close releases ONNX Runtime resources. Not part of engine.VoiceActivityDetector;
// the session owner calls it when a connection ends.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session != nil {
		d.session.Destroy()
		d.session = nil
	}
	if d.inputTensor != nil {
		d.inputTensor.Destroy()
		d.inputTensor = nil
	}
	if d.stateTensor != nil {
		d.stateTensor.Destroy()
		d.stateTensor = nil
	}
	if d.srTensor != nil {
		d.srTensor.Destroy()
		d.srTensor = nil
	}
	if d.outputTensor != nil {
		d.outputTensor.Destroy()
		d.outputTensor = nil
	}
	if d.stateNTensor != nil {
		d.stateNTensor.Destroy()
		d.stateNTensor = nil
	}
	return nil
}
