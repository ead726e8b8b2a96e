package session

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/voicetyped/vad-gateway/internal/audio"
	"github.com/voicetyped/vad-gateway/internal/speech/engine"
	"github.com/voicetyped/vad-gateway/internal/wire"
)

// scriptedVAD returns a pre-programmed sequence of speech/silence decisions,
// one per Predict call, so a test can drive the utterance FSM deterministically.
type scriptedVAD struct {
	mu       sync.Mutex
	decisions []bool
}

func (v *scriptedVAD) Predict(ctx context.Context, frame []byte, sampleRate int, threshold float64) (bool, float64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.decisions) == 0 {
		return false, 0, nil
	}
	d := v.decisions[0]
	v.decisions = v.decisions[1:]
	return d, 0, nil
}

func (v *scriptedVAD) HealthCheck(ctx context.Context) error { return nil }

// echoTranscriber reports back the model it was asked to use, so a test can
// tell which model was captured for which segment without racing on shared
// session state.
type echoTranscriber struct{}

func (echoTranscriber) Transcribe(ctx context.Context, wav []byte, model string) (engine.TranscriptionResult, error) {
	return engine.TranscriptionResult{Text: model, Confidence: 1}, nil
}
func (echoTranscriber) Models() []string { return nil }

type fakeConn struct {
	mu     sync.Mutex
	closed bool
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func speechFrame() []byte { return make([]byte, audio.FrameBytes) }

// framesToSealLongUtterance is enough speech frames that the resulting
// utterance clears the dispatcher's default minimum-audio floor, so it
// reaches a transcriber instead of being reported skipped.
const framesToSealLongUtterance = 10

func longUtteranceAudio(speechFrames int) []byte {
	var data []byte
	for i := 0; i < speechFrames; i++ {
		data = append(data, speechFrame()...)
	}
	return data
}

func vadDecisions(speechFrames int) []bool {
	decisions := make([]bool, speechFrames+1)
	for i := 0; i < speechFrames; i++ {
		decisions[i] = true
	}
	decisions[speechFrames] = false // the sealing silence frame
	return decisions
}

func newTestSession(t *testing.T, vad engine.VoiceActivityDetector) (*Session, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	s := New(
		"client1",
		Options{
			VADSilenceToleranceSeconds: 0, // Hangover clamps to 1 frame
			MinMergeDurationSeconds:    0, // every sealed segment delivers immediately
			MergeTimeoutSeconds:        1,
			VADThreshold:               0.5,
			DefaultModel:               "whisper-1",
		},
		conn,
		echoTranscriber{},
		vad,
		nil, // no worker pool: Dispatcher falls back to a plain goroutine
		nil, // no sink
		16,
		nil, // no event bus
	)
	return s, conn
}

func drainTranscriptionResults(t *testing.T, s *Session, want int) []wire.TranscriptionResult {
	t.Helper()
	results := make([]wire.TranscriptionResult, want)
	for i := range results {
		msg := drainOutbound(t, s, wire.TypeTranscriptionResult)
		if err := json.Unmarshal(msg, &results[i]); err != nil {
			t.Fatalf("unmarshal transcription_result: %v", err)
		}
	}
	return results
}

// drainOutbound reads from the session's send queue until it finds a message
// of wantType, skipping any other message (audio_received, statistics) along
// the way.
func drainOutbound(t *testing.T, s *Session, wantType string) []byte {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-s.SendQueue():
			var env struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(msg, &env); err != nil {
				t.Fatalf("unmarshal outbound envelope: %v", err)
			}
			if env.Type == wantType {
				return msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for outbound message of type %q", wantType)
		}
	}
}

func TestSessionHandleConnectSendsConnectionEstablished(t *testing.T) {
	s, _ := newTestSession(t, &scriptedVAD{})
	s.HandleConnect()

	select {
	case msg := <-s.SendQueue():
		var ce wire.ConnectionEstablished
		if err := json.Unmarshal(msg, &ce); err != nil {
			t.Fatalf("unmarshal connection_established: %v", err)
		}
		if ce.ClientID != "client1" || ce.Model != "whisper-1" {
			t.Fatalf("unexpected connection_established: %+v", ce)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for connection_established")
	}
}

// TestModelCapturedAtSealTimeNotAtDispatchTime is the scenario the dispatch
// path exists to get right: a model_selection arriving between two sealed
// utterances must only affect the later one, even though both utterances are
// transcribed concurrently and may complete out of order.
func TestModelCapturedAtSealTimeNotAtDispatchTime(t *testing.T) {
	vad := &scriptedVAD{decisions: append(
		vadDecisions(framesToSealLongUtterance),
		vadDecisions(framesToSealLongUtterance)...,
	)}
	s, _ := newTestSession(t, vad)

	ctx := context.Background()
	// Utterance 1: enough speech frames then one silence frame seals it,
	// under whisper-1.
	s.HandleAudio(ctx, longUtteranceAudio(framesToSealLongUtterance+1))

	s.HandleText(mustModelSelection(t, "gpt-4o-transcribe"))

	// Utterance 2 should seal under gpt-4o-transcribe.
	s.HandleAudio(ctx, longUtteranceAudio(framesToSealLongUtterance+1))

	results := drainTranscriptionResults(t, s, 2)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	bySegment := map[int]string{}
	for _, r := range results {
		bySegment[r.SegmentID] = r.Text // echoTranscriber echoes the model as Text
	}
	if bySegment[1] != "whisper-1" {
		t.Fatalf("expected segment 1 dispatched with whisper-1, got %q", bySegment[1])
	}
	if bySegment[2] != "gpt-4o-transcribe" {
		t.Fatalf("expected segment 2 dispatched with gpt-4o-transcribe, got %q", bySegment[2])
	}
}

func TestSessionCloseFlushesPendingUtteranceBeforeClosingConn(t *testing.T) {
	vad := &scriptedVAD{decisions: []bool{true}} // enters InSpeech, never seals on its own
	s, conn := newTestSession(t, vad)

	s.HandleAudio(context.Background(), speechFrame())

	if err := s.Close(time.Second); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !conn.isClosed() {
		t.Fatal("expected underlying connection to be closed")
	}

	// The flushed utterance is a single frame, well under the dispatcher's
	// minimum duration, so it surfaces as transcription_skipped rather than
	// a result. What this test checks is that Close does not return until
	// that outcome has already been queued for the transport to send.
	skipped := drainOutbound(t, s, wire.TypeTranscriptionSkipped)
	var ts wire.TranscriptionSkipped
	if err := json.Unmarshal(skipped, &ts); err != nil {
		t.Fatalf("unmarshal transcription_skipped: %v", err)
	}
	if ts.SegmentID != 1 {
		t.Fatalf("expected the flushed utterance to carry segment id 1, got %d", ts.SegmentID)
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	s, conn := newTestSession(t, &scriptedVAD{})
	if err := s.Close(time.Second); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := s.Close(time.Second); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if !conn.isClosed() {
		t.Fatal("expected connection to be closed")
	}
}

func mustModelSelection(t *testing.T, model string) []byte {
	t.Helper()
	b, err := json.Marshal(struct {
		Type  string `json:"type"`
		Model string `json:"model"`
	}{Type: wire.TypeModelSelection, Model: model})
	if err != nil {
		t.Fatalf("marshal model_selection: %v", err)
	}
	return b
}
