// Package session owns per-connection state: the audio pipeline
// (FrameSplitter → UtteranceStateMachine → SegmentMerger → Dispatcher) and
// the outbound event queue a transport pump drains.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/voicetyped/vad-gateway/internal/audio"
	"github.com/voicetyped/vad-gateway/internal/dispatch"
	"github.com/voicetyped/vad-gateway/internal/speech/engine"
	"github.com/voicetyped/vad-gateway/internal/wire"
	"github.com/voicetyped/vad-gateway/pkg/events"
)

// Conn is the minimal transport surface a Session needs. A gorilla/websocket
// connection wrapper implements this; tests can fake it.
type Conn interface {
	Close() error
}

// Options configures the audio pipeline thresholds for one session. Values
// come from GatewayConfig.
type Options struct {
	VADSilenceToleranceSeconds float64
	MinMergeDurationSeconds    float64
	MergeTimeoutSeconds        float64
	MinAudioSeconds            float64
	VADThreshold               float64
	EmitVADResults             bool
	DefaultModel               string
}

// Session is one live connection's worth of state. One goroutine (the
// transport's readPump) drives HandleAudio and HandleText; Session itself
// starts goroutines to drain the merger's Ready, Merged and Errors channels,
// since ready segments can also arrive from the merger's own timeout timer.
type Session struct {
	ClientID    string
	connectedAt time.Time

	opts Options

	splitter *audio.FrameSplitter
	fsm      *audio.UtteranceStateMachine
	merger   *audio.SegmentMerger

	vad engine.VoiceActivityDetector

	mu    sync.Mutex
	model string

	packetCount    int
	segmentsSealed int

	conn      Conn
	sendQueue chan []byte
	closeOnce sync.Once

	dispatcher  *dispatch.Dispatcher
	readyDone   chan struct{}
	mergedDone  chan struct{}
	errDone     chan struct{}
	cancelDrain context.CancelFunc

	pub *events.Publisher // nil when no event bus is configured
}

// New creates a Session wired to transcriber and (optionally) vad and sink.
// sendQueueSize bounds how many outbound messages may be buffered before the
// transport's write pump falls behind.
func New(
	clientID string,
	opts Options,
	conn Conn,
	transcriber engine.Transcriber,
	vad engine.VoiceActivityDetector,
	pool dispatch.Pool,
	sink dispatch.SegmentSink,
	sendQueueSize int,
	pub *events.Publisher,
) *Session {
	if opts.DefaultModel == "" {
		opts.DefaultModel = "gpt-4o-transcribe"
	}
	hangover := audio.Hangover(opts.VADSilenceToleranceSeconds)

	s := &Session{
		ClientID:    clientID,
		connectedAt: time.Now(),
		opts:        opts,
		splitter:    audio.NewFrameSplitter(),
		fsm:         audio.NewUtteranceStateMachine(hangover),
		merger:      audio.NewSegmentMerger(opts.MinMergeDurationSeconds, time.Duration(opts.MergeTimeoutSeconds*float64(time.Second)), 32),
		vad:         vad,
		model:       opts.DefaultModel,
		conn:        conn,
		sendQueue:   make(chan []byte, sendQueueSize),
		readyDone:   make(chan struct{}),
		mergedDone:  make(chan struct{}),
		errDone:     make(chan struct{}),
		pub:         pub,
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancelDrain = cancel

	s.dispatcher = dispatch.New(transcriber, pool, sink, clientID, opts.MinAudioSeconds, s.emitOutcome)

	go s.drainReady(ctx)
	go s.drainMerged(ctx)
	go s.drainMergeErrors(ctx)

	return s
}

// emitEvent publishes to the event bus if one is configured. Failures are
// logged, not surfaced: the event bus is an observability side channel, not
// part of the client-visible protocol.
func (s *Session) emitEvent(eventType events.EventType, data interface{}) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Emit(context.Background(), eventType, s.ClientID, data); err != nil {
		slog.WarnContext(context.Background(), "event publish failed",
			slog.String("client_id", s.ClientID), slog.String("event_type", string(eventType)), slog.Any("error", err))
	}
}

// CurrentModel returns the session's active transcription model.
func (s *Session) CurrentModel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// SetModel updates the session's active model for segments sealed from now
// on. Already-sealed (or already-dispatched) segments are unaffected, since
// each Utterance captures its model at seal time.
func (s *Session) SetModel(model string) {
	s.mu.Lock()
	s.model = model
	s.mu.Unlock()
}

// Send enqueues an outbound text message. Never blocks indefinitely: if the
// queue is full the message is dropped and logged, matching the transport's
// backpressure policy for a slow client.
func (s *Session) Send(data []byte) {
	select {
	case s.sendQueue <- data:
	default:
		slog.Warn("dropping outbound message, send queue full", slog.String("client_id", s.ClientID))
	}
}

// SendQueue exposes the outbound channel for a transport write pump to drain.
func (s *Session) SendQueue() <-chan []byte {
	return s.sendQueue
}

// HandleConnect emits connection_established.
func (s *Session) HandleConnect() {
	model := s.CurrentModel()
	s.Send(wire.EncodeConnectionEstablished(s.ClientID, model))
	s.emitEvent(events.SessionConnected, events.SessionConnectedData{ClientID: s.ClientID, Model: model})
}

// HandleText processes one inbound text (JSON) message.
func (s *Session) HandleText(data []byte) {
	in, err := wire.DecodeInbound(data)
	if err != nil {
		s.Send(wire.EncodeError(err.Error()))
		return
	}

	switch in.Type {
	case wire.TypeModelSelection:
		previous := s.CurrentModel()
		s.SetModel(in.Model)
		// Echoes connection_established, matching model_selection's role as
		// the connection-time model handshake rather than a bare ack.
		s.Send(wire.EncodeConnectionEstablished(s.ClientID, in.Model))
		if previous != in.Model {
			s.emitEvent(events.ModelChanged, events.ModelChangedData{PreviousModel: previous, NewModel: in.Model})
		}
	}
}

// HandleAudio processes one inbound binary (PCM) message: splits it into
// fixed-size frames, runs VAD and the utterance FSM over each, and offers
// any sealed utterance to the merger.
func (s *Session) HandleAudio(ctx context.Context, data []byte) {
	s.packetCount++
	s.Send(wire.EncodeAudioReceived(len(data), s.packetCount))
	if s.packetCount%10 == 0 {
		s.Send(wire.EncodeStatistics(s.packetCount))
	}

	for _, frame := range s.splitter.Push(data) {
		isSpeech, confidence := s.classify(ctx, frame)
		if s.opts.EmitVADResults {
			s.Send(wire.EncodeVADResult(isSpeech, confidence))
		}

		if u, ok := s.fsm.Push(frame, isSpeech); ok {
			u.Model = s.CurrentModel()
			s.segmentsSealed++
			s.emitEvent(events.UtteranceSealed, events.UtteranceSealedData{SegmentID: u.SegmentID, SampleCount: u.Samples()})
			s.merger.Offer(u)
		}
	}
}

func (s *Session) classify(ctx context.Context, frame []byte) (bool, float64) {
	if s.vad == nil {
		return false, 0
	}
	isSpeech, confidence, err := s.vad.Predict(ctx, frame, audio.SampleRate, s.opts.VADThreshold)
	if err != nil {
		slog.ErrorContext(ctx, "vad predict failed", slog.String("client_id", s.ClientID), slog.Any("error", err))
		return false, 0
	}
	return isSpeech, confidence
}

// drainReady reads segments the merger has decided are ready (whether
// delivered synchronously from HandleAudio's goroutine or asynchronously
// from the merger's own timeout timer) and hands each to the dispatcher, in
// the order the merger produced them. It runs until the merger's Ready
// channel is closed, which Close guarantees only happens after every
// buffered segment (including one flushed at disconnect) has been drained,
// so nothing offered during the session's lifetime is ever skipped.
func (s *Session) drainReady(ctx context.Context) {
	defer close(s.readyDone)
	for u := range s.merger.Ready() {
		s.emitEvent(events.SegmentDispatched, events.SegmentDispatchedData{SegmentID: u.SegmentID, Model: u.Model})
		s.dispatcher.Dispatch(ctx, u, u.Model)
	}
}

// drainMerged reads successful-merge notifications and surfaces each as a
// segment.merged event. Best-effort: the merger drops notifications itself
// if this goroutine falls behind, so it never blocks HandleAudio.
func (s *Session) drainMerged(ctx context.Context) {
	defer close(s.mergedDone)
	for info := range s.merger.Merged() {
		s.emitEvent(events.SegmentMerged, events.SegmentMergedData{
			SegmentID:         info.SegmentID,
			DiscardedID:       info.DiscardedID,
			MergedSampleCount: info.MergedSampleCount,
		})
	}
}

// drainMergeErrors reads merge-delivery backpressure reports and forwards
// each to the client as segment_merge_error. Best-effort, same as
// drainMerged: the merger drops reports once its Errors buffer is full, but
// a dropped report never means a segment was lost.
func (s *Session) drainMergeErrors(ctx context.Context) {
	defer close(s.errDone)
	for err := range s.merger.Errors() {
		s.Send(wire.EncodeSegmentMergeError(err.Error()))
		slog.WarnContext(ctx, "segment merge backpressure", slog.String("client_id", s.ClientID), slog.Any("error", err))
	}
}

func (s *Session) emitOutcome(o dispatch.Outcome) {
	switch {
	case o.Skipped:
		s.Send(wire.EncodeTranscriptionSkipped(o.SegmentID, o.SkipReason, o.DurationSeconds))
		s.emitEvent(events.SegmentSkipped, events.SegmentSkippedData{SegmentID: o.SegmentID, Reason: o.SkipReason, DurationSeconds: o.DurationSeconds})
	case o.Err != nil:
		s.Send(wire.EncodeTranscriptionError(o.SegmentID, o.Err.Error(), o.Model))
		s.emitEvent(events.TranscriptionFailed, events.TranscriptionFailedData{SegmentID: o.SegmentID, Error: o.Err.Error(), Model: o.Model})
	default:
		s.Send(wire.EncodeTranscriptionResult(o.ResultID, o.Text, o.Confidence, o.SegmentID, o.Model))
		s.emitEvent(events.TranscriptionCompleted, events.TranscriptionCompletedData{SegmentID: o.SegmentID, Text: o.Text, Confidence: o.Confidence, Model: o.Model})
	}
}

// Close flushes any pending segment (so a trailing short utterance still
// gets a chance to be transcribed), stops the ready-drain goroutine once
// it's been given a chance to process that flush, and closes the transport.
// Always follows the same flush-then-remove path regardless of whether the
// disconnect was graceful or abrupt.
func (s *Session) Close(drainTimeout time.Duration) error {
	var closeErr error
	s.closeOnce.Do(func() {
		if u, ok := s.fsm.Flush(); ok {
			u.Model = s.CurrentModel()
			s.segmentsSealed++
			s.merger.Offer(u)
		}
		s.merger.Flush()
		s.merger.Close()
		<-s.readyDone  // drainReady has issued every Dispatch call by now
		<-s.mergedDone
		<-s.errDone

		s.dispatcher.Close(drainTimeout)
		s.cancelDrain()

		s.emitEvent(events.SessionDisconnected, events.SessionDisconnectedData{
			Reason:         "connection closed",
			SegmentsSealed: s.segmentsSealed,
			DurationMs:     time.Since(s.connectedAt).Milliseconds(),
		})

		closeErr = s.conn.Close()
	})
	return closeErr
}
