// Package dispatch runs transcriptions concurrently while still delivering
// their outcomes to a session in segment_id order.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/voicetyped/vad-gateway/internal/audio"
	"github.com/voicetyped/vad-gateway/internal/speech/engine"
)

// DefaultMinAudioSeconds is used when New is given a non-positive
// minAudioSeconds, matching the spec's documented default.
const DefaultMinAudioSeconds = 0.3

// Pool runs a function asynchronously. github.com/pitabwire/frame/workerpool's
// WorkerPool satisfies this; Dispatcher also accepts a nil Pool and falls
// back to a plain goroutine per segment.
type Pool interface {
	Submit(ctx context.Context, fn func()) error
}

// SegmentSink persists a sealed segment's audio independent of whether it is
// ultimately transcribed or skipped.
type SegmentSink interface {
	Save(clientID string, seg audio.Utterance) error
}

// Outcome is one segment's terminal result, in the shape the wire layer
// turns into transcription_result/transcription_error/transcription_skipped.
type Outcome struct {
	SegmentID       int
	ResultID        string
	Model           string
	DurationSeconds float64

	Skipped   bool
	SkipReason string

	Err error

	Text       string
	Confidence float32
	Language   string
}

// DefaultConfidence is reported when a Transcriber doesn't compute its own
// confidence score.
const DefaultConfidence float32 = 0.95

type slot struct {
	done   chan struct{}
	result Outcome
}

// Dispatcher serializes a single session's transcription outcomes back into
// segment_id order even though the transcriptions themselves run
// concurrently. One Dispatcher belongs to exactly one session.
type Dispatcher struct {
	transcriber     engine.Transcriber
	pool            Pool
	sink            SegmentSink
	clientID        string
	minAudioSamples int
	emit            func(Outcome)

	queue chan *slot
	done  chan struct{}
}

// New creates a Dispatcher for one session. emit is called, in segment_id
// order, once per dispatched segment's outcome. sink may be nil.
// minAudioSeconds is the shortest utterance ever handed to the Transcriber;
// utterances below it are reported skipped without calling out. A
// non-positive value falls back to DefaultMinAudioSeconds.
func New(transcriber engine.Transcriber, pool Pool, sink SegmentSink, clientID string, minAudioSeconds float64, emit func(Outcome)) *Dispatcher {
	if minAudioSeconds <= 0 {
		minAudioSeconds = DefaultMinAudioSeconds
	}
	d := &Dispatcher{
		transcriber:     transcriber,
		pool:            pool,
		sink:            sink,
		clientID:        clientID,
		minAudioSamples: int(audio.SampleRate * minAudioSeconds),
		emit:            emit,
		queue:           make(chan *slot, 64),
		done:            make(chan struct{}),
	}
	go d.drain()
	return d
}

// Dispatch enqueues seg for transcription with model. Enqueue order fixes
// emit order regardless of how long each transcription takes. Must be called
// from the session's single inbound goroutine so enqueue order matches
// segment_id order.
func (d *Dispatcher) Dispatch(ctx context.Context, seg audio.Utterance, model string) {
	s := &slot{done: make(chan struct{})}
	d.queue <- s

	if d.sink != nil {
		if err := d.sink.Save(d.clientID, seg); err != nil {
			// Persistence failures don't block transcription; they're not
			// part of the client-visible contract.
			slog.Warn("segment sink save failed",
				slog.String("client_id", d.clientID),
				slog.Int("segment_id", seg.SegmentID),
				slog.Any("error", err))
		}
	}

	resultID := fmt.Sprintf("%s_%d", d.clientID, seg.SegmentID)
	duration := seg.DurationSeconds()

	run := func() {
		defer close(s.done)

		if seg.Samples() < d.minAudioSamples {
			s.result = Outcome{
				SegmentID:       seg.SegmentID,
				ResultID:        resultID,
				Model:           model,
				DurationSeconds: duration,
				Skipped:         true,
				SkipReason:      "Audio segment too short",
			}
			return
		}

		wav := audio.EncodeWAV(seg.PCM)
		res, err := d.transcriber.Transcribe(ctx, wav, model)
		if err != nil {
			s.result = Outcome{
				SegmentID:       seg.SegmentID,
				ResultID:        resultID,
				Model:           model,
				DurationSeconds: duration,
				Err:             err,
			}
			return
		}

		confidence := res.Confidence
		if confidence == 0 {
			confidence = DefaultConfidence
		}
		s.result = Outcome{
			SegmentID:       seg.SegmentID,
			ResultID:        resultID,
			Model:           model,
			DurationSeconds: duration,
			Text:            res.Text,
			Confidence:      confidence,
			Language:        res.Language,
		}
	}

	if d.pool != nil {
		if err := d.pool.Submit(ctx, run); err != nil {
			go run()
		}
	} else {
		go run()
	}
}

func (d *Dispatcher) drain() {
	defer close(d.done)
	for s := range d.queue {
		<-s.done
		d.emit(s.result)
	}
}

// Close stops accepting new segments and waits for already-enqueued ones to
// drain, up to timeout.
func (d *Dispatcher) Close(timeout time.Duration) {
	close(d.queue)
	select {
	case <-d.done:
	case <-time.After(timeout):
	}
}
