package audio

import (
	"math"
	"time"
)

// State is one of the two states of the utterance FSM.
type State int

const (
	Idle State = iota
	InSpeech
)

func (s State) String() string {
	if s == InSpeech {
		return "in_speech"
	}
	return "idle"
}

// Hangover computes H, the number of consecutive silence frames tolerated
// inside an utterance before it is sealed.
func Hangover(silenceToleranceSeconds float64) int {
	framesPerSecond := float64(SampleRate) / float64(FrameSamples)
	return int(math.Ceil(silenceToleranceSeconds * framesPerSecond))
}

// UtteranceStateMachine is a two-state hysteretic FSM that turns a stream of
// per-frame speech/silence decisions into sealed Utterance values. A single
// goroutine per session owns it; it holds no locks.
type UtteranceStateMachine struct {
	hangover int

	state             State
	buf               []byte
	consecutiveSilence int
	segmentCounter    int
}

// NewUtteranceStateMachine creates an FSM with the given hangover threshold
// (see Hangover).
func NewUtteranceStateMachine(hangover int) *UtteranceStateMachine {
	if hangover < 1 {
		hangover = 1
	}
	return &UtteranceStateMachine{hangover: hangover, state: Idle}
}

// Push feeds one frame's VAD decision to the FSM. It returns a sealed
// Utterance when the frame causes one, and ok=true in that case.
func (m *UtteranceStateMachine) Push(frame []byte, isSpeech bool) (u Utterance, ok bool) {
	switch m.state {
	case Idle:
		if isSpeech {
			m.state = InSpeech
			m.consecutiveSilence = 0
			m.buf = append(m.buf[:0], frame...)
		}
		return Utterance{}, false

	case InSpeech:
		m.buf = append(m.buf, frame...)
		if isSpeech {
			m.consecutiveSilence = 0
			return Utterance{}, false
		}

		m.consecutiveSilence++
		if m.consecutiveSilence < m.hangover {
			return Utterance{}, false
		}

		return m.seal(), true
	}

	return Utterance{}, false
}

// Flush seals any in-progress utterance. Called on session close; returns
// ok=false if the FSM was idle.
func (m *UtteranceStateMachine) Flush() (u Utterance, ok bool) {
	if m.state != InSpeech || len(m.buf) == 0 {
		m.reset()
		return Utterance{}, false
	}
	return m.seal(), true
}

func (m *UtteranceStateMachine) seal() Utterance {
	m.segmentCounter++
	u := Utterance{
		SegmentID: m.segmentCounter,
		PCM:       append([]byte(nil), m.buf...),
		CreatedAt: time.Now(),
	}
	m.reset()
	return u
}

func (m *UtteranceStateMachine) reset() {
	m.state = Idle
	m.buf = nil
	m.consecutiveSilence = 0
}

// State reports the FSM's current state, for observability only.
func (m *UtteranceStateMachine) State() State {
	return m.state
}
