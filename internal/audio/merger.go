package audio

import (
	"fmt"
	"sync"
	"time"
)

// MergeInfo describes one successful merge of two short utterances into a
// single segment, reported so a session can surface it as an observability
// event. It carries no audio: the merged PCM is delivered separately on
// Ready.
type MergeInfo struct {
	SegmentID         int // the id the merged segment inherited
	DiscardedID       int // the successor id folded into SegmentID
	MergedSampleCount int
}

// pendingEntry is the merger's single owned resource: a held segment plus
// its timer. Replacing it always goes through holdLocked, which creates a
// fresh timer only after the old one has been stopped, so there is never a
// window where two timers could both fire for the same session.
type pendingEntry struct {
	seg        Utterance
	receivedAt time.Time
	timer      *time.Timer
}

// SegmentMerger holds at most one short utterance per session and merges it
// with its immediate successor when the gap between them is small, or
// flushes it on timeout or on the arrival of a non-eligible successor. One
// instance is owned per ClientSession; it is not shared across sessions.
//
// Ready segments are delivered on a channel rather than through a callback.
// A segment can become ready either synchronously, from whatever goroutine
// calls Offer, or asynchronously, from the merge-timeout timer's own
// goroutine; sending into the channel while still holding mu makes the
// relative order of these deliveries match the order the two goroutines
// actually acquired the lock, so a single consumer draining the channel sees
// segments in true segment_id order without a separate synchronization step.
type SegmentMerger struct {
	minMergeDurationSeconds float64
	mergeTimeout            time.Duration
	ready                   chan Utterance
	merged                  chan MergeInfo
	errs                    chan error

	mu        sync.Mutex
	pending   *pendingEntry
	closeOnce sync.Once
}

// NewSegmentMerger creates a merger with the given thresholds. readyBuf sizes
// the ready channel's buffer; it should comfortably exceed the number of
// segments that could become ready between consumer reads.
func NewSegmentMerger(minMergeDurationSeconds float64, mergeTimeout time.Duration, readyBuf int) *SegmentMerger {
	if readyBuf <= 0 {
		readyBuf = 32
	}
	return &SegmentMerger{
		minMergeDurationSeconds: minMergeDurationSeconds,
		mergeTimeout:            mergeTimeout,
		ready:                   make(chan Utterance, readyBuf),
		merged:                  make(chan MergeInfo, readyBuf),
		errs:                    make(chan error, 8),
	}
}

// Ready returns the channel a session's single loop goroutine should drain.
func (m *SegmentMerger) Ready() <-chan Utterance {
	return m.ready
}

// Merged returns the channel of successful-merge notifications, one per
// pair of utterances folded together. Delivery is best-effort: a consumer
// that falls behind misses notifications rather than blocking Offer.
func (m *SegmentMerger) Merged() <-chan MergeInfo {
	return m.merged
}

// Errors returns the channel of merge-delivery backpressure reports: the
// Ready consumer fell behind far enough that a send would have blocked.
// Delivery is best-effort and never blocks Offer; Ready itself still
// guarantees every segment is eventually delivered.
func (m *SegmentMerger) Errors() <-chan error {
	return m.errs
}

// Offer processes one sealed utterance, either holding it, merging it with
// a pending predecessor, or delivering it (and/or its flushed predecessor)
// on the Ready channel.
func (m *SegmentMerger) Offer(u Utterance) {
	var toDeliver []Utterance

	m.mu.Lock()

	if m.pending != nil {
		prev := m.pending
		gap := time.Since(prev.receivedAt)

		if prev.seg.DurationSeconds() < m.minMergeDurationSeconds && gap < m.mergeTimeout {
			prev.timer.Stop()
			m.pending = nil

			merged := Utterance{
				SegmentID: prev.seg.SegmentID, // inherit the earlier id
				PCM:       concatPCM(prev.seg.PCM, u.PCM),
				CreatedAt: prev.seg.CreatedAt,
				Model:     prev.seg.Model, // keep the model captured when the earlier part was sealed
			}

			m.reportMerge(MergeInfo{
				SegmentID:         merged.SegmentID,
				DiscardedID:       u.SegmentID,
				MergedSampleCount: merged.Samples(),
			})

			if merged.DurationSeconds() < m.minMergeDurationSeconds {
				m.holdLocked(merged, prev.receivedAt)
			} else {
				toDeliver = append(toDeliver, merged)
			}

			m.deliverLocked(toDeliver)
			m.mu.Unlock()
			return
		}

		// Non-eligible successor: flush the pending segment, then evaluate
		// u on its own merits below.
		prev.timer.Stop()
		m.pending = nil
		toDeliver = append(toDeliver, prev.seg)
	}

	if u.DurationSeconds() < m.minMergeDurationSeconds {
		m.holdLocked(u, time.Now())
	} else {
		toDeliver = append(toDeliver, u)
	}

	m.deliverLocked(toDeliver)
	m.mu.Unlock()
}

// Flush delivers any pending segment immediately and is idempotent: calling
// it with nothing pending is a no-op. Callers must invoke it exactly once on
// disconnect so a trailing short utterance with no successor still gets a
// chance to be transcribed.
func (m *SegmentMerger) Flush() {
	m.mu.Lock()
	entry := m.pending
	m.pending = nil
	if entry != nil {
		entry.timer.Stop()
		m.deliverLocked([]Utterance{entry.seg})
	}
	m.mu.Unlock()
}

// Close closes the Ready, Merged and Errors channels. Call it only after the
// last Offer/Flush has returned (i.e. once the session's single producer
// goroutine is done); a consumer ranging over Ready still sees every segment
// already buffered before observing the close, so no flushed segment is
// lost.
func (m *SegmentMerger) Close() {
	m.closeOnce.Do(func() {
		close(m.ready)
		close(m.merged)
		close(m.errs)
	})
}

// holdLocked must be called with m.mu held. It installs a new pending entry
// with its own timer; firing delivers the held segment unless it has since
// been replaced or flushed.
func (m *SegmentMerger) holdLocked(u Utterance, receivedAt time.Time) {
	entry := &pendingEntry{seg: u, receivedAt: receivedAt}
	entry.timer = time.AfterFunc(m.mergeTimeout, func() {
		m.mu.Lock()
		if m.pending != entry {
			m.mu.Unlock()
			return
		}
		m.pending = nil
		m.deliverLocked([]Utterance{entry.seg})
		m.mu.Unlock()
	})
	m.pending = entry
}

// deliverLocked sends segs to the ready channel. Must be called with m.mu
// held, so concurrent producers (Offer callers and timer callbacks) enqueue
// in true acquisition order. A full ready channel means the consumer has
// fallen behind; that's reported on Errors before falling back to a
// blocking send, so a slow consumer never causes a segment to be dropped.
func (m *SegmentMerger) deliverLocked(segs []Utterance) {
	for _, s := range segs {
		select {
		case m.ready <- s:
		default:
			m.reportBackpressure(fmt.Errorf("ready channel backpressure on segment_id %d", s.SegmentID))
			m.ready <- s
		}
	}
}

// reportMerge is a best-effort notification: a slow Merged consumer misses
// notifications rather than blocking Offer.
func (m *SegmentMerger) reportMerge(info MergeInfo) {
	select {
	case m.merged <- info:
	default:
	}
}

// reportBackpressure is a best-effort notification: a slow Errors consumer
// misses reports rather than blocking Offer.
func (m *SegmentMerger) reportBackpressure(err error) {
	select {
	case m.errs <- err:
	default:
	}
}

func concatPCM(a, b []byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}
