package audio

import (
	"testing"
	"time"
)

func mkUtterance(id int, durationSeconds float64) Utterance {
	samples := int(durationSeconds * SampleRate)
	return Utterance{SegmentID: id, PCM: make([]byte, samples*BytesPerSample), CreatedAt: time.Now()}
}

func recvOrTimeout(t *testing.T, ch <-chan Utterance) Utterance {
	t.Helper()
	select {
	case u := <-ch:
		return u
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a ready segment")
		return Utterance{}
	}
}

func expectNoneWithin(t *testing.T, ch <-chan Utterance, d time.Duration) {
	t.Helper()
	select {
	case u := <-ch:
		t.Fatalf("expected no delivery, got segment_id %d", u.SegmentID)
	case <-time.After(d):
	}
}

func TestMergerDeliversLongSegmentImmediately(t *testing.T) {
	m := NewSegmentMerger(0.8, 2*time.Second, 8)
	m.Offer(mkUtterance(1, 1.0))

	u := recvOrTimeout(t, m.Ready())
	if u.SegmentID != 1 {
		t.Fatalf("expected segment 1, got %d", u.SegmentID)
	}
}

func TestMergerHoldsShortSegmentAndMergesWithSuccessor(t *testing.T) {
	m := NewSegmentMerger(0.8, 2*time.Second, 8)
	m.Offer(mkUtterance(1, 0.2))
	expectNoneWithin(t, m.Ready(), 50*time.Millisecond)

	m.Offer(mkUtterance(2, 1.0))
	u := recvOrTimeout(t, m.Ready())
	if u.SegmentID != 1 {
		t.Fatalf("merged segment must inherit the earlier id, got %d", u.SegmentID)
	}
	wantSamples := int(0.2*SampleRate) + int(1.0*SampleRate)
	if u.Samples() != wantSamples {
		t.Fatalf("expected %d merged samples, got %d", wantSamples, u.Samples())
	}
}

func TestMergerFlushesNonEligiblePredecessorBeforeEvaluatingSuccessor(t *testing.T) {
	m := NewSegmentMerger(0.8, 2*time.Second, 8)
	m.Offer(mkUtterance(1, 1.0)) // long: delivered immediately, not held
	recvOrTimeout(t, m.Ready())

	m.Offer(mkUtterance(2, 0.2)) // short: held
	expectNoneWithin(t, m.Ready(), 50*time.Millisecond)
}

func TestMergerFlushesOnTimeout(t *testing.T) {
	m := NewSegmentMerger(0.8, 80*time.Millisecond, 8)
	m.Offer(mkUtterance(1, 0.2))

	select {
	case u := <-m.Ready():
		if u.SegmentID != 1 {
			t.Fatalf("expected segment 1, got %d", u.SegmentID)
		}
	case <-time.After(time.Second):
		t.Fatal("expected timeout flush")
	}
}

func TestMergerFlushIsIdempotent(t *testing.T) {
	m := NewSegmentMerger(0.8, 2*time.Second, 8)
	m.Flush() // nothing pending: must not panic or deliver
	expectNoneWithin(t, m.Ready(), 20*time.Millisecond)

	m.Offer(mkUtterance(1, 0.2))
	m.Flush()
	recvOrTimeout(t, m.Ready())

	m.Flush() // idempotent: second call with nothing pending is a no-op
	expectNoneWithin(t, m.Ready(), 20*time.Millisecond)
}

func TestMergerCloseDeliversBufferedSegmentBeforeRangeEnds(t *testing.T) {
	m := NewSegmentMerger(0.8, 2*time.Second, 8)
	m.Offer(mkUtterance(1, 0.2)) // held
	m.Flush()                   // buffered into ready before Close
	m.Close()

	var got []int
	for u := range m.Ready() {
		got = append(got, u.SegmentID)
	}
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected exactly segment 1 to be drained before the channel closed, got %v", got)
	}
}

func TestMergerCloseIsIdempotent(t *testing.T) {
	m := NewSegmentMerger(0.8, 2*time.Second, 8)
	m.Close()
	m.Close() // must not panic on a double close
	for range m.Ready() {
	}
}

func TestMergerReportsMergedOnSuccessfulFold(t *testing.T) {
	m := NewSegmentMerger(0.8, 2*time.Second, 8)
	m.Offer(mkUtterance(1, 0.2))
	m.Offer(mkUtterance(2, 1.0))
	recvOrTimeout(t, m.Ready())

	select {
	case info := <-m.Merged():
		if info.SegmentID != 1 || info.DiscardedID != 2 {
			t.Fatalf("unexpected merge info: %+v", info)
		}
		wantSamples := int(0.2*SampleRate) + int(1.0*SampleRate)
		if info.MergedSampleCount != wantSamples {
			t.Fatalf("expected %d merged samples, got %d", wantSamples, info.MergedSampleCount)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a merge notification")
	}
}

func TestMergerDoesNotReportMergedWhenNothingFolds(t *testing.T) {
	m := NewSegmentMerger(0.8, 2*time.Second, 8)
	m.Offer(mkUtterance(1, 1.0)) // long: delivered as-is, no fold
	recvOrTimeout(t, m.Ready())

	select {
	case info := <-m.Merged():
		t.Fatalf("expected no merge notification, got %+v", info)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMergerReportsBackpressureWhenReadyConsumerFallsBehind(t *testing.T) {
	m := NewSegmentMerger(0.8, 2*time.Second, 1)
	m.Offer(mkUtterance(1, 1.0)) // fills the 1-slot ready buffer

	done := make(chan struct{})
	go func() {
		m.Offer(mkUtterance(2, 1.0)) // blocks on ready until drained below
		close(done)
	}()

	select {
	case err := <-m.Errors():
		if err == nil {
			t.Fatal("expected a non-nil backpressure error")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a backpressure report")
	}

	recvOrTimeout(t, m.Ready())
	recvOrTimeout(t, m.Ready())
	<-done
}

func TestMergerRepeatedlyReMergesStillShortResult(t *testing.T) {
	m := NewSegmentMerger(0.8, 2*time.Second, 8)
	m.Offer(mkUtterance(1, 0.2))
	m.Offer(mkUtterance(2, 0.3)) // merged duration 0.5s, still short: held again
	expectNoneWithin(t, m.Ready(), 50*time.Millisecond)

	m.Offer(mkUtterance(3, 1.0))
	u := recvOrTimeout(t, m.Ready())
	if u.SegmentID != 1 {
		t.Fatalf("expected the chain to keep inheriting segment 1, got %d", u.SegmentID)
	}
}
