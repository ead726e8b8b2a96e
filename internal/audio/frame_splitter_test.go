package audio

import "testing"

func TestFrameSplitterYieldsCompleteFramesOnly(t *testing.T) {
	s := NewFrameSplitter()

	frames := s.Push(make([]byte, FrameBytes+100))
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if len(frames[0]) != FrameBytes {
		t.Fatalf("expected frame of %d bytes, got %d", FrameBytes, len(frames[0]))
	}
	if s.Pending() != 100 {
		t.Fatalf("expected 100 leftover bytes, got %d", s.Pending())
	}
}

func TestFrameSplitterCarriesLeftoverAcrossCalls(t *testing.T) {
	s := NewFrameSplitter()

	s.Push(make([]byte, 100))
	if s.Pending() != 100 {
		t.Fatalf("expected 100 pending bytes, got %d", s.Pending())
	}

	frames := s.Push(make([]byte, FrameBytes-100))
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame once buffer fills, got %d", len(frames))
	}
	if s.Pending() != 0 {
		t.Fatalf("expected 0 pending bytes after exact fill, got %d", s.Pending())
	}
}

func TestFrameSplitterNeverDropsBytes(t *testing.T) {
	s := NewFrameSplitter()
	var total int
	var got int

	chunks := [][]byte{
		make([]byte, 300),
		make([]byte, 2000),
		make([]byte, 7),
		make([]byte, FrameBytes*3+1),
	}
	for _, c := range chunks {
		total += len(c)
		for _, f := range s.Push(c) {
			got += len(f)
		}
	}
	got += s.Pending()

	if got != total {
		t.Fatalf("expected all %d bytes accounted for, got %d", total, got)
	}
}

func TestFrameSplitterMultipleFramesInOneChunk(t *testing.T) {
	s := NewFrameSplitter()
	frames := s.Push(make([]byte, FrameBytes*3))
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
}
