package audio

const (
	// SampleRate is the only input sample rate this pipeline accepts.
	SampleRate = 16000
	// BytesPerSample is fixed by the 16-bit little-endian PCM contract.
	BytesPerSample = 2
	// FrameSamples is the VAD window size in samples (32ms at 16kHz).
	FrameSamples = 512
	// FrameBytes is FrameSamples expressed in bytes.
	FrameBytes = FrameSamples * BytesPerSample
)

// FrameSplitter accumulates raw PCM bytes and yields fixed-size VAD frames,
// carrying any leftover bytes forward to the next call. It has no
// synchronization of its own: exactly one goroutine per session may call
// Push.
type FrameSplitter struct {
	buf []byte
}

// NewFrameSplitter returns an empty splitter.
func NewFrameSplitter() *FrameSplitter {
	return &FrameSplitter{}
}

// Push appends data to the internal buffer and returns every complete
// FrameBytes-sized frame that can be carved out of it. Each returned frame
// is a fresh copy; the caller may retain it indefinitely.
func (s *FrameSplitter) Push(data []byte) [][]byte {
	s.buf = append(s.buf, data...)

	var frames [][]byte
	offset := 0
	for len(s.buf)-offset >= FrameBytes {
		frame := make([]byte, FrameBytes)
		copy(frame, s.buf[offset:offset+FrameBytes])
		frames = append(frames, frame)
		offset += FrameBytes
	}

	if offset > 0 {
		remaining := len(s.buf) - offset
		copy(s.buf, s.buf[offset:])
		s.buf = s.buf[:remaining]
	}

	return frames
}

// Pending returns the number of leftover bytes not yet forming a full frame.
func (s *FrameSplitter) Pending() int {
	return len(s.buf)
}
