package audio

import "time"

// Utterance is a sealed, contiguous region of speech PCM with a stable id.
type Utterance struct {
	SegmentID int
	PCM       []byte
	CreatedAt time.Time
	Model     string
}

// Samples returns the number of 16-bit samples in the utterance.
func (u Utterance) Samples() int {
	return len(u.PCM) / BytesPerSample
}

// DurationSeconds returns the utterance's playback duration.
func (u Utterance) DurationSeconds() float64 {
	return float64(u.Samples()) / float64(SampleRate)
}
