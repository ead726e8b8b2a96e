package events

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of event flowing through the system.
type EventType string

const (
	SessionConnected       EventType = "session.connected"
	SessionDisconnected    EventType = "session.disconnected"
	UtteranceSealed        EventType = "utterance.sealed"
	SegmentMerged          EventType = "segment.merged"
	SegmentDispatched      EventType = "segment.dispatched"
	TranscriptionCompleted EventType = "transcription.completed"
	TranscriptionFailed    EventType = "transcription.failed"
	SegmentSkipped         EventType = "segment.skipped"
	ModelChanged           EventType = "model.changed"
)

// Envelope is the standard event wrapper published to the event bus.
type Envelope struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Source    string            `json:"source"`
	SessionID string            `json:"session_id"`
	Timestamp time.Time         `json:"timestamp"`
	Data      json.RawMessage   `json:"data"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// SessionConnectedData is the payload for session.connected events.
type SessionConnectedData struct {
	ClientID string `json:"client_id"`
	Model    string `json:"model"`
}

// SessionDisconnectedData is the payload for session.disconnected events.
type SessionDisconnectedData struct {
	Reason          string `json:"reason"`
	SegmentsSealed  int    `json:"segments_sealed"`
	DurationMs      int64  `json:"duration_ms"`
}

// UtteranceSealedData is the payload for utterance.sealed events.
type UtteranceSealedData struct {
	SegmentID  int   `json:"segment_id"`
	SampleCount int  `json:"sample_count"`
}

// SegmentMergedData is the payload for segment.merged events.
type SegmentMergedData struct {
	SegmentID       int `json:"segment_id"`
	DiscardedID     int `json:"discarded_id"`
	MergedSampleCount int `json:"merged_sample_count"`
}

// SegmentDispatchedData is the payload for segment.dispatched events.
type SegmentDispatchedData struct {
	SegmentID int    `json:"segment_id"`
	Model     string `json:"model"`
}

// TranscriptionCompletedData is the payload for transcription.completed events.
type TranscriptionCompletedData struct {
	SegmentID  int     `json:"segment_id"`
	Text       string  `json:"text"`
	Confidence float32 `json:"confidence"`
	Model      string  `json:"model"`
}

// TranscriptionFailedData is the payload for transcription.failed events.
type TranscriptionFailedData struct {
	SegmentID int    `json:"segment_id"`
	Error     string `json:"error"`
	Model     string `json:"model"`
}

// SegmentSkippedData is the payload for segment.skipped events.
type SegmentSkippedData struct {
	SegmentID       int     `json:"segment_id"`
	Reason          string  `json:"reason"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// ModelChangedData is the payload for model.changed events.
type ModelChangedData struct {
	PreviousModel string `json:"previous_model"`
	NewModel      string `json:"new_model"`
}
