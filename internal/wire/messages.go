// Package wire defines the JSON message shapes exchanged over the gateway's
// WebSocket connection and the encode/decode helpers around them.
package wire

// Inbound message types.
const (
	TypeModelSelection = "model_selection"
)

// Outbound message types.
const (
	TypeConnectionEstablished = "connection_established"
	TypeAudioReceived         = "audio_received"
	TypeStatistics            = "statistics"
	TypeVADResult             = "vad_result"
	TypeTranscriptionResult   = "transcription_result"
	TypeTranscriptionError    = "transcription_error"
	TypeTranscriptionSkipped  = "transcription_skipped"
	TypeSegmentMergeError     = "segment_merge_error"
	TypeError                 = "error"
)

// SupportedModels lists the transcription models a client may select.
var SupportedModels = map[string]bool{
	"whisper-1":              true,
	"gpt-4o-transcribe":      true,
	"gpt-4o-mini-transcribe": true,
}

// Inbound is the envelope for any recognized inbound text message.
type Inbound struct {
	Type      string  `json:"type"`
	Model     string  `json:"model,omitempty"`
	Timestamp float64 `json:"timestamp,omitempty"`
}

// ConnectionEstablished is sent right after a connection is accepted, and
// again, carrying the new model, after each accepted model_selection.
type ConnectionEstablished struct {
	Type      string  `json:"type"`
	ClientID  string  `json:"client_id"`
	Message   string  `json:"message"`
	Model     string  `json:"model"`
	Timestamp float64 `json:"timestamp"`
}

// AudioReceived acknowledges one inbound binary audio chunk.
type AudioReceived struct {
	Type        string  `json:"type"`
	DataSize    int     `json:"data_size"`
	PacketCount int     `json:"packet_count"`
	Message     string  `json:"message"`
	Timestamp   float64 `json:"timestamp"`
}

// Statistics is sent every 10th audio chunk.
type Statistics struct {
	Type         string  `json:"type"`
	TotalPackets int     `json:"total_packets"`
	Message      string  `json:"message"`
	Timestamp    float64 `json:"timestamp"`
}

// VADResult reports a single frame's voice-activity decision. Only sent when
// the gateway is configured to emit per-frame VAD events.
type VADResult struct {
	Type       string  `json:"type"`
	IsSpeech   bool    `json:"is_speech"`
	Confidence float64 `json:"confidence"`
	Timestamp  float64 `json:"timestamp"`
}

// TranscriptionResult reports a completed transcription for one segment.
type TranscriptionResult struct {
	Type       string  `json:"type"`
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Confidence float32 `json:"confidence"`
	IsFinal    bool    `json:"is_final"`
	SegmentID  int     `json:"segment_id"`
	ModelUsed  string  `json:"model_used"`
	Timestamp  float64 `json:"timestamp"`
}

// TranscriptionError reports a failed transcription for one segment.
type TranscriptionError struct {
	Type      string  `json:"type"`
	SegmentID int     `json:"segment_id"`
	Error     string  `json:"error"`
	ModelUsed string  `json:"model_used"`
	Timestamp float64 `json:"timestamp"`
}

// TranscriptionSkipped reports that a segment was too short to transcribe.
type TranscriptionSkipped struct {
	Type            string  `json:"type"`
	SegmentID       int     `json:"segment_id"`
	Reason          string  `json:"reason"`
	DurationSeconds float64 `json:"duration_seconds"`
	Timestamp       float64 `json:"timestamp"`
}

// SegmentMergeError reports that the segment merger's ready-channel
// consumer fell behind far enough to cause delivery backpressure.
type SegmentMergeError struct {
	Type      string  `json:"type"`
	Error     string  `json:"error"`
	Timestamp float64 `json:"timestamp"`
}

// Error is a generic protocol-level error report.
type Error struct {
	Type      string  `json:"type"`
	Message   string  `json:"message"`
	Timestamp float64 `json:"timestamp"`
}
