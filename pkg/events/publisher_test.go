package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEnvelopeSerialization(t *testing.T) {
	data := &TranscriptionCompletedData{
		SegmentID:  1,
		Text:       "hello world",
		Confidence: 0.95,
		Model:      "gpt-4o-transcribe",
	}

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}

	env := Envelope{
		ID:        "test-id",
		Type:      TranscriptionCompleted,
		Source:    "gateway",
		SessionID: "session-123",
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}

	b, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}

	var decoded Envelope
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}

	if decoded.Type != TranscriptionCompleted {
		t.Errorf("type = %q, want %q", decoded.Type, TranscriptionCompleted)
	}
	if decoded.Source != "gateway" {
		t.Errorf("source = %q, want %q", decoded.Source, "gateway")
	}
	if decoded.SessionID != "session-123" {
		t.Errorf("session_id = %q, want %q", decoded.SessionID, "session-123")
	}

	var payload TranscriptionCompletedData
	if err := json.Unmarshal(decoded.Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.SegmentID != 1 {
		t.Errorf("segment_id = %d, want %d", payload.SegmentID, 1)
	}
}

func TestEventTypeConstants(t *testing.T) {
	types := []EventType{
		SessionConnected, SessionDisconnected,
		UtteranceSealed, SegmentMerged, SegmentDispatched,
		TranscriptionCompleted, TranscriptionFailed,
		SegmentSkipped, ModelChanged,
	}

	seen := make(map[EventType]bool)
	for _, et := range types {
		if et == "" {
			t.Error("empty event type constant")
		}
		if seen[et] {
			t.Errorf("duplicate event type: %q", et)
		}
		seen[et] = true
	}
}
