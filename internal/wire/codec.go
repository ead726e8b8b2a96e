package wire

import (
	"encoding/json"
	"fmt"
	"time"
)

func now() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// DecodeInbound parses a text frame into an Inbound message and validates it.
func DecodeInbound(data []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return Inbound{}, fmt.Errorf("malformed JSON: %w", err)
	}
	switch in.Type {
	case TypeModelSelection:
		if !SupportedModels[in.Model] {
			return Inbound{}, fmt.Errorf("model_selection: unsupported model %q", in.Model)
		}
	default:
		return Inbound{}, fmt.Errorf("unknown message type %q", in.Type)
	}
	return in, nil
}

func EncodeConnectionEstablished(clientID, model string) []byte {
	b, _ := json.Marshal(ConnectionEstablished{
		Type:      TypeConnectionEstablished,
		ClientID:  clientID,
		Message:   "Connected to speech recognition service",
		Model:     model,
		Timestamp: now(),
	})
	return b
}

func EncodeAudioReceived(dataSize, packetCount int) []byte {
	b, _ := json.Marshal(AudioReceived{
		Type:        TypeAudioReceived,
		DataSize:    dataSize,
		PacketCount: packetCount,
		Message:     "Audio data received",
		Timestamp:   now(),
	})
	return b
}

func EncodeStatistics(totalPackets int) []byte {
	b, _ := json.Marshal(Statistics{
		Type:         TypeStatistics,
		TotalPackets: totalPackets,
		Message:      fmt.Sprintf("%d packets received", totalPackets),
		Timestamp:    now(),
	})
	return b
}

func EncodeVADResult(isSpeech bool, confidence float64) []byte {
	b, _ := json.Marshal(VADResult{
		Type:       TypeVADResult,
		IsSpeech:   isSpeech,
		Confidence: confidence,
		Timestamp:  now(),
	})
	return b
}

func EncodeTranscriptionResult(id, text string, confidence float32, segmentID int, modelUsed string) []byte {
	b, _ := json.Marshal(TranscriptionResult{
		Type:       TypeTranscriptionResult,
		ID:         id,
		Text:       text,
		Confidence: confidence,
		IsFinal:    true,
		SegmentID:  segmentID,
		ModelUsed:  modelUsed,
		Timestamp:  now(),
	})
	return b
}

func EncodeTranscriptionError(segmentID int, errMsg, modelUsed string) []byte {
	b, _ := json.Marshal(TranscriptionError{
		Type:      TypeTranscriptionError,
		SegmentID: segmentID,
		Error:     errMsg,
		ModelUsed: modelUsed,
		Timestamp: now(),
	})
	return b
}

func EncodeTranscriptionSkipped(segmentID int, reason string, durationSeconds float64) []byte {
	b, _ := json.Marshal(TranscriptionSkipped{
		Type:            TypeTranscriptionSkipped,
		SegmentID:       segmentID,
		Reason:          reason,
		DurationSeconds: durationSeconds,
		Timestamp:       now(),
	})
	return b
}

func EncodeSegmentMergeError(errMsg string) []byte {
	b, _ := json.Marshal(SegmentMergeError{
		Type:      TypeSegmentMergeError,
		Error:     errMsg,
		Timestamp: now(),
	})
	return b
}

func EncodeError(message string) []byte {
	b, _ := json.Marshal(Error{
		Type:      TypeError,
		Message:   message,
		Timestamp: now(),
	})
	return b
}
