package registry

import "github.com/voicetyped/vad-gateway/internal/speech/engine"

// VAD is the global voice-activity-detector backend registry.
var VAD = New[engine.VoiceActivityDetector]()
