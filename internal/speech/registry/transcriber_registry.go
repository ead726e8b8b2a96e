package registry

import "github.com/voicetyped/vad-gateway/internal/speech/engine"

// Transcriber is the global transcription backend registry.
var Transcriber = New[engine.Transcriber]()
