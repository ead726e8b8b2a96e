// Package silerovad implements a production VoiceActivityDetector backend
// running the Silero VAD v5 model through ONNX Runtime.
//
// Building with -tags silero links github.com/yalue/onnxruntime_go against a
// locally installed ONNX Runtime shared library and embeds the Silero model
// weights. Building without the tag registers a deterministic stub instead,
// so the rest of the gateway links and runs without the ONNX Runtime
// dependency present.
//
// Each call to registry.VAD.Create("silero", ...) returns an independent
// instance: the underlying model carries per-stream RNN hidden state across
// Predict calls, so one session must never share an instance with another.
package silerovad
