//go:build silero

package silerovad

import (
	_ "embed"
)

// modelData contains the Silero VAD v5 ONNX model embedded at build time.
//
// The model file must exist at internal/speech/backends/silerovad/silero_vad.onnx
// (the ~2MB Silero VAD v5 ONNX model) before compiling with -tags silero:
//
//	go build -tags silero ./...
//
//go:embed silero_vad.onnx
var modelData []byte
