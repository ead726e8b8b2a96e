// Package config defines the gateway's environment-driven configuration.
package config

import (
	"github.com/pitabwire/frame/config"
)

// GatewayConfig holds all configuration for the VAD transcription gateway.
type GatewayConfig struct {
	config.ConfigurationDefault

	// Audio pipeline tuning. Field names mirror the env vars the original
	// service recognized; values are seconds unless noted otherwise.
	VADSilenceToleranceSeconds float64 `envDefault:"1.5" env:"VAD_SILENCE_TOLERANCE"`
	MinMergeDurationSeconds    float64 `envDefault:"0.8" env:"MIN_MERGE_DURATION_SECONDS"`
	MergeTimeoutSeconds        float64 `envDefault:"2.0" env:"MERGE_TIMEOUT_SECONDS"`
	MinAudioSeconds            float64 `envDefault:"0.3" env:"MIN_AUDIO_SECONDS"`
	VADThreshold               float64 `envDefault:"0.5" env:"VAD_THRESHOLD"`
	VADResultEvents            bool    `envDefault:"false" env:"VAD_RESULT_EVENTS"`

	// Testing swaps in a mock VAD and a mock transcriber, mirroring the
	// original service's TESTING environment switch.
	Testing bool `envDefault:"false" env:"TESTING"`

	// Transcriber backend selection and credentials.
	DefaultASRBackend string `envDefault:"openai"              env:"ASR_BACKEND"`
	DefaultModel      string `envDefault:"gpt-4o-transcribe"   env:"DEFAULT_MODEL"`
	OpenAIAPIKey      string `envDefault:""                    env:"OPENAI_API_KEY"`
	OpenAIBaseURL     string `envDefault:"https://api.openai.com/v1" env:"OPENAI_BASE_URL"`
	DeepgramAPIKey    string `envDefault:""                    env:"DEEPGRAM_API_KEY"`
	WhisperModelPath  string `envDefault:"./models/ggml-base.bin" env:"WHISPER_MODEL_PATH"`
	WhisperPoolSize   int    `envDefault:"2"                   env:"WHISPER_POOL_SIZE"`

	// Segment archival.
	SegmentsDir string `envDefault:"./segments" env:"AUDIO_SEGMENTS_DIR"`

	// Health surface.
	AppVersion  string `envDefault:"dev" env:"APP_VERSION"`
	DatabaseURL string `envDefault:""    env:"DATABASE_URL"`
}
