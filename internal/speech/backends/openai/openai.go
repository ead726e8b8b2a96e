// Package openai implements the production Transcriber backend against the
// OpenAI-compatible audio transcription REST API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"

	"github.com/voicetyped/vad-gateway/internal/speech/backends/restutil"
	"github.com/voicetyped/vad-gateway/internal/speech/engine"
	"github.com/voicetyped/vad-gateway/internal/speech/registry"
)

func init() {
	registry.Transcriber.Register("openai", func(config map[string]string) (engine.Transcriber, error) {
		apiKey := config["openai_api_key"]
		if apiKey == "" {
			apiKey = config["api_key"]
		}
		if apiKey == "" {
			return nil, fmt.Errorf("openai transcriber: API key required (set openai_api_key)")
		}
		baseURL := config["openai_base_url"]
		if baseURL == "" {
			baseURL = config["base_url"]
		}
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		return &Transcriber{apiKey: apiKey, baseURL: baseURL}, nil
	})
}

// Transcriber implements engine.Transcriber against /v1/audio/transcriptions.
// It accepts a model name per call rather than fixing one at construction
// time, since the gateway's ClientSession lets a client pick among several
// supported models.
type Transcriber struct {
	apiKey  string
	baseURL string
}

func (t *Transcriber) Transcribe(ctx context.Context, wav []byte, model string) (engine.TranscriptionResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "segment.wav")
	if err != nil {
		return engine.TranscriptionResult{}, fmt.Errorf("openai transcriber: create form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return engine.TranscriptionResult{}, fmt.Errorf("openai transcriber: write form file: %w", err)
	}
	_ = writer.WriteField("model", model)
	_ = writer.WriteField("response_format", "json")
	if err := writer.Close(); err != nil {
		return engine.TranscriptionResult{}, fmt.Errorf("openai transcriber: close form: %w", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + t.apiKey,
		"Content-Type":  writer.FormDataContentType(),
	}

	respBody, err := restutil.DoRaw(ctx, "POST", t.baseURL+"/audio/transcriptions", headers, &body)
	if err != nil {
		return engine.TranscriptionResult{}, fmt.Errorf("openai transcriber: %w", err)
	}
	defer respBody.Close()

	var resp struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(respBody).Decode(&resp); err != nil {
		return engine.TranscriptionResult{}, fmt.Errorf("openai transcriber: decode response: %w", err)
	}

	return engine.TranscriptionResult{Text: resp.Text}, nil
}

func (t *Transcriber) Models() []string {
	return []string{"whisper-1", "gpt-4o-transcribe", "gpt-4o-mini-transcribe"}
}
