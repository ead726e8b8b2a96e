// Package deepgram implements a secondary Transcriber backend against the
// Deepgram REST transcription API.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/voicetyped/vad-gateway/internal/speech/backends/restutil"
	"github.com/voicetyped/vad-gateway/internal/speech/engine"
	"github.com/voicetyped/vad-gateway/internal/speech/registry"
)

func init() {
	registry.Transcriber.Register("deepgram", func(config map[string]string) (engine.Transcriber, error) {
		apiKey := config["deepgram_api_key"]
		if apiKey == "" {
			apiKey = config["api_key"]
		}
		if apiKey == "" {
			return nil, fmt.Errorf("deepgram transcriber: API key required (set deepgram_api_key)")
		}
		lang := config["language"]
		if lang == "" {
			lang = "en"
		}
		model := config["model"]
		if model == "" {
			model = "nova-2"
		}
		return &Transcriber{apiKey: apiKey, language: lang, model: model}, nil
	})
}

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float32 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcriber implements engine.Transcriber against Deepgram's /v1/listen.
// Deepgram's model catalog (nova-2, enhanced, base, ...) doesn't overlap with
// the OpenAI-style model names a client selects via model_selection, so the
// backend ignores the requested model and always transcribes with the one
// fixed at construction time.
type Transcriber struct {
	apiKey   string
	language string
	model    string
}

func (t *Transcriber) Transcribe(ctx context.Context, wav []byte, model string) (engine.TranscriptionResult, error) {
	params := url.Values{}
	params.Set("model", t.model)
	params.Set("language", t.language)
	apiURL := "https://api.deepgram.com/v1/listen?" + params.Encode()

	headers := map[string]string{
		"Authorization": "Token " + t.apiKey,
		"Content-Type":  "audio/wav",
	}

	body, err := restutil.DoRaw(ctx, "POST", apiURL, headers, bytes.NewReader(wav))
	if err != nil {
		return engine.TranscriptionResult{}, fmt.Errorf("deepgram transcriber: %w", err)
	}
	defer body.Close()

	var resp deepgramResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return engine.TranscriptionResult{}, fmt.Errorf("deepgram transcriber: decode response: %w", err)
	}

	if len(resp.Results.Channels) > 0 && len(resp.Results.Channels[0].Alternatives) > 0 {
		alt := resp.Results.Channels[0].Alternatives[0]
		return engine.TranscriptionResult{Text: alt.Transcript, Confidence: alt.Confidence}, nil
	}
	return engine.TranscriptionResult{}, nil
}

func (t *Transcriber) Models() []string {
	return []string{"nova-2", "nova-2-general", "nova-2-meeting", "nova-2-phonecall", "enhanced", "base"}
}
