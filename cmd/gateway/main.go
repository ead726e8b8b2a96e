package main

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/pitabwire/frame"
	"github.com/pitabwire/frame/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	gwconfig "github.com/voicetyped/vad-gateway/config"
	"github.com/voicetyped/vad-gateway/internal/health"
	"github.com/voicetyped/vad-gateway/internal/session"
	"github.com/voicetyped/vad-gateway/internal/sink"
	"github.com/voicetyped/vad-gateway/internal/speech/registry"
	"github.com/voicetyped/vad-gateway/internal/transport"
	"github.com/voicetyped/vad-gateway/pkg/events"

	// Register transcriber and VAD backends via init().
	_ "github.com/voicetyped/vad-gateway/internal/speech/backends/deepgram"
	_ "github.com/voicetyped/vad-gateway/internal/speech/backends/mocktranscribe"
	_ "github.com/voicetyped/vad-gateway/internal/speech/backends/mockvad"
	_ "github.com/voicetyped/vad-gateway/internal/speech/backends/openai"
	_ "github.com/voicetyped/vad-gateway/internal/speech/backends/silerovad"
	_ "github.com/voicetyped/vad-gateway/internal/speech/backends/whisper"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadWithOIDC[gwconfig.GatewayConfig](ctx)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	eventRef := cfg.GetEventsQueueName()
	eventURL := cfg.GetEventsQueueURL()

	ctx, srv := frame.NewService(
		frame.WithConfig(&cfg),
		frame.WithName("vad-gateway"),
		frame.WithRegisterPublisher(eventRef, eventURL),
	)
	defer srv.Stop(ctx)

	pool, err := srv.WorkManager().GetPool()
	if err != nil {
		log.Fatalf("getting worker pool: %v", err)
	}

	pub := events.NewPublisher(srv.QueueManager(), "vad-gateway", eventRef)

	transcriberName := cfg.DefaultASRBackend
	vadName := "silero"
	if cfg.Testing {
		transcriberName = "mock"
		vadName = "mock"
	}

	backendConfig := map[string]string{
		"openai_api_key":   cfg.OpenAIAPIKey,
		"openai_base_url":  cfg.OpenAIBaseURL,
		"deepgram_api_key": cfg.DeepgramAPIKey,
		"model":            cfg.DefaultModel,
		"model_path":       cfg.WhisperModelPath,
		"pool_size":        strconv.Itoa(cfg.WhisperPoolSize),
	}

	transcriber, err := registry.Transcriber.Create(transcriberName, backendConfig)
	if err != nil {
		log.Fatalf("creating transcriber backend %q: %v", transcriberName, err)
	}

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			log.Fatalf("connecting to database: %v", err)
		}
	}

	segmentSink := sink.NewFileSink(cfg.SegmentsDir)

	manager := session.NewManager()

	newSession := func(clientID string, conn session.Conn) *session.Session {
		vad, verr := registry.VAD.Create(vadName, backendConfig)
		if verr != nil {
			log.Printf("creating vad backend %q: %v (sessions will run without VAD)", vadName, verr)
			vad = nil
		}
		return session.New(
			clientID,
			session.Options{
				VADSilenceToleranceSeconds: cfg.VADSilenceToleranceSeconds,
				MinMergeDurationSeconds:    cfg.MinMergeDurationSeconds,
				MergeTimeoutSeconds:        cfg.MergeTimeoutSeconds,
				MinAudioSeconds:            cfg.MinAudioSeconds,
				VADThreshold:               cfg.VADThreshold,
				EmitVADResults:             cfg.VADResultEvents,
				DefaultModel:               cfg.DefaultModel,
			},
			conn,
			transcriber,
			vad,
			pool,
			segmentSink,
			64,
			pub,
		)
	}

	wsHandler := transport.NewHandler(transport.Deps{
		Manager:    manager,
		NewSession: newSession,
	})

	healthHandler := health.NewHandler("vad-gateway", cfg.AppVersion, db)

	mux := http.NewServeMux()
	mux.Handle("/ws", wsHandler)
	healthHandler.Register(mux)

	srv.Init(ctx, frame.WithHTTPHandler(mux))

	if err := srv.Run(ctx, ""); err != nil {
		log.Fatalf("service exited: %v", err)
	}
}
