package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"songteller/internal/audio"
	"songteller/internal/config"
	"songteller/internal/handler"
	"songteller/internal/handler/events"
	narratorservice "songteller/internal/service/narrator"
	sessionservice "songteller/internal/service/session"
	speechservice "songteller/internal/service/speech"
	"songteller/internal/service/teller"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	store := sessionservice.NewStore()

	narratorSvc, err := narratorservice.NewService(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize narrator: %v", err)
	}

	var (
		synth teller.Synthesizer
		sink  teller.Sink
	)
	if cfg.PlayAudio {
		synthesizer, format, err := newSynthesizer(ctx, cfg)
		if err != nil {
			log.Fatalf("failed to initialize speech synthesis: %v", err)
		}
		synth = synthesizer
		sink = audio.NewSink(audio.NewPlayer(), "", format, cfg.BufferAudio)
	}

	hub := events.NewHub()

	tellerSvc := teller.NewService(store, narratorSvc, synth, sink, hub, teller.Config{
		SaveSession: cfg.SaveSession,
		PlayAudio:   cfg.PlayAudio,
		BufferAudio: cfg.BufferAudio,
	})

	router := handler.NewRouter(tellerSvc, narratorSvc, hub)

	logStartup(cfg)
	startServer(ctx, cfg.Server, router)
}

// newSynthesizer builds the TTS backend for the selected mode and
// reports the audio container format it produces.
func newSynthesizer(ctx context.Context, cfg *config.Config) (teller.Synthesizer, string, error) {
	if cfg.Mode == config.ModeGoogle {
		synth, err := speechservice.NewGoogleSynthesizer(ctx, cfg.Google)
		if err != nil {
			return nil, "", err
		}
		return synth, "wav", nil
	}

	synth, err := speechservice.NewChatterboxSynthesizer(cfg.Local)
	if err != nil {
		return nil, "", err
	}
	return synth, cfg.Local.TTSOptions.ResponseFormat, nil
}

func logStartup(cfg *config.Config) {
	log.Println("Song Teller API server")
	log.Printf("mode: %s", cfg.Mode)
	if cfg.Mode == config.ModeGoogle {
		log.Printf("llm: Google Gemini (%s)", cfg.Google.LLMModel)
		log.Printf("tts: Google Cloud TTS (%s, %s)", cfg.Google.TTSVoice, cfg.Google.TTSLanguageCode)
	} else {
		log.Printf("llm: Ollama (%s) at %s", cfg.Local.LLMModel, cfg.Local.LLMAPIURL)
		log.Printf("tts: Chatterbox (%s) at %s", cfg.Local.TTSVoice, cfg.Local.TTSAPIURL)
	}
	log.Printf("audio: %v, buffering: %v, save sessions: %v", cfg.PlayAudio, cfg.BufferAudio, cfg.SaveSession)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Song Teller listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
