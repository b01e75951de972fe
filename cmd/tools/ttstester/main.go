package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"songteller/internal/audio"
	"songteller/internal/config"
	speechservice "songteller/internal/service/speech"
)

// Manual test tool for the TTS backends: synthesizes a line of text
// with the configured backend and writes (optionally plays) the result.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	text := flag.String("text", "", "text to synthesize")
	outputPath := flag.String("out", "", "output file path (default commentary_test.<format>)")
	play := flag.Bool("play", false, "play the synthesized audio after writing it")
	timeout := flag.Duration("timeout", 2*time.Minute, "request timeout")
	flag.Parse()

	if *text == "" {
		flag.Usage()
		log.Fatal("specify the text to synthesize with -text")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var synth speechservice.Synthesizer
	switch cfg.Mode {
	case config.ModeGoogle:
		synth, err = speechservice.NewGoogleSynthesizer(ctx, cfg.Google)
	case config.ModeLocal:
		synth, err = speechservice.NewChatterboxSynthesizer(cfg.Local)
	default:
		log.Fatalf("unsupported mode %q", cfg.Mode)
	}
	if err != nil {
		log.Fatalf("failed to build synthesizer: %v", err)
	}

	log.Printf("synthesizing %d characters in %s mode", len(*text), cfg.Mode)

	result, err := synth.Synthesize(ctx, *text)
	if err != nil {
		log.Fatalf("synthesis failed: %v", err)
	}

	out := *outputPath
	if out == "" {
		out = "commentary_test." + result.Format
	}
	if err := os.WriteFile(out, result.Data, 0o644); err != nil {
		log.Fatalf("write %s: %v", out, err)
	}
	log.Printf("wrote %d bytes to %s", len(result.Data), out)

	if *play {
		if err := audio.NewPlayer().PlayFile(out); err != nil {
			log.Fatalf("playback failed: %v", err)
		}
	}
}
