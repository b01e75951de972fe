package speech

import (
	"bytes"
	"context"
	"fmt"
	"log"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"

	"songteller/internal/config"
)

// Google Cloud TTS rejects inputs over 5000 bytes; stay under it with
// some margin and stitch the chunks back together.
const googleMaxChunkBytes = 4500

// GoogleSynthesizer speaks through the Google Cloud Text-to-Speech API.
type GoogleSynthesizer struct {
	client       *texttospeech.Client
	voice        string
	languageCode string
}

// NewGoogleSynthesizer builds a client from the configured service
// account key file.
func NewGoogleSynthesizer(ctx context.Context, cfg config.GoogleConfig) (*GoogleSynthesizer, error) {
	if cfg.TTSKeyPath == "" {
		return nil, &ConfigError{Reason: "google.tts_key_path is not set"}
	}

	client, err := texttospeech.NewClient(ctx, option.WithCredentialsFile(cfg.TTSKeyPath))
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("create texttospeech client: %v", err)}
	}

	return &GoogleSynthesizer{
		client:       client,
		voice:        cfg.TTSVoice,
		languageCode: cfg.TTSLanguageCode,
	}, nil
}

// Synthesize renders text as LINEAR16 audio. Long text is chunked at
// sentence boundaries and the parts are concatenated in order.
func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text string) (Audio, error) {
	chunks := splitTextForTTS(text, googleMaxChunkBytes)
	if len(chunks) > 1 {
		log.Printf("[speech] input exceeds %d bytes, synthesizing %d chunks", googleMaxChunkBytes, len(chunks))
	}

	var buf bytes.Buffer
	for i, chunk := range chunks {
		req := &texttospeechpb.SynthesizeSpeechRequest{
			Input: &texttospeechpb.SynthesisInput{
				InputSource: &texttospeechpb.SynthesisInput_Text{Text: chunk},
			},
			Voice: &texttospeechpb.VoiceSelectionParams{
				LanguageCode: g.languageCode,
				Name:         g.voice,
			},
			AudioConfig: &texttospeechpb.AudioConfig{
				AudioEncoding: texttospeechpb.AudioEncoding_LINEAR16,
			},
		}

		resp, err := g.client.SynthesizeSpeech(ctx, req)
		if err != nil {
			return Audio{}, &UnavailableError{Err: fmt.Errorf("synthesize chunk %d/%d: %w", i+1, len(chunks), err)}
		}
		buf.Write(resp.AudioContent)
	}

	return Audio{Data: buf.Bytes(), Format: "wav"}, nil
}

// Close releases the underlying API client.
func (g *GoogleSynthesizer) Close() error {
	return g.client.Close()
}
