package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"songteller/internal/config"
)

var (
	// Drops "=== Section ===" style runs the LLM likes to emit.
	headerRunPattern  = regexp.MustCompile(`(?s)=+.*?=+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// ChatterboxSynthesizer speaks through a local OpenAI-speech-compatible
// Chatterbox server.
type ChatterboxSynthesizer struct {
	url    string
	voice  string
	opts   config.TTSOptions
	client *http.Client
}

// chatterboxRequest is the extended OpenAI-style speech payload the
// Chatterbox server accepts.
type chatterboxRequest struct {
	Model               string  `json:"model"`
	Input               string  `json:"input"`
	Voice               string  `json:"voice"`
	ResponseFormat      string  `json:"response_format"`
	Speed               float64 `json:"speed"`
	StreamFormat        string  `json:"stream_format"`
	Exaggeration        float64 `json:"exaggeration"`
	CFGWeight           float64 `json:"cfg_weight"`
	Temperature         float64 `json:"temperature"`
	StreamingChunkSize  int     `json:"streaming_chunk_size"`
	StreamingStrategy   string  `json:"streaming_strategy"`
	StreamingBufferSize int     `json:"streaming_buffer_size"`
	StreamingQuality    string  `json:"streaming_quality"`
}

// NewChatterboxSynthesizer validates the endpoint configuration.
func NewChatterboxSynthesizer(cfg config.LocalConfig) (*ChatterboxSynthesizer, error) {
	if cfg.TTSAPIURL == "" {
		return nil, &ConfigError{Reason: "local.tts_api_url is not set"}
	}

	return &ChatterboxSynthesizer{
		url:    cfg.TTSAPIURL,
		voice:  cfg.TTSVoice,
		opts:   cfg.TTSOptions,
		client: &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// Synthesize sanitizes the text and posts it to the Chatterbox server.
// Input at or above the configured streaming limit goes to the
// long-form endpoint variant.
func (c *ChatterboxSynthesizer) Synthesize(ctx context.Context, text string) (Audio, error) {
	text = sanitizeForSpeech(text)

	url := c.url
	if c.opts.StreamingLimit > 0 && utf8.RuneCountInString(text) >= c.opts.StreamingLimit {
		url = longFormURL(url)
		log.Printf("[speech] input length %d over limit %d, using long-form endpoint", utf8.RuneCountInString(text), c.opts.StreamingLimit)
	}

	payload := chatterboxRequest{
		Model:               "tts-1",
		Input:               text,
		Voice:               c.voice,
		ResponseFormat:      c.opts.ResponseFormat,
		Speed:               c.opts.Speed,
		StreamFormat:        c.opts.StreamFormat,
		Exaggeration:        c.opts.Exaggeration,
		CFGWeight:           c.opts.CFGWeight,
		Temperature:         c.opts.Temperature,
		StreamingChunkSize:  c.opts.StreamingChunkSize,
		StreamingStrategy:   c.opts.StreamingStrategy,
		StreamingBufferSize: c.opts.StreamingBufferSize,
		StreamingQuality:    c.opts.StreamingQuality,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Audio{}, fmt.Errorf("encode tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Audio{}, fmt.Errorf("build tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Audio{}, &UnavailableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Audio{}, &UnavailableError{Err: fmt.Errorf("tts request failed: %s: %s", resp.Status, bytes.TrimSpace(detail))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Audio{}, &UnavailableError{Err: fmt.Errorf("read tts response: %w", err)}
	}

	return Audio{Data: data, Format: c.opts.ResponseFormat}, nil
}

// sanitizeForSpeech strips markup the synthesizer would read out loud:
// =-delimited headers, newlines, and double quotes.
func sanitizeForSpeech(text string) string {
	text = headerRunPattern.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, `"`, "'")
	text = whitespacePattern.ReplaceAllString(strings.TrimSpace(text), " ")
	return strings.TrimSpace(text)
}

func longFormURL(url string) string {
	if strings.HasSuffix(url, "/long") {
		return url
	}
	if strings.HasSuffix(url, "/") {
		return url + "long"
	}
	return url + "/long"
}
