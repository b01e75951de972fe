package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

// Backend mode selected in the config file.
const (
	ModeGoogle = "google"
	ModeLocal  = "local"
)

// Matches the temperature the service has always used for Gemini.
const geminiTemperature = 0.7

// Config aggregates everything the service needs at startup.
type Config struct {
	Server      ServerConfig
	Mode        string
	PromptFile  string
	SaveSession bool
	PlayAudio   bool
	BufferAudio bool
	Google      GoogleConfig
	Local       LocalConfig
	APIKey      string
}

// GoogleConfig holds the cloud-mode backend settings.
type GoogleConfig struct {
	LLMModel        string `json:"llm_model"`
	TTSKeyPath      string `json:"tts_key_path"`
	TTSVoice        string `json:"tts_voice"`
	TTSLanguageCode string `json:"tts_language_code"`
}

// LocalConfig holds the local-mode backend settings (Ollama + Chatterbox).
type LocalConfig struct {
	LLMAPIURL  string     `json:"llm_api_url"`
	LLMModel   string     `json:"llm_model"`
	TTSAPIURL  string     `json:"tts_api_url"`
	TTSVoice   string     `json:"tts_voice"`
	TTSOptions TTSOptions `json:"tts_options"`
}

// TTSOptions is passed through to the Chatterbox server mostly verbatim.
// StreamingLimit is the input length (in characters) at which synthesis
// switches to the long-form endpoint.
type TTSOptions struct {
	ResponseFormat      string  `json:"response_format"`
	Speed               float64 `json:"speed"`
	StreamFormat        string  `json:"stream_format"`
	Exaggeration        float64 `json:"exaggeration"`
	CFGWeight           float64 `json:"cfg_weight"`
	Temperature         float64 `json:"temperature"`
	StreamingLimit      int     `json:"streaming_limit"`
	StreamingChunkSize  int     `json:"streaming_chunk_size"`
	StreamingStrategy   string  `json:"streaming_strategy"`
	StreamingBufferSize int     `json:"streaming_buffer_size"`
	StreamingQuality    string  `json:"streaming_quality"`
}

// fileConfig mirrors the on-disk config.json document.
type fileConfig struct {
	Mode        string       `json:"mode"`
	PromptFile  string       `json:"prompt_file"`
	SaveSession bool         `json:"save_session"`
	PlayAudio   bool         `json:"play_audio"`
	BufferAudio bool         `json:"buffer_audio"`
	Google      GoogleConfig `json:"google"`
	Local       LocalConfig  `json:"local"`
}

// Load reads config.json (path overridable via SONGTELLER_CONFIG) and
// the environment. A missing config file is not an error; a malformed
// one is.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	path := getEnvOrDefault("SONGTELLER_CONFIG", "config.json")
	file, err := loadFileConfig(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server:      server,
		Mode:        strings.TrimSpace(file.Mode),
		PromptFile:  file.PromptFile,
		SaveSession: file.SaveSession,
		PlayAudio:   file.PlayAudio,
		BufferAudio: file.BufferAudio,
		Google:      file.Google,
		Local:       file.Local,
		APIKey:      strings.TrimSpace(os.Getenv("GOOGLE_AI_STUDIO_API_KEY")),
	}
	cfg.applyDefaults()
	cfg.resolvePaths(filepath.Dir(path))

	return cfg, nil
}

func loadFileConfig(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("[config] %s not found, using defaults", path)
		return fileConfig{}, nil
	}
	if err != nil {
		return fileConfig{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	var file fileConfig
	if err := json.Unmarshal(data, &file); err != nil {
		return fileConfig{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return file, nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeGoogle
	}
	if c.PromptFile == "" {
		c.PromptFile = "prompt.txt"
	}

	if c.Google.LLMModel == "" {
		c.Google.LLMModel = "gemini-2.0-flash"
	}
	if c.Google.TTSVoice == "" {
		c.Google.TTSVoice = "en-US-Neural2-D"
	}
	if c.Google.TTSLanguageCode == "" {
		c.Google.TTSLanguageCode = "en-US"
	}

	if c.Local.LLMAPIURL == "" {
		c.Local.LLMAPIURL = "http://localhost:11434"
	}
	if c.Local.LLMModel == "" {
		c.Local.LLMModel = "gemma-3-27b-it"
	}
	if c.Local.TTSVoice == "" {
		c.Local.TTSVoice = "default"
	}

	opts := &c.Local.TTSOptions
	if opts.ResponseFormat == "" {
		opts.ResponseFormat = "mp3"
	}
	if opts.Speed == 0 {
		opts.Speed = 1
	}
	if opts.StreamFormat == "" {
		opts.StreamFormat = "audio"
	}
	if opts.Exaggeration == 0 {
		opts.Exaggeration = 0.25
	}
	if opts.CFGWeight == 0 {
		opts.CFGWeight = 1
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.05
	}
	if opts.StreamingLimit == 0 {
		opts.StreamingLimit = 3000
	}
	if opts.StreamingChunkSize == 0 {
		opts.StreamingChunkSize = 50
	}
	if opts.StreamingStrategy == "" {
		opts.StreamingStrategy = "paragraph"
	}
	if opts.StreamingBufferSize == 0 {
		opts.StreamingBufferSize = 1
	}
	if opts.StreamingQuality == "" {
		opts.StreamingQuality = "balanced"
	}
}

// resolvePaths anchors relative file references to the config file's
// directory so the service behaves the same from any working directory.
func (c *Config) resolvePaths(dir string) {
	if c.PromptFile != "" && !filepath.IsAbs(c.PromptFile) {
		c.PromptFile = filepath.Join(dir, c.PromptFile)
	}
	if c.Google.TTSKeyPath != "" && !filepath.IsAbs(c.Google.TTSKeyPath) {
		c.Google.TTSKeyPath = filepath.Join(dir, c.Google.TTSKeyPath)
	}
}

// Validate fails fast on configuration the selected mode cannot run
// with. Only the selected mode's requirements are enforced.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeGoogle:
		if c.APIKey == "" {
			return errors.New("GOOGLE_AI_STUDIO_API_KEY is required in google mode")
		}
		if c.PlayAudio {
			if c.Google.TTSKeyPath == "" {
				return errors.New("google.tts_key_path is required when play_audio is enabled")
			}
			if _, err := os.Stat(c.Google.TTSKeyPath); err != nil {
				return fmt.Errorf("google.tts_key_path: %w", err)
			}
		}
	case ModeLocal:
		u, err := url.Parse(c.Local.LLMAPIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("local.llm_api_url %q is not a valid URL", c.Local.LLMAPIURL)
		}
		if c.PlayAudio && c.Local.TTSAPIURL == "" {
			return errors.New("local.tts_api_url is required when play_audio is enabled")
		}
	default:
		return fmt.Errorf("unsupported mode %q (expected %q or %q)", c.Mode, ModeGoogle, ModeLocal)
	}
	return nil
}

// NewChatModel creates the chat model for the selected mode.
func (c *Config) NewChatModel(ctx context.Context) (model.ToolCallingChatModel, error) {
	switch c.Mode {
	case ModeGoogle:
		if c.APIKey == "" {
			return nil, errors.New("GOOGLE_AI_STUDIO_API_KEY is required in google mode")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  c.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		temperature := float32(geminiTemperature)
		return gemini.NewChatModel(ctx, &gemini.Config{
			Client:      client,
			Model:       c.Google.LLMModel,
			Temperature: &temperature,
		})
	case ModeLocal:
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: NormalizeOllamaURL(c.Local.LLMAPIURL),
			Model:   c.Local.LLMModel,
		})
	default:
		return nil, fmt.Errorf("unsupported mode %q", c.Mode)
	}
}

// NormalizeOllamaURL strips any /api/... suffix so the configured value
// works as a base URL no matter how it was written.
func NormalizeOllamaURL(raw string) string {
	if idx := strings.Index(raw, "/api/"); idx >= 0 {
		raw = raw[:idx]
	}
	return strings.TrimSuffix(raw, "/")
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5000"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":5000" or "127.0.0.1:5000" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
