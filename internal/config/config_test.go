package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("SONGTELLER_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	t.Setenv("PORT", "")
	t.Setenv("GOOGLE_AI_STUDIO_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Mode != ModeGoogle {
		t.Fatalf("expected default mode google, got %s", cfg.Mode)
	}
	if cfg.Server.Addr != ":5000" {
		t.Fatalf("expected default addr :5000, got %s", cfg.Server.Addr)
	}
	if cfg.Google.LLMModel != "gemini-2.0-flash" {
		t.Fatalf("expected default gemini model, got %s", cfg.Google.LLMModel)
	}
	if cfg.Google.TTSVoice != "en-US-Neural2-D" {
		t.Fatalf("expected default voice, got %s", cfg.Google.TTSVoice)
	}
	if cfg.Local.LLMAPIURL != "http://localhost:11434" {
		t.Fatalf("expected default ollama url, got %s", cfg.Local.LLMAPIURL)
	}
	if cfg.Local.TTSOptions.StreamingLimit != 3000 {
		t.Fatalf("expected default streaming limit 3000, got %d", cfg.Local.TTSOptions.StreamingLimit)
	}
	if cfg.Local.TTSOptions.Exaggeration != 0.25 {
		t.Fatalf("expected default exaggeration 0.25, got %v", cfg.Local.TTSOptions.Exaggeration)
	}
}

func TestLoadReadsFileAndResolvesPaths(t *testing.T) {
	path := writeConfigFile(t, `{
		"mode": "local",
		"prompt_file": "narrator.txt",
		"play_audio": true,
		"save_session": true,
		"local": {
			"llm_api_url": "http://studio:11434/api/generate",
			"llm_model": "llama3.1",
			"tts_api_url": "http://studio:8004/v1/audio/speech",
			"tts_voice": "radio-host",
			"tts_options": {"response_format": "wav", "streaming_limit": 1500}
		}
	}`)
	t.Setenv("SONGTELLER_CONFIG", path)
	t.Setenv("PORT", "8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Mode != ModeLocal {
		t.Fatalf("expected local mode, got %s", cfg.Mode)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("expected :8080, got %s", cfg.Server.Addr)
	}
	if !cfg.PlayAudio || !cfg.SaveSession {
		t.Fatalf("expected play_audio and save_session set")
	}
	if cfg.Local.LLMModel != "llama3.1" {
		t.Fatalf("expected llama3.1, got %s", cfg.Local.LLMModel)
	}
	if cfg.Local.TTSOptions.ResponseFormat != "wav" {
		t.Fatalf("expected wav response format, got %s", cfg.Local.TTSOptions.ResponseFormat)
	}
	if cfg.Local.TTSOptions.StreamingLimit != 1500 {
		t.Fatalf("expected streaming limit 1500, got %d", cfg.Local.TTSOptions.StreamingLimit)
	}
	if cfg.Local.TTSOptions.Speed != 1 {
		t.Fatalf("expected unset speed to default to 1, got %v", cfg.Local.TTSOptions.Speed)
	}

	want := filepath.Join(filepath.Dir(path), "narrator.txt")
	if cfg.PromptFile != want {
		t.Fatalf("expected prompt file %s, got %s", want, cfg.PromptFile)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := writeConfigFile(t, `{"mode": `)
	t.Setenv("SONGTELLER_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for malformed config file")
	}
}

func TestValidateGoogleMode(t *testing.T) {
	cfg := &Config{Mode: ModeGoogle}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error without api key")
	}

	cfg.APIKey = "test-key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg.PlayAudio = true
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error without tts_key_path when play_audio is set")
	}

	keyPath := filepath.Join(t.TempDir(), "tts.json")
	if err := os.WriteFile(keyPath, []byte("{}"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	cfg.Google.TTSKeyPath = keyPath
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config with key file, got %v", err)
	}

	cfg.Google.TTSKeyPath = filepath.Join(t.TempDir(), "missing.json")
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing key file")
	}
}

func TestValidateLocalMode(t *testing.T) {
	cfg := &Config{Mode: ModeLocal}
	cfg.Local.LLMAPIURL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for invalid llm_api_url")
	}

	cfg.Local.LLMAPIURL = "http://localhost:11434"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg.PlayAudio = true
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error without tts_api_url when play_audio is set")
	}

	cfg.Local.TTSAPIURL = "http://localhost:8004/v1/audio/speech"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := &Config{Mode: "hybrid"}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected error for unknown mode")
	}
	if !strings.Contains(err.Error(), "hybrid") {
		t.Fatalf("expected mode in error, got %v", err)
	}
}

func TestNormalizeOllamaURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "http://localhost:11434", want: "http://localhost:11434"},
		{in: "http://localhost:11434/", want: "http://localhost:11434"},
		{in: "http://localhost:11434/api/generate", want: "http://localhost:11434"},
		{in: "http://studio:11434/api/chat", want: "http://studio:11434"},
	}

	for _, tc := range cases {
		if got := NormalizeOllamaURL(tc.in); got != tc.want {
			t.Fatalf("NormalizeOllamaURL(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
