package narrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"songteller/internal/config"
	sessionmodel "songteller/internal/model/session"
)

// Template used when the configured prompt file cannot be read.
const fallbackTemplate = "Analyze these songs:\n{songs_list}"

// Service turns a finished session's song list into narrative
// commentary through the configured chat model.
type Service struct {
	chain    compose.Runnable[map[string]any, *schema.Message]
	template string

	// Ollama keeps the model loaded between requests; unloadURL is set
	// in local mode so ResetContext can force an unload.
	unloadURL string
	model     string
	client    *http.Client
}

// NewService builds the chat model for the configured mode and compiles
// the narrative chain.
func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}

	svc, err := newService(ctx, chatModel, loadTemplate(cfg.PromptFile))
	if err != nil {
		return nil, err
	}

	if cfg.Mode == config.ModeLocal {
		svc.unloadURL = config.NormalizeOllamaURL(cfg.Local.LLMAPIURL)
		svc.model = cfg.Local.LLMModel
	}
	return svc, nil
}

func newService(ctx context.Context, chatModel model.ToolCallingChatModel, template string) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.UserMessage("{prompt}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile narrative chain: %w", err)
	}

	return &Service{
		chain:    runnable,
		template: template,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func loadTemplate(path string) string {
	if path == "" {
		return fallbackTemplate
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[narrator] could not read prompt file %s: %v, using fallback template", path, err)
		return fallbackTemplate
	}
	return string(data)
}

// GenerateNarrative renders the songs into the prompt template and asks
// the chat model for commentary. A single failed call surfaces as an
// UnavailableError; there are no retries.
func (s *Service) GenerateNarrative(ctx context.Context, songs []sessionmodel.Song) (string, error) {
	if len(songs) == 0 {
		return "", nil
	}

	response, err := s.chain.Invoke(ctx, map[string]any{
		"prompt": RenderPrompt(s.template, songs),
	})
	if err != nil {
		return "", &UnavailableError{Err: err}
	}

	log.Printf("[narrator] generated narrative for %d songs, length=%d", len(songs), len(response.Content))
	return response.Content, nil
}

// RenderPrompt substitutes the formatted song list for the {songs_list}
// placeholder. Each song becomes one "- artist - title" line.
func RenderPrompt(template string, songs []sessionmodel.Song) string {
	lines := make([]string, 0, len(songs))
	for _, song := range songs {
		lines = append(lines, fmt.Sprintf("- %s - %s", song.Artist, song.Title))
	}
	return strings.ReplaceAll(template, "{songs_list}", strings.Join(lines, "\n"))
}

// ResetContext clears conversational state held by the backend. The
// Gemini API is stateless per request, so google mode succeeds as a
// no-op; local mode asks Ollama to unload the model (keep_alive 0).
func (s *Service) ResetContext(ctx context.Context) error {
	if s.unloadURL == "" {
		return nil
	}

	log.Printf("[narrator] unloading model %s", s.model)

	payload, err := json.Marshal(map[string]any{"model": s.model, "keep_alive": 0})
	if err != nil {
		return fmt.Errorf("encode unload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.unloadURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build unload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &UnavailableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &UnavailableError{Err: fmt.Errorf("ollama unload returned %s", resp.Status)}
	}
	return nil
}
