package services

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/AnshRaj112/brift-backend/internal/logger"
)

const defaultGeminiModel = "gemini-2.0-flash"

// Assistant answers a free-text prompt.
type Assistant interface {
	Answer(ctx context.Context, prompt string) (string, error)
}

// GeminiConfig configures the Gemini assistant. BaseURL and HTTPClient are optional.
type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiAssistant answers through the Gemini API.
type GeminiAssistant struct {
	client *genai.Client
	model  string
	log    *logger.Logger
}

func NewGeminiAssistant(ctx context.Context, cfg GeminiConfig, log *logger.Logger) (*GeminiAssistant, error) {
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if log == nil {
		log = logger.Nop()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiAssistant{
		client: client,
		model:  cfg.Model,
		log:    log.WithComponent(logger.ComponentAssistant),
	}, nil
}

func (g *GeminiAssistant) Answer(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", &DependencyError{Op: "assistant", Err: err}
	}
	text := resp.Text()
	g.log.InfoContext(ctx, "assistant response received", "chars", len(text))
	return text, nil
}
