package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

type GenAIConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

// GenAI generates text with Google's Gemini API.
type GenAI struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

func NewGenAI(ctx context.Context, c GenAIConfig) (*GenAI, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("genai: api key is required")
	}

	if c.Model == "" {
		c.Model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai: create client: %w", err)
	}

	g := &GenAI{
		client: client,
		model:  c.Model,
	}

	if c.Temperature > 0 {
		g.config = &genai.GenerateContentConfig{
			Temperature: genai.Ptr(c.Temperature),
		}
	}

	return g, nil
}

func (g *GenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", fmt.Errorf("genai: generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("genai: empty response from %s", g.model)
	}

	return text, nil
}
