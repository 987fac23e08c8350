package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/spigell/job-aggregator/internal/ai"
)

const (
	Provider = "gemini"

	defaultProposalModel = "gemini-2.5-pro"
	defaultScoreModel    = "gemini-2.5-flash"
	// thinking models spend part of the budget before answering
	defaultScoreMaxTokens = 64
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator wraps the Google GenAI client to provide simple prompt-based interactions.
type Generator struct {
	models contentGenerator
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey string) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Generator{models: client.Models}, nil
}

// Models returns the per-operation defaults for Gemini.
func Models() ai.Models {
	return ai.Models{
		Proposal:          defaultProposalModel,
		Score:             defaultScoreModel,
		ProposalMaxTokens: ai.DefaultProposalMaxTokens,
		ScoreMaxTokens:    defaultScoreMaxTokens,
	}
}

// Generate sends the prompt to Gemini and joins the textual parts of all candidates.
func (g *Generator) Generate(ctx context.Context, prompt ai.Prompt) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	text := strings.TrimSpace(prompt.Text)
	if text == "" {
		return "", errors.New("prompt must not be empty")
	}

	var config *genai.GenerateContentConfig
	if prompt.MaxTokens > 0 {
		config = &genai.GenerateContentConfig{MaxOutputTokens: int32(prompt.MaxTokens)}
	}

	resp, err := g.models.GenerateContent(ctx, prompt.Model, genai.Text(text), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}
