// Package claude implements ai.Generator on top of the Anthropic Messages API.
package claude

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/spigell/job-aggregator/internal/ai"
)

const Provider = "claude"

type messageCreator interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type Generator struct {
	messages messageCreator
}

type Option func(*[]option.RequestOption)

// WithBaseURL points the client at a proxy or a test server.
func WithBaseURL(url string) Option {
	return func(opts *[]option.RequestOption) {
		if url = strings.TrimSpace(url); url != "" {
			*opts = append(*opts, option.WithBaseURL(url))
		}
	}
}

func NewGenerator(apiKey string, opts ...Option) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("claude api key is required")
	}

	requestOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	for _, opt := range opts {
		opt(&requestOpts)
	}

	client := anthropic.NewClient(requestOpts...)
	return &Generator{messages: &client.Messages}, nil
}

// Generate sends the prompt as a single user message and joins the text blocks of the reply.
func (g *Generator) Generate(ctx context.Context, prompt ai.Prompt) (string, error) {
	if g == nil || g.messages == nil {
		return "", errors.New("claude generator is not initialized")
	}

	text := strings.TrimSpace(prompt.Text)
	if text == "" {
		return "", errors.New("prompt must not be empty")
	}

	msg, err := g.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(prompt.Model),
		MaxTokens: int64(prompt.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("create message: %w", err)
	}

	var builder strings.Builder
	for _, block := range msg.Content {
		if block.Type != "text" {
			continue
		}
		part := strings.TrimSpace(block.Text)
		if part == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(part)
	}

	output := builder.String()
	if output == "" {
		return "", errors.New("claude api returned empty response")
	}

	return output, nil
}
