package ai

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by every operation when no generator is available.
var ErrNotConfigured = errors.New("AI API key not configured")

// Prompt is a single completion request.
type Prompt struct {
	Model     string
	MaxTokens int
	Text      string
}

// Generator is implemented by the provider clients.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// ScoreCache stores computed match scores. A miss is reported with ok=false and a nil error.
type ScoreCache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Models selects the model and token limit per operation.
type Models struct {
	Proposal          string `mapstructure:"proposal-model"`
	Score             string `mapstructure:"score-model"`
	ProposalMaxTokens int    `mapstructure:"proposal-max-tokens"`
	ScoreMaxTokens    int    `mapstructure:"score-max-tokens"`
}

const (
	DefaultProposalModel     = "claude-3-sonnet-20240229"
	DefaultScoreModel        = "claude-3-haiku-20240307"
	DefaultProposalMaxTokens = 1000
	DefaultScoreMaxTokens    = 10
)

// WithDefaults fills unset fields from fallback.
func (m Models) WithDefaults(fallback Models) Models {
	if m.Proposal == "" {
		m.Proposal = fallback.Proposal
	}
	if m.Score == "" {
		m.Score = fallback.Score
	}
	if m.ProposalMaxTokens <= 0 {
		m.ProposalMaxTokens = fallback.ProposalMaxTokens
	}
	if m.ScoreMaxTokens <= 0 {
		m.ScoreMaxTokens = fallback.ScoreMaxTokens
	}
	return m
}

// ClaudeModels are the defaults for the Claude provider.
func ClaudeModels() Models {
	return Models{
		Proposal:          DefaultProposalModel,
		Score:             DefaultScoreModel,
		ProposalMaxTokens: DefaultProposalMaxTokens,
		ScoreMaxTokens:    DefaultScoreMaxTokens,
	}
}
