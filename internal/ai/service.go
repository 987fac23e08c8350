package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/job-aggregator/internal/jobs"
	"github.com/spigell/job-aggregator/internal/logger"
	"github.com/spigell/job-aggregator/internal/utils"
)

const (
	defaultMaxLogLength = 200
	scoreCachePrefix    = "score:"
	minScore            = 0
	maxScore            = 100
)

var scorePattern = regexp.MustCompile(`-?\d+`)

type Config struct {
	Provider     string
	Models       Models
	MaxLogLength int
	Cache        ScoreCache
	Logger       *zap.Logger
}

// Service drafts proposals and scores listings against a resume.
type Service struct {
	generator Generator
	models    Models
	cache     ScoreCache
	logger    *zap.Logger
	maxLogLen int
}

// NewService builds the service. A nil generator yields a service whose operations
// fail with ErrNotConfigured.
func NewService(generator Generator, cfg Config) *Service {
	models := cfg.Models.WithDefaults(ClaudeModels())
	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Service{
		generator: generator,
		models:    models,
		cache:     cfg.Cache,
		logger:    logger.WithCommonFields(cfg.Logger, cfg.Provider, models.Score),
		maxLogLen: maxLogLen,
	}
}

func (s *Service) Configured() bool {
	return s != nil && s.generator != nil
}

func (s *Service) Models() Models {
	return s.models
}

// GenerateProposal makes a single call with the proposal model.
func (s *Service) GenerateProposal(ctx context.Context, req jobs.ProposalRequest) (string, error) {
	if !s.Configured() {
		return "", ErrNotConfigured
	}
	if req.Listing == nil {
		return "", errors.New("job listing is required")
	}
	if req.Resume == nil {
		return "", errors.New("resume data is required")
	}

	tone, err := jobs.ParseTone(string(req.Tone))
	if err != nil {
		return "", err
	}

	prompt := Prompt{
		Model:     s.models.Proposal,
		MaxTokens: s.models.ProposalMaxTokens,
		Text:      buildProposalPrompt(req, tone),
	}

	text, err := s.generate(ctx, req.Listing, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate proposal: %w", err)
	}

	return text, nil
}

// CalculateMatchScore asks the score model for a 0-100 rating.
// Replies without a number score 0.
func (s *Service) CalculateMatchScore(ctx context.Context, listing *jobs.Listing, resume *jobs.ResumeData) (int, error) {
	if !s.Configured() {
		return 0, ErrNotConfigured
	}
	if listing == nil || resume == nil {
		return 0, errors.New("listing and resume are required")
	}

	prompt := Prompt{
		Model:     s.models.Score,
		MaxTokens: s.models.ScoreMaxTokens,
		Text:      buildScorePrompt(listing, resume),
	}

	key := cacheKey(prompt)
	if score, ok := s.cached(ctx, key); ok {
		s.logger.Debug("score cache hit", zap.String(logger.FieldJob, listing.Key()), zap.Int("score", score))
		return score, nil
	}

	raw, err := s.generate(ctx, listing, prompt)
	if err != nil {
		return 0, fmt.Errorf("calculate match score: %w", err)
	}

	score := ParseScore(raw)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, strconv.Itoa(score)); err != nil {
			s.logger.Warn("storing score in cache failed", zap.Error(err))
		}
	}

	return score, nil
}

func (s *Service) generate(ctx context.Context, listing *jobs.Listing, prompt Prompt) (string, error) {
	s.logger.Debug("ai generate request",
		zap.String(logger.FieldJob, listing.Key()),
		zap.String("model", prompt.Model),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt.Text)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt.Text, s.maxLogLen)),
	)

	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	s.logger.Debug("ai generate response",
		zap.String(logger.FieldJob, listing.Key()),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	return raw, nil
}

func (s *Service) cached(ctx context.Context, key string) (int, bool) {
	if s.cache == nil {
		return 0, false
	}
	value, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("reading score cache failed", zap.Error(err))
		return 0, false
	}
	if !ok {
		return 0, false
	}
	score, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return clamp(score), true
}

func cacheKey(prompt Prompt) string {
	sum := sha256.Sum256([]byte(prompt.Model + prompt.Text))
	return scoreCachePrefix + hex.EncodeToString(sum[:])
}

// ParseScore takes the first integer in raw and clamps it to [0,100].
func ParseScore(raw string) int {
	match := scorePattern.FindString(raw)
	if match == "" {
		return minScore
	}
	score, err := strconv.Atoi(match)
	if err != nil {
		// out of int range
		if match[0] == '-' {
			return minScore
		}
		return maxScore
	}
	return clamp(score)
}

func clamp(score int) int {
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}
