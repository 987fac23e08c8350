package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-aggregator/internal/jobs"
)

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []Prompt
}

func (f *fakeGenerator) Generate(_ context.Context, prompt Prompt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type memoryCache struct {
	values map[string]string
	getErr error
}

func (m *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key, value string) error {
	m.values[key] = value
	return nil
}

func testListing() *jobs.Listing {
	return &jobs.Listing{
		ID:          "1",
		Title:       "Go Developer",
		Company:     "Acme",
		Description: "Build APIs",
		Skills:      []string{"Go", "SQL"},
		Platform:    jobs.Upwork,
	}
}

func testResume() *jobs.ResumeData {
	return &jobs.ResumeData{
		Name:   "Jane",
		Skills: []string{"Go", "Kubernetes"},
		Experience: []jobs.Experience{
			{Title: "Engineer", Company: "Initech", Duration: "3 years"},
		},
	}
}

func TestParseScore(t *testing.T) {
	tests := map[string]int{
		"85":                      85,
		" 42\n":                   42,
		"150":                     100,
		"-10":                     0,
		"banana":                  0,
		"":                        0,
		"Score: 73 out of 100":    73,
		"99999999999999999999999": 100,
	}

	for raw, want := range tests {
		if got := ParseScore(raw); got != want {
			t.Fatalf("ParseScore(%q): expected %d, got %d", raw, want, got)
		}
	}
}

func TestNotConfigured(t *testing.T) {
	s := NewService(nil, Config{})

	if _, err := s.CalculateMatchScore(context.Background(), testListing(), testResume()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	_, err := s.GenerateProposal(context.Background(), jobs.ProposalRequest{Listing: testListing(), Resume: testResume()})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if err.Error() != "AI API key not configured" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestCalculateMatchScoreUsesScoreModel(t *testing.T) {
	gen := &fakeGenerator{reply: "150"}
	s := NewService(gen, Config{})

	score, err := s.CalculateMatchScore(context.Background(), testListing(), testResume())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 100 {
		t.Fatalf("expected clamped 100, got %d", score)
	}

	p := gen.prompts[0]
	if p.Model != DefaultScoreModel || p.MaxTokens != DefaultScoreMaxTokens {
		t.Fatalf("unexpected prompt settings: %+v", p)
	}
	for _, want := range []string{"Job Title: Go Developer", "Required Skills: Go, SQL", "Experience: Engineer at Initech"} {
		if !strings.Contains(p.Text, want) {
			t.Fatalf("prompt is missing %q:\n%s", want, p.Text)
		}
	}
	if strings.Contains(p.Text, "{{") {
		t.Fatalf("unreplaced placeholder in prompt:\n%s", p.Text)
	}
}

func TestCalculateMatchScoreGeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("overloaded")}
	s := NewService(gen, Config{})

	if _, err := s.CalculateMatchScore(context.Background(), testListing(), testResume()); err == nil {
		t.Fatal("expected error")
	}
}

func TestCalculateMatchScoreCache(t *testing.T) {
	gen := &fakeGenerator{reply: "64"}
	cache := &memoryCache{values: map[string]string{}}
	s := NewService(gen, Config{Cache: cache})

	for i := 0; i < 3; i++ {
		score, err := s.CalculateMatchScore(context.Background(), testListing(), testResume())
		if err != nil || score != 64 {
			t.Fatalf("unexpected result %d, %v", score, err)
		}
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("expected a single model call, got %d", len(gen.prompts))
	}
	for key := range cache.values {
		if !strings.HasPrefix(key, scoreCachePrefix) {
			t.Fatalf("unexpected cache key %q", key)
		}
	}
}

func TestCacheErrorsAreIgnored(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	gen := &fakeGenerator{reply: "10"}
	cache := &memoryCache{values: map[string]string{}, getErr: errors.New("connection refused")}
	s := NewService(gen, Config{Cache: cache, Logger: zap.New(core)})

	score, err := s.CalculateMatchScore(context.Background(), testListing(), testResume())
	if err != nil || score != 10 {
		t.Fatalf("unexpected result %d, %v", score, err)
	}
	if logs.FilterMessage("reading score cache failed").Len() != 1 {
		t.Fatalf("expected cache warning, got %v", logs.All())
	}
}

func TestGenerateProposal(t *testing.T) {
	gen := &fakeGenerator{reply: "Dear Acme"}
	s := NewService(gen, Config{})

	req := jobs.ProposalRequest{
		Listing:            testListing(),
		Resume:             testResume(),
		Tone:               jobs.ToneCasual,
		CustomInstructions: "Mention Kubernetes",
	}
	text, err := s.GenerateProposal(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Dear Acme" {
		t.Fatalf("unexpected proposal %q", text)
	}

	p := gen.prompts[0]
	if p.Model != DefaultProposalModel || p.MaxTokens != DefaultProposalMaxTokens {
		t.Fatalf("unexpected prompt settings: %+v", p)
	}
	for _, want := range []string{
		"Budget: Not specified",
		"TONE: casual",
		"CUSTOM INSTRUCTIONS: Mention Kubernetes",
		"Engineer at Initech (3 years)",
	} {
		if !strings.Contains(p.Text, want) {
			t.Fatalf("prompt is missing %q:\n%s", want, p.Text)
		}
	}
}

func TestGenerateProposalDefaultsAndValidation(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	s := NewService(gen, Config{})

	if _, err := s.GenerateProposal(context.Background(), jobs.ProposalRequest{Listing: testListing(), Resume: testResume()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text := gen.prompts[0].Text; !strings.Contains(text, "TONE: professional") || strings.Contains(text, "CUSTOM INSTRUCTIONS") {
		t.Fatalf("unexpected default prompt:\n%s", text)
	}

	_, err := s.GenerateProposal(context.Background(), jobs.ProposalRequest{Listing: testListing(), Resume: testResume(), Tone: "angry"})
	if err == nil {
		t.Fatal("expected tone validation error")
	}
	if len(gen.prompts) != 1 {
		t.Fatal("invalid tone must not reach the model")
	}
}

func TestModelsWithDefaults(t *testing.T) {
	got := Models{Score: "custom"}.WithDefaults(ClaudeModels())
	if got.Score != "custom" || got.Proposal != DefaultProposalModel || got.ScoreMaxTokens != DefaultScoreMaxTokens {
		t.Fatalf("unexpected models %+v", got)
	}
}
