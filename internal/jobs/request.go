package jobs

import (
	"fmt"
	"strings"
)

// SearchFilters is handed to every adapter. Adapters read only the fields they understand.
type SearchFilters struct {
	Keywords        []string `json:"keywords" mapstructure:"keywords"`
	Location        string   `json:"location,omitempty" mapstructure:"location"`
	MinBudget       *float64 `json:"minBudget,omitempty" mapstructure:"min-budget"`
	MaxBudget       *float64 `json:"maxBudget,omitempty" mapstructure:"max-budget"`
	JobType         string   `json:"jobType,omitempty" mapstructure:"job-type"`
	ExperienceLevel string   `json:"experienceLevel,omitempty" mapstructure:"experience-level"`
}

// Query joins keywords the way every platform expects them.
func (f *SearchFilters) Query() string {
	if f == nil {
		return ""
	}
	return strings.Join(f.Keywords, " ")
}

type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneCasual       Tone = "casual"
	TonePersuasive   Tone = "persuasive"
)

// ParseTone validates a tone. An empty value means professional.
func ParseTone(s string) (Tone, error) {
	switch tone := Tone(strings.ToLower(strings.TrimSpace(s))); tone {
	case "":
		return ToneProfessional, nil
	case ToneProfessional, ToneCasual, TonePersuasive:
		return tone, nil
	default:
		return "", fmt.Errorf("unsupported tone %q: use professional, casual or persuasive", s)
	}
}

type ProposalRequest struct {
	Listing            *Listing    `json:"jobListing"`
	Resume             *ResumeData `json:"resumeData"`
	Tone               Tone        `json:"tone"`
	CustomInstructions string      `json:"customInstructions,omitempty"`
}
