package ai

import (
	_ "embed"
	"strings"

	"github.com/spigell/job-aggregator/internal/jobs"
)

//go:embed prompts/score.md
var scoreTemplate string

//go:embed prompts/proposal.md
var proposalTemplate string

const budgetFallback = "Not specified"

func buildScorePrompt(listing *jobs.Listing, resume *jobs.ResumeData) string {
	return render(scoreTemplate, map[string]string{
		"JOB_TITLE":         listing.Title,
		"JOB_DESCRIPTION":   listing.Description,
		"JOB_SKILLS":        strings.Join(listing.Skills, ", "),
		"RESUME_SKILLS":     strings.Join(resume.Skills, ", "),
		"RESUME_EXPERIENCE": strings.Join(resume.Positions(false), ", "),
	})
}

func buildProposalPrompt(req jobs.ProposalRequest, tone jobs.Tone) string {
	custom := ""
	if instructions := strings.TrimSpace(req.CustomInstructions); instructions != "" {
		custom = "CUSTOM INSTRUCTIONS: " + instructions
	}

	return render(proposalTemplate, map[string]string{
		"JOB_TITLE":           req.Listing.Title,
		"JOB_COMPANY":         req.Listing.Company,
		"JOB_DESCRIPTION":     req.Listing.Description,
		"JOB_SKILLS":          strings.Join(req.Listing.Skills, ", "),
		"JOB_BUDGET":          req.Listing.BudgetString(budgetFallback),
		"RESUME_NAME":         req.Resume.Name,
		"RESUME_SKILLS":       strings.Join(req.Resume.Skills, ", "),
		"RESUME_EXPERIENCE":   strings.Join(req.Resume.Positions(true), ", "),
		"TONE":                string(tone),
		"CUSTOM_INSTRUCTIONS": custom,
	})
}

func render(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.TrimSpace(strings.NewReplacer(pairs...).Replace(template))
}
