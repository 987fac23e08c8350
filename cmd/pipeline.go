package cmd

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/job-aggregator/internal/filtering"
	"github.com/spigell/job-aggregator/internal/jobs"
	"github.com/spigell/job-aggregator/internal/resume"
	"github.com/spigell/job-aggregator/internal/utils"
)

const defaultFallbackMessage = "Hello! I would like to apply for this position."

func loadResume(ctx context.Context, config *Config) (*jobs.ResumeData, error) {
	if config.Resume == "" {
		return nil, errors.New("resume file is required under the resume key")
	}

	var extractor resume.Extractor = resume.FileExtractor{}
	return extractor.Extract(ctx, config.Resume)
}

// collect runs one search, filter and score pass.
func (d *deps) collect(ctx context.Context, cv *jobs.ResumeData) (*jobs.Listings, error) {
	listings := d.aggregator.SearchAllPlatforms(ctx, d.config.Search)
	d.logger.Info("got listings", zap.Int("count", listings.Len()))
	if listings.Len() == 0 {
		return listings, nil
	}

	pre := filtering.New(filtering.PreScore(d.config.Filters, d.config.ExcludeFile), d.logger)
	listings, err := pre.RunFilters(ctx, listings)
	if err != nil {
		return nil, fmt.Errorf("filtering: %w", err)
	}
	if listings.Len() == 0 {
		return listings, nil
	}

	if !d.ai.Configured() {
		d.logger.Warn("skipping scoring", zap.String("reason", "ai is not configured"))
		return listings, nil
	}

	listings = d.aggregator.CalculateMatchScores(ctx, listings, cv)

	post := filtering.New(filtering.PostScore(d.config.Filters), d.logger)
	listings, err = post.RunFilters(ctx, listings)
	if err != nil {
		return nil, fmt.Errorf("filtering scored listings: %w", err)
	}

	return listings, nil
}

// proposalFor drafts a proposal and falls back to the configured or built-in message.
func (d *deps) proposalFor(ctx context.Context, listing *jobs.Listing, cv *jobs.ResumeData) string {
	if d.ai.Configured() {
		proposal, err := d.ai.GenerateProposal(ctx, jobs.ProposalRequest{
			Listing:            listing,
			Resume:             cv,
			Tone:               jobs.Tone(d.config.Apply.Tone),
			CustomInstructions: d.config.Apply.CustomInstructions,
		})
		if err == nil && proposal != "" {
			return proposal
		}
		d.logger.Warn("using configured message instead of generated proposal",
			zap.String("job", listing.Key()),
			zap.Error(err),
		)
	}

	if d.config.Apply.Message != "" {
		return d.config.Apply.Message
	}

	d.logger.Warn("falling back to default built-in message",
		zap.String("job", listing.Key()),
		zap.String("hint", "specify message in apply section"),
	)
	return defaultFallbackMessage
}

// apply submits applications for at most apply.max-per-run listings and
// records the successful ones in the exclude file, also when interrupted.
func (d *deps) apply(ctx context.Context, listings *jobs.Listings, cv *jobs.ResumeData) (err error) {
	batch := listings.Top(d.config.Apply.MaxPerRun)
	applied := jobs.NewListings()

	defer func() {
		d.logger.Info("applications finished", zap.Int("applied", applied.Len()), zap.Int("attempted", batch.Len()))
		if recordErr := d.recordApplied(applied); recordErr != nil {
			err = errors.Join(err, recordErr)
		}
	}()

	for i, listing := range batch.Items {
		if i > 0 {
			if waitErr := utils.WaitFor(ctx, d.config.Apply.Delay); waitErr != nil {
				return waitErr
			}
		}

		resp := d.aggregator.ApplyToJob(ctx, listing, d.proposalFor(ctx, listing, cv))
		if !resp.Success {
			d.logger.Warn("application failed",
				zap.String("job", listing.Key()),
				zap.String("title", listing.Title),
				zap.String("kind", string(resp.Kind)),
				zap.String("error", resp.Error),
			)
			continue
		}

		applied.Items = append(applied.Items, listing)
		d.logger.Info("successfully applied to job",
			zap.String("job", listing.Key()),
			zap.String("title", listing.Title),
		)
	}

	return nil
}

func (d *deps) recordApplied(applied *jobs.Listings) error {
	if d.config.ExcludeFile == "" || applied.Len() == 0 {
		return nil
	}

	if err := jobs.AppendToFile(d.config.ExcludeFile, applied, jobs.ExcludeActorApplied, ""); err != nil {
		return fmt.Errorf("recording applied jobs: %w", err)
	}

	return nil
}
