// Package aggregator fans searches out to every platform adapter, merges and
// ranks the results and routes applications back to the owning platform.
package aggregator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/job-aggregator/internal/jobs"
	"github.com/spigell/job-aggregator/internal/logger"
	"github.com/spigell/job-aggregator/internal/metrics"
	"github.com/spigell/job-aggregator/internal/platform"
)

const errUnsupportedPlatform = "Unsupported platform"

// Scorer rates a listing against a resume.
type Scorer interface {
	CalculateMatchScore(ctx context.Context, listing *jobs.Listing, resume *jobs.ResumeData) (int, error)
}

type DedupKey string

const (
	DedupTitleCompany DedupKey = "title-company"
	DedupPlatformID   DedupKey = "platform-id"
	DedupURL          DedupKey = "url"
)

func ParseDedupKey(s string) (DedupKey, error) {
	switch key := DedupKey(strings.ToLower(strings.TrimSpace(s))); key {
	case "":
		return DedupTitleCompany, nil
	case DedupTitleCompany, DedupPlatformID, DedupURL:
		return key, nil
	default:
		return "", fmt.Errorf("unsupported dedup key %q: use title-company, platform-id or url", s)
	}
}

type Options struct {
	// CallTimeout bounds every adapter and scoring call. Zero means no timeout.
	CallTimeout      time.Duration
	DedupKey         DedupKey
	ScoreConcurrency int
	Metrics          *metrics.Recorder
}

type Aggregator struct {
	adapters []platform.Adapter
	byName   map[jobs.Platform]platform.Adapter
	scorer   Scorer
	opts     Options
	logger   *zap.Logger
}

// New keeps adapters in the given order. That order decides which duplicate survives.
func New(adapters []platform.Adapter, scorer Scorer, log *zap.Logger, opts Options) *Aggregator {
	if opts.DedupKey == "" {
		opts.DedupKey = DedupTitleCompany
	}

	byName := make(map[jobs.Platform]platform.Adapter, len(adapters))
	for _, adapter := range adapters {
		if _, ok := byName[adapter.Platform()]; !ok {
			byName[adapter.Platform()] = adapter
		}
	}

	return &Aggregator{
		adapters: adapters,
		byName:   byName,
		scorer:   scorer,
		opts:     opts,
		logger:   logger.OrNop(log),
	}
}

func (a *Aggregator) Platforms() []platform.Status {
	return platform.Describe(a.adapters)
}

// SearchAllPlatforms queries every adapter concurrently and waits for all of them.
// Failed platforms are logged and contribute nothing.
func (a *Aggregator) SearchAllPlatforms(ctx context.Context, filters *jobs.SearchFilters) *jobs.Listings {
	log := a.logger.With(zap.String(logger.FieldCycle, shortuuid.New()))

	results := make([][]*jobs.Listing, len(a.adapters))

	var eg errgroup.Group
	for i, adapter := range a.adapters {
		eg.Go(func() error {
			results[i] = a.search(ctx, log, adapter, filters)
			return nil
		})
	}
	_ = eg.Wait()

	var all []*jobs.Listing
	for _, listings := range results {
		all = append(all, listings...)
	}

	unique := a.dedupe(all)
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].PostedAt.After(unique[j].PostedAt)
	})

	log.Info("search completed",
		zap.Int("platforms", len(a.adapters)),
		zap.Int("found", len(all)),
		zap.Int("unique", len(unique)),
	)

	return jobs.NewListings(unique...)
}

func (a *Aggregator) search(ctx context.Context, log *zap.Logger, adapter platform.Adapter, filters *jobs.SearchFilters) (listings []*jobs.Listing) {
	name := adapter.Platform()
	log = logger.WithPlatform(log, string(name))

	defer func() {
		if r := recover(); r != nil {
			log.Error("platform search rejected", zap.Any("panic", r))
			a.opts.Metrics.Search(string(name), metrics.OutcomeRejected)
			listings = nil
		}
	}()

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	resp := adapter.SearchJobs(ctx, filters)
	if !resp.Success {
		log.Warn(fmt.Sprintf("Failed to fetch jobs from %s", name.Title()),
			zap.String("error", resp.Error),
			zap.String("kind", string(resp.Kind)),
		)
		a.opts.Metrics.Search(string(name), metrics.OutcomeFailure)
		return nil
	}

	a.opts.Metrics.Search(string(name), metrics.OutcomeSuccess)
	log.Debug("platform search succeeded", zap.Int("count", len(resp.Data)))
	return resp.Data
}

func (a *Aggregator) dedupe(listings []*jobs.Listing) []*jobs.Listing {
	seen := make(map[string]struct{}, len(listings))
	unique := make([]*jobs.Listing, 0, len(listings))
	for _, listing := range listings {
		if listing == nil {
			continue
		}
		key := a.dedupKey(listing)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, listing)
	}
	return unique
}

func (a *Aggregator) dedupKey(listing *jobs.Listing) string {
	switch a.opts.DedupKey {
	case DedupPlatformID:
		return listing.Key()
	case DedupURL:
		// listings without a url fall back to their platform id
		if listing.URL == "" {
			return listing.Key()
		}
		return listing.URL
	default:
		return strings.ToLower(listing.Title) + "-" + strings.ToLower(listing.Company)
	}
}

// CalculateMatchScores scores copies of every listing and returns them best first.
// A failed score is recorded as 0 for that listing only. Nil entries are skipped.
func (a *Aggregator) CalculateMatchScores(ctx context.Context, listings *jobs.Listings, resume *jobs.ResumeData) *jobs.Listings {
	if listings.Len() == 0 {
		return jobs.NewListings()
	}

	items := make([]*jobs.Listing, 0, listings.Len())
	for _, listing := range listings.Items {
		if listing != nil {
			items = append(items, listing)
		}
	}

	scored := make([]*jobs.Listing, len(items))

	var eg errgroup.Group
	if a.opts.ScoreConcurrency > 0 {
		eg.SetLimit(a.opts.ScoreConcurrency)
	}
	for i, listing := range items {
		eg.Go(func() error {
			cp := *listing
			score := a.score(ctx, &cp, resume)
			cp.MatchScore = &score
			scored[i] = &cp
			return nil
		})
	}
	_ = eg.Wait()

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score() > scored[j].Score()
	})

	return jobs.NewListings(scored...)
}

func (a *Aggregator) score(ctx context.Context, listing *jobs.Listing, resume *jobs.ResumeData) (score int) {
	log := a.logger.With(zap.String(logger.FieldJob, listing.Key()))

	defer func() {
		if r := recover(); r != nil {
			log.Error("scoring rejected", zap.Any("panic", r))
			a.opts.Metrics.Score(metrics.OutcomeRejected)
			score = 0
		}
	}()

	if a.scorer == nil {
		a.opts.Metrics.Score(metrics.OutcomeFailure)
		return 0
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	score, err := a.scorer.CalculateMatchScore(ctx, listing, resume)
	if err != nil {
		log.Warn("error calculating match score", zap.String("job_id", listing.ID), zap.Error(err))
		a.opts.Metrics.Score(metrics.OutcomeFailure)
		return 0
	}

	a.opts.Metrics.Score(metrics.OutcomeSuccess)
	return score
}

// ApplyToJob forwards the application to the adapter of the listing's platform
// and returns its envelope unchanged.
func (a *Aggregator) ApplyToJob(ctx context.Context, listing *jobs.Listing, proposal string) jobs.Response[bool] {
	if listing == nil {
		return jobs.Fail[bool](jobs.KindUnsupported, errUnsupportedPlatform)
	}

	adapter, ok := a.byName[listing.Platform]
	if !ok {
		a.logger.Warn("unsupported platform", zap.String(logger.FieldPlatform, string(listing.Platform)))
		// the platform comes from the caller, keep label values bounded
		a.opts.Metrics.Apply(metrics.PlatformUnknown, metrics.OutcomeFailure)
		return jobs.Fail[bool](jobs.KindUnsupported, errUnsupportedPlatform)
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	resp := adapter.ApplyToJob(ctx, listing.ID, proposal)
	outcome := metrics.OutcomeSuccess
	if !resp.Success {
		outcome = metrics.OutcomeFailure
	}
	a.opts.Metrics.Apply(string(listing.Platform), outcome)

	return resp
}

// AuthURL returns the OAuth authorize URL of a platform that supports sign-in.
func (a *Aggregator) AuthURL(name jobs.Platform, redirectURI string) jobs.Response[string] {
	adapter, ok := a.byName[name]
	if !ok {
		return jobs.Fail[string](jobs.KindUnsupported, errUnsupportedPlatform)
	}

	authorizer, ok := adapter.(platform.Authorizer)
	if !ok {
		return jobs.Fail[string](jobs.KindUnsupported, fmt.Sprintf("%s does not support OAuth sign-in", name.Title()))
	}

	authURL, err := authorizer.AuthURL(redirectURI)
	if err != nil {
		a.logger.Warn("building auth url failed", zap.String(logger.FieldPlatform, string(name)), zap.Error(err))
		return jobs.Fail[string](jobs.KindConfigurationMissing, fmt.Sprintf("%s API credentials not configured", name.Title()))
	}

	return jobs.OK(authURL)
}

func (a *Aggregator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.opts.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.opts.CallTimeout)
}
