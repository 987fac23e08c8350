// Package scheduler runs search cycles on a cron schedule and reports listings not seen before.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spigell/job-aggregator/internal/jobs"
	"github.com/spigell/job-aggregator/internal/logger"
)

const DefaultSchedule = "@every 6h"

// Cycle performs one search, filter and score pass.
type Cycle func(ctx context.Context) (*jobs.Listings, error)

// Notify receives the listings that appeared since the previous cycles.
type Notify func(ctx context.Context, fresh *jobs.Listings)

type Scheduler struct {
	cron    *cron.Cron
	cronLog cronLogger
	spec    string
	cycle   Cycle
	notify  Notify
	logger  *zap.Logger

	// first tracks the immediate cycle from Start, which cron.Stop does not wait for
	first sync.WaitGroup

	mu   sync.Mutex
	seen map[string]struct{}
}

func New(spec string, cycle Cycle, notify Notify, log *zap.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultSchedule
	}
	log = logger.OrNop(log)
	cronLog := cronLogger{log.Sugar()}

	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cronLog)),
		cronLog: cronLog,
		spec:    spec,
		cycle:   cycle,
		notify:  notify,
		logger:  log,
		seen:    make(map[string]struct{}),
	}
}

// Start registers the job, starts cron and runs one cycle immediately.
// The immediate cycle and cron ticks share one skip-if-still-running guard,
// so cycles never overlap.
func (s *Scheduler) Start(ctx context.Context) error {
	job := cron.NewChain(cron.SkipIfStillRunning(s.cronLog)).Then(cron.FuncJob(func() { s.RunOnce(ctx) }))

	if _, err := s.cron.AddJob(s.spec, job); err != nil {
		return fmt.Errorf("add cron job %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("schedule", s.spec))

	s.first.Add(1)
	go func() {
		defer s.first.Done()
		job.Run()
	}()

	return nil
}

// Stop stops scheduling and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.first.Wait()
	s.logger.Info("scheduler stopped")
}

// RunOnce executes one cycle and returns the listings not seen before.
func (s *Scheduler) RunOnce(ctx context.Context) *jobs.Listings {
	if ctx.Err() != nil {
		return jobs.NewListings()
	}

	found, err := s.cycle(ctx)
	if err != nil {
		s.logger.Error("watch cycle failed", zap.Error(err))
		return jobs.NewListings()
	}

	fresh := s.remember(found)
	s.logger.Info("watch cycle completed", zap.Int("found", found.Len()), zap.Int("new", fresh.Len()))

	if fresh.Len() > 0 && s.notify != nil {
		s.notify(ctx, fresh)
	}

	return fresh
}

func (s *Scheduler) remember(found *jobs.Listings) *jobs.Listings {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := jobs.NewListings()
	if found == nil {
		return fresh
	}
	for _, listing := range found.Items {
		key := listing.Key()
		if _, ok := s.seen[key]; ok {
			continue
		}
		s.seen[key] = struct{}{}
		fresh.Items = append(fresh.Items, listing)
	}
	return fresh
}

// Seed marks listings as already seen, e.g. from the exclude file.
func (s *Scheduler) Seed(keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		s.seen[key] = struct{}{}
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
