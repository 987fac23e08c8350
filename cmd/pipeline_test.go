package cmd

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-aggregator/internal/aggregator"
	"github.com/spigell/job-aggregator/internal/ai"
	"github.com/spigell/job-aggregator/internal/jobs"
	"github.com/spigell/job-aggregator/internal/platform"
)

// cancellingAdapter accepts every application and cancels the run after the first one.
type cancellingAdapter struct {
	cancel  context.CancelFunc
	applied []string
}

func (c *cancellingAdapter) Platform() jobs.Platform { return jobs.Upwork }

func (c *cancellingAdapter) Configured() bool { return true }

func (c *cancellingAdapter) SearchJobs(context.Context, *jobs.SearchFilters) jobs.Response[[]*jobs.Listing] {
	return jobs.OK([]*jobs.Listing{})
}

func (c *cancellingAdapter) ApplyToJob(_ context.Context, jobID, _ string) jobs.Response[bool] {
	c.applied = append(c.applied, jobID)
	c.cancel()
	return jobs.OK(true)
}

func testDeps(config *Config, adapters ...platform.Adapter) *deps {
	log := zap.NewNop()
	return &deps{
		config:     config,
		logger:     log,
		ai:         ai.NewService(nil, ai.Config{Logger: log}),
		aggregator: aggregator.New(adapters, nil, log, aggregator.Options{}),
	}
}

func TestApplyRecordsSuccessesWhenInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := emptyConfig()
	config.ExcludeFile = filepath.Join(t.TempDir(), "exclude.json")
	config.Apply.Delay = time.Hour
	config.Apply.Message = "hello"

	adapter := &cancellingAdapter{cancel: cancel}
	d := testDeps(config, adapter)

	listings := jobs.NewListings(
		&jobs.Listing{ID: "1", Title: "Go", Platform: jobs.Upwork},
		&jobs.Listing{ID: "2", Title: "Rust", Platform: jobs.Upwork},
	)

	err := d.apply(ctx, listings, &jobs.ResumeData{Name: "Jane"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(adapter.applied) != 1 {
		t.Fatalf("expected one application before cancel, got %v", adapter.applied)
	}

	excluded, err := jobs.LoadExcludedFromFile(config.ExcludeFile)
	if err != nil {
		t.Fatalf("reading exclude file: %v", err)
	}
	keys := excluded.Keys()
	if len(keys) != 1 || keys[0] != "upwork:1" {
		t.Fatalf("expected the applied job in the exclude file, got %v", keys)
	}
}

func TestApplyRespectsMaxPerRun(t *testing.T) {
	config := emptyConfig()
	config.Apply.MaxPerRun = 1

	adapter := &cancellingAdapter{cancel: func() {}}
	d := testDeps(config, adapter)

	listings := jobs.NewListings(
		&jobs.Listing{ID: "1", Platform: jobs.Upwork},
		&jobs.Listing{ID: "2", Platform: jobs.Upwork},
	)

	if err := d.apply(context.Background(), listings, &jobs.ResumeData{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(adapter.applied) != 1 || adapter.applied[0] != "1" {
		t.Fatalf("expected only the first job, got %v", adapter.applied)
	}
}
