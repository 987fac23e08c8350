package filtering

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/job-aggregator/internal/jobs"
)

type excludeFileFilter struct {
	toggle
	path string
}

// NewExcludeFile creates a filter that removes listings recorded in the exclude file.
func NewExcludeFile(path string) Filter {
	f := &excludeFileFilter{path: strings.TrimSpace(path)}
	if f.path == "" {
		f.Disable(notConfigured)
	}
	return f
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Validate() error { return nil }

func (f *excludeFileFilter) Apply(_ context.Context, l *jobs.Listings) (*jobs.Listings, Step, error) {
	initial := l.Len()

	excluded, err := jobs.LoadExcludedFromFile(f.path)
	if err != nil {
		return l, Step{}, fmt.Errorf("getting excluded listings from file: %w", err)
	}

	removed := l.Exclude(excluded.Keys())
	return l, Step{Initial: initial, Dropped: len(removed), Left: l.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"path": f.path})
}
