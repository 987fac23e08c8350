package filtering

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spigell/job-aggregator/internal/jobs"
)

type minScoreFilter struct {
	toggle
	minimum int
}

// NewMinMatchScore drops scored listings below minimum. It must run after scoring.
func NewMinMatchScore(minimum int) Filter {
	f := &minScoreFilter{minimum: minimum}
	if minimum <= 0 {
		f.Disable(notConfigured)
	}
	return f
}

func (f *minScoreFilter) Name() string { return "min_match_score" }

func (f *minScoreFilter) Validate() error {
	if f.minimum < 0 || f.minimum > 100 {
		return fmt.Errorf("minimum match score %d is outside 0-100", f.minimum)
	}
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, l *jobs.Listings) (*jobs.Listings, Step, error) {
	l, step := keep(l, func(listing *jobs.Listing) bool {
		return listing.Score() >= f.minimum
	})
	return l, step, nil
}

func (f *minScoreFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"minimum": strconv.Itoa(f.minimum)})
}
