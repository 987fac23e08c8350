package filtering

import (
	"context"
	"time"

	"github.com/spigell/job-aggregator/internal/jobs"
)

type maxAgeFilter struct {
	toggle
	maxAge time.Duration
	now    func() time.Time
}

// NewMaxAge keeps listings posted within maxAge. Undated listings are kept.
func NewMaxAge(maxAge time.Duration, now func() time.Time) Filter {
	if now == nil {
		now = time.Now
	}
	f := &maxAgeFilter{maxAge: maxAge, now: now}
	if maxAge <= 0 {
		f.Disable(notConfigured)
	}
	return f
}

func (f *maxAgeFilter) Name() string { return "max_age" }

func (f *maxAgeFilter) Validate() error { return nil }

func (f *maxAgeFilter) Apply(_ context.Context, l *jobs.Listings) (*jobs.Listings, Step, error) {
	cutoff := f.now().Add(-f.maxAge)
	l, step := keep(l, func(listing *jobs.Listing) bool {
		return listing.PostedAt.IsZero() || !listing.PostedAt.Before(cutoff)
	})
	return l, step, nil
}

func (f *maxAgeFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"max_age": f.maxAge.String()})
}
