package filtering

import (
	"context"
	"strings"

	"github.com/spigell/job-aggregator/internal/jobs"
)

type remoteOnlyFilter struct {
	toggle
}

// NewRemoteOnly keeps listings whose location mentions remote work.
func NewRemoteOnly(enabled bool) Filter {
	f := &remoteOnlyFilter{}
	if !enabled {
		f.Disable(notConfigured)
	}
	return f
}

func (f *remoteOnlyFilter) Name() string { return "remote_only" }

func (f *remoteOnlyFilter) Validate() error { return nil }

func (f *remoteOnlyFilter) Apply(_ context.Context, l *jobs.Listings) (*jobs.Listings, Step, error) {
	l, step := keep(l, func(listing *jobs.Listing) bool {
		return strings.Contains(strings.ToLower(listing.Location), "remote")
	})
	return l, step, nil
}

func (f *remoteOnlyFilter) Status() Status {
	return f.status(f.Name(), nil)
}
