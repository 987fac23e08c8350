package filtering

import (
	"context"
	"strings"

	"github.com/spigell/job-aggregator/internal/jobs"
)

type companiesFilter struct {
	toggle
	companies map[string]struct{}
	names     []string
}

// NewExcludedCompanies drops listings by company name, ignoring case.
func NewExcludedCompanies(companies []string) Filter {
	f := &companiesFilter{companies: make(map[string]struct{})}
	for _, company := range normalize(companies) {
		f.companies[company] = struct{}{}
		f.names = append(f.names, company)
	}
	if len(f.names) == 0 {
		f.Disable(notConfigured)
	}
	return f
}

func (f *companiesFilter) Name() string { return "excluded_companies" }

func (f *companiesFilter) Validate() error { return nil }

func (f *companiesFilter) Apply(_ context.Context, l *jobs.Listings) (*jobs.Listings, Step, error) {
	l, step := keep(l, func(listing *jobs.Listing) bool {
		_, excluded := f.companies[strings.ToLower(strings.TrimSpace(listing.Company))]
		return !excluded
	})
	return l, step, nil
}

func (f *companiesFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"companies": strings.Join(f.names, ",")})
}
