package filtering

import (
	"context"
	"errors"
	"strings"

	"github.com/spigell/job-aggregator/internal/jobs"
)

type keywordsFilter struct {
	toggle
	name     string
	terms    []string
	required bool
}

// NewExcludedKeywords drops listings mentioning any of the terms.
func NewExcludedKeywords(terms []string) Filter {
	return newKeywords("excluded_keywords", terms, false)
}

// NewRequiredKeywords keeps listings mentioning at least one of the terms.
func NewRequiredKeywords(terms []string) Filter {
	return newKeywords("required_keywords", terms, true)
}

func newKeywords(name string, terms []string, required bool) *keywordsFilter {
	f := &keywordsFilter{name: name, terms: normalize(terms), required: required}
	if len(f.terms) == 0 {
		f.Disable(notConfigured)
	}
	return f
}

func (f *keywordsFilter) Name() string { return f.name }

func (f *keywordsFilter) Validate() error {
	if len(f.terms) == 0 {
		return errors.New("at least one keyword is required")
	}
	return nil
}

func (f *keywordsFilter) Apply(_ context.Context, l *jobs.Listings) (*jobs.Listings, Step, error) {
	l, step := keep(l, func(listing *jobs.Listing) bool {
		return mentionsAny(searchable(listing), f.terms) == f.required
	})
	return l, step, nil
}

func (f *keywordsFilter) Status() Status {
	return f.status(f.name, map[string]string{"keywords": strings.Join(f.terms, ",")})
}

func searchable(listing *jobs.Listing) string {
	return strings.ToLower(listing.Title + " " + listing.Company + " " + listing.Description)
}

func mentionsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// normalize lowercases, trims and drops empty terms.
func normalize(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			out = append(out, term)
		}
	}
	return out
}
