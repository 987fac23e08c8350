package filtering

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/job-aggregator/internal/jobs"
)

var amountPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([kK])?`)

type minBudgetFilter struct {
	toggle
	minimum float64
}

// NewMinBudget drops listings whose budget is below minimum. Listings without a budget are kept.
func NewMinBudget(minimum float64) Filter {
	f := &minBudgetFilter{minimum: minimum}
	if minimum <= 0 {
		f.Disable(notConfigured)
	}
	return f
}

func (f *minBudgetFilter) Name() string { return "min_budget" }

func (f *minBudgetFilter) Validate() error {
	if f.minimum <= 0 {
		return errors.New("minimum budget must be positive")
	}
	return nil
}

func (f *minBudgetFilter) Apply(_ context.Context, l *jobs.Listings) (*jobs.Listings, Step, error) {
	l, step := keep(l, func(listing *jobs.Listing) bool {
		amount, ok := ParseBudget(listing.BudgetString(""))
		return !ok || amount >= f.minimum
	})
	return l, step, nil
}

func (f *minBudgetFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"minimum": strconv.FormatFloat(f.minimum, 'f', -1, 64)})
}

// ParseBudget reads the first amount of a free-form budget such as "$40/hr",
// "$1,500" or "$90k - $120k".
func ParseBudget(budget string) (float64, bool) {
	match := amountPattern.FindStringSubmatch(strings.ReplaceAll(budget, ",", ""))
	if match == nil {
		return 0, false
	}
	amount, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	if match[2] != "" {
		amount *= 1000
	}
	return amount, true
}
