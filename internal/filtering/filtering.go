package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/job-aggregator/internal/jobs"
	"github.com/spigell/job-aggregator/internal/logger"
)

// Filter represents a single filtering step applied to listings.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate() error
	Apply(ctx context.Context, l *jobs.Listings) (*jobs.Listings, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

type Filtering struct {
	steps  []Filter
	logger *zap.Logger
}

func New(steps []Filter, log *zap.Logger) *Filtering {
	return &Filtering{steps: steps, logger: logger.OrNop(log)}
}

func (f *Filtering) Steps() []Filter {
	return f.steps
}

// RunFilters validates every enabled step and then applies them in order.
func (f *Filtering) RunFilters(ctx context.Context, l *jobs.Listings) (*jobs.Listings, error) {
	for _, step := range f.steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	if l == nil {
		l = jobs.NewListings()
	}

	for _, step := range f.steps {
		if !step.IsEnabled() {
			f.logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, l)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		f.logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		l = next
	}

	return l, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// toggle carries the enabled state shared by all filters.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func (t *toggle) status(name string, details map[string]string) Status {
	return Status{Name: name, Enabled: !t.disabled, Reason: t.reason, Details: details}
}

// keep applies a predicate filter and fills in the Step.
func keep(l *jobs.Listings, pred func(*jobs.Listing) bool) (*jobs.Listings, Step) {
	initial := l.Len()
	dropped := l.Keep(pred)
	return l, Step{Initial: initial, Dropped: len(dropped), Left: l.Len()}
}
