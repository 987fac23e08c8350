// Package platform defines the job board adapter contract and the HTTP plumbing shared by adapters.
package platform

import (
	"context"

	"github.com/spigell/job-aggregator/internal/jobs"
)

// Adapter wraps one external job board API.
// Implementations never return Go errors: failures are reported in the Response envelope.
type Adapter interface {
	Platform() jobs.Platform
	Configured() bool
	SearchJobs(ctx context.Context, filters *jobs.SearchFilters) jobs.Response[[]*jobs.Listing]
	ApplyToJob(ctx context.Context, jobID, proposal string) jobs.Response[bool]
}

// Authorizer is implemented by adapters that sign users in with OAuth.
type Authorizer interface {
	AuthURL(redirectURI string) (string, error)
}

// Status describes adapter readiness for status reports.
type Status struct {
	Platform   jobs.Platform `json:"platform"`
	Configured bool          `json:"configured"`
}

func Describe(adapters []Adapter) []Status {
	statuses := make([]Status, 0, len(adapters))
	for _, adapter := range adapters {
		statuses = append(statuses, Status{
			Platform:   adapter.Platform(),
			Configured: adapter.Configured(),
		})
	}
	return statuses
}
