package upwork

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-aggregator/internal/jobs"
	"github.com/spigell/job-aggregator/internal/logger"
	"github.com/spigell/job-aggregator/internal/platform"
)

const (
	apiURL       = "https://www.upwork.com/api"
	authorizeURL = "https://www.upwork.com/api/auth/v1/oauth/authorize"
	searchPath   = "/profiles/v1/search/jobs"
	applyPath    = "/hr/v2/applications"
	userAgent    = "AutoApply AI"

	errSearch = "Failed to fetch jobs from Upwork"
	errApply  = "Failed to submit application to Upwork"
)

type Credentials struct {
	APIKey      string
	AccessToken string
}

type Client struct {
	*platform.Client
	APIURL string
	creds  Credentials
	logger *zap.Logger
}

func New(log *zap.Logger, creds Credentials) *Client {
	log = logger.WithPlatform(log, string(jobs.Upwork))
	return &Client{
		Client: platform.NewClient(log, userAgent),
		APIURL: apiURL,
		creds:  creds,
		logger: log,
	}
}

func (c *Client) Platform() jobs.Platform { return jobs.Upwork }

func (c *Client) Configured() bool {
	return c.creds.APIKey != "" && c.creds.AccessToken != ""
}

type searchResponse struct {
	Jobs []job `json:"jobs"`
}

type job struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Budget      float64  `json:"budget"`
	Skills      []string `json:"skills"`
	DateCreated string   `json:"date_created"`
	URL         string   `json:"url"`
	Client      struct {
		CompanyName string `json:"company_name"`
		Location    struct {
			Country string `json:"country"`
		} `json:"location"`
	} `json:"client"`
}

func (c *Client) SearchJobs(ctx context.Context, filters *jobs.SearchFilters) jobs.Response[[]*jobs.Listing] {
	if !c.Configured() {
		return jobs.NotConfigured[[]*jobs.Listing](jobs.Upwork)
	}

	var raw map[string]any
	if err := c.GetJSON(ctx, c.APIURL+searchPath, buildParams(filters), platform.Bearer(c.creds.AccessToken), &raw); err != nil {
		c.logger.Warn("upwork search failed", zap.Error(err))
		return jobs.Fail[[]*jobs.Listing](jobs.KindTransportFailure, errSearch)
	}

	var resp searchResponse
	if err := platform.Decode(raw, &resp); err != nil {
		c.logger.Warn("decoding upwork jobs failed", zap.Error(err))
		return jobs.Fail[[]*jobs.Listing](jobs.KindTransportFailure, errSearch)
	}

	listings := make([]*jobs.Listing, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		listings = append(listings, j.toListing())
	}

	c.logger.Debug("got upwork jobs", zap.Int("count", len(listings)))
	return jobs.OK(listings)
}

func (j job) toListing() *jobs.Listing {
	listing := &jobs.Listing{
		ID:          j.ID,
		Title:       j.Title,
		Company:     j.Client.CompanyName,
		Description: j.Description,
		Location:    j.Client.Location.Country,
		Skills:      j.Skills,
		PostedAt:    jobs.ParseTime(j.DateCreated),
		Platform:    jobs.Upwork,
		URL:         j.URL,
	}
	if listing.Skills == nil {
		listing.Skills = []string{}
	}
	if j.Budget != 0 {
		listing.Budget = jobs.StringPtr("$" + strconv.FormatFloat(j.Budget, 'f', -1, 64) + "/hr")
	}
	return listing
}

func buildParams(filters *jobs.SearchFilters) url.Values {
	q := url.Values{}
	q.Set("q", filters.Query())
	if filters != nil {
		if filters.Location != "" {
			q.Set("location", filters.Location)
		}
		if filters.MinBudget != nil && *filters.MinBudget != 0 {
			q.Set("budget_min", strconv.FormatFloat(*filters.MinBudget, 'f', -1, 64))
		}
		if filters.MaxBudget != nil && *filters.MaxBudget != 0 {
			q.Set("budget_max", strconv.FormatFloat(*filters.MaxBudget, 'f', -1, 64))
		}
		if filters.JobType != "" {
			q.Set("job_type", filters.JobType)
		}
	}
	q.Set("sort", "recency")
	return q
}

func (c *Client) ApplyToJob(ctx context.Context, jobID, proposal string) jobs.Response[bool] {
	if !c.Configured() {
		return jobs.NotConfigured[bool](jobs.Upwork)
	}

	payload := map[string]string{
		"job_id":       jobID,
		"cover_letter": proposal,
	}

	if err := c.PostJSON(ctx, c.APIURL+applyPath, platform.Bearer(c.creds.AccessToken), payload); err != nil {
		c.logger.Warn("upwork application failed", zap.String("job_id", jobID), zap.Error(err))
		return jobs.Fail[bool](jobs.KindTransportFailure, errApply)
	}

	return jobs.OK(true)
}

// AuthURL builds the OAuth authorize URL. The API key doubles as the client id.
func (c *Client) AuthURL(redirectURI string) (string, error) {
	if c.creds.APIKey == "" {
		return "", errors.New("upwork api key is not configured")
	}
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.creds.APIKey)
	q.Set("redirect_uri", strings.TrimSpace(redirectURI))
	return authorizeURL + "?" + q.Encode(), nil
}
