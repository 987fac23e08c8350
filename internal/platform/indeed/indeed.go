package indeed

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-aggregator/internal/jobs"
	"github.com/spigell/job-aggregator/internal/logger"
	"github.com/spigell/job-aggregator/internal/platform"
)

const (
	apiURL = "https://api.indeed.com/ads/apisearch"

	errSearch = "Failed to fetch jobs from Indeed"
	errApply  = "Indeed does not support direct API applications. Manual application required."
)

// skillVocabulary is scanned in order against listing snippets.
var skillVocabulary = []string{
	"JavaScript", "Python", "React", "Node.js", "TypeScript", "Java", "C++", "SQL",
	"AWS", "Docker", "Kubernetes", "Git", "HTML", "CSS", "Angular", "Vue.js",
}

type Client struct {
	*platform.Client
	APIURL       string
	publisherKey string
	logger       *zap.Logger
}

func New(log *zap.Logger, publisherKey string) *Client {
	log = logger.WithPlatform(log, string(jobs.Indeed))
	return &Client{
		Client:       platform.NewClient(log, ""),
		APIURL:       apiURL,
		publisherKey: publisherKey,
		logger:       log,
	}
}

func (c *Client) Platform() jobs.Platform { return jobs.Indeed }

func (c *Client) Configured() bool { return c.publisherKey != "" }

type searchResponse struct {
	Results []result `json:"results"`
}

type result struct {
	JobKey            string `json:"jobkey"`
	JobTitle          string `json:"jobtitle"`
	Company           string `json:"company"`
	Snippet           string `json:"snippet"`
	FormattedLocation string `json:"formattedLocation"`
	Salary            string `json:"salary"`
	Date              string `json:"date"`
	URL               string `json:"url"`
}

func (c *Client) SearchJobs(ctx context.Context, filters *jobs.SearchFilters) jobs.Response[[]*jobs.Listing] {
	if !c.Configured() {
		return jobs.NotConfigured[[]*jobs.Listing](jobs.Indeed)
	}

	var raw map[string]any
	if err := c.GetJSON(ctx, c.APIURL, c.buildParams(filters), nil, &raw); err != nil {
		c.logger.Warn("indeed search failed", zap.Error(err))
		return jobs.Fail[[]*jobs.Listing](jobs.KindTransportFailure, errSearch)
	}

	var resp searchResponse
	if err := platform.Decode(raw, &resp); err != nil {
		c.logger.Warn("decoding indeed results failed", zap.Error(err))
		return jobs.Fail[[]*jobs.Listing](jobs.KindTransportFailure, errSearch)
	}

	listings := make([]*jobs.Listing, 0, len(resp.Results))
	for _, r := range resp.Results {
		listings = append(listings, r.toListing())
	}

	c.logger.Debug("got indeed jobs", zap.Int("count", len(listings)))
	return jobs.OK(listings)
}

func (r result) toListing() *jobs.Listing {
	listing := &jobs.Listing{
		ID:          r.JobKey,
		Title:       r.JobTitle,
		Company:     r.Company,
		Description: r.Snippet,
		Location:    r.FormattedLocation,
		Skills:      ExtractSkills(r.Snippet),
		PostedAt:    jobs.ParseTime(r.Date),
		Platform:    jobs.Indeed,
		URL:         r.URL,
	}
	if strings.TrimSpace(r.Salary) != "" {
		listing.Budget = jobs.StringPtr(r.Salary)
	}
	return listing
}

func (c *Client) buildParams(filters *jobs.SearchFilters) url.Values {
	jobType := "all"
	location := ""
	if filters != nil {
		if filters.JobType != "" {
			jobType = filters.JobType
		}
		location = filters.Location
	}

	q := url.Values{}
	q.Set("publisher", c.publisherKey)
	q.Set("q", filters.Query())
	q.Set("l", location)
	q.Set("sort", "date")
	q.Set("radius", "25")
	q.Set("st", "jobsite")
	q.Set("jt", jobType)
	q.Set("start", "0")
	q.Set("limit", "25")
	// only postings from the last week
	q.Set("fromage", "7")
	q.Set("format", "json")
	q.Set("v", "2")
	return q
}

// ApplyToJob always fails: Indeed has no application API.
func (c *Client) ApplyToJob(_ context.Context, _, _ string) jobs.Response[bool] {
	return jobs.Fail[bool](jobs.KindUnsupported, errApply)
}

// ExtractSkills returns vocabulary terms found in text as case-insensitive substrings.
func ExtractSkills(text string) []string {
	lower := strings.ToLower(text)
	skills := []string{}
	for _, skill := range skillVocabulary {
		if strings.Contains(lower, strings.ToLower(skill)) {
			skills = append(skills, skill)
		}
	}
	return skills
}
