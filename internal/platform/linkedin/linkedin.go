package linkedin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-aggregator/internal/jobs"
	"github.com/spigell/job-aggregator/internal/logger"
	"github.com/spigell/job-aggregator/internal/platform"
)

const (
	apiURL       = "https://api.linkedin.com/v2"
	authorizeURL = "https://www.linkedin.com/oauth/v2/authorization"
	jobViewURL   = "https://www.linkedin.com/jobs/view/"
	searchPath   = "/jobSearch"
	oauthScope   = "r_liteprofile r_emailaddress w_member_social"
	pageSize     = "25"

	restliHeader  = "X-Restli-Protocol-Version"
	restliVersion = "2.0.0"

	errSearch = "Failed to fetch jobs from LinkedIn"
	errApply  = "Failed to submit application to LinkedIn"
)

type Credentials struct {
	ClientID    string
	AccessToken string
}

type Client struct {
	*platform.Client
	APIURL string
	creds  Credentials
	logger *zap.Logger
}

func New(log *zap.Logger, creds Credentials) *Client {
	log = logger.WithPlatform(log, string(jobs.LinkedIn))
	return &Client{
		Client: platform.NewClient(log, ""),
		APIURL: apiURL,
		creds:  creds,
		logger: log,
	}
}

func (c *Client) Platform() jobs.Platform { return jobs.LinkedIn }

func (c *Client) Configured() bool { return c.creds.AccessToken != "" }

type searchResponse struct {
	Elements []element `json:"elements"`
}

type element struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	FormattedLocation string   `json:"formattedLocation"`
	Skills            []string `json:"skillsFromDescription"`
	ListedAt          int64    `json:"listedAt"`
	Description       struct {
		Text string `json:"text"`
	} `json:"description"`
	CompanyDetails struct {
		Company struct {
			Name string `json:"name"`
		} `json:"company"`
	} `json:"companyDetails"`
}

func (c *Client) headers() http.Header {
	h := platform.Bearer(c.creds.AccessToken)
	h.Set(restliHeader, restliVersion)
	return h
}

func (c *Client) SearchJobs(ctx context.Context, filters *jobs.SearchFilters) jobs.Response[[]*jobs.Listing] {
	if !c.Configured() {
		return jobs.NotConfigured[[]*jobs.Listing](jobs.LinkedIn)
	}

	var raw map[string]any
	if err := c.GetJSON(ctx, c.APIURL+searchPath, buildParams(filters), c.headers(), &raw); err != nil {
		c.logger.Warn("linkedin search failed", zap.Error(err))
		return jobs.Fail[[]*jobs.Listing](jobs.KindTransportFailure, errSearch)
	}

	var resp searchResponse
	if err := platform.Decode(raw, &resp); err != nil {
		c.logger.Warn("decoding linkedin elements failed", zap.Error(err))
		return jobs.Fail[[]*jobs.Listing](jobs.KindTransportFailure, errSearch)
	}

	listings := make([]*jobs.Listing, 0, len(resp.Elements))
	for _, e := range resp.Elements {
		listings = append(listings, e.toListing())
	}

	c.logger.Debug("got linkedin jobs", zap.Int("count", len(listings)))
	return jobs.OK(listings)
}

func (e element) toListing() *jobs.Listing {
	skills := e.Skills
	if skills == nil {
		skills = []string{}
	}
	return &jobs.Listing{
		ID:          e.ID,
		Title:       e.Title,
		Company:     e.CompanyDetails.Company.Name,
		Description: e.Description.Text,
		Location:    e.FormattedLocation,
		Skills:      skills,
		PostedAt:    jobs.FromUnixMilli(e.ListedAt),
		Platform:    jobs.LinkedIn,
		URL:         jobViewURL + e.ID,
	}
}

func buildParams(filters *jobs.SearchFilters) url.Values {
	q := url.Values{}
	q.Set("keywords", filters.Query())
	if filters != nil {
		if filters.Location != "" {
			q.Set("locationId", filters.Location)
		}
		if filters.ExperienceLevel != "" {
			q.Set("experienceLevel", filters.ExperienceLevel)
		}
	}
	q.Set("count", pageSize)
	q.Set("start", "0")
	return q
}

func (c *Client) ApplyToJob(ctx context.Context, jobID, proposal string) jobs.Response[bool] {
	if !c.Configured() {
		return jobs.NotConfigured[bool](jobs.LinkedIn)
	}

	endpoint := fmt.Sprintf("%s/simpleJobPostings/%s/jobApplications", c.APIURL, url.PathEscape(jobID))
	payload := map[string]string{"coverLetter": proposal}

	if err := c.PostJSON(ctx, endpoint, c.headers(), payload); err != nil {
		c.logger.Warn("linkedin application failed", zap.String("job_id", jobID), zap.Error(err))
		return jobs.Fail[bool](jobs.KindTransportFailure, errApply)
	}

	return jobs.OK(true)
}

// AuthURL builds the OAuth authorize URL for the configured client id.
func (c *Client) AuthURL(redirectURI string) (string, error) {
	if c.creds.ClientID == "" {
		return "", errors.New("linkedin client id is not configured")
	}
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.creds.ClientID)
	q.Set("redirect_uri", strings.TrimSpace(redirectURI))
	q.Set("scope", oauthScope)
	return authorizeURL + "?" + q.Encode(), nil
}
