package linkedin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-aggregator/internal/jobs"
)

type countingTransport struct {
	calls atomic.Int32
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return nil, io.ErrUnexpectedEOF
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(zap.NewNop(), Credentials{ClientID: "cid", AccessToken: "token"})
	c.APIURL = srv.URL
	c.HTTPClient = srv.Client()
	return c
}

func TestSearchJobsMapsElements(t *testing.T) {
	listedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != searchPath {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("keywords") != "golang" || q.Get("locationId") != "berlin" {
			t.Errorf("unexpected query %v", q)
		}
		if q.Get("count") != "25" || q.Get("start") != "0" {
			t.Errorf("unexpected paging %v", q)
		}
		if got := r.Header.Get(restliHeader); got != restliVersion {
			t.Errorf("unexpected restli header %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("unexpected authorization %q", got)
		}
		body := map[string]any{
			"elements": []map[string]any{{
				"id":                    987,
				"title":                 "Backend Engineer",
				"formattedLocation":     "Berlin, Germany",
				"skillsFromDescription": []string{"Go", "SQL"},
				"listedAt":              listedAt.UnixMilli(),
				"description":           map[string]any{"text": "Build things"},
				"companyDetails":        map[string]any{"company": map[string]any{"name": "Initech"}},
			}},
		}
		_ = json.NewEncoder(w).Encode(body)
	})

	resp := c.SearchJobs(context.Background(), &jobs.SearchFilters{Keywords: []string{"golang"}, Location: "berlin"})
	if !resp.Success || len(resp.Data) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	got := resp.Data[0]
	if got.ID != "987" || got.Company != "Initech" || got.Description != "Build things" {
		t.Fatalf("unexpected listing: %+v", got)
	}
	if got.URL != "https://www.linkedin.com/jobs/view/987" {
		t.Fatalf("unexpected url %q", got.URL)
	}
	if !got.PostedAt.Equal(listedAt) {
		t.Fatalf("expected %s, got %s", listedAt, got.PostedAt)
	}
	if got.Budget != nil {
		t.Fatalf("linkedin listings carry no budget")
	}
}

func TestSearchJobsWithoutToken(t *testing.T) {
	transport := &countingTransport{}
	c := New(zap.NewNop(), Credentials{ClientID: "cid"})
	c.HTTPClient = &http.Client{Transport: transport}

	resp := c.SearchJobs(context.Background(), &jobs.SearchFilters{})
	if resp.Success || resp.Error != "LinkedIn API credentials not configured" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	apply := c.ApplyToJob(context.Background(), "1", "hello")
	if apply.Success || apply.Kind != jobs.KindConfigurationMissing {
		t.Fatalf("unexpected apply response: %+v", apply)
	}
	if n := transport.calls.Load(); n != 0 {
		t.Fatalf("expected no http calls, got %d", n)
	}
}

func TestSearchJobsBadStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"expired"}`)
	})

	resp := c.SearchJobs(context.Background(), nil)
	if resp.Success || resp.Error != errSearch {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestApplyToJob(t *testing.T) {
	var gotPath string
	var payload map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	})

	resp := c.ApplyToJob(context.Background(), "55", "letter")
	if !resp.Success {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if gotPath != "/simpleJobPostings/55/jobApplications" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if payload["coverLetter"] != "letter" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestAuthURL(t *testing.T) {
	c := New(nil, Credentials{ClientID: "cid"})
	raw, err := c.AuthURL("https://app.example/cb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Query().Get("scope") != oauthScope || u.Query().Get("client_id") != "cid" {
		t.Fatalf("unexpected query %v", u.Query())
	}

	if _, err := New(nil, Credentials{}).AuthURL("x"); err == nil {
		t.Fatal("expected error without client id")
	}
}
