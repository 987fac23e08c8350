package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

type Platform string

const (
	Upwork   Platform = "upwork"
	LinkedIn Platform = "linkedin"
	Indeed   Platform = "indeed"
)

// Title returns the human readable platform name used in error messages.
func (p Platform) Title() string {
	switch p {
	case Upwork:
		return "Upwork"
	case LinkedIn:
		return "LinkedIn"
	case Indeed:
		return "Indeed"
	default:
		return string(p)
	}
}

// Listing is a job posting normalized from any of the supported platforms.
// Empty strings, a nil Budget and a zero PostedAt mean the source did not provide the value.
type Listing struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Budget      *string   `json:"budget,omitempty"`
	Skills      []string  `json:"skills"`
	PostedAt    time.Time `json:"postedAt,omitzero"`
	Platform    Platform  `json:"platform"`
	URL         string    `json:"url"`
	MatchScore  *int      `json:"matchScore,omitempty"`
}

// Key identifies a listing across the whole pipeline.
func (l *Listing) Key() string {
	return fmt.Sprintf("%s:%s", l.Platform, l.ID)
}

// Score returns the match score or 0 when the listing has not been scored.
func (l *Listing) Score() int {
	if l.MatchScore == nil {
		return 0
	}
	return *l.MatchScore
}

// BudgetString returns the budget or the provided fallback when it is missing.
func (l *Listing) BudgetString(fallback string) string {
	if l.Budget == nil || strings.TrimSpace(*l.Budget) == "" {
		return fallback
	}
	return *l.Budget
}

// StringPtr is a small helper for optional fields.
func StringPtr(s string) *string {
	return &s
}

type Listings struct {
	Items []*Listing
}

func NewListings(items ...*Listing) *Listings {
	return &Listings{Items: items}
}

func (l *Listings) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Items)
}

// FindByKey looks a listing up by its platform:id key.
func (l *Listings) FindByKey(key string) *Listing {
	for _, listing := range l.Items {
		if listing.Key() == key {
			return listing
		}
	}
	return nil
}

// Keep retains listings for which keep returns true and returns the keys of the dropped ones.
// Order of the remaining listings is preserved.
func (l *Listings) Keep(keep func(*Listing) bool) []string {
	var dropped []string
	kept := make([]*Listing, 0, len(l.Items))
	for _, listing := range l.Items {
		if keep(listing) {
			kept = append(kept, listing)
			continue
		}
		dropped = append(dropped, listing.Key())
	}
	l.Items = kept
	return dropped
}

// Exclude removes listings with the given platform:id keys.
func (l *Listings) Exclude(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}
	return l.Keep(func(listing *Listing) bool {
		_, found := set[listing.Key()]
		return !found
	})
}

// Top returns at most n first listings.
func (l *Listings) Top(n int) *Listings {
	if n <= 0 || n >= l.Len() {
		return &Listings{Items: append([]*Listing(nil), l.Items...)}
	}
	return &Listings{Items: append([]*Listing(nil), l.Items[:n]...)}
}

func (l *Listings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "listings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l.Items); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByCompany groups listings by company for the interactive report.
func (l *Listings) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, listing := range l.Items {
		company := listing.Company
		if company == "" {
			company = "unknown company"
		}
		entry := map[string]string{
			"title":    listing.Title,
			"platform": string(listing.Platform),
			"url":      listing.URL,
			"location": listing.Location,
			"budget":   listing.BudgetString("not specified"),
		}
		if listing.MatchScore != nil {
			entry["match_score"] = fmt.Sprintf("%d", *listing.MatchScore)
		}
		if !listing.PostedAt.IsZero() {
			entry["posted_at"] = listing.PostedAt.Format(time.RFC3339)
		}
		report[company] = append(report[company], entry)
	}
	return report
}
