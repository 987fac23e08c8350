package jobs

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"
)

const (
	ExcludeActorUser    = "user"
	ExcludeActorApplied = "applied"
)

type ExcludedListings struct {
	Items []*ExcludedListing
}

type ExcludedListing struct {
	Key        string
	URL        string
	Company    string
	Actor      string
	Reason     string `json:",omitempty"`
	ExcludedAt time.Time
}

func (l *Listings) ToExcluded(actor, reason string) *ExcludedListings {
	excluded := &ExcludedListings{}
	for _, listing := range l.Items {
		excluded.Items = append(excluded.Items, &ExcludedListing{
			Key:        listing.Key(),
			URL:        listing.URL,
			Company:    listing.Company,
			Actor:      actor,
			Reason:     reason,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

// LoadExcludedFromFile reads an exclude file. A missing or empty file yields an empty list.
func LoadExcludedFromFile(path string) (*ExcludedListings, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &ExcludedListings{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedListings{}, nil
	}

	var excluded ExcludedListings
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *ExcludedListings) Append(s *ExcludedListings) {
	e.Items = append(e.Items, s.Items...)
}

func (e *ExcludedListings) Keys() []string {
	keys := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		keys = append(keys, item.Key)
	}
	return keys
}

func (e *ExcludedListings) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// AppendToFile records listings in the exclude file at path.
func AppendToFile(path string, listings *Listings, actor, reason string) error {
	excluded, err := LoadExcludedFromFile(path)
	if err != nil {
		return err
	}
	excluded.Append(listings.ToExcluded(actor, reason))
	return excluded.ToFile(path)
}
