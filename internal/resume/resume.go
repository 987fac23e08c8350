// Package resume turns a resume document into jobs.ResumeData.
package resume

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/spigell/job-aggregator/internal/jobs"
)

var ErrEmptyResume = errors.New("resume must contain a name or at least one skill")

// Extractor produces resume data from a document.
type Extractor interface {
	Extract(ctx context.Context, path string) (*jobs.ResumeData, error)
}

// FileExtractor reads structured resumes in any format viper understands (yaml, json, toml).
type FileExtractor struct{}

func (FileExtractor) Extract(_ context.Context, path string) (*jobs.ResumeData, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("resume path is required")
	}

	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read resume %s: %w", path, err)
	}

	var data jobs.ResumeData
	if err := v.Unmarshal(&data); err != nil {
		return nil, fmt.Errorf("decode resume %s: %w", path, err)
	}

	if data.Skills == nil {
		data.Skills = []string{}
	}

	if data.IsEmpty() {
		return nil, ErrEmptyResume
	}

	return &data, nil
}
