package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-aggregator/internal/ai"
	"github.com/spigell/job-aggregator/internal/filtering"
	"github.com/spigell/job-aggregator/internal/platform"
	"github.com/spigell/job-aggregator/internal/utils"
)

type statusReport struct {
	Version     string             `json:"version"`
	Platforms   []platform.Status  `json:"platforms"`
	AI          aiStatus           `json:"ai"`
	Cache       cacheStatus        `json:"cache"`
	Credentials map[string]string  `json:"credentials"`
	Filters     []filtering.Status `json:"filters"`
}

type aiStatus struct {
	Provider   string    `json:"provider"`
	Configured bool      `json:"configured"`
	Models     ai.Models `json:"models"`
}

type cacheStatus struct {
	Configured bool `json:"configured"`
	Connected  bool `json:"connected"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which platforms and services are configured",
	Run: func(_ *cobra.Command, _ []string) {
		status()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func status() {
	ctx := context.Background()

	config, logger := setup()

	d, err := buildDeps(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing dependencies", zap.Error(err))
	}
	defer d.Close()

	steps := append(filtering.PreScore(config.Filters, config.ExcludeFile), filtering.PostScore(config.Filters)...)

	report := statusReport{
		Version:   version,
		Platforms: d.aggregator.Platforms(),
		AI: aiStatus{
			Provider:   d.creds.aiProvider,
			Configured: d.ai.Configured(),
			Models:     d.ai.Models(),
		},
		Cache: cacheStatus{
			Configured: d.creds.redisURL != "",
			Connected:  d.cache != nil,
		},
		Credentials: maskedCredentials(d.creds),
		Filters:     filtering.Describe(steps),
	}

	// do not bother error since the report is built from plain types
	pretty, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(pretty))
}

// maskedCredentials lists only the credentials that are set.
func maskedCredentials(creds credentials) map[string]string {
	all := map[string]string{
		"upwork.api-key":        creds.upwork.APIKey,
		"upwork.access-token":   creds.upwork.AccessToken,
		"linkedin.client-id":    creds.linkedin.ClientID,
		"linkedin.access-token": creds.linkedin.AccessToken,
		"indeed.publisher-key":  creds.indeedKey,
	}
	all["ai."+creds.aiProvider+".api-key"] = creds.aiKey

	masked := make(map[string]string, len(all))
	for name, value := range all {
		if value == "" {
			continue
		}
		masked[name] = utils.Mask(value)
	}
	return masked
}
