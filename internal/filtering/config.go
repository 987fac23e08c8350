package filtering

import "time"

const notConfigured = "not configured"

// Config holds the user settings that drive the filters.
type Config struct {
	ExcludedKeywords  []string      `mapstructure:"excluded-keywords"`
	RequiredKeywords  []string      `mapstructure:"required-keywords"`
	ExcludedCompanies []string      `mapstructure:"excluded-companies"`
	MinBudget         float64       `mapstructure:"min-budget"`
	RemoteOnly        bool          `mapstructure:"remote-only"`
	MaxAge            time.Duration `mapstructure:"max-age"`
	MinMatchScore     int           `mapstructure:"min-match-score"`
}

// PreScore builds the steps that run right after a search.
func PreScore(cfg *Config, excludeFile string) []Filter {
	if cfg == nil {
		cfg = &Config{}
	}
	return []Filter{
		NewExcludedKeywords(cfg.ExcludedKeywords),
		NewRequiredKeywords(cfg.RequiredKeywords),
		NewExcludedCompanies(cfg.ExcludedCompanies),
		NewExcludeFile(excludeFile),
		NewMinBudget(cfg.MinBudget),
		NewRemoteOnly(cfg.RemoteOnly),
		NewMaxAge(cfg.MaxAge, time.Now),
	}
}

// PostScore builds the steps that need match scores.
func PostScore(cfg *Config) []Filter {
	if cfg == nil {
		cfg = &Config{}
	}
	return []Filter{NewMinMatchScore(cfg.MinMatchScore)}
}
