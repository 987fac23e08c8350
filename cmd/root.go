package cmd

import (
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/job-aggregator/internal/ai"
	"github.com/spigell/job-aggregator/internal/filtering"
	"github.com/spigell/job-aggregator/internal/jobs"
)

const (
	app = "job-aggregator"
)

type Config struct {
	Search      *jobs.SearchFilters `mapstructure:"search"`
	Resume      string              `mapstructure:"resume"`
	ExcludeFile string              `mapstructure:"exclude-file"`
	AI          *AIConfig           `mapstructure:"ai"`
	Platforms   *PlatformsConfig    `mapstructure:"platforms"`
	Aggregator  *AggregatorConfig   `mapstructure:"aggregator"`
	Filters     *filtering.Config   `mapstructure:"filters"`
	Apply       *ApplyConfig        `mapstructure:"apply"`
	Cache       *CacheConfig        `mapstructure:"cache"`
	Server      *ServerConfig       `mapstructure:"server"`
	Watch       *WatchConfig        `mapstructure:"watch"`
}

type AIConfig struct {
	Provider     string          `mapstructure:"provider"`
	MaxLogLength int             `mapstructure:"max-log-length"`
	Claude       *ProviderConfig `mapstructure:"claude"`
	Gemini       *ProviderConfig `mapstructure:"gemini"`
}

type ProviderConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	BaseURL    string `mapstructure:"base-url"`
	ai.Models  `mapstructure:",squash"`
}

type PlatformsConfig struct {
	Upwork   *UpworkConfig   `mapstructure:"upwork"`
	LinkedIn *LinkedInConfig `mapstructure:"linkedin"`
	Indeed   *IndeedConfig   `mapstructure:"indeed"`
}

type UpworkConfig struct {
	APIKey          string `mapstructure:"api-key"`
	APIKeyFile      string `mapstructure:"api-key-file"`
	AccessToken     string `mapstructure:"access-token"`
	AccessTokenFile string `mapstructure:"access-token-file"`
}

type LinkedInConfig struct {
	ClientID        string `mapstructure:"client-id"`
	ClientIDFile    string `mapstructure:"client-id-file"`
	AccessToken     string `mapstructure:"access-token"`
	AccessTokenFile string `mapstructure:"access-token-file"`
}

type IndeedConfig struct {
	PublisherKey     string `mapstructure:"publisher-key"`
	PublisherKeyFile string `mapstructure:"publisher-key-file"`
}

type AggregatorConfig struct {
	DedupKey         string        `mapstructure:"dedup-key"`
	Timeout          time.Duration `mapstructure:"timeout"`
	ScoreConcurrency int           `mapstructure:"score-concurrency"`
}

type ApplyConfig struct {
	Tone               string        `mapstructure:"tone"`
	CustomInstructions string        `mapstructure:"custom-instructions"`
	Message            string        `mapstructure:"message"`
	MaxPerRun          int           `mapstructure:"max-per-run"`
	Delay              time.Duration `mapstructure:"delay"`
}

type CacheConfig struct {
	RedisURL     string        `mapstructure:"redis-url"`
	RedisURLFile string        `mapstructure:"redis-url-file"`
	TTL          time.Duration `mapstructure:"ttl"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed-origins"`
}

type WatchConfig struct {
	Schedule string `mapstructure:"schedule"`
}

// envBindings maps credentials to their conventional environment variables.
var envBindings = map[string]string{
	"ai.claude.api-key":               "CLAUDE_API_KEY",
	"ai.claude.api-key-file":          "CLAUDE_API_KEY_FILE",
	"ai.gemini.api-key":               "GEMINI_API_KEY",
	"ai.gemini.api-key-file":          "GEMINI_API_KEY_FILE",
	"platforms.upwork.api-key":        "UPWORK_API_KEY",
	"platforms.upwork.access-token":   "UPWORK_ACCESS_TOKEN",
	"platforms.linkedin.client-id":    "LINKEDIN_CLIENT_ID",
	"platforms.linkedin.access-token": "LINKEDIN_ACCESS_TOKEN",
	"platforms.indeed.publisher-key":  "INDEED_PUBLISHER_KEY",
	"cache.redis-url":                 "REDIS_URL",
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "job-aggregator searches Upwork, LinkedIn and Indeed, ranks jobs against your resume and applies to them",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("ai.provider", "claude")
	viper.SetDefault("aggregator.dedup-key", "title-company")
	viper.SetDefault("apply.tone", string(jobs.ToneProfessional))

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-aggregator.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// .env is optional and never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		// Everything can come from the environment.
		return
	}
	// We can't proceed if the config file parsed with error.
	if err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}
	config.fillDefaults()
	return config, nil
}

// fillDefaults replaces missing sections with empty ones so callers can skip nil checks.
func (c *Config) fillDefaults() {
	if c.Search == nil {
		c.Search = &jobs.SearchFilters{}
	}
	if c.AI == nil {
		c.AI = &AIConfig{}
	}
	if c.AI.Claude == nil {
		c.AI.Claude = &ProviderConfig{}
	}
	if c.AI.Gemini == nil {
		c.AI.Gemini = &ProviderConfig{}
	}
	if c.Platforms == nil {
		c.Platforms = &PlatformsConfig{}
	}
	if c.Platforms.Upwork == nil {
		c.Platforms.Upwork = &UpworkConfig{}
	}
	if c.Platforms.LinkedIn == nil {
		c.Platforms.LinkedIn = &LinkedInConfig{}
	}
	if c.Platforms.Indeed == nil {
		c.Platforms.Indeed = &IndeedConfig{}
	}
	if c.Aggregator == nil {
		c.Aggregator = &AggregatorConfig{}
	}
	if c.Filters == nil {
		c.Filters = &filtering.Config{}
	}
	if c.Apply == nil {
		c.Apply = &ApplyConfig{}
	}
	if c.Cache == nil {
		c.Cache = &CacheConfig{}
	}
	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Watch == nil {
		c.Watch = &WatchConfig{}
	}
}
