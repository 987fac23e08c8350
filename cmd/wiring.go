package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-aggregator/internal/aggregator"
	"github.com/spigell/job-aggregator/internal/ai"
	"github.com/spigell/job-aggregator/internal/ai/claude"
	"github.com/spigell/job-aggregator/internal/ai/gemini"
	"github.com/spigell/job-aggregator/internal/cache"
	"github.com/spigell/job-aggregator/internal/logger"
	"github.com/spigell/job-aggregator/internal/metrics"
	"github.com/spigell/job-aggregator/internal/platform"
	"github.com/spigell/job-aggregator/internal/platform/indeed"
	"github.com/spigell/job-aggregator/internal/platform/linkedin"
	"github.com/spigell/job-aggregator/internal/platform/upwork"
	"github.com/spigell/job-aggregator/internal/secrets"
)

// credentials holds every resolved secret. Empty values mean not configured.
type credentials struct {
	upwork     upwork.Credentials
	linkedin   linkedin.Credentials
	indeedKey  string
	aiKey      string
	redisURL   string
	aiProvider string
	aiConfig   *ProviderConfig
}

// deps is everything a command needs, built once from the config.
type deps struct {
	config     *Config
	logger     *zap.Logger
	creds      credentials
	adapters   []platform.Adapter
	ai         *ai.Service
	cache      *cache.Redis
	registry   *prometheus.Registry
	recorder   *metrics.Recorder
	aggregator *aggregator.Aggregator
}

// setup builds the logger and the config. Failures are fatal.
func setup() (*Config, *zap.Logger) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	return config, logger
}

func buildDeps(ctx context.Context, config *Config, logger *zap.Logger) (*deps, error) {
	creds, err := loadCredentials(config)
	if err != nil {
		return nil, err
	}

	d := &deps{
		config:   config,
		logger:   logger,
		creds:    creds,
		adapters: buildAdapters(creds, logger),
		registry: prometheus.NewRegistry(),
	}

	d.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	d.recorder, err = metrics.NewRecorder(d.registry)
	if err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}

	d.cache = buildCache(ctx, config.Cache, creds.redisURL, logger)

	d.ai, err = buildAI(ctx, config.AI, creds, d.cache, logger)
	if err != nil {
		return nil, err
	}

	dedup, err := aggregator.ParseDedupKey(config.Aggregator.DedupKey)
	if err != nil {
		return nil, err
	}

	d.aggregator = aggregator.New(d.adapters, d.ai, logger, aggregator.Options{
		CallTimeout:      config.Aggregator.Timeout,
		DedupKey:         dedup,
		ScoreConcurrency: config.Aggregator.ScoreConcurrency,
		Metrics:          d.recorder,
	})

	return d, nil
}

func (d *deps) Close() {
	if d.cache != nil {
		if err := d.cache.Close(); err != nil {
			d.logger.Warn("closing redis", zap.Error(err))
		}
	}
}

func loadCredentials(config *Config) (credentials, error) {
	var (
		creds credentials
		err   error
	)

	up := config.Platforms.Upwork
	if creds.upwork.APIKey, err = secrets.LoadOptional(secrets.Source{Name: "upwork api key", Value: up.APIKey, File: up.APIKeyFile}); err != nil {
		return creds, err
	}
	if creds.upwork.AccessToken, err = secrets.LoadOptional(secrets.Source{Name: "upwork access token", Value: up.AccessToken, File: up.AccessTokenFile}); err != nil {
		return creds, err
	}

	li := config.Platforms.LinkedIn
	if creds.linkedin.ClientID, err = secrets.LoadOptional(secrets.Source{Name: "linkedin client id", Value: li.ClientID, File: li.ClientIDFile}); err != nil {
		return creds, err
	}
	if creds.linkedin.AccessToken, err = secrets.LoadOptional(secrets.Source{Name: "linkedin access token", Value: li.AccessToken, File: li.AccessTokenFile}); err != nil {
		return creds, err
	}

	in := config.Platforms.Indeed
	if creds.indeedKey, err = secrets.LoadOptional(secrets.Source{Name: "indeed publisher key", Value: in.PublisherKey, File: in.PublisherKeyFile}); err != nil {
		return creds, err
	}

	if creds.redisURL, err = secrets.LoadOptional(secrets.Source{Name: "redis url", Value: config.Cache.RedisURL, File: config.Cache.RedisURLFile}); err != nil {
		return creds, err
	}

	creds.aiProvider = strings.ToLower(strings.TrimSpace(config.AI.Provider))
	switch creds.aiProvider {
	case "", claude.Provider:
		creds.aiProvider = claude.Provider
		creds.aiConfig = config.AI.Claude
	case gemini.Provider:
		creds.aiConfig = config.AI.Gemini
	default:
		return creds, fmt.Errorf("unsupported ai provider: %s", config.AI.Provider)
	}

	pc := creds.aiConfig
	if creds.aiKey, err = secrets.LoadOptional(secrets.Source{Name: creds.aiProvider + " api key", Value: pc.APIKey, File: pc.APIKeyFile}); err != nil {
		return creds, err
	}

	return creds, nil
}

// buildAdapters returns the adapters in dedup priority order.
func buildAdapters(creds credentials, logger *zap.Logger) []platform.Adapter {
	return []platform.Adapter{
		upwork.New(logger, creds.upwork),
		linkedin.New(logger, creds.linkedin),
		indeed.New(logger, creds.indeedKey),
	}
}

// buildCache connects to Redis when configured. An unreachable Redis only disables caching.
func buildCache(ctx context.Context, cfg *CacheConfig, url string, logger *zap.Logger) *cache.Redis {
	if url == "" {
		return nil
	}

	redis, err := cache.NewRedis(ctx, url, cfg.TTL)
	if err != nil {
		logger.Warn("score cache disabled", zap.Error(err))
		return nil
	}

	logger.Info("score cache enabled", zap.Duration("ttl", cfg.TTL))
	return redis
}

func buildAI(ctx context.Context, cfg *AIConfig, creds credentials, redis *cache.Redis, logger *zap.Logger) (*ai.Service, error) {
	models := creds.aiConfig.Models
	var generator ai.Generator

	switch creds.aiProvider {
	case gemini.Provider:
		models = models.WithDefaults(gemini.Models())
		if creds.aiKey != "" {
			gen, err := gemini.NewGenerator(ctx, creds.aiKey)
			if err != nil {
				return nil, fmt.Errorf("building gemini generator: %w", err)
			}
			generator = gen
		}
	default:
		models = models.WithDefaults(ai.ClaudeModels())
		if creds.aiKey != "" {
			gen, err := claude.NewGenerator(creds.aiKey, claude.WithBaseURL(creds.aiConfig.BaseURL))
			if err != nil {
				return nil, fmt.Errorf("building claude generator: %w", err)
			}
			generator = gen
		}
	}

	if generator == nil {
		logger.Warn("ai is not configured, scoring and proposals are disabled",
			zap.String("provider", creds.aiProvider),
			zap.String("hint", "set CLAUDE_API_KEY or GEMINI_API_KEY"),
		)
	}

	svcCfg := ai.Config{
		Provider:     creds.aiProvider,
		Models:       models,
		MaxLogLength: cfg.MaxLogLength,
		Logger:       logger,
	}
	// a typed nil must not end up inside the interface
	if redis != nil {
		svcCfg.Cache = redis
	}

	return ai.NewService(generator, svcCfg), nil
}
