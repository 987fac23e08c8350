// Package server exposes the aggregation pipeline as a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spigell/job-aggregator/internal/ai"
	"github.com/spigell/job-aggregator/internal/filtering"
	"github.com/spigell/job-aggregator/internal/jobs"
	"github.com/spigell/job-aggregator/internal/logger"
	"github.com/spigell/job-aggregator/internal/metrics"
	"github.com/spigell/job-aggregator/internal/platform"
)

const shutdownTimeout = 10 * time.Second

// Pipeline is the aggregator surface used by the handlers.
type Pipeline interface {
	SearchAllPlatforms(ctx context.Context, filters *jobs.SearchFilters) *jobs.Listings
	CalculateMatchScores(ctx context.Context, listings *jobs.Listings, resume *jobs.ResumeData) *jobs.Listings
	ApplyToJob(ctx context.Context, listing *jobs.Listing, proposal string) jobs.Response[bool]
	Platforms() []platform.Status
	AuthURL(name jobs.Platform, redirectURI string) jobs.Response[string]
}

type ProposalWriter interface {
	GenerateProposal(ctx context.Context, req jobs.ProposalRequest) (string, error)
}

type Options struct {
	AllowedOrigins []string
	// Filters run on search results when set.
	Filters  *filtering.Filtering
	Metrics  *metrics.Recorder
	Gatherer prometheus.Gatherer
}

type Server struct {
	pipeline  Pipeline
	proposals ProposalWriter
	opts      Options
	logger    *zap.Logger
	engine    *gin.Engine
}

func New(pipeline Pipeline, proposals ProposalWriter, opts Options, log *zap.Logger) *Server {
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		pipeline:  pipeline,
		proposals: proposals,
		opts:      opts,
		logger:    logger.OrNop(log),
	}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.opts.Metrics.Middleware(), cors.New(s.corsConfig()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")
	{
		api.GET("/platforms", s.platforms)
		api.GET("/platforms/:platform/auth-url", s.authURL)
		api.POST("/jobs/search", s.search)
		api.POST("/jobs/scores", s.scores)
		api.POST("/jobs/apply", s.apply)
		api.POST("/proposals", s.proposal)
	}

	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	if len(s.opts.AllowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.opts.AllowedOrigins
	}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	return cfg
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) platforms(c *gin.Context) {
	c.JSON(http.StatusOK, jobs.OK(s.pipeline.Platforms()))
}

func (s *Server) search(c *gin.Context) {
	var filters jobs.SearchFilters
	if err := c.ShouldBindJSON(&filters); err != nil && !errors.Is(err, io.EOF) {
		badRequest[[]*jobs.Listing](c, err)
		return
	}

	found := s.pipeline.SearchAllPlatforms(c.Request.Context(), &filters)
	if s.opts.Filters != nil {
		filtered, err := s.opts.Filters.RunFilters(c.Request.Context(), found)
		if err != nil {
			s.logger.Error("filtering search results failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, jobs.Fail[[]*jobs.Listing]("", err.Error()))
			return
		}
		found = filtered
	}

	c.JSON(http.StatusOK, listingsOK(found))
}

type scoresRequest struct {
	Jobs   []*jobs.Listing  `json:"jobs"`
	Resume *jobs.ResumeData `json:"resume"`
}

func (s *Server) scores(c *gin.Context) {
	var req scoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest[[]*jobs.Listing](c, err)
		return
	}
	if req.Resume == nil {
		badRequest[[]*jobs.Listing](c, errors.New("resume is required"))
		return
	}
	for _, job := range req.Jobs {
		if job == nil {
			badRequest[[]*jobs.Listing](c, errors.New("jobs must not contain null entries"))
			return
		}
	}

	scored := s.pipeline.CalculateMatchScores(c.Request.Context(), jobs.NewListings(req.Jobs...), req.Resume)
	c.JSON(http.StatusOK, listingsOK(scored))
}

type applyRequest struct {
	Job      *jobs.Listing `json:"job"`
	Proposal string        `json:"proposal"`
}

func (s *Server) apply(c *gin.Context) {
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest[bool](c, err)
		return
	}
	if req.Job == nil {
		badRequest[bool](c, errors.New("job is required"))
		return
	}

	resp := s.pipeline.ApplyToJob(c.Request.Context(), req.Job, req.Proposal)
	c.JSON(statusFor(resp), resp)
}

func (s *Server) authURL(c *gin.Context) {
	redirectURI := c.Query("redirect_uri")
	if redirectURI == "" {
		badRequest[string](c, errors.New("redirect_uri is required"))
		return
	}

	resp := s.pipeline.AuthURL(jobs.Platform(c.Param("platform")), redirectURI)
	c.JSON(statusFor(resp), resp)
}

// statusFor maps an envelope to the HTTP status of the response.
func statusFor[T any](resp jobs.Response[T]) int {
	if resp.Success {
		return http.StatusOK
	}
	switch resp.Kind {
	case jobs.KindUnsupported:
		return http.StatusUnprocessableEntity
	case jobs.KindConfigurationMissing:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) proposal(c *gin.Context) {
	var req jobs.ProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest[string](c, err)
		return
	}
	if req.Listing == nil || req.Resume == nil {
		badRequest[string](c, errors.New("jobListing and resumeData are required"))
		return
	}
	if _, err := jobs.ParseTone(string(req.Tone)); err != nil {
		badRequest[string](c, err)
		return
	}

	if s.proposals == nil {
		c.JSON(http.StatusServiceUnavailable, jobs.Fail[string](jobs.KindConfigurationMissing, ai.ErrNotConfigured.Error()))
		return
	}

	text, err := s.proposals.GenerateProposal(c.Request.Context(), req)
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, jobs.Fail[string](jobs.KindConfigurationMissing, err.Error()))
	case err != nil:
		s.logger.Warn("proposal generation failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, jobs.Fail[string](jobs.KindTransportFailure, "Failed to generate proposal"))
	default:
		c.JSON(http.StatusOK, jobs.OK(text))
	}
}

// listingsOK never encodes an empty result as a missing data field.
func listingsOK(l *jobs.Listings) jobs.Response[[]*jobs.Listing] {
	if l.Len() == 0 {
		return jobs.OK([]*jobs.Listing{})
	}
	return jobs.OK(l.Items)
}

func badRequest[T any](c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, jobs.Fail[T]("", err.Error()))
}
