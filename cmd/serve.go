package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-aggregator/internal/filtering"
	"github.com/spigell/job-aggregator/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API for the dashboard",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default is :8080)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config, logger := setup()
	logger.Info("starting the job-aggregator api", zap.String("version", version))

	d, err := buildDeps(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing dependencies", zap.Error(err))
	}
	defer d.Close()

	srv := server.New(d.aggregator, d.ai, server.Options{
		AllowedOrigins: config.Server.AllowedOrigins,
		Filters:        filtering.New(filtering.PreScore(config.Filters, config.ExcludeFile), logger),
		Metrics:        d.recorder,
		Gatherer:       d.registry,
	}, logger)

	if err := srv.Run(ctx, config.Server.Addr); err != nil {
		logger.Fatal("serving http", zap.Error(err))
	}
}
