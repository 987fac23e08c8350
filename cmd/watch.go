package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-aggregator/internal/jobs"
	"github.com/spigell/job-aggregator/internal/scheduler"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Search periodically and report jobs not seen before",
	Run: func(cmd *cobra.Command, _ []string) {
		watch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("schedule", "", "cron spec for search cycles (default is @every 6h)")
	watchCmd.Flags().Bool("apply", false, "apply to new jobs right away")

	viper.BindPFlag("watch.schedule", watchCmd.Flags().Lookup("schedule"))
}

func watch(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config, logger := setup()
	logger.Info("starting the job-aggregator watcher", zap.String("version", version))

	cv, err := loadResume(ctx, config)
	if err != nil {
		logger.Fatal("loading resume", zap.Error(err), zap.String("resume", config.Resume))
	}

	d, err := buildDeps(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing dependencies", zap.Error(err))
	}
	defer d.Close()

	autoApply, _ := cmd.Flags().GetBool("apply")

	cycle := func(ctx context.Context) (*jobs.Listings, error) {
		return d.collect(ctx, cv)
	}

	notify := func(ctx context.Context, fresh *jobs.Listings) {
		logTop(logger, fresh)
		if !autoApply {
			return
		}
		if err := d.apply(ctx, fresh, cv); err != nil {
			logger.Error("applying to new jobs", zap.Error(err))
		}
	}

	sched := scheduler.New(config.Watch.Schedule, cycle, notify, logger)

	if config.ExcludeFile != "" {
		excluded, err := jobs.LoadExcludedFromFile(config.ExcludeFile)
		if err != nil {
			logger.Fatal("reading exclude file", zap.Error(err), zap.String("filename", config.ExcludeFile))
		}
		sched.Seed(excluded.Keys())
	}

	if err := sched.Start(ctx); err != nil {
		logger.Fatal("starting scheduler", zap.Error(err))
	}

	<-ctx.Done()
	logger.Info("exiting", zap.String("reason", "got signal"))
	sched.Stop()
}
