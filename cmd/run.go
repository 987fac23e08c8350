package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/job-aggregator/internal/jobs"
)

const (
	PromptYes                 = "Yes"
	PromptNo                  = "No"
	PromptBack                = "back"
	PromptReportByCompany     = "Report by company"
	PromptManualApply         = "Apply jobs in manual mode"
	PromptAppendToExcludeFile = "Append all jobs to exclude file"
	PromptListingsToFile      = "Dump jobs to file"

	// listed in the log before the menu
	topListings = 10
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Procced?",
	Items: []string{PromptYes, PromptNo, PromptReportByCompany, PromptManualApply, PromptListingsToFile},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Search every platform, rank the results and apply",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation if found suitable jobs")
	runCmd.Flags().StringP("exclude-file", "e", "", "special file with jobs to exclude. Default is unset.")

	viper.BindPFlag("exclude-file", runCmd.Flags().Lookup("exclude-file"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config, logger := setup()
	logger.Info("starting the job-aggregator", zap.String("version", version))

	cv, err := loadResume(ctx, config)
	if err != nil {
		logger.Fatal("loading resume", zap.Error(err), zap.String("resume", config.Resume))
	}

	d, err := buildDeps(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing dependencies", zap.Error(err))
	}
	defer d.Close()

	logger.Info("starting the search", zap.Strings("keywords", config.Search.Keywords))

	listings, err := d.collect(ctx, cv)
	if err != nil {
		logger.Fatal("collecting jobs", zap.Error(err))
	}

	if listings.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no jobs left after filters"))
		return
	}

	logTop(logger, listings)

	action := PromptYes
	for {
		var err error
		if cmd.Flag("auto-approve").Value.String() == "false" {
			_, action, err = prompt.Run()
			if err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		logger.Info("current list of jobs", zap.Int("count", listings.Len()))

		if err := handleAction(ctx, action, d, listings, cv); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(ctx context.Context, action string, d *deps, listings *jobs.Listings, cv *jobs.ResumeData) error {
	switch action {
	case PromptYes:
		if err := d.apply(ctx, listings, cv); err != nil {
			return err
		}
		return errExit
	case PromptNo:
		d.logger.Info("exiting", zap.String("reason", "got no from prompt"))
		return errExit
	case PromptManualApply:
		return manualApply(ctx, d, listings, cv)
	case PromptReportByCompany:
		pretty, _ := json.MarshalIndent(listings.ReportByCompany(), "", "  ")
		d.logger.Info(string(pretty), zap.Int("jobs count", listings.Len()))
		return nil
	case PromptListingsToFile:
		filename, err := listings.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		d.logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func logTop(logger *zap.Logger, listings *jobs.Listings) {
	for i, listing := range listings.Top(topListings).Items {
		fields := []zap.Field{
			zap.Int("rank", i+1),
			zap.String("platform", string(listing.Platform)),
			zap.String("company", listing.Company),
			zap.String("budget", listing.BudgetString("not specified")),
			zap.String("url", listing.URL),
		}
		if listing.MatchScore != nil {
			fields = append(fields, zap.Int("match_score", *listing.MatchScore))
		}
		logger.Info(listing.Title, fields...)
	}
}

func manualApply(ctx context.Context, d *deps, listings *jobs.Listings, cv *jobs.ResumeData) error {
	for {
		items := make([]string, 0, listings.Len()+2)

		for _, l := range listings.Items {
			label := fmt.Sprintf("%s %s / %s / %s",
				l.Key(), l.Title, l.Company, l.URL,
			)

			items = append(items, label)
		}

		excludeFile := d.config.ExcludeFile
		if excludeFile != "" && listings.Len() != 0 {
			items = append(items, PromptAppendToExcludeFile)
		}

		listingPrompt := promptui.Select{
			Label: "Choose a job and press ENTER",
			Items: append(items, PromptBack),
		}

		_, selected, err := listingPrompt.Run()
		if err != nil {
			return err
		}

		switch selected {
		case PromptBack:
			return nil
		case PromptAppendToExcludeFile:
			if err := jobs.AppendToFile(excludeFile, listings, jobs.ExcludeActorUser, "manual"); err != nil {
				return err
			}

			d.logger.Info("appended to exclude file", zap.String("filename", excludeFile))

			excluded, err := jobs.LoadExcludedFromFile(excludeFile)
			if err != nil {
				return err
			}
			listings.Exclude(excluded.Keys())
		default:
			key := strings.Split(selected, " ")[0]

			listing := listings.FindByKey(key)
			if listing == nil {
				return fmt.Errorf("there is no such job %s", key)
			}

			if err := d.apply(ctx, jobs.NewListings(listing), cv); err != nil {
				return err
			}

			listings.Exclude([]string{key})
		}
	}
}
