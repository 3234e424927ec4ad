package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"xhscollect/pkg/collector"
	"xhscollect/pkg/scheduler"
)

var (
	// Schedule command flags
	scheduleAt     string
	keywordsPerRun int
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Collect a keyword sample every day at a fixed time",
	Long: `Run the collector as a long-lived daily job.

Every day at the configured trigger time a random sample of keywords is
drawn from each category and collected, followed by the configured
known-user profiles. Campaign failures are logged and never stop the
scheduler; the process runs until interrupted.

A trigger that fires while the previous day's job is still running is
dropped with a warning.`,
	Example: `  # Collect 5 keywords per category at 03:00 every day
  xhscollect schedule

  # Custom trigger time and sample size
  xhscollect schedule --at 04:30 --keywords-per-run 3`,
	Args: cobra.NoArgs,
	Run:  runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&scheduleAt, "at", "", "daily trigger time in HH:MM (default 03:00)")
	scheduleCmd.Flags().IntVar(&keywordsPerRun, "keywords-per-run", 0, "random keywords sampled per category each run")
}

func runSchedule(cmd *cobra.Command, args []string) {
	flags := persistentFlags()
	if scheduleAt != "" {
		flags["at"] = scheduleAt
	}
	if keywordsPerRun > 0 {
		flags["keywords-per-run"] = keywordsPerRun
	}

	cfg, log, err := setup(flags)
	if err != nil {
		fatal("failed to load configuration", err)
	}

	creds, err := resolveCredentials(cfg)
	if err != nil {
		log.WithError(err).Error("No session credentials")
		fatal("cannot start scheduler", err)
	}

	facade, err := collector.NewFacade(cfg, creds, log)
	if err != nil {
		log.WithError(err).Error("Startup failed")
		fatal("cannot start scheduler", err)
	}

	sched, err := scheduler.New(cfg.Schedule.At, cfg.Schedule.PollInterval, facade.ScheduledJob(cfg.Schedule.KeywordsPerRun), log)
	if err != nil {
		fatal("cannot start scheduler", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.InfoWithFields("Scheduler running", map[string]interface{}{
		"at":               cfg.Schedule.At,
		"keywords_per_run": cfg.Schedule.KeywordsPerRun,
	})

	if err := sched.Run(ctx); err != nil {
		log.WithError(err).Error("Scheduler stopped with error")
		return
	}
	log.Info("Scheduler stopped")
}
