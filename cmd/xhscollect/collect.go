package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"xhscollect/pkg/collector"
	"xhscollect/pkg/stats"
)

var (
	// Collect command flags
	collectCategory string
	notesPerKeyword int
	sortOrder       string
	noteType        int
	saveMode        string
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run the keyword campaigns once",
	Long: `Run a collection campaign over the curated keyword sets.

With --category all (the default) every category runs in order, followed by
the known-user profiles configured under collection.user_urls. Each category
produces a run-stats JSON file; spreadsheets and media land under the data
directory grouped by category and keyword.

Individual keyword failures never abort the campaign: they are recorded in
the stats file and the run moves on. The command exits non-zero only when
startup fails (bad configuration or missing credentials).`,
	Example: `  # Run every category with defaults
  xhscollect collect

  # Only the medical beauty keyword set, 10 notes per keyword
  xhscollect collect --category medical_beauty --notes-per-keyword 10

  # Spreadsheets only, newest notes first
  xhscollect collect --save excel --sort time_descending`,
	Args: cobra.NoArgs,
	Run:  runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringVar(&collectCategory, "category", "all", "category to collect (all, medical_beauty, male_health, general_rights)")
	collectCmd.Flags().IntVar(&notesPerKeyword, "notes-per-keyword", 0, "maximum notes to collect per keyword")
	collectCmd.Flags().StringVar(&sortOrder, "sort", "", "search sort order (general, popularity_descending, time_descending)")
	collectCmd.Flags().IntVar(&noteType, "note-type", -1, "note type filter (0 all, 1 video, 2 image)")
	collectCmd.Flags().StringVar(&saveMode, "save", "", "what to persist (all, excel, media)")
}

func runCollect(cmd *cobra.Command, args []string) {
	flags := persistentFlags()
	if notesPerKeyword > 0 {
		flags["notes-per-keyword"] = notesPerKeyword
	}
	if sortOrder != "" {
		flags["sort"] = sortOrder
	}
	if noteType >= 0 {
		flags["note-type"] = noteType
	}
	if saveMode != "" {
		flags["save"] = saveMode
	}

	cfg, log, err := setup(flags)
	if err != nil {
		fatal("failed to load configuration", err)
	}

	if collectCategory != "all" && !isKeywordCategory(collectCategory) {
		fatal("invalid flag", fmt.Errorf("%q is not a collectable category", collectCategory))
	}

	creds, err := resolveCredentials(cfg)
	if err != nil {
		log.WithError(err).Error("No session credentials")
		fatal("cannot start collection", err)
	}

	facade, err := collector.NewFacade(cfg, creds, log)
	if err != nil {
		log.WithError(err).Error("Startup failed")
		fatal("cannot start collection", err)
	}

	reporter := &progressReporter{}
	if !quiet && strings.ToLower(cfg.Logging.Level) != "error" {
		facade.Progress = reporter.update
	}

	log.WithField("version", version).Info("Collector starting")

	ctx := context.Background()
	var runs []*stats.CollectionRun

	if collectCategory == "all" {
		runs, err = facade.RunAll(ctx)
	} else {
		var run *stats.CollectionRun
		run, err = facade.RunCategory(ctx, collectCategory)
		if run != nil {
			runs = append(runs, run)
		}
	}
	reporter.finish()

	// Keyword failures live in the stats files; an error here means a run
	// could not complete at all. Run-once mode still exits zero.
	if err != nil {
		log.WithError(err).Error("Collection run did not complete cleanly")
	}

	for _, run := range runs {
		printRunSummary(run)
	}
	log.Info("Collector finished")
}

func isKeywordCategory(category string) bool {
	for _, c := range collector.KeywordCategories() {
		if c == category {
			return true
		}
	}
	return false
}

// printRunSummary prints the closing counters of one category run.
func printRunSummary(run *stats.CollectionRun) {
	fmt.Printf("%s: %d/%d keywords succeeded, %d notes collected",
		run.Category, run.SuccessfulKeywords, run.TotalKeywords, run.TotalNotes)
	if len(run.FailedKeywords) > 0 {
		fmt.Printf(", %d failed", len(run.FailedKeywords))
	}
	fmt.Println()
}

// progressReporter renders one terminal progress bar per category, advancing
// a tick per finished keyword.
type progressReporter struct {
	bar      *progressbar.ProgressBar
	category string
}

func (p *progressReporter) update(category, keyword string, done, total int) {
	if p.bar == nil || p.category != category {
		p.finish()
		p.category = category
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription(category),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	_ = p.bar.Set(done)
}

func (p *progressReporter) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
		fmt.Println()
		p.bar = nil
	}
}
