package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"xhscollect/pkg/artifact"
	"xhscollect/pkg/report"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Build the analysis report from collected spreadsheets",
	Long: `Analyze every collected spreadsheet and render the results.

The analysis stage needs no session credentials: it reads the xlsx files
under the data directory and writes analysis/analysis_data.json plus
analysis/report.html next to them.`,
	Example: `  xhscollect analyze
  xhscollect analyze --data-dir /srv/collections`,
	Args: cobra.NoArgs,
	Run:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) {
	cfg, log, err := setup(persistentFlags())
	if err != nil {
		fatal("failed to load configuration", err)
	}

	store, err := artifact.NewStore(cfg.Output.DataDirectory, nil)
	if err != nil {
		fatal("cannot open data directory", err)
	}

	analyzer := report.NewAnalyzer(store.DataDir(), log)
	if err := analyzer.Run(); err != nil {
		log.WithError(err).Error("Analysis failed")
		fatal("analysis failed", err)
	}
	fmt.Println("Report written to", filepath.Join(store.DataDir(), "analysis"))
}
