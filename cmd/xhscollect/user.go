package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"xhscollect/pkg/collector"
	"xhscollect/pkg/xhs"
)

var userSaveMode string

// userCmd represents the user command
var userCmd = &cobra.Command{
	Use:   "user <profile-url>",
	Short: "Collect the recent notes of one user profile",
	Long: `Collect the recent notes of a known user profile.

The argument is a full profile URL like
https://www.xiaohongshu.com/user/profile/5ff0e6410000000001008400
or a bare user id. Records are archived under the known_users category,
keyed by the user id, with the author columns enriched from the profile.`,
	Example: `  xhscollect user https://www.xiaohongshu.com/user/profile/5ff0e6410000000001008400

  # Spreadsheet only, no media downloads
  xhscollect user 5ff0e6410000000001008400 --save excel`,
	Args: cobra.ExactArgs(1),
	Run:  runUser,
}

func init() {
	rootCmd.AddCommand(userCmd)

	userCmd.Flags().StringVar(&userSaveMode, "save", "", "what to persist (all, excel, media)")
}

func runUser(cmd *cobra.Command, args []string) {
	profileURL := strings.TrimSpace(args[0])
	if _, err := xhs.ParseUserID(profileURL); err != nil {
		fatal("invalid profile URL", err)
	}

	flags := persistentFlags()
	if userSaveMode != "" {
		flags["save"] = userSaveMode
	}

	cfg, log, err := setup(flags)
	if err != nil {
		fatal("failed to load configuration", err)
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

	notes, err := facade.CollectUser(context.Background(), profileURL)
	if err != nil {
		// Collection failures follow the run-once contract: logged, exit
		// zero.
		log.WithError(err).Error("User collection failed")
		fmt.Println("User collection failed:", err)
		return
	}
	fmt.Printf("Collected %d notes\n", notes)
}
