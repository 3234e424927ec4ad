package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"xhscollect/pkg/artifact"
	"xhscollect/pkg/auth"
	"xhscollect/pkg/config"
	"xhscollect/pkg/logger"
)

var (
	// Version information, overridden at build time.
	version   = "1.2.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	dataDir    string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xhscollect",
	Short: "Keyword-campaign collector for Xiaohongshu rights-protection content",
	Long: `xhscollect searches curated keyword sets on Xiaohongshu, fetches the
matching notes together with their comments and author profiles, and
archives everything as spreadsheets and media files organized by category.

Collection requires a logged-in web session. Store one securely with
'xhscollect auth login' or export it via the XHS_COOKIES environment
variable.

Typical workflow:
  1. xhscollect auth login          store your session cookies
  2. xhscollect collect             run all keyword campaigns once
  3. xhscollect analyze             build the analysis report
  4. xhscollect schedule --at 03:00 keep collecting daily`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .xhscollect.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "base directory for collected data")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")

	// Version template
	rootCmd.SetVersionTemplate(`xhscollect {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// persistentFlags collects the global flag overrides handed to config.Load.
func persistentFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if dataDir != "" {
		flags["data-dir"] = dataDir
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return flags
}

// setup loads the configuration and initializes logging. When no explicit
// log file is configured, output goes to the daily collector log under the
// data directory.
func setup(flags map[string]interface{}) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Logging.File == "" {
		cfg.Logging.File = artifact.LogFilePath(cfg.Output.DataDirectory, time.Now())
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger.GetLogger(), nil
}

// resolveCredentials returns the session to collect with. Cookies from the
// config or environment win; otherwise the credential store is consulted.
func resolveCredentials(cfg *config.Config) (*auth.Credentials, error) {
	if cfg.XHS.Cookies != "" {
		return &auth.Credentials{
			Label:     auth.DefaultLabel,
			Cookies:   cfg.XHS.Cookies,
			UserAgent: cfg.XHS.UserAgent,
		}, nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	creds, err := manager.RetrieveDefault()
	if err != nil {
		return nil, fmt.Errorf("no Xiaohongshu session found: run 'xhscollect auth login' or set XHS_COOKIES")
	}
	return creds, nil
}

// fatal reports a startup error and exits non-zero. Collection failures
// after startup are never routed here; they are logged and the process
// still exits zero.
func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}
