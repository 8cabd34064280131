// Package root contains the root command for the application
package root

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"wrh/nightaudit/internal/assembler"
	"wrh/nightaudit/internal/config"
	"wrh/nightaudit/internal/consolidator"
	"wrh/nightaudit/internal/dedup"
	"wrh/nightaudit/internal/discovery"
	"wrh/nightaudit/internal/logging"
	"wrh/nightaudit/internal/mappingtable"
	"wrh/nightaudit/internal/notify"
	"wrh/nightaudit/internal/orchestrator"
	"wrh/nightaudit/internal/propertydir"
	"wrh/nightaudit/internal/reportparser"
	"wrh/nightaudit/internal/retry"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	ConfigFile string
	DryRun     bool
}

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cfg is the configuration loaded in PersistentPreRun, available to
	// every subcommand
	Cfg *config.Config

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "nightaudit",
		Short: "Process nightly hotel accounting reports into NetSuite journal entry files.",
		Long: `nightaudit discovers daily accounting report files in object storage,
removes duplicates, parses them, maps hotel account codes to the corporate
chart of accounts and produces NetSuite-importable Journal Entry and
Statistical Journal Entry CSV files.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to nightaudit!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var err error
			if SharedFlags.ConfigFile != "" {
				Cfg, err = config.InitializeConfigFromFile(SharedFlags.ConfigFile)
			} else {
				Cfg, err = config.InitializeConfig()
			}
			if err != nil {
				Log.Fatalf("Failed to load configuration: %v", err)
			}

			Log = config.ConfigureLoggingFromConfig(Cfg)
			adapter := logging.NewLogrusAdapterFromLogger(Log)
			logging.SetDefaultLogger(adapter)

			// Set the configured logger for all pipeline packages
			discovery.SetLogger(adapter)
			dedup.SetLogger(adapter)
			reportparser.SetLogger(adapter)
			mappingtable.SetLogger(adapter)
			propertydir.SetLogger(adapter)
			consolidator.SetLogger(adapter)
			assembler.SetLogger(adapter)
			notify.SetLogger(adapter)
			orchestrator.SetLogger(adapter)
			retry.SetLogger(adapter)
		},
	}

	// Common flags accessible to all commands
	SharedFlags = CommonFlags{}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.ConfigFile, "config", "c", "", "Config file (default searches $HOME/.nightaudit, .nightaudit, .)")
	Cmd.PersistentFlags().BoolVar(&SharedFlags.DryRun, "dry-run", false, "Process files but do not upload artifacts or notify")
}
