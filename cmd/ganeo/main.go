package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ganeo/internal/config"
	"ganeo/internal/logging"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logs   *logging.Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ganeo",
	Short: "ganeo - legacy analytics calls, replayed as gtag commands",
	Long: `ganeo translates universal-analytics style calls (ga("send", ...),
event({category, action}), set({anonymizeIp: true})) into gtag commands.

Call scripts are replayed through the adapter so the resulting gtag
traffic can be logged, journaled to SQLite, and inspected.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logs, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return err
		}
		logger = logs.Get(logging.CategoryCLI)
		logger.Debug("config loaded", zap.String("path", configPath))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logs != nil {
			_ = logs.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ganeo version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ganeo %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "ganeo.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	replayCmd.Flags().StringVar(&replayJournal, "journal", "", "Append calls to this SQLite journal")
	replayCmd.Flags().BoolVarP(&replayWatch, "watch", "w", false, "Replay again whenever the script changes")
	replayCmd.Flags().BoolVar(&replayTestMode, "test-mode", false, "Initialize in test mode (nothing is sent)")

	journalCmd.Flags().StringVar(&journalPath, "path", "", "Journal path (default: transport.journal from config)")
	journalCmd.Flags().IntVarP(&journalLimit, "limit", "n", 50, "Show the most recent N calls (0 for all)")

	rootCmd.AddCommand(replayCmd, journalCmd, fieldsCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
