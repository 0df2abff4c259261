// Package main provides the litbot CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/litbot/internal/config"
	"github.com/matsen/litbot/internal/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// configPath overrides the default config file location.
	configPath string
	// humanOutput controls whether to use human-readable output
	humanOutput bool

	cfg    *config.Config
	logger = zap.NewNop()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "litbot",
	Short: "Research assistant chat bot",
	Long: `litbot is a research assistant for team chat.

It answers research questions from Semantic Scholar and OpenAlex search
results, keeps a per-conversation bibliography, formats citations in five
styles, and stores research notes and reading lists.

Run "litbot serve" to connect to Slack or "litbot chat" to talk to it in
the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		logger, err = logging.New(logging.Options{
			Level:       cfg.Log.Level,
			Development: cfg.Log.Development,
		})
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/litbot/config.yml)")
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}
