// Package cli provides the command-line interface and TUI for QuotaChat.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quotachat/quotachat/internal/config"
)

// Version is set at build time.
var Version = "0.1.0"

// Global flags
var serverURL string

// rootCmd launches the interactive TUI when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "quotachat",
	Short: "Terminal client for the QuotaChat metered AI-chat service",
	Long: `QuotaChat is a terminal client for a metered AI-chat service.

Sign in or create an account, chat against your token quota, and top up
your balance, all from the terminal. The server to talk to is taken from
--server, QUOTACHAT_SERVER_URL, or ~/.config/quotachat/config.yaml.`,
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("stdout is not a terminal; use the history subcommand for scripted access")
		}

		cfg := loadConfig()

		// The TUI owns the terminal, so the logger writes to file only.
		logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel, false)
		defer cleanup()

		logger.Info("starting", "version", Version, "server", cfg.ServerURL)
		return Run(cfg, logger)
	},
}

// loadConfig loads the configuration and applies the --server override.
func loadConfig() config.Config {
	cfg := config.Load()
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	return cfg
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "backend base URL")

	rootCmd.AddCommand(historyCmd)
}
