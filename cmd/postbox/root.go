// ABOUTME: Root Cobra command and global flags for postbox CLI.
// ABOUTME: Sets up lifecycle hooks for config loading, logging, and the API client.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/2389-research/postbox/internal/config"
	"github.com/2389-research/postbox/internal/feed"
	"github.com/2389-research/postbox/internal/logging"
	"github.com/2389-research/postbox/internal/output"
	"github.com/2389-research/postbox/internal/remote"
)

var globalConfig *config.Config
var globalLogger *slog.Logger
var globalClient *remote.Client
var globalPrinter *output.Printer

// Flags
var (
	colorFlag    string
	logLevelFlag string
	apiURLFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "postbox",
	Short: "Browse a paginated posts API from the terminal",
	Long: `
██████╗  ██████╗ ███████╗████████╗██████╗  ██████╗ ██╗  ██╗
██╔══██╗██╔═══██╗██╔════╝╚══██╔══╝██╔══██╗██╔═══██╗╚██╗██╔╝
██████╔╝██║   ██║███████╗   ██║   ██████╔╝██║   ██║ ╚███╔╝
██╔═══╝ ██║   ██║╚════██║   ██║   ██╔══██╗██║   ██║ ██╔██╗
██║     ╚██████╔╝███████║   ██║   ██████╔╝╚██████╔╝██╔╝ ██╗
╚═╝      ╚═════╝ ╚══════╝   ╚═╝   ╚═════╝  ╚═════╝ ╚═╝  ╚═╝

Page through posts, search titles, and keep favorites for the session.
Works as an interactive browser, a plain CLI, or an MCP server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "setup" {
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if apiURLFlag != "" {
			cfg.API.BaseURL = apiURLFlag
		}
		if logLevelFlag != "" {
			cfg.Log.Level = logLevelFlag
		}
		globalConfig = cfg

		mode, err := output.ParseColorMode(colorFlag)
		if err != nil {
			return err
		}
		globalPrinter = output.NewPrinter(output.ResolveColors(mode, cfg.Colors()))

		logger, err := logging.New(os.Stderr, cfg.LogLevel())
		if err != nil {
			return err
		}
		globalLogger = logger

		globalClient = newClient(cfg, logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto", "Color output: auto, always, or never")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, or error")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api", "", "Posts API base URL (overrides config)")
}

// printer returns the configured printer, or a plain one when startup failed
// before it was created.
func printer() *output.Printer {
	if globalPrinter != nil {
		return globalPrinter
	}
	return output.NewPrinter(false)
}

func newClient(cfg *config.Config, logger *slog.Logger) *remote.Client {
	client := remote.NewClient(cfg.BaseURL(),
		remote.WithTimeout(cfg.Timeout()),
		remote.WithRateLimit(cfg.API.RequestsPerSecond),
		remote.WithLogger(logger),
	)
	logger.Debug("api client ready", "base_url", client.BaseURL(), "timeout", cfg.Timeout())
	return client
}

func newState(client *remote.Client, logger *slog.Logger) *feed.PostsState {
	return feed.NewPostsState(client,
		feed.WithPageSize(globalConfig.PageSize()),
		feed.WithLogger(logger),
	)
}
