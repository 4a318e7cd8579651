// ABOUTME: Cobra command launching the interactive post browser.
// ABOUTME: Runs the bubbletea browser with file logging so the terminal stays clean.
package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/2389-research/postbox/internal/logging"
	"github.com/2389-research/postbox/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse posts interactively",
	Long: `Open the interactive browser.

Posts load page by page as you scroll. Press / to search titles, f to
favorite a post, tab to switch to favorites, and r to refresh.`,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	logger := logging.Discard()
	logPath, err := globalConfig.LogFile()
	if err != nil {
		return fmt.Errorf("failed to resolve log file: %w", err)
	}
	if logPath != "" {
		f, err := tea.LogToFile(logPath, "postbox")
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		if logger, err = logging.New(f, globalConfig.LogLevel()); err != nil {
			return err
		}
	}

	state := newState(newClient(globalConfig, logger), logger)
	defer state.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	p := tea.NewProgram(tui.NewBrowseModel(ctx, state), tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := tui.Subscribe(p, state)
	defer unsubscribe()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
