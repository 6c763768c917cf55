// Package main is the entry point for the LLM Desk TUI application.
// It loads configuration, wires the service manager, and runs the
// Bubble Tea program.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmallory/llm-desk-tui/internal/app"
	"github.com/jmallory/llm-desk-tui/internal/config"
	"github.com/jmallory/llm-desk-tui/internal/logger"
	"github.com/jmallory/llm-desk-tui/internal/services"
	"github.com/jmallory/llm-desk-tui/internal/ui/tabs/chat"
	"github.com/jmallory/llm-desk-tui/internal/ui/tabs/history"
	"github.com/jmallory/llm-desk-tui/internal/ui/tabs/usage"
	"github.com/jmallory/llm-desk-tui/internal/version"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	// 1. Resolve paths and environment overrides
	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if err := logger.SetupFile(settings.LogPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}

	// 2. Load the request configuration. A missing file is first-run,
	// not an error; a corrupt one falls back to defaults.
	store := config.NewStore(settings.ConfigPath)
	if err := store.Load(); err != nil && !errors.Is(err, config.ErrConfigLoad) {
		return fmt.Errorf("failed to load configuration: %w", err)
	} else if err != nil {
		logger.Warn("using default configuration", "error", err)
	}

	if settings.APIKey != "" {
		store.Update(func(c *config.Config) {
			c.APIKey = settings.APIKey
		})
	}

	// 3. Initialize the service manager
	svcManager, err := services.NewManager(store, settings)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	// 4. Create the root Bubble Tea model and its tabs. Each tab shares
	// the application state for consistent data access.
	model := app.NewModel(svcManager)
	state := model.GetState()
	tabs := []app.Tab{
		chat.New(state, svcManager),
		history.New(state, svcManager),
		usage.New(state, svcManager),
	}
	model.SetTabs(tabs)

	// 5. Graceful shutdown on SIGINT/SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`LLM Desk TUI - Terminal client for OpenAI-compatible completion APIs

Usage:
  ldt [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  F1-F3           Switch between tabs (Chat, History, Usage)
  Ctrl+N/Ctrl+P   Next / previous tab
  Ctrl+S          Send the current prompt
  Esc             Cancel the in-flight request
  Ctrl+G          Toggle help
  Ctrl+C          Quit

Environment Variables:
  LLMDESK_CONFIG_PATH  Config file path (default: ~/.config/llm-desk-tui/config.yaml)
  LLMDESK_DB_PATH      SQLite history database path
  LLMDESK_LOG_PATH     Log file path
  LLMDESK_API_KEY      API key override (takes precedence over the config file)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/llm-desk-tui/.env
  - ~/.llm-desk/.env

The config file is watched while the app runs; edits apply to the next request.`)
}
