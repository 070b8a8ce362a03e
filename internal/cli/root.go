// Package cli implements the docquery command line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"docquery/internal/app"
	"docquery/internal/config"
)

// version is set at build time with -ldflags "-X docquery/internal/cli.version=...".
var version = "dev"

var (
	configPath string
	verbose    bool
)

var (
	success = color.New(color.FgGreen).SprintFunc()
	failure = color.New(color.FgRed).SprintFunc()
	warning = color.New(color.FgYellow).SprintFunc()
	heading = color.New(color.Bold).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:   "docquery",
	Short: "Index PDF documents and ask questions about them",
	Long: `docquery extracts text from PDF documents, indexes it in a vector store,
and answers questions about a single document with cited sources.

Configuration is read from the environment, a .env file, and an optional
TOML or YAML file given with --config.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (.toml, .yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig reads configuration and installs the process logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if verbose {
		cfg.LogLevel = slog.LevelDebug
	}
	slog.SetDefault(app.NewLogger(cfg))
	return cfg, nil
}

// openApp builds every component. Tests replace it.
var openApp = func(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return a, nil
}

// withApp opens the application for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("Failed to release resources", "error", err)
		}
	}()
	return fn(ctx, a)
}
