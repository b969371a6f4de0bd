package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"datafill/internal/app"
	"datafill/internal/config"
)

// CLI encapsulates the command-line interface with its dependencies.
type CLI struct {
	version     string
	configPath  string
	locale      string
	verbose     bool
	silent      bool
	initialized bool
	rootCmd     *cobra.Command
}

// New creates a new CLI instance with the given version string.
func New(version string) *CLI {
	c := &CLI{version: version}
	c.setupCommands()
	return c
}

// setupCommands initializes all CLI commands and their configurations.
func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:           "datafill",
		Short:         "Fill named text placeholders in documents from JSON records",
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.initLogging()
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	flags := c.rootCmd.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "Config file (default ~/.local/share/datafill/config.yaml)")
	flags.StringVar(&c.locale, "locale", "", "Language for notifications (en, vi); overrides the config")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose/debug output")
	flags.BoolVarP(&c.silent, "silent", "s", false, "Suppress all logging")

	c.rootCmd.AddCommand(c.newFillCommand())
	c.rootCmd.AddCommand(c.newSchemaCommand())
	c.rootCmd.AddCommand(c.newSetFieldCommand())
	c.rootCmd.AddCommand(c.newMasksCommand())
	c.rootCmd.AddCommand(c.newSourcesCommand())
	c.rootCmd.AddCommand(c.newHistoryCommand())
	c.rootCmd.AddCommand(c.newWatchCommand())
	c.rootCmd.AddCommand(c.newMCPCommand())
}

// Run executes the CLI and returns any error. Interrupts cancel the
// command context.
func (c *CLI) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.rootCmd.ExecuteContext(ctx)
}

// initLogging configures slog on stderr; stdout is kept for command output
// and the MCP stdio transport.
func (c *CLI) initLogging() {
	if c.initialized {
		return
	}
	c.initialized = true

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	if c.silent {
		level = slog.Level(100)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// openApp loads the config and builds the app. Callers must Close it.
func (c *CLI) openApp() (*app.App, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.locale != "" {
		cfg.Locale = c.locale
	}
	slog.Debug("config loaded", "db", cfg.DBPath, "jobs", len(cfg.Jobs))
	return app.New(cfg, nil, slog.Default())
}
