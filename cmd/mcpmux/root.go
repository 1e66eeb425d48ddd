package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/germanamz/mcpmux/pkg/config"
	"github.com/germanamz/mcpmux/pkg/hub"
	"github.com/germanamz/mcpmux/pkg/tools/validator"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// app holds the global flags and the pieces tests replace.
type app struct {
	configPath string
	envFile    string
	include    []string
	deny       []string
	logLevel   string

	// dialer overrides how servers are reached. Nil spawns commands.
	dialer hub.Dialer

	log *slog.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "mcpmux",
		Short: "Aggregate tools from several MCP servers",
		Long: "mcpmux connects to the MCP servers listed in its configuration, " +
			"lists their tools and routes tool calls to the server that owns them.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to configuration file (default: .mcpmux/config.yaml or mcpmux.yaml)")
	flags.StringVar(&a.envFile, "env", ".env", "path to .env file (ignored if missing)")
	flags.StringArrayVar(&a.include, "include", nil, "only connect to the named server (repeatable)")
	flags.StringArrayVar(&a.deny, "deny", nil, "answer calls to the named tool with a refusal instead of forwarding them (repeatable)")
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level: debug | info | warn | error")

	root.Version = version
	root.SetVersionTemplate(fmt.Sprintf("mcpmux version %s\n", version))

	root.AddCommand(newListCmd(a))
	root.AddCommand(newSchemasCmd(a))
	root.AddCommand(newCallCmd(a))
	root.AddCommand(newServeCmd(a))

	return root
}

// setup loads the .env file and builds the logger. Logs always go to stderr
// so stdout stays clean for command output and the serve transport.
func (a *app) setup(stderr io.Writer) error {
	if err := loadDotEnv(a.envFile); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.logLevel)); err != nil {
		return exitError(exitFailure, "invalid --log-level %q", a.logLevel)
	}

	a.log = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	return nil
}

// openHub opens a hub from the configured file. display, when non-nil,
// receives the table of available tools.
func (a *app) openHub(ctx context.Context, display io.Writer) (*hub.Hub, error) {
	validators := validator.New()
	for _, name := range a.deny {
		validators.Register(name, denied(name))
	}

	return hub.OpenFile(ctx, resolveConfigPath(a.configPath), hub.Options{
		Include:    a.include,
		Environ:    config.Environ(),
		Validators: validators,
		Dialer:     a.dialer,
		Display:    display,
		Logger:     a.log,
	})
}

// closeHub closes h and logs any failure.
func (a *app) closeHub(h *hub.Hub) {
	if err := h.Close(); err != nil {
		a.log.Warn("close hub", "err", err)
	}
}

func denied(tool string) validator.Func {
	return func(map[string]any) string {
		return fmt.Sprintf("tool %q is disabled by mcpmux", tool)
	}
}

// resolveConfigPath returns the config file to use. Priority:
// 1. Explicit --config flag (non-empty)
// 2. .mcpmux/config.yaml (if it exists)
// 3. mcpmux.yaml
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}

	dirConfig := filepath.Join(".mcpmux", "config.yaml")
	if _, err := os.Stat(dirConfig); err == nil {
		return dirConfig
	}

	return "mcpmux.yaml"
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
