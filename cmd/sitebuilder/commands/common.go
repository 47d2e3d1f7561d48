// Package commands implements the sitebuilder command line.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// LogLevelEnv overrides the configured log level.
const LogLevelEnv = "SITEBUILDER_LOG_LEVEL"

// Global is passed to every subcommand's Run.
type Global struct {
	Context context.Context
}

// CLI definition and global flags.
type CLI struct {
	Config    string `short:"c" help:"Configuration file path" default:"sitebuilder.yaml" type:"path"`
	Verbose   bool   `short:"v" help:"Enable verbose logging"`
	LogFormat string `name:"log-format" help:"Log output format (text|json); overrides logging.format"`

	Build   BuildCmd   `cmd:"" help:"Build the site and publish it atomically"`
	Check   CheckCmd   `cmd:"" help:"Validate configuration and content without rendering"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild the site whenever sources change"`
	Version VersionCmd `cmd:"" help:"Print version information"`

	logOut io.Writer
}

// AfterApply runs after flag parsing and sets up the default logger from flags
// and environment. Commands that load a configuration refine it with configureLogging.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(c.newLogger(config.LoggingConfig{}))
	return nil
}

func (c *CLI) newLogger(lc config.LoggingConfig) *slog.Logger {
	level := lc.Level.SlogLevel()
	if raw := os.Getenv(LogLevelEnv); raw != "" {
		level = config.NormalizeLogLevel(raw).SlogLevel()
	}
	if c.Verbose {
		level = slog.LevelDebug
	}
	format := lc.Format
	if c.LogFormat != "" {
		format = config.NormalizeLogFormat(c.LogFormat)
	}

	out := c.logOut
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// loadConfig loads the configuration and applies its logging section.
func (c *CLI) loadConfig() (*config.Config, string, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, "", err
	}
	slog.SetDefault(c.newLogger(cfg.Logging))
	return cfg, filepath.Dir(c.Config), nil
}
