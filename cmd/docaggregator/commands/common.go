package commands

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docaggregator/internal/config"
	foundationerrors "git.home.luguber.info/inful/docaggregator/internal/foundation/errors"
)

// LogLevelEnv overrides the log level unless --verbose is given.
const LogLevelEnv = "DOCAGGREGATOR_LOG_LEVEL"

// Global is shared by all subcommands.
type Global struct {
	Context context.Context
	Out     io.Writer
	Err     io.Writer
	Logger  *slog.Logger
	Level   *slog.LevelVar
}

// NewGlobal returns the shared state for a run writing to out and errOut.
func NewGlobal(ctx context.Context, out, errOut io.Writer) *Global {
	level := new(slog.LevelVar)
	return &Global{
		Context: ctx,
		Out:     out,
		Err:     errOut,
		Level:   level,
		Logger:  slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level})),
	}
}

// CLI definition & global flags.
type CLI struct {
	Playbook string           `short:"p" help:"Playbook file path" default:"playbook.yml"`
	Verbose  bool             `short:"v" help:"Enable verbose logging"`
	Version  kong.VersionFlag `name:"version" help:"Show version and exit"`

	Aggregate AggregateCmd `cmd:"" help:"Collect content from the configured sources"`
	Cache     CacheCmd     `cmd:"" help:"Inspect or clear the content cache"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	g.Level.Set(parseLogLevel(c.Verbose))
	slog.SetDefault(g.Logger)
	return nil
}

func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(LogLevelEnv))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadPlaybook reads the playbook, classifying failures as configuration errors.
func loadPlaybook(path string) (*config.Playbook, error) {
	pb, err := config.Load(path)
	if err != nil {
		if foundationerrors.IsClassified(err) {
			return nil, err
		}
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, err.Error()).
			WithContext("playbook", path).
			Build()
	}
	return pb, nil
}

// loadPlaybookOrDefault is loadPlaybook for commands that can do without one.
func loadPlaybookOrDefault(path string) (*config.Playbook, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		pb := &config.Playbook{}
		config.ApplyDefaults(pb)
		return pb, nil
	}
	return loadPlaybook(path)
}
