// Package commands implements the relkit subcommands.
package commands

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/relkit/internal/config"
	rkerrors "git.home.luguber.info/inful/relkit/internal/errors"
	"git.home.luguber.info/inful/relkit/internal/gitinfo"
	"git.home.luguber.info/inful/relkit/internal/logfields"
)

// Global carries state shared by all subcommands.
type Global struct {
	Logger *slog.Logger
	// Out receives the user-facing output: usage lines, changed paths and
	// the server banner. Logs go to stderr.
	Out io.Writer
}

// NewGlobal returns the process-wide defaults.
func NewGlobal() *Global {
	return &Global{Logger: slog.Default(), Out: os.Stdout}
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config      string           `short:"c" help:"Configuration file path, relative to the project root" default:"relkit.yaml"`
	Root        string           `short:"C" help:"Project root directory" default:"." type:"path"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	ShowVersion kong.VersionFlag `name:"version" help:"Show version and exit"`

	Export  ExportCmd  `cmd:"" help:"Package an export target or configure a build directory (generate targets)"`
	Version VersionCmd `cmd:"" help:"Write a new version into the project metadata files"`
	Serve   ServeCmd   `cmd:"" help:"Serve a directory over HTTP for trying the web build"`
	Spacerm SpacermCmd `cmd:"" help:"Strip trailing whitespace and collapse blank lines in sources"`
	Slim    SlimCmd    `cmd:"" help:"Minify HTML, CSS, JS, SVG and JSON files in place"`
	History HistoryCmd `cmd:"" help:"List recorded exports"`
	Publish PublishCmd `cmd:"" help:"Upload exported archives and checksums to S3-compatible storage"`
	Init    InitCmd    `cmd:"" help:"Write a default relkit.yaml describing the project layout"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// ConfigPath resolves the configuration file against the project root.
func (c *CLI) ConfigPath() string {
	if filepath.IsAbs(c.Config) {
		return c.Config
	}
	return filepath.Join(c.Root, c.Config)
}

// LoadConfig loads relkit.yaml. The file is optional unless --config names
// a different one.
func (c *CLI) LoadConfig() (*config.Config, error) {
	path := c.ConfigPath()
	required := c.Config != config.DefaultPath
	cfg, err := config.Load(c.Root, path, required)
	if err != nil {
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return nil, rkerrors.ConfigNotFound(path)
		}
		return nil, rkerrors.ConfigInvalid(path, err)
	}
	return cfg, nil
}

// head returns the checked-out commit, or a zero Head outside a git checkout.
func (c *CLI) head() gitinfo.Head {
	h, err := gitinfo.ReadHead(c.Root)
	if err != nil {
		if !errors.Is(err, gitinfo.ErrNotRepository) {
			slog.Debug("Could not read git HEAD", logfields.Error(err))
		}
		return gitinfo.Head{}
	}
	return h
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// resolve joins a configured path to the project root unless it is absolute.
func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
