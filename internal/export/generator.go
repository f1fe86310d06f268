package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"git.home.luguber.info/inful/relkit/internal/config"
	rkerrors "git.home.luguber.info/inful/relkit/internal/errors"
	"git.home.luguber.info/inful/relkit/internal/fsutil"
	"git.home.luguber.info/inful/relkit/internal/logfields"
	"git.home.luguber.info/inful/relkit/internal/shell"
)

// GenerateOptions are the per-invocation knobs of a generate action.
type GenerateOptions struct {
	Debug   bool
	Threads int
}

func (o GenerateOptions) buildType() string {
	if o.Debug {
		return "Debug"
	}
	return "Release"
}

// Generator configures and builds cmake build directories.
type Generator struct {
	root   string
	cfg    *config.Config
	runner shell.Runner
}

// NewGenerator returns a generator for the project at root.
func NewGenerator(root string, cfg *config.Config, runner shell.Runner) *Generator {
	return &Generator{root: root, cfg: cfg, runner: runner}
}

// Generate runs the generate target name.
func (g *Generator) Generate(ctx context.Context, name string, opts GenerateOptions) error {
	t, ok := g.cfg.Generate.Targets[name]
	if !ok {
		return rkerrors.UnknownAction(name)
	}
	opts.Threads = Threads(opts.Threads)
	slog.Info("Generating build directory",
		logfields.Target(name), logfields.Dir(t.Dir),
		slog.String("build_type", opts.buildType()), logfields.Threads(opts.Threads))

	if err := g.generate(ctx, t, opts); err != nil {
		return rkerrors.GenerateFailed(name, err)
	}
	return nil
}

func (g *Generator) generate(ctx context.Context, t config.GenerateTarget, opts GenerateOptions) error {
	if a := t.Assets; a != nil {
		if err := g.project(ctx, a.Dir, "", a.CMakeArgs, false, opts); err != nil {
			return fmt.Errorf("assets: %w", err)
		}
		if err := g.make(ctx, a.Dir, "", a.MakeTarget, opts); err != nil {
			return fmt.Errorf("assets: %w", err)
		}
	}

	if err := g.project(ctx, t.Dir, t.Wrapper, t.CMakeArgs, t.MultiConfig, opts); err != nil {
		return err
	}

	if t.Assets != nil {
		for _, m := range t.Assets.Moves {
			slog.Debug("Moving asset output", "from", m.From, "to", m.To)
			if err := fsutil.Move(g.path(m.From), g.path(m.To)); err != nil {
				return fmt.Errorf("move %s: %w", m.From, err)
			}
		}
	}

	if t.Make {
		return g.make(ctx, t.Dir, t.MakeWrapper, t.MakeTarget, opts)
	}
	return nil
}

// project creates dir and runs "[wrapper] cmake .. args" inside it.
func (g *Generator) project(ctx context.Context, dir, wrapper string, args []string, multiConfig bool, opts GenerateOptions) error {
	abs := g.path(dir)
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	argv := append([]string{wrapper, "cmake", ".."}, args...)
	if !multiConfig {
		argv = append(argv, "-DCMAKE_BUILD_TYPE="+opts.buildType())
	}
	return g.run(ctx, abs, argv)
}

// make runs "[wrapper] make -j <threads> [target]" in dir.
func (g *Generator) make(ctx context.Context, dir, wrapper, target string, opts GenerateOptions) error {
	argv := []string{wrapper, "make", "-j", strconv.Itoa(opts.Threads), target}
	return g.run(ctx, g.path(dir), argv)
}

func (g *Generator) run(ctx context.Context, dir string, argv []string) error {
	cmd, err := shell.New(dir, argv...)
	if err != nil {
		return err
	}
	slog.Debug("Invoking build tool", logfields.Command(cmd.String()), logfields.Dir(dir))
	return g.runner.Run(ctx, cmd)
}

func (g *Generator) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(g.root, p)
}
