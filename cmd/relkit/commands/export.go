package commands

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/relkit/internal/config"
	"git.home.luguber.info/inful/relkit/internal/export"
	"git.home.luguber.info/inful/relkit/internal/history"
	"git.home.luguber.info/inful/relkit/internal/logfields"
	"git.home.luguber.info/inful/relkit/internal/notify"
	"git.home.luguber.info/inful/relkit/internal/retry"
	"git.home.luguber.info/inful/relkit/internal/shell"
)

// ExportCmd implements the 'export' command.
type ExportCmd struct {
	Args      []string `arg:"" optional:"" help:"Action followed by optional 'debug' and 'j<N>'"`
	NoHistory bool     `name:"no-history" help:"Do not record exports in the history ledger"`
	NoNotify  bool     `name:"no-notify" help:"Do not announce exports over NATS"`
}

// newRunner builds the subprocess runner used by generate targets.
var newRunner = func() shell.Runner { return shell.NewExecRunner() }

func (e *ExportCmd) Run(g *Global, root *CLI) error {
	if len(e.Args) == 0 {
		_, _ = fmt.Fprintln(g.Out, "usage: relkit export <action>")
		return nil
	}
	action, err := export.ParseAction(e.Args)
	if err != nil {
		return err
	}
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	plan, err := export.Resolve(cfg, action.Name)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if plan.Kind == export.KindGenerate {
		return e.generate(ctx, root, cfg, plan, action)
	}

	observers, closeAll := e.observers(ctx, root, cfg)
	defer closeAll()

	exporter := export.NewExporter(root.Root, cfg, observers...)
	for _, target := range plan.Targets {
		res, err := exporter.Export(ctx, target)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(g.Out, res.Archive.Path)
	}
	return nil
}

func (e *ExportCmd) generate(ctx context.Context, root *CLI, cfg *config.Config, plan export.Plan, action export.Action) error {
	runner := newRunner()
	opts := export.GenerateOptions{Debug: action.Debug, Threads: export.Threads(action.Threads)}
	gen := export.NewGenerator(root.Root, cfg, runner)
	for _, target := range plan.Targets {
		if err := gen.Generate(ctx, target, opts); err != nil {
			return err
		}
	}
	return nil
}

// observers opens the history ledger and the NATS publisher when configured.
// Neither is allowed to stop an export, so setup failures only warn.
func (e *ExportCmd) observers(ctx context.Context, root *CLI, cfg *config.Config) ([]export.Observer, func()) {
	var observers []export.Observer
	var closers []func() error
	head := root.head()

	if cfg.History.Enabled && !e.NoHistory {
		store, err := history.Open(resolve(root.Root, cfg.History.Path))
		if err != nil {
			slog.Warn("History ledger unavailable", logfields.Error(err))
		} else {
			observers = append(observers, history.NewObserver(store, head))
			closers = append(closers, store.Close)
		}
	}

	if cfg.Notify.Enabled() && !e.NoNotify {
		pub, err := notify.Connect(ctx, cfg.Notify, retry.FromConfig(cfg.Retry))
		if err != nil {
			slog.Warn("Release notifications unavailable", logfields.Error(err))
		} else {
			observers = append(observers, pub.WithProject(cfg.Project.Name, head))
			closers = append(closers, pub.Close)
		}
	}

	return observers, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				slog.Warn("Failed to close export observer", logfields.Error(err))
			}
		}
	}
}
