package commands

import (
	"fmt"

	"git.home.luguber.info/inful/relkit/internal/strip"
)

// SpacermCmd implements the 'spacerm' command.
type SpacermCmd struct {
	Watch bool `short:"w" help:"Keep running and strip files as they are saved"`
}

func (s *SpacermCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}

	stripper := strip.New(root.Root, cfg.Strip)
	stripper.Report = func(path string) {
		_, _ = fmt.Fprintln(g.Out, path)
	}
	if _, err := stripper.Run(); err != nil {
		return err
	}
	if !s.Watch {
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()
	return stripper.Watch(ctx)
}
