package commands

import (
	"git.home.luguber.info/inful/relkit/internal/config"
	rkerrors "git.home.luguber.info/inful/relkit/internal/errors"
	"git.home.luguber.info/inful/relkit/internal/server"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Args    []string `arg:"" optional:"" help:"Port to listen on (default 8080)"`
	Dir     string   `short:"d" help:"Directory to serve (default: the configured serve.dir)"`
	Metrics bool     `help:"Expose Prometheus metrics"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	sc := s.settings(cfg.Serve, root.Root)

	ctx, cancel := signalContext()
	defer cancel()

	if err := server.New(sc, g.Logger, g.Out).Run(ctx); err != nil {
		return rkerrors.ServerError(err).WithContext("port", sc.Port)
	}
	return nil
}

// settings overlays the command line onto the configured server settings.
// Directories are relative to the project root.
func (s *ServeCmd) settings(sc config.ServeConfig, root string) config.ServeConfig {
	if len(s.Args) > 0 {
		sc.Port = server.ParsePort(s.Args)
	}
	if s.Dir != "" {
		sc.Dir = s.Dir
	}
	sc.Dir = resolve(root, sc.Dir)
	sc.Metrics = sc.Metrics || s.Metrics
	return sc
}
