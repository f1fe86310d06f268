package commands

import (
	"fmt"

	"git.home.luguber.info/inful/relkit/internal/slim"
)

// SlimCmd implements the 'slim' command.
type SlimCmd struct {
	Files []string `arg:"" optional:"" help:"Files to minify (default: slim.files from the configuration)"`
}

func (s *SlimCmd) Run(g *Global, root *CLI) error {
	files := s.Files
	if len(files) == 0 {
		cfg, err := root.LoadConfig()
		if err != nil {
			return err
		}
		for _, f := range cfg.Slim.Files {
			files = append(files, resolve(root.Root, f))
		}
	}

	m := slim.New()
	m.Unknown = func(err error) {
		_, _ = fmt.Fprintln(g.Out, err)
	}
	_, err := m.Files(files)
	return err
}
