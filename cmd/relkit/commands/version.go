package commands

import (
	"fmt"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/relkit/internal/bump"
	rkerrors "git.home.luguber.info/inful/relkit/internal/errors"
	"git.home.luguber.info/inful/relkit/internal/gitinfo"
)

// VersionCmd implements the 'version' command.
type VersionCmd struct {
	Args         []string `arg:"" optional:"" help:"New version followed by the optional Android version code increment"`
	RequireClean bool     `name:"require-clean" help:"Refuse to run when the git worktree has uncommitted changes"`
}

func (v *VersionCmd) Run(g *Global, root *CLI) error {
	if len(v.Args) == 0 {
		_, _ = fmt.Fprintln(g.Out, "usage: relkit version <new version> <code increment = 1>")
		return nil
	}
	if len(v.Args) > 2 {
		return rkerrors.ValidationFailed("args", "too many arguments")
	}
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}

	increment := cfg.Version.Increment
	if len(v.Args) == 2 {
		n, err := strconv.Atoi(v.Args[1])
		if err != nil {
			return rkerrors.ValidationFailed("increment", fmt.Sprintf("invalid code increment %q", v.Args[1]))
		}
		increment = n
	}

	values, err := bump.NewValues(v.Args[0], increment)
	if err != nil {
		return err
	}

	if v.RequireClean || cfg.Version.RequireClean {
		dirty, err := gitinfo.Dirty(root.Root)
		if err != nil {
			return rkerrors.GitError("status", err)
		}
		if len(dirty) > 0 {
			return rkerrors.ValidationFailed("worktree",
				fmt.Sprintf("worktree has uncommitted changes: %s", strings.Join(dirty, ", ")))
		}
	}

	results, err := bump.Apply(root.Root, cfg.Version.Files, values)
	if err != nil {
		return err
	}
	for _, r := range results {
		if !r.Skipped {
			_, _ = fmt.Fprintln(g.Out, r.Path)
		}
	}
	return nil
}
