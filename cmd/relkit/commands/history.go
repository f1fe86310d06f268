package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	rkerrors "git.home.luguber.info/inful/relkit/internal/errors"
	"git.home.luguber.info/inful/relkit/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Target string `arg:"" optional:"" help:"Only show exports of this target"`
	Limit  int    `short:"n" help:"Maximum number of entries" default:"20"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	path := resolve(root.Root, cfg.History.Path)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		_, _ = fmt.Fprintln(g.Out, "no exports recorded")
		return nil
	}

	store, err := history.Open(path)
	if err != nil {
		return rkerrors.StorageError("open history", err)
	}
	defer func() {
		_ = store.Close()
	}()

	records, err := store.List(context.Background(), h.Target, h.Limit)
	if err != nil {
		return rkerrors.StorageError("list history", err)
	}
	if len(records) == 0 {
		_, _ = fmt.Fprintln(g.Out, "no exports recorded")
		return nil
	}

	w := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WHEN\tTARGET\tVERSION\tSIZE\tCOMMIT\tARCHIVE")
	for _, r := range records {
		commit := r.Commit
		if len(commit) > 8 {
			commit = commit[:8]
		}
		if commit == "" {
			commit = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			humanize.Time(r.CreatedAt), r.Target, r.Version, humanize.Bytes(uint64(max(r.Size, 0))), commit, filepath.Base(r.Archive))
	}
	return w.Flush()
}
