package history

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/relkit/internal/export"
	"git.home.luguber.info/inful/relkit/internal/gitinfo"
	"git.home.luguber.info/inful/relkit/internal/logfields"
)

// Observer appends every successful export to a Store.
type Observer struct {
	store *Store
	head  gitinfo.Head
}

// NewObserver returns an export observer recording into store. head is
// stored with each record and may be zero outside a git checkout.
func NewObserver(store *Store, head gitinfo.Head) *Observer {
	return &Observer{store: store, head: head}
}

// OnExported implements export.Observer.
func (o *Observer) OnExported(ctx context.Context, res *export.Result) {
	rec := FromResult(res, o.head)
	if err := o.store.Append(ctx, rec); err != nil {
		slog.Warn("Failed to record export in history", logfields.Target(res.Target), logfields.Error(err))
		return
	}
	slog.Debug("Recorded export", logfields.Target(res.Target), "id", rec.ID)
}

// FromResult converts an export result into a ledger record.
func FromResult(res *export.Result, head gitinfo.Head) *Record {
	return &Record{
		Target:   res.Target,
		Version:  res.Version,
		Archive:  res.Archive.Path,
		Format:   string(res.Archive.Format),
		SHA256:   res.SHA256,
		Size:     res.Archive.Size,
		Entries:  res.Archive.Entries,
		Commit:   head.Commit,
		Branch:   head.Branch,
		Duration: res.Duration,
	}
}

var _ export.Observer = (*Observer)(nil)
