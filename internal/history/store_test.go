package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/relkit/internal/archive"
	"git.home.luguber.info/inful/relkit/internal/config"
	"git.home.luguber.info/inful/relkit/internal/export"
	"git.home.luguber.info/inful/relkit/internal/gitinfo"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s
}

func TestAppendAndList(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	for _, target := range []string{"linux", "win64", "linux"} {
		require.NoError(t, s.Append(ctx, &Record{
			Target:  target,
			Version: "0.5.2",
			Archive: "Thrones_0.5.2_" + target + ".zip",
			Format:  "zip",
			SHA256:  "abc",
			Size:    2048,
		}))
	}

	all, err := s.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "linux", all[0].Target)
	assert.Equal(t, "win64", all[1].Target)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt), "newest first")

	for _, r := range all {
		_, err := uuid.Parse(r.ID)
		assert.NoError(t, err)
	}

	limited, err := s.List(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	linux, err := s.List(ctx, "linux", 0)
	require.NoError(t, err)
	assert.Len(t, linux, 2)
}

func TestLatest(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Latest(ctx, "web")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Append(ctx, &Record{Target: "web", Version: "0.5.1", Archive: "a.zip", Format: "zip", SHA256: "1"}))
	require.NoError(t, s.Append(ctx, &Record{Target: "web", Version: "0.5.2", Archive: "b.zip", Format: "zip", SHA256: "2",
		Commit: "deadbeef", Branch: "master", Duration: 1500 * time.Millisecond}))

	latest, err := s.Latest(ctx, "web")
	require.NoError(t, err)
	assert.Equal(t, "0.5.2", latest.Version)
	assert.Equal(t, "deadbeef", latest.Commit)
	assert.Equal(t, "master", latest.Branch)
	assert.Equal(t, 1500*time.Millisecond, latest.Duration)
}

func TestAppendKeepsExplicitID(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	created := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := &Record{ID: "fixed", Target: "mac", Version: "1", Archive: "m.zip", Format: "zip", SHA256: "x", CreatedAt: created}
	require.NoError(t, s.Append(ctx, rec))
	assert.Equal(t, "fixed", rec.ID)

	got, err := s.Latest(ctx, "mac")
	require.NoError(t, err)
	assert.Equal(t, "fixed", got.ID)
	assert.True(t, created.Equal(got.CreatedAt))

	err = s.Append(ctx, &Record{ID: "fixed", Target: "mac", Version: "1", Archive: "m.zip", Format: "zip", SHA256: "x"})
	require.Error(t, err, "ids are unique")
}

func TestOpenPersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), ".relkit", "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, &Record{Target: "android", Version: "0.5", Archive: "t.zip", Format: "zip", SHA256: "s"}))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Latest(ctx, "android")
	require.NoError(t, err)
	assert.Equal(t, "0.5", got.Version)
}

func TestObserverRecordsResult(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	obs := NewObserver(s, gitinfo.Head{Commit: "0123456789abcdef", Branch: "main"})

	obs.OnExported(ctx, &export.Result{
		Target:  "linux",
		Version: "0.5.2",
		Archive: archive.Info{Path: "/out/Thrones_0.5.2_linux64.tar.gz", Format: config.ArchiveTarGz, Entries: 12, Size: 4096},
		SHA256:  "feed",
	})

	got, err := s.Latest(ctx, "linux")
	require.NoError(t, err)
	assert.Equal(t, "/out/Thrones_0.5.2_linux64.tar.gz", got.Archive)
	assert.Equal(t, "tar.gz", got.Format)
	assert.Equal(t, 12, got.Entries)
	assert.Equal(t, int64(4096), got.Size)
	assert.Equal(t, "0123456789abcdef", got.Commit)
	assert.Equal(t, "main", got.Branch)
}

func TestObserverSwallowsStoreErrors(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Close())

	obs := NewObserver(s, gitinfo.Head{})
	assert.NotPanics(t, func() {
		obs.OnExported(context.Background(), &export.Result{Target: "web"})
	})
}
