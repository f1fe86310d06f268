package strip

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/relkit/internal/logfields"
)

// Watch keeps stripping covered files as they are written until ctx is done.
// Bursts of events are coalesced for the configured debounce interval.
func (s *Stripper) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	for _, dir := range s.watchDirs() {
		if err := addDirsRecursive(watcher, dir.path, dir.recursive); err != nil {
			return err
		}
	}
	slog.Info("Watching for whitespace changes", "roots", len(s.cfg.Roots), "files", len(s.cfg.Files))

	debounce := s.cfg.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}

	var mu sync.Mutex
	pending := make(map[string]struct{})
	flush := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	trigger := func(rel string) {
		mu.Lock()
		defer mu.Unlock()
		pending[rel] = struct{}{}
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, func() {
			select {
			case flush <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(watcher, ev, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("Watcher error", logfields.Error(err))
		case <-flush:
			mu.Lock()
			batch := make([]string, 0, len(pending))
			for rel := range pending {
				batch = append(batch, rel)
			}
			pending = make(map[string]struct{})
			mu.Unlock()

			sort.Strings(batch)
			for _, rel := range batch {
				if _, err := s.file(rel); err != nil && !errors.Is(err, fs.ErrNotExist) {
					slog.Warn("Failed to strip file", logfields.Path(rel), logfields.Error(err))
				}
			}
		}
	}
}

func (s *Stripper) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, trigger func(string)) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}
	if shouldIgnore(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			rel := s.rel(ev.Name)
			if s.Covers(filepath.Join(rel, "x")) {
				_ = addDirsRecursive(watcher, ev.Name, true)
			}
			return
		}
	}
	rel := s.rel(ev.Name)
	if !s.Covers(rel) {
		return
	}
	slog.Debug("File change detected", logfields.Path(rel), "op", ev.Op.String())
	trigger(rel)
}

type watchDir struct {
	path      string
	recursive bool
}

// watchDirs lists the directories to watch: every strip root recursively and
// the parent directory of each standalone file.
func (s *Stripper) watchDirs() []watchDir {
	seen := make(map[string]bool)
	var dirs []watchDir
	for _, r := range s.cfg.Roots {
		abs := s.abs(r.Path)
		if _, err := os.Stat(abs); err != nil {
			slog.Warn("Directory to watch not found", logfields.Dir(r.Path))
			continue
		}
		seen[abs] = true
		dirs = append(dirs, watchDir{path: abs, recursive: true})
	}
	for _, f := range s.cfg.Files {
		parent := filepath.Dir(s.abs(f))
		if seen[parent] {
			continue
		}
		seen[parent] = true
		if _, err := os.Stat(parent); err != nil {
			slog.Warn("Directory to watch not found", logfields.Dir(filepath.Dir(f)))
			continue
		}
		dirs = append(dirs, watchDir{path: parent})
	}
	return dirs
}

func addDirsRecursive(w *fsnotify.Watcher, root string, recursive bool) error {
	if !recursive {
		if err := w.Add(root); err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}
		return nil
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", logfields.Dir(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnore filters editor swap and backup files.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, ".#") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"))
}
