// Package gitinfo reads the state of the project's git checkout.
package gitinfo

import (
	"errors"
	"fmt"
	"sort"

	ggit "github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned when the project is not inside a git checkout.
var ErrNotRepository = errors.New("not a git repository")

// Head describes the checked-out commit.
type Head struct {
	Commit string
	Branch string // empty when detached
}

// Short returns the abbreviated commit hash.
func (h Head) Short() string {
	if len(h.Commit) > 8 {
		return h.Commit[:8]
	}
	return h.Commit
}

func open(root string) (*ggit.Repository, error) {
	repo, err := ggit.PlainOpenWithOptions(root, &ggit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, ggit.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, root)
	}
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return repo, nil
}

// ReadHead returns the HEAD commit of the checkout containing root.
func ReadHead(root string) (Head, error) {
	repo, err := open(root)
	if err != nil {
		return Head{}, err
	}
	ref, err := repo.Head()
	if err != nil {
		return Head{}, fmt.Errorf("resolve HEAD: %w", err)
	}
	h := Head{Commit: ref.Hash().String()}
	if ref.Name().IsBranch() {
		h.Branch = ref.Name().Short()
	}
	return h, nil
}

// Dirty returns the paths with uncommitted changes (untracked files included),
// sorted. An empty result means the worktree is clean.
func Dirty(root string) ([]string, error) {
	repo, err := open(root)
	if err != nil {
		return nil, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	paths := make([]string, 0, len(status))
	for path, st := range status {
		if st.Worktree == ggit.Unmodified && st.Staging == ggit.Unmodified {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}
