package session

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"harbomux/log"

	"github.com/go-git/go-git/v5"
)

// MarkerName is the file or directory that marks a working directory as a
// harbomux session directory.
const MarkerName = ".harbomux"

// SessionDir answers whether a directory is a recognized session directory.
// The marker is looked for in the directory itself and then at the root of
// the enclosing git worktree, so a project marked once at its root is
// recognized from any subdirectory. The filesystem is checked once.
type SessionDir struct {
	dir string

	once   sync.Once
	root   string
	marked bool
}

func NewSessionDir(dir string) *SessionDir {
	return &SessionDir{dir: dir}
}

// Marked reports whether the marker was found.
func (d *SessionDir) Marked() bool {
	d.resolve()
	return d.marked
}

// Root returns the directory holding the marker, or "" when unmarked.
func (d *SessionDir) Root() string {
	d.resolve()
	return d.root
}

func (d *SessionDir) resolve() {
	d.once.Do(func() {
		d.root, d.marked = findMarker(d.dir)
		log.Debug("session dir %s: marked=%t root=%q", d.dir, d.marked, d.root)
	})
}

func findMarker(dir string) (string, bool) {
	if dir == "" {
		return "", false
	}
	if markerExists(dir) {
		return dir, true
	}

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if !errors.Is(err, git.ErrRepositoryNotExists) {
			log.WarningLog.Printf("could not open git repository at %s: %v", dir, err)
		}
		return "", false
	}
	worktree, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no worktree to hold a marker.
		return "", false
	}
	root := worktree.Filesystem.Root()
	if root != dir && markerExists(root) {
		return root, true
	}
	return "", false
}

func markerExists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, MarkerName))
	return err == nil
}
