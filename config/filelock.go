package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileLock provides file-based locking for cross-process synchronization.
// It locks a dedicated lock file, never the data it protects.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a new FileLock backed by the file at path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		path: path,
	}
}

// Path returns the lock file location.
func (l *FileLock) Path() string {
	return l.path
}

// RuntimeDir returns the directory for short-lived files that must not
// survive a reboot: $XDG_RUNTIME_DIR when set, the temp dir otherwise.
func RuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}

// GetLaunchLock returns the lock serializing session creation on the tmux
// server identified by label.
func GetLaunchLock(label string) *FileLock {
	name := fmt.Sprintf("harbomux-%s-%d.lock", label, os.Getuid())
	return NewFileLock(filepath.Join(RuntimeDir(), name))
}
