// Package sentinel gives access to the environment variables harbomux uses as
// cross-process signals. A sentinel is never configuration: it only records
// where a process is running and how far the bootstrap handshake has got.
//
// Values travel between processes by inheritance, so a value is only
// meaningful to a child when it was written before the child was spawned.
package sentinel

import (
	"os"
	"sync"
)

const (
	// HarbomuxVar is present in every process running inside the managed
	// server and carries the bootstrap State.
	HarbomuxVar = "HARBOMUX"
	// TmuxVar is set by tmux itself inside any session. harbomux never
	// writes it.
	TmuxVar = "TMUX"
	// TmuxPaneVar accompanies TmuxVar inside a pane.
	TmuxPaneVar = "TMUX_PANE"
)

// Store reads and writes named environment variables.
type Store interface {
	Lookup(key string) (string, bool)
	Set(key, value string) error
	Unset(key string) error
}

// Has reports whether key is present in s, even with an empty value.
func Has(s Store, key string) bool {
	_, ok := s.Lookup(key)
	return ok
}

// OSStore is the process environment.
type OSStore struct{}

func (OSStore) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

func (OSStore) Set(key, value string) error {
	return os.Setenv(key, value)
}

func (OSStore) Unset(key string) error {
	return os.Unsetenv(key)
}

// MapStore is an in-memory Store, used where a real environment must not be
// touched.
type MapStore struct {
	mu   sync.Mutex
	vars map[string]string
}

func NewMapStore(vars map[string]string) *MapStore {
	m := &MapStore{vars: make(map[string]string, len(vars))}
	for k, v := range vars {
		m.vars[k] = v
	}
	return m
}

func (m *MapStore) Lookup(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vars[key]
	return v, ok
}

func (m *MapStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vars[key] = value
	return nil
}

func (m *MapStore) Unset(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vars, key)
	return nil
}
