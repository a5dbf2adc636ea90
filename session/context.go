package session

import (
	"sync"

	"harbomux/log"
	"harbomux/sentinel"
)

// Context says where the current process is running.
type Context int

const (
	// Bare: no multiplexer session is active.
	Bare Context = iota
	// PlainMultiplexer: inside a tmux session harbomux does not own.
	PlainMultiplexer
	// Nested: already inside the managed server.
	Nested
)

func (c Context) String() string {
	switch c {
	case Nested:
		return "nested"
	case PlainMultiplexer:
		return "plain-multiplexer"
	default:
		return "bare"
	}
}

// Classifier decides the Context of this process from the sentinel
// variables. The first answer is kept for the life of the Classifier: a
// process cannot move between contexts, so later changes to the environment
// (including harbomux's own writes) are deliberately ignored.
type Classifier struct {
	store sentinel.Store

	once sync.Once
	ctx  Context
}

func NewClassifier(store sentinel.Store) *Classifier {
	return &Classifier{store: store}
}

// Classify returns the Context, computing it on first use.
func (c *Classifier) Classify() Context {
	c.once.Do(func() {
		c.ctx = classify(c.store)
		log.Debug("execution context: %s", c.ctx)
	})
	return c.ctx
}

func classify(store sentinel.Store) Context {
	if sentinel.Has(store, sentinel.HarbomuxVar) {
		return Nested
	}
	if sentinel.Has(store, sentinel.TmuxVar) {
		return PlainMultiplexer
	}
	return Bare
}
