package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"os"

	"harbomux/cmd"
	"harbomux/config"
	"harbomux/log"
	"harbomux/sentinel"
	"harbomux/session/tmux"
)

// Server is the part of the managed tmux server the handshake drives.
type Server interface {
	Label() string
	IsRunning() (bool, error)
	NewSession(opts tmux.SessionOptions) error
	RunDetached(commandLine string) (int, error)
	SetEnvironment(session, key, value string) error
}

// Handshake creates the managed session and runs its one-time setup. Launch
// happens in the process the user started; Setup happens in the re-invoked
// binary inside the new session's first pane.
type Handshake struct {
	server        Server
	store         sentinel.Store
	invocation    Invocation
	sessionName   string
	shell         string
	setupCommands []string
	rcPath        string
	// lock serializes launches. Nil disables locking.
	lock *config.FileLock
}

// Options configures a Handshake.
type Options struct {
	Server     Server
	Store      sentinel.Store
	Executable string
	Config     *config.Config
	RcPath     string
	Lock       *config.FileLock
}

func New(opts Options) *Handshake {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Handshake{
		server:        opts.Server,
		store:         opts.Store,
		invocation:    SetupInvocation(opts.Executable),
		sessionName:   cfg.SessionName,
		shell:         cfg.Shell,
		setupCommands: cfg.SetupCommands,
		rcPath:        opts.RcPath,
		lock:          opts.Lock,
	}
}

// Launch arms the sentinel and creates the managed session detached, with a
// first pane that runs setup. It does not attach. When another launch wins
// the race for the lock, Launch finds the server running and does nothing.
func (h *Handshake) Launch() error {
	if h.lock != nil {
		if err := h.acquireLock(); err != nil {
			return fmt.Errorf("failed to acquire launch lock %s: %w", h.lock.Path(), err)
		}
		defer func() {
			if err := h.lock.Unlock(); err != nil {
				log.WarningLog.Printf("failed to release launch lock: %v", err)
			}
		}()

		running, err := h.server.IsRunning()
		if err != nil {
			return err
		}
		if running {
			log.InfoLog.Printf("server %q came up while waiting for the launch lock", h.server.Label())
			return nil
		}
	}

	// Armed before the server is forked so the server's global environment
	// carries it too.
	if _, err := sentinel.Advance(h.store, sentinel.Absent); err != nil {
		return fmt.Errorf("refusing to launch: %w", err)
	}

	startup := StartupCommand(h.invocation, h.rcPath, rcExists(h.rcPath), h.shell)
	err := h.server.NewSession(tmux.SessionOptions{
		Name: h.sessionName,
		Env:  map[string]string{sentinel.HarbomuxVar: sentinel.PreSetup.Value()},
		// tmux hands the command to the user's default shell, which need not
		// speak POSIX sh.
		Command: cmd.Join("sh", "-c", startup),
	})
	if err != nil {
		var subErr *cmd.SubprocessError
		if errors.As(err, &subErr) {
			return err
		}
		return &LaunchError{Stage: "create session", Err: err}
	}

	log.InfoLog.Printf("launched session %q on server %q", h.sessionName, h.server.Label())
	return nil
}

func (h *Handshake) acquireLock() error {
	ok, err := h.lock.TryLock()
	if err != nil || ok {
		return err
	}
	log.InfoLog.Printf("another harbomux is launching, waiting for %s", h.lock.Path())
	return h.lock.Lock()
}

func rcExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WarningLog.Printf("cannot stat rc file %s: %v", path, err)
		}
		return false
	}
	return !info.IsDir()
}

// Setup performs the one-time initialization of a freshly launched session.
// It only proceeds when the sentinel reads pre-setup; anything else is a
// rejection and nothing is changed. On success it writes the shell statement
// that advances the calling shell's sentinel to stdout.
func (h *Handshake) Setup(protocol int, stdout io.Writer) error {
	observed := sentinel.Read(h.store)
	if protocol != ProtocolVersion {
		return &SetupRejectedError{
			Observed: observed,
			Reason:   fmt.Sprintf("protocol %d is not supported by this binary (want %d)", protocol, ProtocolVersion),
		}
	}
	if observed != sentinel.PreSetup {
		return &SetupRejectedError{
			Observed: observed,
			Reason:   fmt.Sprintf("%s is %s, expected %s", sentinel.HarbomuxVar, observed, sentinel.PreSetup),
		}
	}

	for _, line := range h.setupCommands {
		code, err := h.server.RunDetached(line)
		if err != nil {
			log.ErrorLog.Printf("setup command %q could not run: %v", line, err)
			continue
		}
		if code != 0 {
			log.WarningLog.Printf("setup command %q exited %d", line, code)
		}
	}

	// Panes opened later read the server's environment, not ours.
	ready := sentinel.Ready.Value()
	for _, target := range []string{h.sessionName, ""} {
		if err := h.server.SetEnvironment(target, sentinel.HarbomuxVar, ready); err != nil {
			log.WarningLog.Printf("failed to publish %s=%s to the server: %v", sentinel.HarbomuxVar, ready, err)
		}
	}

	if _, err := sentinel.Advance(h.store, sentinel.PreSetup); err != nil {
		var tErr *sentinel.TransitionError
		if errors.As(err, &tErr) {
			return &SetupRejectedError{Observed: tErr.Observed, Reason: err.Error()}
		}
		return err
	}

	_, err := fmt.Fprintf(stdout, "export %s=%s\n", sentinel.HarbomuxVar, cmd.Quote(ready))
	return err
}
