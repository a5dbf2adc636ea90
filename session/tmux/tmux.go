// Package tmux addresses one tmux server. harbomux runs its own named server
// (tmux -L <label>) next to whatever the user runs on the default one, and
// every command issued through a Server carries that label, so a call can
// never land on the user's sessions by accident.
package tmux

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"

	"harbomux/cmd"
	"harbomux/log"
	"harbomux/sentinel"

	"golang.org/x/term"
)

// ManagedLabel names the socket of the server harbomux owns.
const ManagedLabel = "harbonizer"

// CommandError means tmux ran and reported a failure.
type CommandError struct {
	Subcommand string
	ExitCode   int
	Output     string
	Err        error
}

func (e *CommandError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("tmux %s: %v", e.Subcommand, e.Err)
	}
	return fmt.Sprintf("tmux %s: %v (%s)", e.Subcommand, e.Err, e.Output)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Server is a handle on one tmux server.
type Server struct {
	// Initialized by NewServer, never changed afterwards.
	label      string
	binary     string
	cmdExec    cmd.Executor
	isTerminal func() bool
}

// NewServer returns a handle on the server named label. The label must not
// be empty: an unnamed handle would silently target the user's server.
func NewServer(label, binary string, cmdExec cmd.Executor) (*Server, error) {
	return NewServerWithDeps(label, binary, cmdExec, stdinIsTerminal)
}

// NewServerWithDeps is NewServer with the terminal check supplied, for tests.
func NewServerWithDeps(label, binary string, cmdExec cmd.Executor, isTerminal func() bool) (*Server, error) {
	if label == "" {
		return nil, errors.New("tmux server label must not be empty")
	}
	return &Server{label: label, binary: binary, cmdExec: cmdExec, isTerminal: isTerminal}, nil
}

// Default returns a handle on the user's default server. harbomux only uses
// it to step out of a session it does not own.
func Default(binary string, cmdExec cmd.Executor) *Server {
	return &Server{binary: binary, cmdExec: cmdExec, isTerminal: stdinIsTerminal}
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Label returns the server's socket name, empty for the default server.
func (s *Server) Label() string {
	return s.label
}

// Prefix returns the global tmux flags selecting this server.
func (s *Server) Prefix() []string {
	if s.label == "" {
		return nil
	}
	return []string{"-L", s.label}
}

// PrefixedCommand renders a shell command line running tmux args against this
// server.
func (s *Server) PrefixedCommand(args ...string) string {
	words := append([]string{s.binary}, s.Prefix()...)
	return cmd.Join(append(words, args...)...)
}

func (s *Server) command(args ...string) *exec.Cmd {
	c := exec.Command(s.binary, append(s.Prefix(), args...)...)
	c.Env = s.environ()
	log.CommandTrace(cmd.ToString(c))
	return c
}

// environ is the child environment for tmux. For a named server the caller's
// TMUX and TMUX_PANE are dropped: they point into whatever session we were
// started from, and tmux would resolve an omitted target against them.
func (s *Server) environ() []string {
	env := os.Environ()
	if s.label == "" {
		return env
	}
	filtered := make([]string, 0, len(env))
	for _, kv := range env {
		if strings.HasPrefix(kv, sentinel.TmuxVar+"=") || strings.HasPrefix(kv, sentinel.TmuxPaneVar+"=") {
			continue
		}
		filtered = append(filtered, kv)
	}
	return filtered
}

// Run executes an arbitrary tmux subcommand on this server and returns its
// standard output.
func (s *Server) Run(args ...string) (string, error) {
	c := s.command(args...)
	out, err := s.cmdExec.Output(c)
	if err != nil {
		return string(out), s.wrap(c, args, err)
	}
	return string(out), nil
}

func (s *Server) wrap(c *exec.Cmd, args []string, err error) error {
	err = cmd.Classify(c, err)
	code, ok := cmd.ExitCode(err)
	if !ok {
		return err
	}
	sub := ""
	if len(args) > 0 {
		sub = args[0]
	}
	return &CommandError{Subcommand: sub, ExitCode: code, Output: cmd.Stderr(err), Err: err}
}

// IsRunning probes the server. Any successful answer means it is running; a
// failure reported by tmux (no server, no sessions) means it is not, and is
// not an error. The error is only set when tmux itself could not be run.
func (s *Server) IsRunning() (bool, error) {
	_, err := s.Run("has-session")
	if err == nil {
		return true, nil
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		log.Debug("server %q not running: %s", s.label, cmdErr.Output)
		return false, nil
	}
	return false, err
}

// Attach connects the caller's terminal to the server and blocks until the
// client detaches or the session ends. It returns tmux's exit status.
func (s *Server) Attach() (int, error) {
	if !s.isTerminal() {
		return 1, &CommandError{Subcommand: "attach-session", ExitCode: 1, Err: errors.New("stdin is not a terminal")}
	}
	c := s.command("attach-session")
	code, err := s.cmdExec.Interactive(c)
	if err != nil {
		return code, cmd.Classify(c, err)
	}
	if code != 0 {
		return code, &CommandError{Subcommand: "attach-session", ExitCode: code, Err: fmt.Errorf("exit status %d", code)}
	}
	return 0, nil
}

// RunDetached runs commandLine as tmux arguments through sh, so it may use
// shell quoting the way a user would type it after "tmux". It returns the
// exit status; the error is only set when sh could not be run.
func (s *Server) RunDetached(commandLine string) (int, error) {
	c := exec.Command("sh", "-c", s.PrefixedCommand()+" "+commandLine)
	c.Env = s.environ()
	log.CommandTrace(cmd.ToString(c))
	_, err := s.cmdExec.Output(c)
	if err = cmd.Classify(c, err); err != nil {
		if code, ok := cmd.ExitCode(err); ok {
			log.WarningLog.Printf("tmux %s exited %d: %s", commandLine, code, cmd.Stderr(err))
			return code, nil
		}
		return -1, err
	}
	return 0, nil
}

// SessionOptions describes a new detached session.
type SessionOptions struct {
	Name string
	// Env is set in the session environment with new-session -e.
	Env map[string]string
	// Command is the shell command line the first pane runs. Empty runs the
	// default shell.
	Command string
}

// NewSession creates a detached session, starting the server if needed.
func (s *Server) NewSession(opts SessionOptions) error {
	_, err := s.Run(newSessionArgs(opts)...)
	return err
}

func newSessionArgs(opts SessionOptions) []string {
	args := []string{"new-session", "-d"}
	if opts.Name != "" {
		args = append(args, "-s", opts.Name)
	}
	keys := make([]string, 0, len(opts.Env))
	for k := range opts.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", k+"="+opts.Env[k])
	}
	if opts.Command != "" {
		args = append(args, opts.Command)
	}
	return args
}

// SetEnvironment sets key in the environment of session, or in the server's
// global environment when session is empty. A session value overrides the
// global one for panes created in that session.
func (s *Server) SetEnvironment(session, key, value string) error {
	args := []string{"set-environment", "-g", key, value}
	if session != "" {
		args = []string{"set-environment", "-t", session, key, value}
	}
	_, err := s.Run(args...)
	return err
}

// DetachClient detaches the current client and has it run execCommand in
// place of the tmux client once it is back in the outer shell.
func (s *Server) DetachClient(execCommand string) error {
	_, err := s.Run("detach-client", "-E", execCommand)
	return err
}

// SessionInfo describes one session on the server.
type SessionInfo struct {
	Name     string
	Created  time.Time
	Attached bool
}

const sessionFormat = "#{session_name}\t#{session_created}\t#{session_attached}"

// Sessions lists the sessions on the server. A server that is not running
// has no sessions.
func (s *Server) Sessions() ([]SessionInfo, error) {
	out, err := s.Run("list-sessions", "-F", sessionFormat)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			return nil, nil
		}
		return nil, err
	}
	return parseSessions(out), nil
}

func parseSessions(out string) []SessionInfo {
	var sessions []SessionInfo
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			continue
		}
		info := SessionInfo{Name: fields[0]}
		if secs, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
			info.Created = time.Unix(secs, 0)
		}
		if n, err := strconv.Atoi(fields[2]); err == nil {
			info.Attached = n > 0
		}
		sessions = append(sessions, info)
	}
	return sessions
}
