package app

import (
	"bytes"
	"errors"
	"io"
	"os/exec"
	"testing"
	"time"

	"harbomux/bootstrap"
	"harbomux/cmd"
	"harbomux/config"
	"harbomux/log"
	"harbomux/sentinel"
	"harbomux/session"
	"harbomux/session/tmux"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.Initialize(false)
}

const testExecutable = "/usr/local/bin/harbomux"

type fakeServer struct {
	running    bool
	probeErr   error
	attachCode int
	attachErr  error
	sessions   []tmux.SessionInfo

	probes  int
	attachs int
}

func (s *fakeServer) Label() string { return tmux.ManagedLabel }

func (s *fakeServer) IsRunning() (bool, error) {
	s.probes++
	return s.running, s.probeErr
}

func (s *fakeServer) Attach() (int, error) {
	s.attachs++
	return s.attachCode, s.attachErr
}

func (s *fakeServer) Sessions() ([]tmux.SessionInfo, error) {
	return s.sessions, nil
}

type fakePlain struct {
	detached []string
	err      error
}

func (p *fakePlain) DetachClient(execCommand string) error {
	p.detached = append(p.detached, execCommand)
	return p.err
}

type fakeHandshake struct {
	launchErr error
	setupErr  error
	launches  int
	setups    []int
}

func (h *fakeHandshake) Launch() error {
	h.launches++
	return h.launchErr
}

func (h *fakeHandshake) Setup(protocol int, stdout io.Writer) error {
	h.setups = append(h.setups, protocol)
	return h.setupErr
}

type harness struct {
	d         *Dispatcher
	stdout    *bytes.Buffer
	stderr    *bytes.Buffer
	server    *fakeServer
	plain     *fakePlain
	handshake *fakeHandshake
	store     *sentinel.MapStore
	copied    []string
}

func newHarness(t *testing.T, env map[string]string) *harness {
	t.Helper()
	h := &harness{
		stdout:    &bytes.Buffer{},
		stderr:    &bytes.Buffer{},
		server:    &fakeServer{},
		plain:     &fakePlain{},
		handshake: &fakeHandshake{},
		store:     sentinel.NewMapStore(env),
	}
	h.d = New(Deps{
		Classifier: session.NewClassifier(h.store),
		SessionDir: session.NewSessionDir(t.TempDir()),
		Server:     h.server,
		Plain:      h.plain,
		Handshake:  h.handshake,
		Store:      h.store,
		Config:     &config.Config{TmuxBinary: "tmux", SessionName: "harbour"},
		Executable: testExecutable,
		Version:    "0.1.0",
		Stdout:     h.stdout,
		Stderr:     h.stderr,
		CopyToClipboard: func(text string) error {
			h.copied = append(h.copied, text)
			return nil
		},
		Now: func() time.Time { return time.Unix(1700003600, 0) },
	})
	return h
}

func TestDispatchEmptyArgvIsUsageError(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, exitUsage, h.d.Dispatch(nil))
	assert.Contains(t, h.stderr.String(), "missing command")
	assert.Contains(t, h.stderr.String(), "Usage:")
	assert.Empty(t, h.stdout.String())
}

func TestDispatchUnknownVerb(t *testing.T) {
	h := newHarness(t, nil)
	code := h.d.Dispatch([]string{"nonexistent"})
	assert.NotEqual(t, exitOK, code)
	assert.Contains(t, h.stderr.String(), "[nonexistent] is not a recognized command!")
	assert.Contains(t, h.stderr.String(), "Commands:")
	assert.NotContains(t, h.stderr.String(), bootstrap.HiddenVerb)
	assert.Zero(t, h.server.probes)
}

func TestDispatchRejectsCompletionCommands(t *testing.T) {
	tests := [][]string{
		{"__complete", ""},
		{"__completeNoDesc", "h"},
		{"-h", "__complete", ""},
		{"completion", "bash"},
	}
	for _, argv := range tests {
		h := newHarness(t, nil)
		assert.Equal(t, exitUsage, h.d.Dispatch(argv), argv)
		assert.Contains(t, h.stderr.String(), "is not a recognized command!", argv)
		assert.Contains(t, h.stderr.String(), "Commands:", argv)
		assert.Empty(t, h.stdout.String(), argv)
	}
}

func TestDispatchHelp(t *testing.T) {
	for _, argv := range [][]string{{"help"}, {"--help"}, {"-h"}, {"help", "harbour"}} {
		h := newHarness(t, nil)
		assert.Equal(t, exitOK, h.d.Dispatch(argv), argv)
		out := h.stdout.String()
		assert.Contains(t, out, "Usage: harbomux <command>")
		for _, verb := range []string{verbHarbour, verbHelp, verbStart, verbTest} {
			assert.Contains(t, out, verb)
		}
		assert.NotContains(t, out, bootstrap.HiddenVerb)
		assert.NotContains(t, out, "completion")
	}
}

func TestDispatchStartAndVersion(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, exitOK, h.d.Dispatch([]string{"start"}))
	assert.Contains(t, h.stdout.String(), "reserved")

	h = newHarness(t, nil)
	assert.Equal(t, exitOK, h.d.Dispatch([]string{"version"}))
	assert.Equal(t, "harbomux version 0.1.0\n", h.stdout.String())
}

func TestDispatchRejectsBadArguments(t *testing.T) {
	tests := [][]string{
		{"harbour", "extra"},
		{"start", "--bogus"},
		{"test", "now"},
		{"--bogus"},
	}
	for _, argv := range tests {
		h := newHarness(t, nil)
		assert.Equal(t, exitUsage, h.d.Dispatch(argv), argv)
		assert.Contains(t, h.stderr.String(), "Usage:", argv)
	}
}

func TestHarbourNested(t *testing.T) {
	h := newHarness(t, map[string]string{sentinel.HarbomuxVar: "1", sentinel.TmuxVar: "/tmp/tmux-1000/harbonizer,1,0"})
	assert.Equal(t, exitOK, h.d.Dispatch([]string{"harbour"}))
	assert.Equal(t, "Already in harbomux!\n", h.stdout.String())
	assert.Zero(t, h.server.probes)
	assert.Zero(t, h.handshake.launches)
	assert.Empty(t, h.plain.detached)
}

func TestHarbourPlainMultiplexerDetaches(t *testing.T) {
	h := newHarness(t, map[string]string{sentinel.TmuxVar: "/tmp/tmux-1000/default,1,0"})
	assert.Equal(t, exitOK, h.d.Dispatch([]string{"harbour"}))
	assert.Equal(t, []string{testExecutable + " harbour"}, h.plain.detached)
	assert.Zero(t, h.server.attachs)
	assert.Zero(t, h.handshake.launches)
}

func TestHarbourPlainMultiplexerDetachFailure(t *testing.T) {
	h := newHarness(t, map[string]string{sentinel.TmuxVar: "/tmp/tmux-1000/default,1,0"})
	h.plain.err = &tmux.CommandError{Subcommand: "detach-client", ExitCode: 1, Err: errors.New("exit status 1")}
	assert.Equal(t, exitFailure, h.d.Dispatch([]string{"harbour"}))
	assert.Contains(t, h.stderr.String(), "failed to detach from tmux")
}

func TestHarbourAttachesWhenRunning(t *testing.T) {
	h := newHarness(t, nil)
	h.server.running = true
	assert.Equal(t, exitOK, h.d.Dispatch([]string{"harbour"}))
	assert.Equal(t, 1, h.server.attachs)
	assert.Zero(t, h.handshake.launches)
}

func TestHarbourAttachFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.server.running = true
	h.server.attachCode = 1
	h.server.attachErr = &tmux.CommandError{Subcommand: "attach-session", ExitCode: 1, Err: errors.New("stdin is not a terminal")}
	assert.Equal(t, exitFailure, h.d.Dispatch([]string{"harbour"}))
	assert.Contains(t, h.stderr.String(), "failed to attach")
}

func TestHarbourLaunchesWhenNotRunning(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, exitOK, h.d.Dispatch([]string{"harbour"}))
	assert.Equal(t, 1, h.handshake.launches)
	assert.Zero(t, h.server.attachs)
	assert.Contains(t, h.stdout.String(), "Not in a harbomux session")
}

func TestHarbourLaunchFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.handshake.launchErr = &bootstrap.LaunchError{Stage: "create session", Err: errors.New("boom")}
	assert.Equal(t, exitFailure, h.d.Dispatch([]string{"harbour"}))
	assert.Contains(t, h.stderr.String(), "failed to create session: boom")
	assert.NotContains(t, h.stdout.String(), "Not in a harbomux session")
}

func TestHarbourMissingTmux(t *testing.T) {
	h := newHarness(t, nil)
	h.server.probeErr = &cmd.SubprocessError{Command: "tmux -L harbonizer has-session", Err: exec.ErrNotFound}
	assert.Equal(t, exitFailure, h.d.Dispatch([]string{"harbour"}))
	assert.Contains(t, h.stderr.String(), "could not run tmux")
	assert.Zero(t, h.handshake.launches)
}

func TestInternalSetup(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, exitOK, h.d.Dispatch(bootstrap.SetupInvocation(testExecutable).Args()))
	assert.Equal(t, []int{bootstrap.ProtocolVersion}, h.handshake.setups)
}

func TestInternalSetupRejectionExitsZero(t *testing.T) {
	h := newHarness(t, nil)
	h.handshake.setupErr = &bootstrap.SetupRejectedError{Observed: sentinel.Absent, Reason: "HARBOMUX is absent, expected pre-setup"}
	assert.Equal(t, exitOK, h.d.Dispatch([]string{"_internal", "setup", "--protocol", "1"}))
	assert.Contains(t, h.stderr.String(), "setup rejected")
	assert.Empty(t, h.stdout.String())
}

func TestInternalUnknownAction(t *testing.T) {
	for _, argv := range [][]string{{"_internal"}, {"_internal", "teardown"}} {
		h := newHarness(t, nil)
		assert.Equal(t, exitUsage, h.d.Dispatch(argv), argv)
		assert.Empty(t, h.handshake.setups)
		assert.Contains(t, h.stderr.String(), "one of: setup", argv)
	}
}

func TestInternalCommandAlone(t *testing.T) {
	h := newHarness(t, nil)
	c := h.d.internalCommand()
	c.SetArgs([]string{"setup", "--protocol", "7"})
	c.SilenceErrors = true
	c.SilenceUsage = true
	require.NoError(t, c.Execute())
	assert.Equal(t, []int{7}, h.handshake.setups)
}

func TestTestVerbReport(t *testing.T) {
	h := newHarness(t, map[string]string{sentinel.HarbomuxVar: "1"})
	h.server.running = true
	h.server.sessions = []tmux.SessionInfo{{Name: "harbour", Created: time.Unix(1700000000, 0), Attached: true}}

	assert.Equal(t, exitOK, h.d.Dispatch([]string{"test"}))
	out := h.stdout.String()
	assert.Contains(t, out, "nested")
	assert.Contains(t, out, "ready")
	assert.Contains(t, out, "in session dir")
	assert.Contains(t, out, "harbonizer")
	assert.Contains(t, out, "harbour (created 1h ago, attached)")
	assert.Empty(t, h.copied)
}

func TestTestVerbCopy(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, exitOK, h.d.Dispatch([]string{"test", "--copy"}))
	require.Len(t, h.copied, 1)
	assert.Contains(t, h.copied[0], "context")
	assert.Contains(t, h.copied[0], "bare")
	assert.Contains(t, h.stdout.String(), "copied")
}

func TestTestVerbCopyFailureStillSucceeds(t *testing.T) {
	h := newHarness(t, nil)
	h.d.deps.CopyToClipboard = func(string) error { return errors.New("no clipboard utility") }
	assert.Equal(t, exitOK, h.d.Dispatch([]string{"test", "-c"}))
	assert.Contains(t, h.stderr.String(), "no clipboard utility")
}

func TestTestVerbReportsProbeFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.server.probeErr = &cmd.SubprocessError{Command: "tmux", Err: exec.ErrNotFound}
	assert.Equal(t, exitOK, h.d.Dispatch([]string{"test"}))
	assert.Contains(t, h.stdout.String(), "could not run tmux")
}
