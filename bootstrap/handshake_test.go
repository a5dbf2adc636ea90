package bootstrap

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"harbomux/cmd"
	"harbomux/cmd/cmd_test"
	"harbomux/config"
	"harbomux/log"
	"harbomux/sentinel"
	"harbomux/session/tmux"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.Initialize(false)
}

// recorder is a fake tmux that answers has-session from a flag and records
// every command it sees.
type recorder struct {
	running bool
	fail    map[string]error
	calls   []*exec.Cmd
}

func (r *recorder) exec() cmd_test.MockCmdExec {
	return cmd_test.MockCmdExec{
		OutputFunc: func(c *exec.Cmd) ([]byte, error) {
			r.calls = append(r.calls, c)
			sub := subcommand(c)
			if err, ok := r.fail[sub]; ok {
				return nil, err
			}
			if sub == "has-session" && !r.running {
				return nil, cmd_test.ExitError("no server running")
			}
			if sub == "new-session" {
				r.running = true
			}
			return nil, nil
		},
		InteractiveFunc: func(c *exec.Cmd) (int, error) {
			r.calls = append(r.calls, c)
			return 0, nil
		},
	}
}

func subcommand(c *exec.Cmd) string {
	if c.Args[0] == "sh" {
		return "sh"
	}
	if len(c.Args) > 3 {
		return c.Args[3]
	}
	return ""
}

func (r *recorder) count(sub string) int {
	n := 0
	for _, c := range r.calls {
		if subcommand(c) == sub {
			n++
		}
	}
	return n
}

func (r *recorder) find(sub string) *exec.Cmd {
	for _, c := range r.calls {
		if subcommand(c) == sub {
			return c
		}
	}
	return nil
}

func newHandshake(t *testing.T, r *recorder, store sentinel.Store, cfg *config.Config, rcPath string, lock *config.FileLock) *Handshake {
	t.Helper()
	server, err := tmux.NewServerWithDeps(tmux.ManagedLabel, "tmux", r.exec(), func() bool { return true })
	require.NoError(t, err)
	if cfg == nil {
		cfg = &config.Config{TmuxBinary: "tmux", SessionName: "harbour"}
	}
	return New(Options{
		Server:     server,
		Store:      store,
		Executable: "/usr/local/bin/harbomux",
		Config:     cfg,
		RcPath:     rcPath,
		Lock:       lock,
	})
}

func TestLaunchCreatesOneDetachedSession(t *testing.T) {
	r := &recorder{}
	store := sentinel.NewMapStore(nil)
	h := newHandshake(t, r, store, nil, "", nil)

	require.NoError(t, h.Launch())

	assert.Equal(t, 1, r.count("new-session"))
	assert.Equal(t, 0, r.count("attach-session"))
	assert.Equal(t, sentinel.PreSetup, sentinel.Read(store))

	c := r.find("new-session")
	require.NotNil(t, c)
	assert.Equal(t, []string{"tmux", "-L", "harbonizer", "new-session", "-d", "-s", "harbour", "-e", "HARBOMUX=pre-setup"}, c.Args[:9])
	want := `eval "$(/usr/local/bin/harbomux _internal setup --protocol 1)"; exec "${SHELL:-/bin/sh}"`
	assert.Equal(t, cmd.Join("sh", "-c", want), c.Args[9])
}

func TestLaunchSourcesRcOnlyWhenPresent(t *testing.T) {
	dir := t.TempDir()
	rc := filepath.Join(dir, "harbomuxrc")

	inv := SetupInvocation("/usr/local/bin/harbomux")

	r := &recorder{}
	require.NoError(t, newHandshake(t, r, sentinel.NewMapStore(nil), nil, rc, nil).Launch())
	startup := r.find("new-session").Args[9]
	assert.NotContains(t, startup, "harbomuxrc")
	assert.Equal(t, cmd.Join("sh", "-c", StartupCommand(inv, rc, false, "")), startup)

	require.NoError(t, os.WriteFile(rc, []byte("tmux set -g mouse on\n"), 0644))
	r = &recorder{}
	require.NoError(t, newHandshake(t, r, sentinel.NewMapStore(nil), nil, rc, nil).Launch())
	startup = r.find("new-session").Args[9]
	assert.Contains(t, startup, "harbomuxrc")
	assert.Equal(t, cmd.Join("sh", "-c", StartupCommand(inv, rc, true, "")), startup)
}

func TestLaunchUsesConfiguredShell(t *testing.T) {
	r := &recorder{}
	cfg := &config.Config{TmuxBinary: "tmux", SessionName: "dock", Shell: "/bin/zsh"}
	require.NoError(t, newHandshake(t, r, sentinel.NewMapStore(nil), cfg, "", nil).Launch())

	c := r.find("new-session")
	assert.Equal(t, "dock", c.Args[6])
	assert.True(t, strings.HasSuffix(c.Args[9], "exec /bin/zsh'"), c.Args[9])
}

func TestLaunchFailureIsLaunchError(t *testing.T) {
	r := &recorder{fail: map[string]error{"new-session": cmd_test.ExitError("create session failed")}}
	err := newHandshake(t, r, sentinel.NewMapStore(nil), nil, "", nil).Launch()

	var launchErr *LaunchError
	require.True(t, errors.As(err, &launchErr))
	assert.Equal(t, "create session", launchErr.Stage)
	var cmdErr *tmux.CommandError
	assert.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 0, r.count("sh"), "setup must not run after a failed launch")
}

func TestLaunchMissingTmuxIsSubprocessError(t *testing.T) {
	r := &recorder{fail: map[string]error{"new-session": exec.ErrNotFound}}
	err := newHandshake(t, r, sentinel.NewMapStore(nil), nil, "", nil).Launch()

	var subErr *cmd.SubprocessError
	require.True(t, errors.As(err, &subErr))
	var launchErr *LaunchError
	assert.False(t, errors.As(err, &launchErr))
}

func TestLaunchRefusesArmedSentinel(t *testing.T) {
	r := &recorder{}
	store := sentinel.NewMapStore(map[string]string{sentinel.HarbomuxVar: "1"})
	err := newHandshake(t, r, store, nil, "", nil).Launch()

	require.Error(t, err)
	assert.Equal(t, 0, r.count("new-session"))
	assert.Equal(t, sentinel.Ready, sentinel.Read(store))
}

func TestLaunchUnderLockRechecksServer(t *testing.T) {
	lock := config.NewFileLock(filepath.Join(t.TempDir(), "launch.lock"))

	r := &recorder{running: true}
	store := sentinel.NewMapStore(nil)
	require.NoError(t, newHandshake(t, r, store, nil, "", lock).Launch())
	assert.Equal(t, 0, r.count("new-session"))
	assert.Equal(t, sentinel.Absent, sentinel.Read(store))

	r = &recorder{}
	require.NoError(t, newHandshake(t, r, store, nil, "", lock).Launch())
	assert.Equal(t, 1, r.count("new-session"))
}

func TestSetupAdvancesSentinelOnce(t *testing.T) {
	r := &recorder{running: true}
	store := sentinel.NewMapStore(map[string]string{sentinel.HarbomuxVar: "pre-setup"})
	cfg := &config.Config{
		TmuxBinary:    "tmux",
		SessionName:   "harbour",
		SetupCommands: []string{"set-option -g mouse on"},
	}
	h := newHandshake(t, r, store, cfg, "", nil)

	var out bytes.Buffer
	require.NoError(t, h.Setup(ProtocolVersion, &out))
	assert.Equal(t, "export HARBOMUX=1\n", out.String())
	assert.Equal(t, sentinel.Ready, sentinel.Read(store))
	assert.Equal(t, 1, r.count("sh"))
	assert.Equal(t, 2, r.count("set-environment"))

	// A second run finds the sentinel already advanced.
	out.Reset()
	calls := len(r.calls)
	err := h.Setup(ProtocolVersion, &out)
	var rejected *SetupRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, sentinel.Ready, rejected.Observed)
	assert.Empty(t, out.String())
	assert.Len(t, r.calls, calls)
	assert.Equal(t, sentinel.Ready, sentinel.Read(store))
}

func TestSetupRejectsAbsentSentinel(t *testing.T) {
	r := &recorder{}
	store := sentinel.NewMapStore(nil)
	var out bytes.Buffer
	err := newHandshake(t, r, store, nil, "", nil).Setup(ProtocolVersion, &out)

	var rejected *SetupRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, sentinel.Absent, rejected.Observed)
	assert.Empty(t, r.calls)
	assert.Empty(t, out.String())
	_, present := store.Lookup(sentinel.HarbomuxVar)
	assert.False(t, present)
}

func TestSetupRejectsUnknownProtocol(t *testing.T) {
	r := &recorder{}
	store := sentinel.NewMapStore(map[string]string{sentinel.HarbomuxVar: "pre-setup"})
	err := newHandshake(t, r, store, nil, "", nil).Setup(ProtocolVersion+1, &bytes.Buffer{})

	var rejected *SetupRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Contains(t, err.Error(), "protocol 2")
	assert.Equal(t, sentinel.PreSetup, sentinel.Read(store))
	assert.Empty(t, r.calls)
}

func TestSetupToleratesFailingSetupCommand(t *testing.T) {
	r := &recorder{fail: map[string]error{"sh": cmd_test.ExitError("unknown option")}}
	store := sentinel.NewMapStore(map[string]string{sentinel.HarbomuxVar: "pre-setup"})
	cfg := &config.Config{TmuxBinary: "tmux", SessionName: "harbour", SetupCommands: []string{"set-option -g bogus on"}}

	require.NoError(t, newHandshake(t, r, store, cfg, "", nil).Setup(ProtocolVersion, &bytes.Buffer{}))
	assert.Equal(t, sentinel.Ready, sentinel.Read(store))
}

func TestSetupSurvivesUnrunnableSetupCommand(t *testing.T) {
	r := &recorder{fail: map[string]error{"sh": exec.ErrNotFound}}
	store := sentinel.NewMapStore(map[string]string{sentinel.HarbomuxVar: "pre-setup"})
	cfg := &config.Config{
		TmuxBinary:    "tmux",
		SessionName:   "harbour",
		SetupCommands: []string{"set-option -g mouse on", "set-option -g status off"},
	}

	var out bytes.Buffer
	require.NoError(t, newHandshake(t, r, store, cfg, "", nil).Setup(ProtocolVersion, &out))
	assert.Equal(t, 2, r.count("sh"))
	assert.Equal(t, 2, r.count("set-environment"))
	assert.Equal(t, sentinel.Ready, sentinel.Read(store))
	assert.Equal(t, "export HARBOMUX=1\n", out.String())
}

func TestLaunchThenSetup(t *testing.T) {
	r := &recorder{}
	store := sentinel.NewMapStore(nil)
	h := newHandshake(t, r, store, nil, "", nil)

	require.NoError(t, h.Launch())
	var out bytes.Buffer
	require.NoError(t, h.Setup(ProtocolVersion, &out))
	assert.Equal(t, sentinel.Ready, sentinel.Read(store))
	assert.Equal(t, 1, r.count("new-session"))
}
