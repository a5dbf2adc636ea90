// Package app maps a command line onto the session orchestration: it builds
// the verb tree, runs the selected verb and turns the outcome into an exit
// status.
package app

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"harbomux/bootstrap"
	"harbomux/config"
	"harbomux/log"
	"harbomux/sentinel"
	"harbomux/session"
	"harbomux/session/tmux"
	"harbomux/ui"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	verbHarbour = "harbour"
	verbHelp    = "help"
	verbStart   = "start"
	verbTest    = "test"
	verbVersion = "version"
)

// verbs is the closed set of first words Dispatch hands to cobra. Anything
// else, cobra's own hidden completion commands included, is a usage error.
var verbs = []string{verbHarbour, verbHelp, verbStart, verbTest, verbVersion, bootstrap.HiddenVerb}

// ManagedServer is the managed tmux server as the verbs see it.
type ManagedServer interface {
	Label() string
	IsRunning() (bool, error)
	Attach() (int, error)
	Sessions() ([]tmux.SessionInfo, error)
}

// PlainServer is the user's own tmux server. harbomux only ever leaves it.
type PlainServer interface {
	DetachClient(execCommand string) error
}

// Handshake launches the managed session and runs its setup.
type Handshake interface {
	Launch() error
	Setup(protocol int, stdout io.Writer) error
}

// Deps is everything the dispatcher works with. main builds each value once
// and passes it in; nothing is looked up from package state.
type Deps struct {
	Classifier *session.Classifier
	SessionDir *session.SessionDir
	Server     ManagedServer
	Plain      PlainServer
	Handshake  Handshake
	Store      sentinel.Store
	Config     *config.Config

	Executable string
	ConfigPath string
	RcPath     string
	Version    string

	Stdout io.Writer
	Stderr io.Writer
	// Color enables styled output.
	Color bool
	// Width returns the terminal width in columns.
	Width func() int
	// CopyToClipboard defaults to the system clipboard.
	CopyToClipboard func(text string) error
	Now             func() time.Time
}

// Dispatcher runs one command line.
type Dispatcher struct {
	deps     Deps
	theme    ui.Theme
	errTheme ui.Theme
	// exitCode is set by verbs whose status is not derived from an error,
	// e.g. the status of an attached tmux client.
	exitCode int
}

func New(deps Deps) *Dispatcher {
	if deps.Width == nil {
		deps.Width = func() int { return ui.DefaultWidth }
	}
	if deps.CopyToClipboard == nil {
		deps.CopyToClipboard = clipboard.WriteAll
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Config == nil {
		deps.Config = config.DefaultConfig()
	}
	return &Dispatcher{
		deps:     deps,
		theme:    ui.NewTheme(ui.NewRenderer(deps.Stdout, deps.Color)),
		errTheme: ui.NewTheme(ui.NewRenderer(deps.Stderr, deps.Color)),
	}
}

// Dispatch runs argv, which excludes the program name, and returns the exit
// status for the process.
func (d *Dispatcher) Dispatch(argv []string) int {
	d.exitCode = exitOK
	if len(argv) == 0 {
		return d.report(&UsageError{Message: "missing command"})
	}
	if verb, ok := firstWord(argv); ok && !slices.Contains(verbs, verb) {
		return d.report(&UsageError{Verb: verb})
	}

	root := d.rootCommand()
	root.SetArgs(argv)
	if err := root.Execute(); err != nil {
		return d.report(err)
	}
	return d.exitCode
}

// firstWord returns the first argument that is not flag shaped.
func firstWord(argv []string) (string, bool) {
	for _, arg := range argv {
		if !strings.HasPrefix(arg, "-") {
			return arg, true
		}
	}
	return "", false
}

// report prints err the way its kind asks for and returns the exit status.
func (d *Dispatcher) report(err error) int {
	code := exitCode(err)
	switch code {
	case exitUsage:
		fmt.Fprintln(d.deps.Stderr, d.errTheme.Error.Render(err.Error()))
		fmt.Fprintln(d.deps.Stderr, "  Help:")
		d.printHelp(d.deps.Stderr, d.errTheme)
	case exitOK:
		log.WarningLog.Printf("%v", err)
		fmt.Fprintln(d.deps.Stderr, d.errTheme.Warning.Render("harbomux: "+err.Error()))
	default:
		log.ErrorLog.Printf("%v", err)
		fmt.Fprintln(d.deps.Stderr, d.errTheme.Error.Render("Error: "+err.Error()))
	}
	return code
}

func (d *Dispatcher) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "harbomux",
		Short:         "Launch and attach to a persistent tmux session on its own server.",
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return &UsageError{Message: "missing command"}
			}
			return &UsageError{Verb: args[0]}
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(d.deps.Stdout)
	root.SetErr(d.deps.Stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Message: err.Error()}
	})
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		d.printHelp(d.deps.Stdout, d.theme)
	})
	root.SetHelpCommand(&cobra.Command{
		Use:   verbHelp,
		Short: "Show usage",
		Args:  cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			d.printHelp(d.deps.Stdout, d.theme)
		},
	})

	root.AddCommand(
		&cobra.Command{
			Use:   verbHarbour,
			Short: "Attach to the harbour session, launching it first when needed",
			Args:  noArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return d.harbour()
			},
		},
		&cobra.Command{
			Use:   verbStart,
			Short: "Reserved",
			Args:  noArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(d.deps.Stdout, "start is reserved and does nothing yet.")
			},
		},
		d.testCommand(),
		&cobra.Command{
			Use:   verbVersion,
			Short: "Print the version number of harbomux",
			Args:  noArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(d.deps.Stdout, "harbomux version %s\n", d.deps.Version)
			},
		},
		d.internalCommand(),
	)
	return root
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return &UsageError{Message: fmt.Sprintf("%s takes no arguments, got %q", cmd.Name(), args[0])}
	}
	return nil
}

func (d *Dispatcher) testCommand() *cobra.Command {
	var copyReport bool
	c := &cobra.Command{
		Use:   verbTest,
		Short: "Report where harbomux thinks it is running",
		Args:  noArgs,
		Run: func(cmd *cobra.Command, args []string) {
			d.diagnose(copyReport)
		},
	}
	bindTestFlags(c.Flags(), &copyReport)
	return c
}

func bindTestFlags(fs *pflag.FlagSet, copyReport *bool) {
	fs.BoolVarP(copyReport, "copy", "c", false, "Also copy the report to the clipboard")
}
