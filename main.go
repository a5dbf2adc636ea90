package main

import (
	"fmt"
	"os"
	"path/filepath"

	"harbomux/app"
	"harbomux/bootstrap"
	cmd2 "harbomux/cmd"
	"harbomux/config"
	"harbomux/log"
	"harbomux/sentinel"
	"harbomux/session"
	"harbomux/session/tmux"
	"harbomux/ui"
)

var version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	log.Initialize(len(args) > 0 && args[0] == bootstrap.HiddenVerb)
	defer log.Close()
	log.InitDebug()
	defer log.CloseDebug()

	executable, err := resolveExecutable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve the harbomux executable: %v\n", err)
		return 1
	}

	cfg := config.LoadConfig()
	cmdExec := cmd2.MakeExecutor()

	server, err := tmux.NewServer(tmux.ManagedLabel, cfg.TmuxBinary, cmdExec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var configPath string
	if configDir, err := config.GetConfigDir(); err == nil {
		configPath = filepath.Join(configDir, config.ConfigFileName)
	}
	rcPath, err := config.RcPath()
	if err != nil {
		log.WarningLog.Printf("failed to resolve rc file: %v", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		log.WarningLog.Printf("failed to get working directory: %v", err)
	}

	store := sentinel.OSStore{}
	// Snapshot the context before anything below can touch the sentinel.
	classifier := session.NewClassifier(store)
	log.InfoLog.Printf("harbomux %s started in %s context", version, classifier.Classify())

	d := app.New(app.Deps{
		Classifier: classifier,
		SessionDir: session.NewSessionDir(cwd),
		Server:     server,
		Plain:      tmux.Default(cfg.TmuxBinary, cmdExec),
		Handshake: bootstrap.New(bootstrap.Options{
			Server:     server,
			Store:      store,
			Executable: executable,
			Config:     cfg,
			RcPath:     rcPath,
			Lock:       config.GetLaunchLock(tmux.ManagedLabel),
		}),
		Store:      store,
		Config:     cfg,
		Executable: executable,
		ConfigPath: configPath,
		RcPath:     rcPath,
		Version:    version,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Color:      ui.ColorEnabled(os.Stdout),
		Width:      func() int { return ui.Width(os.Stdout) },
	})
	return d.Dispatch(args)
}

// resolveExecutable returns the absolute path of the running binary with
// symlinks evaluated, so the command line written into a new session keeps
// working when the link is moved.
func resolveExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(exe)
}
