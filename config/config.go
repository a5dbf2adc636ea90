package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"harbomux/log"

	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName = "config.yaml"
	// RcFileName is the shell file sourced by the first pane of a freshly
	// launched session. It is never parsed by harbomux.
	RcFileName = "harbomuxrc"

	defaultTmuxBinary  = "tmux"
	defaultSessionName = "harbour"
)

// GetConfigDir returns the path to the application's configuration directory.
// Priority: HARBOMUX_CONFIG_DIR env > ~/.config/harbomux
func GetConfigDir() (string, error) {
	if dir := os.Getenv("HARBOMUX_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "harbomux"), nil
}

// RcPath returns where the optional startup shell file lives.
func RcPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, RcFileName), nil
}

// Config represents the application configuration
type Config struct {
	// TmuxBinary is the tmux executable used for every multiplexer command.
	TmuxBinary string `yaml:"tmux_binary"`
	// SessionName is the name of the session created on the managed server.
	SessionName string `yaml:"session_name"`
	// Shell is exec'd by the first pane once setup has run. Empty means $SHELL.
	Shell string `yaml:"shell,omitempty"`
	// SetupCommands are tmux command lines run once against the managed
	// server when a new session is bootstrapped, e.g. "set-option -g mouse on".
	SetupCommands []string `yaml:"setup_commands,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	tmux, err := GetTmuxCommand()
	if err != nil {
		log.WarningLog.Printf("failed to find tmux: %v", err)
		tmux = defaultTmuxBinary
	}

	return &Config{
		TmuxBinary:  tmux,
		SessionName: defaultSessionName,
	}
}

// GetTmuxCommand looks tmux up in PATH.
func GetTmuxCommand() (string, error) {
	path, err := exec.LookPath(defaultTmuxBinary)
	if err != nil {
		return "", fmt.Errorf("tmux command not found in PATH: %w", err)
	}
	return path, nil
}

// LoadConfig reads the configuration from disk, writing the defaults on first
// run. It never fails: any problem is logged and the defaults are used.
func LoadConfig() *Config {
	configDir, err := GetConfigDir()
	if err != nil {
		log.ErrorLog.Printf("failed to get config directory: %v", err)
		return DefaultConfig()
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Create and save default config if file doesn't exist
			defaultCfg := DefaultConfig()
			if saveErr := saveConfig(defaultCfg); saveErr != nil {
				log.WarningLog.Printf("failed to save default config: %v", saveErr)
			}
			return defaultCfg
		}

		log.WarningLog.Printf("failed to get config file: %v", err)
		return DefaultConfig()
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		preview := string(data)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		log.ErrorLog.Printf("failed to parse config file at %s: %v\nConfig content preview: %s", configPath, err, preview)

		// Backup the corrupted config before falling back to defaults
		backupPath := configPath + ".corrupt." + time.Now().Format("20060102-150405")
		if backupErr := os.WriteFile(backupPath, data, 0644); backupErr == nil {
			log.InfoLog.Printf("Backed up corrupted config to: %s", backupPath)
		}

		return DefaultConfig()
	}

	applyDefaults(&config)
	return &config
}

func applyDefaults(cfg *Config) {
	if cfg.TmuxBinary == "" {
		cfg.TmuxBinary = defaultTmuxBinary
	}
	if cfg.SessionName == "" {
		cfg.SessionName = defaultSessionName
	}
}

// saveConfig saves the configuration to disk
func saveConfig(config *Config) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// SaveConfig exports the saveConfig function for use by other packages
func SaveConfig(config *Config) error {
	return saveConfig(config)
}
