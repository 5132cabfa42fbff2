package config

import (
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "cadence.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/cadence"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/cadence/config.yaml)
// 3. Project config (cadence.yaml in the working directory)
func (l *Loader) Load() (*Config, error) {
	return l.LoadWithOverride("")
}

// LoadWithOverride loads configuration, treating overridePath (when set) as
// the only config file instead of layering user and project files.
func (l *Loader) LoadWithOverride(overridePath string) (*Config, error) {
	config := DefaultConfig()

	if overridePath != "" {
		override, err := LoadFromFile(overridePath)
		if err != nil {
			return nil, err
		}
		config.Merge(override)
		return config, config.Validate()
	}

	// Load user config
	userConfigPath := l.userConfigPath()
	if userConfig, err := LoadFromFile(userConfigPath); err == nil {
		l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
		config.Merge(userConfig)
	} else if !os.IsNotExist(err) {
		l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
	}

	// Load project config from the working directory
	if cwd, err := os.Getwd(); err == nil {
		projectConfigPath := filepath.Join(cwd, ProjectConfigFile)
		if projectConfig, err := LoadFromFile(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else if !os.IsNotExist(err) {
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()
	if _, err := os.Stat(userConfigPath); err == nil {
		return nil
	}
	l.logger.Info("Creating default user config", slog.String("path", userConfigPath))
	return DefaultConfig().Save(userConfigPath)
}

func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return UserConfigFile
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}
