// Package config provides configuration loading for the application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/na5h13/MoneyPlanner-sub000/internal/common"
)

// Config holds the resolved application configuration.
type Config struct {
	DatabasePath string
	LogLevel     string
	LogFormat    string
	WindowDays   int
}

// Load resolves configuration from viper (config file and MONEYPLANNER_
// environment variables) with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath: viper.GetString("database.path"),
		LogLevel:     viper.GetString("logging.level"),
		LogFormat:    viper.GetString("logging.format"),
		WindowDays:   viper.GetInt("classification.window_days"),
	}

	if cfg.DatabasePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("%w: cannot resolve home directory: %v", common.ErrMissingConfig, err)
		}
		cfg.DatabasePath = filepath.Join(home, ".local", "share", "moneyplanner", "moneyplanner.db")
	} else {
		cfg.DatabasePath = ExpandPath(cfg.DatabasePath)
	}

	if cfg.WindowDays < 0 {
		return nil, fmt.Errorf("%w: classification.window_days must be positive", common.ErrInvalidConfig)
	}
	if cfg.WindowDays == 0 {
		cfg.WindowDays = 90
	}

	return cfg, nil
}

// ExpandPath expands a leading ~ and $VAR environment references in a path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			if path == "~" {
				path = home
			} else {
				path = filepath.Join(home, path[2:])
			}
		}
	}

	return os.ExpandEnv(path)
}
